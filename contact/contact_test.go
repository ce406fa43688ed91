package contact

import (
	"bytes"
	"strings"
	"testing"

	"github.com/emersion/go-vcard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gmaps2nav/destination"
)

const nav = "https://www.google.com/maps/dir/?api=1&travelmode=driving&dir_action=navigate&destination=48.8584%2C2.2945"

func TestEncode(t *testing.T) {
	d := destination.Destination{Latitude: "48.8584", Longitude: "2.2945", PlaceID: "ChIJLU7jZClu5kcR4PcOOO6p3I0", Address: "Eiffel Tower"}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, d, nav))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "BEGIN:VCARD\r\n"))
	assert.Contains(t, out, "GEO:48.8584;2.2945\r\n")

	card, err := vcard.NewDecoder(&buf).Decode()
	require.NoError(t, err)
	assert.Equal(t, "3.0", card.Value(vcard.FieldVersion))
	assert.Equal(t, "Eiffel Tower", card.PreferredValue(vcard.FieldFormattedName))
	assert.Equal(t, "Eiffel Tower", card.Value(vcard.FieldOrganization))
	assert.Equal(t, nav, card.Value(vcard.FieldURL))
	assert.Equal(t, "Google place ID: ChIJLU7jZClu5kcR4PcOOO6p3I0", card.Value(vcard.FieldNote))
}

func TestCardMinimal(t *testing.T) {
	card := Card(destination.Destination{PlaceID: "PID"}, "")

	assert.Equal(t, FallbackName, card.Value(vcard.FieldFormattedName))
	assert.Nil(t, card.Get("GEO"))
	assert.Nil(t, card.Get(vcard.FieldURL))
	assert.Nil(t, card.Get(vcard.FieldAddress))
	assert.Equal(t, "Google place ID: PID", card.Value(vcard.FieldNote))
}
