// Package contact exports a destination as a vCard so it can be saved to an
// address book and navigated to later.
package contact

import (
	"fmt"
	"io"

	"github.com/emersion/go-vcard"

	"gmaps2nav/destination"
)

// FallbackName is used when the destination has no label.
const FallbackName = "Destination"

// Card builds a vCard 3.0 for d. navURL, if set, becomes the card URL.
func Card(d destination.Destination, navURL string) vcard.Card {
	card := make(vcard.Card)

	card.SetValue(vcard.FieldVersion, "3.0")

	name := d.Address
	if name == "" {
		name = FallbackName
	}
	card.SetValue(vcard.FieldFormattedName, name)
	// Empty structured name: the card describes a place, not a person
	card.Set(vcard.FieldName, &vcard.Field{Value: ";;;;"})
	card.SetValue(vcard.FieldOrganization, name)

	if d.Address != "" {
		card.Set(vcard.FieldAddress, &vcard.Field{
			Value: ";;" + d.Address + ";;;;",
			Params: vcard.Params{
				vcard.ParamType: []string{"WORK"},
			},
		})
	}

	if d.HasCoordinates() {
		card.Set("GEO", &vcard.Field{
			Value: fmt.Sprintf("%s;%s", d.Latitude, d.Longitude),
		})
	}

	if navURL != "" {
		card.Add(vcard.FieldURL, &vcard.Field{Value: navURL})
	}

	if d.PlaceID != "" {
		card.Set(vcard.FieldNote, &vcard.Field{Value: "Google place ID: " + d.PlaceID})
	}

	return card
}

// Encode writes the vCard for d to w.
func Encode(w io.Writer, d destination.Destination, navURL string) error {
	if err := vcard.NewEncoder(w).Encode(Card(d, navURL)); err != nil {
		return fmt.Errorf("encoding vcard: %w", err)
	}
	return nil
}
