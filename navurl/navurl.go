// Package navurl turns a Destination into a URL that starts driving
// navigation when opened.
package navurl

import (
	"fmt"
	"net/url"
	"strings"

	"gmaps2nav/destination"
)

// DirectionsBase is the Google Maps directions endpoint.
const DirectionsBase = "https://www.google.com/maps/dir/"

// Format selects the kind of URL rendered for a destination.
type Format string

const (
	// FormatDirections is the canonical https directions URL.
	FormatDirections Format = "dir"
	// FormatIntent is an Android google.navigation: intent.
	FormatIntent Format = "intent"
	// FormatGeo is a geo: URI that drops a pin.
	FormatGeo Format = "geo"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatDirections, FormatIntent, FormatGeo:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q (want dir, intent or geo)", s)
}

// Render builds the URL for d in the given format. It returns false when d
// has nothing to navigate to.
func Render(f Format, d destination.Destination) (string, bool) {
	switch f {
	case FormatIntent:
		return Intent(d)
	case FormatGeo:
		return Geo(d)
	default:
		return Build(d)
	}
}

// Build returns the canonical directions URL for d:
//
//	https://www.google.com/maps/dir/?api=1&travelmode=driving&dir_action=navigate&destination=...
//
// The destination value is the coordinate pair, else place_id:<id>, else
// the address. destination_place_id and destination_label are added whenever
// a place id or address is known, even if another field was used as the
// destination. It returns false when d is empty.
func Build(d destination.Destination) (string, bool) {
	var value string
	switch {
	case d.HasCoordinates():
		value = d.Coordinates()
	case d.PlaceID != "":
		value = "place_id:" + d.PlaceID
	case d.Address != "":
		value = d.Address
	default:
		return "", false
	}

	q := orderedQuery{}
	q.add("api", "1")
	q.add("travelmode", "driving")
	q.add("dir_action", "navigate")
	q.add("destination", value)
	if d.PlaceID != "" {
		q.add("destination_place_id", d.PlaceID)
	}
	if d.Address != "" {
		q.add("destination_label", d.Address)
	}
	return DirectionsBase + "?" + q.encode(), true
}

// Intent returns a google.navigation: intent. The place id is preferred here
// because the Android client resolves it to the exact listing.
func Intent(d destination.Destination) (string, bool) {
	var q string
	switch {
	case d.PlaceID != "":
		q = "place_id:" + d.PlaceID
	case d.HasCoordinates():
		q = d.Coordinates()
	case d.Address != "":
		q = url.QueryEscape(d.Address)
	default:
		return "", false
	}
	return "google.navigation:q=" + q + "&mode=d", true
}

// Geo returns a geo: URI for d.
func Geo(d destination.Destination) (string, bool) {
	var q string
	switch {
	case d.HasCoordinates():
		q = d.Coordinates()
	case d.Address != "":
		q = url.QueryEscape(d.Address)
	case d.PlaceID != "":
		q = "place_id:" + d.PlaceID
	default:
		return "", false
	}
	return "geo:0,0?q=" + q, true
}

// orderedQuery keeps parameters in insertion order; url.Values sorts them.
type orderedQuery [][2]string

func (q *orderedQuery) add(k, v string) {
	*q = append(*q, [2]string{k, v})
}

func (q orderedQuery) encode() string {
	var sb strings.Builder
	for i, kv := range q {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(kv[0]))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(kv[1]))
	}
	return sb.String()
}
