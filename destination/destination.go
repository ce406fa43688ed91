// Package destination recovers a place (coordinates, place id or address)
// from Google Maps URLs and Apple Maps share text.
package destination

import (
	"fmt"
	"regexp"
)

// Destination is a place recovered from a map URL. Coordinates are kept as
// the decimal strings found in the URL so they round-trip unchanged.
type Destination struct {
	Latitude  string `json:"lat,omitempty"`
	Longitude string `json:"lng,omitempty"`
	PlaceID   string `json:"placeId,omitempty"`
	Address   string `json:"address,omitempty"`
}

// HasCoordinates reports whether both latitude and longitude are set.
func (d Destination) HasCoordinates() bool {
	return d.Latitude != "" && d.Longitude != ""
}

// IsEmpty reports whether nothing usable was found.
func (d Destination) IsEmpty() bool {
	return !d.HasCoordinates() && d.PlaceID == "" && d.Address == ""
}

// Coordinates returns "lat,lng", or an empty string without coordinates.
func (d Destination) Coordinates() string {
	if !d.HasCoordinates() {
		return ""
	}
	return fmt.Sprintf("%s,%s", d.Latitude, d.Longitude)
}

// fill copies fields from p that are still empty in d. Coordinates move as a
// pair so a latitude from one rule is never combined with another rule's
// longitude.
func (d *Destination) fill(p Destination) {
	if !d.HasCoordinates() && p.HasCoordinates() {
		d.Latitude, d.Longitude = p.Latitude, p.Longitude
	}
	if d.PlaceID == "" {
		d.PlaceID = p.PlaceID
	}
	if d.Address == "" {
		d.Address = p.Address
	}
}

const decimal = `(-?\d+\.\d+)`

var (
	// whole value is "lat,lng"
	exactPairRe = regexp.MustCompile(`^\s*` + decimal + `\s*,\s*` + decimal + `\s*$`)
	// value starts with "lat,lng"
	leadingPairRe = regexp.MustCompile(`^\s*` + decimal + `\s*,\s*` + decimal)
)

func pair(re *regexp.Regexp, s string) Destination {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return Destination{}
	}
	return Destination{Latitude: m[1], Longitude: m[2]}
}
