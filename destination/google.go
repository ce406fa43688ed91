package destination

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Rule contributes a partial Destination from a parsed URL. raw is the URL
// string as received, for patterns that must match before decoding.
type Rule struct {
	Name  string
	Apply func(u *url.URL, raw string) Destination
}

var (
	placeIDQueryRe = regexp.MustCompile(`(?i)^\s*place_id:\s*([^,\s]+)`)
	placeIDFormRe  = regexp.MustCompile(`(?i)^\s*place_id:`)
	locQueryRe     = regexp.MustCompile(`(?i)^\s*loc:\s*` + decimal + `\s*,\s*` + decimal)
	viewportRe     = regexp.MustCompile(`@` + decimal + `,\s*` + decimal + `,`)
	poiMarkerRe    = regexp.MustCompile(`!3d` + decimal + `!4d` + decimal)
	placePathRe    = regexp.MustCompile(`(?i)/maps/place/([^/]+)`)
	searchPathRe   = regexp.MustCompile(`(?i)/maps/search/([^/]+)`)
)

// GoogleRules is the extraction cascade for Google Maps URLs, highest
// priority first. A field set by an earlier rule is never overwritten.
var GoogleRules = []Rule{
	{Name: "place_id_param", Apply: placeIDParam},
	{Name: "destination_param", Apply: destinationParam},
	{Name: "q_param", Apply: queryParam},
	{Name: "viewport", Apply: rawPattern(viewportRe)},
	{Name: "poi_marker", Apply: rawPattern(poiMarkerRe)},
	{Name: "ll_param", Apply: llParam},
	{Name: "place_path", Apply: pathName(placePathRe)},
	{Name: "search_path", Apply: pathName(searchPathRe)},
}

// Extract runs GoogleRules over rawURL. A URL that cannot be parsed yields
// an empty Destination.
func Extract(rawURL string) Destination {
	return apply(GoogleRules, rawURL)
}

func apply(rules []Rule, rawURL string) Destination {
	var d Destination
	u, err := parseAbsolute(rawURL)
	if err != nil {
		return d
	}
	for _, r := range rules {
		d.fill(r.Apply(u, rawURL))
	}
	return d
}

func parseAbsolute(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, &url.Error{Op: "parse", URL: rawURL, Err: errNotAbsolute}
	}
	return u, nil
}

var errNotAbsolute = errors.New("not an absolute URL")

func placeIDParam(u *url.URL, _ string) Destination {
	q := u.Query()
	id := q.Get("destination_place_id")
	if id == "" {
		id = q.Get("query_place_id")
	}
	return Destination{PlaceID: id}
}

func destinationParam(u *url.URL, _ string) Destination {
	dest := u.Query().Get("destination")
	if dest == "" {
		return Destination{}
	}
	if d := pair(exactPairRe, dest); d.HasCoordinates() {
		return d
	}
	return Destination{Address: dest}
}

func queryParam(u *url.URL, _ string) Destination {
	q := u.Query().Get("q")
	if q == "" {
		return Destination{}
	}

	var d Destination
	if m := placeIDQueryRe.FindStringSubmatch(q); m != nil {
		d.PlaceID = m[1]
	}
	switch {
	case locQueryRe.MatchString(q):
		d.fill(pair(locQueryRe, q))
	case exactPairRe.MatchString(q):
		d.fill(pair(exactPairRe, q))
	case !placeIDFormRe.MatchString(q):
		d.Address = strings.ReplaceAll(q, "+", " ")
	}
	return d
}

func rawPattern(re *regexp.Regexp) func(*url.URL, string) Destination {
	return func(_ *url.URL, raw string) Destination {
		return pair(re, raw)
	}
}

func llParam(u *url.URL, _ string) Destination {
	q := u.Query()
	ll := q.Get("ll")
	if ll == "" {
		ll = q.Get("sll")
	}
	return pair(exactPairRe, ll)
}

func pathName(re *regexp.Regexp) func(*url.URL, string) Destination {
	return func(u *url.URL, _ string) Destination {
		m := re.FindStringSubmatch(u.EscapedPath())
		if m == nil {
			return Destination{}
		}
		name, err := url.PathUnescape(m[1])
		if err != nil {
			return Destination{}
		}
		name = strings.ReplaceAll(name, "+", " ")
		if utf8.RuneCountInString(name) <= 1 {
			return Destination{}
		}
		return Destination{Address: name}
	}
}
