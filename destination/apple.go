package destination

import (
	"net/url"
	"regexp"
	"strings"
)

var appleURLRe = regexp.MustCompile(`(?i)https?://maps\.apple\.com/[^\s"']+`)

// AppleRules is the extraction cascade for maps.apple.com URLs.
var AppleRules = []Rule{
	{Name: "coordinate_param", Apply: appleCoordinate},
	{Name: "name_param", Apply: appleLabel("name", "q")},
	{Name: "address_param", Apply: appleLabel("address")},
}

// FindAppleURL returns the Apple Maps URL that text is, or the first one
// embedded in it.
func FindAppleURL(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if u, err := url.Parse(text); err == nil && strings.EqualFold(u.Hostname(), "maps.apple.com") {
		return u.String(), true
	}
	if m := appleURLRe.FindString(text); m != "" {
		return m, true
	}
	return "", false
}

// ExtractApple recognises an Apple Maps reference in text and extracts the
// destination embedded in its query. It returns the Apple URL that was used
// and false when text holds no Apple Maps reference.
func ExtractApple(text string) (Destination, string, bool) {
	appleURL, ok := FindAppleURL(text)
	if !ok {
		return Destination{}, "", false
	}
	if _, err := parseAbsolute(appleURL); err != nil {
		return Destination{}, "", false
	}
	return apply(AppleRules, appleURL), appleURL, true
}

func appleCoordinate(u *url.URL, _ string) Destination {
	q := u.Query()
	coord := q.Get("coordinate")
	if coord == "" {
		coord = q.Get("ll")
	}
	return pair(leadingPairRe, coord)
}

// appleLabel takes the first non-empty parameter among keys. Share text is
// sometimes encoded twice, so a second unescape is attempted.
func appleLabel(keys ...string) func(*url.URL, string) Destination {
	return func(u *url.URL, _ string) Destination {
		q := u.Query()
		for _, k := range keys {
			v := q.Get(k)
			if v == "" {
				continue
			}
			if unescaped, err := url.PathUnescape(v); err == nil {
				v = unescaped
			}
			return Destination{Address: strings.ReplaceAll(v, "+", " ")}
		}
		return Destination{}
	}
}
