package resolver

import (
	"io"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// maxBodySize bounds how much of a landing page is scanned.
const maxBodySize = 4 << 20

var (
	linkParamRe  = regexp.MustCompile(`(?i)[?&]link=([^&"'<>]+)`)
	mapsURLRe    = regexp.MustCompile(`(?i)https?://(?:www\.)?google\.[^/"'\s]+/maps[^"' <]+`)
	refreshURLRe = regexp.MustCompile(`(?i)url\s*=\s*['"]?([^"'>\s]+)`)
)

// hint is what a 200 body suggests doing next.
type hint struct {
	next   string
	follow bool // false: next is terminal
}

// readBody decodes the body to UTF-8 using the declared charset.
func readBody(r io.Reader, contentType string) (string, error) {
	r = io.LimitReader(r, maxBodySize)
	if cr, err := charset.NewReader(r, contentType); err == nil {
		r = cr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// scanBody looks for the next URL in a landing page, in priority order:
// meta refresh, then a link= parameter, then a bare Google Maps URL.
func scanBody(current *url.URL, body string) (hint, bool) {
	if target, ok := metaRefresh(body); ok {
		if next, err := current.Parse(target); err == nil {
			return hint{next: next.String(), follow: true}, true
		}
	}

	if m := linkParamRe.FindStringSubmatch(body); m != nil {
		if next, err := url.PathUnescape(m[1]); err == nil {
			return hint{next: next, follow: true}, true
		}
	}

	if m := mapsURLRe.FindString(body); m != "" {
		return hint{next: m}, true
	}

	return hint{}, false
}

// metaRefresh returns the url= target of the first
// <meta http-equiv="refresh"> tag. The tokenizer decodes entities. It reads
// <noscript> as raw text, so that text is tokenized again.
func metaRefresh(body string) (string, bool) {
	z := html.NewTokenizer(strings.NewReader(body))
	inNoscript := false
	for {
		switch z.Next() {
		case html.ErrorToken:
			return "", false
		case html.TextToken:
			if inNoscript {
				if target, ok := metaRefresh(string(z.Text())); ok {
					return target, true
				}
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); string(name) == "noscript" {
				inNoscript = false
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) == "noscript" {
				inNoscript = true
				continue
			}
			if !hasAttr || string(name) != "meta" {
				continue
			}
			if target, ok := refreshTarget(z); ok {
				return target, true
			}
		}
	}
}

func refreshTarget(z *html.Tokenizer) (string, bool) {
	var equiv, content string
	for {
		k, v, more := z.TagAttr()
		switch strings.ToLower(string(k)) {
		case "http-equiv":
			equiv = string(v)
		case "content":
			content = string(v)
		}
		if !more {
			break
		}
	}
	if !strings.EqualFold(strings.TrimSpace(equiv), "refresh") {
		return "", false
	}
	if m := refreshURLRe.FindStringSubmatch(content); m != nil {
		return m[1], true
	}
	return "", false
}
