package resolver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(maxHops int, timeout time.Duration) *HTTPResolver {
	cfg := DefaultConfig()
	cfg.MaxHops = maxHops
	cfg.HopTimeout = timeout
	return NewHTTPResolver(cfg)
}

func TestResolveFollowsRelativeRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/b/", http.StatusFound)
	})
	mux.HandleFunc("/b/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "c?x=1")
		w.WriteHeader(http.StatusMovedPermanently)
	})
	mux.HandleFunc("/b/c", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "/d")
		w.WriteHeader(http.StatusSeeOther)
	})
	mux.HandleFunc("/d", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "/e")
		w.WriteHeader(http.StatusTemporaryRedirect)
	})
	mux.HandleFunc("/e", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "/final")
		w.WriteHeader(http.StatusPermanentRedirect)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html><body>nothing here</body></html>")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	got, err := newTestResolver(10, time.Second).Resolve(context.Background(), srv.URL+"/a")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/final", got)
}

func TestResolveRedirectWithoutLocationStops(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusFound)
	}))
	defer srv.Close()

	got, err := newTestResolver(10, time.Second).Resolve(context.Background(), srv.URL+"/start")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/start", got)
}

func TestResolveStopsAfterMaxHops(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		n, _ := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/hop/"))
		http.Redirect(w, r, fmt.Sprintf("/hop/%d", n+1), http.StatusFound)
	}))
	defer srv.Close()

	got, err := newTestResolver(3, time.Second).Resolve(context.Background(), srv.URL+"/hop/0")
	require.NoError(t, err, "running out of hops is not an error")
	assert.Equal(t, srv.URL+"/hop/3", got)
	assert.Equal(t, int32(3), hits.Load())
}

func TestResolveMetaRefreshBeatsLinkParam(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/landing", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, `<html><head>
<meta http-equiv="refresh" content="0; url=/target?a=1&amp;b=2">
</head><body><a href="https://example.page.link/?link=https%3A%2F%2Felsewhere.example%2F">x</a></body></html>`)
	})
	mux.HandleFunc("/target", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	got, err := newTestResolver(10, time.Second).Resolve(context.Background(), srv.URL+"/landing")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/target?a=1&b=2", got)
}

func TestResolveMetaRefreshInsideNoscript(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/landing", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<html><head><noscript><meta http-equiv="refresh" content="0;url=/target?a=1&amp;b=2"></noscript></head>
<body><script>location.replace("https://example.page.link/?link=https%3A%2F%2Felsewhere.example%2F")</script></body></html>`)
	})
	mux.HandleFunc("/target", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	got, err := newTestResolver(10, time.Second).Resolve(context.Background(), srv.URL+"/landing")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/target?a=1&b=2", got)
}

func TestResolveDoesNotShareCookies(t *testing.T) {
	var seen []string
	mux := http.NewServeMux()
	mux.HandleFunc("/first", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "user-A", Path: "/"})
		http.Redirect(w, r, "/first/done", http.StatusFound)
	})
	mux.HandleFunc("/first/done", func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("session")
		if assert.NoError(t, err, "cookies persist across hops of one resolution") {
			assert.Equal(t, "user-A", c.Value)
		}
	})
	mux.HandleFunc("/second", func(w http.ResponseWriter, r *http.Request) {
		for _, c := range r.Cookies() {
			seen = append(seen, c.String())
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	r := newTestResolver(10, time.Second)
	_, err := r.Resolve(context.Background(), srv.URL+"/first")
	require.NoError(t, err)
	_, err = r.Resolve(context.Background(), srv.URL+"/second")
	require.NoError(t, err)
	assert.Empty(t, seen)
}

func TestResolveFollowsLinkParam(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/landing", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<script>var target = "https://example.page.link/?link=%s&apn=com.google.android.apps.maps";</script>`,
			url.QueryEscape(srv.URL+"/dest"))
	})
	mux.HandleFunc("/dest", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	got, err := newTestResolver(10, time.Second).Resolve(context.Background(), srv.URL+"/landing")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/dest", got)
}

func TestResolveSniffedMapsURLIsTerminal(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		io.WriteString(w, `<script>window.APP_INIT=["https://www.google.com/maps/place/Foo/@1.5,2.5,10z",null]</script>`)
	}))
	defer srv.Close()

	got, err := newTestResolver(10, time.Second).Resolve(context.Background(), srv.URL+"/landing")
	require.NoError(t, err)
	assert.Equal(t, "https://www.google.com/maps/place/Foo/@1.5,2.5,10z", got)
	assert.Equal(t, int32(1), hits.Load(), "a sniffed URL is not fetched")
}

func TestResolveOtherStatusStops(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "/ignored")
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	got, err := newTestResolver(10, time.Second).Resolve(context.Background(), srv.URL+"/missing")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/missing", got)
}

func TestResolveSendsBrowserHeaders(t *testing.T) {
	var header http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Clone()
	}))
	defer srv.Close()

	_, err := newTestResolver(10, time.Second).Resolve(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, DefaultUserAgent, header.Get("User-Agent"))
	assert.Equal(t, "en-US,en;q=0.9", header.Get("Accept-Language"))
}

func TestResolveHopTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := newTestResolver(10, 50*time.Millisecond).Resolve(context.Background(), srv.URL+"/slow")
	require.Error(t, err)
	assert.True(t, IsTimeout(err), "got %v", err)
	assert.True(t, IsTransport(err))

	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, 0, rerr.Hop)
	assert.Equal(t, srv.URL+"/slow", rerr.URL)
}

func TestResolveTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := srv.URL
	srv.Close()

	_, err := newTestResolver(10, time.Second).Resolve(context.Background(), addr)
	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.False(t, IsTimeout(err))
}

func TestResolveMalformedInput(t *testing.T) {
	_, err := newTestResolver(10, time.Second).Resolve(context.Background(), "http://[::1")
	require.Error(t, err)

	var rerr *Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, KindRequest, rerr.Kind)
	assert.True(t, IsRequest(err))
	assert.False(t, IsTransport(err))
}

func TestUnwrapConsent(t *testing.T) {
	assert.Equal(t,
		"https://www.google.com/maps/place/X",
		unwrapConsent("https://consent.google.com/ml?continue=https://www.google.com/maps/place/X&gl=FR"))
	assert.Equal(t,
		"https://consent.google.com/ml",
		unwrapConsent("https://consent.google.com/ml"))
	assert.Equal(t,
		"https://www.google.com/maps?continue=x",
		unwrapConsent("https://www.google.com/maps?continue=x"))
}

func TestMetaRefresh(t *testing.T) {
	tests := []struct {
		body     string
		expected string
		ok       bool
	}{
		{`<meta http-equiv="refresh" content="0;URL='https://a.example/x'">`, "https://a.example/x", true},
		{`<META HTTP-EQUIV=Refresh CONTENT="5; url=/rel">`, "/rel", true},
		{`<meta name="viewport" content="width=device-width"><meta http-equiv="refresh" content="0;url=/two"/>`, "/two", true},
		{`<meta http-equiv="refresh" content="30">`, "", false},
		{`<meta http-equiv="content-type" content="text/html; url=/no">`, "", false},
		{`no html at all`, "", false},
		{`<noscript><meta http-equiv="refresh" content="0;url=/ns?a=1&amp;b=2"></noscript>`, "/ns?a=1&b=2", true},
		{`<noscript><p>enable JavaScript</p></noscript><meta http-equiv="refresh" content="0;url=/after">`, "/after", true},
		{`<title><meta http-equiv="refresh" content="0;url=/no"></title>`, "", false},
	}

	for _, test := range tests {
		got, ok := metaRefresh(test.body)
		assert.Equal(t, test.ok, ok, test.body)
		assert.Equal(t, test.expected, got, test.body)
	}
}
