package cmd

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gmaps2nav/destination"
	"gmaps2nav/navurl"
	"gmaps2nav/pipeline"
)

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in       string
		output   string
		pipeline navurl.Format
	}{
		{"dir", "dir", navurl.FormatDirections},
		{"INTENT", "intent", navurl.FormatIntent},
		{"geo", "geo", navurl.FormatGeo},
		{"vcard", outputVCard, navurl.FormatDirections},
		{"json", outputJSON, navurl.FormatDirections},
	}
	for _, tt := range tests {
		output, f, err := parseOutputFormat(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.output, output)
		assert.Equal(t, tt.pipeline, f)
	}

	_, _, err := parseOutputFormat("kml")
	assert.Error(t, err)
}

func TestReadInputs(t *testing.T) {
	inputs, err := readInputs(strings.NewReader("https://goo.gl/a\n\n  https://goo.gl/b  \r\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://goo.gl/a", "https://goo.gl/b"}, inputs)
}

func TestWriteOutcomes(t *testing.T) {
	outcomes := []pipeline.Outcome{
		{Input: "a", Result: &pipeline.Result{ResolvedURL: "https://r/a", NavigationURL: "https://n/a"}},
		{Input: "b", Err: errors.New("dial tcp: connection refused")},
		{Input: "c", Result: &pipeline.Result{ResolvedURL: "https://r/c"}},
	}

	var out, errOut bytes.Buffer
	failed := writeOutcomes(&out, &errOut, outcomes, "dir", false)
	assert.Equal(t, 1, failed)
	assert.Equal(t, "https://n/a\nhttps://r/c\n", out.String(), "resolved URL is the fallback")
	assert.Equal(t, "Error processing b: dial tcp: connection refused\n", errOut.String())

	out.Reset()
	errOut.Reset()
	writeOutcomes(&out, &errOut, outcomes, "dir", true)
	assert.Equal(t, "https://r/a\thttps://n/a\nhttps://r/c\t\n", out.String())
}

func TestWriteOutcomesVCard(t *testing.T) {
	outcomes := []pipeline.Outcome{
		{Input: "a", Result: &pipeline.Result{
			ResolvedURL:   "https://r/a",
			NavigationURL: "https://n/a",
			Debug:         &pipeline.DebugInfo{Parsed: destination.Destination{Latitude: "1.5", Longitude: "2.5", Address: "Home"}},
		}},
		{Input: "c", Result: &pipeline.Result{ResolvedURL: "https://r/c", Debug: &pipeline.DebugInfo{}}},
	}

	var out, errOut bytes.Buffer
	failed := writeOutcomes(&out, &errOut, outcomes, outputVCard, false)
	assert.Equal(t, 1, failed)
	assert.Contains(t, out.String(), "FN:Home\r\n")
	assert.Contains(t, out.String(), "GEO:1.5;2.5\r\n")
	assert.Contains(t, errOut.String(), "Error processing c: no destination found")
}

func runRoot(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	t.Chdir(t.TempDir())

	var out, errOut bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestResolveCommand(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/XYZ", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/maps/place/Eiffel+Tower/@48.8584,2.2945,17z", http.StatusFound)
	})
	mux.HandleFunc("/maps/place/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	stdin := srv.URL + "/XYZ\nCheck out https://maps.apple.com/?coordinate=37.33,-122.03&name=Apple+Park\n"
	out, _, err := runRoot(t, stdin, "resolve", "--format", "dir", "--show-resolved=false", "--concurrency", "2")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t,
		"https://www.google.com/maps/dir/?api=1&travelmode=driving&dir_action=navigate&destination=48.8584%2C2.2945&destination_label=Eiffel+Tower",
		lines[0])
	assert.Equal(t,
		"https://www.google.com/maps/dir/?api=1&travelmode=driving&dir_action=navigate&destination=37.33%2C-122.03&destination_label=Apple+Park",
		lines[1])
}

func TestResolveCommandAllFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	dead := srv.URL
	srv.Close()

	_, errOut, err := runRoot(t, "", "resolve", "--format", "dir", "--show-resolved=false", dead+"/a", dead+"/b")
	require.Error(t, err)
	assert.Contains(t, errOut, "Error processing "+dead+"/a")
	assert.Contains(t, errOut, "Error processing "+dead+"/b")
}

func TestVersionCommand(t *testing.T) {
	out, _, err := runRoot(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", out)
}
