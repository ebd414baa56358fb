package browser

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/jonathan/lighthouse-audit/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlag(t *testing.T) {
	tests := []struct {
		in        string
		wantName  string
		wantValue any
	}{
		{"--disable-mobile-emulation", "disable-mobile-emulation", true},
		{"--lang=en-GB", "lang", "en-GB"},
		{"  no-sandbox ", "no-sandbox", true},
		{"--", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			name, value := parseFlag(tt.in)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantValue, value)
		})
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.True(t, opts.Headless)
	assert.Equal(t, DefaultPort, opts.Port)
	assert.Equal(t, 1200, opts.WindowWidth)
	assert.Equal(t, 900, opts.WindowHeight)
	assert.Contains(t, opts.Flags, "--disable-mobile-emulation")
}

func TestNavigationError_Unwrap(t *testing.T) {
	cause := errors.New("timeout")
	err := &NavigationError{Step: 2, Action: "click", Message: "click #go", Cause: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "step 2 (click)")
}

// TestSession_Integration needs a local Chrome; set CHROME_INTEGRATION=1 to run it.
func TestSession_Integration(t *testing.T) {
	if testing.Short() || os.Getenv("CHROME_INTEGRATION") == "" {
		t.Skip("Skipping browser integration test: CHROME_INTEGRATION not set")
	}

	ctx := context.Background()
	opts := DefaultOptions()
	opts.Port = 9333

	s, err := Launch(ctx, opts)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	loc, err := s.Perform(ctx, []types.Step{
		{Action: types.StepGoto, URL: "data:text/html,<a href='https://example.com/'>Example</a>"},
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(loc, "data:text/html"))

	mux := http.NewServeMux()
	mux.HandleFunc("/subjects", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<a id="next" href="/subjects/cancer">Cancer</a><button id="reload" onclick="location.reload()">reload</button>`))
	})
	mux.HandleFunc("/subjects/cancer", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<p id="done">Cancer</p>`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	loc, err = s.Perform(ctx, []types.Step{
		{Action: types.StepGoto, URL: server.URL + "/subjects"},
		{Action: types.StepClick, Selector: "#reload", WaitNavigation: true},
		{Action: types.StepClick, Selector: "#next", WaitNavigation: true},
		{Action: types.StepWait, Selector: "#done"},
	})
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/subjects/cancer", loc)
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}
