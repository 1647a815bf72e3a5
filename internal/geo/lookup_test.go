package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSuggestion = `{
  "SuggestedAddress": [{
    "Address": {
      "PremisesAddress": {
        "GeoAddress": "3658519520T20050430",
        "GeospatialInformation": {"Latitude": "22.28405", "Longitude": 114.13784}
      }
    }
  }]
}`

func TestHTTPLookupSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Main Building", r.URL.Query().Get("q"))
		assert.Equal(t, "1", r.URL.Query().Get("n"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleSuggestion))
	}))
	defer srv.Close()

	loc, err := NewHTTPLookup(srv.URL, time.Second).Lookup(context.Background(), "Main Building")
	require.NoError(t, err)
	assert.InDelta(t, 22.28405, loc.Latitude, 1e-9)
	assert.InDelta(t, 114.13784, loc.Longitude, 1e-9)
	assert.Equal(t, "3658519520T20050430", loc.GeoAddress)
}

func TestHTTPLookupFailures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"non-200": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		},
		"empty suggestions": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"SuggestedAddress": []}`))
		},
		"missing coordinates": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"SuggestedAddress":[{"Address":{"PremisesAddress":{"GeoAddress":"X"}}}]}`))
		},
		"not json": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()
			_, err := NewHTTPLookup(srv.URL, time.Second).Lookup(context.Background(), "Somewhere")
			assert.ErrorIs(t, err, ErrLookupFailed)
		})
	}
}

func TestHTTPLookupTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	_, err := NewHTTPLookup(srv.URL, 50*time.Millisecond).Lookup(context.Background(), "Slow Tower")
	assert.ErrorIs(t, err, ErrLookupFailed)
}

func TestHTTPLookupEmptyName(t *testing.T) {
	_, err := NewHTTPLookup("http://127.0.0.1:1", time.Second).Lookup(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrLookupFailed)
}
