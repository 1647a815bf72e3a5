package geo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/tidwall/gjson"
)

// ErrLookupFailed covers every way a lookup can miss: no suggestion,
// missing coordinates, non-200 status, transport error or timeout.
var ErrLookupFailed = errors.New("address lookup failed")

// ErrNoMatch means the service answered but had no usable suggestion.
var ErrNoMatch = fmt.Errorf("%w: no matching address", ErrLookupFailed)

// Location is a geocoded building.
type Location struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	GeoAddress string  `json:"geo_address"`
}

// Lookup resolves a building name to coordinates.
type Lookup interface {
	Lookup(ctx context.Context, buildingName string) (Location, error)
}

// HTTPLookup queries the address lookup service over HTTP.
type HTTPLookup struct {
	BaseURL string
	Timeout time.Duration
	Client  *http.Client
}

// NewHTTPLookup builds a lookup client with a per-call timeout.
func NewHTTPLookup(baseURL string, timeout time.Duration) *HTTPLookup {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPLookup{BaseURL: baseURL, Timeout: timeout, Client: &http.Client{}}
}

const (
	suggestionPath = "SuggestedAddress.0.Address.PremisesAddress"
	maxBodyBytes   = 1 << 20
)

// Lookup asks for the single best suggestion for buildingName.
func (l *HTTPLookup) Lookup(ctx context.Context, buildingName string) (Location, error) {
	name := strings.TrimSpace(buildingName)
	if name == "" {
		return Location{}, fmt.Errorf("%w: empty building name", ErrLookupFailed)
	}

	ctx, cancel := context.WithTimeout(ctx, l.Timeout)
	defer cancel()

	q := url.Values{}
	q.Set("q", name)
	q.Set("n", "1")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Location{}, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		log.Warnf("geo: lookup request for %q failed: %v", name, err)
		return Location{}, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warnf("geo: lookup service returned status %d for %q", resp.StatusCode, name)
		return Location{}, fmt.Errorf("%w: status %d", ErrLookupFailed, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Location{}, fmt.Errorf("%w: read body: %v", ErrLookupFailed, err)
	}
	return parseSuggestion(body)
}

// parseSuggestion extracts the first suggestion.  Coordinates may be
// encoded as numbers or numeric strings.
func parseSuggestion(body []byte) (Location, error) {
	if !gjson.ValidBytes(body) {
		return Location{}, fmt.Errorf("%w: invalid json", ErrLookupFailed)
	}
	premises := gjson.GetBytes(body, suggestionPath)
	if !premises.Exists() {
		return Location{}, ErrNoMatch
	}
	lat := premises.Get("GeospatialInformation.Latitude")
	lon := premises.Get("GeospatialInformation.Longitude")
	if !lat.Exists() || !lon.Exists() || lat.Float() == 0 || lon.Float() == 0 {
		return Location{}, fmt.Errorf("%w: missing coordinates", ErrNoMatch)
	}
	return Location{
		Latitude:   lat.Float(),
		Longitude:  lon.Float(),
		GeoAddress: premises.Get("GeoAddress").String(),
	}, nil
}
