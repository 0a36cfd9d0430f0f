package GeoMatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// Fix is a resolved customer location. HasCoordinates is false for manually
// entered addresses that could not be geocoded; ranking then degrades to
// distance-unavailable for every pump.
type Fix struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	Address        string  `json:"address"`
	HasCoordinates bool    `json:"has_coordinates"`
}

// ErrPermissionDenied means the location provider refused the request
// outright. That is terminal for the automatic path; the resolver falls
// through to the manual address.
var ErrPermissionDenied = errors.New("location permission denied")

type Provider interface {
	Geocode(ctx context.Context, query string) (Fix, error)
}

const (
	highAccuracyTimeout = 5 * time.Second
	relaxedTimeout      = 20 * time.Second
)

// Resolver implements the two-attempt acquisition protocol: a high-accuracy
// attempt with a short timeout, then one relaxed retry with a long timeout
// that may settle for a stale cached fix.
type Resolver struct {
	provider Provider

	mu     sync.Mutex
	cached *Fix
}

func NewResolver(provider Provider) *Resolver {
	return &Resolver{provider: provider}
}

func (r *Resolver) Resolve(ctx context.Context, address string) Fix {
	primaryCtx, cancel := context.WithTimeout(ctx, highAccuracyTimeout)
	fix, err := r.provider.Geocode(primaryCtx, address)
	cancel()
	if err == nil {
		r.remember(fix)
		return fix
	}

	if errors.Is(err, ErrPermissionDenied) {
		log.Printf("Location permission denied, keeping manual address %q", address)
		return Fix{Address: address}
	}

	log.Printf("High-accuracy location failed (%v), retrying relaxed", err)
	retryCtx, cancel := context.WithTimeout(ctx, relaxedTimeout)
	fix, err = r.provider.Geocode(retryCtx, address)
	cancel()
	if err == nil {
		r.remember(fix)
		return fix
	}

	if cached := r.lastKnown(); cached != nil {
		log.Printf("Relaxed location failed (%v), using stale cached fix", err)
		return *cached
	}

	log.Printf("Location acquisition failed (%v), keeping manual address %q", err, address)
	return Fix{Address: address}
}

func (r *Resolver) remember(fix Fix) {
	if !fix.HasCoordinates {
		return
	}
	r.mu.Lock()
	r.cached = &fix
	r.mu.Unlock()
}

func (r *Resolver) lastKnown() *Fix {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cached
}

// LocationIQ is the forward-geocoding provider used in production.
type LocationIQ struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

func NewLocationIQ(apiKey, baseURL string) *LocationIQ {
	return &LocationIQ{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Client:  &http.Client{},
	}
}

func (l *LocationIQ) Geocode(ctx context.Context, query string) (Fix, error) {
	if l.APIKey == "" {
		return Fix{}, errors.New("location services not configured")
	}

	endpoint := fmt.Sprintf("%s/search.php?key=%s&q=%s&format=json&limit=1",
		l.BaseURL, l.APIKey, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Fix{}, err
	}

	resp, err := l.Client.Do(req)
	if err != nil {
		return Fix{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return Fix{}, ErrPermissionDenied
	default:
		return Fix{}, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var results []struct {
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return Fix{}, err
	}
	if len(results) == 0 {
		return Fix{}, errors.New("no results found for this address")
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return Fix{}, err
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return Fix{}, err
	}

	return Fix{
		Latitude:       lat,
		Longitude:      lon,
		Address:        results[0].DisplayName,
		HasCoordinates: true,
	}, nil
}
