package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/UnknownOlympus/normalizer/internal/models"
	"golang.org/x/time/rate"
)

// NominatimBaseURL -- public OpenStreetMap Nominatim search endpoint.
const NominatimBaseURL = "https://nominatim.openstreetmap.org/search"

// NominatimUserAgent identifies the normalizer, as required by the Nominatim usage policy.
const NominatimUserAgent = "Address-Normalizer/1.0 (https://github.com/UnknownOlympus/normalizer)"

// NominatimProvider implements the Provider interface using OpenStreetMap's Nominatim API.
// This is a free geocoding service with usage limits (1 request/second for fair use).
type NominatimProvider struct {
	client    HTTPClient    // HTTP client for making requests
	baseURL   string        // Base URL for the Nominatim API
	country   string        // ISO country code used to restrict results
	log       *slog.Logger  // Logger for logging operations
	limiter   *rate.Limiter // Rate limiter
	userAgent string
}

// nominatimResult represents one element of the jsonv2 search response.
type nominatimResult struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Address     struct {
		State   string `json:"state"`
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
	} `json:"address"`
}

// NewNominatimProvider creates a new Nominatim provider.
// Without an explicit RateLimit the provider is throttled to one request per second.
func NewNominatimProvider(cfg ProviderConfig) *NominatimProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = NominatimBaseURL
	}

	rateLimit := cfg.RateLimit
	if rateLimit == 0 {
		rateLimit = 1
	}

	return NewNominatimProviderWithClient(
		newHTTPClient(cfg.Timeout), baseURL, cfg.Country, newLimiter(rateLimit), cfg.Logger,
	)
}

// NewNominatimProviderWithClient creates a Nominatim provider with a custom HTTP client.
// Useful for testing with mocked HTTP clients.
func NewNominatimProviderWithClient(
	client HTTPClient,
	baseURL string,
	country string,
	limiter *rate.Limiter,
	log *slog.Logger,
) *NominatimProvider {
	return &NominatimProvider{
		client:    client,
		baseURL:   baseURL,
		country:   strings.ToLower(country),
		log:       log,
		limiter:   limiter,
		userAgent: NominatimUserAgent,
	}
}

// Normalize searches for "<address>, <postal code>" and maps the best match.
// Every record is sent, blank ones included; the service answer decides the outcome.
// Province comes from address.state; locality is the first of city, town and village.
func (np *NominatimProvider) Normalize(
	ctx context.Context,
	query models.AddressQuery,
) (*models.NormalizedAddress, error) {
	if err := np.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	var parts []string
	for _, part := range []string{query.Address, query.PostalCode} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	search := strings.Join(parts, ", ")

	np.log.DebugContext(ctx, "Normalizing using Nominatim", "query", search)

	reqURL, err := url.Parse(np.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	params := reqURL.Query()
	params.Set("q", search)
	params.Set("format", "jsonv2")
	params.Set("limit", "1")
	params.Set("addressdetails", "1")
	if np.country != "" {
		params.Set("countrycodes", np.country)
	}
	reqURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set required headers per Nominatim usage policy
	req.Header.Set("User-Agent", np.userAgent)
	req.Header.Set("Accept-Language", "es")

	resp, err := np.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute nominatim request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Provider: "nominatim", StatusCode: resp.StatusCode, Body: string(body)}
	}

	np.log.DebugContext(ctx, "Nominatim raw response", "body", string(body))

	var results []nominatimResult
	if err = json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("failed to decode nominatim response: %w", err)
	}

	if len(results) == 0 {
		return nil, ErrNoCandidates
	}

	first := results[0]

	lat, err := parseCoordinate(first.Lat)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid latitude: %s", ErrInvalidCoord, first.Lat)
	}
	lon, err := parseCoordinate(first.Lon)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid longitude: %s", ErrInvalidCoord, first.Lon)
	}

	return &models.NormalizedAddress{
		Address:   first.DisplayName,
		Latitude:  formatCoordinate(lat),
		Longitude: formatCoordinate(lon),
		Province:  first.Address.State,
		Locality:  firstNonEmpty(first.Address.City, first.Address.Town, first.Address.Village),
	}, nil
}

// parseCoordinate parses a coordinate sent as a string; an empty string means absent.
func parseCoordinate(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil //nolint:nilnil // absent coordinate
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}

	return &value, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
