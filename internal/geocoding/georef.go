package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/UnknownOlympus/normalizer/internal/models"
	"golang.org/x/time/rate"
)

// GeorefBaseURL -- Georef (datos.gob.ar) address normalization endpoint.
const GeorefBaseURL = "https://apis.datos.gob.ar/georef/api/v2.0/direcciones"

// GeorefProvider normalizes Argentine addresses with the public Georef API.
type GeorefProvider struct {
	client  HTTPClient    // HTTP client for making requests
	baseURL string        // Base URL for the direcciones endpoint
	log     *slog.Logger  // Logger for logging operations
	limiter *rate.Limiter // Rate limiter
}

// georefResponse is the subset of the direcciones payload the normalizer reads.
// Every nested field is optional; absent values decode to their zero value.
type georefResponse struct {
	Direcciones []georefCandidate `json:"direcciones"`
}

type georefCandidate struct {
	Nomenclatura string `json:"nomenclatura"`
	Ubicacion    struct {
		Lat *float64 `json:"lat"`
		Lon *float64 `json:"lon"`
	} `json:"ubicacion"`
	Provincia       georefEntity `json:"provincia"`
	LocalidadCensal georefEntity `json:"localidad_censal"`
}

type georefEntity struct {
	Nombre string `json:"nombre"`
}

// NewGeorefProvider creates a new Georef provider. A zero RateLimit disables throttling.
func NewGeorefProvider(cfg ProviderConfig) *GeorefProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = GeorefBaseURL
	}

	return NewGeorefProviderWithClient(newHTTPClient(cfg.Timeout), baseURL, newLimiter(cfg.RateLimit), cfg.Logger)
}

// NewGeorefProviderWithClient allows injecting custom HTTP client.
func NewGeorefProviderWithClient(
	client HTTPClient,
	baseURL string,
	limiter *rate.Limiter,
	log *slog.Logger,
) *GeorefProvider {
	return &GeorefProvider{
		client:  client,
		baseURL: baseURL,
		log:     log,
		limiter: limiter,
	}
}

// Normalize looks the address up by direccion and codigo_postal and returns the first candidate.
// Both parameters are always sent, even when empty, so the service decides what a blank record matches.
// Missing sub-fields of the candidate are returned as empty strings.
func (gp *GeorefProvider) Normalize(
	ctx context.Context,
	query models.AddressQuery,
) (*models.NormalizedAddress, error) {
	if err := gp.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	gp.log.DebugContext(ctx, "Normalizing using Georef", "address", query.Address, "postal_code", query.PostalCode)

	reqURL, err := url.Parse(gp.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	params := reqURL.Query()
	params.Set("direccion", query.Address)
	params.Set("codigo_postal", query.PostalCode)
	reqURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := gp.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute georef request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Provider: "georef", StatusCode: resp.StatusCode, Body: string(body)}
	}

	gp.log.DebugContext(ctx, "Georef raw response", "body", string(body))

	var result georefResponse
	if err = json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode georef response: %w", err)
	}

	if len(result.Direcciones) == 0 {
		return nil, ErrNoCandidates
	}

	first := result.Direcciones[0]

	return &models.NormalizedAddress{
		Address:   first.Nomenclatura,
		Latitude:  formatCoordinate(first.Ubicacion.Lat),
		Longitude: formatCoordinate(first.Ubicacion.Lon),
		Province:  first.Provincia.Nombre,
		Locality:  first.LocalidadCensal.Nombre,
	}, nil
}
