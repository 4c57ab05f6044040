package geocoding

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/UnknownOlympus/normalizer/internal/models"
	"googlemaps.github.io/maps"
)

// GoogleProvider is a struct that holds the client for Google Maps API
// and a logger for logging purposes. It is used to interact with the
// Google Maps geocoding services.
type GoogleProvider struct {
	client  GoogleAPIClient // client is the Google Maps API client
	country string          // country restricts results through the components filter
	log     *slog.Logger    // log is the logger for logging operations
}

type GoogleAPIClient interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

const (
	googleProvinceType = "administrative_area_level_1"
	googleLocalityType = "locality"
	googleZeroResults  = "ZERO_RESULTS"
)

// NewGoogleProvider initializes a new GoogleProvider with the given client, country filter and logger.
func NewGoogleProvider(client GoogleAPIClient, country string, log *slog.Logger) *GoogleProvider {
	return &GoogleProvider{client: client, country: strings.ToUpper(country), log: log}
}

// Normalize geocodes the address restricted by postal code and country, and maps the first
// result: formatted address, location, the first-level administrative area as province
// and the locality component.
func (gp *GoogleProvider) Normalize(
	ctx context.Context,
	query models.AddressQuery,
) (*models.NormalizedAddress, error) {
	if strings.TrimSpace(query.Address) == "" {
		return nil, ErrEmptyQuery
	}

	gp.log.DebugContext(ctx, "Normalizing using Google Maps", "address", query.Address, "postal_code", query.PostalCode)

	req := maps.GeocodingRequest{Address: query.Address}
	components := map[maps.Component]string{}
	if query.PostalCode != "" {
		components[maps.ComponentPostalCode] = query.PostalCode
	}
	if gp.country != "" {
		components[maps.ComponentCountry] = gp.country
	}
	if len(components) > 0 {
		req.Components = components
	}

	results, err := gp.client.Geocode(ctx, &req)
	if err != nil {
		if strings.Contains(err.Error(), googleZeroResults) {
			return nil, ErrNoCandidates
		}
		return nil, fmt.Errorf("failed to geocode address: %w", err)
	}

	if len(results) == 0 {
		return nil, ErrNoCandidates
	}

	first := results[0]
	lat, lng := first.Geometry.Location.Lat, first.Geometry.Location.Lng

	return &models.NormalizedAddress{
		Address:   first.FormattedAddress,
		Latitude:  formatCoordinate(&lat),
		Longitude: formatCoordinate(&lng),
		Province:  componentName(first.AddressComponents, googleProvinceType),
		Locality:  componentName(first.AddressComponents, googleLocalityType),
	}, nil
}

func componentName(components []maps.AddressComponent, kind string) string {
	for _, c := range components {
		if slices.Contains(c.Types, kind) {
			return c.LongName
		}
	}

	return ""
}
