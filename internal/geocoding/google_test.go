package geocoding_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/UnknownOlympus/normalizer/internal/geocoding"
	"github.com/UnknownOlympus/normalizer/internal/models"
	"github.com/UnknownOlympus/normalizer/test/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"googlemaps.github.io/maps"
)

func TestGoogleProvider_Normalize(t *testing.T) {
	mockClient := mocks.NewGoogleAPIClient(t)
	provider := geocoding.NewGoogleProvider(mockClient, "ar", slog.Default())
	ctx := testContext(t)
	query := models.AddressQuery{Address: "Av. Siempre Viva 742", PostalCode: "1000"}
	req := &maps.GeocodingRequest{
		Address: query.Address,
		Components: map[maps.Component]string{
			maps.ComponentPostalCode: "1000",
			maps.ComponentCountry:    "AR",
		},
	}

	t.Run("api returns error", func(t *testing.T) {
		mockClient.On("Geocode", ctx, req).Return(nil, assert.AnError).Once()

		_, err := provider.Normalize(ctx, query)

		require.Error(t, err)
		require.ErrorIs(t, err, assert.AnError)
		mockClient.AssertExpectations(t)
	})

	t.Run("api reports zero results", func(t *testing.T) {
		mockClient.On("Geocode", ctx, req).Return(nil, errors.New("maps: ZERO_RESULTS - ")).Once()

		addr, err := provider.Normalize(ctx, query)

		require.Nil(t, addr)
		require.ErrorIs(t, err, geocoding.ErrNoCandidates)
		mockClient.AssertExpectations(t)
	})

	t.Run("api return empty response", func(t *testing.T) {
		mockClient.On("Geocode", ctx, req).Return(nil, nil).Once()

		addr, err := provider.Normalize(ctx, query)

		require.Nil(t, addr)
		require.ErrorIs(t, err, geocoding.ErrNoCandidates)
		mockClient.AssertExpectations(t)
	})

	t.Run("successful normalization", func(t *testing.T) {
		mockResponse := []maps.GeocodingResult{
			{
				FormattedAddress: "Av. Siempre Viva 742, C1000 CABA, Argentina",
				Geometry:         maps.AddressGeometry{Location: maps.LatLng{Lat: -34.6, Lng: -58.4}},
				AddressComponents: []maps.AddressComponent{
					{LongName: "742", Types: []string{"street_number"}},
					{LongName: "Buenos Aires", Types: []string{"locality", "political"}},
					{LongName: "Ciudad Autónoma de Buenos Aires", Types: []string{"administrative_area_level_1", "political"}},
				},
			},
		}

		mockClient.On("Geocode", ctx, req).Return(mockResponse, nil).Once()

		addr, err := provider.Normalize(ctx, query)

		require.NoError(t, err)
		require.NotNil(t, addr)
		assert.Equal(t, models.NormalizedAddress{
			Address:   "Av. Siempre Viva 742, C1000 CABA, Argentina",
			Latitude:  "-34.6",
			Longitude: "-58.4",
			Province:  "Ciudad Autónoma de Buenos Aires",
			Locality:  "Buenos Aires",
		}, *addr)
		mockClient.AssertExpectations(t)
	})

	t.Run("no components without postal code and country", func(t *testing.T) {
		bare := geocoding.NewGoogleProvider(mockClient, "", slog.Default())
		bareReq := &maps.GeocodingRequest{Address: "Calle Falsa 123"}
		mockClient.On("Geocode", ctx, bareReq).Return([]maps.GeocodingResult{
			{FormattedAddress: "Calle Falsa 123"},
		}, nil).Once()

		addr, err := bare.Normalize(ctx, models.AddressQuery{Address: "Calle Falsa 123"})

		require.NoError(t, err)
		assert.Equal(t, "Calle Falsa 123", addr.Address)
		assert.Empty(t, addr.Province)
		assert.Empty(t, addr.Locality)
		mockClient.AssertExpectations(t)
	})
}
