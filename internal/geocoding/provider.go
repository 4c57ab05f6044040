package geocoding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/UnknownOlympus/normalizer/internal/models"
)

// Provider is an interface that defines a method for normalizing an address.
// Normalize returns the fields of the first candidate the service matched,
// ErrNoCandidates when the service answered successfully without any match,
// or another error when the lookup itself failed.
type Provider interface {
	Normalize(ctx context.Context, query models.AddressQuery) (*models.NormalizedAddress, error)
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Common errors shared by all providers.
var (
	ErrNoCandidates = errors.New("geocoding service returned no candidates")
	ErrEmptyQuery   = errors.New("address to normalize is empty")
	ErrInvalidCoord = errors.New("geocoding service returned invalid coordinates")
)

// StatusError reports a non-success HTTP status returned by a geocoding service.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}

const defaultTimeout = 10 * time.Second

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &http.Client{Timeout: timeout}
}

// formatCoordinate renders a coordinate with the shortest exact decimal form, or "" when absent.
func formatCoordinate(value *float64) string {
	if value == nil {
		return ""
	}

	return strconv.FormatFloat(*value, 'f', -1, 64)
}
