package resolver

import (
	"context"
	"net/http"

	"github.com/UnknownOlympus/hermes/internal/models"
)

// Provider is an interface that defines a method for resolving a postal code.
// The Resolve method takes a context and a postal code as input, and returns
// zero or more address records and an error if the request failed.
// An empty result with a nil error means the provider knows nothing about the code.
type Provider interface {
	Resolve(ctx context.Context, postalCode string) ([]models.Address, error)
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
