package resolver

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"googlemaps.github.io/maps"
)

// ProviderType represents the type of address provider.
type ProviderType string

const (
	// ProviderTypePostcode represents the postal code REST service.
	ProviderTypePostcode ProviderType = "postcode"
	// ProviderTypeGoogle represents Google Maps geocoding provider.
	ProviderTypeGoogle ProviderType = "google"
	// ProviderTypeNominatim represents OpenStreetMap Nominatim geocoding provider.
	ProviderTypeNominatim ProviderType = "nominatim"
)

// ProviderConfig holds configuration for creating an address provider.
type ProviderConfig struct {
	Type    ProviderType  // Type of provider to create
	BaseURL string        // Base URL, empty selects the provider default
	APIKey  string        // API key (used by Google provider)
	Country string        // Country filter (used by Google and Nominatim providers)
	Timeout time.Duration // Connect, read and write timeout of every request
	Logger  *slog.Logger  // Logger for the provider
}

// NewProvider creates an address provider based on the provided configuration.
// Every provider built here owns one HTTP client that is shared by all of its requests.
//
// Supported provider types:
// - "postcode": postal code REST service (default endpoint http://localhost:8082)
// - "google": Google Maps Geocoding API (requires API key)
// - "nominatim": OpenStreetMap Nominatim API (free, no API key required)
//
// Returns an error if the provider type is unsupported or if provider creation fails.
func NewProvider(config ProviderConfig) (Provider, error) {
	switch config.Type {
	case ProviderTypePostcode:
		return NewPostcodeProvider(config.BaseURL, config.Timeout, config.Logger), nil
	case ProviderTypeGoogle:
		return newGoogleProvider(config)
	case ProviderTypeNominatim:
		return NewNominatimProviderWithClient(
			NewHTTPClient(config.Timeout), config.BaseURL, config.Country, config.Logger,
		), nil
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", config.Type)
	}
}

// newGoogleProvider creates a Google Maps provider on top of the shared fixed-timeout client.
func newGoogleProvider(config ProviderConfig) (Provider, error) {
	if config.APIKey == "" {
		return nil, errors.New("API key is required for Google provider")
	}

	clientOpts := []maps.ClientOption{
		maps.WithAPIKey(config.APIKey),
		maps.WithHTTPClient(NewHTTPClient(config.Timeout)),
	}
	if config.BaseURL != "" {
		clientOpts = append(clientOpts, maps.WithBaseURL(config.BaseURL))
	}

	client, err := maps.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return NewGoogleProvider(client, config.Country, config.Logger), nil
}
