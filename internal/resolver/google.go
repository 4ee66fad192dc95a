package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/UnknownOlympus/hermes/internal/models"
	"googlemaps.github.io/maps"
)

// Google address component types used to build a record.
const (
	componentPostalCode = "postal_code"
	componentLocality   = "locality"
	componentPostalTown = "postal_town"
	componentRegion     = "administrative_area_level_1"
	zeroResultsPrefix   = "maps: ZERO_RESULTS"
)

// GoogleProvider is a struct that holds the client for Google Maps API
// and a logger for logging purposes. It resolves postal codes with
// component filtering of the Google Maps geocoding service.
type GoogleProvider struct {
	client  GoogleAPIClient // client is the Google Maps API client
	country string          // country restricts results to an ISO 3166-1 code
	log     *slog.Logger    // log is the logger for logging operations
}

type GoogleAPIClient interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// NewGoogleProvider initializes a new GoogleProvider with the given client, country filter and logger.
func NewGoogleProvider(client GoogleAPIClient, country string, log *slog.Logger) *GoogleProvider {
	return &GoogleProvider{client: client, country: country, log: log}
}

// Resolve looks the postal code up as a geocoding component and turns every
// result into an address record. ZERO_RESULTS answers are an empty result.
func (gp *GoogleProvider) Resolve(ctx context.Context, postalCode string) ([]models.Address, error) {
	if postalCode == "" {
		return nil, ErrEmptyPostalCode
	}

	gp.log.DebugContext(ctx, "Resolving using Google Maps", "postal_code", postalCode)

	req := maps.GeocodingRequest{
		Components: map[maps.Component]string{maps.ComponentPostalCode: postalCode},
	}
	if gp.country != "" {
		req.Components[maps.ComponentCountry] = gp.country
		req.Region = strings.ToLower(gp.country)
	}

	results, err := gp.client.Geocode(ctx, &req)
	if err != nil {
		// The maps client reports API statuses only as fmt.Errorf("maps: %s - %s", status, message).
		if strings.HasPrefix(err.Error(), zeroResultsPrefix) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to geocode postal code: %w", err)
	}

	seen := make(map[models.Address]struct{}, len(results))
	addresses := make([]models.Address, 0, len(results))
	for _, result := range results {
		addr := addressFromComponents(result.AddressComponents)
		if addr.PostalCode == "" {
			addr.PostalCode = postalCode
		}
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		addresses = append(addresses, addr)
	}

	return addresses, nil
}

func addressFromComponents(components []maps.AddressComponent) models.Address {
	var addr models.Address
	var postalTown string

	for _, component := range components {
		for _, typ := range component.Types {
			switch typ {
			case componentPostalCode:
				addr.PostalCode = component.LongName
			case componentLocality:
				addr.Locality = component.LongName
			case componentPostalTown:
				postalTown = component.LongName
			case componentRegion:
				addr.Region = component.LongName
			}
		}
	}

	if addr.Locality == "" {
		addr.Locality = postalTown
	}

	return addr
}
