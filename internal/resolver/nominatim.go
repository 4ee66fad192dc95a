package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/UnknownOlympus/hermes/internal/models"
)

// NominatimBaseURL is the public OpenStreetMap Nominatim endpoint.
const NominatimBaseURL = "https://nominatim.openstreetmap.org"

// NominatimProvider implements the Provider interface using OpenStreetMap's Nominatim API.
// This is a free service with usage limits (1 request/second for fair use), so it
// suits small datasets or a self-hosted instance.
type NominatimProvider struct {
	client  HTTPClient   // HTTP client for making requests
	baseURL string       // Base URL for the Nominatim API
	country string       // Optional ISO 3166-1 country filter
	log     *slog.Logger // Logger for logging operations
	// userAgent is required by Nominatim usage policy
	userAgent string
}

// nominatimResponse represents one search result of the Nominatim API with address details.
type nominatimResponse struct {
	Address struct {
		Postcode string `json:"postcode"`
		City     string `json:"city"`
		Town     string `json:"town"`
		Village  string `json:"village"`
		State    string `json:"state"`
	} `json:"address"`
}

const nominatimUserAgent = "Hermes-Postcode-Lookup/1.0 (https://github.com/UnknownOlympus/hermes)"

// NewNominatimProviderWithClient creates a Nominatim provider with a custom HTTP client.
// An empty baseURL selects the public endpoint.
func NewNominatimProviderWithClient(client HTTPClient, baseURL, country string, log *slog.Logger) *NominatimProvider {
	if baseURL == "" {
		baseURL = NominatimBaseURL
	}

	return &NominatimProvider{
		client:    client,
		baseURL:   baseURL,
		country:   country,
		log:       log,
		userAgent: nominatimUserAgent,
	}
}

// Resolve searches Nominatim for the postal code with structured query parameters.
func (np *NominatimProvider) Resolve(ctx context.Context, postalCode string) ([]models.Address, error) {
	if postalCode == "" {
		return nil, ErrEmptyPostalCode
	}

	np.log.DebugContext(ctx, "Resolving using Nominatim", "postal_code", postalCode)

	reqURL, err := url.Parse(np.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}
	reqURL = reqURL.JoinPath("search")

	query := reqURL.Query()
	query.Set("postalcode", postalCode)
	query.Set("format", "json")
	query.Set("addressdetails", "1")
	query.Set("limit", "10")
	if np.country != "" {
		query.Set("countrycodes", strings.ToLower(np.country))
	}
	reqURL.RawQuery = query.Encode()

	np.log.DebugContext(ctx, "Nominatim request URL", "url", reqURL.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set required headers per Nominatim usage policy
	req.Header.Set("User-Agent", np.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := np.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute nominatim request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		np.log.ErrorContext(ctx, "Nominatim API error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("nominatim API returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	np.log.DebugContext(ctx, "Nominatim raw response", "body", string(body))

	var results []nominatimResponse
	if err = json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("failed to decode nominatim response: %w", err)
	}

	seen := make(map[models.Address]struct{}, len(results))
	addresses := make([]models.Address, 0, len(results))
	for _, result := range results {
		addr := models.Address{
			PostalCode: result.Address.Postcode,
			Locality:   firstNonEmpty(result.Address.City, result.Address.Town, result.Address.Village),
			Region:     result.Address.State,
		}
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

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
