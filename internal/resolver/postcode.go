package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/UnknownOlympus/hermes/internal/models"
)

// PostcodeBaseURL is the default location of the postal code service.
const PostcodeBaseURL = "http://localhost:8082"

// Common errors for the postal code provider.
var (
	ErrEmptyPostalCode    = errors.New("postal code is empty")
	ErrPostalCodeNotFound = errors.New("postal code not found")
)

// PostcodeProvider resolves postal codes with the postal code REST service:
// GET {baseURL}/postalcodes/{postalCode}.
type PostcodeProvider struct {
	client  HTTPClient   // HTTP client for making requests
	baseURL string       // Base URL of the postal code service
	log     *slog.Logger // Logger for logging operations
}

// NewPostcodeProvider creates a provider with its own fixed-timeout HTTP client.
func NewPostcodeProvider(baseURL string, timeout time.Duration, log *slog.Logger) *PostcodeProvider {
	return NewPostcodeProviderWithClient(NewHTTPClient(timeout), baseURL, log)
}

// NewPostcodeProviderWithClient creates a provider with a custom HTTP client.
// Useful for testing with mocked HTTP clients.
func NewPostcodeProviderWithClient(client HTTPClient, baseURL string, log *slog.Logger) *PostcodeProvider {
	if baseURL == "" {
		baseURL = PostcodeBaseURL
	}

	return &PostcodeProvider{client: client, baseURL: baseURL, log: log}
}

// Resolve fetches the address records of a postal code.
// The service may answer with a single JSON object or with an array of them.
// Records without a postal code get the requested one.
func (pp *PostcodeProvider) Resolve(ctx context.Context, postalCode string) ([]models.Address, error) {
	if postalCode == "" {
		return nil, ErrEmptyPostalCode
	}

	reqURL, err := url.JoinPath(pp.baseURL, "postalcodes", url.PathEscape(postalCode))
	if err != nil {
		return nil, fmt.Errorf("failed to build request URL: %w", err)
	}

	pp.log.DebugContext(ctx, "Postal code request", "url", reqURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := pp.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute postal code request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// continue
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrPostalCodeNotFound, postalCode)
	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("postal code service returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	pp.log.DebugContext(ctx, "Postal code raw response", "body", string(body))

	addresses, err := decodeAddresses(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode postal code response: %w", err)
	}

	for i := range addresses {
		if addresses[i].PostalCode == "" {
			addresses[i].PostalCode = postalCode
		}
	}

	return addresses, nil
}

// decodeAddresses accepts an array of addresses, a single address or an empty body.
func decodeAddresses(body []byte) ([]models.Address, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var addresses []models.Address
		if err := json.Unmarshal(trimmed, &addresses); err != nil {
			return nil, err
		}
		return addresses, nil
	}

	var single *models.Address
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return nil, err
	}
	if single == nil {
		return nil, nil
	}

	return []models.Address{*single}, nil
}
