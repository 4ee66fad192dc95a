package repository

import (
	"context"
	"fmt"

	"github.com/UnknownOlympus/hermes/internal/models"
)

// FetchPostalCodes retrieves seed addresses for the lookup run.
// Rows with an empty postal code are skipped by the query and missing localities or regions
// are read as empty strings. The results are ordered
// by postal code and limited to the specified count.
//
// Parameters:
// - ctx: The context for the operation, allowing for cancellation and timeout.
// - limit: The maximum number of rows to retrieve.
//
// Returns:
// - A slice of models.Address with the stored postal code, locality and region.
// - An error if the query fails or if there is an issue scanning the results.
func (r *Repository) FetchPostalCodes(ctx context.Context, limit int) ([]models.Address, error) {
	var addresses []models.Address
	query := `
		SELECT postal_code, COALESCE(locality, ''), COALESCE(region, '')
		FROM public.postal_codes
		WHERE postal_code IS NOT NULL AND postal_code <> ''
		ORDER BY postal_code ASC
		LIMIT $1;
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query postal codes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var addr models.Address
		if errScan := rows.Scan(&addr.PostalCode, &addr.Locality, &addr.Region); errScan != nil {
			return nil, fmt.Errorf("failed to scan postal code: %w", errScan)
		}
		r.log.DebugContext(ctx, "Read postal code from database",
			"postal_code", addr.PostalCode, "locality", addr.Locality)
		addresses = append(addresses, addr)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	return addresses, nil
}
