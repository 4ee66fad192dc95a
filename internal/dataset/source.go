package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/UnknownOlympus/hermes/internal/models"
	"github.com/UnknownOlympus/hermes/internal/repository"
)

// Source produces the set of seed addresses for one lookup run.
// An error is returned only when the source itself is unusable.
type Source interface {
	Load(ctx context.Context) (models.KeySet, error)
}

// FieldMapping holds the zero-based column indices of a dataset line.
type FieldMapping struct {
	Key      int // Key is the postal code column.
	Locality int // Locality is the city/town column.
	Region   int // Region is the state column.
}

// DefaultFieldMapping matches the German postal code dataset: [_, locality, postal code, region].
var DefaultFieldMapping = FieldMapping{Key: 2, Locality: 1, Region: 3}

// ErrInvalidFieldMapping is returned when a field mapping cannot be parsed.
var ErrInvalidFieldMapping = errors.New("invalid field mapping")

// ParseFieldMapping parses "key,locality,region" column indices, e.g. "2,1,3".
func ParseFieldMapping(value string) (FieldMapping, error) {
	const fieldsCount = 3

	parts := strings.Split(value, ",")
	if len(parts) != fieldsCount {
		return FieldMapping{}, fmt.Errorf("%w: expected %d indices, got %q", ErrInvalidFieldMapping, fieldsCount, value)
	}

	indices := make([]int, fieldsCount)
	for i, part := range parts {
		idx, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || idx < 0 {
			return FieldMapping{}, fmt.Errorf("%w: bad index %q", ErrInvalidFieldMapping, part)
		}
		indices[i] = idx
	}

	return FieldMapping{Key: indices[0], Locality: indices[1], Region: indices[2]}, nil
}

// MinFields returns the number of fields a line needs to satisfy the mapping.
func (fm FieldMapping) MinFields() int {
	return max(fm.Key, fm.Locality, fm.Region) + 1
}

// RepositorySource loads seed addresses from the postal code table.
type RepositorySource struct {
	repo  repository.Interface
	limit int
	log   *slog.Logger
}

// NewRepositorySource creates a source reading at most limit rows through repo.
func NewRepositorySource(repo repository.Interface, limit int, log *slog.Logger) *RepositorySource {
	return &RepositorySource{repo: repo, limit: limit, log: log}
}

// Load fetches the rows and collapses duplicates into a KeySet.
func (rs *RepositorySource) Load(ctx context.Context) (models.KeySet, error) {
	addresses, err := rs.repo.FetchPostalCodes(ctx, rs.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load postal codes from database: %w", err)
	}

	keys := models.NewKeySet(addresses...)
	rs.log.InfoContext(ctx, "Loaded postal codes from database", "rows", len(addresses), "keys", keys.Len())

	return keys, nil
}
