package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/hermes/internal/dataset"
	"github.com/UnknownOlympus/hermes/internal/metrics"
	"github.com/UnknownOlympus/hermes/internal/models"
)

// Dispatcher resolves a set of keys within a deadline.
type Dispatcher interface {
	Dispatch(ctx context.Context, keys models.KeySet, deadline time.Duration) []models.Address
}

// LookupService runs one postal code lookup: it loads the keys from a source,
// dispatches them and reports the collected records.
type LookupService struct {
	log        *slog.Logger     // Logger for run activity
	source     dataset.Source   // Source of the postal codes to resolve
	dispatcher Dispatcher       // Dispatcher fanning out the lookups
	metrics    *metrics.Metrics // Metrics for the run, may be nil
	deadline   time.Duration    // Upper bound of the dispatch phase
}

// NewLookupService creates a new instance of LookupService.
func NewLookupService(
	log *slog.Logger,
	source dataset.Source,
	dispatcher Dispatcher,
	metrics *metrics.Metrics,
	deadline time.Duration,
) *LookupService {
	return &LookupService{
		log:        log,
		source:     source,
		dispatcher: dispatcher,
		metrics:    metrics,
		deadline:   deadline,
	}
}

// Run loads the keys and resolves them within the configured deadline.
// A partial result caused by the deadline is not an error; only a failing source is.
func (ls *LookupService) Run(ctx context.Context) ([]models.Address, error) {
	keys, err := ls.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load postal codes: %w", err)
	}

	if ls.metrics != nil {
		ls.metrics.KeysLoaded.Set(float64(keys.Len()))
	}
	ls.log.InfoContext(ctx, "Postal codes loaded", "keys", keys.Len(), "distinct", len(keys.PostalCodes()))

	startTime := time.Now()
	records := ls.dispatcher.Dispatch(ctx, keys, ls.deadline)
	elapsed := time.Since(startTime)

	for _, rec := range records {
		ls.log.DebugContext(ctx, "Resolved address",
			"postal_code", rec.PostalCode, "locality", rec.Locality, "region", rec.Region)
	}

	ls.log.InfoContext(ctx, "Finished lookup",
		"elapsed_seconds", elapsed.Seconds(),
		"keys", keys.Len(),
		"records", len(records),
	)

	return records, nil
}
