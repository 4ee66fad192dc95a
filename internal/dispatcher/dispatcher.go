package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/UnknownOlympus/hermes/internal/metrics"
	"github.com/UnknownOlympus/hermes/internal/models"
	"github.com/UnknownOlympus/hermes/internal/resolver"
	"github.com/prometheus/client_golang/prometheus"
)

// Mode selects how many lookups run at the same time.
type Mode string

const (
	// ModeParallel runs lookups on a bounded worker pool.
	ModeParallel Mode = "parallel"
	// ModeSequential runs one lookup at a time.
	ModeSequential Mode = "sequential"
)

// Order is the direction the collected records are sorted in by postal code.
type Order string

const (
	OrderDescending Order = "desc"
	OrderAscending  Order = "asc"
)

// workersPerCPU sizes the default pool for I/O bound lookups.
const workersPerCPU = 4

// Dispatcher fans postal code lookups out to a provider, collects the records
// as they complete and returns them in a deterministic order.
type Dispatcher struct {
	log          *slog.Logger      // Logger for dispatch activity
	provider     resolver.Provider // Provider resolving a single postal code
	providerName string            // Name of the provider for metrics labeling
	metrics      *metrics.Metrics  // Metrics for tracking lookups
	numWorkers   int               // Upper bound of concurrent lookups
	order        Order             // Sort direction of the result
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithWorkers sets the concurrency limit. Non-positive values keep the default.
func WithWorkers(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.numWorkers = n
		}
	}
}

// WithMode switches between parallel and sequential dispatch.
func WithMode(mode Mode) Option {
	return func(d *Dispatcher) {
		if mode == ModeSequential {
			d.numWorkers = 1
		}
	}
}

// WithOrder sets the sort direction of the returned records.
func WithOrder(order Order) Option {
	return func(d *Dispatcher) {
		d.order = order
	}
}

// ParseMode validates a mode name.
func ParseMode(value string) (Mode, error) {
	switch mode := Mode(value); mode {
	case ModeParallel, ModeSequential:
		return mode, nil
	default:
		return "", fmt.Errorf("unsupported dispatch mode: %s", value)
	}
}

// ParseOrder validates an order name.
func ParseOrder(value string) (Order, error) {
	switch order := Order(value); order {
	case OrderDescending, OrderAscending:
		return order, nil
	default:
		return "", fmt.Errorf("unsupported result order: %s", value)
	}
}

// New creates a Dispatcher. By default it runs NumCPU*4 workers in parallel
// and sorts the result by descending postal code. Options are applied in order,
// so WithMode(ModeSequential) should come after WithWorkers.
// A nil metrics argument records into a private registry that is never exported.
func New(
	log *slog.Logger,
	provider resolver.Provider,
	providerName string,
	appMetrics *metrics.Metrics,
	opts ...Option,
) *Dispatcher {
	if appMetrics == nil {
		appMetrics = metrics.NewMetrics(prometheus.NewRegistry())
	}

	d := &Dispatcher{
		log:          log,
		provider:     provider,
		providerName: providerName,
		metrics:      appMetrics,
		numWorkers:   runtime.NumCPU() * workersPerCPU,
		order:        OrderDescending,
	}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

// outcome is what one lookup sends back to the collector.
type outcome struct {
	postalCode string
	records    []models.Address
}

// Dispatch resolves every distinct postal code of keys once, concurrently, and waits
// until all lookups are done or the deadline elapses, whichever comes first.
// Lookups still running at the deadline are cancelled and their keys are missing
// from the result. Failed lookups are logged and contribute no records.
// The result is never nil and is sorted by postal code in the configured order.
func (d *Dispatcher) Dispatch(ctx context.Context, keys models.KeySet, deadline time.Duration) []models.Address {
	records := []models.Address{}

	if deadline <= 0 {
		d.log.WarnContext(ctx, "Dispatch deadline already elapsed, nothing to do", "deadline", deadline)
		return records
	}

	codes := keys.PostalCodes()
	if len(codes) == 0 {
		d.log.InfoContext(ctx, "No postal codes to dispatch.")
		return records
	}

	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	started := time.Now()
	defer func() {
		d.metrics.DispatchSeconds.Observe(time.Since(started).Seconds())
	}()

	numWorkers := min(d.numWorkers, len(codes))
	d.log.InfoContext(ctx, "Dispatching postal code lookups",
		"keys", len(codes), "num_workers", numWorkers, "deadline", deadline)

	jobs := make(chan string, len(codes))
	for _, code := range codes {
		jobs <- code
	}
	close(jobs)

	// Buffered for every key, so a worker never blocks once the collector has left.
	results := make(chan outcome, len(codes))
	var wgr sync.WaitGroup

	for i := 1; i <= numWorkers; i++ {
		wgr.Add(1)
		go d.worker(ctx, i, &wgr, jobs, results)
	}

	go func() {
		wgr.Wait()
		close(results)
	}()

	completed := 0
collect:
	for {
		select {
		case res, ok := <-results:
			if !ok {
				break collect
			}
			completed++
			records = append(records, res.records...)
			d.log.DebugContext(ctx, "Lookup collected",
				"postal_code", res.postalCode, "records", len(res.records), "completed", completed)
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				d.metrics.DeadlineExceeded.Inc()
			}
			d.log.WarnContext(ctx, "Dispatch deadline elapsed, returning partial result",
				"completed", completed, "unresolved", len(codes)-completed, "error", ctx.Err())
			break collect
		}
	}

	sortRecords(records, d.order)
	d.metrics.RecordsCollected.Add(float64(len(records)))

	return records
}

// worker takes postal codes from jobs until the channel is drained.
// Codes picked after the deadline are skipped without calling the provider.
func (d *Dispatcher) worker(
	ctx context.Context,
	idx int,
	wg *sync.WaitGroup,
	jobs <-chan string,
	results chan<- outcome,
) {
	defer wg.Done()
	for code := range jobs {
		if ctx.Err() != nil {
			d.metrics.RequestsTotal.WithLabelValues(metrics.StatusAbandoned).Inc()
			continue
		}

		results <- outcome{postalCode: code, records: d.resolve(ctx, idx, code)}
	}
}

// resolve performs one lookup and converts every failure into an empty result.
func (d *Dispatcher) resolve(ctx context.Context, idx int, code string) []models.Address {
	d.metrics.ActiveWorkers.Inc()
	defer d.metrics.ActiveWorkers.Dec()

	d.log.DebugContext(ctx, "Resolving postal code", "worker", idx, "postal_code", code)

	startTime := time.Now()
	found, err := d.provider.Resolve(ctx, code)
	duration := time.Since(startTime).Seconds()
	d.metrics.RequestSeconds.WithLabelValues(d.providerName).Observe(duration)

	switch {
	case err != nil && ctx.Err() != nil:
		d.metrics.RequestsTotal.WithLabelValues(metrics.StatusAbandoned).Inc()
		d.log.WarnContext(ctx, "Lookup abandoned at deadline", "worker", idx, "postal_code", code)
		return nil
	case errors.Is(err, resolver.ErrPostalCodeNotFound):
		d.metrics.RequestsTotal.WithLabelValues(metrics.StatusNotFound).Inc()
		d.log.InfoContext(ctx, "Postal code not found", "worker", idx, "postal_code", code)
		return nil
	case err != nil:
		d.metrics.RequestsTotal.WithLabelValues(metrics.StatusFailure).Inc()
		d.log.ErrorContext(ctx, "Failed to resolve postal code", "worker", idx, "postal_code", code, "error", err)
		return nil
	}

	records := make([]models.Address, 0, len(found))
	for _, rec := range found {
		if rec.PostalCode != code {
			d.log.WarnContext(ctx, "Dropping record for a postal code that was not requested",
				"worker", idx, "requested", code, "received", rec.PostalCode)
			continue
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		d.metrics.RequestsTotal.WithLabelValues(metrics.StatusEmpty).Inc()
		d.log.DebugContext(ctx, "Postal code resolved to no records", "worker", idx, "postal_code", code)
		return nil
	}

	d.metrics.RequestsTotal.WithLabelValues(metrics.StatusSuccess).Inc()
	d.log.DebugContext(ctx, "Postal code resolved", "worker", idx, "postal_code", code, "records", len(records))

	return records
}

// sortRecords orders records by postal code, then locality and region, in the given direction.
func sortRecords(records []models.Address, order Order) {
	slices.SortFunc(records, func(a, b models.Address) int {
		if order == OrderAscending {
			return a.Compare(b)
		}
		return b.Compare(a)
	})
}
