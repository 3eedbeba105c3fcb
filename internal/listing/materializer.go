// Package listing builds a searchable, paginated view over the remote summary
// collection. The remote listing omits summary bodies, so every item's detail
// is fetched once per load to make the text searchable.
package listing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roasbeef/booksum/internal/fanout"
	"github.com/roasbeef/booksum/internal/summary"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultBatchSize is the remote page size used to pull the whole
	// collection.
	DefaultBatchSize = 100

	// DefaultPageSize is the local page size of a View.
	DefaultPageSize = 10

	// Placeholder replaces the summary text of an item whose detail could
	// not be fetched.
	Placeholder = "failed to load summary text"
)

// Source is the paginated remote listing plus its per-item detail call.
type Source interface {
	// ListSummaries returns one 1-based page of lightweight records.
	ListSummaries(ctx context.Context, page,
		pageSize int) (summary.Page, error)

	// GetSummary returns a full record.
	GetSummary(ctx context.Context, id string) (summary.Record, error)
}

// PartialFetchError records a failed detail fetch for one item. It is kept
// on the item and never fails a load.
type PartialFetchError struct {
	// ID is the item whose detail could not be fetched.
	ID string

	// Err is the cause.
	Err error
}

// Error implements the error interface.
func (e *PartialFetchError) Error() string {
	return fmt.Sprintf("fetch detail of %s: %v", e.ID, e.Err)
}

// Unwrap exposes the cause.
func (e *PartialFetchError) Unwrap() error {
	return e.Err
}

// Item is one materialized entry.
type Item struct {
	summary.Base

	// SummarizedText is the summary body, or Placeholder when the detail
	// fetch failed.
	SummarizedText string

	// FetchErr is set when the detail fetch failed.
	FetchErr *PartialFetchError
}

// Config holds the materializer settings.
type Config struct {
	// BatchSize is the remote page size for the bulk fetch.
	BatchSize int

	// PageSize is the local page size for views.
	PageSize int

	// DetailConcurrency bounds the detail fetches in flight. Zero means
	// unbounded.
	DetailConcurrency int
}

// DefaultConfig returns the default listing settings.
func DefaultConfig() Config {
	return Config{
		BatchSize: DefaultBatchSize,
		PageSize:  DefaultPageSize,
	}
}

// Option adjusts a Materializer.
type Option func(*Materializer)

// WithDetailHook registers a callback run for every successfully fetched
// detail record. The CLI uses it to fill the result cache.
func WithDetailHook(hook func(summary.Record)) Option {
	return func(m *Materializer) {
		m.onDetail = hook
	}
}

// Materializer loads the full remote collection.
type Materializer struct {
	src      Source
	cfg      Config
	log      *slog.Logger
	onDetail func(summary.Record)
}

// NewMaterializer creates a materializer over src.
func NewMaterializer(src Source, cfg Config, log *slog.Logger,
	opts ...Option) *Materializer {

	if log == nil {
		log = slog.Default()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}

	m := &Materializer{
		src: src,
		cfg: cfg,
		log: log.With("component", "listing"),
	}
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Load pulls every record with its summary text. A failed listing page fails
// the load; a failed detail fetch only marks its item.
func (m *Materializer) Load(ctx context.Context) ([]Item, error) {
	probe, err := m.src.ListSummaries(ctx, 1, 1)
	if err != nil {
		return nil, fmt.Errorf("probe summary count: %w", err)
	}
	if probe.Total <= 0 {
		return []Item{}, nil
	}

	bases, err := m.fetchPages(ctx, probe.Total)
	if err != nil {
		return nil, err
	}

	results := fanout.Settle(
		ctx, bases, m.cfg.DetailConcurrency,
		func(ctx context.Context, b summary.Base) (summary.Record,
			error) {

			return m.src.GetSummary(ctx, b.ID)
		},
	)

	items := make([]Item, len(bases))
	for i, b := range bases {
		rec, err := results[i].Unpack()
		if err != nil {
			items[i] = Item{
				Base:           b,
				SummarizedText: Placeholder,
				FetchErr: &PartialFetchError{
					ID:  b.ID,
					Err: err,
				},
			}

			continue
		}

		if m.onDetail != nil {
			m.onDetail(rec)
		}
		items[i] = Item{
			Base:           b,
			SummarizedText: rec.SummarizedText,
		}
	}

	if failed := fanout.CountFailures(results); failed > 0 {
		m.log.WarnContext(ctx, "Some summary details failed to load",
			"failed", failed,
			"total", len(items),
			"first_err", fanout.FirstError(results),
		)
	}
	m.log.DebugContext(ctx, "Materialized summaries",
		"total", probe.Total,
		"items", len(items),
	)

	return items, nil
}

// fetchPages pulls all backing pages concurrently and joins them in page
// order.
func (m *Materializer) fetchPages(ctx context.Context,
	total int) ([]summary.Base, error) {

	batch := m.cfg.BatchSize
	numPages := (total + batch - 1) / batch
	pages := make([][]summary.Base, numPages)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < numPages; i++ {
		g.Go(func() error {
			page, err := m.src.ListSummaries(gctx, i+1, batch)
			if err != nil {
				return fmt.Errorf("fetch summary page %d: %w",
					i+1, err)
			}
			pages[i] = page.Items

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	bases := make([]summary.Base, 0, total)
	for _, p := range pages {
		bases = append(bases, p...)
	}

	return bases, nil
}

// PageSize returns the configured local page size.
func (m *Materializer) PageSize() int {
	return m.cfg.PageSize
}
