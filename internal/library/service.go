// Package library is the client-side facade over the summary service. It
// fronts remote reads with the local result cache, runs the extraction
// pipeline, keeps the recency list current and persists the cache after
// every change.
package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/roasbeef/booksum/internal/cache"
	"github.com/roasbeef/booksum/internal/jobs"
	"github.com/roasbeef/booksum/internal/listing"
	"github.com/roasbeef/booksum/internal/pipeline"
	"github.com/roasbeef/booksum/internal/summary"
)

// Remote is the part of the service API the library calls directly.
// api.Client implements it.
type Remote interface {
	listing.Source

	SubmitJob(ctx context.Context, imageIDs []string) (jobs.Job, error)

	UpdateSummary(ctx context.Context, id string,
		patch summary.Patch) (summary.Record, error)

	DeleteSummary(ctx context.Context, id string) error

	CreateSummary(ctx context.Context,
		draft summary.Draft) (summary.Record, error)
}

var errCacheMiss = errors.New("not cached")

// PersistFunc stores a cache snapshot. db.Store.SaveSnapshot fits.
type PersistFunc func(ctx context.Context, snap cache.Snapshot) error

// Option adjusts a Service.
type Option func(*Service)

// WithPersist saves the cache after every mutation.
func WithPersist(persist PersistFunc) Option {
	return func(s *Service) {
		s.persist = fn.Some(persist)
	}
}

// Service ties the remote API, the pipeline and the cache together.
type Service struct {
	remote  Remote
	orch    *pipeline.Orchestrator
	cache   *cache.Store
	list    *listing.Materializer
	persist fn.Option[PersistFunc]
	log     *slog.Logger
}

// NewService creates the service. Detail records fetched by List are fed
// into the cache.
func NewService(remote Remote, orch *pipeline.Orchestrator,
	store *cache.Store, listCfg listing.Config, log *slog.Logger,
	opts ...Option) *Service {

	if log == nil {
		log = slog.Default()
	}

	s := &Service{
		remote: remote,
		orch:   orch,
		cache:  store,
		log:    log.With("component", "library"),
	}
	s.list = listing.NewMaterializer(
		remote, listCfg, log, listing.WithDetailHook(store.Put),
	)
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// save persists the cache. Failures are logged, not returned, since the
// remote operation already succeeded.
func (s *Service) save(ctx context.Context) {
	s.persist.WhenSome(func(persist PersistFunc) {
		if err := persist(ctx, s.cache.Snapshot()); err != nil {
			s.log.WarnContext(ctx, "Failed to persist cache",
				"err", err)
		}
	})
}

// remember caches rec, makes it current and moves it to the front of the
// recency list.
func (s *Service) remember(ctx context.Context, rec summary.Record) {
	s.cache.SetCurrent(rec)
	s.cache.TouchRecent(rec.Lightweight())
	s.save(ctx)
}

// Submit starts an extraction job.
func (s *Service) Submit(ctx context.Context,
	imageIDs []string) (jobs.Job, error) {

	job, err := s.remote.SubmitJob(ctx, imageIDs)
	if err != nil {
		return jobs.Job{}, err
	}

	s.log.InfoContext(ctx, "Submitted extraction job",
		"job_id", job.ID, "images", len(imageIDs))

	return job, nil
}

// Summarize runs the pipeline for jobID. The generated record becomes the
// current one.
func (s *Service) Summarize(ctx context.Context, jobID string,
	instructions fn.Option[string]) (pipeline.Result, error) {

	res, err := s.orch.Run(ctx, jobID, instructions)
	if err != nil {
		return pipeline.Result{}, err
	}
	s.remember(ctx, res.Record)

	return res, nil
}

// Retry repeats the last Summarize.
func (s *Service) Retry(ctx context.Context) (pipeline.Result, error) {
	res, err := s.orch.Retry(ctx)
	if err != nil {
		return pipeline.Result{}, err
	}
	s.remember(ctx, res.Record)

	return res, nil
}

// PipelineState returns the state of the latest pipeline run.
func (s *Service) PipelineState() pipeline.State {
	return s.orch.State()
}

// Save persists a finished summary as a new record.
func (s *Service) Save(ctx context.Context,
	draft summary.Draft) (summary.Record, error) {

	rec, err := s.remote.CreateSummary(ctx, draft)
	if err != nil {
		return summary.Record{}, err
	}
	s.remember(ctx, rec)

	return rec, nil
}

// Get returns the record for id, from the cache unless refresh is set. The
// bool reports a cache hit.
func (s *Service) Get(ctx context.Context, id string,
	refresh bool) (summary.Record, bool, error) {

	if err := summary.ValidateID(id); err != nil {
		return summary.Record{}, false, err
	}

	if !refresh {
		if rec, err := s.cache.Get(id).UnwrapOrErr(
			errCacheMiss,
		); err == nil {
			s.remember(ctx, rec)
			return rec, true, nil
		}
	}

	rec, err := s.remote.GetSummary(ctx, id)
	if err != nil {
		return summary.Record{}, false, err
	}
	s.remember(ctx, rec)

	return rec, false, nil
}

// Edit replaces the title and description of id and refreshes every local
// copy.
func (s *Service) Edit(ctx context.Context, id string,
	patch summary.Patch) (summary.Record, error) {

	rec, err := s.remote.UpdateSummary(ctx, id, patch)
	if err != nil {
		return summary.Record{}, err
	}
	s.remember(ctx, rec)

	return rec, nil
}

// Delete removes id remotely and forgets it locally.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.remote.DeleteSummary(ctx, id); err != nil {
		return err
	}

	s.cache.Forget(id)
	s.save(ctx)

	s.log.InfoContext(ctx, "Deleted summary", "summary_id", id)

	return nil
}

// ListQuery selects a page of the materialized collection.
type ListQuery struct {
	// Search filters case-insensitively over title, description and
	// summary text.
	Search string

	// Page is 1-based and clamped to the available pages.
	Page int

	// PageSize overrides the configured page size when positive.
	PageSize int
}

// ListResult is one page of the collection.
type ListResult struct {
	Items      []listing.Item
	Page       int
	TotalPages int
	TotalItems int

	// Failed counts items whose summary text could not be loaded.
	Failed int
}

// List materializes the collection and returns the requested page.
func (s *Service) List(ctx context.Context,
	q ListQuery) (ListResult, error) {

	items, err := s.list.Load(ctx)
	if err != nil {
		return ListResult{}, fmt.Errorf("load summaries: %w", err)
	}
	s.save(ctx)

	pageSize := s.list.PageSize()
	if q.PageSize > 0 {
		pageSize = q.PageSize
	}
	view := listing.NewView(items, pageSize)

	view.SetSearchTerm(q.Search)
	view.SetPage(max(q.Page, 1))

	var failed int
	for _, item := range view.All() {
		if item.FetchErr != nil {
			failed++
		}
	}

	return ListResult{
		Items:      view.Page(),
		Page:       view.CurrentPage(),
		TotalPages: view.TotalPages(),
		TotalItems: view.TotalItems(),
		Failed:     failed,
	}, nil
}

// Recent returns the recency list, most recent first.
func (s *Service) Recent() []summary.Base {
	return s.cache.Recent()
}

// Current returns the record last viewed or produced.
func (s *Service) Current() fn.Option[summary.Record] {
	return s.cache.Current()
}

// CacheStats reports the cache occupancy.
func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// ClearCache empties the cache and persists the empty state.
func (s *Service) ClearCache(ctx context.Context) {
	s.cache.Clear()
	s.save(ctx)
}
