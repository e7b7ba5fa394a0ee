// Package resolver turns a location signal into a list of job sites to show.
//
// Sources are tried in order: the durable cache, the backend, then the static
// table bundled with the binary. A cache hit is returned at once while the
// backend is asked again in the background; if it answers with a different
// list the cache is updated and the OnRefresh callback fires.
//
// Background refreshes are not cancelled when a newer lookup starts. Each
// lookup bumps a generation counter and a refresh is only applied if its
// generation is still current, so a slow answer for an old selection never
// replaces what the user is looking at now. A superseded refresh is dropped
// without touching the cache or the history. Close drops refreshes that are
// still in flight.
package resolver

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"relocation/internal/logger"
	"relocation/internal/models"
	"relocation/internal/observability"
	"relocation/internal/storage"
	"relocation/pkg/fallback"
	"relocation/pkg/geo"
	"relocation/pkg/jobsapi"
	"relocation/pkg/location"
)

// Fetcher asks the backend for sites. *jobsapi.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, sig location.Signal) (*jobsapi.Response, error)
}

// Publisher receives an event for every lookup. *kafkaclient.Producer
// implements it.
type Publisher interface {
	Publish(ctx context.Context, event models.LookupEvent) error
}

// RefreshFunc is called with a fresher result after a background refresh.
type RefreshFunc func(Result)

// Option configures a Resolver.
type Option func(*Resolver)

func WithPublisher(p Publisher) Option {
	return func(r *Resolver) { r.publisher = p }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

func WithOnRefresh(fn RefreshFunc) Option {
	return func(r *Resolver) { r.onRefresh = fn }
}

func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// Resolver resolves lookups for one session. Construct it once and share it.
type Resolver struct {
	store     storage.Store
	fetcher   Fetcher
	table     *fallback.Table
	publisher Publisher
	metrics   *observability.Metrics
	onRefresh RefreshFunc
	now       func() time.Time

	generation atomic.Uint64
	flight     singleflight.Group
	bg         context.Context
	stopBg     context.CancelFunc
	writeMu    sync.Mutex
	pending    sync.WaitGroup
}

// New returns a resolver over the given store, backend and fallback table.
func New(store storage.Store, fetcher Fetcher, table *fallback.Table, opts ...Option) *Resolver {
	r := &Resolver{
		store:   store,
		fetcher: fetcher,
		table:   table,
		now:     time.Now,
	}
	r.bg, r.stopBg = context.WithCancel(context.Background())
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns what to display for sig. It never fails; every backend
// problem is absorbed into one of the Result states.
func (r *Resolver) Resolve(ctx context.Context, sig location.Signal) Result {
	gen := r.generation.Add(1)
	key := sig.Key()
	log := logger.GetLogger().WithField("location", key)

	if key == "" {
		return r.finish(ctx, Result{Status: StatusManualSelectionRequired})
	}

	if rec, ok := r.cached(ctx, key); ok {
		log.Debug("Serving cached sites, revalidating in background")
		r.pending.Add(1)
		go r.revalidate(r.bg, sig, rec, gen)
		return r.finish(ctx, display(SourceCache, key, rec.RegionCode, rec.Sites))
	}

	resp, err := r.fetch(ctx, sig)
	if err == nil {
		rec := recordFor(sig, resp)
		if err := r.record(ctx, rec); err != nil {
			log.Warnf("Could not persist fresh sites: %v", err)
		}
		return r.finish(ctx, display(SourceNetwork, key, rec.RegionCode, rec.Sites))
	}

	kind := jobsapi.Kind(err)
	r.metrics.ObserveFetchFailure("sync", kind)
	log.WithFields(logrus.Fields{"kind": kind, "error": err}).Info("Backend lookup failed")

	if sig.HasRegion() {
		code := geo.NormalizeCode(sig.RegionCode)
		return r.finish(ctx, display(SourceFallback, key, code, r.table.Sites(code)))
	}
	return r.finish(ctx, Result{Status: StatusManualSelectionRequired, Key: key})
}

// Wait blocks until background refreshes have finished or ctx is done.
func (r *Resolver) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels background refreshes and waits for them to return. Results
// that arrive after Close are not applied. The store stays open.
func (r *Resolver) Close() {
	r.stopBg()
	r.pending.Wait()
}

// revalidate refetches a cached key. Failures, unchanged answers and answers
// for a superseded lookup are dropped silently.
func (r *Resolver) revalidate(ctx context.Context, sig location.Signal, cached models.CacheRecord, gen uint64) {
	defer r.pending.Done()
	log := logger.GetLogger().WithField("location", cached.Key)

	resp, err := r.fetch(ctx, sig)
	if err != nil && ctx.Err() != nil {
		r.metrics.ObserveRefresh("dropped")
		return
	}
	if err != nil {
		r.metrics.ObserveFetchFailure("background", jobsapi.Kind(err))
		r.metrics.ObserveRefresh("failed")
		log.Debugf("Background refresh failed: %v", err)
		return
	}
	if models.SameSites(resp.Sites, cached.Sites) {
		r.metrics.ObserveRefresh("unchanged")
		return
	}

	if r.generation.Load() != gen {
		r.metrics.ObserveRefresh("stale")
		log.Debug("Dropping refresh for a superseded lookup")
		return
	}
	if ctx.Err() != nil {
		r.metrics.ObserveRefresh("dropped")
		log.Debug("Dropping refresh after Close")
		return
	}

	ctx = context.WithoutCancel(ctx)
	rec := recordFor(sig, resp)
	if err := r.record(ctx, rec); err != nil {
		log.Warnf("Could not persist refreshed sites: %v", err)
	}
	r.metrics.ObserveRefresh("updated")
	res := display(SourceNetwork, rec.Key, rec.RegionCode, rec.Sites)
	r.publish(ctx, res)
	if r.onRefresh != nil {
		r.onRefresh(res)
	}
}

// fetch collapses concurrent fetches for the same key into one request.
func (r *Resolver) fetch(ctx context.Context, sig location.Signal) (*jobsapi.Response, error) {
	v, err, _ := r.flight.Do(sig.Key(), func() (any, error) {
		return r.fetcher.Fetch(ctx, sig)
	})
	if err != nil {
		return nil, err
	}
	return v.(*jobsapi.Response), nil
}

func (r *Resolver) finish(ctx context.Context, res Result) Result {
	r.metrics.ObserveResolution(res.Source.String(), res.Status.String())
	r.publish(ctx, res)
	return res
}

func (r *Resolver) publish(ctx context.Context, res Result) {
	if r.publisher == nil {
		return
	}
	event := models.NewLookupEvent(r.now(), res.Key, res.RegionCode, res.Source.String(), res.Status.String(), res.Sites)
	event.RegionLabel = res.RegionLabel
	if err := r.publisher.Publish(ctx, event); err != nil {
		logger.GetLogger().WithField("location", res.Key).Warnf("Publishing lookup event failed: %v", err)
	}
}

// recordFor builds the cache record for a fresh backend answer. The region
// reported by the backend wins over the one that was asked for.
func recordFor(sig location.Signal, resp *jobsapi.Response) models.CacheRecord {
	code := geo.NormalizeCode(resp.RegionCode)
	if code == "" && sig.HasRegion() {
		code = geo.NormalizeCode(sig.RegionCode)
	}
	return models.CacheRecord{Key: sig.Key(), Sites: resp.Sites, RegionCode: code}
}

func display(source Source, key, code string, sites []models.Site) Result {
	res := Result{
		Status:      StatusShowing,
		Source:      source,
		Key:         key,
		Sites:       sites,
		RegionCode:  code,
		RegionLabel: geo.Label(code),
	}
	if len(sites) == 0 {
		res.Status = StatusEmpty
		res.Sites = nil
	}
	return res
}
