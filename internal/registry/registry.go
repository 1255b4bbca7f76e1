// Package registry decides when cached registry documents are revalidated
// against the upstream registry and which copy is served meanwhile.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"asset-registry-api/internal/cache"
	"asset-registry-api/internal/metrics"
	"asset-registry-api/internal/models"
	"asset-registry-api/internal/store"
	"asset-registry-api/internal/transport"
	"asset-registry-api/internal/versioned"
)

const (
	DefaultRefreshInterval = time.Hour
	DefaultRetryInterval   = time.Minute
)

// flightTimeout bounds one revalidation. It runs on a non-cancellable
// context so a single caller giving up does not fail the others sharing it.
const flightTimeout = 60 * time.Second

// Outcome of a revalidation.
type Outcome string

const (
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
)

// Publisher receives refresh events. realtime.Hub implements it.
type Publisher interface {
	Broadcast(topic string, message []byte)
}

// Event is published whenever upstream content replaces a cached entry.
type Event struct {
	Network      models.Network `json:"network"`
	Kind         models.Kind    `json:"kind"`
	LastModified string         `json:"last_modified"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type Options struct {
	RefreshInterval time.Duration
	RetryInterval   time.Duration
	Publisher       Publisher
	Metrics         *metrics.Metrics
	Logger          *slog.Logger
}

type slotKey struct {
	network models.Network
	kind    models.Kind
}

func (k slotKey) String() string {
	return string(k.network) + "/" + string(k.kind)
}

// Registry serves one entry per (network, kind). Fresh entries come from the
// in-memory slot table; stale ones are revalidated with the upstream,
// falling back to the persisted copy and finally to the hard-coded catalog.
type Registry struct {
	store   store.EntryStore
	fetcher transport.Fetcher

	// slots holds the current entry per key. Replacing one is a single
	// locked Set, readers never see a half-updated entry.
	slots   cache.Cache[slotKey, versioned.Entry]
	flights singleflight.Group

	refreshInterval time.Duration
	retryInterval   time.Duration
	publisher       Publisher
	metrics         *metrics.Metrics
	log             *slog.Logger
}

var now = time.Now

func New(st store.EntryStore, fetcher transport.Fetcher, opts Options) *Registry {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = DefaultRefreshInterval
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = DefaultRetryInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Registry{
		store:           st,
		fetcher:         fetcher,
		slots:           cache.NewSimpleCache[slotKey, versioned.Entry](cache.Options{ConcurrencySafe: true}),
		refreshInterval: opts.RefreshInterval,
		retryInterval:   opts.RetryInterval,
		publisher:       opts.Publisher,
		metrics:         opts.Metrics,
		log:             opts.Logger,
	}
}

// Entry returns the current entry, revalidating it first when its slot is
// stale or empty. Upstream and storage failures never surface here: the
// stale or hard-coded copy is served instead.
func (r *Registry) Entry(ctx context.Context, network models.Network, kind models.Kind) (versioned.Entry, error) {
	if err := ctx.Err(); err != nil {
		return versioned.Entry{}, err
	}
	key := slotKey{network, kind}
	if e, ok := r.slots.Get(key); ok {
		return e, nil
	}
	e, _ := r.revalidate(ctx, key, false)
	return e, nil
}

// Refresh revalidates the given kinds unconditionally, without sending the
// stored marker. All kinds are refreshed when none are given.
func (r *Registry) Refresh(ctx context.Context, network models.Network, kinds ...models.Kind) (map[models.Kind]Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(kinds) == 0 {
		kinds = models.Kinds()
	}
	out := make(map[models.Kind]Outcome, len(kinds))
	for _, k := range kinds {
		_, outcome := r.revalidate(ctx, slotKey{network, k}, true)
		out[k] = outcome
	}
	return out, nil
}

// RefreshAll forces a refresh of every network and kind.
func (r *Registry) RefreshAll(ctx context.Context) (map[models.Network]map[models.Kind]Outcome, error) {
	out := make(map[models.Network]map[models.Kind]Outcome)
	for _, n := range models.Networks() {
		res, err := r.Refresh(ctx, n)
		if err != nil {
			return out, err
		}
		out[n] = res
	}
	return out, nil
}

// Run revalidates stale slots of every network and kind each interval until
// ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = r.retryInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		for _, n := range models.Networks() {
			for _, k := range models.Kinds() {
				if _, err := r.Entry(ctx, n, k); err != nil {
					return
				}
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Invalidate drops the cached and persisted copies so the next read starts
// from the hard-coded catalog with an unconditional fetch.
func (r *Registry) Invalidate(ctx context.Context, network models.Network, kind models.Kind) error {
	key := slotKey{network, kind}
	r.slots.Delete(key)
	if err := r.store.Delete(ctx, network, kind); err != nil {
		return fmt.Errorf("invalidate %s: %w", key, err)
	}
	return nil
}

func (r *Registry) revalidate(ctx context.Context, key slotKey, force bool) (versioned.Entry, Outcome) {
	flight := key.String()
	if force {
		flight = "force:" + flight
	}

	type result struct {
		entry   versioned.Entry
		outcome Outcome
	}
	v, _, _ := r.flights.Do(flight, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flightTimeout)
		defer cancel()
		e, o := r.doRevalidate(fetchCtx, key, force)
		return result{e, o}, nil
	})
	res := v.(result)
	return res.entry, res.outcome
}

func (r *Registry) doRevalidate(ctx context.Context, key slotKey, force bool) (versioned.Entry, Outcome) {
	network, kind := string(key.network), string(key.kind)
	base := r.base(ctx, key)

	marker := base.LastModified()
	if force {
		marker = ""
	}

	res, err := r.fetcher.Fetch(ctx, key.network, key.kind, marker)
	if err != nil {
		reason := metrics.ReasonStale
		if base.LastModified() == "" {
			reason = metrics.ReasonHardCoded
		}
		r.metrics.Fallback(network, kind, reason)

		if errors.Is(err, transport.ErrNoEndpoint) {
			r.log.Debug("no upstream registry, serving built-in data", "network", network, "kind", kind)
			r.slots.Set(key, base, r.refreshInterval)
			return base, OutcomeSkipped
		}

		r.metrics.Fetch(network, kind, metrics.ResultFailed)
		r.log.Warn("registry fetch failed, serving cached data",
			"network", network, "kind", kind, "fallback", reason, "err", err)
		r.slots.Set(key, base, r.retryInterval)
		return base, OutcomeFailed
	}

	if !res.Modified {
		r.metrics.Fetch(network, kind, metrics.ResultUnchanged)
		r.log.Debug("registry entry not modified", "network", network, "kind", kind, "last_modified", marker)
		r.slots.Set(key, base, r.refreshInterval)
		return base, OutcomeUnchanged
	}

	r.metrics.Fetch(network, kind, metrics.ResultUpdated)
	if err := r.store.Save(ctx, key.network, key.kind, res.Entry); err != nil {
		r.log.Warn("failed to persist registry entry", "network", network, "kind", kind, "err", err)
	}
	r.slots.Set(key, res.Entry, r.refreshInterval)
	r.log.Info("registry entry updated", "network", network, "kind", kind, "last_modified", res.Entry.LastModified())
	r.publish(key, res.Entry)
	return res.Entry, OutcomeUpdated
}

// base picks the entry a revalidation starts from: the current slot even if
// stale, else the persisted copy, else the hard-coded catalog.
func (r *Registry) base(ctx context.Context, key slotKey) versioned.Entry {
	if e, _, ok := r.slots.Peek(key); ok {
		return e
	}

	e, found, err := r.store.Load(ctx, key.network, key.kind)
	switch {
	case err != nil:
		r.metrics.Fallback(string(key.network), string(key.kind), metrics.ReasonStoreError)
		r.log.Warn("failed to load stored registry entry", "network", key.network, "kind", key.kind, "err", err)
	case found:
		return e
	}
	return versioned.FromHardCoded(key.network, key.kind)
}

func (r *Registry) publish(key slotKey, e versioned.Entry) {
	if r.publisher == nil {
		return
	}
	msg, err := json.Marshal(Event{
		Network:      key.network,
		Kind:         key.kind,
		LastModified: e.LastModified(),
		UpdatedAt:    now().UTC(),
	})
	if err != nil {
		r.log.Error("failed to encode registry event", "err", err)
		return
	}
	r.publisher.Broadcast(string(key.network), msg)
}
