// Package daemon assembles the asset pipeline (bus, store, fetcher, loader)
// behind the single surface the HTTP layer consumes.
package daemon

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"assetd/internal/eventbus"
	"assetd/internal/fetch"
	"assetd/internal/loader"
	"assetd/internal/registry"
	"assetd/internal/store"
	"assetd/pkg/types"
)

// Config wires a Daemon. Catalog and VendorDir are required; zero values
// elsewhere fall back to the component defaults.
type Config struct {
	Catalog      *registry.Catalog
	VendorDir    string
	CacheEntries int
	FetchTimeout time.Duration
	SettleDelay  time.Duration
	MaxBodyBytes int64
	Getter       fetch.Getter
	Logger       zerolog.Logger
	Clock        clock.Clock
}

// Daemon owns the asset pipeline for one vendor directory.
type Daemon struct {
	catalog *registry.Catalog
	bus     *eventbus.Bus
	store   *store.Store
	fetcher *fetch.Fetcher
	loader  *loader.Loader
	log     zerolog.Logger
	clk     clock.Clock
	started time.Time

	draining atomic.Bool
}

// New builds the pipeline and restores mounts left in the vendor directory
// by earlier runs.
func New(cfg Config) (*Daemon, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("daemon: catalog is required")
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}
	bus := eventbus.NewWithConfig(eventbus.Config{Clock: clk, Logger: cfg.Logger})
	st, err := store.NewWithConfig(store.Config{
		VendorDir:    cfg.VendorDir,
		CacheEntries: cfg.CacheEntries,
		Logger:       cfg.Logger,
		Clock:        clk,
	})
	if err != nil {
		return nil, err
	}
	restored, err := st.Scan()
	if err != nil {
		return nil, err
	}
	f, err := fetch.New(fetch.Config{
		Getter:       cfg.Getter,
		Store:        st,
		Bus:          bus,
		Logger:       cfg.Logger,
		Clock:        clk,
		Timeout:      cfg.FetchTimeout,
		MaxBodyBytes: cfg.MaxBodyBytes,
	})
	if err != nil {
		return nil, err
	}
	l, err := loader.New(loader.Config{
		Catalog:     cfg.Catalog,
		Fetcher:     f,
		Bus:         bus,
		Logger:      cfg.Logger,
		Clock:       clk,
		SettleDelay: cfg.SettleDelay,
	})
	if err != nil {
		return nil, err
	}
	d := &Daemon{
		catalog: cfg.Catalog,
		bus:     bus,
		store:   st,
		fetcher: f,
		loader:  l,
		log:     cfg.Logger,
		clk:     clk,
		started: clk.Now(),
	}
	if restored > 0 {
		d.log.Info().Int("mounts", restored).Str("dir", st.Dir()).Msg("restored vendor mounts")
	}
	return d, nil
}

// Bus exposes the event bus, mainly for the event stream and tests.
func (d *Daemon) Bus() *eventbus.Bus { return d.bus }

// Store exposes the vendor store.
func (d *Daemon) Store() *store.Store { return d.store }

// ListAssets joins the catalog with live state and mount presence.
func (d *Daemon) ListAssets() []types.AssetInfo {
	all := d.catalog.All()
	out := make([]types.AssetInfo, 0, len(all))
	for _, desc := range all {
		_, mounted := d.store.ByID(desc.ID)
		out = append(out, types.AssetInfo{
			Descriptor: desc,
			State:      d.bus.GetState(desc.ID).State,
			Mounted:    mounted,
		})
	}
	return out
}

// LoadFamily runs one family's load chain to completion.
func (d *Daemon) LoadFamily(ctx context.Context, family string) (types.LoadResponse, error) {
	ok, err := d.loader.Load(ctx, family)
	if err != nil {
		return types.LoadResponse{}, err
	}
	return types.LoadResponse{Family: family, Loaded: ok}, nil
}

// LoadAll loads every family, or only the named ones.
func (d *Daemon) LoadAll(ctx context.Context, families []string) (types.LoadAllResponse, error) {
	if len(families) == 0 {
		return types.LoadAllResponse{Results: d.loader.LoadAll(ctx)}, nil
	}
	results, err := d.loader.LoadFamilies(ctx, families)
	if err != nil {
		return types.LoadAllResponse{}, err
	}
	return types.LoadAllResponse{Results: results}, nil
}

// State reports the live record for id, blocking when wait states are given.
// A wait that runs out of budget is an expected outcome reported in-band,
// not an error.
func (d *Daemon) State(ctx context.Context, id string, wait []types.State, timeout time.Duration) (types.StateResponse, error) {
	if len(wait) == 0 {
		return types.StateResponse{Record: d.bus.GetState(id)}, nil
	}
	rec, err := d.bus.WaitForState(ctx, id, wait, timeout)
	if errors.Is(err, eventbus.ErrWaitTimeout) {
		return types.StateResponse{Record: rec, TimedOut: true}, nil
	}
	if err != nil {
		return types.StateResponse{}, err
	}
	return types.StateResponse{Record: rec}, nil
}

// Content returns a mounted asset body.
func (d *Daemon) Content(id string) ([]byte, types.MountInfo, error) {
	return d.store.Content(id)
}

// Status snapshots the whole pipeline.
func (d *Daemon) Status() types.StatusResponse {
	now := d.clk.Now()
	return types.StatusResponse{
		Families:       d.loader.Statuses(),
		States:         d.bus.StateCounts(),
		Mounted:        d.store.Len(),
		CacheEntries:   d.store.CacheLen(),
		EventsTotal:    d.bus.EmittedTotal(),
		UptimeSeconds:  int64(now.Sub(d.started).Seconds()),
		ServerTimeUnix: now.Unix(),
	}
}

// Shutdown marks the daemon draining so readiness probes steer work away.
// In-flight loads finish on their own contexts.
func (d *Daemon) Shutdown() { d.draining.Store(true) }

// Ready reports whether the daemon accepts work. Construction completes the
// startup scan, so a daemon is ready until Shutdown.
func (d *Daemon) Ready() bool { return !d.draining.Load() }
