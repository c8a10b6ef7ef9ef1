// Package loader drives per-family load orchestration: each family's assets
// are fetched through their fallback chains with single-flight deduplication,
// and families with gated sub-resources get a dependency gate that triggers
// the dependent load once after the required assets settle.
package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"assetd/internal/eventbus"
	"assetd/internal/fetch"
	"assetd/internal/registry"
	"assetd/pkg/types"
)

// DefaultSettleDelay is how long a gate waits after the last required asset
// loads before firing the dependent step.
const DefaultSettleDelay = 200 * time.Millisecond

// loadAllLimit bounds concurrent family traversals in LoadAll.
const loadAllLimit = 4

// Config wires a Loader. Catalog, Fetcher and Bus are required.
type Config struct {
	Catalog     *registry.Catalog
	Fetcher     *fetch.Fetcher
	Bus         *eventbus.Bus
	Logger      zerolog.Logger
	Clock       clock.Clock
	SettleDelay time.Duration
}

// Loader is safe for concurrent use.
type Loader struct {
	catalog *registry.Catalog
	fetcher *fetch.Fetcher
	bus     *eventbus.Bus
	log     zerolog.Logger
	clk     clock.Clock
	settle  time.Duration

	flight singleflight.Group

	mu       sync.Mutex
	inflight map[string]bool
	gates    map[string]*gate
}

// New builds a Loader and registers a dependency gate for every family that
// carries gated assets.
func New(cfg Config) (*Loader, error) {
	if cfg.Catalog == nil || cfg.Fetcher == nil || cfg.Bus == nil {
		return nil, errors.New("loader: catalog, fetcher and bus are required")
	}
	l := &Loader{
		catalog:  cfg.Catalog,
		fetcher:  cfg.Fetcher,
		bus:      cfg.Bus,
		log:      cfg.Logger,
		clk:      cfg.Clock,
		settle:   cfg.SettleDelay,
		inflight: make(map[string]bool),
		gates:    make(map[string]*gate),
	}
	if l.clk == nil {
		l.clk = clock.New()
	}
	if l.settle <= 0 {
		l.settle = DefaultSettleDelay
	}
	for _, fam := range l.catalog.Families() {
		assets, _ := l.catalog.Family(fam)
		required, gated := split(assets)
		if len(gated) == 0 || len(required) == 0 {
			continue
		}
		l.gates[fam] = l.newGate(fam, required)
	}
	return l, nil
}

// Load brings one family's ungated assets to loaded, walking each asset's
// fallback chain. It returns whether the family ended up fully available;
// the only error is an unknown family name. Concurrent callers for the same
// family join one traversal, and a family already loaded short-circuits.
func (l *Loader) Load(ctx context.Context, family string) (bool, error) {
	assets, ok := l.catalog.Family(family)
	if !ok {
		return false, ErrUnknownFamily(family)
	}
	if l.loaded(assets) {
		return true, nil
	}
	v, _, _ := l.flight.Do(family, func() (interface{}, error) {
		l.setInFlight(family, true)
		defer l.setInFlight(family, false)
		return l.loadFamily(ctx, family, assets), nil
	})
	return v.(bool), nil
}

// LoadAll loads every family, a few at a time, and reports per-family
// outcomes. It never fails as a whole.
func (l *Loader) LoadAll(ctx context.Context) map[string]bool {
	out, _ := l.LoadFamilies(ctx, l.catalog.Families())
	return out
}

// LoadFamilies loads the named families the way LoadAll does. An unknown
// name fails the whole call before any load starts.
func (l *Loader) LoadFamilies(ctx context.Context, fams []string) (map[string]bool, error) {
	for _, fam := range fams {
		if _, ok := l.catalog.Family(fam); !ok {
			return nil, ErrUnknownFamily(fam)
		}
	}
	results := make([]bool, len(fams))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(loadAllLimit)
	for i, fam := range fams {
		i, fam := i, fam
		g.Go(func() error {
			ok, err := l.Load(ctx, fam)
			results[i] = ok && err == nil
			return nil
		})
	}
	_ = g.Wait()
	out := make(map[string]bool, len(fams))
	for i, fam := range fams {
		out[fam] = results[i]
	}
	return out, nil
}

// Status reports one family's orchestration view.
func (l *Loader) Status(family string) (types.FamilyStatus, error) {
	assets, ok := l.catalog.Family(family)
	if !ok {
		return types.FamilyStatus{}, ErrUnknownFamily(family)
	}
	l.mu.Lock()
	inFlight := l.inflight[family]
	l.mu.Unlock()
	st := types.FamilyStatus{
		Family:   family,
		Loaded:   l.loaded(assets),
		InFlight: inFlight,
	}
	if g, ok := l.gates[family]; ok {
		st.GateFired = g.hasFired()
	}
	return st, nil
}

// Statuses reports every family, sorted by name.
func (l *Loader) Statuses() []types.FamilyStatus {
	fams := l.catalog.Families()
	out := make([]types.FamilyStatus, 0, len(fams))
	for _, fam := range fams {
		st, err := l.Status(fam)
		if err != nil {
			continue
		}
		out = append(out, st)
	}
	return out
}

// loadFamily walks the family's direct assets in catalog order. A family
// declared with only gated assets has no gate to wait on, so its assets are
// loaded directly.
func (l *Loader) loadFamily(ctx context.Context, family string, assets []types.AssetDescriptor) bool {
	direct, gated := split(assets)
	if len(direct) == 0 {
		direct = gated
	}
	okAll := true
	for _, d := range direct {
		if l.bus.IsLoaded(d.ID) {
			continue
		}
		if err := l.loadAsset(ctx, d); err != nil {
			okAll = false
		}
	}
	outcome := "success"
	if !okAll {
		outcome = "failure"
	}
	familyLoads.WithLabelValues(family, outcome).Inc()
	return okAll
}

// loadAsset drives one fallback chain: primary, then each fallback, then the
// local candidate, stopping at the first success. Between candidates it
// emits fallback_start; if a chain longer than one candidate is exhausted it
// emits the fallback_failure notification. Failures aggregate into the
// returned error.
func (l *Loader) loadAsset(ctx context.Context, d types.AssetDescriptor) error {
	candidates := d.Candidates()
	var errs error
	for i, url := range candidates {
		res := l.dispatch(ctx, fetch.Request{
			ResourceID: d.ID,
			URL:        url,
			Kind:       d.Kind,
			Group:      d.Family,
			Priority:   d.Priority,
			Attempt:    i + 1,
			Remaining:  len(candidates) - i - 1,
			Attributes: d.Attributes,
		})
		if res.OK() {
			if i > 0 {
				l.log.Info().Str("resource", d.ID).Str("url", url).Int("attempt", i+1).
					Msg("asset loaded via fallback candidate")
			}
			return nil
		}
		errs = multierr.Append(errs, fmt.Errorf("candidate %d %s: %w", i+1, url, res.Err))
		remaining := len(candidates) - i - 1
		if remaining > 0 {
			l.bus.Emit(eventbus.TypeFallbackStart, eventbus.FallbackPayload{
				ResourceID: d.ID,
				URL:        candidates[i+1],
				Kind:       d.Kind,
				Group:      d.Family,
				Priority:   d.Priority,
				Attempt:    i + 2,
				Remaining:  remaining,
				Reason:     res.Reason,
			})
		} else if len(candidates) > 1 {
			l.bus.Emit(eventbus.TypeFallbackFailure, eventbus.FallbackPayload{
				ResourceID: d.ID,
				URL:        url,
				Kind:       d.Kind,
				Group:      d.Family,
				Priority:   d.Priority,
				Attempt:    i + 1,
				Remaining:  0,
				Reason:     res.Reason,
			})
		}
	}
	l.log.Error().Err(errs).Str("resource", d.ID).Int("candidates", len(candidates)).
		Msg("every candidate failed")
	return errs
}

func (l *Loader) dispatch(ctx context.Context, req fetch.Request) fetch.Result {
	if req.Kind == types.KindStyle {
		return l.fetcher.FetchStylesheet(ctx, req)
	}
	return l.fetcher.FetchScript(ctx, req)
}

// loaded reports whether every asset counting toward the family's result
// reached loaded. Mirrors loadFamily: gated assets count only when the
// family has nothing else.
func (l *Loader) loaded(assets []types.AssetDescriptor) bool {
	direct, gated := split(assets)
	if len(direct) == 0 {
		direct = gated
	}
	if len(direct) == 0 {
		return false
	}
	for _, d := range direct {
		if !l.bus.IsLoaded(d.ID) {
			return false
		}
	}
	return true
}

func (l *Loader) setInFlight(family string, v bool) {
	l.mu.Lock()
	l.inflight[family] = v
	l.mu.Unlock()
}

func split(assets []types.AssetDescriptor) (direct, gated []types.AssetDescriptor) {
	for _, d := range assets {
		if d.Gated {
			gated = append(gated, d)
		} else {
			direct = append(direct, d)
		}
	}
	return direct, gated
}
