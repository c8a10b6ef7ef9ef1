package loader

import (
	"context"
	"sync"

	"assetd/internal/eventbus"
	"assetd/pkg/types"
)

// gate tracks a family's required sub-resources and fires the dependent
// step exactly once, after a short settling delay following the last
// required load. Qualifying events may arrive in any order, including
// near-simultaneously from different goroutines.
type gate struct {
	family   string
	required map[string]bool

	mu    sync.Mutex
	armed bool
	fired bool
}

func (l *Loader) newGate(family string, required []types.AssetDescriptor) *gate {
	g := &gate{family: family, required: make(map[string]bool, len(required))}
	for _, d := range required {
		g.required[d.ID] = l.bus.IsLoaded(d.ID)
	}
	l.bus.Subscribe(eventbus.TypeStateChange, func(e eventbus.Event) {
		p, ok := e.Payload.(eventbus.StateChangePayload)
		if !ok || p.To != types.StateLoaded {
			return
		}
		l.gateObserve(g, p.ResourceID)
	})
	// Everything required may already be loaded when the gate is built.
	l.gateObserve(g, "")
	return g
}

func (l *Loader) gateObserve(g *gate, id string) {
	g.mu.Lock()
	if id != "" {
		if _, ok := g.required[id]; ok {
			g.required[id] = true
		}
	}
	if g.fired || g.armed || !g.completeLocked() {
		g.mu.Unlock()
		return
	}
	g.armed = true
	g.mu.Unlock()

	l.log.Debug().Str("family", g.family).Dur("settle", l.settle).
		Msg("dependency gate satisfied, settling")
	l.clk.AfterFunc(l.settle, func() { l.fireGate(g) })
}

func (l *Loader) fireGate(g *gate) {
	g.mu.Lock()
	if g.fired {
		g.mu.Unlock()
		return
	}
	g.fired = true
	g.mu.Unlock()

	gateFired.WithLabelValues(g.family).Inc()
	l.log.Info().Str("family", g.family).Msg("dependency gate fired")
	go l.loadGated(context.Background(), g.family)
}

// loadGated loads the family's gated assets. Their outcomes never change the
// family's load result; failures are logged and visible through events.
func (l *Loader) loadGated(ctx context.Context, family string) {
	assets, ok := l.catalog.Family(family)
	if !ok {
		return
	}
	_, gated := split(assets)
	for _, d := range gated {
		if l.bus.IsLoaded(d.ID) {
			continue
		}
		if err := l.loadAsset(ctx, d); err != nil {
			l.log.Warn().Err(err).Str("family", family).Str("resource", d.ID).
				Msg("gated asset failed")
		}
	}
}

func (g *gate) completeLocked() bool {
	for _, done := range g.required {
		if !done {
			return false
		}
	}
	return true
}

func (g *gate) hasFired() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fired
}
