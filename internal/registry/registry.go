// Package registry builds the asset catalog: the builtin library set
// overlaid with per-resource entries from the config file.
package registry

import (
	"fmt"
	"sort"
	"strings"

	"assetd/internal/config"
	"assetd/pkg/types"
)

// Catalog is the immutable set of loadable assets, grouped by family.
type Catalog struct {
	byID     map[string]types.AssetDescriptor
	families map[string][]string // ordered resource ids per family
}

// Build assembles the catalog. Overlay entries for known ids override only
// the fields they set; unknown ids define new assets and must carry family,
// kind and a primary url.
func Build(overlay map[string]config.Resource) (*Catalog, error) {
	c := &Catalog{
		byID:     make(map[string]types.AssetDescriptor),
		families: make(map[string][]string),
	}
	for _, d := range builtin() {
		c.add(d)
	}

	// Apply the overlay in id order so validation errors are stable.
	ids := make([]string, 0, len(overlay))
	for id := range overlay {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := validateID(id); err != nil {
			return nil, err
		}
		r := overlay[id]
		if base, ok := c.byID[id]; ok {
			c.byID[id] = merge(base, r)
			continue
		}
		d, err := newDescriptor(id, r)
		if err != nil {
			return nil, err
		}
		c.add(d)
	}
	return c, nil
}

func (c *Catalog) add(d types.AssetDescriptor) {
	c.byID[d.ID] = d
	c.families[d.Family] = append(c.families[d.Family], d.ID)
}

// ByID returns one descriptor.
func (c *Catalog) ByID(id string) (types.AssetDescriptor, bool) {
	d, ok := c.byID[id]
	return d, ok
}

// Family returns a family's descriptors in load order.
func (c *Catalog) Family(name string) ([]types.AssetDescriptor, bool) {
	ids, ok := c.families[name]
	if !ok {
		return nil, false
	}
	out := make([]types.AssetDescriptor, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.byID[id])
	}
	return out, true
}

// Families returns the family names, sorted.
func (c *Catalog) Families() []string {
	out := make([]string, 0, len(c.families))
	for f := range c.families {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// All returns every descriptor, grouped by sorted family name, each family
// in load order.
func (c *Catalog) All() []types.AssetDescriptor {
	out := make([]types.AssetDescriptor, 0, len(c.byID))
	for _, f := range c.Families() {
		for _, id := range c.families[f] {
			out = append(out, c.byID[id])
		}
	}
	return out
}

// Len returns the number of descriptors.
func (c *Catalog) Len() int { return len(c.byID) }

func merge(base types.AssetDescriptor, r config.Resource) types.AssetDescriptor {
	if r.Primary != "" {
		base.PrimaryURL = r.Primary
	}
	if len(r.Fallbacks) > 0 {
		base.FallbackURLs = append([]string(nil), r.Fallbacks...)
	}
	if r.Local != "" {
		base.LocalFallback = r.Local
	}
	if r.Priority != "" {
		base.Priority = r.Priority
	}
	if r.Gated != nil {
		base.Gated = *r.Gated
	}
	return base
}

func newDescriptor(id string, r config.Resource) (types.AssetDescriptor, error) {
	if r.Family == "" {
		return types.AssetDescriptor{}, fmt.Errorf("resource %s: family is required", id)
	}
	if r.Primary == "" {
		return types.AssetDescriptor{}, fmt.Errorf("resource %s: primary url is required", id)
	}
	kind, err := parseKind(r.Kind)
	if err != nil {
		return types.AssetDescriptor{}, fmt.Errorf("resource %s: %w", id, err)
	}
	d := types.AssetDescriptor{
		ID:            id,
		Family:        r.Family,
		Kind:          kind,
		PrimaryURL:    r.Primary,
		FallbackURLs:  append([]string(nil), r.Fallbacks...),
		LocalFallback: r.Local,
		Attributes:    map[string]string{"group": r.Family},
		Priority:      r.Priority,
	}
	if d.Priority == "" {
		d.Priority = "normal"
	}
	if r.Gated != nil {
		d.Gated = *r.Gated
	}
	return d, nil
}

func parseKind(s string) (types.Kind, error) {
	switch strings.ToLower(s) {
	case "script":
		return types.KindScript, nil
	case "style":
		return types.KindStyle, nil
	default:
		return "", fmt.Errorf("unknown kind %q (want script or style)", s)
	}
}

func validateID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return fmt.Errorf("invalid resource id %q", id)
	}
	return nil
}
