package types

import "time"

// Kind distinguishes the two vendor asset flavors the daemon can mount.
type Kind string

const (
	KindScript Kind = "script"
	KindStyle  Kind = "style"
)

// State is the lifecycle state of one resource id. pending is implicit for
// ids never touched; loaded never regresses once reached.
type State string

const (
	StatePending   State = "pending"
	StateLoading   State = "loading"
	StateLoaded    State = "loaded"
	StateFailed    State = "failed"
	StateTimeout   State = "timeout"
	StateFallback  State = "fallback"
	StateAllFailed State = "all_failed"
)

// Terminal reports whether s ends a fallback cycle.
func (s State) Terminal() bool { return s == StateLoaded || s == StateAllFailed }

// ParseState maps a wire string onto a known State.
func ParseState(s string) (State, bool) {
	switch st := State(s); st {
	case StatePending, StateLoading, StateLoaded, StateFailed, StateTimeout, StateFallback, StateAllFailed:
		return st, true
	}
	return "", false
}

// Failure reasons carried on failure events and state records.
const (
	ReasonLoadError = "load-error"
	ReasonTimeout   = "timeout"
)

// AssetDescriptor is the static description of one loadable vendor asset.
// Immutable once built by the registry; Priority is a hint for consumers and
// never changes the order candidates are tried in.
type AssetDescriptor struct {
	// Stable identifier for the resource.
	// example: highlight-core
	ID string `json:"id" example:"highlight-core"`
	// Library family this asset belongs to.
	// example: highlight
	Family string `json:"family" example:"highlight"`
	// script or style.
	// example: script
	Kind Kind `json:"kind" example:"script"`
	// First URL tried.
	// example: https://cdn.jsdelivr.net/gh/highlightjs/cdn-release@11.9.0/build/highlight.min.js
	PrimaryURL string `json:"primary_url"`
	// Ordered alternates, tried only after the primary fails.
	FallbackURLs []string `json:"fallback_urls,omitempty"`
	// Last-resort local path served from the vendor directory. May be empty.
	// example: vendor/highlight.min.js
	LocalFallback string `json:"local_fallback,omitempty"`
	// Opaque metadata attached to the mount entry (resource group tag etc.).
	Attributes map[string]string `json:"attributes,omitempty"`
	// Scheduling hint only.
	// example: high
	Priority string `json:"priority,omitempty" example:"high"`
	// Gated assets load after the family's dependency gate opens and do not
	// count toward the family's load result.
	Gated bool `json:"gated,omitempty"`
}

// Candidates returns the fallback chain in try order.
func (d AssetDescriptor) Candidates() []string {
	out := make([]string, 0, len(d.FallbackURLs)+2)
	if d.PrimaryURL != "" {
		out = append(out, d.PrimaryURL)
	}
	out = append(out, d.FallbackURLs...)
	if d.LocalFallback != "" {
		out = append(out, d.LocalFallback)
	}
	return out
}

// Transition is one append-only state history entry.
type Transition struct {
	// example: loading
	State State `json:"state" example:"loading"`
	// Failure reason, when the transition was caused by a failure event.
	// example: timeout
	Reason string `json:"reason,omitempty" example:"timeout"`
	At     time.Time `json:"at"`
}

// StateRecord is the tracked lifecycle of one resource id.
type StateRecord struct {
	// example: highlight-core
	ResourceID string `json:"resource_id" example:"highlight-core"`
	// Current state.
	// example: loaded
	State State `json:"state" example:"loaded"`
	// URL of the attempt that produced the current state.
	URL string `json:"url,omitempty"`
	// Failure reason for failed/timeout states.
	Reason    string    `json:"reason,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
	// Ordered transition history, oldest first.
	History []Transition `json:"history,omitempty"`
}

// MountInfo describes one materialized asset, the daemon's analog of a
// script/link element present in the page.
type MountInfo struct {
	// example: highlight-core
	ResourceID string `json:"resource_id" example:"highlight-core"`
	// URL the body was fetched from (or the local path on a local mount).
	URL string `json:"url"`
	// example: script
	Kind Kind `json:"kind" example:"script"`
	// Path of the materialized file under the vendor directory.
	Path string `json:"path"`
	// Body size in bytes.
	// example: 120042
	Size int64 `json:"size" example:"120042"`
	// Hex SHA-256 of the body, used as the ETag.
	Checksum string `json:"checksum"`
	// Metadata carried over from the descriptor (group, priority, ...).
	Attributes map[string]string `json:"attributes,omitempty"`
	MountedAt  time.Time         `json:"mounted_at"`
}
