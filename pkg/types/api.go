package types

// EventDTO is the wire form of one bus event, streamed over /events.
// Fields are fixed per event type; consumers switch on Type instead of
// probing optional map keys.
type EventDTO struct {
	// example: loading_success
	Type      string `json:"type" example:"loading_success"`
	Timestamp int64  `json:"timestamp_ms" example:"1700000000000"`
	// example: highlight-core
	ResourceID string `json:"resource_id,omitempty" example:"highlight-core"`
	URL        string `json:"url,omitempty"`
	// example: script
	Kind string `json:"kind,omitempty" example:"script"`
	// Resource group tag (library family).
	// example: highlight
	Group string `json:"group,omitempty" example:"highlight"`
	// example: high
	Priority string `json:"priority,omitempty" example:"high"`
	// 1-based candidate index within the fallback chain.
	// example: 2
	Attempt int `json:"attempt,omitempty" example:"2"`
	// Correlates the start/outcome events of one fetch attempt.
	AttemptID string `json:"attempt_id,omitempty"`
	// Candidates left after this one, on fallback_start events.
	Remaining int `json:"remaining,omitempty"`
	// load-error or timeout, on failure events.
	Reason string `json:"reason,omitempty" example:"load-error"`
	// Previous state, on state_change events.
	From string `json:"from,omitempty" example:"loading"`
	// New state, on state_change events.
	To string `json:"to,omitempty" example:"loaded"`
}

// AssetInfo pairs a descriptor with its current lifecycle state for GET /assets.
type AssetInfo struct {
	Descriptor AssetDescriptor `json:"descriptor"`
	// example: loaded
	State State `json:"state" example:"loaded"`
	// True when the asset body is mounted and servable from /vendor/{id}.
	Mounted bool `json:"mounted"`
}

// AssetsResponse wraps GET /assets.
type AssetsResponse struct {
	Assets []AssetInfo `json:"assets"`
}

// LoadResponse is returned by POST /assets/{family}/load.
type LoadResponse struct {
	// example: highlight
	Family string `json:"family" example:"highlight"`
	// Aggregate outcome; false means the caller should degrade the feature.
	// example: true
	Loaded bool `json:"loaded" example:"true"`
}

// LoadAllResponse is returned by POST /assets/load.
type LoadAllResponse struct {
	Results map[string]bool `json:"results"`
}

// StateResponse is returned by GET /assets/{id}/state. TimedOut is set when a
// ?wait= condition was not met within the budget; that is an expected outcome,
// not an HTTP error.
type StateResponse struct {
	Record   StateRecord `json:"record"`
	TimedOut bool        `json:"timed_out,omitempty"`
}

// FamilyStatus summarizes one library family for /status.
type FamilyStatus struct {
	// example: highlight
	Family string `json:"family" example:"highlight"`
	// example: true
	Loaded bool `json:"loaded" example:"true"`
	// A load chain is currently in flight.
	InFlight bool `json:"in_flight"`
	// Dependency gate has opened and the gated step ran.
	GateFired bool `json:"gate_fired,omitempty"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	Families []FamilyStatus `json:"families"`
	// Resource ids by current state.
	States map[string]int `json:"states"`
	// Number of mounted assets.
	// example: 6
	Mounted int `json:"mounted" example:"6"`
	// Entries currently in the hot content cache.
	// example: 4
	CacheEntries int `json:"cache_entries" example:"4"`
	// Total events emitted since start.
	// example: 42
	EventsTotal uint64 `json:"events_total" example:"42"`
	// Uptime of the daemon in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: unknown family
	Error string `json:"error" example:"unknown family"`
	// HTTP status code.
	// example: 404
	Code int `json:"code" example:"404"`
}
