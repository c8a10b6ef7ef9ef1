package httpapi

// maxBodyBytes controls the maximum allowed request body size for JSON
// endpoints. Only POST /assets/load carries a body today.
var maxBodyBytes int64 = 1 << 20

// SetMaxBodyBytes allows configuring the maximum request body size.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = 1 << 20
		return
	}
	maxBodyBytes = n
}

// waitCapSeconds caps the ?timeout_ms a state wait may ask for. Zero means
// no cap beyond server/connection timeouts.
var waitCapSeconds = int64(0)

// SetWaitCapSeconds sets the upper bound for state-wait budgets (0 disables).
func SetWaitCapSeconds(sec int64) {
	if sec < 0 {
		sec = 0
	}
	waitCapSeconds = sec
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added and
// cross-origin websocket upgrades are refused.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}
