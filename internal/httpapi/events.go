package httpapi

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write one event or control frame to the peer.
	eventWriteWait = 10 * time.Second
	// Time allowed to read the next pong before the peer is considered gone.
	eventPongWait = 60 * time.Second
	// Ping interval; must be less than eventPongWait.
	eventPingPeriod = (eventPongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     checkWSOrigin,
}

// checkWSOrigin mirrors the CORS policy for websocket upgrades: same-origin
// and non-browser clients are always allowed; cross-origin pages only when
// CORS is enabled for their origin.
func checkWSOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	if !corsEnabled {
		return false
	}
	for _, o := range corsAllowedOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

// parseTypesFilter splits the ?types= query into a clean list. Empty means
// every event type.
func parseTypesFilter(q string) []string {
	if q == "" {
		return nil
	}
	parts := strings.Split(q, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// eventsHandler streams bus events to a websocket client. The subscription
// channel is buffered by the service; when the service closes it because the
// client cannot keep up, the connection is terminated with a policy
// violation close frame.
func eventsHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := parseTypesFilter(r.URL.Query().Get("types"))
		lvl := requestLogLevel(r)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already replied with an error status.
			return
		}
		defer conn.Close()

		ch, cancel := svc.SubscribeEvents(filter)
		defer cancel()

		ctx, stop := joinContexts(serverBaseCtx, r.Context())
		defer stop()

		// The request context does not end when a hijacked connection
		// drops, so a reader goroutine watches for the client going away
		// and doubles as the pong pump.
		_ = conn.SetReadDeadline(time.Now().Add(eventPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(eventPongWait))
		})
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					stop()
					return
				}
			}
		}()

		if lvl >= LevelInfo && zlog != nil {
			zlog.Info().Str("remote", r.RemoteAddr).Strs("types", filter).Msg("event stream open")
		}

		ping := time.NewTicker(eventPingPeriod)
		defer ping.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
					time.Now().Add(eventWriteWait))
				return
			case <-ping.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(eventWriteWait)); err != nil {
					return
				}
			case dto, ok := <-ch:
				if !ok {
					// Service dropped us: the buffer overflowed.
					IncrementEventDrop("slow_client")
					if zlog != nil {
						zlog.Warn().Str("remote", r.RemoteAddr).Msg("event stream dropped: client too slow")
					}
					_ = conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "event buffer overflow"),
						time.Now().Add(eventWriteWait))
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(eventWriteWait))
				if err := conn.WriteJSON(dto); err != nil {
					return
				}
				if lvl >= LevelDebug && zlog != nil {
					zlog.Debug().Str("type", dto.Type).Str("resource", dto.ResourceID).Msg("event sent")
				}
			}
		}
	}
}
