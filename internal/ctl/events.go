package ctl

import (
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"assetd/pkg/types"
)

// tailEvents streams /events to stdout until the server closes the stream or
// the user interrupts.
func tailEvents(cfg *Config, typeFilter []string) error {
	wsURL, err := NewClient(cfg.ServerURL).EventsURL(typeFilter)
	if err != nil {
		return err
	}
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial %s: %w (http %d)", wsURL, err, resp.StatusCode)
		}
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer conn.Close()
	info("streaming events from %s", wsURL)

	// Ctrl+C sends a close frame, then unblocks the read loop by closing
	// the connection.
	var interrupted atomic.Bool
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)
	go func() {
		<-stop
		interrupted.Store(true)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	for {
		var e types.EventDTO
		if err := conn.ReadJSON(&e); err != nil {
			if interrupted.Load() || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("event stream: %w", err)
		}
		printEvent(e)
	}
}

func printEvent(e types.EventDTO) {
	at := time.UnixMilli(e.Timestamp).Format("15:04:05.000")
	if e.Type == "state_change" {
		fmt.Printf("%s state_change %s %s -> %s\n", at, e.ResourceID, e.From, e.To)
		return
	}
	line := fmt.Sprintf("%s %s %s", at, e.Type, e.ResourceID)
	if e.URL != "" {
		line += " " + e.URL
	}
	if e.Attempt > 0 {
		line += fmt.Sprintf(" attempt=%d", e.Attempt)
	}
	if e.Reason != "" {
		line += " reason=" + e.Reason
	}
	fmt.Println(line)
}
