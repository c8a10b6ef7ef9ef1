// Package fetch is the single-attempt primitive: it pulls one asset body
// from one URL (or the local vendor fallback), materializes it through the
// store and emits the lifecycle events for exactly that attempt. Fallback
// chains and retries live a layer up, in the loader.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"assetd/internal/eventbus"
	"assetd/internal/store"
	"assetd/pkg/types"
)

// DefaultTimeout bounds one network attempt.
const DefaultTimeout = 5 * time.Second

// DefaultMaxBodyBytes caps how much of a response body is read.
const DefaultMaxBodyBytes = 8 << 20

// Getter is the one HTTP method the fetcher needs. *http.Client satisfies
// it; tests substitute their own.
type Getter interface {
	Do(req *http.Request) (*http.Response, error)
}

// Status classifies the outcome of one Fetch call.
type Status string

const (
	// StatusCached means the URL was already confirmed loaded; no events.
	StatusCached Status = "cached"
	// StatusExisting means the mount table already had the URL; no network.
	StatusExisting Status = "existing"
	// StatusLoaded means a fresh body was fetched and materialized.
	StatusLoaded Status = "loaded"
	// StatusFailed means the attempt failed; Reason and Err say how.
	StatusFailed Status = "failed"
)

// Request describes one attempt. Attempt is the 1-based position in the
// caller's fallback chain and defaults to 1. Remaining is how many
// candidates the caller still holds after this one; zero marks the attempt
// as the end of its chain, which makes a failure terminal.
type Request struct {
	ResourceID string
	URL        string
	Kind       types.Kind
	Group      string
	Priority   string
	Attempt    int
	Remaining  int
	Attributes map[string]string
}

// Result is the outcome of one attempt. Shared reports that the caller
// joined an attempt already in flight for the same URL.
type Result struct {
	Status    Status
	URL       string
	Attempt   int
	AttemptID string
	Reason    string
	Err       error
	Mount     types.MountInfo
	Shared    bool
}

// OK reports whether the asset ended up available.
func (r Result) OK() bool { return r.Status != StatusFailed }

// Config wires a Fetcher. Store and Bus are required.
type Config struct {
	Getter       Getter
	Store        *store.Store
	Bus          *eventbus.Bus
	Logger       zerolog.Logger
	Clock        clock.Clock
	Timeout      time.Duration
	MaxBodyBytes int64
}

// Fetcher is safe for concurrent use. Concurrent fetches of one URL
// coalesce into a single network attempt.
type Fetcher struct {
	getter  Getter
	store   *store.Store
	bus     *eventbus.Bus
	log     zerolog.Logger
	clk     clock.Clock
	timeout time.Duration
	maxBody int64

	flight singleflight.Group

	mu     sync.RWMutex
	loaded map[string]struct{} // URLs confirmed loaded this process
}

// New builds a Fetcher.
func New(cfg Config) (*Fetcher, error) {
	if cfg.Store == nil || cfg.Bus == nil {
		return nil, errors.New("fetch: store and bus are required")
	}
	f := &Fetcher{
		getter:  cfg.Getter,
		store:   cfg.Store,
		bus:     cfg.Bus,
		log:     cfg.Logger,
		clk:     cfg.Clock,
		timeout: cfg.Timeout,
		maxBody: cfg.MaxBodyBytes,
		loaded:  make(map[string]struct{}),
	}
	if f.getter == nil {
		f.getter = &http.Client{}
	}
	if f.clk == nil {
		f.clk = clock.New()
	}
	if f.timeout <= 0 {
		f.timeout = DefaultTimeout
	}
	if f.maxBody <= 0 {
		f.maxBody = DefaultMaxBodyBytes
	}
	return f, nil
}

// FetchScript loads one script asset.
func (f *Fetcher) FetchScript(ctx context.Context, req Request) Result {
	req.Kind = types.KindScript
	return f.fetch(ctx, req)
}

// FetchStylesheet loads one stylesheet asset.
func (f *Fetcher) FetchStylesheet(ctx context.Context, req Request) Result {
	req.Kind = types.KindStyle
	return f.fetch(ctx, req)
}

func (f *Fetcher) fetch(ctx context.Context, req Request) Result {
	if req.Attempt <= 0 {
		req.Attempt = 1
	}
	if f.isLoaded(req.URL) {
		attemptsTotal.WithLabelValues(string(StatusCached)).Inc()
		return Result{Status: StatusCached, URL: req.URL, Attempt: req.Attempt}
	}
	if m, ok := f.store.MountedURL(req.URL); ok {
		return f.adoptExisting(req, m)
	}

	v, _, shared := f.flight.Do(req.URL, func() (interface{}, error) {
		return f.attempt(ctx, req), nil
	})
	r := v.(Result)
	r.Shared = shared
	return r
}

// attempt runs exactly one load, start to success or failure, with events.
func (f *Fetcher) attempt(ctx context.Context, req Request) Result {
	attemptID := uuid.NewString()
	lp := eventbus.LoadPayload{
		ResourceID: req.ResourceID,
		URL:        req.URL,
		Kind:       req.Kind,
		Group:      req.Group,
		Priority:   req.Priority,
		Attempt:    req.Attempt,
		AttemptID:  attemptID,
	}
	f.bus.Emit(eventbus.TypeLoadingStart, lp)
	started := f.clk.Now()

	var (
		body []byte
		err  error
	)
	if isLocalCandidate(req.URL) {
		body, err = f.readLocal(req.URL)
	} else {
		body, err = f.download(ctx, req.URL)
	}
	elapsed := f.clk.Now().Sub(started)

	if err != nil {
		reason := types.ReasonLoadError
		evt := eventbus.TypeLoadingFailure
		if isTimeout(err) {
			reason = types.ReasonTimeout
			evt = eventbus.TypeLoadingTimeout
		}
		f.bus.Emit(evt, eventbus.FailurePayload{LoadPayload: lp, Reason: reason, Remaining: req.Remaining})
		attemptsTotal.WithLabelValues(string(StatusFailed)).Inc()
		fetchDuration.WithLabelValues("failure").Observe(elapsed.Seconds())
		f.log.Warn().Err(err).Str("resource", req.ResourceID).Str("url", req.URL).
			Int("attempt", req.Attempt).Msg("asset attempt failed")
		return Result{Status: StatusFailed, URL: req.URL, Attempt: req.Attempt,
			AttemptID: attemptID, Reason: reason, Err: err}
	}

	mount, err := f.store.Materialize(store.MountSpec{
		ResourceID: req.ResourceID,
		URL:        req.URL,
		Kind:       req.Kind,
		Attributes: req.Attributes,
	}, body)
	if err != nil {
		f.bus.Emit(eventbus.TypeLoadingFailure, eventbus.FailurePayload{LoadPayload: lp, Reason: types.ReasonLoadError, Remaining: req.Remaining})
		attemptsTotal.WithLabelValues(string(StatusFailed)).Inc()
		fetchDuration.WithLabelValues("failure").Observe(elapsed.Seconds())
		f.log.Error().Err(err).Str("resource", req.ResourceID).Msg("materialize failed")
		return Result{Status: StatusFailed, URL: req.URL, Attempt: req.Attempt,
			AttemptID: attemptID, Reason: types.ReasonLoadError, Err: err}
	}

	f.markLoaded(req.URL)
	f.bus.Emit(eventbus.TypeLoadingSuccess, lp)
	attemptsTotal.WithLabelValues(string(StatusLoaded)).Inc()
	fetchDuration.WithLabelValues("success").Observe(elapsed.Seconds())
	f.log.Debug().Str("resource", req.ResourceID).Str("url", req.URL).
		Dur("took", elapsed).Msg("asset loaded")
	return Result{Status: StatusLoaded, URL: req.URL, Attempt: req.Attempt,
		AttemptID: attemptID, Mount: mount}
}

// adoptExisting confirms a mount-table hit without touching the network.
// When the resource id never reached loaded this process (warm start), the
// start/success pair is emitted so waiters and gates converge.
func (f *Fetcher) adoptExisting(req Request, m types.MountInfo) Result {
	if !f.bus.IsLoaded(req.ResourceID) {
		lp := eventbus.LoadPayload{
			ResourceID: req.ResourceID,
			URL:        req.URL,
			Kind:       req.Kind,
			Group:      req.Group,
			Priority:   req.Priority,
			Attempt:    req.Attempt,
			AttemptID:  uuid.NewString(),
		}
		f.bus.Emit(eventbus.TypeLoadingStart, lp)
		f.bus.Emit(eventbus.TypeLoadingSuccess, lp)
	}
	f.markLoaded(req.URL)
	attemptsTotal.WithLabelValues(string(StatusExisting)).Inc()
	return Result{Status: StatusExisting, URL: req.URL, Attempt: req.Attempt, Mount: m}
}

func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := f.getter.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s from %s", resp.Status, url)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBody {
		return nil, fmt.Errorf("body exceeds %d bytes", f.maxBody)
	}
	return body, nil
}

// readLocal serves the last-resort candidate from the vendor directory.
// Candidate paths are flattened to their basename so a descriptor can never
// point outside the dir.
func (f *Fetcher) readLocal(candidate string) ([]byte, error) {
	name := path.Base(strings.ReplaceAll(candidate, `\`, "/"))
	if name == "." || name == "/" {
		return nil, fmt.Errorf("bad local candidate %q", candidate)
	}
	p := filepath.Join(f.store.Dir(), name)
	body, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("local fallback: %w", err)
	}
	return body, nil
}

func (f *Fetcher) isLoaded(url string) bool {
	f.mu.RLock()
	_, ok := f.loaded[url]
	f.mu.RUnlock()
	return ok
}

func (f *Fetcher) markLoaded(url string) {
	f.mu.Lock()
	f.loaded[url] = struct{}{}
	f.mu.Unlock()
}

func isLocalCandidate(url string) bool {
	return !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://")
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
