package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"assetd/internal/eventbus"
	"assetd/internal/store"
	"assetd/pkg/types"
)

type recorder struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (r *recorder) record(e eventbus.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) typesSeen() []eventbus.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]eventbus.Type, 0, len(r.events))
	for _, e := range r.events {
		if e.Type == eventbus.TypeStateChange {
			continue
		}
		out = append(out, e.Type)
	}
	return out
}

func newTestFetcher(t *testing.T, cfg Config) (*Fetcher, *eventbus.Bus, *store.Store, *recorder) {
	t.Helper()
	st, err := store.NewWithConfig(store.Config{VendorDir: t.TempDir()})
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	bus := eventbus.New()
	rec := &recorder{}
	bus.SubscribeAll(rec.record)
	cfg.Store = st
	cfg.Bus = bus
	f, err := New(cfg)
	if err != nil {
		t.Fatalf("fetcher: %v", err)
	}
	return f, bus, st, rec
}

func expectTypes(t *testing.T, rec *recorder, want ...eventbus.Type) {
	t.Helper()
	got := rec.typesSeen()
	if len(got) != len(want) {
		t.Fatalf("events %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events %v, want %v", got, want)
		}
	}
}

func TestFetch_SuccessEmitsStartThenSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("console.log('ok');"))
	}))
	defer srv.Close()

	f, bus, st, rec := newTestFetcher(t, Config{})
	res := f.FetchScript(context.Background(), Request{
		ResourceID: "particles", URL: srv.URL + "/p.js", Group: "particles",
	})
	if res.Status != StatusLoaded || !res.OK() || res.Err != nil {
		t.Fatalf("result %+v", res)
	}
	if res.AttemptID == "" || res.Attempt != 1 {
		t.Fatalf("attempt fields %+v", res)
	}
	expectTypes(t, rec, eventbus.TypeLoadingStart, eventbus.TypeLoadingSuccess)
	if !bus.IsLoaded("particles") {
		t.Fatalf("state %s", bus.GetState("particles").State)
	}
	if _, ok := st.MountedURL(srv.URL + "/p.js"); !ok {
		t.Fatal("url not mounted")
	}
	body, err := os.ReadFile(res.Mount.Path)
	if err != nil || string(body) != "console.log('ok');" {
		t.Fatalf("disk body %q err=%v", body, err)
	}
}

func TestFetch_SecondCallIsCachedAndSilent(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("x"))
	}))
	defer srv.Close()

	f, _, _, rec := newTestFetcher(t, Config{})
	url := srv.URL + "/m.js"
	f.FetchScript(context.Background(), Request{ResourceID: "masonry", URL: url})
	res := f.FetchScript(context.Background(), Request{ResourceID: "masonry", URL: url})
	if res.Status != StatusCached {
		t.Fatalf("status %s", res.Status)
	}
	if hits.Load() != 1 {
		t.Fatalf("server hits %d", hits.Load())
	}
	expectTypes(t, rec, eventbus.TypeLoadingStart, eventbus.TypeLoadingSuccess)
}

func TestFetch_ExistingMountConvergesState(t *testing.T) {
	f, bus, st, rec := newTestFetcher(t, Config{})
	// A mount left over from a previous run: in the table, but this process
	// never saw it load.
	if _, err := st.Materialize(store.MountSpec{
		ResourceID: "lazyload", URL: "https://cdn.example/ll.js", Kind: types.KindScript,
	}, []byte("x")); err != nil {
		t.Fatalf("seed mount: %v", err)
	}
	res := f.FetchScript(context.Background(), Request{ResourceID: "lazyload", URL: "https://cdn.example/ll.js"})
	if res.Status != StatusExisting {
		t.Fatalf("status %s", res.Status)
	}
	if !bus.IsLoaded("lazyload") {
		t.Fatal("existing mount did not converge state")
	}
	expectTypes(t, rec, eventbus.TypeLoadingStart, eventbus.TypeLoadingSuccess)

	// Again: state is loaded now, so no more events, and dedup upgrades to
	// the silent path.
	res = f.FetchScript(context.Background(), Request{ResourceID: "lazyload", URL: "https://cdn.example/ll.js"})
	if res.Status != StatusCached {
		t.Fatalf("status %s", res.Status)
	}
	expectTypes(t, rec, eventbus.TypeLoadingStart, eventbus.TypeLoadingSuccess)
}

func TestFetch_BadStatusFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f, bus, _, rec := newTestFetcher(t, Config{})
	// Mid-chain attempt: caller still has candidates, so the failure parks
	// the resource in failed.
	res := f.FetchScript(context.Background(), Request{ResourceID: "katex-core", URL: srv.URL + "/k.js", Remaining: 2})
	if res.Status != StatusFailed || res.Reason != types.ReasonLoadError || res.Err == nil {
		t.Fatalf("result %+v", res)
	}
	expectTypes(t, rec, eventbus.TypeLoadingStart, eventbus.TypeLoadingFailure)
	if !bus.IsInState("katex-core", types.StateFailed) {
		t.Fatalf("state %s", bus.GetState("katex-core").State)
	}

	// End of chain: the same failure is terminal.
	res = f.FetchScript(context.Background(), Request{ResourceID: "katex-solo", URL: srv.URL + "/s.js"})
	if res.Status != StatusFailed {
		t.Fatalf("result %+v", res)
	}
	if !bus.IsInState("katex-solo", types.StateAllFailed) {
		t.Fatalf("state %s", bus.GetState("katex-solo").State)
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "dial timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

type getterFunc func(*http.Request) (*http.Response, error)

func (g getterFunc) Do(req *http.Request) (*http.Response, error) { return g(req) }

func TestFetch_TimeoutEmitsLoadingTimeout(t *testing.T) {
	slow := getterFunc(func(*http.Request) (*http.Response, error) {
		return nil, timeoutErr{}
	})
	f, bus, _, rec := newTestFetcher(t, Config{Getter: slow, Timeout: 50 * time.Millisecond})
	res := f.FetchScript(context.Background(), Request{ResourceID: "highlight-core", URL: "https://cdn.example/hl.js", Remaining: 1})
	if res.Status != StatusFailed || res.Reason != types.ReasonTimeout {
		t.Fatalf("result %+v", res)
	}
	expectTypes(t, rec, eventbus.TypeLoadingStart, eventbus.TypeLoadingTimeout)
	if !bus.IsInState("highlight-core", types.StateTimeout) {
		t.Fatalf("state %s", bus.GetState("highlight-core").State)
	}
}

func TestFetch_BodyCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 2048))
	}))
	defer srv.Close()

	f, _, _, _ := newTestFetcher(t, Config{MaxBodyBytes: 1024})
	res := f.FetchScript(context.Background(), Request{ResourceID: "big", URL: srv.URL + "/big.js"})
	if res.Status != StatusFailed || res.Reason != types.ReasonLoadError {
		t.Fatalf("result %+v", res)
	}
}

func TestFetch_ConcurrentSameURLCoalesces(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		time.Sleep(50 * time.Millisecond)
		_, _ = w.Write([]byte("x"))
	}))
	defer srv.Close()

	f, _, _, rec := newTestFetcher(t, Config{})
	url := srv.URL + "/one.js"
	var wg sync.WaitGroup
	results := make([]Result, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = f.FetchScript(context.Background(), Request{ResourceID: "one", URL: url})
		}(i)
	}
	wg.Wait()
	if hits.Load() != 1 {
		t.Fatalf("server hits %d", hits.Load())
	}
	for i, r := range results {
		if !r.OK() {
			t.Fatalf("caller %d got %+v", i, r)
		}
	}
	expectTypes(t, rec, eventbus.TypeLoadingStart, eventbus.TypeLoadingSuccess)
}

func TestFetch_LocalFallbackCandidate(t *testing.T) {
	f, bus, st, rec := newTestFetcher(t, Config{})
	// The last-resort candidate is a relative vendor path; its basename is
	// looked up in the vendor dir.
	seed := filepath.Join(st.Dir(), "highlight.min.js")
	if err := os.WriteFile(seed, []byte("hl-local"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	res := f.FetchScript(context.Background(), Request{ResourceID: "highlight-core", URL: "vendor/highlight.min.js"})
	if res.Status != StatusLoaded || res.Err != nil {
		t.Fatalf("result %+v", res)
	}
	if !bus.IsLoaded("highlight-core") {
		t.Fatal("local load did not mark state")
	}
	expectTypes(t, rec, eventbus.TypeLoadingStart, eventbus.TypeLoadingSuccess)

	body, _, err := st.Content("highlight-core")
	if err != nil || string(body) != "hl-local" {
		t.Fatalf("content %q err=%v", body, err)
	}

	// Missing local file is a plain failure.
	res = f.FetchScript(context.Background(), Request{ResourceID: "ghost", URL: "vendor/ghost.js"})
	if res.Status != StatusFailed || res.Reason != types.ReasonLoadError {
		t.Fatalf("result %+v", res)
	}
}
