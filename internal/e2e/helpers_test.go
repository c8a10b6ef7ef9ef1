package e2e

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"assetd/internal/config"
	"assetd/internal/daemon"
	"assetd/internal/httpapi"
	"assetd/internal/registry"
)

// cdnStub serves scripted bodies and counts hits per path.
type cdnStub struct {
	mu   sync.Mutex
	hits map[string]int
	fail map[string]bool
}

func newCDNStub() *cdnStub {
	return &cdnStub{hits: make(map[string]int), fail: make(map[string]bool)}
}

func (c *cdnStub) handler(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	c.hits[r.URL.Path]++
	failed := c.fail[r.URL.Path]
	c.mu.Unlock()
	if failed {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write([]byte("body:" + r.URL.Path))
}

func (c *cdnStub) count(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits[path]
}

func (c *cdnStub) failPath(path string) { c.mu.Lock(); c.fail[path] = true; c.mu.Unlock() }

// newServer stands up the whole pipeline behind one httptest server: a stub
// CDN, a catalog built from the overlay, the daemon and the HTTP mux.
// Relative overlay urls are resolved against the stub CDN.
func newServer(t *testing.T, overlay map[string]config.Resource) (*httptest.Server, *cdnStub, *daemon.Daemon) {
	t.Helper()
	stub := newCDNStub()
	cdn := httptest.NewServer(http.HandlerFunc(stub.handler))
	t.Cleanup(cdn.Close)

	for id, r := range overlay {
		if r.Primary != "" && r.Primary[0] == '/' {
			r.Primary = cdn.URL + r.Primary
		}
		for i, fb := range r.Fallbacks {
			if fb != "" && fb[0] == '/' {
				r.Fallbacks[i] = cdn.URL + fb
			}
		}
		overlay[id] = r
	}

	catalog, err := registry.Build(overlay)
	if err != nil {
		t.Fatalf("build catalog: %v", err)
	}
	d, err := daemon.New(daemon.Config{Catalog: catalog, VendorDir: t.TempDir()})
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}
	srv := httptest.NewServer(httpapi.NewMux(d))
	t.Cleanup(srv.Close)
	return srv, stub, d
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func httpPostJSON(t *testing.T, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, rd)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}
