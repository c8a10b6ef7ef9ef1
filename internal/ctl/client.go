package ctl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"assetd/pkg/types"
)

// Client talks to a running assetd over its HTTP API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient normalizes base (host:port or full URL) into a Client. Request
// budgets come from the caller's context, not the http.Client.
func NewClient(base string) *Client {
	b := strings.TrimRight(strings.TrimSpace(base), "/")
	if b == "" {
		b = "http://127.0.0.1:8080"
	}
	if !strings.Contains(b, "://") {
		b = "http://" + b
	}
	return &Client{BaseURL: b, HTTP: &http.Client{}}
}

// Status fetches GET /status.
func (c *Client) Status(ctx context.Context) (types.StatusResponse, error) {
	var out types.StatusResponse
	err := c.get(ctx, "/status", &out)
	return out, err
}

// Assets fetches GET /assets.
func (c *Client) Assets(ctx context.Context) (types.AssetsResponse, error) {
	var out types.AssetsResponse
	err := c.get(ctx, "/assets", &out)
	return out, err
}

// LoadFamily posts /assets/{family}/load and blocks until the chain resolves.
func (c *Client) LoadFamily(ctx context.Context, family string) (types.LoadResponse, error) {
	var out types.LoadResponse
	err := c.post(ctx, "/assets/"+url.PathEscape(family)+"/load", nil, &out)
	return out, err
}

// LoadAll posts /assets/load. Nil families loads the whole catalog.
func (c *Client) LoadAll(ctx context.Context, families []string) (types.LoadAllResponse, error) {
	var body any
	if len(families) > 0 {
		body = map[string][]string{"families": families}
	}
	var out types.LoadAllResponse
	err := c.post(ctx, "/assets/load", body, &out)
	return out, err
}

// State fetches GET /assets/{id}/state, optionally blocking server-side until
// the resource reaches one of the wait states.
func (c *Client) State(ctx context.Context, id string, wait []string, timeout time.Duration) (types.StateResponse, error) {
	q := url.Values{}
	if len(wait) > 0 {
		q.Set("wait", strings.Join(wait, ","))
	}
	if timeout > 0 {
		q.Set("timeout_ms", strconv.FormatInt(timeout.Milliseconds(), 10))
	}
	path := "/assets/" + url.PathEscape(id) + "/state"
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}
	var out types.StateResponse
	err := c.get(ctx, path, &out)
	return out, err
}

// EventsURL derives the websocket endpoint for GET /events.
func (c *Client) EventsURL(typeFilter []string) (string, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("bad server url %q: %w", c.BaseURL, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("bad server url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/events"
	if len(typeFilter) > 0 {
		q := u.Query()
		q.Set("types", strings.Join(typeFilter, ","))
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	debug("%s %s", req.Method, req.URL)
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return apiError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// apiError turns a non-2xx response into an error, preferring the daemon's
// JSON error envelope over raw bytes.
func apiError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	var e types.ErrorResponse
	if json.Unmarshal(b, &e) == nil && e.Error != "" {
		return fmt.Errorf("%s (http %d)", e.Error, resp.StatusCode)
	}
	return fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
}
