// Package store owns the vendor directory: it materializes fetched asset
// bodies as files, keeps the mount table that records which URLs are already
// on disk, and serves file content through a small hot cache.
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/benbjohnson/clock"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"assetd/internal/common/fsutil"
	"assetd/pkg/types"
)

// DefaultCacheEntries bounds the in-memory hot cache when the caller does
// not pick a size.
const DefaultCacheEntries = 64

const manifestName = ".assetd-mounts.json"

type notMountedError struct{ id string }

func (e notMountedError) Error() string { return "asset not mounted: " + e.id }

// ErrNotMounted constructs the error returned when content is requested for
// a resource id with no mount entry.
func ErrNotMounted(id string) error { return notMountedError{id: id} }

// IsNotMounted reports whether err indicates a missing mount entry.
func IsNotMounted(err error) bool {
	_, ok := err.(notMountedError)
	return ok
}

// MountSpec carries what the fetch layer knows about a body it wants
// materialized.
type MountSpec struct {
	ResourceID string
	URL        string
	Kind       types.Kind
	Attributes map[string]string
}

// Config tunes a Store. Zero values fall back to sane defaults.
type Config struct {
	VendorDir    string
	CacheEntries int
	Logger       zerolog.Logger
	Clock        clock.Clock
}

// Store is safe for concurrent use.
type Store struct {
	dir string
	clk clock.Clock
	log zerolog.Logger

	mu    sync.RWMutex
	byURL map[string]*types.MountInfo
	byID  map[string]*types.MountInfo

	hot *lru.Cache[string, []byte]
}

// New builds a Store over dir with default settings.
func New(dir string) (*Store, error) {
	return NewWithConfig(Config{VendorDir: dir})
}

// NewWithConfig builds a Store, expanding '~' in the vendor dir and creating
// it when absent.
func NewWithConfig(cfg Config) (*Store, error) {
	dir, err := fsutil.ExpandHome(cfg.VendorDir)
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return nil, fmt.Errorf("vendor dir is empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", abs, err)
	}
	entries := cfg.CacheEntries
	if entries <= 0 {
		entries = DefaultCacheEntries
	}
	hot, err := lru.New[string, []byte](entries)
	if err != nil {
		return nil, fmt.Errorf("hot cache: %w", err)
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &Store{
		dir:   abs,
		clk:   clk,
		log:   cfg.Logger,
		byURL: make(map[string]*types.MountInfo),
		byID:  make(map[string]*types.MountInfo),
		hot:   hot,
	}, nil
}

// Dir returns the absolute vendor directory.
func (s *Store) Dir() string { return s.dir }

// Materialize writes data under the vendor dir, records the mount, warms the
// hot cache and persists the manifest. Re-materializing an id overwrites the
// previous mount.
func (s *Store) Materialize(spec MountSpec, data []byte) (types.MountInfo, error) {
	name, err := fileName(spec.ResourceID, spec.Kind)
	if err != nil {
		return types.MountInfo{}, err
	}
	path := filepath.Join(s.dir, name)
	if err := fsutil.WriteAtomic(path, data, 0o644); err != nil {
		return types.MountInfo{}, err
	}
	sum := sha256.Sum256(data)
	info := types.MountInfo{
		ResourceID: spec.ResourceID,
		URL:        spec.URL,
		Kind:       spec.Kind,
		Path:       path,
		Size:       int64(len(data)),
		Checksum:   hex.EncodeToString(sum[:]),
		Attributes: spec.Attributes,
		MountedAt:  s.clk.Now(),
	}

	s.mu.Lock()
	if prev, ok := s.byID[spec.ResourceID]; ok && prev.URL != "" {
		delete(s.byURL, prev.URL)
	}
	s.byID[spec.ResourceID] = &info
	if spec.URL != "" {
		s.byURL[spec.URL] = &info
	}
	err = s.writeManifestLocked()
	s.mu.Unlock()
	if err != nil {
		return types.MountInfo{}, err
	}

	s.hot.Add(spec.ResourceID, data)
	mountsGauge.Set(float64(s.Len()))
	s.log.Debug().Str("resource", spec.ResourceID).Str("path", path).
		Int("bytes", len(data)).Msg("asset materialized")
	return info, nil
}

// MountedURL reports whether url has already been materialized.
func (s *Store) MountedURL(url string) (types.MountInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.byURL[url]; ok {
		return *m, true
	}
	return types.MountInfo{}, false
}

// ByID returns the mount entry for a resource id.
func (s *Store) ByID(id string) (types.MountInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.byID[id]; ok {
		return *m, true
	}
	return types.MountInfo{}, false
}

// List returns all mounts ordered by resource id.
func (s *Store) List() []types.MountInfo {
	s.mu.RLock()
	out := make([]types.MountInfo, 0, len(s.byID))
	for _, m := range s.byID {
		out = append(out, *m)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ResourceID < out[j].ResourceID })
	return out
}

// Len returns the number of mounted resources.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// CacheLen returns the number of bodies held in the hot cache.
func (s *Store) CacheLen() int { return s.hot.Len() }

// Content returns the body for a mounted resource, serving from the hot
// cache when possible and falling back to disk.
func (s *Store) Content(id string) ([]byte, types.MountInfo, error) {
	info, ok := s.ByID(id)
	if !ok {
		return nil, types.MountInfo{}, ErrNotMounted(id)
	}
	if data, ok := s.hot.Get(id); ok {
		contentReads.WithLabelValues("cache").Inc()
		return data, info, nil
	}
	data, err := os.ReadFile(info.Path)
	if err != nil {
		return nil, types.MountInfo{}, fmt.Errorf("read %s: %w", info.Path, err)
	}
	contentReads.WithLabelValues("disk").Inc()
	s.hot.Add(id, data)
	return data, info, nil
}

// Scan restores mounts from a previous run: manifest entries whose files
// survive come back with their source URL, and stray *.js / *.css files in
// the vendor dir are mounted by filename with no URL. Returns the number of
// mounts restored.
func (s *Store) Scan() (int, error) {
	restored := 0
	s.mu.Lock()
	defer func() {
		mountsGauge.Set(float64(len(s.byID)))
		s.mu.Unlock()
	}()

	for _, ent := range s.readManifest() {
		st, err := os.Stat(ent.Path)
		if err != nil || st.Size() != ent.Size {
			continue // file gone or rewritten behind our back
		}
		info := ent
		s.byID[info.ResourceID] = &info
		if info.URL != "" {
			s.byURL[info.URL] = &info
		}
		restored++
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return restored, fmt.Errorf("read dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		var kind types.Kind
		switch strings.ToLower(filepath.Ext(name)) {
		case ".js":
			kind = types.KindScript
		case ".css":
			kind = types.KindStyle
		default:
			continue
		}
		id := strings.TrimSuffix(name, filepath.Ext(name))
		if _, ok := s.byID[id]; ok {
			continue
		}
		path := filepath.Join(s.dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			s.log.Warn().Err(err).Str("file", name).Msg("skipping unreadable vendor file")
			continue
		}
		sum := sha256.Sum256(data)
		info := types.MountInfo{
			ResourceID: id,
			Kind:       kind,
			Path:       path,
			Size:       int64(len(data)),
			Checksum:   hex.EncodeToString(sum[:]),
			MountedAt:  s.clk.Now(),
		}
		s.byID[id] = &info
		restored++
	}
	s.log.Info().Int("mounts", restored).Str("dir", s.dir).Msg("vendor dir scanned")
	return restored, nil
}

func fileName(id string, kind types.Kind) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return "", fmt.Errorf("invalid resource id %q", id)
	}
	switch kind {
	case types.KindStyle:
		return id + ".css", nil
	default:
		return id + ".js", nil
	}
}

type manifest struct {
	Mounts []types.MountInfo `json:"mounts"`
}

func (s *Store) writeManifestLocked() error {
	m := manifest{Mounts: make([]types.MountInfo, 0, len(s.byID))}
	for _, info := range s.byID {
		m.Mounts = append(m.Mounts, *info)
	}
	sort.Slice(m.Mounts, func(i, j int) bool { return m.Mounts[i].ResourceID < m.Mounts[j].ResourceID })
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	return fsutil.WriteAtomic(filepath.Join(s.dir, manifestName), data, 0o644)
}

func (s *Store) readManifest() []types.MountInfo {
	data, err := os.ReadFile(filepath.Join(s.dir, manifestName))
	if err != nil {
		return nil
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		s.log.Warn().Err(err).Msg("mount manifest unreadable, rescanning from files")
		return nil
	}
	return m.Mounts
}
