package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"assetd/internal/config"
	"assetd/internal/daemon"
	"assetd/internal/httpapi"
	"assetd/internal/registry"
)

func main() {
	// Flags with environment variable defaults
	addr := flag.String("addr", envStr("ASSETD_ADDR", ":8080"), "HTTP listen address, e.g. :8080")
	vendorDir := flag.String("vendor-dir", envStr("ASSETD_VENDOR_DIR", "~/.assetd/vendor"), "Directory vendored assets are written to and served from")
	configPath := flag.String("config", os.Getenv("ASSETD_CONFIG"), "Config file (.yaml/.json/.toml); empty runs on the builtin catalog")
	logLevel := flag.String("log-level", envStr("ASSETD_LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	prefetch := flag.String("prefetch", os.Getenv("ASSETD_PREFETCH"), "Families to load at startup, comma separated ('all' loads every family)")
	flag.Parse()

	logger := newLogger(*logLevel)

	var cfg config.Config
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", *configPath).Msg("failed to load config")
		}
		cfg = loaded
	} else {
		logger.Info().Msg("no config file; using builtin catalog and defaults")
	}

	// Explicit flags beat the config file; the config file beats flag defaults.
	seen := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { seen[f.Name] = true })
	if cfg.Addr != "" && !seen["addr"] {
		*addr = cfg.Addr
	}
	if cfg.VendorDir != "" && !seen["vendor-dir"] {
		*vendorDir = cfg.VendorDir
	}
	if cfg.LogLevel != "" && !seen["log-level"] {
		logger = newLogger(cfg.LogLevel)
	}

	catalog, err := registry.Build(cfg.Resources)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build asset catalog")
	}

	d, err := daemon.New(daemon.Config{
		Catalog:      catalog,
		VendorDir:    *vendorDir,
		CacheEntries: cfg.CacheEntries,
		FetchTimeout: time.Duration(cfg.FetchTimeoutMS) * time.Millisecond,
		SettleDelay:  time.Duration(cfg.SettleMS) * time.Millisecond,
		Logger:       logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start daemon")
	}

	baseCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	httpapi.SetLogger(logger)
	httpapi.SetBaseContext(baseCtx)
	if cfg.WaitTimeoutMS > 0 {
		httpapi.SetWaitCapSeconds(int64((cfg.WaitTimeoutMS + 999) / 1000))
	}
	if len(cfg.AllowOrigins) > 0 {
		httpapi.SetCORSOptions(true, cfg.AllowOrigins, nil, nil)
	}

	mux := httpapi.NewMux(d)
	srv := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		logger.Info().Str("addr", *addr).Str("vendor_dir", *vendorDir).
			Int("assets", catalog.Len()).Msg("assetd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	if fams := splitCSV(*prefetch); len(fams) > 0 {
		go runPrefetch(baseCtx, d, logger, fams)
	}

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	// Readiness flips first; canceling the base context unblocks state
	// waiters and tells event streams to close.
	d.Shutdown()
	cancel()
	ctx, timeout := context.WithTimeout(context.Background(), 5*time.Second)
	defer timeout()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown error")
	}
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger().Level(lvl)
}

func runPrefetch(ctx context.Context, d *daemon.Daemon, logger zerolog.Logger, fams []string) {
	var names []string
	if !(len(fams) == 1 && fams[0] == "all") {
		names = fams
	}
	resp, err := d.LoadAll(ctx, names)
	if err != nil {
		logger.Error().Err(err).Msg("prefetch failed")
		return
	}
	loaded := 0
	for _, ok := range resp.Results {
		if ok {
			loaded++
		}
	}
	logger.Info().Int("loaded", loaded).Int("requested", len(resp.Results)).Msg("prefetch finished")
}

// splitCSV splits a comma separated flag value, trimming blanks.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
