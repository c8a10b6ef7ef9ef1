package ctl

import (
	"context"
	"fmt"
	"os"
	"time"
)

// Config carries the connection settings every subcommand shares.
type Config struct {
	ServerURL string
	LogLvl    string
	Timeout   time.Duration
}

func defaultConfig() *Config {
	return &Config{
		ServerURL: envStr("ASSETCTL_SERVER", "http://127.0.0.1:8080"),
		LogLvl:    envStr("ASSETCTL_LOG_LEVEL", "info"),
		Timeout:   envDuration("ASSETCTL_TIMEOUT", 60*time.Second),
	}
}

// requestCtx derives the context for one API call from the shared budget.
func (c *Config) requestCtx() (context.Context, context.CancelFunc) {
	return ctxWithBudget(c.Timeout)
}

func ctxWithBudget(d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), d)
}

// MainWithArgs is a testable variant of Main that accepts args explicitly.
// It returns an exit code (0 for success, non-zero on error).
func MainWithArgs(args []string) int {
	root := buildRootCmdWith(defaultConfig())
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	return 0
}

// Main returns an exit code (0 for success, non-zero on error) for use by cmd/assetctl.
func Main() int { return MainWithArgs(os.Args[1:]) }
