package ctl

import (
	"os"
	"time"

	"github.com/spf13/cobra"
)

// buildRootCmd is a convenience for help-only fallbacks.
func buildRootCmd() *cobra.Command { return buildRootCmdWith(defaultConfig()) }

// buildRootCmdWith constructs the Cobra command tree wired to the fn* actions.
func buildRootCmdWith(cfg *Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "assetctl",
		Short:         "Inspect and drive a running assetd",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags -> Config
	root.PersistentFlags().String("server", cfg.ServerURL, "assetd base URL (defaults ASSETCTL_SERVER or http://127.0.0.1:8080)")
	root.PersistentFlags().String("log-level", cfg.LogLvl, "Log level: debug|info|warn|error (defaults ASSETCTL_LOG_LEVEL or info)")
	root.PersistentFlags().Duration("timeout", cfg.Timeout, "Per-request budget, 0 disables (defaults ASSETCTL_TIMEOUT or 60s)")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if f := cmd.InheritedFlags().Lookup("server"); f != nil {
			if v := f.Value.String(); v != "" {
				cfg.ServerURL = v
			}
		}
		if f := cmd.InheritedFlags().Lookup("log-level"); f != nil {
			if v := f.Value.String(); v != "" {
				cfg.LogLvl = v
			}
		}
		if f := cmd.InheritedFlags().Lookup("timeout"); f != nil {
			if d, err := time.ParseDuration(f.Value.String()); err == nil {
				cfg.Timeout = d
			}
		}
		SetLogLevel(cfg.LogLvl)
	}

	statusCmd := &cobra.Command{Use: "status", Short: "Show daemon status", Example: "  assetctl status", RunE: func(cmd *cobra.Command, args []string) error {
		return fnShowStatus(cfg)
	}}

	assetsCmd := &cobra.Command{Use: "assets", Aliases: []string{"list"}, Short: "List catalog assets with their lifecycle state", RunE: func(cmd *cobra.Command, args []string) error {
		return fnListAssets(cfg)
	}}

	loadCmd := &cobra.Command{Use: "load <family>", Short: "Load one library family (blocks until the chain resolves)", Example: "  assetctl load highlight", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		return fnLoadFamily(cfg, args[0])
	}}

	prefetchCmd := &cobra.Command{Use: "prefetch [family ...]", Short: "Load families one by one with a progress bar (none = whole catalog)", Example: "  assetctl prefetch\n  assetctl prefetch highlight zoom", RunE: func(cmd *cobra.Command, args []string) error {
		return fnPrefetch(cfg, args)
	}}

	stateCmd := &cobra.Command{Use: "state <id>", Short: "Show one resource's lifecycle state", Example: "  assetctl state highlight-core\n  assetctl state zoom-js --wait loaded,all_failed --wait-timeout 10s", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		wait, _ := cmd.Flags().GetStringSlice("wait")
		waitTimeout, _ := cmd.Flags().GetDuration("wait-timeout")
		return fnShowState(cfg, args[0], wait, waitTimeout)
	}}
	stateCmd.Flags().StringSlice("wait", nil, "Block until the resource reaches one of these states")
	stateCmd.Flags().Duration("wait-timeout", 0, "Server-side wait budget (0 uses the server default)")

	eventsCmd := &cobra.Command{Use: "events", Short: "Stream lifecycle events until interrupted", Example: "  assetctl events\n  assetctl events --types loading_failure,state_change", RunE: func(cmd *cobra.Command, args []string) error {
		filter, _ := cmd.Flags().GetStringSlice("types")
		return fnTailEvents(cfg, filter)
	}}
	eventsCmd.Flags().StringSlice("types", nil, "Only stream these event types")

	root.AddCommand(statusCmd, assetsCmd, loadCmd, prefetchCmd, stateCmd, eventsCmd)

	// completion command
	completionCmd := &cobra.Command{Use: "completion", Short: "Generate the autocompletion script for the specified shell"}
	completionCmd.AddCommand(&cobra.Command{Use: "bash", Short: "Bash completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenBashCompletion(os.Stdout) }})
	completionCmd.AddCommand(&cobra.Command{Use: "zsh", Short: "Zsh completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenZshCompletion(os.Stdout) }})
	completionCmd.AddCommand(&cobra.Command{Use: "fish", Short: "Fish completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenFishCompletion(os.Stdout, true) }})
	completionCmd.AddCommand(&cobra.Command{Use: "powershell", Short: "PowerShell completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenPowerShellCompletionWithDesc(os.Stdout) }})
	root.AddCommand(completionCmd)

	return root
}
