package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/trophyhq/trophy/pkg/bundle"
	"github.com/trophyhq/trophy/pkg/presenter"
)

var bundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Work with a whole configuration bundle",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var bundleLintCmd = &cobra.Command{
	Use:   "lint [root]",
	Short: "Load and lint every artifact of a bundle",
	Long: `Load the bundle rooted at the given directory (default the current
directory) and validate every agent, rule, and spec document. All
violations are reported at once.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runBundleLint(cmd, bundleRootArg(args))
	},
}

var bundleWatchCmd = &cobra.Command{
	Use:   "watch [root]",
	Short: "Re-lint the bundle whenever its files change",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runBundleWatch(cmd, bundleRootArg(args))
	},
}

func init() {
	bundleWatchCmd.Flags().IntP("debounce", "d", 500, "Debounce time in milliseconds for file change events")

	bundleCmd.AddCommand(bundleLintCmd)
	bundleCmd.AddCommand(bundleWatchCmd)
	rootCmd.AddCommand(bundleCmd)
}

func bundleRootArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

func runBundleLint(cmd *cobra.Command, root string) {
	b, err := bundle.Load(cmd.Context(), root)
	if err != nil {
		presenter.Error(err, "Failed to load bundle")
		os.Exit(1)
	}

	presenter.Info(fmt.Sprintf("Loaded bundle at %s: %s", root, b.Summary()))

	if err := b.Lint(cmd.Context()); err != nil {
		presenter.Error(err, "Bundle has violations")
		os.Exit(1)
	}
	presenter.Success("Bundle is clean")
}

func runBundleWatch(cmd *cobra.Command, root string) {
	debounce, _ := cmd.Flags().GetInt("debounce")
	if debounce < 0 {
		presenter.Error(fmt.Errorf("debounce time cannot be negative: %d", debounce), "Invalid configuration")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		presenter.Warning("Cancellation requested, shutting down...")
		cancel()
	}()

	watcher := bundle.NewWatcher(root, func(ctx context.Context, b *bundle.Bundle, lintErr error) {
		if lintErr != nil {
			presenter.Error(lintErr, "Bundle has violations")
			return
		}
		presenter.Success(fmt.Sprintf("Bundle is clean: %s", b.Summary()))
	}, bundle.WithDebounce(time.Duration(debounce)*time.Millisecond))

	presenter.Info(fmt.Sprintf("Watching bundle at %s... Press Ctrl+C to stop", root))
	if err := watcher.Run(ctx); err != nil && err != context.Canceled {
		presenter.Error(err, "Bundle watcher failed")
		os.Exit(1)
	}
}
