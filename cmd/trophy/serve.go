package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/trophyhq/trophy/pkg/depgraph"
	"github.com/trophyhq/trophy/pkg/plugin"
	"github.com/trophyhq/trophy/pkg/presenter"
	"github.com/trophyhq/trophy/pkg/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the bundle over an HTTP JSON API",
	Long: `Serve the bundle rooted at --root over HTTP so a host runtime can
consume agents, skills, commands, rules, and specs. When a plugin server
is configured, POST /v1/deps/analyze proxies to the analysis service.`,
	Run: func(cmd *cobra.Command, _ []string) {
		runServe(cmd)
	},
}

func init() {
	serveCmd.Flags().String("host", "localhost", "Host to listen on")
	serveCmd.Flags().IntP("port", "p", 8723, "Port to listen on")
	serveCmd.Flags().String("root", ".", "Bundle root directory")
	serveCmd.Flags().String("server", defaultDepsServer, "Plugin server name for the analyze proxy")

	rootCmd.AddCommand(serveCmd)
}

// serveAnalyzer builds the analyze proxy backend, or nil when the named
// plugin server is not configured.
func serveAnalyzer(ctx context.Context, serverName string) (*depgraph.Client, func()) {
	settings, err := plugin.LoadSettings()
	if err != nil {
		presenter.Error(err, "Failed to load plugin settings")
		os.Exit(1)
	}
	if len(settings.Servers) == 0 {
		if settings, err = plugin.SettingsFromViper(viper.GetViper()); err != nil {
			presenter.Error(err, "Failed to load plugin settings from config")
			os.Exit(1)
		}
	}
	if _, ok := settings.Servers[serverName]; !ok {
		presenter.Warning("No analysis service configured, the analyze endpoint will answer 503")
		return nil, func() {}
	}

	manager, err := plugin.NewManager(settings)
	if err != nil {
		presenter.Error(err, "Failed to create plugin manager")
		os.Exit(1)
	}
	if err := manager.Initialize(ctx); err != nil {
		presenter.Error(err, "Failed to initialize plugin servers")
		os.Exit(1)
	}

	c, err := manager.Get(serverName)
	if err != nil {
		manager.Close(ctx)
		presenter.Error(err, "Analysis service unavailable")
		os.Exit(1)
	}
	return depgraph.NewClient(c), func() { manager.Close(ctx) }
}

func runServe(cmd *cobra.Command) {
	host, _ := cmd.Flags().GetString("host")
	port, _ := cmd.Flags().GetInt("port")
	root, _ := cmd.Flags().GetString("root")
	serverName, _ := cmd.Flags().GetString("server")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		presenter.Warning("Cancellation requested, shutting down...")
		cancel()
	}()

	analyzer, cleanup := serveAnalyzer(ctx, serverName)
	defer cleanup()

	// The Analyzer interface needs a true nil when no service is configured.
	var backend server.Analyzer
	if analyzer != nil {
		backend = analyzer
	}

	s, err := server.NewServer(&server.Config{Host: host, Port: port}, root, backend)
	if err != nil {
		presenter.Error(err, "Failed to create server")
		os.Exit(1)
	}

	if err := s.Start(ctx); err != nil {
		presenter.Error(err, "Server failed")
		os.Exit(1)
	}
}
