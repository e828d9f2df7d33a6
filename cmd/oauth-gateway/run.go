package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/panicbit/oauth-gateway/pkg/audit"
	"github.com/panicbit/oauth-gateway/pkg/cli"
	"github.com/panicbit/oauth-gateway/pkg/config"
	"github.com/panicbit/oauth-gateway/pkg/gateway/listener"
	"github.com/panicbit/oauth-gateway/pkg/gateway/proxy"
	"github.com/panicbit/oauth-gateway/pkg/gateway/router"
	"github.com/panicbit/oauth-gateway/pkg/security/auth"
	"github.com/panicbit/oauth-gateway/pkg/security/tlsmgr"
	"github.com/panicbit/oauth-gateway/pkg/server"
	"github.com/panicbit/oauth-gateway/pkg/telemetry/health"
	"github.com/panicbit/oauth-gateway/pkg/telemetry/logging"
	"github.com/panicbit/oauth-gateway/pkg/telemetry/metrics"
)

var runFlags struct {
	logLevel string
	dryRun   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the gateway",
	Long: `Start the gateway with the specified configuration.

The gateway binds every configured listen address, terminates TLS where
certificate material is configured, and proxies requests to the
configured upstreams after authenticating them against the OIDC
provider.

Examples:
  # Start with default config
  oauth-gateway run

  # Start with custom config
  oauth-gateway run --config /etc/oauth-gateway/config.yaml

  # Validate config without starting
  oauth-gateway run --dry-run`,
	RunE: runGateway,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the gateway")
}

func runGateway(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return cli.NewConfigError(cfgFile, err.Error())
	}

	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}

	logger, err := logging.New(logging.Config{
		Level:         cfg.Telemetry.Logging.Level,
		Format:        cfg.Telemetry.Logging.Format,
		RedactSecrets: true,
	})
	if err != nil {
		return cli.NewStartupError("logging setup", err)
	}
	slog.SetDefault(logger)

	if runFlags.dryRun {
		fmt.Printf("✓ Configuration valid: %d virtual host(s)\n", len(cfg.Servers))
		return nil
	}

	ctx := cli.SetupSignalHandler()

	var m *metrics.Metrics
	if cfg.Telemetry.Metrics.Enabled {
		m = metrics.New(cfg.Telemetry.Metrics.Namespace)
	}

	checker := health.New(0)

	// OIDC discovery runs once, up front; a gateway that cannot reach
	// its provider must not start.
	logger.Info("discovering OIDC provider", "issuer_url", cfg.OpenID.IssuerURL)
	oidcClient, err := auth.NewClient(ctx, cfg.OpenID, m)
	if err != nil {
		return cli.NewStartupError("OIDC discovery", err)
	}
	checker.RegisterCheck("oidc", oidcClient.CheckReady)

	// Optional audit pipeline.
	var (
		store    *audit.Store
		recorder *audit.Recorder
		purger   *audit.Purger
	)
	if cfg.Audit.Enabled {
		store, err = audit.OpenStore(cfg.Audit.SQLitePath)
		if err != nil {
			return cli.NewStartupError("audit store setup", err)
		}
		defer store.Close()
		checker.RegisterCheck("audit", store.CheckReady)

		recorder = audit.NewRecorder(store, cfg.Audit.BufferSize, logger, m)
		recorder.Start(ctx)
		defer recorder.Close()

		purger, err = audit.NewPurger(store, cfg.Audit.RetentionDays, cfg.Audit.PurgeSchedule, logger)
		if err != nil {
			return cli.NewStartupError("audit retention setup", err)
		}
		purger.Start()
		defer purger.Stop()
	}

	// Certificate material: load every configured pair up front (fatal
	// on failure) and watch the files for renewal.
	tlsManager := tlsmgr.NewManager()
	reloader, err := tlsmgr.NewReloader(tlsManager, logger)
	if err != nil {
		return cli.NewStartupError("certificate watcher setup", err)
	}
	for i := range cfg.Servers {
		s := &cfg.Servers[i]
		if s.TLS == nil {
			continue
		}

		cert, err := tlsmgr.LoadCertifiedKey(s.TLS.Cert, s.TLS.Key, logger)
		if err != nil {
			return cli.NewStartupError("certificate load", err)
		}
		if err := tlsManager.AddCertifiedKey(s.Listen, s.Name, cert); err != nil {
			return cli.NewStartupError("certificate load", err)
		}
		if err := reloader.Watch(tlsmgr.Entry{
			ListenAddr: s.Listen,
			ServerName: s.Name,
			CertFile:   s.TLS.Cert,
			KeyFile:    s.TLS.Key,
		}); err != nil {
			return cli.NewStartupError("certificate watcher setup", err)
		}
	}
	reloader.Start(ctx)

	rt := router.New(cfg.Servers)
	handler := proxy.NewHandler(rt, oidcClient, proxy.NewUpstreamClient(), logger, m, recorder)

	listeners := listener.NewManager(logger, m)
	for _, addr := range rt.ListenAddrs() {
		if err := listeners.StartListeningOn(addr); err != nil {
			return cli.NewStartupError("bind", err)
		}
	}

	if cfg.Admin.Listen != "" {
		admin := server.NewAdminServer(cfg.Admin.Listen, m, checker, logger)
		if err := admin.Start(); err != nil {
			return cli.NewStartupError("admin endpoint bind", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			admin.Shutdown(shutdownCtx)
		}()
	}

	logger.Info("gateway started", "virtual_hosts", len(cfg.Servers))

	supervisor := server.NewSupervisor(listeners, tlsManager, handler, logger, m)
	if err := supervisor.Run(ctx); err != nil {
		return cli.NewStartupError("serve", err)
	}

	logger.Info("gateway stopped")
	return nil
}
