package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/cuemby/fabricapi/pkg/apierror"
	"github.com/cuemby/fabricapi/pkg/config"
	"github.com/cuemby/fabricapi/pkg/log"
	"github.com/cuemby/fabricapi/pkg/metrics"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode separates invalid records (2) from every other failure (1)
func exitCode(err error) int {
	switch apierror.CodeOf(err) {
	case apierror.CodeMissingRequiredField, apierror.CodeUnknownDiscriminator, apierror.CodeMalformedValue:
		return 2
	}
	return 1
}

// app carries state shared by every subcommand once the root pre-run has
// loaded configuration.
type app struct {
	cfg           config.Config
	metricsServer *http.Server
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "fabricctl",
		Short: "fabricctl - convert and archive cluster management API records",
		Long: `fabricctl converts cluster management REST API records between their
JSON wire form and typed values: health reports, health queries, service
descriptions, replica listings and cluster events.

Every payload passes through the same converters a client would use, so
fabricctl can check captured traffic, normalize hand-written documents and
keep an archive of validated records.`,
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) { a.teardown() },
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"fabricctl version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to a YAML config file")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.Bool("log-json", false, "Write logs as JSON")
	flags.String("metrics-addr", "", "Serve Prometheus metrics on this address while the command runs")

	rootCmd.AddCommand(newTypesCmd())
	rootCmd.AddCommand(newConvertCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newFilterCmd())
	rootCmd.AddCommand(newArchiveCmd(a))

	return rootCmd
}

// setup loads configuration, applies flag overrides and initializes
// logging and the optional metrics endpoint.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Changed("log-json") {
		cfg.Log.JSON, _ = cmd.Flags().GetBool("log-json")
	}
	if cmd.Flags().Changed("metrics-addr") {
		cfg.Metrics.Addr, _ = cmd.Flags().GetString("metrics-addr")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logCfg := cfg.Logging()
	logCfg.Output = cmd.ErrOrStderr()
	log.Init(logCfg)
	a.cfg = cfg

	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		a.metricsServer = &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorf("metrics server error", err)
			}
		}()
		logger := log.WithComponent("metrics")
		logger.Info().Str("addr", cfg.Metrics.Addr).Msg("serving metrics")
	}
	return nil
}

func (a *app) teardown() {
	if a.metricsServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.metricsServer.Shutdown(ctx); err != nil {
		log.Warn("metrics server did not shut down cleanly: " + err.Error())
	} else {
		log.Info("metrics server stopped")
	}
	a.metricsServer = nil
}
