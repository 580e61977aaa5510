package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/hookflow/hookflow/adapters/metrics"
	"github.com/hookflow/hookflow/bootstrap"
	"github.com/hookflow/hookflow/config"
	"github.com/hookflow/hookflow/domain/hook"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep a rule file compiled, reloading on change",
	Long: `Compile the rule file, then watch it for changes and recompile.
A failed recompile keeps the previous configuration active. SIGHUP also
triggers a reload.

Load metrics are served on the metrics address.`,
	RunE: runWatch,
}

var metricsAddr string

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9190", "address to serve Prometheus metrics on")
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := bootstrap.NewLogger(logLevel, true)

	reg, err := bootstrap.NewRegistries()
	if err != nil {
		return err
	}
	collector := metrics.New()

	loader := func(path string) (*config.Config, error) {
		cfg, err := reg.CompileFile(path, keyPath, hook.PostLoad)
		if err != nil {
			collector.ObserveLoadError()
			return nil, err
		}
		collector.ObserveLoad(cfg)
		return cfg, nil
	}

	holder, err := config.NewHolder(ruleFile, loader, logger)
	if err != nil {
		return err
	}
	defer holder.Stop()

	if err := holder.WatchFile(); err != nil {
		return err
	}
	holder.WatchSignals()

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			logger.Error().Err(err).Msg("metrics server failed")
		}
	}()
	logger.Info().Str("addr", metricsAddr).Msg("serving metrics")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info().Msg("shutting down")
	return nil
}
