package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/gridsim/app"
	"github.com/kilianp07/gridsim/config"
	coremon "github.com/kilianp07/gridsim/core/monitoring"
	"github.com/kilianp07/gridsim/infra/logger"
	"github.com/kilianp07/gridsim/infra/monitoring"
)

var (
	cfgPath string
	fabric  string
	domain  string
)

var rootCmd = &cobra.Command{
	Use:   "gridsim",
	Short: "Hierarchical energy grid simulation",
	RunE:  run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
	rootCmd.Flags().StringVar(&fabric, "fabric", "", "message fabric backend (memory, mqtt, nats)")
	rootCmd.Flags().StringVar(&domain, "domain", "", "fabric domain prefixing every topic")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if fabric != "" {
		cfg.Fabric.Backend = fabric
	}
	if domain != "" {
		cfg.Fabric.Domain = domain
	}
	if err := cfg.Fabric.Validate(); err != nil {
		return err
	}

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	svc, err := app.New(cfg)
	if err != nil {
		coremon.CaptureException(err, map[string]string{"module": "setup"})
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	summary, err := svc.Run(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d ticks, average %.3f kW, highest %.3f kW, lowest %.3f kW, net %.3f kWh, %d degraded\n",
		summary.Ticks, summary.AverageKW, summary.HighestKW, summary.LowestKW, summary.NetEnergyKWh, summary.Degraded)
	return err
}
