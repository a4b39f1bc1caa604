package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"algocrafter/config"
	"algocrafter/internal/app"
	"algocrafter/logger"
)

var (
	configPath string
	demo       bool
)

var rootCmd = &cobra.Command{
	Use:   "algocrafter",
	Short: "AlgoCrafter strategy workbench",
	Long: `AlgoCrafter manages trading strategies and the market data they run on.

Run without arguments to start the terminal UI.`,
	SilenceUsage: true,
	RunE:         runUI,
}

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Start the terminal UI",
	RunE:  runUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "Path to configuration file")
	rootCmd.Flags().BoolVar(&demo, "demo", false, "Start at the clean setup demo screens")
	uiCmd.Flags().BoolVar(&demo, "demo", false, "Start at the clean setup demo screens")

	rootCmd.AddCommand(uiCmd)
	rootCmd.AddCommand(strategiesCmd)
	rootCmd.AddCommand(marketCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Error("algocrafter failed")
		os.Exit(1)
	}
}

// bootstrap loads the configuration, configures the logger and builds the
// container. interactive sends log lines to the UI log file instead of
// stdout.
func bootstrap(ctx context.Context, interactive bool) (*app.Container, error) {
	log := logger.GetLogger()

	cfg, err := config.LoadConfig(config.ResolvePath(configPath))
	if err != nil {
		return nil, err
	}

	output := cfg.Logging.Output
	if interactive {
		output = cfg.Logging.UIOutput
	}
	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, output, cfg.Logging.MaxAge); err != nil {
		return nil, err
	}

	log.WithEnv("APP_ENV").WithFields(logger.Fields{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
		"env":     config.AppEnvironment().String(),
	}).Info("starting algocrafter")

	return app.New(ctx, cfg, log)
}
