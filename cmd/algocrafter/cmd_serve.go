package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"algocrafter/logger"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Keep the watchlist fresh on the configured schedule",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	log := logger.GetLogger()

	c, err := bootstrap(cmd.Context(), false)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	srv := c.NewStatusServer()
	if !c.Config.Schedule.Enabled && srv == nil {
		log.WithComponent("main").Warn("schedule and status api disabled; serve only runs one refresh pass")
	}

	var wg sync.WaitGroup
	if srv != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Run(ctx); err != nil {
				log.WithComponent("status").WithError(err).Error("status server failed")
			}
		}()
	}

	c.Scheduler.RunNow(ctx)
	if c.Config.Schedule.Enabled {
		c.Scheduler.Start(ctx)
	}
	if c.Config.Schedule.Enabled || srv != nil {
		log.Info("all components started successfully")

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		log.WithFields(logger.Fields{"signal": sig.String()}).Info("shutdown signal received")
	}
	cancel()

	log.Info("starting graceful shutdown")
	done := make(chan error, 1)
	go func() {
		wg.Wait()
		done <- c.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			return err
		}
		log.Info("graceful shutdown completed")
	case <-time.After(shutdownTimeout):
		log.Warn("graceful shutdown timeout exceeded")
	}

	log.Info("algocrafter stopped")
	return nil
}
