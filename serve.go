package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fairbounty/config"
	"fairbounty/handlers"
	"fairbounty/models"
	"fairbounty/services"
	"fairbounty/workers"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		RunE:  serveRun,
	}
}

func serveRun(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	if err := models.Migrate(db); err != nil {
		return err
	}

	scores := services.NewFairScaleClient(cfg.FairScaleAPIURL, cfg.FairScaleAPIKey, cfg.ScoreTimeout)
	app := handlers.NewApp(db, scores)
	reconciler := workers.NewSubmissionCountReconciler(db, cfg.ReconcileInterval)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return reconciler.Start(ctx)
	})
	g.Go(func() error {
		log.Printf("✅ Server running on %s", cfg.ListenAddr)
		return app.Listen(cfg.ListenAddr)
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Println("Shutting down server...")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Println("👋 Server stopped")
	return nil
}
