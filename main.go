package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}
	if err := SetupLogger(cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}
	defer Log.Sync()

	var db *DB
	if cfg.DBPath != "" {
		db, err = OpenDB(cfg.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
	}

	analytics := NewAnalytics(db)
	defer analytics.Stop()

	rooms := NewCoordinator(cfg.RoomSettings(), analytics)
	hub := NewHub(rooms)

	var api *AdminAPI
	if cfg.AdminPassHash != "" || cfg.PublicURL != "" {
		auth, err := NewAuth(db, cfg.AdminPassHash)
		if err != nil {
			return err
		}
		api = NewAdminAPI(hub, auth, analytics, cfg.PublicURL)
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           SetupRoutes(hub, api),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})
	g.Go(func() error {
		Log.Infow("server starting", "addr", cfg.Addr, "capacity", cfg.RoomCapacity, "radius", cfg.ArenaRadius, "db", cfg.DBPath != "")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		Log.Infow("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := server.Shutdown(sctx)
		return errors.Join(err, rooms.Shutdown(sctx))
	})
	return g.Wait()
}
