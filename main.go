package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"pongo_server/config"
	"pongo_server/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	cfg.ConfigureLogger()
	log.WithFields(log.Fields{
		"port":       cfg.Port,
		"corsOrigin": cfg.CORSOrigin,
		"assist":     cfg.AssistEnabled,
		"clientAuth": cfg.ClientAuthBall,
		"testHooks":  cfg.EnableTestHooks,
	}).Info("🔧 Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg)
	if _, err := srv.Start(ctx, cfg.Port); err != nil {
		log.Fatalf("❌ %v", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case err := <-srv.Err():
			return err
		case <-gctx.Done():
			return nil
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("🔄 Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Errorf("❌ Server exited with error: %v", err)
		os.Exit(1)
	}
}
