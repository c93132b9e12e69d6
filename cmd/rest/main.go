package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"money-coach-be/internal/bootstrap"
	"money-coach-be/internal/config"
	"money-coach-be/internal/pkg/logger"
	"money-coach-be/internal/server"
	"money-coach-be/internal/tracer"

	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := bootstrap.NewContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	defer container.Close()

	shutdownTracer := tracer.InitTracer(cfg.App.OtelEnabled, container.Logger)
	defer shutdownTracer(context.Background())

	srv := server.New(cfg, container)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return container.ConsumerService.Consume(gctx)
	})
	g.Go(func() error {
		interval := time.Duration(cfg.Worker.SessionSweepIntervalMins) * time.Minute
		container.SweeperService.Run(gctx, interval)
		return nil
	})
	g.Go(srv.Run)
	g.Go(func() error {
		<-gctx.Done()
		return srv.Shutdown()
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		container.Logger.Error(logger.ModuleServer, "Server stopped", map[string]interface{}{"error": err.Error()})
	}
}
