package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"widgetboard/internal/config"
	"widgetboard/internal/httpapi"
	"widgetboard/internal/ordering"
	"widgetboard/internal/store"
	"widgetboard/internal/transport"
)

func main() {
	var (
		cfgPath     = flag.String("config", "", "path to config file (yaml, toml or json)")
		healthcheck = flag.Bool("healthcheck", false, "query a running widgetd's /health and exit")
	)
	flag.Parse()

	fn := run
	if *healthcheck {
		fn = checkHealth
	}
	if err := fn(*cfgPath); err != nil {
		fmt.Fprintf(os.Stderr, "widgetd: %v\n", err)
		os.Exit(1)
	}
}

func run(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	logger, err := cfg.Log.NewLogger(os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	st := store.NewMem()
	svc := ordering.New(st, ordering.WithLogger(logger))

	gin.SetMode(gin.ReleaseMode)
	api := httpapi.New(svc, httpapi.Config{
		DefaultPageSize: cfg.API.DefaultPageSize,
		MaxPageSize:     cfg.API.MaxPageSize,
	}, logger)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           newCORS(cfg.CORS.AllowedOrigins).Handler(api.Router()),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("widgetd listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		logger.Info("widgetd shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// checkHealth asks the instance at server.addr whether it is up, for use as a
// container HEALTHCHECK command.
func checkHealth(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	addr := cfg.Server.Addr
	if strings.HasPrefix(addr, ":") {
		addr = "127.0.0.1" + addr
	}
	ctx, cancel := context.WithTimeout(context.Background(), transport.DefaultTimeout)
	defer cancel()
	return transport.NewClient(addr, nil).Health(ctx)
}

func newCORS(origins []string) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{transport.TotalCountHeader},
	})
}
