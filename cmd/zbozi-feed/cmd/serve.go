package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/donaldgifford/shopify-zbozi-feed/internal/api/handlers"
	"github.com/donaldgifford/shopify-zbozi-feed/internal/api/middleware"
	"github.com/donaldgifford/shopify-zbozi-feed/internal/config"
	"github.com/donaldgifford/shopify-zbozi-feed/internal/feed"
	"github.com/donaldgifford/shopify-zbozi-feed/internal/tracing"
	"github.com/donaldgifford/shopify-zbozi-feed/pkg/logger"
)

func serveCommand() *cobra.Command {
	var warm bool

	c := &cobra.Command{
		Use:   "serve",
		Short: "Start the feed server",
		Example: `  zbozi-feed serve
  zbozi-feed serve --config config.yaml --warm`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runServe(warm)
		},
	}

	c.Flags().BoolVar(&warm, "warm", false, "build the feed once before accepting traffic")

	return c
}

func runServe(warm bool) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		Enabled:        cfg.Tracing.Enabled,
		Endpoint:       cfg.Tracing.Endpoint,
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: Version,
		Insecure:       cfg.Tracing.Insecure,
	})
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}

	stack := newFeedStack(cfg, log)

	if warm {
		if _, err := stack.cache.Refresh(ctx); err != nil {
			log.Warn("initial feed build failed, serving on demand", "error", err)
		}
	}

	var warmer *feed.Warmer
	if cfg.Schedule.WarmInterval > 0 {
		warmer, err = feed.NewWarmer(stack.cache, cfg.Schedule.WarmInterval, log.With("component", "warmer"))
		if err != nil {
			return fmt.Errorf("creating cache warmer: %w", err)
		}
		warmer.Start()
	}

	e := newServer(cfg, stack, log)

	addr := cfg.Server.Host + ":" + strconv.Itoa(cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server",
			"addr", addr,
			"shop", cfg.Shopify.Shop,
			"public_domain", cfg.Feed.PublicDomain,
			"cache_ttl", cfg.Feed.CacheTTL,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			log.Error("server error", "error", err)
		}
	}

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if warmer != nil {
		select {
		case <-warmer.Stop().Done():
		case <-shutdownCtx.Done():
			log.Warn("cache warmer did not stop in time")
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("shutting down server: %w", err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("shutting down tracing: %w", err))
	}

	log.Info("server stopped")
	return errors.Join(errs...)
}

// newServer builds the route table.
func newServer(cfg *config.Config, stack *feedStack, log *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestLog(log.With("component", "http")))
	e.Use(middleware.Recovery(log))
	e.Use(middleware.Metrics())

	e.GET("/", handlers.Root(cfg.Shopify.Shop))

	health := handlers.NewHealthHandler(stack.tokens)
	e.GET("/healthz", health.Healthz)
	e.GET("/readyz", health.Readyz)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	handlers.RegisterFeedRoutes(e, handlers.NewFeedHandler(stack.cache))

	api := humaecho.New(e, huma.DefaultConfig("zbozi-feed", Version))
	handlers.RegisterFeedStatusRoutes(api, handlers.NewFeedStatusHandler(stack.cache))
	handlers.RegisterThrottleRoutes(api, handlers.NewThrottleHandler(stack.client.Tracker()))

	return e
}
