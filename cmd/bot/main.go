package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"dream-villa-bot/internal/config"
	"dream-villa-bot/internal/dispatch"
	"dream-villa-bot/internal/generation"
	"dream-villa-bot/internal/handlers"
	"dream-villa-bot/internal/httpclient"
	"dream-villa-bot/internal/metrics"
	"dream-villa-bot/internal/store"
	"dream-villa-bot/internal/telegram"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg)

	if err := run(cfg, logger); err != nil {
		logger.Error("bot stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient := httpclient.New(httpclient.Options{
		PreferIPv4: cfg.PreferIPv4,
		Timeout:    cfg.HTTPTimeout,
	})

	st, err := store.Open(ctx, store.Options{
		Driver: cfg.StoreDriver,
		DSN:    cfg.StoreDSN,
	})
	if err != nil {
		return err
	}
	defer st.Close()

	m := metrics.New()

	gen := generation.New(generation.Options{
		APIURL:            cfg.APIURL,
		GenPath:           cfg.APIMethodGen,
		PromptsPath:       cfg.APIMethodPrompts,
		CompletionAPIKey:  cfg.PerplexityAPIKey,
		CompletionBaseURL: cfg.PerplexityBaseURL,
		CompletionModel:   cfg.PerplexityModel,
		HTTPClient:        httpClient,
		Logger:            logger,
		Metrics:           m,
	})
	if !gen.EnhancerEnabled() {
		logger.Warn("PERPLEXITY_API_KEY not set, prompts will not be enhanced")
	}

	tg, err := telegram.New(telegram.Options{
		Token:      cfg.TelegramToken,
		HTTPClient: httpClient,
		Logger:     logger,
		Debug:      cfg.Debug,
	})
	if err != nil {
		return err
	}

	handler := handlers.New(handlers.Options{
		Telegram:  tg,
		Store:     st,
		Generator: gen,
		Messages: handlers.Messages{
			Start:   cfg.Messages.Start,
			Help:    cfg.Messages.Help,
			Info:    cfg.Messages.Info,
			Welcome: cfg.Messages.Welcome,
		},
		Metrics: m,
		Logger:  logger,
	})

	dispatcher := dispatch.New(dispatch.Options{
		MaxConcurrent: cfg.MaxConcurrent,
		Timeout:       cfg.RequestTimeout,
	})

	g, ctx := errgroup.WithContext(ctx)

	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metricsMux(m, st),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("metrics listening", "addr", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		// Leaving the loop for any reason stops the metrics server too.
		defer stop()
		logger.Info("bot started", "username", tg.Username(), "store", cfg.StoreDriver)

		updates := tg.Updates(telegram.UpdatesOptions{
			Timeout: 30 * time.Second,
		})
		defer tg.StopUpdates()

		for {
			select {
			case <-ctx.Done():
				logger.Info("shutting down")
				dispatcher.Wait()
				return nil
			case update, ok := <-updates:
				if !ok {
					logger.Info("updates channel closed")
					dispatcher.Wait()
					return nil
				}

				key, ok := handlers.UpdateKey(update)
				if !ok {
					continue
				}

				dispatcher.Submit(ctx, key, func(reqCtx context.Context) {
					if err := handler.HandleUpdate(reqCtx, update); err != nil && !errors.Is(err, context.Canceled) {
						m.HandlerFailure()
						logger.Error("handle update failed", "err", err, "update_id", update.UpdateID)
					}
				})
			}
		}
	})

	return g.Wait()
}

func metricsMux(m *metrics.Metrics, st store.Store) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := st.Ping(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func newLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}
