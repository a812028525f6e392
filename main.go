package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stevemurr/movie-catalog/config"
	"github.com/stevemurr/movie-catalog/handler"
	"github.com/stevemurr/movie-catalog/logging"
	"github.com/stevemurr/movie-catalog/movie"
	"github.com/stevemurr/movie-catalog/seed"
	"github.com/stevemurr/movie-catalog/store"
)

func main() {
	envFile := flag.String("env", ".env", "optional dotenv file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, closeLog, err := logging.Setup("movie-catalog", cfg.Debug, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to set up logging: %v", err)
	}
	defer closeLog.Close()

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", slog.Any("error", err))
		closeLog.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	movies, err := loadSeed(ctx, cfg)
	if err != nil {
		return err
	}
	s := store.NewMemoryStore(movies)

	h := handler.New(s, handler.Options{
		Logger:         logger,
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimit:      cfg.RateLimit,
		RateLimitBurst: cfg.RateLimitBurst,
	})
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("movie catalog starting",
			slog.String("addr", cfg.Addr()),
			slog.String("seed", cfg.SeedBackend),
			slog.Int("movies", s.Len()),
		)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func loadSeed(ctx context.Context, cfg *config.Config) ([]movie.Movie, error) {
	src, err := seed.New(ctx, cfg.SeedBackend, seed.Options{
		Path:       cfg.SeedPath,
		DSN:        cfg.SeedDSN,
		Database:   cfg.SeedDatabase,
		Collection: cfg.SeedCollection,
	})
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return seed.Load(ctx, src)
}
