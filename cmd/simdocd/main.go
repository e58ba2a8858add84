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
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/simdoc/internal/config"
	dbRedis "github.com/kailas-cloud/simdoc/internal/db/redis"
	"github.com/kailas-cloud/simdoc/internal/domain/measure"
	"github.com/kailas-cloud/simdoc/internal/domain/shingle"
	"github.com/kailas-cloud/simdoc/internal/domain/tfidf"
	logpkg "github.com/kailas-cloud/simdoc/internal/logger"
	"github.com/kailas-cloud/simdoc/internal/metrics"
	runrepo "github.com/kailas-cloud/simdoc/internal/repository/run"
	chiTransport "github.com/kailas-cloud/simdoc/internal/transport/chi"
	healthuc "github.com/kailas-cloud/simdoc/internal/usecase/health"
	runuc "github.com/kailas-cloud/simdoc/internal/usecase/run"
	"github.com/kailas-cloud/simdoc/internal/usecase/simsearch"
	"github.com/kailas-cloud/simdoc/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting simdoc API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	// Check search defaults before accepting traffic
	defaults := searchDefaults(cfg.Search)
	for _, m := range []measure.Measure{measure.Jaccard, measure.Cosine} {
		if _, err := simsearch.New(m, defaults, nil); err != nil {
			logger.Fatal("Invalid search defaults", zap.String("measure", string(m)), zap.Error(err))
		}
	}

	// Redis and Valkey share the protocol subset used for runs
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:      cfg.Database.Addrs,
		Password:   cfg.Database.Password,
		Standalone: cfg.Database.Standalone,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterHTTPMetrics()
	metrics.RegisterSearchMetrics()

	repo := runrepo.New(store, cfg.Storage.KeyPrefix, time.Duration(cfg.Storage.ResultTTLSec)*time.Second)
	runSvc := runuc.New(repo, runuc.Config{
		Defaults:        defaults,
		MaxDocuments:    cfg.Search.MaxDocuments,
		MaxBits:         cfg.Search.MaxBits,
		MaxRounds:       cfg.Search.MaxRounds,
		MaxWindow:       cfg.Search.MaxWindow,
		DefaultPageSize: cfg.Search.DefaultPageSize,
		MaxPageSize:     cfg.Search.MaxPageSize,
	})
	healthSvc := healthuc.New(store)

	server := chiTransport.NewServer(runSvc, healthSvc, logger).WithMaxBodyBytes(cfg.HTTP.MaxBodyBytes)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	chiTransport.Handler(server, chiTransport.RouterOptions{
		BaseRouter:       r,
		ErrorHandlerFunc: chiTransport.ParamErrorHandler,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// searchDefaults converts the search config section into searcher options.
func searchDefaults(c config.SearchConfig) simsearch.Options {
	delim, _ := utf8.DecodeRuneInString(c.Delimiter)
	return simsearch.Options{
		Shingle:    shingle.Config{Mode: shingle.Mode(c.Mode), Size: c.Ngram, Delimiter: delim},
		Bits:       c.Bits,
		Threshold:  c.Threshold,
		Confidence: c.Confidence,
		Rounds:     c.Rounds,
		Window:     c.Window,
		Seed:       c.Seed,
		Workers:    c.Workers,
		TF:         tfidf.TF(c.TF),
		IDF:        tfidf.IDF(c.IDF),
	}
}
