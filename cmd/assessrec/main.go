package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/skillfit/assessrec/internal/config"
	"github.com/skillfit/assessrec/internal/db"
	dbRedis "github.com/skillfit/assessrec/internal/db/redis"
	"github.com/skillfit/assessrec/internal/domain"
	logpkg "github.com/skillfit/assessrec/internal/logger"
	"github.com/skillfit/assessrec/internal/metrics"
	catalogrepo "github.com/skillfit/assessrec/internal/repository/catalog"
	"github.com/skillfit/assessrec/internal/repository/embcache"
	"github.com/skillfit/assessrec/internal/repository/lexical"
	"github.com/skillfit/assessrec/internal/repository/vecindex"
	chiTransport "github.com/skillfit/assessrec/internal/transport/chi"
	geminiRerank "github.com/skillfit/assessrec/internal/transport/gemini"
	openaiEmb "github.com/skillfit/assessrec/internal/transport/openai"
	embeddinguc "github.com/skillfit/assessrec/internal/usecase/embedding"
	healthuc "github.com/skillfit/assessrec/internal/usecase/health"
	recommenduc "github.com/skillfit/assessrec/internal/usecase/recommend"
	"github.com/skillfit/assessrec/internal/version"
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

	logger.Info("Starting assessrec API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("catalog", cfg.Catalog.Path),
	)

	// Catalog load failure is the one fatal startup condition: without records
	// there is nothing to recommend.
	records, err := catalogrepo.Load(cfg.Catalog.Path)
	if err != nil {
		logger.Fatal("Failed to load catalog", zap.Error(err))
	}
	logger.Info("Catalog loaded", zap.Int("assessments", len(records)))

	// The lexical index is pure and cannot fail; it backs the availability
	// guarantee for the whole service.
	lexIndex := lexical.Build(records)

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRerankMetrics()

	ctx := context.Background()

	// Optional Redis embedding cache
	var store db.Store
	if len(cfg.Cache.Addrs) > 0 {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Warn("Failed to create embedding cache store, continuing without cache", zap.Error(err))
			store = nil
		} else if err := store.WaitForReady(ctx, 10*time.Second); err != nil {
			logger.Warn("Embedding cache not ready, continuing without cache", zap.Error(err))
			store.Close()
			store = nil
		}
	}
	if store != nil {
		defer store.Close()
	}

	opts := []recommenduc.Option{
		recommenduc.WithLimits(cfg.Pipeline.TopK, cfg.Pipeline.ResultCount),
		recommenduc.WithTimeouts(
			time.Duration(cfg.Embedding.TimeoutSec)*time.Second,
			time.Duration(cfg.Rerank.TimeoutSec)*time.Second,
		),
	}

	// Vector index build. Not accepting traffic before this completes keeps
	// the semantic/lexical decision fixed per process; if the build fails the
	// service starts in lexical-only mode instead of refusing to start.
	vectorReady := false
	if cfg.Embedding.APIKey != "" {
		embedder := buildEmbedder(cfg.Embedding, store, logger)

		buildCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		vecIndex, buildErr := vecindex.Build(buildCtx, records, embedder, logger)
		cancel()

		if buildErr != nil {
			logger.Warn("Vector index build failed, serving lexical-only results", zap.Error(buildErr))
		} else {
			opts = append(opts, recommenduc.WithVectorIndex(embedder, vecIndex))
			vectorReady = true
		}
	} else {
		logger.Warn("No embedding provider configured, serving lexical-only results")
	}

	// Optional Gemini reranker
	rerankerReady := false
	if cfg.Rerank.APIKey != "" {
		reranker, rerankErr := geminiRerank.NewReranker(ctx, &geminiRerank.Config{
			APIKey: cfg.Rerank.APIKey,
			Model:  cfg.Rerank.Model,
			Logger: logger,
		})
		if rerankErr != nil {
			logger.Warn("Failed to create reranker, serving retrieval order", zap.Error(rerankErr))
		} else {
			opts = append(opts, recommenduc.WithReranker(reranker))
			rerankerReady = true
		}
	}

	recommendSvc := recommenduc.New(lexIndex, opts...)
	healthSvc := healthuc.New(len(records), vectorReady, rerankerReady)

	server := chiTransport.NewServer(recommendSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instrumented.
func buildEmbedder(cfg config.EmbeddingConfig, store db.Store, logger *zap.Logger) domain.Embedder {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   "openai",
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if store != nil {
		embedder = embcache.New(base, store, metrics.EmbeddingCacheTotal, logger)
	}

	return embeddinguc.NewInstrumentedEmbedder(embedder, "openai", cfg.Model, logger)
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line -- one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
