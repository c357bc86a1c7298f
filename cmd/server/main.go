package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/hrstack/queryintent/internal/config"
	"github.com/hrstack/queryintent/internal/db"
	"github.com/hrstack/queryintent/internal/export"
	"github.com/hrstack/queryintent/internal/ingestion"
	"github.com/hrstack/queryintent/internal/llm"
	"github.com/hrstack/queryintent/internal/logger"
	"github.com/hrstack/queryintent/internal/metadata"
	"github.com/hrstack/queryintent/internal/middleware"
	"github.com/hrstack/queryintent/internal/planner"
	"github.com/hrstack/queryintent/internal/repository"
	"github.com/hrstack/queryintent/internal/vector"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = appLog.Sync() }()

	extractor := metadata.NewExtractor(metadata.DefaultExtractorConfig())

	var (
		provider metadata.Provider
		lookup   metadata.EntityLookup
		mux      = http.NewServeMux()
	)

	if cfg.Planner.FixturePath != "" {
		// Fixture mode: serve the catalog from a YAML file, no database.
		static, err := metadata.LoadFixture(cfg.Planner.FixturePath, extractor)
		if err != nil {
			log.Fatalf("Failed to load fixture catalog: %v", err)
		}
		provider = static
		lookup = metadata.NewStaticLookup(nil)
		appLog.Info("using fixture catalog", "path", cfg.Planner.FixturePath)
	} else {
		conn, err := db.NewConnection(ctx, cfg.Database)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer conn.Close()

		if err := db.RunMigrations(ctx, conn.Pool, "./migrations"); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}

		provider = metadata.NewPostgresProvider(conn.Pool, extractor)
		lookup = metadata.NewPostgresLookup(conn.Pool)

		catalogRepo := repository.NewCatalogRepository(conn)
		ingestService := ingestion.NewService(catalogRepo)
		mux.Handle("/api/schema/import", ingestion.NewHTTPHandler(ingestService))

		employeeRepo := repository.NewEmployeeRepository(conn)
		employeeService := ingestion.NewEmployeeService(employeeRepo)
		mux.Handle("/api/employees/import", ingestion.NewEmployeeHTTPHandler(employeeService))
	}

	embedder := vector.NewOllamaEmbedder(cfg.Vector.OllamaEndpoint, cfg.Vector.EmbedModel)
	index, err := vector.NewSQLiteIndex(cfg.Vector.IndexPath, embedder)
	if err != nil {
		log.Fatalf("Failed to open vector index: %v", err)
	}
	defer func() { _ = index.Close() }()

	llmClient := llm.NewClient(cfg.LLM.BaseURL, cfg.LLM.Model, cfg.LLM.APIKey, cfg.LLM.Timeout)

	normalizerCfg := planner.DefaultNormalizerConfig()
	normalizerCfg.ConfidenceThreshold = cfg.Planner.ConfidenceThreshold
	trimmerCfg := planner.DefaultTrimmerConfig()
	trimmerCfg.MaxFields = cfg.Planner.MaxSchemaFields

	planService := planner.NewService(
		provider,
		index,
		llmClient,
		lookup,
		planner.WithLogger(appLog),
		planner.WithTopK(cfg.Vector.TopK),
		planner.WithNormalizerConfig(normalizerCfg),
		planner.WithTrimmerConfig(trimmerCfg),
	)

	admin := vector.NewAdminHandler(index, provider, cfg.Vector.TopK)
	exportService := export.NewService(provider)

	mux.Handle("/api/intent", planner.NewHTTPHandler(planService))
	mux.Handle("/api/embeddings/rebuild", admin.RebuildHandler())
	mux.Handle("/api/schema/search", admin.SearchHandler())
	mux.Handle("/api/schema/export", export.NewHTTPHandler(exportService))

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	handler := corsHandler.Handler(
		middleware.RequestIDMiddleware(
			middleware.LoggingMiddleware(appLog)(mux),
		),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // intent planning waits on the model
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		appLog.Info("starting server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	appLog.Info("server exited")
}
