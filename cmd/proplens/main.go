package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/proplens/proplens/internal/ai"
	"github.com/proplens/proplens/internal/config"
	"github.com/proplens/proplens/internal/db"
	"github.com/proplens/proplens/internal/embedcache"
	"github.com/proplens/proplens/internal/extract"
	"github.com/proplens/proplens/internal/filestore"
	"github.com/proplens/proplens/internal/handler"
	"github.com/proplens/proplens/internal/job"
	"github.com/proplens/proplens/internal/middleware"
	"github.com/proplens/proplens/internal/repo"
	"github.com/proplens/proplens/internal/schedule"
	"github.com/proplens/proplens/internal/service"
	"github.com/proplens/proplens/internal/vector"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "proplens",
		Short: "construction document extraction service",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run proplens server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			database, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(database, cfg.Extract.EmbedDim); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, database)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, database *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("provider", cfg.Extract.Provider),
		zap.String("file_store", cfg.FileStore.Type),
	)

	docRepo := repo.NewDocumentRepo(database)
	taskRepo := repo.NewTaskRepo(database)
	ruleRepo := repo.NewRuleRepo(database)
	cacheRepo := repo.NewEmbeddingCacheRepo(database)
	entitySink := repo.NewEntitySink(database, taskRepo, ruleRepo)

	aiProvider, err := ai.NewProvider(cfg.Extract.Provider, cfg.Extract.Data)
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}
	embedProvider, err := ai.NewEmbedProvider(cfg.Extract.EmbedProvider, cfg.Extract.EmbedData)
	if err != nil {
		return fmt.Errorf("init embed provider: %w", err)
	}
	generator := ai.NewGenerator(aiProvider, cfg.Extract.Model)
	embedder := ai.NewEmbedder(embedProvider, cfg.Extract.EmbedModel)
	embedder = embedcache.WrapDBCacheToEmbedder(embedder, cacheRepo)
	embedder = embedcache.WrapLruCacheToEmbedder(embedder, cfg.Extract.CacheSize, time.Duration(cfg.Extract.CacheTTLHours)*time.Hour)

	vectorStore := vector.NewChromaStore(cfg.Vector)

	pool, err := extract.NewPool(cfg.Extract.WorkerCount, cfg.Extract.RetryCount)
	if err != nil {
		return err
	}
	defer pool.Close()

	coordinator := extract.NewCoordinator(
		extract.NewModelClient(generator, time.Duration(cfg.Extract.PerCallTimeoutSeconds)*time.Second),
		pool,
		extract.NewCommitter(entitySink, vectorStore, embedder),
		cfg.Extract.MaxRowsPerChunk,
	)

	ingestService := service.NewIngestService(docRepo, coordinator)
	queryService := service.NewQueryService(taskRepo, ruleRepo)
	searchService := service.NewSearchService(embedder, vectorStore)
	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}
	fileService := service.NewFileService(store, docRepo)

	deps := handler.RouterDeps{
		Documents: handler.NewDocumentHandler(ingestService),
		Tasks:     handler.NewTaskHandler(queryService),
		Rules:     handler.NewRuleHandler(queryService),
		Search:    handler.NewSearchHandler(searchService),
		Files:     handler.NewFileHandler(fileService),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(nil),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewExtractPendingJob(ingestService, cfg.Jobs.BatchSize), cfg.Jobs.ExtractSpec); err != nil {
		return fmt.Errorf("schedule extract job: %w", err)
	}
	if err := scheduler.AddJob(job.NewEmbeddingCacheCleanupJob(cacheRepo, cfg.Extract.CacheKeepDays), cfg.Jobs.CleanupSpec); err != nil {
		return fmt.Errorf("schedule cleanup job: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
