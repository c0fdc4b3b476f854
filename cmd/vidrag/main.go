package main

import (
	"context"
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

	"github.com/vidrag/vidrag/internal/ai"
	"github.com/vidrag/vidrag/internal/config"
	"github.com/vidrag/vidrag/internal/embedcache"
	"github.com/vidrag/vidrag/internal/filestore"
	"github.com/vidrag/vidrag/internal/handler"
	"github.com/vidrag/vidrag/internal/job"
	"github.com/vidrag/vidrag/internal/kb"
	"github.com/vidrag/vidrag/internal/media"
	"github.com/vidrag/vidrag/internal/middleware"
	"github.com/vidrag/vidrag/internal/schedule"
	"github.com/vidrag/vidrag/internal/service"
	"github.com/vidrag/vidrag/internal/session"
	"github.com/vidrag/vidrag/internal/store"
	"github.com/vidrag/vidrag/internal/transcribe"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "vidrag",
		Short: "video transcript question answering server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run vidrag server",
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
			return runServer(cfg)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func buildGenerator(cfg *config.Config) (ai.IGenerator, error) {
	generators := make([]ai.GeneratorEntry, 0, len(cfg.AI.Generation))
	for _, pc := range cfg.AI.Generation {
		provider, err := ai.NewProvider(pc.Provider, pc.Data)
		if err != nil {
			return nil, fmt.Errorf("init generation provider %s: %w", pc.Provider, err)
		}
		generators = append(generators, ai.GeneratorEntry{
			Name:      pc.Provider + "/" + pc.Model,
			Generator: ai.NewGenerator(provider, pc.Model),
		})
	}
	return ai.NewGroupGenerator(generators), nil
}

func buildEmbedder(cfg *config.Config) (ai.IEmbedder, error) {
	embedders := make([]ai.EmbedderEntry, 0, len(cfg.AI.Embedding))
	for _, pc := range cfg.AI.Embedding {
		provider, err := ai.NewEmbedProvider(pc.Provider, pc.Data)
		if err != nil {
			return nil, fmt.Errorf("init embedding provider %s: %w", pc.Provider, err)
		}
		embedders = append(embedders, ai.EmbedderEntry{
			Name:     pc.Provider + "/" + pc.Model,
			Embedder: ai.NewEmbedder(provider, pc.Model),
		})
	}
	embedder := ai.NewGroupEmbedder(embedders)
	return embedcache.WrapLruCacheToEmbedder(
		embedder,
		cfg.EmbedCache.Size,
		time.Duration(cfg.EmbedCache.TTLSeconds)*time.Second,
	), nil
}

func runServer(cfg *config.Config) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("store", cfg.Store.Type),
		zap.String("file_store", cfg.FileStore.Type),
	)

	vecStore, err := store.New(cfg.Store.Type, cfg.Store.Data)
	if err != nil {
		return fmt.Errorf("init vector store: %w", err)
	}
	defer vecStore.Close()

	transcripts, err := filestore.New(cfg.FileStore.Type, cfg.FileStore.Data)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	fetcher, err := media.NewYtDlpFetcher(media.YtDlpConfig{
		Binary:      cfg.Media.Binary,
		AudioDir:    cfg.Media.AudioDir,
		MaxDuration: cfg.Media.MaxDuration,
	})
	if err != nil {
		return fmt.Errorf("init media fetcher: %w", err)
	}

	transcriber, err := transcribe.NewWhisperClient(transcribe.WhisperConfig{
		BaseURL: cfg.Transcriber.BaseURL,
		APIKey:  cfg.Transcriber.APIKey,
		Model:   cfg.Transcriber.Model,
		Timeout: cfg.Transcriber.Timeout,
	})
	if err != nil {
		return fmt.Errorf("init transcriber: %w", err)
	}

	generator, err := buildGenerator(cfg)
	if err != nil {
		return err
	}
	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}
	aiMgr := ai.NewManager(generator, embedder, ai.ManagerConfig{
		Timeout:         cfg.AI.Timeout,
		MaxContextChars: cfg.AI.MaxContextChars,
	})

	kbMgr := kb.NewManager(vecStore, embedder, kb.Options{
		ChunkSize:     cfg.Retrieval.ChunkSize,
		Overlap:       cfg.Retrieval.Overlap,
		MinChunkChars: cfg.Retrieval.MinChunkChars,
		TopK:          cfg.Retrieval.TopK,
	})
	sessions := session.NewManager(
		cfg.Session.MaxLibrary,
		cfg.Session.MaxChatHistory,
		cfg.Session.MaxSessions,
		time.Duration(cfg.Session.TTLSeconds)*time.Second,
		func(id string, sess *session.Session) {
			// reclaim the evicted session's collections off the hot path
			go func() {
				ctx := context.Background()
				for _, entry := range sess.Library() {
					if _, err := kbMgr.Drop(ctx, entry.Collection); err != nil {
						logutil.GetLogger(ctx).Warn("failed to drop collection of evicted session",
							zap.String("session_id", id), zap.String("collection", entry.Collection), zap.Error(err))
					}
				}
			}()
		},
	)
	videoService := service.NewVideoService(fetcher, transcriber, transcripts, kbMgr, aiMgr, sessions)

	deps := handler.RouterDeps{
		Videos:        handler.NewVideoHandler(videoService),
		Chat:          handler.NewChatHandler(videoService),
		ProcessWindow: 5 * time.Second,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	scheduler := schedule.NewCronScheduler()
	cleanup := job.NewAudioCleanupJob(cfg.Media.AudioDir, time.Duration(cfg.Cleanup.MaxAgeHours)*time.Hour)
	if err := scheduler.AddJob(cleanup, cfg.Cleanup.Cron); err != nil {
		return fmt.Errorf("schedule cleanup job: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
