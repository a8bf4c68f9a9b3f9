package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/gurukul-ai/backend/internal/config"
	"github.com/gurukul-ai/backend/internal/handler"
	"github.com/gurukul-ai/backend/internal/service/ai"
	authservice "github.com/gurukul-ai/backend/internal/service/auth"
	chatservice "github.com/gurukul-ai/backend/internal/service/chat"
	roadmapservice "github.com/gurukul-ai/backend/internal/service/roadmap"
	streakservice "github.com/gurukul-ai/backend/internal/service/streak"
	taskservice "github.com/gurukul-ai/backend/internal/service/task"
	tutorservice "github.com/gurukul-ai/backend/internal/service/tutor"
	"github.com/gurukul-ai/backend/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	repo, err := store.NewSQLite(cfg.Database.Path)
	if err != nil {
		logger.Fatal("failed to open database", zap.String("path", cfg.Database.Path), zap.Error(err))
	}
	defer repo.Close()

	gateway, err := newGateway(ctx, cfg.AI)
	if err != nil {
		logger.Fatal("failed to initialize model gateway", zap.String("provider", string(cfg.AI.Provider)), zap.Error(err))
	}
	logger.Info("model gateway ready", zap.String("provider", string(cfg.AI.Provider)))

	orch, err := ai.NewOrchestrator(repo, gateway, logger, ai.WithTurnTimeout(cfg.AI.RequestTimeout))
	if err != nil {
		logger.Fatal("failed to build orchestrator", zap.Error(err))
	}

	authSvc := authservice.NewService(repo, cfg.Auth.JWTSecret)
	tutorSvc := tutorservice.NewService(repo)
	chatSvc := chatservice.NewService(repo)
	roadmapSvc := roadmapservice.NewService(repo, gateway, logger)
	streakSvc := streakservice.NewService(repo, logger)
	taskSvc := taskservice.NewService(repo, streakSvc, logger)

	if err := streakSvc.StartScheduler(cfg.Streak.ResetCron); err != nil {
		logger.Fatal("failed to start streak scheduler", zap.Error(err))
	}
	defer streakSvc.Stop()

	router := handler.NewRouter(handler.Deps{
		Repo:           repo,
		AuthSvc:        authSvc,
		TutorSvc:       tutorSvc,
		TaskSvc:        taskSvc,
		RoadmapSvc:     roadmapSvc,
		ChatSvc:        chatSvc,
		Orchestrator:   orch,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Log:            logger,
	})

	startServer(ctx, cfg.Server, router, logger)
}

// newGateway selects the model backend from configuration.
func newGateway(ctx context.Context, cfg config.AIConfig) (ai.Gateway, error) {
	if cfg.Provider == config.ProviderArk {
		temperature := float32(cfg.Temperature)
		maxTokens := cfg.MaxTokens

		chatModel, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
			BaseURL:     cfg.ArkBaseURL,
			Region:      cfg.ArkRegion,
			APIKey:      cfg.ArkAPIKey,
			AccessKey:   cfg.ArkAccessKey,
			SecretKey:   cfg.ArkSecretKey,
			Model:       cfg.ArkModel,
			MaxTokens:   &maxTokens,
			Temperature: &temperature,
		})
		if err != nil {
			return nil, err
		}
		return ai.NewArkGateway(chatModel), nil
	}

	return ai.NewGeminiGateway(ctx, ai.GeminiConfig{
		APIKey:      cfg.GoogleAPIKey,
		Model:       cfg.GeminiModel,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger *zap.Logger) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("gurukul backend listening", zap.String("addr", serverCfg.Addr))
	if err := runServer(ctx, srv); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
