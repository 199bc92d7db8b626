package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"shunyata/internal/common/middleware"
	"shunyata/internal/judge/pipeline"
	"shunyata/internal/judge/repository"
	"shunyata/internal/judge/sandbox/engine"
	"shunyata/internal/judge/sandbox/profile"
	"shunyata/internal/judge/sandbox/runner"
	"shunyata/internal/judge/service"
	"shunyata/internal/plagiarism"
	"shunyata/internal/scoreboard"
	"shunyata/internal/server/controller"
	"shunyata/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultConfigPath = "configs/judge_server.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	flag.Parse()

	appCfg, err := loadAppConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load app config failed: %v\n", err)
		return
	}

	if err := logger.Init(appCfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	problems, err := repository.LoadProblems(appCfg.Storage.ProblemsPath)
	if err != nil {
		logger.Error(context.Background(), "load problem set failed", zap.Error(err))
		return
	}
	submissions, err := repository.NewSubmissionStore(appCfg.Storage.SubmissionsDir)
	if err != nil {
		logger.Error(context.Background(), "init submission store failed", zap.Error(err))
		return
	}

	eng := engine.New(engine.Config{})
	pl, err := pipeline.New(pipeline.Config{
		Runner:         runner.NewRunner(eng),
		Languages:      profile.DefaultRegistry(),
		WorkRoot:       appCfg.Judge.WorkRoot,
		CompileTimeout: appCfg.Judge.CompileTimeout,
	})
	if err != nil {
		logger.Error(context.Background(), "init pipeline failed", zap.Error(err))
		return
	}

	detector := plagiarism.NewDetector(submissions, appCfg.Plagiarism.Threshold)
	board := scoreboard.NewManager(appCfg.Storage.ScoreboardPath)
	judgeSvc := service.NewJudgeService(problems, submissions, detector, pl, board)

	httpServer := buildHTTPServer(appCfg.Server, judgeSvc)
	listener, err := net.Listen("tcp", appCfg.Server.Addr)
	if err != nil {
		logger.Error(context.Background(), "init http listener failed", zap.Error(err))
		return
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(context.Background(), "judge server started", zap.String("addr", appCfg.Server.Addr))
		errCh <- httpServer.Serve(listener)
	}()

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(context.Background(), "http server stopped", zap.Error(err))
		}
	case <-shutdownCtx.Done():
		logger.Info(context.Background(), "shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error(context.Background(), "http server shutdown failed", zap.Error(err))
	}
}

func buildHTTPServer(cfg ServerConfig, judgeSvc *service.JudgeService) *http.Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger())

	controller.NewJudgeController(judgeSvc).RegisterRoutes(router)

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}
