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

	"shunyata/internal/agent/controller"
	"shunyata/internal/agent/jobs"
	"shunyata/internal/agent/lockdown"
	"shunyata/internal/agent/serverclient"
	"shunyata/internal/agent/service"
	"shunyata/internal/common/middleware"
	"shunyata/internal/judge/pipeline"
	"shunyata/internal/judge/sandbox/engine"
	"shunyata/internal/judge/sandbox/profile"
	"shunyata/internal/judge/sandbox/runner"
	"shunyata/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultConfigPath = "configs/agent.yaml"

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

	ld := lockdown.NewController(appCfg.Lockdown)

	eng := engine.New(engine.Config{})
	pl, err := pipeline.New(pipeline.Config{
		Runner:         runner.NewRunner(eng),
		Languages:      profile.DefaultRegistry(),
		WorkRoot:       appCfg.Run.WorkRoot,
		Guard:          ld,
		CompileTimeout: appCfg.Run.CompileTimeout,
	})
	if err != nil {
		logger.Error(context.Background(), "init pipeline failed", zap.Error(err))
		return
	}

	server := serverclient.New(appCfg.JudgeServer.URL, appCfg.JudgeServer.Timeout)
	agentSvc := service.NewAgentService(server, pl, appCfg.Run.ProblemTTL)

	rootCtx, stopJobs := context.WithCancel(context.Background())
	defer stopJobs()
	tracker := jobs.NewTracker(rootCtx, agentSvc, appCfg.Run.JobRetention)

	httpServer := buildHTTPServer(appCfg.Server, agentSvc, tracker, ld)
	listener, err := net.Listen("tcp", appCfg.Server.Addr)
	if err != nil {
		logger.Error(context.Background(), "init http listener failed", zap.Error(err))
		return
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(context.Background(), "agent started",
			zap.String("addr", appCfg.Server.Addr),
			zap.String("judge_server", appCfg.JudgeServer.URL))
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

	// Never leave firewall rules behind on exit.
	ld.EmergencyCleanup(context.Background())
}

func buildHTTPServer(cfg ServerConfig, agentSvc *service.AgentService, tracker *jobs.Tracker, ld *lockdown.Controller) *http.Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger())

	controller.NewAgentController(agentSvc, tracker, ld).RegisterRoutes(router)

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}
