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

	"github.com/common-nighthawk/go-figure"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/lingoleap/api/internal/app"
	"github.com/lingoleap/api/internal/config"
	"github.com/lingoleap/api/internal/logging"
	"github.com/lingoleap/api/internal/scheduler"
	"github.com/lingoleap/api/internal/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load .env file if exists
	_ = godotenv.Load()

	cfg := config.Load()
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	log, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile, Production: cfg.IsProduction()})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	printStartUpBanner(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("startup failed", zap.Error(err))
	}
	defer a.Close()

	server.RecordMetrics(a.Bus)

	sched := scheduler.New(a.DB, a.Words, scheduler.Config{
		DailyWordCron: cfg.DailyWordCron,
		Languages:     cfg.DailyWordLanguages,
		Location:      cfg.Location(),
	}, log)
	if err := sched.Start(); err != nil {
		log.Error("scheduler disabled", zap.Error(err))
		sched = nil
	} else {
		defer sched.Stop()
	}

	router := server.NewRouter(server.Deps{
		Config:    cfg,
		DB:        a.DB,
		Cache:     a.Cache,
		Limiter:   a.Limiter,
		Tutor:     a.Tutor,
		Bus:       a.Bus,
		Tracker:   a.Tracker,
		Words:     a.Words,
		Board:     a.Board,
		Scheduler: sched,
		Google:    a.Google,
		Log:       log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("api server starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			log.Error("server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}

func printStartUpBanner(cfg *config.Config) {
	figure.NewFigure("LINGOLEAP", "", true).Print()
	fmt.Println("======================================================")
	fmt.Printf("LingoLeap API (%s) on :%s, llm=%s\n\n", cfg.Env, cfg.Port, cfg.LLMProvider)
}
