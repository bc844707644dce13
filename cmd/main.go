package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wb-go/wbf/config"
	"go.uber.org/zap"

	"github.com/iffydopsqueen/backend-blog-project/internal/repository"
	"github.com/iffydopsqueen/backend-blog-project/internal/router"
	"github.com/iffydopsqueen/backend-blog-project/internal/router/handlers"
	"github.com/iffydopsqueen/backend-blog-project/internal/service"
	"github.com/iffydopsqueen/backend-blog-project/pkg/logger"
)

func main() {
	cfg := config.New()
	_ = cfg.LoadConfigFiles("./config/config.yaml")
	log, err := logger.NewLogger(cfg.GetString("log_level"))
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := repository.NewRepository(cfg.GetString("master_dsn"), cfg.GetStringSlice("slave_dsns"), log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	engine := service.NewService(repo.Comments, repo.Blogs, repo.Notifications, log)
	commentHandlers := handlers.NewCommentHandler(engine)
	rout := router.NewRouter(cfg.GetString("log_level"), commentHandlers, log)

	reconcileInterval := cfg.GetInt("reconcile_interval_sec")
	if reconcileInterval > 0 {
		go engine.RunReconciler(ctx, time.Duration(reconcileInterval)*time.Second)
	}

	srv := &http.Server{
		Addr:    cfg.GetString("addr"),
		Handler: rout.GetEngine(),
	}

	go func() {
		log.Info("Starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to listen and serve", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shut down server gracefully", zap.Error(err))
	}
}
