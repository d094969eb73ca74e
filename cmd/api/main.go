package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"anoa.com/studentroster/internal/bootstrap"
	"anoa.com/studentroster/internal/config"
	searchService "anoa.com/studentroster/internal/modules/search/service"
	"anoa.com/studentroster/internal/server"
	"anoa.com/studentroster/pkg/database"
	"anoa.com/studentroster/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-multierror"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	log := logger.Setup(cfg.AppEnv, cfg.LogLevel)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.Database, cfg.LogLevel == "debug")
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}
	if err := bootstrap.Migrate(db); err != nil {
		log.WithError(err).Fatal("migration failed")
	}

	if cfg.SeedDemoUser {
		if err := bootstrap.SeedDemoUser(db); err != nil {
			log.WithError(err).Fatal("failed to seed demo user")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := database.ConnectRedis(ctx, cfg.RedisURL)

	var index searchService.StudentIndex
	if cfg.MeiliSearchHost != "" {
		host := cfg.MeiliSearchHost
		if !strings.HasPrefix(host, "http") {
			host = "http://" + host + ":7700"
		}
		meiliClient := meilisearch.New(host, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
		index = searchService.NewMeiliSearchService(meiliClient)
	} else {
		log.Warn("MEILISEARCH_HOST is not set, search falls back to the database")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.NewServer(db, redisClient, index, cfg).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server exited with error")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := shutdown(shutdownCtx, srv, db, redisClient); err != nil {
		log.WithError(err).Error("shutdown finished with errors")
		os.Exit(1)
	}
}

func shutdown(ctx context.Context, srv *http.Server, db *gorm.DB, redisClient *redis.Client) error {
	var result *multierror.Error

	if err := srv.Shutdown(ctx); err != nil {
		result = multierror.Append(result, err)
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}
