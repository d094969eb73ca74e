package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"anoa.com/studentroster/internal/config"
	"anoa.com/studentroster/internal/roster/client"
	"anoa.com/studentroster/internal/web"
	"anoa.com/studentroster/internal/web/handler"
	"anoa.com/studentroster/internal/web/session"
	"anoa.com/studentroster/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
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

	api := client.New(cfg.Web.APIBaseURL, cfg.Web.APITimeout)
	sessions := session.NewManager(api, api.Students)

	app, err := web.NewServer(api, sessions, handler.CookieConfig{
		Name:   cfg.Web.SessionCookie,
		Secure: cfg.Web.CookieSecure,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to build web app")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Web.Port,
		Handler:           app.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{"addr": srv.Addr, "api": cfg.Web.APIBaseURL}).Info("web listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server exited with error")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var result *multierror.Error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		result = multierror.Append(result, err)
	}
	// open sessions are signed out so their tokens do not outlive the process
	if err := app.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := result.ErrorOrNil(); err != nil {
		log.WithError(err).Error("shutdown finished with errors")
		os.Exit(1)
	}
}
