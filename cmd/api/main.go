package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"ticketing/internal/app"
	"ticketing/internal/config"
	"ticketing/internal/database"
	"ticketing/internal/gateway/khalti"
	"ticketing/internal/modules/checkin"
	"ticketing/internal/pkg/logging"
	"ticketing/internal/pkg/mq"
	"ticketing/internal/pkg/obs"
)

const serviceName = "ticketing-api"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("config")
	}
	log := logging.New(cfg.LogLevel)
	if cfg.IsProdLike() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := obs.InitTracer(ctx, serviceName, cfg.AppEnv, cfg.OTLPEndpoint)
	if err != nil {
		log.WithError(err).Fatal("init tracer")
	}

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.WithError(err).Fatal("db connect")
	}
	if err := database.Migrate(db); err != nil {
		log.WithError(err).Fatal("db migrate")
	}

	pub, err := mq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		log.WithError(err).Fatal("mq connect")
	}
	defer pub.Close()

	hub := checkin.NewHub()
	defer hub.Close()

	r := app.NewRouter(app.Deps{
		Config: cfg,
		DB:     db,
		Gateway: khalti.NewClient(khalti.Config{
			BaseURL:   cfg.Khalti.BaseURL,
			SecretKey: cfg.Khalti.SecretKey,
			Timeout:   cfg.Khalti.Timeout,
		}),
		Publisher: pub,
		Hub:       hub,
		Log:       log,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("http listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http shutdown")
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.WithError(err).Error("tracer shutdown")
	}
}
