package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"photofeed/api/middleware"
	"photofeed/api/routes"
	"photofeed/config"
	"photofeed/db"
	"photofeed/logs"
	"photofeed/services"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "etc/app.yaml", "Path to the configuration file")
	flag.Parse()

	err := config.LoadConfig(configPath)
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	conf := config.AppConfig
	logs.Setup(conf.Logs.Level, conf.Logs.Format)
	if conf.Auth.JWTSecret == "" {
		log.Fatal("auth.jwt_secret (or JWT_SECRET) must be set")
	}

	if err = db.ConnectDB(); err != nil {
		panic("Failed to connect to the database: " + err.Error())
	}

	// Redis и RabbitMQ не обязательны: без них счетчики считаются по базе, события не публикуются
	if err = services.InitRedis(); err != nil {
		log.WithError(err).Warn("redis unavailable, graph counters are not cached")
	}
	defer services.CloseRedis()

	if conf.RabbitMQ.URL != "" {
		publisher, err := services.InitRabbitMQ(conf.RabbitMQ.URL, conf.RabbitMQ.Exchange)
		if err != nil {
			log.WithError(err).Warn("rabbitmq unavailable, domain events are dropped")
		} else {
			defer publisher.Close()
		}
	}

	reconciler, err := services.StartCounterReconciler(conf.Reconcile.Schedule)
	if err != nil {
		log.WithError(err).Fatal("invalid reconcile schedule")
	}
	if reconciler != nil {
		defer reconciler.Stop()
	}

	if conf.Logs.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.PrometheusMiddleware("photofeed"))

	stop := make(chan struct{})
	limiter := middleware.NewRateLimiter(conf.RateLimit.RPS, conf.RateLimit.Burst)
	limiter.StartCleanup(time.Minute, stop)
	defer close(stop)

	routes.PublicApi(router, middleware.NewJWTAuthenticator(conf.Auth.JWTSecret, conf.Auth.Issuer), limiter)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", conf.Backend.Host, conf.Backend.Port),
		Handler: router,
	}
	go func() {
		log.WithField("addr", srv.Addr).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}
}
