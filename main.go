package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"boxoffice/api"
	"boxoffice/config"
	"boxoffice/db"
	"boxoffice/message"
	"boxoffice/service"
	observability "boxoffice/trace"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

func main() {
	log.Init(logrus.InfoLevel)

	cfg, err := config.Load(viper.New())
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}
	logrus.SetLevel(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.JaegerEndpoint != "" {
		traceProvider, err := observability.ConfigureTraceProvider(cfg.JaegerEndpoint)
		if err != nil {
			logrus.WithError(err).Fatal("Could not configure tracing")
		}
		defer func() {
			if err := traceProvider.Shutdown(context.Background()); err != nil {
				logrus.WithError(err).Error("Could not shut down trace provider")
			}
		}()
	}

	conn, err := db.NewDBConn(cfg.PostgresURL)
	if err != nil {
		logrus.WithError(err).Fatal("Could not connect to postgres")
	}
	defer conn.Close()
	conn.MigrateSchema()

	redisClient := message.NewRedisClient(cfg.RedisAddr)
	defer redisClient.Close()

	mailer, err := api.NewMailClient(cfg.SMTPAddr, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
	if err != nil {
		logrus.WithError(err).Fatal("Could not create mail client")
	}

	svc, err := service.New(
		cfg,
		conn,
		redisClient,
		service.Clients{
			Payments: api.NewPaymentsClient(cfg.GatewayAddr, cfg.GatewayAPIKey),
			Mailer:   mailer,
		},
	)
	if err != nil {
		logrus.WithError(err).Fatal("Could not create service")
	}

	if err := svc.Run(ctx); err != nil {
		logrus.WithError(err).Error("Service stopped")
		os.Exit(1)
	}
}
