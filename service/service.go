package service

import (
	"context"
	"errors"
	"fmt"
	stdHttp "net/http"

	"boxoffice/artifact"
	"boxoffice/config"
	"boxoffice/db"
	boxofficeHttp "boxoffice/http"
	"boxoffice/message"
	"boxoffice/message/command"
	"boxoffice/message/event"
	"boxoffice/message/outbox"
	"boxoffice/orders"
	"boxoffice/scheduler"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	watermillMessage "github.com/ThreeDotsLabs/watermill/message"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

type Service struct {
	httpAddr string

	watermillRouter *watermillMessage.Router
	echoRouter      *echo.Echo
	scheduler       *scheduler.Scheduler
}

// Clients are the external collaborators; tests swap them for mocks.
type Clients struct {
	Payments orders.PaymentGateway
	Mailer   event.Mailer
}

func New(
	cfg config.Config,
	conn db.DB,
	redisClient *redis.Client,
	clients Clients,
) (Service, error) {
	watermillLogger := log.NewWatermill(log.FromContext(context.Background()))

	redisPublisher, err := message.NewRedisPublisher(redisClient, watermillLogger)
	if err != nil {
		return Service{}, fmt.Errorf("could not create redis publisher: %w", err)
	}

	eventBus := event.NewBus(redisPublisher)
	commandBus := command.NewBus(redisPublisher)

	eventRepo := db.NewEventRepository(&conn)
	tierRepo := db.NewTierRepository(&conn)
	orderRepo := db.NewOrderRepository(&conn)
	ticketRepo := db.NewTicketRepo(&conn)
	reconciliationRepo := db.NewReconciliationRepository(&conn)
	auditLogRepo := db.NewAuditLogRepository(&conn)

	renderer, err := artifact.NewRenderer(cfg.PublicBaseURL)
	if err != nil {
		return Service{}, err
	}

	orderService := orders.NewService(
		orders.Config{
			TaxRate:     cfg.TaxRate,
			Currency:    cfg.Currency,
			RedirectURL: cfg.RedirectURL(),
			WebhookURL:  cfg.WebhookURL(),
			OrderTTL:    cfg.OrderTTL,
		},
		tierRepo,
		orderRepo,
		ticketRepo,
		reconciliationRepo,
		clients.Payments,
		orders.NewRedisLocker(redisClient, cfg.LockTTL),
	)

	eventsHandler := event.NewHandler(
		ticketRepo,
		renderer,
		clients.Mailer,
		eventBus,
		commandBus,
	)
	commandsHandler := command.NewHandler(ticketRepo)

	outboxSubscriber, err := outbox.NewSubscriber(conn.Conn, watermillLogger)
	if err != nil {
		return Service{}, err
	}
	auditLogSubscriber, err := message.NewRedisSubscriber(redisClient, "svc-boxoffice.audit_log", watermillLogger)
	if err != nil {
		return Service{}, fmt.Errorf("could not create audit log subscriber: %w", err)
	}

	watermillRouter, err := message.NewWatermillRouter(
		message.RouterDeps{
			OutboxSubscriber:       outboxSubscriber,
			AuditLogSubscriber:     auditLogSubscriber,
			Publisher:              redisPublisher,
			EventProcessorConfig:   event.NewProcessorConfig(redisClient, watermillLogger),
			CommandProcessorConfig: command.NewProcessorConfig(redisClient, watermillLogger),
			EventHandler:           eventsHandler,
			CommandHandler:         commandsHandler,
			AuditLog:               auditLogRepo,
		},
		watermillLogger,
	)
	if err != nil {
		return Service{}, fmt.Errorf("could not create watermill router: %w", err)
	}

	echoRouter := boxofficeHttp.NewHttpRouter(boxofficeHttp.RouterDeps{
		Orders:          orderService,
		Events:          eventRepo,
		Tiers:           tierRepo,
		OrderRepo:       orderRepo,
		Tickets:         ticketRepo,
		Reconciliations: reconciliationRepo,
		CommandBus:      commandBus,
		Admin: boxofficeHttp.AdminCredentials{
			User:     cfg.AdminUser,
			Password: cfg.AdminPassword,
		},
	})

	return Service{
		httpAddr:        cfg.HTTPAddr,
		watermillRouter: watermillRouter,
		echoRouter:      echoRouter,
		scheduler:       scheduler.New(orderService, cfg.ExpiryInterval),
	}, nil
}

func (s Service) Run(
	ctx context.Context,
) error {
	errgrp, ctx := errgroup.WithContext(ctx)

	errgrp.Go(func() error {
		return s.watermillRouter.Run(ctx)
	})

	errgrp.Go(func() error {
		// we don't want to start HTTP server before Watermill router (so service won't be healthy before it's ready)
		<-s.watermillRouter.Running()

		err := s.echoRouter.Start(s.httpAddr)
		if err != nil && !errors.Is(err, stdHttp.ErrServerClosed) {
			return err
		}

		return nil
	})

	errgrp.Go(func() error {
		return s.scheduler.Run(ctx)
	})

	errgrp.Go(func() error {
		<-ctx.Done()
		return s.echoRouter.Shutdown(context.Background())
	})

	return errgrp.Wait()
}
