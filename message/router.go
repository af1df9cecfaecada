package message

import (
	"fmt"

	"boxoffice/message/command"
	"boxoffice/message/event"
	"boxoffice/message/outbox"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
)

type RouterDeps struct {
	OutboxSubscriber       message.Subscriber
	AuditLogSubscriber     message.Subscriber
	Publisher              message.Publisher
	EventProcessorConfig   cqrs.EventProcessorConfig
	CommandProcessorConfig cqrs.CommandProcessorConfig
	EventHandler           event.Handler
	CommandHandler         command.Handler
	AuditLog               event.AuditLog
}

func NewWatermillRouter(deps RouterDeps, watermillLogger watermill.LoggerAdapter) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{}, watermillLogger)
	if err != nil {
		return nil, err
	}

	if err := useMiddlewares(router, deps.Publisher, watermillLogger); err != nil {
		return nil, err
	}

	if err := outbox.AddForwarder(deps.OutboxSubscriber, deps.Publisher, router, watermillLogger); err != nil {
		return nil, fmt.Errorf("could not create outbox forwarder: %w", err)
	}

	eventProcessor, err := cqrs.NewEventProcessorWithConfig(router, deps.EventProcessorConfig)
	if err != nil {
		return nil, err
	}

	err = eventProcessor.AddHandlers(
		cqrs.NewEventHandler(
			"DeliverTickets",
			deps.EventHandler.DeliverTickets,
		),
		cqrs.NewEventHandler(
			"AlertReconciliation",
			deps.EventHandler.AlertReconciliation,
		),
	)
	if err != nil {
		return nil, err
	}

	commandProcessor, err := cqrs.NewCommandProcessorWithConfig(router, deps.CommandProcessorConfig)
	if err != nil {
		return nil, err
	}

	err = commandProcessor.AddHandlers(
		cqrs.NewCommandHandler(
			"CancelOrderTickets",
			deps.CommandHandler.CancelOrderTickets,
		),
	)
	if err != nil {
		return nil, err
	}

	router.AddNoPublisherHandler(
		"StoreInAuditLog",
		event.Topic,
		deps.AuditLogSubscriber,
		event.NewAuditLogHandler(deps.AuditLog),
	)

	return router, nil
}
