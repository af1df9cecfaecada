package event

import (
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Topic is shared by all events; every handler reads it in its own consumer group.
const Topic = "events"

func NewBus(pub message.Publisher) *cqrs.EventBus {
	eventBus, err := cqrs.NewEventBusWithConfig(
		pub,
		cqrs.EventBusConfig{
			GeneratePublishTopic: func(params cqrs.GenerateEventPublishTopicParams) (string, error) {
				return Topic, nil
			},
			Marshaler: Marshaler,
		},
	)
	if err != nil {
		panic(err)
	}

	return eventBus
}
