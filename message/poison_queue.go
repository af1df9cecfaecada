package message

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/redis/go-redis/v9"
)

type PoisonedMessage struct {
	StreamID string
	UUID     string
	Topic    string
	Handler  string
	Reason   string

	msg *message.Message
}

// PoisonQueue lets an operator inspect the messages that handlers gave up on,
// drop them or send them back to their topic.
type PoisonQueue struct {
	rdb         redis.Cmdable
	publisher   message.Publisher
	unmarshaler redisstream.DefaultMarshallerUnmarshaller
}

func NewPoisonQueue(rdb redis.Cmdable, publisher message.Publisher) PoisonQueue {
	if rdb == nil {
		panic("missing redis client")
	}
	if publisher == nil {
		panic("missing publisher")
	}

	return PoisonQueue{
		rdb:       rdb,
		publisher: publisher,
	}
}

func (q PoisonQueue) Preview(ctx context.Context) ([]PoisonedMessage, error) {
	entries, err := q.rdb.XRange(ctx, PoisonQueueTopic, "-", "+").Result()
	if err != nil {
		return nil, fmt.Errorf("could not read poison queue: %w", err)
	}

	messages := make([]PoisonedMessage, 0, len(entries))
	for _, entry := range entries {
		msg, err := q.unmarshaler.Unmarshal(entry.Values)
		if err != nil {
			return nil, fmt.Errorf("could not unmarshal %s: %w", entry.ID, err)
		}

		messages = append(messages, PoisonedMessage{
			StreamID: entry.ID,
			UUID:     msg.UUID,
			Topic:    msg.Metadata.Get(middleware.PoisonedTopicKey),
			Handler:  msg.Metadata.Get(middleware.PoisonedHandlerKey),
			Reason:   msg.Metadata.Get(middleware.ReasonForPoisonedKey),
			msg:      msg,
		})
	}

	return messages, nil
}

func (q PoisonQueue) Remove(ctx context.Context, messageUUID string) error {
	poisoned, err := q.find(ctx, messageUUID)
	if err != nil {
		return err
	}

	return q.delete(ctx, poisoned)
}

// Requeue publishes the message back to the topic it failed on. Handlers of
// that topic see it again, so they have to be idempotent.
func (q PoisonQueue) Requeue(ctx context.Context, messageUUID string) error {
	poisoned, err := q.find(ctx, messageUUID)
	if err != nil {
		return err
	}
	if poisoned.Topic == "" {
		return fmt.Errorf("message %s has no original topic", messageUUID)
	}

	msg := message.NewMessage(poisoned.msg.UUID, poisoned.msg.Payload)
	for k, v := range poisoned.msg.Metadata {
		switch k {
		case middleware.PoisonedTopicKey, middleware.PoisonedHandlerKey, middleware.PoisonedSubscriberKey, middleware.ReasonForPoisonedKey:
			continue
		}
		msg.Metadata.Set(k, v)
	}

	if err := q.publisher.Publish(poisoned.Topic, msg); err != nil {
		return fmt.Errorf("could not requeue %s: %w", messageUUID, err)
	}

	return q.delete(ctx, poisoned)
}

func (q PoisonQueue) find(ctx context.Context, messageUUID string) (PoisonedMessage, error) {
	messages, err := q.Preview(ctx)
	if err != nil {
		return PoisonedMessage{}, err
	}

	for _, m := range messages {
		if m.UUID == messageUUID {
			return m, nil
		}
	}

	return PoisonedMessage{}, fmt.Errorf("message %s not found in poison queue", messageUUID)
}

func (q PoisonQueue) delete(ctx context.Context, poisoned PoisonedMessage) error {
	if err := q.rdb.XDel(ctx, PoisonQueueTopic, poisoned.StreamID).Err(); err != nil {
		return fmt.Errorf("could not remove %s: %w", poisoned.UUID, err)
	}
	return nil
}
