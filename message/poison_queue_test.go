package message

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// poisonedEntry builds the stream entry the way redis returns it, with string values.
func poisonedEntry(t *testing.T, streamID string, uuid string, topic string, reason string) redis.XMessage {
	t.Helper()

	msg := message.NewMessage(uuid, []byte(`{"payment_id":"tr_1"}`))
	msg.Metadata.Set("correlation_id", "corr-1")
	msg.Metadata.Set(middleware.PoisonedTopicKey, topic)
	msg.Metadata.Set(middleware.PoisonedHandlerKey, "DeliverTickets")
	msg.Metadata.Set(middleware.ReasonForPoisonedKey, reason)

	values, err := redisstream.DefaultMarshallerUnmarshaller{}.Marshal(PoisonQueueTopic, msg)
	require.NoError(t, err)

	for k, v := range values {
		if b, ok := v.([]byte); ok {
			values[k] = string(b)
		}
	}

	return redis.XMessage{ID: streamID, Values: values}
}

func TestPoisonQueue_Preview(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	mock.ExpectXRange(PoisonQueueTopic, "-", "+").SetVal([]redis.XMessage{
		poisonedEntry(t, "1-0", "msg-1", "events", "render failed"),
		poisonedEntry(t, "2-0", "msg-2", "commands.CancelOrderTickets_v1", "db down"),
	})

	messages, err := NewPoisonQueue(rdb, pubSub).Preview(context.Background())
	require.NoError(t, err)

	require.Len(t, messages, 2)
	assert.Equal(t, "msg-1", messages[0].UUID)
	assert.Equal(t, "events", messages[0].Topic)
	assert.Equal(t, "DeliverTickets", messages[0].Handler)
	assert.Equal(t, "render failed", messages[0].Reason)
	assert.Equal(t, "2-0", messages[1].StreamID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPoisonQueue_Remove(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	mock.ExpectXRange(PoisonQueueTopic, "-", "+").SetVal([]redis.XMessage{
		poisonedEntry(t, "1-0", "msg-1", "events", "render failed"),
	})
	mock.ExpectXDel(PoisonQueueTopic, "1-0").SetVal(1)

	require.NoError(t, NewPoisonQueue(rdb, pubSub).Remove(context.Background(), "msg-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPoisonQueue_Remove_unknown(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	mock.ExpectXRange(PoisonQueueTopic, "-", "+").SetVal([]redis.XMessage{})

	assert.Error(t, NewPoisonQueue(rdb, pubSub).Remove(context.Background(), "msg-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPoisonQueue_Requeue(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	pubSub := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, watermill.NopLogger{})
	defer pubSub.Close()

	requeued, err := pubSub.Subscribe(context.Background(), "events")
	require.NoError(t, err)

	mock.ExpectXRange(PoisonQueueTopic, "-", "+").SetVal([]redis.XMessage{
		poisonedEntry(t, "1-0", "msg-1", "events", "render failed"),
	})
	mock.ExpectXDel(PoisonQueueTopic, "1-0").SetVal(1)

	require.NoError(t, NewPoisonQueue(rdb, pubSub).Requeue(context.Background(), "msg-1"))

	select {
	case msg := <-requeued:
		msg.Ack()
		assert.Equal(t, "msg-1", msg.UUID)
		assert.Equal(t, "corr-1", msg.Metadata.Get("correlation_id"))
		assert.Empty(t, msg.Metadata.Get(middleware.ReasonForPoisonedKey))
	case <-time.After(time.Second):
		t.Fatal("message was not requeued")
	}

	assert.NoError(t, mock.ExpectationsWereMet())
}
