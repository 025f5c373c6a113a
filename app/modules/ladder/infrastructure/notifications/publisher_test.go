package laddernotify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Black-And-White-Club/acerank/app/eventbus"
	ladderdomain "github.com/Black-And-White-Club/acerank/app/modules/ladder/domain"
	ladderevents "github.com/Black-And-White-Club/acerank/pkg/events/ladder"
	"github.com/Black-And-White-Club/acerank/pkg/observability/attr"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingPublisher struct{}

func (failingPublisher) Publish(string, ...*message.Message) error {
	return errors.New("nats unavailable")
}
func (failingPublisher) Close() error { return nil }

func TestPublisher_Notify(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := eventbus.NewInMemoryEventBus(logger)
	t.Cleanup(func() { _ = bus.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	recipient := uuid.New()
	sender := uuid.New()
	challengeID := uuid.New()
	sentAt := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	topic := eventbus.FormatPlayerScopedTopic(ladderevents.NotificationTopic("challenge_received"), recipient)
	require.Equal(t, "ladder.notification.challenge_received.v1."+recipient.String(), topic)

	messages, err := bus.Subscribe(ctx, topic)
	require.NoError(t, err)

	pub := NewPublisher(bus, logger)
	pub.now = func() time.Time { return sentAt }

	err = pub.Notify(attr.WithCorrelationID(ctx, "corr-42"), ladderdomain.Notification{
		Type:        ladderdomain.NotifyChallengeReceived,
		RecipientID: recipient,
		SenderID:    sender,
		Title:       "New challenge",
		Message:     "Caio challenged you",
		ReferenceID: challengeID,
		Data:        map[string]any{"challenger_ranking": 4},
	})
	require.NoError(t, err)

	select {
	case msg := <-messages:
		msg.Ack()
		assert.Equal(t, "challenge_received", msg.Metadata.Get("notification_type"))
		assert.Equal(t, recipient.String(), msg.Metadata.Get("recipient_id"))
		assert.Equal(t, "corr-42", middleware.MessageCorrelationID(msg))

		var got ladderevents.NotificationPayloadV1
		require.NoError(t, json.Unmarshal(msg.Payload, &got))
		assert.Equal(t, "challenge_received", got.Type)
		assert.Equal(t, recipient, got.RecipientID)
		require.NotNil(t, got.SenderID)
		assert.Equal(t, sender, *got.SenderID)
		require.NotNil(t, got.ReferenceID)
		assert.Equal(t, challengeID, *got.ReferenceID)
		assert.Equal(t, "Caio challenged you", got.Message)
		assert.EqualValues(t, 4, got.Data["challenger_ranking"])
		assert.True(t, sentAt.Equal(got.SentAt))
	case <-ctx.Done():
		t.Fatal("notification not delivered")
	}
}

func TestPublisher_NotifySystemEventOmitsSender(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := eventbus.NewInMemoryEventBus(logger)
	t.Cleanup(func() { _ = bus.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	recipient := uuid.New()
	messages, err := bus.Subscribe(ctx, eventbus.FormatPlayerScopedTopic(ladderevents.NotificationTopic("ranking_updated"), recipient))
	require.NoError(t, err)

	require.NoError(t, NewPublisher(bus, logger).Notify(ctx, ladderdomain.Notification{
		Type:        ladderdomain.NotifyRankingUpdated,
		RecipientID: recipient,
		Title:       "Ranking updated",
	}))

	select {
	case msg := <-messages:
		msg.Ack()
		var raw map[string]any
		require.NoError(t, json.Unmarshal(msg.Payload, &raw))
		assert.NotContains(t, raw, "sender_id")
		assert.NotContains(t, raw, "reference_id")
	case <-ctx.Done():
		t.Fatal("notification not delivered")
	}
}

func TestPublisher_NotifyErrors(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("missing recipient", func(t *testing.T) {
		err := NewPublisher(failingPublisher{}, logger).Notify(context.Background(), ladderdomain.Notification{
			Type: ladderdomain.NotifyPointsChanged,
		})
		assert.ErrorContains(t, err, "has no recipient")
	})

	t.Run("publisher failure", func(t *testing.T) {
		err := NewPublisher(failingPublisher{}, logger).Notify(context.Background(), ladderdomain.Notification{
			Type:        ladderdomain.NotifyPointsChanged,
			RecipientID: uuid.New(),
		})
		assert.ErrorContains(t, err, "publish points_changed notification: nats unavailable")
	})
}
