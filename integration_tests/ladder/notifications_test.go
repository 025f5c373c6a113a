package ladderintegrationtests

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Black-And-White-Club/acerank/app/eventbus"
	ladderdomain "github.com/Black-And-White-Club/acerank/app/modules/ladder/domain"
	laddernotify "github.com/Black-And-White-Club/acerank/app/modules/ladder/infrastructure/notifications"
	"github.com/Black-And-White-Club/acerank/integration_tests/testutils"
	ladderevents "github.com/Black-And-White-Club/acerank/pkg/events/ladder"
)

func TestNotificationPublisher_DeliversOverNATS(t *testing.T) {
	env := testutils.GetOrCreateTestEnv(t)
	ctx, cancel := context.WithTimeout(env.Ctx, 15*time.Second)
	defer cancel()

	recipient := uuid.New()
	topic := eventbus.FormatPlayerScopedTopic(ladderevents.NotificationTopic(string(ladderdomain.NotifyChallengeReceived)), recipient)

	messages, err := env.EventBus.Subscribe(ctx, topic)
	require.NoError(t, err)
	// Subscriber and publisher use separate connections; let the interest
	// reach the server first.
	time.Sleep(250 * time.Millisecond)

	publisher := laddernotify.NewPublisher(env.EventBus, env.Logger)
	challengeID := uuid.New()
	require.NoError(t, publisher.Notify(ctx, ladderdomain.Notification{
		Type:        ladderdomain.NotifyChallengeReceived,
		RecipientID: recipient,
		SenderID:    uuid.New(),
		Title:       "New challenge",
		Message:     "You have been challenged",
		ReferenceID: challengeID,
	}))

	select {
	case msg := <-messages:
		msg.Ack()
		var payload ladderevents.NotificationPayloadV1
		require.NoError(t, json.Unmarshal(msg.Payload, &payload))
		assert.Equal(t, recipient, payload.RecipientID)
		require.NotNil(t, payload.ReferenceID)
		assert.Equal(t, challengeID, *payload.ReferenceID)
		assert.Equal(t, string(ladderdomain.NotifyChallengeReceived), msg.Metadata.Get("notification_type"))
	case <-ctx.Done():
		t.Fatal("timed out waiting for notification")
	}
}
