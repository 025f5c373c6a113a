package laddernotify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/acerank/app/eventbus"
	ladderservice "github.com/Black-And-White-Club/acerank/app/modules/ladder/application"
	ladderdomain "github.com/Black-And-White-Club/acerank/app/modules/ladder/domain"
	ladderevents "github.com/Black-And-White-Club/acerank/pkg/events/ladder"
	"github.com/Black-And-White-Club/acerank/pkg/observability/attr"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/google/uuid"
)

// Publisher delivers notifications as events on each recipient's scoped topic.
type Publisher struct {
	publisher message.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

var _ ladderservice.Notifier = (*Publisher)(nil)

func NewPublisher(publisher message.Publisher, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Notify publishes n on ladder.notification.<type>.v1.<recipient>.
func (p *Publisher) Notify(ctx context.Context, n ladderdomain.Notification) error {
	if n.RecipientID == uuid.Nil {
		return fmt.Errorf("notification %s has no recipient", n.Type)
	}

	payload := ladderevents.NotificationPayloadV1{
		Type:        string(n.Type),
		RecipientID: n.RecipientID,
		Title:       n.Title,
		Message:     n.Message,
		Data:        n.Data,
		SentAt:      p.now(),
	}
	if n.SenderID != uuid.Nil {
		payload.SenderID = &n.SenderID
	}
	if n.ReferenceID != uuid.Nil {
		payload.ReferenceID = &n.ReferenceID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), body)
	msg.Metadata.Set("notification_type", string(n.Type))
	msg.Metadata.Set("recipient_id", n.RecipientID.String())
	if correlationID := attr.CorrelationIDFromContext(ctx); correlationID != "" {
		middleware.SetCorrelationID(correlationID, msg)
	}

	if err := eventbus.PublishWithPlayerScope(p.publisher, ladderevents.NotificationTopic(string(n.Type)), n.RecipientID, msg); err != nil {
		return fmt.Errorf("publish %s notification: %w", n.Type, err)
	}

	p.logger.DebugContext(ctx, "Notification published",
		attr.String("type", string(n.Type)),
		attr.PlayerID(n.RecipientID),
		attr.ExtractCorrelationID(ctx),
	)
	return nil
}
