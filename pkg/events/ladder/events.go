// Package ladderevents defines the topics and payloads the ladder publishes
// and consumes on the event bus.
package ladderevents

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	// RankingsRecomputeRequestedV1 asks the ladder to rebuild every ranking cache.
	RankingsRecomputeRequestedV1 = "ladder.rankings.recompute.requested.v1"
	// RankingsRecomputedV1 is published once a requested rebuild finished.
	RankingsRecomputedV1 = "ladder.rankings.recomputed.v1"

	notificationTopicPrefix = "ladder.notification"
)

// NotificationTopic is the base topic for a notification type, e.g.
// ladder.notification.challenge_received.v1. Deliveries are scoped to the
// recipient by appending their id.
func NotificationTopic(notificationType string) string {
	return fmt.Sprintf("%s.%s.v1", notificationTopicPrefix, notificationType)
}

// RankingsRecomputeRequestedPayloadV1 carries who asked for a rebuild.
type RankingsRecomputeRequestedPayloadV1 struct {
	RequestedBy string `json:"requested_by,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

type RankingsRecomputedPayloadV1 struct {
	RequestedBy string    `json:"requested_by,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

// NotificationPayloadV1 is the wire form of a player notification.
type NotificationPayloadV1 struct {
	Type        string         `json:"type"`
	RecipientID uuid.UUID      `json:"recipient_id"`
	SenderID    *uuid.UUID     `json:"sender_id,omitempty"`
	Title       string         `json:"title"`
	Message     string         `json:"message"`
	ReferenceID *uuid.UUID     `json:"reference_id,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
	SentAt      time.Time      `json:"sent_at"`
}
