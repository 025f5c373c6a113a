package ladderdomain

import "github.com/google/uuid"

// NotificationType names a player-facing event.
type NotificationType string

const (
	NotifyChallengeReceived    NotificationType = "challenge_received"
	NotifyChallengeAccepted    NotificationType = "challenge_accepted"
	NotifyChallengeDeclined    NotificationType = "challenge_declined"
	NotifyChallengeExpired     NotificationType = "challenge_expired"
	NotifyMatchResultSubmitted NotificationType = "match_result_submitted"
	NotifyMatchValidated       NotificationType = "match_validated"
	NotifyMatchDisputed        NotificationType = "match_disputed"
	NotifyPointsChanged        NotificationType = "points_changed"
	NotifyRankingUpdated       NotificationType = "ranking_updated"
)

// Notification is addressed to one player. Sender is uuid.Nil for system events.
type Notification struct {
	Type        NotificationType `json:"type"`
	RecipientID uuid.UUID        `json:"recipient_id"`
	SenderID    uuid.UUID        `json:"sender_id,omitempty"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	ReferenceID uuid.UUID        `json:"reference_id,omitempty"`
	Data        map[string]any   `json:"data,omitempty"`
}
