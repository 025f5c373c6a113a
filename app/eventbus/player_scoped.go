package eventbus

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// FormatPlayerScopedTopic appends a player id to a base topic so clients can
// subscribe to their own events only.
func FormatPlayerScopedTopic(baseTopic string, playerID uuid.UUID) string {
	return fmt.Sprintf("%s.%s", baseTopic, playerID)
}

// PublishWithPlayerScope publishes msg on the player-scoped variant of baseTopic.
// A nil player id publishes on the base topic.
func PublishWithPlayerScope(pub message.Publisher, baseTopic string, playerID uuid.UUID, msg *message.Message) error {
	topic := baseTopic
	if playerID != uuid.Nil {
		topic = FormatPlayerScopedTopic(baseTopic, playerID)
	}
	msg.Metadata.Set("topic", topic)
	return pub.Publish(topic, msg)
}
