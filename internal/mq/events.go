package mq

import (
	"context"
	"encoding/json"
	"time"
)

// Topics for account lifecycle events.
const (
	TopicUserRegistered      = "user.registered"
	TopicUserPasswordChanged = "user.password_changed"
	TopicUserMediaReplaced   = "user.media_replaced"
)

// AccountEvent is the payload published on account lifecycle topics.
type AccountEvent struct {
	UserID     int       `json:"user_id"`
	Username   string    `json:"username"`
	OccurredAt time.Time `json:"occurred_at"`

	// Field names the changed media slot ("avatar" or "cover_image") on
	// media-replaced events; empty otherwise.
	Field string `json:"field,omitempty"`
}

// PublishAccountEvent marshals and publishes an account event. Publishing is
// best effort: callers should not fail a request on a publish error.
func (m *MQ) PublishAccountEvent(ctx context.Context, topic string, event AccountEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = m.Publish(ctx, topic, data, map[string]string{"event": topic})
	return err
}
