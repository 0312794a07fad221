package types

import "time"

// Video is a published video owned by a user. Videos are written by the
// upload pipeline; this service only reads them for watch history.
type Video struct {
	ID              int       `json:"id" db:"id"`
	OwnerID         int       `json:"owner_id" db:"owner_id"`
	Title           string    `json:"title" db:"title"`
	Description     string    `json:"description" db:"description"`
	URL             string    `json:"url" db:"url"`
	ThumbnailURL    string    `json:"thumbnail_url" db:"thumbnail_url"`
	DurationSeconds int       `json:"duration_seconds" db:"duration_seconds"`
	Views           int64     `json:"views" db:"views"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// Subscription is a directed edge from a subscriber to a channel.
type Subscription struct {
	ID           int       `json:"id" db:"id"`
	SubscriberID int       `json:"subscriber_id" db:"subscriber_id"`
	ChannelID    int       `json:"channel_id" db:"channel_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
