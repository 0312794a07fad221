package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vidshare/apiserver/types"
)

// ChannelRepository builds the read models over users, subscriptions, and
// videos. The queries here are the SQL form of the channel-profile and
// watch-history aggregations.
type ChannelRepository struct {
	db *sql.DB
}

func NewChannelRepository(db *sql.DB) *ChannelRepository {
	return &ChannelRepository{db: db}
}

// GetProfile loads a channel profile by username with derived subscription
// counts. viewerID 0 means anonymous, for which IsSubscribed is always false.
func (r *ChannelRepository) GetProfile(ctx context.Context, viewerID int, username string) (types.ChannelProfile, error) {
	const query = `
		SELECT u.id,
			u.full_name,
			u.username,
			u.email,
			u.avatar_url,
			u.cover_image_url,
			(SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = u.id) AS subscribers_count,
			(SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = u.id) AS channels_subscribed_to_count,
			EXISTS (
				SELECT 1 FROM subscriptions s
				WHERE s.channel_id = u.id AND s.subscriber_id = $2
			) AS is_subscribed
		FROM users u
		WHERE u.username = $1`
	var profile types.ChannelProfile
	err := r.db.QueryRowContext(ctx, query, username, viewerID).Scan(
		&profile.ID,
		&profile.FullName,
		&profile.Username,
		&profile.Email,
		&profile.AvatarURL,
		&profile.CoverImageURL,
		&profile.SubscribersCount,
		&profile.ChannelsSubscribedToCount,
		&profile.IsSubscribed,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.ChannelProfile{}, ErrNotFound
		}
		return types.ChannelProfile{}, err
	}
	return profile, nil
}

// ListWatchHistory returns the user's watched videos joined with a reduced
// owner projection, in stored (append) order.
func (r *ChannelRepository) ListWatchHistory(ctx context.Context, userID int) ([]types.WatchHistoryEntry, error) {
	const query = `
		SELECT v.id, v.owner_id, v.title, v.description, v.url, v.thumbnail_url, v.duration_seconds, v.views, v.created_at,
			o.id, o.full_name, o.username, o.avatar_url
		FROM watch_history wh
		JOIN videos v ON v.id = wh.video_id
		JOIN users o ON o.id = v.owner_id
		WHERE wh.user_id = $1
		ORDER BY wh.id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]types.WatchHistoryEntry, 0)
	for rows.Next() {
		var entry types.WatchHistoryEntry
		if err := rows.Scan(
			&entry.Video.ID,
			&entry.Video.OwnerID,
			&entry.Video.Title,
			&entry.Video.Description,
			&entry.Video.URL,
			&entry.Video.ThumbnailURL,
			&entry.Video.DurationSeconds,
			&entry.Video.Views,
			&entry.Video.CreatedAt,
			&entry.Owner.ID,
			&entry.Owner.FullName,
			&entry.Owner.Username,
			&entry.Owner.AvatarURL,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// AppendWatchEntry records a watched video at the end of the user's history.
// History order is defined here, by append order.
func (r *ChannelRepository) AppendWatchEntry(ctx context.Context, userID, videoID int) error {
	const query = `
		INSERT INTO watch_history (user_id, video_id, watched_at)
		SELECT $1, v.id, NOW()
		FROM videos v
		WHERE v.id = $2`
	result, err := r.db.ExecContext(ctx, query, userID, videoID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
