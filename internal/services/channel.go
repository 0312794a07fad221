package services

import (
	"context"
	"errors"
	"strings"

	"github.com/vidshare/apiserver/internal/apperr"
	"github.com/vidshare/apiserver/internal/store"
	"github.com/vidshare/apiserver/types"
)

// ChannelRepository defines the read-model queries over users,
// subscriptions, and videos.
type ChannelRepository interface {
	GetProfile(ctx context.Context, viewerID int, username string) (types.ChannelProfile, error)
	ListWatchHistory(ctx context.Context, userID int) ([]types.WatchHistoryEntry, error)
	AppendWatchEntry(ctx context.Context, userID, videoID int) error
}

// SubscriptionRepository defines persistence operations for subscription
// edges.
type SubscriptionRepository interface {
	Create(ctx context.Context, subscriberID, channelID int) error
	Delete(ctx context.Context, subscriberID, channelID int) error
}

// ChannelService serves the channel profile and watch history read models
// and the subscription edge writes.
type ChannelService struct {
	channels ChannelRepository
	subs     SubscriptionRepository
	users    UserRepository
}

func NewChannelService(channels ChannelRepository, subs SubscriptionRepository, users UserRepository) *ChannelService {
	return &ChannelService{
		channels: channels,
		subs:     subs,
		users:    users,
	}
}

// GetChannelProfile returns the channel view for a username. viewerID 0
// means anonymous.
func (s *ChannelService) GetChannelProfile(ctx context.Context, viewerID int, username string) (types.ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return types.ChannelProfile{}, apperr.Validation("username is missing")
	}

	profile, err := s.channels.GetProfile(ctx, viewerID, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.ChannelProfile{}, apperr.NotFound("channel does not exist")
		}
		return types.ChannelProfile{}, apperr.Internal("failed to load channel")
	}
	return profile, nil
}

// GetWatchHistory returns the user's watched videos in stored order. An
// empty history is a valid empty result, not an error.
func (s *ChannelService) GetWatchHistory(ctx context.Context, userID int) ([]types.WatchHistoryEntry, error) {
	entries, err := s.channels.ListWatchHistory(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("failed to load watch history")
	}
	return entries, nil
}

// RecordWatch appends a video to the user's watch history.
func (s *ChannelService) RecordWatch(ctx context.Context, userID, videoID int) error {
	if videoID < 1 {
		return apperr.Validation("invalid video id")
	}
	if err := s.channels.AppendWatchEntry(ctx, userID, videoID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("video does not exist")
		}
		return apperr.Internal("failed to record watch")
	}
	return nil
}

// Subscribe creates a subscription edge from the viewer to the channel.
func (s *ChannelService) Subscribe(ctx context.Context, viewerID int, channelUsername string) error {
	channel, err := s.lookupChannel(ctx, channelUsername)
	if err != nil {
		return err
	}
	if channel.ID == viewerID {
		return apperr.Validation("cannot subscribe to your own channel")
	}

	if err := s.subs.Create(ctx, viewerID, channel.ID); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return apperr.Conflict("already subscribed")
		}
		return apperr.Internal("failed to subscribe")
	}
	return nil
}

// Unsubscribe removes the viewer's subscription edge to the channel.
func (s *ChannelService) Unsubscribe(ctx context.Context, viewerID int, channelUsername string) error {
	channel, err := s.lookupChannel(ctx, channelUsername)
	if err != nil {
		return err
	}

	if err := s.subs.Delete(ctx, viewerID, channel.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("subscription does not exist")
		}
		return apperr.Internal("failed to unsubscribe")
	}
	return nil
}

func (s *ChannelService) lookupChannel(ctx context.Context, username string) (types.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return types.User{}, apperr.Validation("username is missing")
	}

	channel, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, apperr.NotFound("channel does not exist")
		}
		return types.User{}, apperr.Internal("failed to load channel")
	}
	return channel, nil
}
