package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vidshare/apiserver/types"
)

func newChannelFixture(t *testing.T) (*ChannelService, *fakeChannelRepo, *fakeSubscriptionRepo, *fakeUserRepo) {
	t.Helper()
	channels := newFakeChannelRepo()
	subs := newFakeSubscriptionRepo()
	users := newFakeUserRepo()
	service := NewChannelService(channels, subs, users)
	return service, channels, subs, users
}

func TestGetChannelProfile(t *testing.T) {
	t.Parallel()

	service, channels, _, _ := newChannelFixture(t)
	channels.profiles["adal"] = types.ChannelProfile{
		ID:               1,
		Username:         "adal",
		FullName:         "Ada L",
		SubscribersCount: 3,
	}

	// Lookup is case-insensitive via lowercasing.
	profile, err := service.GetChannelProfile(context.Background(), 0, "AdaL")
	require.NoError(t, err)
	require.Equal(t, "adal", profile.Username)
	require.Equal(t, 3, profile.SubscribersCount)
}

func TestGetChannelProfileMissingUsername(t *testing.T) {
	t.Parallel()

	service, _, _, _ := newChannelFixture(t)

	_, err := service.GetChannelProfile(context.Background(), 0, "   ")
	requireStatus(t, err, http.StatusBadRequest)
}

func TestGetChannelProfileNotFound(t *testing.T) {
	t.Parallel()

	service, _, _, _ := newChannelFixture(t)

	_, err := service.GetChannelProfile(context.Background(), 0, "ghost")
	requireStatus(t, err, http.StatusNotFound)
}

func TestGetWatchHistoryEmptyIsValid(t *testing.T) {
	t.Parallel()

	service, _, _, _ := newChannelFixture(t)

	entries, err := service.GetWatchHistory(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, entries)
	require.Empty(t, entries)
}

func TestGetWatchHistoryPreservesOrder(t *testing.T) {
	t.Parallel()

	service, channels, _, _ := newChannelFixture(t)
	channels.history[1] = []types.WatchHistoryEntry{
		{Video: types.Video{ID: 10}, Owner: types.VideoOwner{Username: "u1"}},
		{Video: types.Video{ID: 20}, Owner: types.VideoOwner{Username: "u2"}},
	}

	entries, err := service.GetWatchHistory(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, 10, entries[0].Video.ID)
	require.Equal(t, "u1", entries[0].Owner.Username)
	require.Equal(t, 20, entries[1].Video.ID)
}

func TestRecordWatch(t *testing.T) {
	t.Parallel()

	service, channels, _, _ := newChannelFixture(t)
	channels.videos[10] = true

	require.NoError(t, service.RecordWatch(context.Background(), 1, 10))
	require.Equal(t, [][2]int{{1, 10}}, channels.watches)

	err := service.RecordWatch(context.Background(), 1, 99)
	requireStatus(t, err, http.StatusNotFound)

	err = service.RecordWatch(context.Background(), 1, 0)
	requireStatus(t, err, http.StatusBadRequest)
}

func TestSubscribe(t *testing.T) {
	t.Parallel()

	service, _, subs, users := newChannelFixture(t)
	channel, err := users.Create(context.Background(), types.User{Username: "chan", Email: "c@x.io"})
	require.NoError(t, err)
	viewer, err := users.Create(context.Background(), types.User{Username: "viewer", Email: "v@x.io"})
	require.NoError(t, err)

	require.NoError(t, service.Subscribe(context.Background(), viewer.ID, "Chan"))
	require.True(t, subs.edges[[2]int{viewer.ID, channel.ID}])

	err = service.Subscribe(context.Background(), viewer.ID, "chan")
	requireStatus(t, err, http.StatusConflict)

	err = service.Subscribe(context.Background(), channel.ID, "chan")
	requireStatus(t, err, http.StatusBadRequest)

	err = service.Subscribe(context.Background(), viewer.ID, "ghost")
	requireStatus(t, err, http.StatusNotFound)
}

func TestUnsubscribe(t *testing.T) {
	t.Parallel()

	service, _, _, users := newChannelFixture(t)
	_, err := users.Create(context.Background(), types.User{Username: "chan", Email: "c@x.io"})
	require.NoError(t, err)
	viewer, err := users.Create(context.Background(), types.User{Username: "viewer", Email: "v@x.io"})
	require.NoError(t, err)

	err = service.Unsubscribe(context.Background(), viewer.ID, "chan")
	requireStatus(t, err, http.StatusNotFound)

	require.NoError(t, service.Subscribe(context.Background(), viewer.ID, "chan"))
	require.NoError(t, service.Unsubscribe(context.Background(), viewer.ID, "chan"))
}
