package services

import (
	"context"
	"time"

	"github.com/vidshare/apiserver/internal/mq"
	"github.com/vidshare/apiserver/internal/store"
	"github.com/vidshare/apiserver/types"
)

// fakeUserRepo is an in-memory UserRepository.
type fakeUserRepo struct {
	nextID int
	users  map[int]types.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, users: make(map[int]types.User)}
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (types.User, error) {
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (types.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeUserRepo) GetByUsernameOrEmail(_ context.Context, username, email string) (types.User, error) {
	for _, user := range r.users {
		if (username != "" && user.Username == username) || (email != "" && user.Email == email) {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *fakeUserRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	_, err := r.GetByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (r *fakeUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	if exists, _ := r.ExistsByUsernameOrEmail(ctx, user.Username, user.Email); exists {
		return types.User{}, store.ErrConflict
	}
	user.ID = r.nextID
	r.nextID++
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = user
	return user, nil
}

func (r *fakeUserRepo) UpdateAccount(_ context.Context, id int, fullName, email string) error {
	return r.mutate(id, func(user *types.User) {
		user.FullName = fullName
		user.Email = email
	})
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id int, passwordHash string) error {
	return r.mutate(id, func(user *types.User) {
		user.PasswordHash = passwordHash
		user.RefreshToken = ""
	})
}

func (r *fakeUserRepo) SetRefreshToken(_ context.Context, id int, token string) error {
	return r.mutate(id, func(user *types.User) {
		user.RefreshToken = token
	})
}

func (r *fakeUserRepo) ClearRefreshToken(_ context.Context, id int) error {
	return r.mutate(id, func(user *types.User) {
		user.RefreshToken = ""
	})
}

func (r *fakeUserRepo) RotateRefreshToken(_ context.Context, id int, oldToken, newToken string) error {
	user, ok := r.users[id]
	if !ok || user.RefreshToken != oldToken {
		return store.ErrTokenMismatch
	}
	user.RefreshToken = newToken
	r.users[id] = user
	return nil
}

func (r *fakeUserRepo) UpdateAvatarURL(_ context.Context, id int, url string) error {
	return r.mutate(id, func(user *types.User) {
		user.AvatarURL = url
	})
}

func (r *fakeUserRepo) UpdateCoverImageURL(_ context.Context, id int, url string) error {
	return r.mutate(id, func(user *types.User) {
		user.CoverImageURL = url
	})
}

func (r *fakeUserRepo) mutate(id int, fn func(*types.User)) error {
	user, ok := r.users[id]
	if !ok {
		return store.ErrNotFound
	}
	fn(&user)
	user.UpdatedAt = time.Now()
	r.users[id] = user
	return nil
}

// fakeMedia is an in-memory MediaUploader. Uploads of filenames present in
// fail return an error.
type fakeMedia struct {
	uploads int
	fail    map[string]bool
	removed []string
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{fail: make(map[string]bool)}
}

func (m *fakeMedia) Upload(_ context.Context, upload Upload) (string, error) {
	m.uploads++
	if m.fail[upload.Filename] {
		return "", context.DeadlineExceeded
	}
	return "http://media.test/media/" + upload.Filename, nil
}

func (m *fakeMedia) Remove(_ context.Context, url string) error {
	m.removed = append(m.removed, url)
	return nil
}

// fakeEvents records published topics.
type fakeEvents struct {
	topics []string
}

func (e *fakeEvents) PublishAccountEvent(_ context.Context, topic string, _ mq.AccountEvent) error {
	e.topics = append(e.topics, topic)
	return nil
}

// fakeChannelRepo is an in-memory ChannelRepository.
type fakeChannelRepo struct {
	profiles map[string]types.ChannelProfile
	history  map[int][]types.WatchHistoryEntry
	videos   map[int]bool
	watches  [][2]int
}

func newFakeChannelRepo() *fakeChannelRepo {
	return &fakeChannelRepo{
		profiles: make(map[string]types.ChannelProfile),
		history:  make(map[int][]types.WatchHistoryEntry),
		videos:   make(map[int]bool),
	}
}

func (r *fakeChannelRepo) GetProfile(_ context.Context, viewerID int, username string) (types.ChannelProfile, error) {
	profile, ok := r.profiles[username]
	if !ok {
		return types.ChannelProfile{}, store.ErrNotFound
	}
	return profile, nil
}

func (r *fakeChannelRepo) ListWatchHistory(_ context.Context, userID int) ([]types.WatchHistoryEntry, error) {
	entries := r.history[userID]
	if entries == nil {
		entries = []types.WatchHistoryEntry{}
	}
	return entries, nil
}

func (r *fakeChannelRepo) AppendWatchEntry(_ context.Context, userID, videoID int) error {
	if !r.videos[videoID] {
		return store.ErrNotFound
	}
	r.watches = append(r.watches, [2]int{userID, videoID})
	return nil
}

// fakeSubscriptionRepo is an in-memory SubscriptionRepository.
type fakeSubscriptionRepo struct {
	edges map[[2]int]bool
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{edges: make(map[[2]int]bool)}
}

func (r *fakeSubscriptionRepo) Create(_ context.Context, subscriberID, channelID int) error {
	key := [2]int{subscriberID, channelID}
	if r.edges[key] {
		return store.ErrConflict
	}
	r.edges[key] = true
	return nil
}

func (r *fakeSubscriptionRepo) Delete(_ context.Context, subscriberID, channelID int) error {
	key := [2]int{subscriberID, channelID}
	if !r.edges[key] {
		return store.ErrNotFound
	}
	delete(r.edges, key)
	return nil
}
