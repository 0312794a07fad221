package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vidshare/apiserver/internal/apperr"
	"github.com/vidshare/apiserver/internal/mq"
)

func newSessionFixture(t *testing.T) (*SessionService, *fakeUserRepo, *fakeMedia, *fakeEvents) {
	t.Helper()
	repo := newFakeUserRepo()
	media := newFakeMedia()
	events := &fakeEvents{}
	service := NewSessionService(repo, testIssuer(), media, events)
	return service, repo, media, events
}

func validRegisterInput() RegisterInput {
	return RegisterInput{
		FullName: "Ada L",
		Email:    "ada@x.io",
		Username: "AdaL",
		Password: "p1",
		Avatar:   &Upload{Filename: "avatar.png", ContentType: "image/png", Data: []byte("img")},
	}
}

func requireStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, status, apperr.Status(err))
}

func TestRegisterNormalizesUsername(t *testing.T) {
	t.Parallel()

	service, repo, _, events := newSessionFixture(t)

	user, err := service.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)
	require.Equal(t, "adal", user.Username)
	require.Empty(t, user.PasswordHash)
	require.Empty(t, user.RefreshToken)
	require.Equal(t, "http://media.test/media/avatar.png", user.AvatarURL)
	require.Empty(t, user.CoverImageURL)

	stored := repo.users[user.ID]
	require.NotEmpty(t, stored.PasswordHash)
	require.NotEqual(t, "p1", stored.PasswordHash)
	require.Equal(t, []string{mq.TopicUserRegistered}, events.topics)
}

func TestRegisterMissingFields(t *testing.T) {
	t.Parallel()

	service, _, media, _ := newSessionFixture(t)

	input := validRegisterInput()
	input.Email = "   "
	_, err := service.Register(context.Background(), input)
	requireStatus(t, err, http.StatusBadRequest)
	require.Zero(t, media.uploads)
}

func TestRegisterMissingAvatar(t *testing.T) {
	t.Parallel()

	service, _, media, _ := newSessionFixture(t)

	input := validRegisterInput()
	input.Avatar = nil
	_, err := service.Register(context.Background(), input)
	requireStatus(t, err, http.StatusBadRequest)
	// Validation happens before any upload attempt.
	require.Zero(t, media.uploads)
}

func TestRegisterConflictIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	service, _, _, _ := newSessionFixture(t)

	_, err := service.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	input := validRegisterInput()
	input.Username = "ADAL"
	input.Email = "other@x.io"
	_, err = service.Register(context.Background(), input)
	requireStatus(t, err, http.StatusConflict)

	input = validRegisterInput()
	input.Username = "someoneelse"
	_, err = service.Register(context.Background(), input)
	requireStatus(t, err, http.StatusConflict)
}

func TestRegisterAvatarUploadFailureIsFatal(t *testing.T) {
	t.Parallel()

	service, repo, media, _ := newSessionFixture(t)
	media.fail["avatar.png"] = true

	_, err := service.Register(context.Background(), validRegisterInput())
	requireStatus(t, err, http.StatusBadRequest)
	require.Empty(t, repo.users)
}

func TestRegisterCoverUploadFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	service, _, media, _ := newSessionFixture(t)
	media.fail["cover.png"] = true

	input := validRegisterInput()
	input.CoverImage = &Upload{Filename: "cover.png", ContentType: "image/png", Data: []byte("img")}
	user, err := service.Register(context.Background(), input)
	require.NoError(t, err)
	require.Empty(t, user.CoverImageURL)
}

func TestLoginRequiresIdentifier(t *testing.T) {
	t.Parallel()

	service, _, _, _ := newSessionFixture(t)

	_, err := service.Login(context.Background(), "", "", "p1")
	requireStatus(t, err, http.StatusBadRequest)
}

func TestLoginUnknownUser(t *testing.T) {
	t.Parallel()

	service, _, _, _ := newSessionFixture(t)

	_, err := service.Login(context.Background(), "ghost@x.io", "", "p1")
	requireStatus(t, err, http.StatusNotFound)
}

func TestLoginWrongPassword(t *testing.T) {
	t.Parallel()

	service, _, _, _ := newSessionFixture(t)
	_, err := service.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	_, err = service.Login(context.Background(), "ada@x.io", "", "wrong")
	requireStatus(t, err, http.StatusUnauthorized)
}

func TestLoginPersistsRefreshToken(t *testing.T) {
	t.Parallel()

	service, repo, _, _ := newSessionFixture(t)
	registered, err := service.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	// Username lookup is case-insensitive on the way in.
	result, err := service.Login(context.Background(), "", "AdaL", "p1")
	require.NoError(t, err)
	require.NotEmpty(t, result.AccessToken)
	require.NotEmpty(t, result.RefreshToken)
	require.Empty(t, result.User.PasswordHash)
	require.Empty(t, result.User.RefreshToken)
	require.Equal(t, result.RefreshToken, repo.users[registered.ID].RefreshToken)
}

func TestRefreshRotatesExactlyOnce(t *testing.T) {
	t.Parallel()

	service, _, _, _ := newSessionFixture(t)
	_, err := service.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	result, err := service.Login(context.Background(), "ada@x.io", "", "p1")
	require.NoError(t, err)

	pair, err := service.Refresh(context.Background(), result.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, result.RefreshToken, pair.RefreshToken)

	// Replaying the rotated-out token must fail.
	_, err = service.Refresh(context.Background(), result.RefreshToken)
	requireStatus(t, err, http.StatusUnauthorized)

	// The new token is good for exactly one more rotation.
	_, err = service.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshAfterLogout(t *testing.T) {
	t.Parallel()

	service, _, _, _ := newSessionFixture(t)
	registered, err := service.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	result, err := service.Login(context.Background(), "ada@x.io", "", "p1")
	require.NoError(t, err)

	require.NoError(t, service.Logout(context.Background(), registered.ID))
	// Logout is idempotent.
	require.NoError(t, service.Logout(context.Background(), registered.ID))

	_, err = service.Refresh(context.Background(), result.RefreshToken)
	requireStatus(t, err, http.StatusUnauthorized)
}

func TestRefreshRejectsGarbage(t *testing.T) {
	t.Parallel()

	service, _, _, _ := newSessionFixture(t)

	_, err := service.Refresh(context.Background(), "")
	requireStatus(t, err, http.StatusUnauthorized)

	_, err = service.Refresh(context.Background(), "not.a.jwt")
	requireStatus(t, err, http.StatusUnauthorized)
}

func TestChangePassword(t *testing.T) {
	t.Parallel()

	service, repo, _, _ := newSessionFixture(t)
	registered, err := service.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	result, err := service.Login(context.Background(), "ada@x.io", "", "p1")
	require.NoError(t, err)

	err = service.ChangePassword(context.Background(), registered.ID, "wrong", "p2")
	requireStatus(t, err, http.StatusUnauthorized)

	require.NoError(t, service.ChangePassword(context.Background(), registered.ID, "p1", "p2"))

	// The stored refresh token is revoked along with the old password.
	require.Empty(t, repo.users[registered.ID].RefreshToken)
	_, err = service.Refresh(context.Background(), result.RefreshToken)
	requireStatus(t, err, http.StatusUnauthorized)

	_, err = service.Login(context.Background(), "ada@x.io", "", "p1")
	requireStatus(t, err, http.StatusUnauthorized)
	_, err = service.Login(context.Background(), "ada@x.io", "", "p2")
	require.NoError(t, err)
}

func TestUpdateAccountValidation(t *testing.T) {
	t.Parallel()

	service, _, _, _ := newSessionFixture(t)
	registered, err := service.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	_, err = service.UpdateAccount(context.Background(), registered.ID, "Ada Lovelace", "")
	requireStatus(t, err, http.StatusBadRequest)

	user, err := service.UpdateAccount(context.Background(), registered.ID, "Ada Lovelace", "ada@new.io")
	require.NoError(t, err)
	require.Equal(t, "Ada Lovelace", user.FullName)
	require.Equal(t, "ada@new.io", user.Email)
}

func TestUpdateAvatarReplacesOldObject(t *testing.T) {
	t.Parallel()

	service, _, media, events := newSessionFixture(t)
	registered, err := service.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	user, err := service.UpdateAvatar(context.Background(), registered.ID, &Upload{
		Filename:    "new-avatar.png",
		ContentType: "image/png",
		Data:        []byte("img2"),
	})
	require.NoError(t, err)
	require.Equal(t, "http://media.test/media/new-avatar.png", user.AvatarURL)
	require.Equal(t, []string{"http://media.test/media/avatar.png"}, media.removed)
	require.Contains(t, events.topics, mq.TopicUserMediaReplaced)
}

func TestUpdateAvatarMissingFile(t *testing.T) {
	t.Parallel()

	service, _, _, _ := newSessionFixture(t)
	registered, err := service.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	_, err = service.UpdateAvatar(context.Background(), registered.ID, nil)
	requireStatus(t, err, http.StatusBadRequest)
}

func TestUpdateCoverImageFirstUploadRemovesNothing(t *testing.T) {
	t.Parallel()

	service, _, media, _ := newSessionFixture(t)
	registered, err := service.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	user, err := service.UpdateCoverImage(context.Background(), registered.ID, &Upload{
		Filename:    "cover.png",
		ContentType: "image/png",
		Data:        []byte("img"),
	})
	require.NoError(t, err)
	require.Equal(t, "http://media.test/media/cover.png", user.CoverImageURL)
	require.Empty(t, media.removed)
}
