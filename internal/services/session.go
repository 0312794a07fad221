package services

import (
	"context"
	"errors"
	"strings"

	"github.com/vidshare/apiserver/internal/apperr"
	"github.com/vidshare/apiserver/internal/mq"
	"github.com/vidshare/apiserver/internal/store"
	"github.com/vidshare/apiserver/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	GetByUsernameOrEmail(ctx context.Context, username, email string) (types.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	UpdateAccount(ctx context.Context, id int, fullName, email string) error
	UpdatePassword(ctx context.Context, id int, passwordHash string) error
	SetRefreshToken(ctx context.Context, id int, token string) error
	ClearRefreshToken(ctx context.Context, id int) error
	RotateRefreshToken(ctx context.Context, id int, oldToken, newToken string) error
	UpdateAvatarURL(ctx context.Context, id int, url string) error
	UpdateCoverImageURL(ctx context.Context, id int, url string) error
}

// MediaUploader stores uploaded media and removes replaced objects.
type MediaUploader interface {
	Upload(ctx context.Context, upload Upload) (string, error)
	Remove(ctx context.Context, url string) error
}

// EventPublisher publishes account lifecycle events.
type EventPublisher interface {
	PublishAccountEvent(ctx context.Context, topic string, event mq.AccountEvent) error
}

// SessionService orchestrates the authentication lifecycle: registration,
// login, logout, refresh-token rotation, and account updates.
type SessionService struct {
	repo   UserRepository
	tokens *TokenIssuer
	media  MediaUploader
	events EventPublisher
}

func NewSessionService(repo UserRepository, tokens *TokenIssuer, media MediaUploader, events EventPublisher) *SessionService {
	return &SessionService{
		repo:   repo,
		tokens: tokens,
		media:  media,
		events: events,
	}
}

// RegisterInput is the payload for Register. Avatar is mandatory,
// CoverImage optional.
type RegisterInput struct {
	FullName   string
	Email      string
	Username   string
	Password   string
	Avatar     *Upload
	CoverImage *Upload
}

// LoginResult carries the sanitized user and the freshly issued token pair.
type LoginResult struct {
	User         types.User `json:"user"`
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
}

// TokenPair is a freshly rotated access/refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Register creates a new account. The username is stored lowercase; the
// avatar upload must succeed, while a failed cover upload degrades to an
// empty cover.
func (s *SessionService) Register(ctx context.Context, input RegisterInput) (types.User, error) {
	fullName := strings.TrimSpace(input.FullName)
	email := strings.TrimSpace(input.Email)
	username := strings.ToLower(strings.TrimSpace(input.Username))
	if fullName == "" || email == "" || username == "" || input.Password == "" {
		return types.User{}, apperr.Validation("all fields are required")
	}

	exists, err := s.repo.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return types.User{}, apperr.Internal("failed to check existing users")
	}
	if exists {
		return types.User{}, apperr.Conflict("user with email or username already exists")
	}

	if input.Avatar == nil {
		return types.User{}, apperr.Validation("avatar file is required")
	}

	avatarURL, err := s.media.Upload(ctx, *input.Avatar)
	if err != nil {
		return types.User{}, apperr.Upload("failed to upload avatar")
	}

	// A failed cover upload is not fatal; the account starts without one.
	coverURL := ""
	if input.CoverImage != nil {
		if url, err := s.media.Upload(ctx, *input.CoverImage); err == nil {
			coverURL = url
		}
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return types.User{}, apperr.Internal("failed to create user")
	}

	created, err := s.repo.Create(ctx, types.User{
		Username:      username,
		Email:         email,
		FullName:      fullName,
		PasswordHash:  hash,
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return types.User{}, apperr.Conflict("user with email or username already exists")
		}
		return types.User{}, apperr.Internal("failed to create user")
	}

	// Defensive re-read after the write, as the registration response.
	user, err := s.repo.GetByID(ctx, created.ID)
	if err != nil {
		return types.User{}, apperr.Internal("something went wrong while registering the user")
	}

	s.publish(ctx, mq.TopicUserRegistered, user, "")
	return sanitizeUser(user), nil
}

// Login verifies credentials, issues both tokens, and persists the refresh
// token on the user record, overwriting any prior value. This is the sole
// path that establishes a session.
func (s *SessionService) Login(ctx context.Context, email, username, password string) (LoginResult, error) {
	email = strings.TrimSpace(email)
	username = strings.ToLower(strings.TrimSpace(username))
	if email == "" && username == "" {
		return LoginResult{}, apperr.Validation("username or email is required")
	}

	user, err := s.repo.GetByUsernameOrEmail(ctx, username, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LoginResult{}, apperr.NotFound("user does not exist")
		}
		return LoginResult{}, apperr.Internal("failed to authenticate")
	}

	if !CheckPassword(password, user.PasswordHash) {
		return LoginResult{}, apperr.Unauthorized("invalid user credentials")
	}

	accessToken, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return LoginResult{}, apperr.Internal("failed to issue tokens")
	}
	refreshToken, err := s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return LoginResult{}, apperr.Internal("failed to issue tokens")
	}

	if err := s.repo.SetRefreshToken(ctx, user.ID, refreshToken); err != nil {
		return LoginResult{}, apperr.Internal("failed to persist session")
	}

	return LoginResult{
		User:         sanitizeUser(user),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Logout revokes the stored refresh token. Logging out an already
// logged-out user succeeds.
func (s *SessionService) Logout(ctx context.Context, userID int) error {
	if err := s.repo.ClearRefreshToken(ctx, userID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return apperr.Internal("failed to log out")
	}
	return nil
}

// Refresh rotates a valid refresh token for a new pair. The stored-value
// check and the overwrite are one conditional update, so a rotated-out
// token can never be replayed.
func (s *SessionService) Refresh(ctx context.Context, incoming string) (TokenPair, error) {
	incoming = strings.TrimSpace(incoming)
	if incoming == "" {
		return TokenPair{}, apperr.Unauthorized("unauthorized request")
	}

	userID, err := s.tokens.VerifyRefreshToken(incoming)
	if err != nil {
		return TokenPair{}, apperr.Unauthorized("invalid refresh token")
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return TokenPair{}, apperr.NotFound("user does not exist")
		}
		return TokenPair{}, apperr.Internal("failed to refresh tokens")
	}

	accessToken, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return TokenPair{}, apperr.Internal("failed to issue tokens")
	}
	refreshToken, err := s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return TokenPair{}, apperr.Internal("failed to issue tokens")
	}

	if err := s.repo.RotateRefreshToken(ctx, user.ID, incoming, refreshToken); err != nil {
		if errors.Is(err, store.ErrTokenMismatch) {
			return TokenPair{}, apperr.Unauthorized("refresh token is expired or used")
		}
		return TokenPair{}, apperr.Internal("failed to refresh tokens")
	}

	return TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// ChangePassword re-hashes and stores the new password after verifying the
// old one. The stored refresh token is revoked alongside, so existing
// sessions must log in again.
func (s *SessionService) ChangePassword(ctx context.Context, userID int, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return apperr.Validation("old and new passwords are required")
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("user does not exist")
		}
		return apperr.Internal("failed to change password")
	}

	if !CheckPassword(oldPassword, user.PasswordHash) {
		return apperr.Unauthorized("invalid old password")
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return apperr.Internal("failed to change password")
	}
	if err := s.repo.UpdatePassword(ctx, userID, hash); err != nil {
		return apperr.Internal("failed to change password")
	}

	s.publish(ctx, mq.TopicUserPasswordChanged, user, "")
	return nil
}

// CurrentUser returns the caller's sanitized record.
func (s *SessionService) CurrentUser(ctx context.Context, userID int) (types.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, apperr.NotFound("user does not exist")
		}
		return types.User{}, apperr.Internal("failed to load user")
	}
	return sanitizeUser(user), nil
}

// UpdateAccount updates the mutable profile fields.
func (s *SessionService) UpdateAccount(ctx context.Context, userID int, fullName, email string) (types.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.TrimSpace(email)
	if fullName == "" || email == "" {
		return types.User{}, apperr.Validation("all fields are required")
	}

	if err := s.repo.UpdateAccount(ctx, userID, fullName, email); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, apperr.NotFound("user does not exist")
		}
		return types.User{}, apperr.Internal("failed to update account")
	}
	return s.CurrentUser(ctx, userID)
}

// UpdateAvatar replaces the user's avatar: upload the new object, persist
// its URL, then delete the old object so no orphaned media remains.
func (s *SessionService) UpdateAvatar(ctx context.Context, userID int, upload *Upload) (types.User, error) {
	return s.replaceMedia(ctx, userID, upload, "avatar")
}

// UpdateCoverImage replaces the user's cover image, same contract as
// UpdateAvatar.
func (s *SessionService) UpdateCoverImage(ctx context.Context, userID int, upload *Upload) (types.User, error) {
	return s.replaceMedia(ctx, userID, upload, "cover_image")
}

func (s *SessionService) replaceMedia(ctx context.Context, userID int, upload *Upload, field string) (types.User, error) {
	if upload == nil {
		return types.User{}, apperr.Validation(field + " file is missing")
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, apperr.NotFound("user does not exist")
		}
		return types.User{}, apperr.Internal("failed to load user")
	}

	url, err := s.media.Upload(ctx, *upload)
	if err != nil || url == "" {
		return types.User{}, apperr.Upload("failed to upload " + field)
	}

	var oldURL string
	switch field {
	case "avatar":
		oldURL = user.AvatarURL
		err = s.repo.UpdateAvatarURL(ctx, userID, url)
	default:
		oldURL = user.CoverImageURL
		err = s.repo.UpdateCoverImageURL(ctx, userID, url)
	}
	if err != nil {
		return types.User{}, apperr.Internal("failed to update " + field)
	}

	// The new URL is persisted; removing the replaced object is best effort.
	if oldURL != "" {
		_ = s.media.Remove(ctx, oldURL)
	}

	s.publish(ctx, mq.TopicUserMediaReplaced, user, field)
	return s.CurrentUser(ctx, userID)
}

func (s *SessionService) publish(ctx context.Context, topic string, user types.User, field string) {
	if s.events == nil {
		return
	}
	_ = s.events.PublishAccountEvent(ctx, topic, mq.AccountEvent{
		UserID:   user.ID,
		Username: user.Username,
		Field:    field,
	})
}

func sanitizeUser(user types.User) types.User {
	user.PasswordHash = ""
	user.RefreshToken = ""
	return user
}
