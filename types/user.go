package types

import "time"

// User represents an account in the system.
// It contains identity, media references, session state, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Username is the unique login name chosen by the user.
	// It is normalized to lowercase before being stored.
	Username string `json:"username" db:"username"`

	// Email is the user's email address, unique across accounts.
	Email string `json:"email" db:"email"`

	// FullName is the user's display name.
	FullName string `json:"full_name" db:"full_name"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// AvatarURL is the public URL of the user's avatar image.
	AvatarURL string `json:"avatar_url" db:"avatar_url"`

	// CoverImageURL is the public URL of the user's channel cover image.
	// Empty when the user never uploaded one.
	CoverImageURL string `json:"cover_image_url" db:"cover_image_url"`

	// RefreshToken is the single currently valid refresh token for the
	// account, empty when the user is logged out. Never exposed in API
	// responses.
	RefreshToken string `json:"-" db:"refresh_token"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
