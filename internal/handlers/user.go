package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/vidshare/apiserver/internal/services"
)

const (
	maxMultipartMemory = 32 << 20
	maxMediaBytes      = 8 << 20
	formFieldFullName  = "full_name"
	formFieldEmail     = "email"
	formFieldUsername  = "username"
	formFieldPassword  = "password"
	formFieldAvatar    = "avatar"
	formFieldCover     = "cover_image"
)

// UserHandler provides the account and session endpoints.
type UserHandler struct {
	sessions *services.SessionService
	channels *services.ChannelService
}

// NewUserHandler constructs a UserHandler with the provided dependencies.
func NewUserHandler(sessions *services.SessionService, channels *services.ChannelService) *UserHandler {
	return &UserHandler{
		sessions: sessions,
		channels: channels,
	}
}

// UserRouter registers user routes on the given router.
func UserRouter(r chi.Router, sessions *services.SessionService, channels *services.ChannelService, tokens *services.TokenIssuer) {
	handler := NewUserHandler(sessions, channels)
	auth := RequireAuth(tokens)

	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.Post("/refresh-token", handler.Refresh)
	r.With(auth).Post("/logout", handler.Logout)
	r.With(auth).Post("/change-password", handler.ChangePassword)
	r.With(auth).Get("/me", handler.Me)
	r.With(auth).Patch("/me", handler.UpdateAccount)
	r.With(auth).Patch("/me/avatar", handler.UpdateAvatar)
	r.With(auth).Patch("/me/cover-image", handler.UpdateCoverImage)
	r.With(auth).Get("/history", handler.WatchHistory)
	r.With(auth).Post("/history/{videoID}", handler.RecordWatch)
}

// Register creates a new user account from a multipart form carrying the
// profile fields and the avatar (and optional cover) files.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	avatar, err := formUpload(r.MultipartForm, formFieldAvatar, maxMediaBytes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cover, err := formUpload(r.MultipartForm, formFieldCover, maxMediaBytes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.sessions.Register(r.Context(), services.RegisterInput{
		FullName:   r.FormValue(formFieldFullName),
		Email:      r.FormValue(formFieldEmail),
		Username:   r.FormValue(formFieldUsername),
		Password:   r.FormValue(formFieldPassword),
		Avatar:     avatar,
		CoverImage: cover,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login verifies credentials and returns the user with both tokens, also
// set as http-only secure cookies.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	result, err := h.sessions.Login(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		writeAppError(w, err)
		return
	}

	setTokenCookie(w, accessTokenCookie, result.AccessToken)
	setTokenCookie(w, refreshTokenCookie, result.RefreshToken)
	writeJSON(w, http.StatusOK, result)
}

// Logout revokes the stored refresh token and clears both cookies.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.sessions.Logout(r.Context(), userID); err != nil {
		writeAppError(w, err)
		return
	}

	clearTokenCookie(w, accessTokenCookie)
	clearTokenCookie(w, refreshTokenCookie)
	writeJSON(w, http.StatusOK, struct{}{})
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh rotates the refresh token, taken from the cookie or the body,
// and returns the new pair.
func (h *UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	incoming := ""
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
		incoming = cookie.Value
	}
	if incoming == "" {
		var req RefreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			incoming = req.RefreshToken
		}
	}

	pair, err := h.sessions.Refresh(r.Context(), incoming)
	if err != nil {
		writeAppError(w, err)
		return
	}

	setTokenCookie(w, accessTokenCookie, pair.AccessToken)
	setTokenCookie(w, refreshTokenCookie, pair.RefreshToken)
	writeJSON(w, http.StatusOK, pair)
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	if err := h.sessions.ChangePassword(r.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct{}{})
}

// Me returns the current authenticated user.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.sessions.CurrentUser(r.Context(), userID)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

type UpdateAccountRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

func (h *UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req UpdateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := h.sessions.UpdateAccount(r.Context(), userID, req.FullName, req.Email)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.replaceMedia(w, r, formFieldAvatar)
}

func (h *UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.replaceMedia(w, r, formFieldCover)
}

func (h *UserHandler) replaceMedia(w http.ResponseWriter, r *http.Request, field string) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	upload, err := formUpload(r.MultipartForm, field, maxMediaBytes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var user any
	if field == formFieldAvatar {
		user, err = h.sessions.UpdateAvatar(r.Context(), userID, upload)
	} else {
		user, err = h.sessions.UpdateCoverImage(r.Context(), userID, upload)
	}
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// WatchHistory returns the caller's watched videos in stored order.
func (h *UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	entries, err := h.channels.GetWatchHistory(r.Context(), userID)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

// RecordWatch appends a video to the caller's watch history.
func (h *UserHandler) RecordWatch(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	raw := chi.URLParam(r, "videoID")
	videoID, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || videoID < 1 {
		writeError(w, http.StatusBadRequest, "invalid video id")
		return
	}

	if err := h.channels.RecordWatch(r.Context(), userID, videoID); err != nil {
		writeAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func setTokenCookie(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearTokenCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}
