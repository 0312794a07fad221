package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vidshare/apiserver/internal/services"
)

// ChannelHandler serves public channel profiles and subscription edges.
type ChannelHandler struct {
	channels *services.ChannelService
}

func NewChannelHandler(channels *services.ChannelService) *ChannelHandler {
	return &ChannelHandler{channels: channels}
}

// ChannelRouter registers channel routes on the given router.
func ChannelRouter(r chi.Router, channels *services.ChannelService, tokens *services.TokenIssuer) {
	handler := NewChannelHandler(channels)

	r.With(OptionalAuth(tokens)).Get("/{username}", handler.GetProfile)
	r.With(RequireAuth(tokens)).Post("/{username}/subscribe", handler.Subscribe)
	r.With(RequireAuth(tokens)).Delete("/{username}/subscribe", handler.Unsubscribe)
}

// GetProfile returns the channel view. Authentication is optional; an
// anonymous viewer always sees is_subscribed false.
func (h *ChannelHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	viewerID := viewerIDFromContext(r.Context())
	username := chi.URLParam(r, "username")

	profile, err := h.channels.GetChannelProfile(r.Context(), viewerID, username)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (h *ChannelHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	viewerID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.channels.Subscribe(r.Context(), viewerID, chi.URLParam(r, "username")); err != nil {
		writeAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ChannelHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	viewerID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.channels.Unsubscribe(r.Context(), viewerID, chi.URLParam(r, "username")); err != nil {
		writeAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
