package http

import (
	"net/http"
	"time"

	"github.com/tutorhub/sso/internal/sso/service"
	"github.com/tutorhub/sso/pkg/httpx"
	"github.com/tutorhub/sso/pkg/ssosdk"
)

// SessionHandler serves GET /v1/sso/session. Consumers present the session
// token as a bearer credential and get the session plus the account summary.
type SessionHandler struct {
	ExchangeService *service.ExchangeService
}

func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := httpx.BearerToken(r)
	if token == "" {
		ssosdk.ErrInvalidSession.WriteError(w)
		return
	}

	sess, err := h.ExchangeService.ValidateSession(r.Context(), token)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if sess == nil {
		ssosdk.ErrInvalidSession.WriteError(w)
		return
	}

	subject, err := h.ExchangeService.Subject(r.Context(), sess.SubjectID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, ssosdk.SessionResponse{
		SubjectID:   sess.SubjectID,
		Role:        sess.Role,
		Permissions: sess.Permissions,
		ExpiresAt:   sess.ExpiresAt.UTC().Format(time.RFC3339),
		Subject:     toSubject(subject),
	})
}

// LogoutHandler serves POST /v1/sso/logout. Always 204 for a well-formed
// request; a token that is already gone is not an error.
type LogoutHandler struct {
	ExchangeService *service.ExchangeService
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := httpx.BearerToken(r)
	if token == "" {
		ssosdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.ExchangeService.Logout(r.Context(), token); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
