package http

import (
	"net/http"
	"strings"

	"github.com/tutorhub/sso/internal/sso/service"
	"github.com/tutorhub/sso/pkg/httpx"
	"github.com/tutorhub/sso/pkg/ssosdk"
)

// LoginHandler serves POST /v1/sso/login. The login page posts the pending
// code with the user's credentials; success opens a session and tells the
// page where to send the browser next.
type LoginHandler struct {
	ExchangeService *service.ExchangeService
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		ssosdk.ErrInvalidContentType.WriteError(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		ssosdk.ErrInvalidFormBody.WriteError(w)
		return
	}

	code := r.Form.Get("code")
	username := r.Form.Get("username")
	password := r.Form.Get("password")
	if code == "" || username == "" || password == "" {
		ssosdk.ErrInvalidRequest.WriteError(w)
		return
	}

	sessionToken, subject, err := h.ExchangeService.Authenticate(r.Context(), code, username, password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	redirectTo, err := h.ExchangeService.CallbackURL(r.Context(), code)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, ssosdk.LoginResponse{
		SessionToken: sessionToken,
		Subject:      toSubject(subject),
		RedirectTo:   redirectTo,
	})
}
