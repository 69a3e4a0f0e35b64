package http

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/tutorhub/sso/internal/sso/service"
	"github.com/tutorhub/sso/pkg/ssosdk"
)

// AuthorizeHandler serves GET /v1/sso/authorize. Consumer services send the
// user's browser here to start a flow; the response is a redirect to the
// login page carrying a fresh code.
type AuthorizeHandler struct {
	ExchangeService *service.ExchangeService

	// Origin is the platform's public base URL, used to build the default
	// redirect URI when the consumer does not name one.
	Origin string
}

func (h *AuthorizeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	redirectURI := r.URL.Query().Get("redirect_uri")
	if redirectURI == "" {
		redirectURI = strings.TrimSuffix(h.Origin, "/") + "/auth/callback"
	}
	if u, err := url.Parse(redirectURI); err != nil || !u.IsAbs() {
		ssosdk.ErrInvalidRequest.WriteError(w)
		return
	}

	state := r.URL.Query().Get("state")
	if state == "" {
		// Consumers that skip state still get a unique value to echo back.
		state = uuid.NewString()
	}

	authURL, _, err := h.ExchangeService.BeginAuthorization(r.Context(), redirectURI, state)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}
