package http

import (
	"net/http"
	"strings"

	"github.com/tutorhub/sso/internal/sso/service"
	"github.com/tutorhub/sso/pkg/httpx"
	"github.com/tutorhub/sso/pkg/ssosdk"
)

// TokenHandler serves POST /v1/sso/token. The consumer's backend trades the
// code from its callback for a signed access token. A redirect_uri field is
// accepted for symmetry with the authorize step but not checked; the code is
// bound to a single flow already.
type TokenHandler struct {
	ExchangeService *service.ExchangeService
}

func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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
	if code == "" {
		ssosdk.ErrInvalidRequest.WriteError(w)
		return
	}

	bundle, err := h.ExchangeService.ExchangeCodeForToken(r.Context(), code)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, ssosdk.TokenResponse{
		AccessToken:  bundle.AccessToken,
		RefreshToken: bundle.RefreshToken,
		TokenType:    bundle.TokenType,
		ExpiresIn:    bundle.ExpiresIn,
		Subject:      toSubject(bundle.Subject),
	})
}
