package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tutorhub/sso/internal/sso/service"
	"github.com/tutorhub/sso/pkg/httpx"
	"github.com/tutorhub/sso/pkg/ssosdk"
)

// BootstrapHandler serves POST /v1/bootstrap, creating the first account on
// an empty deployment.
type BootstrapHandler struct {
	BootstrapService *service.BootstrapService
}

func (h *BootstrapHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req ssosdk.BootstrapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ssosdk.ErrInvalidRequest.WriteError(w)
		return
	}

	subject, err := h.BootstrapService.Bootstrap(r.Context(),
		req.Token, req.Username, req.Password, req.GivenName, req.FamilyName)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBootstrapAlready):
			ssosdk.ErrAlreadyBootstrapped.WriteError(w)
		case errors.Is(err, service.ErrBootstrapUnauthorized):
			ssosdk.ErrUnauthorizedBootstrap.WriteError(w)
		case errors.Is(err, service.ErrWeakCredential),
			errors.Is(err, service.ErrInvalidRole),
			errors.Is(err, service.ErrUsernameTaken):
			ssosdk.ErrInvalidRequest.WriteError(w)
		default:
			ssosdk.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, ssosdk.BootstrapResponse{
		Subject: toSubject(subject),
	})
}
