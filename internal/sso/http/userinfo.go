package http

import (
	"net/http"

	"github.com/tutorhub/sso/internal/sso/service"
	"github.com/tutorhub/sso/pkg/httpx"
	"github.com/tutorhub/sso/pkg/slogx"
	"github.com/tutorhub/sso/pkg/ssosdk"
)

// UserInfoHandler serves GET /v1/userinfo. Resource servers that hold an
// access token use this to resolve the account behind it.
type UserInfoHandler struct {
	ExchangeService *service.ExchangeService
}

func (h *UserInfoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	subjectID := httpx.SubjectIDFromCtx(ctx)
	if subjectID == "" {
		ssosdk.ErrInvalidSession.WriteError(w)
		return
	}

	subject, err := h.ExchangeService.Subject(ctx, subjectID)
	if err != nil {
		log.Warn("failed to load subject", "subject_id", subjectID, "err", err)
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toSubject(subject))
}

// SubjectHandler serves GET /v1/subjects/{id}, a student-affairs lookup of
// any account. Gated on the view:all permission.
type SubjectHandler struct {
	ExchangeService *service.ExchangeService
}

func (h *SubjectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		ssosdk.ErrInvalidRequest.WriteError(w)
		return
	}

	subject, err := h.ExchangeService.Subject(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toSubject(subject))
}
