package http

import (
	"errors"
	"net/http"

	"github.com/tutorhub/sso/internal/sso/domain"
	"github.com/tutorhub/sso/internal/sso/service"
	"github.com/tutorhub/sso/pkg/ssosdk"
)

// writeServiceError maps service sentinel errors onto the wire error shapes.
// Anything unrecognised becomes a 500 without detail.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCode):
		ssosdk.ErrInvalidCode.WriteError(w)
	case errors.Is(err, service.ErrCodeExpired):
		ssosdk.ErrCodeExpired.WriteError(w)
	case errors.Is(err, service.ErrCodeNotAuthenticated):
		ssosdk.ErrCodeNotAuthenticated.WriteError(w)
	case errors.Is(err, service.ErrInvalidCredentials):
		ssosdk.ErrInvalidCredentials.WriteError(w)
	case errors.Is(err, service.ErrInsufficientPermissions):
		ssosdk.ErrInsufficientPermissions.WriteError(w)
	case errors.Is(err, service.ErrInvalidSession):
		ssosdk.ErrInvalidSession.WriteError(w)
	case errors.Is(err, service.ErrSubjectNotFound):
		ssosdk.ErrSubjectNotFound.WriteError(w)
	default:
		ssosdk.ErrServerError.WriteError(w)
	}
}

func toSubject(s domain.SubjectSummary) ssosdk.Subject {
	return ssosdk.Subject{
		ID:         s.ID,
		Username:   s.Username,
		GivenName:  s.GivenName,
		FamilyName: s.FamilyName,
		Role:       s.Role,
	}
}
