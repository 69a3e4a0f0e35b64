package httpx

import "context"

type ctxKey string

const (
	CtxKeySubjectID   ctxKey = "subject_id"
	CtxKeyRole        ctxKey = "role"
	CtxKeyPermissions ctxKey = "permissions"
)

func permissionsFromCtx(ctx context.Context) []string {
	if v, ok := ctx.Value(CtxKeyPermissions).([]string); ok {
		return v
	}
	return nil
}

// SubjectIDFromCtx returns the authenticated subject id, or "" when the
// request did not pass through AuthnMiddleware.
func SubjectIDFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeySubjectID).(string); ok {
		return v
	}
	return ""
}
