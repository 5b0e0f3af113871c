package testutil

import (
	"net/http"

	id "lectern/pkg/domain"
	"lectern/pkg/requestcontext"
)

// WithUser simulates what the auth middleware does for an authenticated
// request: it stores the user ID and role in the request context.
func WithUser(req *http.Request, userID id.UserID, role string) *http.Request {
	ctx := requestcontext.WithUserID(req.Context(), userID)
	ctx = requestcontext.WithRole(ctx, role)
	return req.WithContext(ctx)
}
