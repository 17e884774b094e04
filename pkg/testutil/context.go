package testutil

import (
	"net/http"

	"frontdesk/internal/operator/middleware"
	"frontdesk/internal/operator/models"
)

// WithOperator puts op in the request context, as RequireOperator would for
// an authenticated request.
func WithOperator(req *http.Request, op *models.Operator) *http.Request {
	if op == nil {
		return req
	}
	return req.WithContext(middleware.WithOperator(req.Context(), op))
}
