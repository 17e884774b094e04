// Package middleware authenticates operators and carries them in context.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"frontdesk/internal/operator/models"
	dErrors "frontdesk/pkg/domain-errors"
	"frontdesk/pkg/platform/httputil"
	"frontdesk/pkg/requestcontext"
)

// OperatorResolver resolves a bearer token to an operator.
type OperatorResolver interface {
	ResolveOperator(ctx context.Context, token string) (*models.Operator, error)
}

type operatorKey struct{}

// ContextKeyOperator is exported for tests that build contexts by hand.
var ContextKeyOperator = operatorKey{}

// WithOperator stores the resolved operator and its id in ctx.
func WithOperator(ctx context.Context, op *models.Operator) context.Context {
	ctx = context.WithValue(ctx, ContextKeyOperator, op)
	return requestcontext.WithOperatorID(ctx, op.ID)
}

// FromContext returns the authenticated operator, if any.
func FromContext(ctx context.Context) (*models.Operator, bool) {
	op, ok := ctx.Value(ContextKeyOperator).(*models.Operator)
	return op, ok && op != nil
}

// RequireOperator rejects requests without a valid bearer token.
func RequireOperator(resolver OperatorResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"))
				return
			}
			op, err := resolver.ResolveOperator(ctx, strings.TrimSpace(raw))
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				if !dErrors.HasCode(err, dErrors.CodeUnavailable) {
					err = dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token")
				}
				httputil.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithOperator(ctx, op)))
		})
	}
}
