package service

import (
	"context"
	"errors"
	"log/slog"

	"frontdesk/internal/operator/models"
	"frontdesk/internal/operator/token"
	id "frontdesk/pkg/domain"
	dErrors "frontdesk/pkg/domain-errors"
	"frontdesk/pkg/platform/sentinel"
)

// TokenValidator validates bearer tokens.
type TokenValidator interface {
	Validate(tokenString string) (*token.Claims, error)
}

// Directory loads operators by id.
type Directory interface {
	FindByID(ctx context.Context, operatorID id.OperatorID) (*models.Operator, error)
}

// Resolver turns a bearer token into a current Operator.
type Resolver struct {
	tokens    TokenValidator
	directory Directory
	logger    *slog.Logger
}

type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func NewResolver(tokens TokenValidator, directory Directory, opts ...Option) *Resolver {
	r := &Resolver{tokens: tokens, directory: directory}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveOperator validates the token and loads the operator it names.
// Unknown operators are unauthorized, not not-found.
func (r *Resolver) ResolveOperator(ctx context.Context, tokenString string) (*models.Operator, error) {
	claims, err := r.tokens.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	operatorID, err := claims.ParsedOperatorID()
	if err != nil {
		return nil, err
	}
	op, err := r.directory.FindByID(ctx, operatorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			if r.logger != nil {
				r.logger.WarnContext(ctx, "token names unknown operator", "operator_id", operatorID.String())
			}
			return nil, dErrors.New(dErrors.CodeUnauthorized, "unknown operator")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "operator lookup failed")
	}
	return op, nil
}
