// Package service answers member searches for the front desk. Eligibility
// and current claims are read fresh on every search.
package service

import (
	"context"
	"errors"
	"log/slog"

	claimModels "frontdesk/internal/claim/models"
	"frontdesk/internal/member/models"
	id "frontdesk/pkg/domain"
	dErrors "frontdesk/pkg/domain-errors"
	"frontdesk/pkg/platform/sentinel"
)

// Directory finds members by id, member number or national id.
type Directory interface {
	FindMember(ctx context.Context, q string) (*models.Member, error)
}

// ClaimReader returns the ACTIVE claim for a key, CodeNotFound when none.
type ClaimReader interface {
	Active(ctx context.Context, key claimModels.Key) (*claimModels.Claim, error)
}

// SearchResult is a member with the claims it currently carries, keyed by
// purpose. Purposes without an active claim are absent.
type SearchResult struct {
	Member *models.MemberView                     `json:"member"`
	Claims map[id.ClaimPurpose]*claimModels.Claim `json:"claims"`
}

// Assigned reports whether the member is on some list.
func (r *SearchResult) Assigned() bool {
	return r.Claims[id.ClaimPurposeListAssignment] != nil
}

// CheckedIn reports whether the member is checked in.
func (r *SearchResult) CheckedIn() bool {
	return r.Claims[id.ClaimPurposeCheckIn] != nil
}

type Service struct {
	directory Directory
	claims    ClaimReader
	logger    *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(directory Directory, claims ClaimReader, opts ...Option) *Service {
	s := &Service{
		directory: directory,
		claims:    claims,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search resolves q to a single member and tags it with eligibility and the
// claims it holds for each purpose.
func (s *Service) Search(ctx context.Context, q string) (*SearchResult, error) {
	if _, ok := models.NormalizeQuery(q); !ok {
		return nil, dErrors.New(dErrors.CodeValidation, "search query must be 1 to 64 characters")
	}

	m, err := s.directory.FindMember(ctx, q)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "member not found")
		}
		s.logger.ErrorContext(ctx, "member lookup failed", "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "member directory unavailable")
	}

	result := &SearchResult{
		Member: models.NewView(m),
		Claims: make(map[id.ClaimPurpose]*claimModels.Claim, 2),
	}
	for _, purpose := range id.ClaimPurposes() {
		c, err := s.claims.Active(ctx, claimModels.Key{MemberID: m.ID, Purpose: purpose})
		if err != nil {
			if dErrors.HasCode(err, dErrors.CodeNotFound) {
				continue
			}
			return nil, err
		}
		result.Claims[purpose] = c
	}
	return result, nil
}
