// Package store holds Member Directory backends. The directory is owned by
// the member registry; this service only reads it, apart from the import
// path used to refresh flags.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"frontdesk/internal/member/models"
	id "frontdesk/pkg/domain"
	"frontdesk/pkg/platform/sentinel"
)

// ErrNotFound is returned when no member matches.
var ErrNotFound = sentinel.ErrNotFound

// Lookups is the set of exact-match finders every backend provides.
type Lookups interface {
	FindByID(ctx context.Context, memberID id.MemberID) (*models.Member, error)
	FindByNumber(ctx context.Context, number string) (*models.Member, error)
	FindByNationalID(ctx context.Context, nationalID string) (*models.Member, error)
}

// Resolve finds a member by exact id, then exact member number, then exact
// national id with separators stripped. Only the first hit is returned.
func Resolve(ctx context.Context, l Lookups, q string) (*models.Member, error) {
	q, ok := models.NormalizeQuery(q)
	if !ok {
		return nil, ErrNotFound
	}
	if u, err := uuid.Parse(q); err == nil && u != uuid.Nil {
		m, err := l.FindByID(ctx, id.MemberID(u))
		if err == nil || !errors.Is(err, ErrNotFound) {
			return m, err
		}
	}
	m, err := l.FindByNumber(ctx, q)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return m, err
	}
	nid := models.NormalizeNationalID(q)
	if nid == "" {
		return nil, ErrNotFound
	}
	return l.FindByNationalID(ctx, nid)
}
