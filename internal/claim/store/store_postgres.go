package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"frontdesk/internal/claim/models"
	id "frontdesk/pkg/domain"
	"frontdesk/pkg/platform/sentinel"
	txcontext "frontdesk/pkg/platform/tx"
)

const claimColumns = `id, member_id, purpose, holder_operator_id, holder_display_name,
	container_id, claimed_at, status, revoked_at, revoked_by, revoke_reason`

// PostgresStore persists claims in the claims table. The partial unique index
// on (member_id, purpose) WHERE status = 'active' is the final guard; the
// store joins the transaction carried in ctx when there is one.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// FindActive locks the active row when called inside a transaction so a
// concurrent revoke of the same claim waits.
func (s *PostgresStore) FindActive(ctx context.Context, key models.Key) (*models.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims
		WHERE member_id = $1 AND purpose = $2 AND status = 'active'` + lockClause(ctx)
	c, err := scanClaim(txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(key.MemberID), string(key.Purpose)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, translate(err, "find active claim")
	}
	return c, nil
}

// Insert creates the ACTIVE claim with claimed_at taken from the database
// clock at insert time. A losing insert reports sentinel.ErrConflict without
// aborting the surrounding transaction.
func (s *PostgresStore) Insert(ctx context.Context, c *models.Claim) (*models.Claim, error) {
	claimID := c.ID
	if claimID.IsNil() {
		claimID = id.ClaimID(uuid.New())
	}
	out := *c
	out.ID = claimID
	out.Status = models.StatusActive

	err := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO claims (id, member_id, purpose, holder_operator_id, holder_display_name,
			container_id, claimed_at, status)
		VALUES ($1, $2, $3, $4, $5, $6, clock_timestamp(), 'active')
		ON CONFLICT (member_id, purpose) WHERE status = 'active' DO NOTHING
		RETURNING claimed_at`,
		uuid.UUID(claimID), uuid.UUID(c.MemberID), string(c.Purpose),
		uuid.UUID(c.Holder.OperatorID), c.Holder.DisplayName, c.ContainerID,
	).Scan(&out.ClaimedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrConflict
		}
		return nil, translate(err, "insert claim")
	}
	out.ClaimedAt = out.ClaimedAt.UTC()
	return &out, nil
}

func (s *PostgresStore) MarkRevoked(ctx context.Context, claimID id.ClaimID, rev models.Revocation) error {
	res, err := txcontext.ExecutorFrom(ctx, s.db).ExecContext(ctx, `
		UPDATE claims
		SET status = 'revoked', revoked_at = $2, revoked_by = $3, revoke_reason = $4
		WHERE id = $1 AND status = 'active'`,
		uuid.UUID(claimID), rev.At, uuid.UUID(rev.By), rev.Reason,
	)
	if err != nil {
		return translate(err, "revoke claim")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return translate(err, "revoke claim")
	}
	if n == 0 {
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *PostgresStore) ListActiveByPurpose(ctx context.Context, purpose id.ClaimPurpose) ([]*models.Claim, error) {
	return s.list(ctx, `SELECT `+claimColumns+` FROM claims
		WHERE purpose = $1 AND status = 'active'
		ORDER BY claimed_at`+lockClause(ctx), string(purpose))
}

func (s *PostgresStore) ListActiveByContainer(ctx context.Context, purpose id.ClaimPurpose, containerID uuid.UUID) ([]*models.Claim, error) {
	return s.list(ctx, `SELECT `+claimColumns+` FROM claims
		WHERE purpose = $1 AND container_id = $2 AND status = 'active'
		ORDER BY claimed_at`, string(purpose), containerID)
}

func (s *PostgresStore) ListByKey(ctx context.Context, key models.Key) ([]*models.Claim, error) {
	return s.list(ctx, `SELECT `+claimColumns+` FROM claims
		WHERE member_id = $1 AND purpose = $2
		ORDER BY claimed_at`, uuid.UUID(key.MemberID), string(key.Purpose))
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*models.Claim, error) {
	rows, err := txcontext.ExecutorFrom(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err, "list claims")
	}
	defer rows.Close()

	var out []*models.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, translate(err, "scan claim")
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, "iterate claims")
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClaim(row rowScanner) (*models.Claim, error) {
	var (
		c                 models.Claim
		claimID, memberID uuid.UUID
		holderID          uuid.UUID
		purpose, status   string
		revokedAt         sql.NullTime
		revokedBy         uuid.NullUUID
		revokeReason      sql.NullString
	)
	err := row.Scan(&claimID, &memberID, &purpose, &holderID, &c.Holder.DisplayName,
		&c.ContainerID, &c.ClaimedAt, &status, &revokedAt, &revokedBy, &revokeReason)
	if err != nil {
		return nil, err
	}
	c.ID = id.ClaimID(claimID)
	c.MemberID = id.MemberID(memberID)
	c.Purpose = id.ClaimPurpose(purpose)
	c.Holder.OperatorID = id.OperatorID(holderID)
	c.Status = models.Status(status)
	c.ClaimedAt = c.ClaimedAt.UTC()
	if revokedAt.Valid {
		at := revokedAt.Time.UTC()
		c.RevokedAt = &at
	}
	if revokedBy.Valid {
		by := id.OperatorID(revokedBy.UUID)
		c.RevokedBy = &by
	}
	c.RevokeReason = revokeReason.String
	return &c, nil
}

func lockClause(ctx context.Context) string {
	if _, ok := txcontext.From(ctx); ok {
		return ` FOR UPDATE`
	}
	return ""
}

// translate marks connection loss, serialization failures and deadlocks as
// sentinel.ErrUnavailable so callers can retry.
func translate(err error, op string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code.Class() == "08",
			pqErr.Code == "40001",
			pqErr.Code == "40P01",
			pqErr.Code == "57P01":
			return fmt.Errorf("%s: %w: %s", op, sentinel.ErrUnavailable, pqErr.Message)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
