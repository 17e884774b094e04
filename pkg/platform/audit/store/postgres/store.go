package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "frontdesk/pkg/domain"
	audit "frontdesk/pkg/platform/audit"
	txcontext "frontdesk/pkg/platform/tx"
)

// Store implements audit.Store on the override_audit table. Appends made
// inside a claim transaction commit or roll back with it.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, records ...audit.OverrideRecord) error {
	exec := txcontext.ExecutorFrom(ctx, s.db)
	for _, r := range records {
		recordID := r.ID
		if recordID.IsNil() {
			recordID = id.AuditID(uuid.New())
		}
		_, err := exec.ExecContext(ctx, `
			INSERT INTO override_audit (
				id, action, claim_id, member_id, purpose, container_id,
				actor_id, actor_name, reason, request_id, at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			uuid.UUID(recordID), string(r.Action), uuid.UUID(r.ClaimID), uuid.UUID(r.MemberID),
			string(r.Purpose), r.ContainerID, uuid.UUID(r.ActorID), r.ActorName, r.Reason,
			r.RequestID, r.At,
		)
		if err != nil {
			return fmt.Errorf("insert override audit: %w", err)
		}
	}
	return nil
}

// ListRecent returns up to limit records, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.OverrideRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, action, claim_id, member_id, purpose, container_id,
			actor_id, actor_name, reason, request_id, at
		FROM override_audit
		ORDER BY at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list override audit: %w", err)
	}
	defer rows.Close()

	var out []audit.OverrideRecord
	for rows.Next() {
		var (
			r                                  audit.OverrideRecord
			recordID, claimID, memberID, actor uuid.UUID
			action, purpose                    string
		)
		if err := rows.Scan(&recordID, &action, &claimID, &memberID, &purpose, &r.ContainerID,
			&actor, &r.ActorName, &r.Reason, &r.RequestID, &r.At); err != nil {
			return nil, fmt.Errorf("scan override audit: %w", err)
		}
		r.ID = id.AuditID(recordID)
		r.Action = audit.Action(action)
		r.ClaimID = id.ClaimID(claimID)
		r.MemberID = id.MemberID(memberID)
		r.Purpose = id.ClaimPurpose(purpose)
		r.ActorID = id.OperatorID(actor)
		r.At = r.At.UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate override audit: %w", err)
	}
	return out, nil
}
