package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"frontdesk/internal/operator/models"
	id "frontdesk/pkg/domain"
)

// PostgresStore reads operators from the operators table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Put inserts or replaces an operator.
func (s *PostgresStore) Put(ctx context.Context, op *models.Operator) error {
	if err := op.Validate(); err != nil {
		return err
	}
	perms := make([]string, len(op.Permissions))
	for i, p := range op.Permissions {
		perms[i] = string(p)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO operators (id, username, display_name, role, permissions)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			display_name = EXCLUDED.display_name,
			role = EXCLUDED.role,
			permissions = EXCLUDED.permissions`,
		uuid.UUID(op.ID), op.Username, op.DisplayName, string(op.Role), pq.Array(perms),
	)
	if err != nil {
		return fmt.Errorf("upsert operator: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, operatorID id.OperatorID) (*models.Operator, error) {
	var (
		op    models.Operator
		uid   uuid.UUID
		role  string
		perms []string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, display_name, role, permissions, created_at
		FROM operators WHERE id = $1`, uuid.UUID(operatorID),
	).Scan(&uid, &op.Username, &op.DisplayName, &role, pq.Array(&perms), &op.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find operator: %w", err)
	}
	op.ID = id.OperatorID(uid)
	if op.Role, err = models.ParseRole(role); err != nil {
		return nil, err
	}
	if op.Permissions, err = models.ParsePermissions(perms); err != nil {
		return nil, err
	}
	return &op, nil
}
