package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"frontdesk/internal/assignment/models"
	id "frontdesk/pkg/domain"
)

const listColumns = `id, owner_operator_id, owner_display_name, name, description, is_default, created_at`

type PostgresListStore struct {
	db *sql.DB
}

func NewPostgresListStore(db *sql.DB) *PostgresListStore {
	return &PostgresListStore{db: db}
}

// EnsureDefault inserts the owner's default list unless one exists and
// returns whichever row the unique partial index kept.
func (s *PostgresListStore) EnsureDefault(ctx context.Context, owner id.OperatorID, ownerName string, now time.Time) (*models.List, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lists (`+listColumns+`)
		VALUES ($1, $2, $3, $4, '', TRUE, $5)
		ON CONFLICT (owner_operator_id) WHERE is_default DO NOTHING`,
		uuid.New(), uuid.UUID(owner), ownerName, models.DefaultListName, now,
	)
	if err != nil {
		return nil, fmt.Errorf("ensure default list: %w", err)
	}
	l, err := scanList(s.db.QueryRowContext(ctx, `
		SELECT `+listColumns+` FROM lists
		WHERE owner_operator_id = $1 AND is_default`, uuid.UUID(owner)))
	if err != nil {
		return nil, fmt.Errorf("read default list: %w", err)
	}
	return l, nil
}

func (s *PostgresListStore) Create(ctx context.Context, l *models.List) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lists (`+listColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.UUID(l.ID), uuid.UUID(l.OwnerOperatorID), l.OwnerDisplayName, l.Name, l.Description,
		l.IsDefault, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create list: %w", err)
	}
	return nil
}

func (s *PostgresListStore) FindByID(ctx context.Context, listID id.ListID) (*models.List, error) {
	l, err := scanList(s.db.QueryRowContext(ctx, `SELECT `+listColumns+` FROM lists WHERE id = $1`, uuid.UUID(listID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find list: %w", err)
	}
	return l, nil
}

func (s *PostgresListStore) ListByOwner(ctx context.Context, owner id.OperatorID) ([]*models.List, error) {
	return s.query(ctx, `SELECT `+listColumns+` FROM lists
		WHERE owner_operator_id = $1 ORDER BY created_at, id`, uuid.UUID(owner))
}

func (s *PostgresListStore) ListAll(ctx context.Context) ([]*models.List, error) {
	return s.query(ctx, `SELECT `+listColumns+` FROM lists ORDER BY created_at, id`)
}

func (s *PostgresListStore) query(ctx context.Context, query string, args ...any) ([]*models.List, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}
	defer rows.Close()
	var out []*models.List
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, fmt.Errorf("scan list: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lists: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanList(row rowScanner) (*models.List, error) {
	var (
		l             models.List
		listID, owner uuid.UUID
	)
	if err := row.Scan(&listID, &owner, &l.OwnerDisplayName, &l.Name, &l.Description, &l.IsDefault, &l.CreatedAt); err != nil {
		return nil, err
	}
	l.ID = id.ListID(listID)
	l.OwnerOperatorID = id.OperatorID(owner)
	l.CreatedAt = l.CreatedAt.UTC()
	return &l, nil
}
