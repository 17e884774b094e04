package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"frontdesk/internal/member/models"
	id "frontdesk/pkg/domain"
)

const memberColumns = `id, member_number, national_id, full_name,
	contribution_current, solidarity_current, fund_current, federation_current, loan_current,
	updated_at`

// PostgresDirectory reads members from the shared members table.
type PostgresDirectory struct {
	db *sql.DB
}

func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

func (s *PostgresDirectory) FindByID(ctx context.Context, memberID id.MemberID) (*models.Member, error) {
	return s.findOne(ctx, `SELECT `+memberColumns+` FROM members WHERE id = $1`, uuid.UUID(memberID))
}

func (s *PostgresDirectory) FindByNumber(ctx context.Context, number string) (*models.Member, error) {
	return s.findOne(ctx, `SELECT `+memberColumns+` FROM members WHERE member_number = $1`, number)
}

func (s *PostgresDirectory) FindByNationalID(ctx context.Context, nationalID string) (*models.Member, error) {
	return s.findOne(ctx, `SELECT `+memberColumns+` FROM members WHERE national_id = $1`, nationalID)
}

// FindMember resolves a free-form lookup key.
func (s *PostgresDirectory) FindMember(ctx context.Context, q string) (*models.Member, error) {
	return Resolve(ctx, s, q)
}

func (s *PostgresDirectory) Exists(ctx context.Context, memberID id.MemberID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM members WHERE id = $1)`, uuid.UUID(memberID)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check member exists: %w", err)
	}
	return exists, nil
}

func (s *PostgresDirectory) GetFlags(ctx context.Context, memberID id.MemberID) (models.Flags, error) {
	m, err := s.FindByID(ctx, memberID)
	if err != nil {
		return models.Flags{}, err
	}
	return m.Flags, nil
}

// GetFlagsBatch returns flags for the known ids; unknown ids are omitted.
func (s *PostgresDirectory) GetFlagsBatch(ctx context.Context, ids []id.MemberID) (map[id.MemberID]models.Flags, error) {
	members, err := s.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[id.MemberID]models.Flags, len(members))
	for memberID, m := range members {
		out[memberID] = m.Flags
	}
	return out, nil
}

// FindByIDs reads the known members in one query; unknown ids are omitted.
func (s *PostgresDirectory) FindByIDs(ctx context.Context, ids []id.MemberID) (map[id.MemberID]*models.Member, error) {
	out := make(map[id.MemberID]*models.Member, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, memberID := range ids {
		keys[i] = memberID.String()
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+memberColumns+` FROM members WHERE id = ANY($1::uuid[])`, pq.Array(keys))
	if err != nil {
		return nil, fmt.Errorf("find members: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out[m.ID] = m
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return out, nil
}

// Upsert writes a member as the registry import does.
func (s *PostgresDirectory) Upsert(ctx context.Context, m *models.Member) error {
	f := m.Flags
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO members (`+memberColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		ON CONFLICT (id) DO UPDATE SET
			member_number = EXCLUDED.member_number,
			national_id = EXCLUDED.national_id,
			full_name = EXCLUDED.full_name,
			contribution_current = EXCLUDED.contribution_current,
			solidarity_current = EXCLUDED.solidarity_current,
			fund_current = EXCLUDED.fund_current,
			federation_current = EXCLUDED.federation_current,
			loan_current = EXCLUDED.loan_current,
			updated_at = now()`,
		uuid.UUID(m.ID), m.MemberNumber, models.NormalizeNationalID(m.NationalID), m.FullName,
		f.ContributionCurrent, f.SolidarityCurrent, f.FundCurrent, f.FederationCurrent, f.LoanCurrent,
	)
	if err != nil {
		return fmt.Errorf("upsert member: %w", err)
	}
	return nil
}

// UpdateFlags replaces a member's flags.
func (s *PostgresDirectory) UpdateFlags(ctx context.Context, memberID id.MemberID, f models.Flags) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE members SET
			contribution_current = $2, solidarity_current = $3, fund_current = $4,
			federation_current = $5, loan_current = $6, updated_at = now()
		WHERE id = $1`,
		uuid.UUID(memberID), f.ContributionCurrent, f.SolidarityCurrent, f.FundCurrent, f.FederationCurrent, f.LoanCurrent,
	)
	if err != nil {
		return fmt.Errorf("update member flags: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresDirectory) findOne(ctx context.Context, query string, arg any) (*models.Member, error) {
	m, err := scanMember(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find member: %w", err)
	}
	return m, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (*models.Member, error) {
	var (
		m   models.Member
		uid uuid.UUID
	)
	err := row.Scan(&uid, &m.MemberNumber, &m.NationalID, &m.FullName,
		&m.Flags.ContributionCurrent, &m.Flags.SolidarityCurrent, &m.Flags.FundCurrent,
		&m.Flags.FederationCurrent, &m.Flags.LoanCurrent, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.ID = id.MemberID(uid)
	return &m, nil
}
