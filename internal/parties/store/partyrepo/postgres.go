package partyrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"caseflow/internal/parties/models"
	id "caseflow/pkg/domain"
	"caseflow/pkg/platform/sentinel"
)

// Postgres stores parties in plain columns. Unlike the case aggregate there
// is no nested workflow state here, so the record maps onto a row directly;
// contacts ride in a JSONB column and risk factors in a text array.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Schema is applied by migrations; kept here as the reference DDL for the
// integration test harness.
const Schema = `
CREATE TABLE IF NOT EXISTS parties (
    id            UUID PRIMARY KEY,
    full_name     TEXT NOT NULL,
    party_type    TEXT NOT NULL,
    nationality   TEXT NOT NULL DEFAULT '',
    date_of_birth TEXT NOT NULL DEFAULT '',
    id_document   TEXT NOT NULL DEFAULT '',
    is_pep        BOOLEAN NOT NULL DEFAULT FALSE,
    is_sanctioned BOOLEAN NOT NULL DEFAULT FALSE,
    risk_factors  TEXT[] NOT NULL DEFAULT '{}',
    contacts      JSONB NOT NULL DEFAULT '[]',
    created_at    TIMESTAMPTZ NOT NULL,
    updated_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS parties_full_name_idx ON parties (LOWER(full_name));
`

const uniqueViolation = "23505"

const partyColumns = `id, full_name, party_type, nationality, date_of_birth, id_document,
	is_pep, is_sanctioned, risk_factors, contacts, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, p *models.Party) error {
	contacts, err := json.Marshal(p.Contacts)
	if err != nil {
		return fmt.Errorf("marshal contacts: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO parties (`+partyColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID.String(), p.FullName, string(p.Type), p.Nationality, p.DateOfBirth, p.IDDocument,
		p.PEP, p.Sanctioned, pq.Array(p.RiskFactors), contacts, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert party: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, partyID id.PartyID) (*models.Party, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+partyColumns+` FROM parties WHERE id = $1`, partyID.String())
	p, err := scanParty(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *Postgres) List(ctx context.Context, filter Filter) ([]*models.Party, error) {
	query := `SELECT ` + partyColumns + ` FROM parties WHERE 1=1`
	args := make([]any, 0, 2)
	if filter.Name != "" {
		args = append(args, "%"+filter.Name+"%")
		query += fmt.Sprintf(" AND full_name ILIKE $%d", len(args))
	}
	if filter.Type != "" {
		args = append(args, string(filter.Type))
		query += fmt.Sprintf(" AND party_type = $%d", len(args))
	}
	if filter.HighRisk {
		query += " AND (is_pep OR is_sanctioned OR cardinality(risk_factors) > 0)"
	}
	query += " ORDER BY full_name, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list parties: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Party, 0)
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Postgres) Update(ctx context.Context, p *models.Party) error {
	contacts, err := json.Marshal(p.Contacts)
	if err != nil {
		return fmt.Errorf("marshal contacts: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE parties
		SET full_name = $2, party_type = $3, nationality = $4, date_of_birth = $5,
		    id_document = $6, is_pep = $7, is_sanctioned = $8, risk_factors = $9,
		    contacts = $10, updated_at = $11
		WHERE id = $1`,
		p.ID.String(), p.FullName, string(p.Type), p.Nationality, p.DateOfBirth,
		p.IDDocument, p.PEP, p.Sanctioned, pq.Array(p.RiskFactors), contacts, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update party: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update party: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, partyID id.PartyID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM parties WHERE id = $1`, partyID.String())
	if err != nil {
		return fmt.Errorf("delete party: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete party: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanParty(row scannable) (*models.Party, error) {
	var (
		p        models.Party
		partyID  string
		contacts []byte
	)
	err := row.Scan(&partyID, &p.FullName, &p.Type, &p.Nationality, &p.DateOfBirth, &p.IDDocument,
		&p.PEP, &p.Sanctioned, pq.Array(&p.RiskFactors), &contacts, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	parsed, err := id.ParsePartyID(partyID)
	if err != nil {
		return nil, fmt.Errorf("scan party: %w", err)
	}
	p.ID = parsed
	if err := json.Unmarshal(contacts, &p.Contacts); err != nil {
		return nil, fmt.Errorf("unmarshal contacts: %w", err)
	}
	return &p, nil
}
