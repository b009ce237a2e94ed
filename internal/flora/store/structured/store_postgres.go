package structured

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"chimera/internal/flora/models"
	"chimera/pkg/platform/sentinel"
)

//go:embed schema.sql
var schema string

const (
	pqUniqueViolation      = "23505"
	pqInvalidTextRepresent = "22P02"
	floraColumns           = "id, user_id, common_name, scientific_name, type"
)

// PostgresStore persists structured rows in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed structured store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the flora table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure flora schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, row models.StructuredRow) (models.StructuredRow, error) {
	query := `
		INSERT INTO flora (user_id, common_name, scientific_name, type)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + floraColumns
	created, err := scanRow(s.db.QueryRowContext(ctx, query,
		row.UserID, row.CommonName, row.ScientificName, string(row.Type)))
	if err != nil {
		return models.StructuredRow{}, fmt.Errorf("create flora: %w", translate(err))
	}
	return created, nil
}

func (s *PostgresStore) Update(ctx context.Context, id string, row models.StructuredRow) (models.StructuredRow, error) {
	query := `
		UPDATE flora
		SET user_id = $2, common_name = $3, scientific_name = $4, type = $5, updated_at = now()
		WHERE id = $1
		RETURNING ` + floraColumns
	updated, err := scanRow(s.db.QueryRowContext(ctx, query,
		id, row.UserID, row.CommonName, row.ScientificName, string(row.Type)))
	if err != nil {
		return models.StructuredRow{}, fmt.Errorf("update flora %s: %w", id, translate(err))
	}
	return updated, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM flora WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete flora %s: %w", id, translate(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete flora %s: %w", id, err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (models.StructuredRow, error) {
	row, err := scanRow(s.db.QueryRowContext(ctx, `SELECT `+floraColumns+` FROM flora WHERE id = $1`, id))
	if err != nil {
		return models.StructuredRow{}, fmt.Errorf("find flora %s: %w", id, translate(err))
	}
	return row, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]models.StructuredRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+floraColumns+` FROM flora ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list flora: %w", err)
	}
	defer rows.Close()

	var out []models.StructuredRow
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan flora: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list flora: %w", err)
	}
	return out, nil
}

// Ping checks database reachability for readiness probes.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(sc scanner) (models.StructuredRow, error) {
	var (
		row      models.StructuredRow
		postType string
	)
	if err := sc.Scan(&row.ID, &row.UserID, &row.CommonName, &row.ScientificName, &postType); err != nil {
		return models.StructuredRow{}, err
	}
	row.Type = models.PostType(postType)
	return row, nil
}

// translate maps driver errors onto sentinel facts. A malformed uuid can never
// match a row, so it reads as not found.
func translate(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return fmt.Errorf("%s: %w", pqErr.Constraint, sentinel.ErrConflict)
		case pqInvalidTextRepresent:
			return sentinel.ErrNotFound
		}
	}
	return err
}
