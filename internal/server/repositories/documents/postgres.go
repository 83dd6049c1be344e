package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/simpleshare/internal/common"
	"github.com/dmitrijs2005/simpleshare/internal/dbx"
	"github.com/dmitrijs2005/simpleshare/internal/server/models"
)

var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

const columns = `collection, id, data, version, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*models.Document, error) {
	d := &models.Document{}
	var data []byte
	if err := row.Scan(&d.Collection, &d.ID, &data, &d.Version, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.Data = json.RawMessage(data)
	return d, nil
}

func (r *PostgresRepository) Get(ctx context.Context, collection, id string) (*models.Document, error) {
	query := `SELECT ` + columns + ` FROM documents WHERE collection = $1 AND id = $2`

	d, err := scanDocument(r.db.QueryRowContext(ctx, query, collection, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return d, nil
}

func (r *PostgresRepository) Upsert(ctx context.Context, collection, id string, data json.RawMessage) (*models.Document, error) {
	query := `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO UPDATE
		SET data = EXCLUDED.data, version = documents.version + 1, updated_at = now()
		RETURNING ` + columns

	d, err := scanDocument(r.db.QueryRowContext(ctx, query, collection, id, []byte(data)))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return d, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, collection, id string) (*models.Document, error) {
	query := `DELETE FROM documents WHERE collection = $1 AND id = $2 RETURNING ` + columns

	d, err := scanDocument(r.db.QueryRowContext(ctx, query, collection, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return d, nil
}

// Query returns the documents of collection whose top-level string fields
// equal every filter value, oldest first.
func (r *PostgresRepository) Query(ctx context.Context, collection string, filters []models.Filter) ([]*models.Document, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + columns + ` FROM documents WHERE collection = $1`)
	args := []any{collection}

	for _, f := range filters {
		if !fieldName.MatchString(f.Field) {
			return nil, fmt.Errorf("%w: bad filter field %q", common.ErrorValidation, f.Field)
		}
		args = append(args, f.Field, f.Value)
		fmt.Fprintf(&sb, ` AND data->>$%d = $%d`, len(args)-1, len(args))
	}
	sb.WriteString(` ORDER BY created_at, id`)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []*models.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
