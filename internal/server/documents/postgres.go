package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/profilekeeper/internal/dbx"
	"github.com/dmitrijs2005/profilekeeper/internal/docstore"
	"github.com/dmitrijs2005/profilekeeper/internal/server/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

const (
	selectDocumentQuery = `SELECT fields FROM documents WHERE path = $1`

	mergeDocumentQuery = `INSERT INTO documents (path, owner_id, fields, updated_at)
		VALUES ($1, $2, $3::jsonb, NOW())
		ON CONFLICT (path) DO UPDATE SET fields = documents.fields || EXCLUDED.fields, updated_at = NOW();`

	replaceDocumentQuery = `INSERT INTO documents (path, owner_id, fields, updated_at)
		VALUES ($1, $2, $3::jsonb, NOW())
		ON CONFLICT (path) DO UPDATE SET fields = EXCLUDED.fields, updated_at = NOW();`
)

// PostgresRepository keeps each document as a JSONB row. A merge write is
// a single upsert using the jsonb || operator, so it is atomic.
type PostgresRepository struct {
	db dbx.DBTX
}

var _ Repository = (*PostgresRepository)(nil)

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, path string) (docstore.Fields, bool, error) {
	if err := docstore.ValidatePath(path); err != nil {
		return nil, false, err
	}

	var raw []byte
	err := r.db.QueryRowContext(ctx, selectDocumentQuery, path).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("error performing sql request: %w", err)
	}

	var fields docstore.Fields
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, false, fmt.Errorf("decode document %s: %w", path, err)
	}
	if fields == nil {
		fields = docstore.Fields{}
	}
	return fields, true, nil
}

func (r *PostgresRepository) Set(ctx context.Context, path string, fields docstore.Fields, opts docstore.SetOptions) error {
	if err := docstore.ValidatePath(path); err != nil {
		return err
	}
	in, err := docstore.Normalize(fields)
	if err != nil {
		return err
	}
	if in == nil {
		in = docstore.Fields{}
	}
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}

	query := replaceDocumentQuery
	if opts.Merge {
		query = mergeDocumentQuery
	}
	if _, err := r.db.ExecContext(ctx, query, path, docstore.OwnerOf(path), string(body)); err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

// OpenPostgres connects to dsn through the pgx driver and migrates the
// schema.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return db, nil
}
