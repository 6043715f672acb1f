package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/profilekeeper/internal/client/migrations"
	"github.com/dmitrijs2005/profilekeeper/internal/client/repositories/kv"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens the local SQLite database at dsn and migrates it.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// NewKVRepository opens the database and returns the key/value repository on top of it.
func NewKVRepository(ctx context.Context, dsn string) (*kv.SQLiteRepository, *sql.DB, error) {
	db, err := InitDatabase(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	return kv.NewSQLiteRepository(db), db, nil
}
