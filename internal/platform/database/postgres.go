package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"codenotes/internal/platform/config"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

//go:embed schema_postgres.sql
var postgresSchema string

//go:embed schema_sqlite.sql
var sqliteSchema string

var (
	DB      *sql.DB
	Current Dialect
)

// Connect opens the database selected by config.AppConfig and applies the schema.
func Connect(ctx context.Context) error {
	dialect, err := ParseDialect(config.AppConfig.DBDriver)
	if err != nil {
		return err
	}
	dsn := config.AppConfig.DBConnStr
	if dialect == SQLite {
		dsn = config.AppConfig.SQLitePath
	}
	db, err := Open(ctx, dialect, dsn)
	if err != nil {
		return err
	}
	DB, Current = db, dialect
	return nil
}

// Open connects to dsn with the driver for d, verifies the connection and
// migrates the schema.
func Open(ctx context.Context, d Dialect, dsn string) (*sql.DB, error) {
	if d == SQLite {
		dsn = "file:" + dsn + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if d == SQLite {
		// One writer at a time; more connections only buy SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	if err = Migrate(ctx, db, d); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates any missing tables and indexes.
func Migrate(ctx context.Context, db *sql.DB, d Dialect) error {
	schema := postgresSchema
	if d == SQLite {
		schema = sqliteSchema
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply %s schema: %w", d, err)
	}
	return nil
}

func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}
