package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Repository persists inventory records in SQL so the CLI can ingest a
// feed once and every process can load the same catalog. Records are
// stored as JSON documents; the schema of a vehicle row belongs to the
// feed, not the database.
type Repository struct {
	db     *sql.DB
	driver string
}

// RepositoryConfig holds database connection settings.
type RepositoryConfig struct {
	Driver          string // sqlite or postgres
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// OpenRepository opens the inventory database.
func OpenRepository(cfg RepositoryConfig) (*Repository, error) {
	driverName := cfg.Driver
	if driverName == "sqlite" {
		driverName = "sqlite3"
	}

	db, err := sql.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return &Repository{db: db, driver: cfg.Driver}, nil
}

// Init creates the inventory table if it does not exist.
func (r *Repository) Init(ctx context.Context) error {
	ddl := `CREATE TABLE IF NOT EXISTS vehicles (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		data TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create vehicles table: %w", err)
	}
	return nil
}

// ReplaceAll swaps the stored inventory for the given records in one
// transaction. Matches the catalog lifecycle: full replacement, never
// incremental update.
func (r *Repository) ReplaceAll(ctx context.Context, records []Record) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM vehicles`); err != nil {
		return fmt.Errorf("clear vehicles: %w", err)
	}

	insert := `INSERT INTO vehicles (id, position, data, created_at) VALUES ($1, $2, $3, $4)`
	if r.driver == "sqlite" {
		insert = `INSERT INTO vehicles (id, position, data, created_at) VALUES (?, ?, ?, ?)`
	}

	now := time.Now().UTC()
	for i, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal record %d: %w", i, err)
		}
		if _, err := tx.ExecContext(ctx, insert, uuid.NewString(), i, string(data), now); err != nil {
			return fmt.Errorf("insert record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

// ListRecords loads every stored inventory record.
func (r *Repository) ListRecords(ctx context.Context) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT data FROM vehicles ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan vehicle: %w", err)
		}
		var rec Record
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal vehicle: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vehicles: %w", err)
	}
	return records, nil
}

// Count returns the number of stored records.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vehicles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count vehicles: %w", err)
	}
	return n, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}
