package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gapdash/internal/dataset"
	"gapdash/internal/logging"

	_ "modernc.org/sqlite"
)

// SourcePrefix marks a dataset source that lives in a SQLite file.
const SourcePrefix = "sqlite://"

// SchemaVersion is stored in PRAGMA user_version.
// v1: records + meta tables
const SchemaVersion = 1

// ErrEmpty is returned by Load when no dataset was saved yet.
var ErrEmpty = errors.New("store: no dataset saved")

// ParseSource returns the database path of a sqlite:// source.
func ParseSource(source string) (string, bool) {
	if !strings.HasPrefix(source, SourcePrefix) {
		return "", false
	}
	return strings.TrimPrefix(source, SourcePrefix), true
}

// DatasetStore keeps one dataset snapshot in a SQLite database.
type DatasetStore struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// Open creates or opens the database at path and applies the schema.
func Open(ctx context.Context, path string) (*DatasetStore, error) {
	timer := logging.StartTimer(logging.CategoryStore, "store.Open")
	defer timer.Stop()

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to open database at %s: %v", path, err)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}

	s := &DatasetStore{db: db, path: path}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logging.Store("Opened dataset store at %s", path)
	return s, nil
}

func (s *DatasetStore) migrate(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version >= SchemaVersion {
		return nil
	}
	logging.Store("Migrating dataset store schema v%d -> v%d", version, SchemaVersion)

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS records (
			position  INTEGER PRIMARY KEY,
			country   TEXT NOT NULL,
			continent TEXT NOT NULL,
			year      INTEGER NOT NULL,
			life_exp  REAL,
			pop       INTEGER,
			gdp       REAL,
			iso_alpha TEXT,
			iso_num   INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_continent_year ON records(continent, year)`,
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion),
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate schema: %w", err)
		}
	}
	return nil
}

// Path returns the database file path.
func (s *DatasetStore) Path() string {
	return s.path
}

// Close releases the database handle.
func (s *DatasetStore) Close() error {
	return s.db.Close()
}

// Save replaces the stored dataset with ds in one transaction.
func (s *DatasetStore) Save(ctx context.Context, ds *dataset.Dataset) error {
	timer := logging.StartTimer(logging.CategoryStore, "store.Save")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	nulls, err := json.Marshal(ds.NullColumns())
	if err != nil {
		return fmt.Errorf("encode null columns: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM records"); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO records
		(position, country, continent, year, life_exp, pop, gdp, iso_alpha, iso_num)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < ds.Len(); i++ {
		r := ds.At(i)
		if _, err := stmt.ExecContext(ctx, i, r.Country, r.Continent, r.Year,
			r.LifeExpectancy, r.Population, r.GDPPerCapita, r.ISO3, r.ISONumeric); err != nil {
			return fmt.Errorf("insert record %d: %w", i, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES ('null_columns', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, string(nulls)); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	logging.Store("Saved %d records to %s", ds.Len(), s.path)
	return nil
}

// Load reads the stored dataset back in its saved order.
func (s *DatasetStore) Load(ctx context.Context) (*dataset.Dataset, error) {
	timer := logging.StartTimer(logging.CategoryStore, "store.Load")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	var rawNulls string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = 'null_columns'").Scan(&rawNulls)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("read meta: %w", err)
	}
	var nulls []string
	if err := json.Unmarshal([]byte(rawNulls), &nulls); err != nil {
		return nil, fmt.Errorf("decode null columns: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT country, continent, year, life_exp, pop, gdp, iso_alpha, iso_num
		FROM records ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var recs []dataset.Record
	for rows.Next() {
		var r dataset.Record
		var iso sql.NullString
		var isoNum sql.NullInt64
		if err := rows.Scan(&r.Country, &r.Continent, &r.Year, &r.LifeExpectancy,
			&r.Population, &r.GDPPerCapita, &iso, &isoNum); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		r.ISO3 = iso.String
		r.ISONumeric = int(isoNum.Int64)
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	logging.StoreDebug("Loaded %d records from %s", len(recs), s.path)
	return dataset.New(recs, nulls...), nil
}

// LoadDataset opens path, reads the dataset and closes the store.
func LoadDataset(ctx context.Context, path string) (*dataset.Dataset, error) {
	s, err := Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.Load(ctx)
}

// SaveDataset opens path, replaces its dataset with ds and closes the store.
func SaveDataset(ctx context.Context, path string, ds *dataset.Dataset) error {
	s, err := Open(ctx, path)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.Save(ctx, ds)
}
