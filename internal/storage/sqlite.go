//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"copperhorn/internal/model"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveOrganism(ctx context.Context, record model.OrganismRecord) error {
	if record.ID == "" {
		return errors.New("organism id is required")
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return err
	}
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeOrganism(record)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO organisms (id, schema_version, codec_version, activation, hidden_count, output_count, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			activation = excluded.activation,
			hidden_count = excluded.hidden_count,
			output_count = excluded.output_count,
			payload = excluded.payload
	`, record.ID, record.SchemaVersion, record.CodecVersion, record.Activation, len(record.Hidden), len(record.Outputs), payload)
	return err
}

func (s *SQLiteStore) GetOrganism(ctx context.Context, id string) (model.OrganismRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.OrganismRecord{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM organisms WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.OrganismRecord{}, false, nil
		}
		return model.OrganismRecord{}, false, err
	}

	record, err := DecodeOrganism(payload)
	if err != nil {
		return model.OrganismRecord{}, false, fmt.Errorf("decode organism %s: %w", id, err)
	}
	return record, true, nil
}

func (s *SQLiteStore) ListOrganisms(ctx context.Context) ([]model.OrganismSummary, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, activation, hidden_count, output_count
		FROM organisms
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]model.OrganismSummary, 0)
	for rows.Next() {
		var summary model.OrganismSummary
		if err := rows.Scan(&summary.ID, &summary.Activation, &summary.HiddenCount, &summary.OutputCount); err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

func (s *SQLiteStore) DeleteOrganism(ctx context.Context, id string) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `DELETE FROM organisms WHERE id = ?`, id)
	return err
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errNotInitialized
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS organisms (
			id TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			activation TEXT NOT NULL,
			hidden_count INTEGER NOT NULL,
			output_count INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
	`)
	return err
}
