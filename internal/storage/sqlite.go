package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Parallel embedding writes go through one connection to avoid SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS embeddings (
		key TEXT PRIMARY KEY,
		model TEXT NOT NULL,
		dimensions INTEGER NOT NULL,
		vector BLOB NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_embeddings_model ON embeddings(model);
	`
	_, err := db.Exec(schema)
	return err
}

// GetEmbedding returns the stored vector for key. The bool is false when no row exists.
func (s *SQLiteStorage) GetEmbedding(ctx context.Context, key string) ([]float32, bool, error) {
	var dims int
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT dimensions, vector FROM embeddings WHERE key = ?`, key,
	).Scan(&dims, &blob)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if len(blob) != dims*4 {
		return nil, false, fmt.Errorf("corrupt embedding %s: %d bytes for %d dimensions", key, len(blob), dims)
	}
	return bytesToFloat32Slice(blob), true, nil
}

// PutEmbedding inserts or replaces the vector stored under key.
func (s *SQLiteStorage) PutEmbedding(ctx context.Context, key, model string, vec []float32) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO embeddings (key, model, dimensions, vector, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET model = excluded.model, dimensions = excluded.dimensions,
		   vector = excluded.vector, created_at = excluded.created_at`,
		key, model, len(vec), float32SliceToBytes(vec), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to store embedding: %w", err)
	}
	return nil
}

// CountEmbeddings returns the total number of stored embeddings.
func (s *SQLiteStorage) CountEmbeddings(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embeddings`).Scan(&n)
	return n, err
}

// CountByModel returns the number of stored embeddings per model.
func (s *SQLiteStorage) CountByModel(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT model, COUNT(*) FROM embeddings GROUP BY model`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]int64)
	for rows.Next() {
		var model string
		var n int64
		if err := rows.Scan(&model, &n); err != nil {
			return nil, err
		}
		out[model] = n
	}
	return out, rows.Err()
}

// Clear deletes every stored embedding and returns how many were removed.
func (s *SQLiteStorage) Clear(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM embeddings`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}
