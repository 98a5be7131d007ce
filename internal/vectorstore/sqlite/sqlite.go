// Package sqlite is a persistent single-file vector store. Records and their
// vectors live in one table; nearest-vector queries scan the (optionally
// doc-scoped) rows and rank them by cosine distance.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/Kumaryan12/mini-rag/internal/domain"
	"github.com/Kumaryan12/mini-rag/internal/vectorstore"
)

var tablePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store is a SQLite-backed vector store.
type Store struct {
	db    *sql.DB
	path  string
	table string
}

// NewStore opens (creating if needed) the database at path.
func NewStore(path, table string) (*Store, error) {
	if path == "" {
		return nil, domain.ConfigError("sqlite", "path is required")
	}
	if table == "" {
		table = "doc_chunks"
	}
	if !tablePattern.MatchString(table) {
		return nil, domain.ConfigError("sqlite", "invalid table name %q", table)
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == ":memory:" {
		// Each connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}
	return &Store{db: db, path: path, table: table}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s (
			chunk_id     TEXT PRIMARY KEY,
			doc_id       TEXT NOT NULL,
			source       TEXT NOT NULL DEFAULT '',
			title        TEXT NOT NULL DEFAULT '',
			section      TEXT NOT NULL DEFAULT '',
			position     INTEGER NOT NULL,
			text         TEXT NOT NULL,
			url          TEXT NOT NULL DEFAULT '',
			published_at TEXT NOT NULL DEFAULT '',
			vector       BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%[1]s_doc_id ON %[1]s(doc_id);
	`, s.table))
	if err != nil {
		return fmt.Errorf("creating %s table: %w", s.table, err)
	}
	return nil
}

// Reset drops the table and recreates it empty.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+s.table); err != nil {
		return fmt.Errorf("dropping %s table: %w", s.table, err)
	}
	return s.EnsureSchema(ctx)
}

// WriteBatch inserts the records in one transaction, so a batch is written
// entirely or not at all.
func (s *Store) WriteBatch(ctx context.Context, records []domain.IndexedRecord) (domain.WriteAck, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.WriteAck{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT OR REPLACE INTO %s
			(chunk_id, doc_id, source, title, section, position, text, url, published_at, vector)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table))
	if err != nil {
		return domain.WriteAck{}, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	objects := make([]domain.ObjectStatus, len(records))
	for i, r := range records {
		_, err := stmt.ExecContext(ctx, r.ChunkID, r.DocID, r.Source, r.Title, r.Section,
			r.Position, r.Text, r.URL, r.PublishedAt, encodeVector(r.Vector))
		if err != nil {
			return domain.WriteAck{}, fmt.Errorf("inserting chunk %s: %w", r.ChunkID, err)
		}
		objects[i] = domain.ObjectStatus{ID: r.ChunkID}
	}
	if err := tx.Commit(); err != nil {
		return domain.WriteAck{}, fmt.Errorf("committing batch: %w", err)
	}
	return domain.WriteAck{Objects: objects}, nil
}

// NearestTo applies the doc_id filter in SQL and ranks what remains.
func (s *Store) NearestTo(ctx context.Context, vector []float32, q domain.NearQuery) ([]domain.RetrievedHit, error) {
	query := fmt.Sprintf(`SELECT chunk_id, doc_id, source, title, section, position, text, url, vector FROM %s`, s.table)
	var args []any
	if q.DocID != "" {
		query += " WHERE doc_id = ?"
		args = append(args, q.DocID)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var hits []domain.RetrievedHit
	for rows.Next() {
		var (
			r    domain.IndexedRecord
			blob []byte
		)
		if err := rows.Scan(&r.ChunkID, &r.DocID, &r.Source, &r.Title, &r.Section,
			&r.Position, &r.Text, &r.URL, &blob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		hits = append(hits, vectorstore.Hit(r, vectorstore.CosineDistance(vector, decodeVector(blob))))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return vectorstore.Nearest(hits, q.Limit), nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+s.table).Scan(&n)
	return n, err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
