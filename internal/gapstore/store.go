// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package gapstore persists the catalog of open research problems in a
// SQLite database. Entry identity is the source URL: re-imports upsert,
// and a content change invalidates the entry's stored embedding so the
// backfill task recomputes it. Assessments only read the store; the
// import and maintenance tasks are the only writers.
package gapstore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/pdiddy/research-advisor/pkg/types"
)

// defaultBacklogLimit bounds the maintenance queries so a huge catalog
// cannot pin one backfill run forever.
const defaultBacklogLimit = 500

const gapColumns = `id, title, description, source, source_url, category, tags,
	topic, subfield, field, domain, embedding, scraped_at, created_at`

// Store manages the gap catalog database.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

// Open opens or creates the gap store at path and ensures the schema
// exists. A nil logger disables logging.
func Open(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening gap store: %w", err)
	}

	s := &Store{db: db, log: log}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating gap store schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS gaps (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT '',
			source_url TEXT NOT NULL UNIQUE,
			category TEXT NOT NULL DEFAULT '',
			tags TEXT,
			topic TEXT NOT NULL DEFAULT '',
			subfield TEXT NOT NULL DEFAULT '',
			field TEXT NOT NULL DEFAULT '',
			domain TEXT NOT NULL DEFAULT '',
			embedding BLOB,
			scraped_at TEXT,
			created_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_gaps_category ON gaps(category)`,
		`CREATE INDEX IF NOT EXISTS idx_gaps_source ON gaps(source)`,
		`CREATE INDEX IF NOT EXISTS idx_gaps_taxonomy ON gaps(domain, field, subfield)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Upsert inserts the entry or updates the existing row with the same
// source URL. When the title or description changed, the stored embedding
// is cleared so the backfill recomputes it; stored taxonomy labels are
// never overwritten by an import. The entry's ID and timestamps are
// filled in on return.
func (s *Store) Upsert(ctx context.Context, entry *types.GapEntry) error {
	if entry.SourceURL == "" {
		return fmt.Errorf("gap entry %q has no source_url", entry.Title)
	}
	now := time.Now().UTC()
	tagsJSON, _ := json.Marshal(entry.Tags)

	var existingID int64
	var oldTitle, oldDescription string
	var createdAt sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, created_at FROM gaps WHERE source_url = ?`,
		entry.SourceURL,
	).Scan(&existingID, &oldTitle, &oldDescription, &createdAt)

	switch {
	case err == sql.ErrNoRows:
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO gaps (title, description, source, source_url, category, tags,
				topic, subfield, field, domain, embedding, scraped_at, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			entry.Title, entry.Description, entry.Source, entry.SourceURL,
			entry.Category, string(tagsJSON),
			entry.Topic, entry.Subfield, entry.Field, entry.Domain,
			encodeEmbedding(entry.Embedding),
			now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("inserting gap entry: %w", err)
		}
		entry.ID, _ = res.LastInsertId()
		entry.ScrapedAt, entry.CreatedAt = now, now
		return nil
	case err != nil:
		return fmt.Errorf("looking up gap entry: %w", err)
	}

	contentChanged := entry.Title != oldTitle || entry.Description != oldDescription
	if contentChanged {
		_, err = s.db.ExecContext(ctx,
			`UPDATE gaps SET title = ?, description = ?, source = ?, category = ?,
				tags = ?, embedding = NULL, scraped_at = ? WHERE id = ?`,
			entry.Title, entry.Description, entry.Source, entry.Category,
			string(tagsJSON), now.Format(time.RFC3339Nano), existingID,
		)
	} else {
		_, err = s.db.ExecContext(ctx,
			`UPDATE gaps SET source = ?, category = ?, tags = ?, scraped_at = ? WHERE id = ?`,
			entry.Source, entry.Category, string(tagsJSON),
			now.Format(time.RFC3339Nano), existingID,
		)
	}
	if err != nil {
		return fmt.Errorf("updating gap entry: %w", err)
	}
	if contentChanged {
		entry.Embedding = nil
	}
	entry.ID = existingID
	entry.ScrapedAt = now
	entry.CreatedAt = parseStoredTime(createdAt.String)
	return nil
}

// All returns every entry in insertion order.
func (s *Store) All(ctx context.Context) ([]types.GapEntry, error) {
	return s.queryEntries(ctx, `SELECT `+gapColumns+` FROM gaps ORDER BY id`)
}

// ByCategory returns entries with the exact catalog category.
func (s *Store) ByCategory(ctx context.Context, category string) ([]types.GapEntry, error) {
	return s.queryEntries(ctx,
		`SELECT `+gapColumns+` FROM gaps WHERE category = ? ORDER BY id`, category)
}

// BySource returns entries from the named catalog.
func (s *Store) BySource(ctx context.Context, source string) ([]types.GapEntry, error) {
	return s.queryEntries(ctx,
		`SELECT `+gapColumns+` FROM gaps WHERE source = ? ORDER BY id`, source)
}

// ByTaxonomy returns entries matching any of the given taxonomy levels
// exactly (OR-combined). Empty arguments are not matched; all-empty
// arguments return nothing.
func (s *Store) ByTaxonomy(ctx context.Context, domain, field, subfield string, limit int) ([]types.GapEntry, error) {
	var conditions []string
	var args []any
	if domain != "" {
		conditions = append(conditions, "domain = ?")
		args = append(args, domain)
	}
	if field != "" {
		conditions = append(conditions, "field = ?")
		args = append(args, field)
	}
	if subfield != "" {
		conditions = append(conditions, "subfield = ?")
		args = append(args, subfield)
	}
	if len(conditions) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultBacklogLimit
	}
	args = append(args, limit)
	return s.queryEntries(ctx,
		`SELECT `+gapColumns+` FROM gaps WHERE `+strings.Join(conditions, " OR ")+` ORDER BY id LIMIT ?`,
		args...)
}

// WithoutEmbedding returns entries awaiting the embedding backfill.
func (s *Store) WithoutEmbedding(ctx context.Context, limit int) ([]types.GapEntry, error) {
	if limit <= 0 {
		limit = defaultBacklogLimit
	}
	return s.queryEntries(ctx,
		`SELECT `+gapColumns+` FROM gaps WHERE embedding IS NULL ORDER BY id LIMIT ?`, limit)
}

// WithoutTaxonomy returns entries awaiting taxonomy enrichment.
func (s *Store) WithoutTaxonomy(ctx context.Context, limit int) ([]types.GapEntry, error) {
	if limit <= 0 {
		limit = defaultBacklogLimit
	}
	return s.queryEntries(ctx,
		`SELECT `+gapColumns+` FROM gaps
		 WHERE topic = '' AND subfield = '' AND field = '' AND domain = ''
		 ORDER BY id LIMIT ?`, limit)
}

// UpdateEmbedding stores the entry's vector. Runs inside tx when given
// one, so the backfill can commit per batch.
func (s *Store) UpdateEmbedding(ctx context.Context, tx *sql.Tx, id int64, vec []float32) error {
	if len(vec) == 0 {
		return fmt.Errorf("refusing to store an empty embedding for gap %d", id)
	}
	const query = `UPDATE gaps SET embedding = ? WHERE id = ?`
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, encodeEmbedding(vec), id)
	} else {
		_, err = s.db.ExecContext(ctx, query, encodeEmbedding(vec), id)
	}
	if err != nil {
		return fmt.Errorf("updating embedding for gap %d: %w", id, err)
	}
	return nil
}

// UpdateTaxonomy stores the entry's taxonomy labels. Runs inside tx when
// given one, so the enricher can batch its commits.
func (s *Store) UpdateTaxonomy(ctx context.Context, tx *sql.Tx, id int64, domain, field, subfield, topic string) error {
	const query = `UPDATE gaps SET domain = ?, field = ?, subfield = ?, topic = ? WHERE id = ?`
	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, domain, field, subfield, topic, id)
	} else {
		_, err = s.db.ExecContext(ctx, query, domain, field, subfield, topic, id)
	}
	if err != nil {
		return fmt.Errorf("updating taxonomy for gap %d: %w", id, err)
	}
	return nil
}

// Begin starts a write transaction for batched maintenance updates.
func (s *Store) Begin(ctx context.Context) (*sql.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning gap store transaction: %w", err)
	}
	return tx, nil
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]types.GapEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying gap entries: %w", err)
	}
	defer rows.Close()

	var entries []types.GapEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating gap entries: %w", err)
	}
	return entries, nil
}

func scanEntry(rows *sql.Rows) (types.GapEntry, error) {
	var entry types.GapEntry
	var tagsJSON sql.NullString
	var embedding []byte
	var scrapedAt, createdAt sql.NullString

	err := rows.Scan(&entry.ID, &entry.Title, &entry.Description, &entry.Source,
		&entry.SourceURL, &entry.Category, &tagsJSON,
		&entry.Topic, &entry.Subfield, &entry.Field, &entry.Domain,
		&embedding, &scrapedAt, &createdAt)
	if err != nil {
		return types.GapEntry{}, fmt.Errorf("scanning gap entry: %w", err)
	}

	if tagsJSON.Valid && tagsJSON.String != "" {
		// Tags were stored by us; a decode failure means a corrupt row.
		if err := json.Unmarshal([]byte(tagsJSON.String), &entry.Tags); err != nil {
			return types.GapEntry{}, fmt.Errorf("decoding tags for gap %d: %w", entry.ID, err)
		}
	}
	entry.Embedding = decodeEmbedding(embedding)
	entry.ScrapedAt = parseStoredTime(scrapedAt.String)
	entry.CreatedAt = parseStoredTime(createdAt.String)
	return entry, nil
}

func parseStoredTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// encodeEmbedding packs a vector as little-endian float32 bytes; nil for
// an empty vector so the column stays NULL.
func encodeEmbedding(vec []float32) []byte {
	if len(vec) == 0 {
		return nil
	}
	out := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

// decodeEmbedding unpacks a little-endian float32 blob. A truncated blob
// decodes its whole prefix.
func decodeEmbedding(data []byte) []float32 {
	if len(data) < 4 {
		return nil
	}
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out
}
