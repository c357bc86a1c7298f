package vector

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteIndex persists schema documents and their embeddings in a local
// sqlite database. Queries score candidates by cosine similarity over the
// stored embeddings; the schema catalog is small, so a full scan is fine.
// When built with the sqlite_vec tag the vec extension is registered with
// the driver for callers that want ANN queries on the same file.
type SQLiteIndex struct {
	db       *sql.DB
	embedder Embedder

	mu sync.RWMutex
}

// NewSQLiteIndex opens (or creates) the index database at path.
func NewSQLiteIndex(path string, embedder Embedder) (*SQLiteIndex, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector index: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_documents (
		id TEXT PRIMARY KEY,
		doctype TEXT NOT NULL,
		content TEXT NOT NULL,
		embedding TEXT NOT NULL,
		metadata TEXT
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize vector index: %w", err)
	}

	return &SQLiteIndex{db: db, embedder: embedder}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}

// Rebuild replaces the entire index with the given documents.
func (s *SQLiteIndex) Rebuild(ctx context.Context, docs []Document) error {
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Text
	}

	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed schema documents: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin rebuild: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM schema_documents`); err != nil {
		return fmt.Errorf("failed to clear vector index: %w", err)
	}

	for i, doc := range docs {
		embJSON, err := json.Marshal(embeddings[i])
		if err != nil {
			return fmt.Errorf("failed to serialize embedding for %s: %w", doc.ID, err)
		}
		metaJSON, _ := json.Marshal(doc.Metadata)

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schema_documents (id, doctype, content, embedding, metadata) VALUES (?, ?, ?, ?, ?)`,
			doc.ID, doc.Doctype, doc.Text, string(embJSON), string(metaJSON),
		); err != nil {
			return fmt.Errorf("failed to store document %s: %w", doc.ID, err)
		}
	}

	return tx.Commit()
}

// Query returns the topK doctypes nearest to text.
func (s *SQLiteIndex) Query(ctx context.Context, text string, topK int) ([]Candidate, error) {
	if topK <= 0 {
		topK = 3
	}

	queryVec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT doctype, embedding FROM schema_documents`)
	if err != nil {
		return nil, fmt.Errorf("failed to scan vector index: %w", err)
	}
	defer rows.Close()

	var candidates []Candidate
	for rows.Next() {
		var doctype, embJSON string
		if err := rows.Scan(&doctype, &embJSON); err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}

		var emb []float32
		if err := json.Unmarshal([]byte(embJSON), &emb); err != nil {
			continue
		}

		sim, err := CosineSimilarity(queryVec, emb)
		if err != nil {
			continue
		}
		candidates = append(candidates, Candidate{Doctype: doctype, Similarity: sim})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Similarity > candidates[j].Similarity
	})
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates, nil
}
