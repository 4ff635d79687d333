package rag

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// EmbeddingDim is the vector size stored in doc_chunk_embedding.
const EmbeddingDim = 768

type Repository interface {
	ReplaceChunks(ctx context.Context, chunks []DocChunk, embeddings [][]float32) error
	SearchSimilarChunks(ctx context.Context, embedding []float32, limit int) ([]DocChunk, error)
}

type PgRepository struct {
	db *pgxpool.Pool
}

func NewPgRepository(db *pgxpool.Pool) *PgRepository {
	return &PgRepository{db: db}
}

// EnsureSchema creates the pgvector extension and both tables if missing.
func (r *PgRepository) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS doc_chunk (
			id          BIGSERIAL PRIMARY KEY,
			source_key  TEXT NOT NULL,
			chunk_index INT NOT NULL,
			title       TEXT NOT NULL DEFAULT '',
			content     TEXT NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS doc_chunk_embedding (
			chunk_id   BIGINT PRIMARY KEY REFERENCES doc_chunk(id) ON DELETE CASCADE,
			embedding  vector(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, EmbeddingDim),
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(ctx, s); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// ReplaceChunks swaps the whole index for the given chunks in one
// transaction, so readers see either the old or the new corpus.
func (r *PgRepository) ReplaceChunks(ctx context.Context, chunks []DocChunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("chunks and embeddings length mismatch: %d != %d", len(chunks), len(embeddings))
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM doc_chunk`); err != nil {
		return fmt.Errorf("clear chunks: %w", err)
	}

	for i, c := range chunks {
		id, err := insertChunk(ctx, tx, c)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO doc_chunk_embedding (chunk_id, embedding)
			VALUES ($1, $2)
		`, id, pgvector.NewVector(embeddings[i]))
		if err != nil {
			return fmt.Errorf("insert embedding for %s#%d: %w", c.SourceKey, c.ChunkIndex, err)
		}
	}

	return tx.Commit(ctx)
}

func insertChunk(ctx context.Context, tx pgx.Tx, c DocChunk) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx, `
		INSERT INTO doc_chunk (source_key, chunk_index, title, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`,
		c.SourceKey,
		c.ChunkIndex,
		c.Title,
		c.Content,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert chunk %s#%d: %w", c.SourceKey, c.ChunkIndex, err)
	}
	return id, nil
}

// SearchSimilarChunks returns the chunks nearest to embedding by L2 distance.
func (r *PgRepository) SearchSimilarChunks(ctx context.Context, embedding []float32, limit int) ([]DocChunk, error) {
	if limit <= 0 {
		limit = defaultTopK
	}

	vec := pgvector.NewVector(embedding)

	rows, err := r.db.Query(ctx, `
		SELECT c.id, c.source_key, c.chunk_index, c.title, c.content, c.created_at
		FROM doc_chunk c
		JOIN doc_chunk_embedding e ON c.id = e.chunk_id
		ORDER BY e.embedding <-> $1
		LIMIT $2
	`, vec, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []DocChunk
	for rows.Next() {
		var c DocChunk
		if err := rows.Scan(
			&c.ID,
			&c.SourceKey,
			&c.ChunkIndex,
			&c.Title,
			&c.Content,
			&c.CreatedAt,
		); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}

	return chunks, rows.Err()
}

// PgRetriever embeds the question and searches the pgvector index.
type PgRetriever struct {
	repo       Repository
	embeddings EmbeddingsClient
}

func NewPgRetriever(repo Repository, embeddings EmbeddingsClient) *PgRetriever {
	return &PgRetriever{repo: repo, embeddings: embeddings}
}

func (p *PgRetriever) Retrieve(ctx context.Context, query string, limit int) ([]string, error) {
	vec, err := p.embeddings.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	chunks, err := p.repo.SearchSimilarChunks(ctx, vec, limit)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}

	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if c.Content != "" {
			out = append(out, c.Content)
		}
	}
	return out, nil
}

var _ Repository = (*PgRepository)(nil)
var _ Retriever = (*PgRetriever)(nil)
