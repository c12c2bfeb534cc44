// Package vectorstore implements the VectorStore of spec §4.4 and §6:
// a named-vector collection with ensure_collection/upsert/search/
// delete_by_prefix/inventory, backed by Postgres + pgvector.
//
// The teacher's internal/adapters/postgres.go split storage across two
// tables (rag_documents, document_chunks) built around a UUID primary
// key; this collapses that into the single wide table the spec's
// Vector-store object schema (§6) names, keyed by chunk_id, since this
// pipeline has no separate "document" concept above a chunk. The actual
// backend in original_source is Weaviate (see
// original_source/pipeline-advanced/update_weaviate.py for the named
// vector / HNSW / omit-empty-field semantics this package mirrors); no
// Go example in the pack provides a Weaviate client, so the teacher's
// already-wired pgx/v5 + pgvector-go stack grounds the implementation
// instead (DESIGN.md).
package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/hsn0918/ragctl/internal/errs"
)

// Object is one vector-store record: the Chunk fields plus its vector
// (spec §3's "Vector-store object").
type Object struct {
	ChunkID      string            `json:"chunk_id"`
	Text         string            `json:"text"`
	ApproxTokens int               `json:"approx_tokens"`
	Keywords     []string          `json:"keywords,omitempty"`
	CreatedAt    string            `json:"created_at"`
	ModelName    string            `json:"model_name"`
	ModelVersion string            `json:"model_version"`
	Headings     map[string]string `json:"headings,omitempty"`
	Heading      map[string]string `json:"heading,omitempty"`
	FullHeadings string            `json:"full_headings,omitempty"`
	Embedding    []float32         `json:"embedding"`
}

// SearchResult is one ranked hit from Search.
type SearchResult struct {
	Object
	Distance float64 `json:"distance"` // 1 - cosine_similarity
}

// Inventory is the result of Inventory: total object count and
// per-source-stem counts.
type Inventory struct {
	Total     int            `json:"total"`
	PerSource map[string]int `json:"per_source"`
}

// Store is a Postgres/pgvector-backed VectorStore. One *Store serves any
// number of named collections (tables); the pgxpool.Pool is safe for
// concurrent use by upserts and searches alike (spec §5).
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to dsn and enables the pgvector extension.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errs.New(errs.KindPermanentNetwork, "vectorstore.Open", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, errs.New(errs.KindTransientNetwork, "vectorstore.Open", err)
	}
	if _, err := pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector;"); err != nil {
		return nil, errs.New(errs.KindPermanentNetwork, "vectorstore.Open", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() { s.pool.Close() }

var collectionNameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func tableName(collection string) (string, error) {
	if !collectionNameRe.MatchString(collection) {
		return "", errs.New(errs.KindSchemaConflict, "vectorstore", fmt.Errorf("invalid collection name %q", collection))
	}
	return collection, nil
}

// EnsureCollection creates a collection (table) with vectorization
// disabled, properties matching the Chunk model, and a named vector slot
// "text" backed by an HNSW index. If recreate is true an existing
// collection is dropped first; otherwise a dimension mismatch against an
// existing table surfaces as SchemaConflict.
func (s *Store) EnsureCollection(ctx context.Context, collection string, dim int, recreate bool) error {
	table, err := tableName(collection)
	if err != nil {
		return err
	}

	if recreate {
		if _, err := s.pool.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s;`, pgx.Identifier{table}.Sanitize())); err != nil {
			return errs.New(errs.KindPermanentNetwork, "EnsureCollection", err)
		}
	} else {
		existingDim, exists, err := s.vectorDimension(ctx, table)
		if err != nil {
			return err
		}
		if exists && existingDim != dim {
			return errs.New(errs.KindSchemaConflict, "EnsureCollection",
				fmt.Errorf("collection %q has vector dim %d, want %d (run without --no-recreate to recreate it)", collection, existingDim, dim))
		}
	}

	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
	chunk_id TEXT PRIMARY KEY,
	text TEXT NOT NULL,
	approx_tokens INT NOT NULL,
	keywords TEXT[],
	created_at TEXT,
	model_name TEXT,
	model_version TEXT,
	headings JSONB,
	heading JSONB,
	full_headings TEXT,
	embedding vector(%[2]d)
);`, pgx.Identifier{table}.Sanitize(), dim)

	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return errs.New(errs.KindPermanentNetwork, "EnsureCollection", err)
	}

	idx := fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS %[1]s_embedding_hnsw ON %[2]s USING hnsw (embedding vector_cosine_ops);`,
		table, pgx.Identifier{table}.Sanitize())
	if _, err := s.pool.Exec(ctx, idx); err != nil {
		return errs.New(errs.KindPermanentNetwork, "EnsureCollection", err)
	}
	return nil
}

func (s *Store) vectorDimension(ctx context.Context, table string) (int, bool, error) {
	var dim int
	err := s.pool.QueryRow(ctx, `
SELECT atttypmod
FROM pg_attribute a
JOIN pg_class c ON a.attrelid = c.oid
WHERE c.relname = $1 AND a.attname = 'embedding' AND a.attnum > 0;`, table).Scan(&dim)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, errs.New(errs.KindTransientNetwork, "vectorDimension", err)
	}
	return dim, true, nil
}

// collectionExists reports whether the table backing collection exists.
func (s *Store) collectionExists(ctx context.Context, table string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM pg_tables WHERE tablename = $1);`, table).Scan(&exists)
	if err != nil {
		return false, errs.New(errs.KindTransientNetwork, "collectionExists", err)
	}
	return exists, nil
}

// Upsert inserts or replaces obj by chunk_id. Only non-empty optional
// fields (headings, heading, full_headings) are written; empty ones are
// stored as SQL NULL so a reader (or a future Weaviate migration) can
// distinguish "absent" from "empty object" per spec's Design Notes.
func (s *Store) Upsert(ctx context.Context, collection string, obj Object, dim int) error {
	table, err := tableName(collection)
	if err != nil {
		return err
	}
	if len(obj.Embedding) != dim {
		return errs.New(errs.KindVectorDimensionMismatch, "Upsert",
			fmt.Errorf("chunk %q: embedding has %d dims, collection expects %d", obj.ChunkID, len(obj.Embedding), dim))
	}

	exists, err := s.collectionExists(ctx, table)
	if err != nil {
		return err
	}
	if !exists {
		return errs.New(errs.KindCollectionMissing, "Upsert", fmt.Errorf("collection %q does not exist", collection))
	}

	headings, err := nullableJSON(obj.Headings)
	if err != nil {
		return err
	}
	heading, err := nullableJSON(obj.Heading)
	if err != nil {
		return err
	}

	sql := fmt.Sprintf(`
INSERT INTO %s (chunk_id, text, approx_tokens, keywords, created_at, model_name, model_version, headings, heading, full_headings, embedding)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (chunk_id) DO UPDATE SET
	text = EXCLUDED.text,
	approx_tokens = EXCLUDED.approx_tokens,
	keywords = EXCLUDED.keywords,
	created_at = EXCLUDED.created_at,
	model_name = EXCLUDED.model_name,
	model_version = EXCLUDED.model_version,
	headings = EXCLUDED.headings,
	heading = EXCLUDED.heading,
	full_headings = EXCLUDED.full_headings,
	embedding = EXCLUDED.embedding;`, pgx.Identifier{table}.Sanitize())

	_, err = s.pool.Exec(ctx, sql,
		obj.ChunkID, obj.Text, obj.ApproxTokens, obj.Keywords, obj.CreatedAt,
		obj.ModelName, obj.ModelVersion, headings, heading, emptyToNil(obj.FullHeadings),
		pgvector.NewVector(obj.Embedding))
	if err != nil {
		return errs.New(errs.KindTransientNetwork, "Upsert", err)
	}
	return nil
}

// Search returns the k nearest objects to queryVector by cosine distance
// on the "text" vector (spec §4.4).
func (s *Store) Search(ctx context.Context, collection string, queryVector []float32, k int) ([]SearchResult, error) {
	table, err := tableName(collection)
	if err != nil {
		return nil, err
	}
	exists, err := s.collectionExists(ctx, table)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errs.New(errs.KindCollectionMissing, "Search", fmt.Errorf("collection %q does not exist", collection))
	}

	sql := fmt.Sprintf(`
SELECT chunk_id, text, approx_tokens, keywords, created_at, model_name, model_version, headings, heading, full_headings,
       (embedding <=> $1) AS distance
FROM %s
ORDER BY embedding <=> $1
LIMIT $2;`, pgx.Identifier{table}.Sanitize())

	rows, err := s.pool.Query(ctx, sql, pgvector.NewVector(queryVector), k)
	if err != nil {
		return nil, errs.New(errs.KindTransientNetwork, "Search", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var (
			r              SearchResult
			headingsRaw    []byte
			headingRaw     []byte
			fullHeadingsNS *string
		)
		if err := rows.Scan(&r.ChunkID, &r.Text, &r.ApproxTokens, &r.Keywords, &r.CreatedAt,
			&r.ModelName, &r.ModelVersion, &headingsRaw, &headingRaw, &fullHeadingsNS, &r.Distance); err != nil {
			return nil, errs.New(errs.KindTransientNetwork, "Search", err)
		}
		if len(headingsRaw) > 0 {
			_ = json.Unmarshal(headingsRaw, &r.Headings)
		}
		if len(headingRaw) > 0 {
			_ = json.Unmarshal(headingRaw, &r.Heading)
		}
		if fullHeadingsNS != nil {
			r.FullHeadings = *fullHeadingsNS
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// DeleteByPrefix removes all objects whose chunk_id matches "<stem>-<digits>".
func (s *Store) DeleteByPrefix(ctx context.Context, collection, stem string) (int, error) {
	table, err := tableName(collection)
	if err != nil {
		return 0, err
	}
	sql := fmt.Sprintf(`DELETE FROM %s WHERE chunk_id ~ $1;`, pgx.Identifier{table}.Sanitize())
	pattern := "^" + regexp.QuoteMeta(stem) + "-[0-9]+$"
	tag, err := s.pool.Exec(ctx, sql, pattern)
	if err != nil {
		return 0, errs.New(errs.KindTransientNetwork, "DeleteByPrefix", err)
	}
	return int(tag.RowsAffected()), nil
}

// Inventory returns the total object count and per-source-stem counts.
// The source stem is recovered from chunk_id's "<stem>-<n>" shape.
func (s *Store) Inventory(ctx context.Context, collection string) (Inventory, error) {
	table, err := tableName(collection)
	if err != nil {
		return Inventory{}, err
	}
	exists, err := s.collectionExists(ctx, table)
	if err != nil {
		return Inventory{}, err
	}
	if !exists {
		return Inventory{}, errs.New(errs.KindCollectionMissing, "Inventory", fmt.Errorf("collection %q does not exist", collection))
	}

	sql := fmt.Sprintf(`SELECT chunk_id FROM %s;`, pgx.Identifier{table}.Sanitize())
	rows, err := s.pool.Query(ctx, sql)
	if err != nil {
		return Inventory{}, errs.New(errs.KindTransientNetwork, "Inventory", err)
	}
	defer rows.Close()

	inv := Inventory{PerSource: map[string]int{}}
	stemRe := regexp.MustCompile(`^(.*)-[0-9]+$`)
	for rows.Next() {
		var chunkID string
		if err := rows.Scan(&chunkID); err != nil {
			return Inventory{}, errs.New(errs.KindTransientNetwork, "Inventory", err)
		}
		inv.Total++
		if m := stemRe.FindStringSubmatch(chunkID); m != nil {
			inv.PerSource[m[1]]++
		}
	}
	return inv, rows.Err()
}

func nullableJSON(m map[string]string) (interface{}, error) {
	if len(m) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, errs.New(errs.KindInputMalformed, "nullableJSON", err)
	}
	return b, nil
}

func emptyToNil(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
