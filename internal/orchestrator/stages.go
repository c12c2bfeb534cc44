package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hsn0918/ragctl/internal/artifacts"
	"github.com/hsn0918/ragctl/internal/cache"
	"github.com/hsn0918/ragctl/internal/chunking"
	"github.com/hsn0918/ragctl/internal/embedding"
	"github.com/hsn0918/ragctl/internal/errs"
	"github.com/hsn0918/ragctl/internal/logging"
	"github.com/hsn0918/ragctl/internal/ndjson"
	"github.com/hsn0918/ragctl/internal/rerank"
	"github.com/hsn0918/ragctl/internal/vectorstore"
)

// ChunksPath is the intermediate file a ChunkSource run writes
// (<path>.chunks.ndjson, spec §4.6).
func ChunksPath(markdownPath string) string { return markdownPath + ".chunks.ndjson" }

// EmbeddingsPath is the intermediate file an EmbedChunks run writes
// (<path>.embeddings.ndjson).
func EmbeddingsPath(chunksPath string) string { return chunksPath + ".embeddings.ndjson" }

// RerankedPath is the file a RerankResults run writes
// (<path>.reranked.ndjson).
func RerankedPath(resultsPath string) string { return resultsPath + ".reranked.ndjson" }

// CacheLogPath is the append-only embedding-cache file for (input, model)
// (<input>.<model>.emb_cache.ndjson).
func CacheLogPath(inputPath, modelName string) string {
	return fmt.Sprintf("%s.%s.emb_cache.ndjson", inputPath, modelName)
}

// SourceFromChunksPath recovers the original <src> a *.chunks.ndjson file
// was produced from, so the embed stage can key its cache log the same
// way a chunk stage run against <src> directly would.
func SourceFromChunksPath(chunksPath string) string {
	return strings.TrimSuffix(chunksPath, ".chunks.ndjson")
}

// maybePull fetches path from store under its base name if path doesn't
// already exist locally, letting a stage resume against intermediate files
// produced by a run on another machine (spec §4.6 EXPANSION). store == nil
// disables the artifact mirror entirely.
func maybePull(ctx context.Context, store *artifacts.Store, path string) error {
	if store == nil {
		return nil
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("orchestrator: stat %s: %w", path, err)
	}
	exists, err := store.Exists(ctx, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("orchestrator: check artifact %s: %w", path, err)
	}
	if !exists {
		return nil
	}
	if err := store.Pull(ctx, filepath.Base(path), path); err != nil {
		return fmt.Errorf("orchestrator: pull %s: %w", path, err)
	}
	return nil
}

// maybePush mirrors path to store under its base name. store == nil
// disables the artifact mirror entirely.
func maybePush(ctx context.Context, store *artifacts.Store, path string) error {
	if store == nil {
		return nil
	}
	if err := store.Push(ctx, filepath.Base(path), path); err != nil {
		return fmt.Errorf("orchestrator: push %s: %w", path, err)
	}
	return nil
}

// ChunkSource reads markdownPath, chunks it with budgetTokens, derives
// keywords for each chunk, and streams the result to its *.chunks.ndjson
// sibling file. It returns the output path and any non-fatal warnings.
// artifactStore, if non-nil, mirrors the output file to the configured
// bucket so a later stage can resume on another machine (spec §4.6
// EXPANSION); pass nil to disable.
func ChunkSource(ctx context.Context, markdownPath string, budgetTokens int, artifactStore *artifacts.Store) (string, []chunking.Warning, error) {
	source, err := os.ReadFile(markdownPath)
	if err != nil {
		return "", nil, fmt.Errorf("orchestrator: read %s: %w", markdownPath, err)
	}
	stem := strings.TrimSuffix(filepath.Base(markdownPath), filepath.Ext(markdownPath))

	result, err := chunking.Chunk(string(source), stem, budgetTokens)
	if err != nil {
		return "", nil, fmt.Errorf("orchestrator: chunk %s: %w", markdownPath, err)
	}

	outPath := ChunksPath(markdownPath)
	w, err := ndjson.Create(outPath)
	if err != nil {
		return "", nil, fmt.Errorf("orchestrator: create %s: %w", outPath, err)
	}

	for i := range result.Chunks {
		c := &result.Chunks[i]
		c.Keywords = chunking.ExtractKeywords(c.Text)
		if err := w.Write(c); err != nil {
			w.Close()
			return "", nil, fmt.Errorf("orchestrator: write %s: %w", outPath, err)
		}
	}
	if err := w.Close(); err != nil {
		return "", nil, fmt.Errorf("orchestrator: close %s: %w", outPath, err)
	}

	if err := maybePush(ctx, artifactStore, outPath); err != nil {
		return "", nil, err
	}

	return outPath, result.Warnings, nil
}

// EmbedChunks reads chunksPath, encodes each chunk's text through svc
// (batched, cache-aware), and streams embedding records to its
// *.embeddings.ndjson sibling file. Order is preserved (spec §5).
// artifactStore, if non-nil, pulls chunksPath first if it is missing
// locally and mirrors the output file afterward (spec §4.6 EXPANSION);
// pass nil to disable.
func EmbedChunks(ctx context.Context, chunksPath string, svc *embedding.Service, now func() time.Time, artifactStore *artifacts.Store) (string, error) {
	if err := maybePull(ctx, artifactStore, chunksPath); err != nil {
		return "", err
	}

	r, err := ndjson.Open(chunksPath)
	if err != nil {
		return "", fmt.Errorf("orchestrator: open %s: %w", chunksPath, err)
	}
	defer r.Close()

	var chunks []ChunkRecord
	var c ChunkRecord
	for r.Next(&c) {
		chunks = append(chunks, c)
		c = ChunkRecord{}
	}
	if r.Err() != nil {
		return "", fmt.Errorf("orchestrator: read %s: %w", chunksPath, r.Err())
	}

	texts := make([]string, len(chunks))
	for i, ck := range chunks {
		texts[i] = ck.Text
	}

	vectors, err := svc.Encode(ctx, texts)
	if err != nil {
		return "", err
	}

	outPath := EmbeddingsPath(chunksPath)
	w, err := ndjson.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("orchestrator: create %s: %w", outPath, err)
	}

	id := svc.Identity()
	createdAt := now().UTC().Format(time.RFC3339)
	for i, ck := range chunks {
		rec := fromChunk(ck, vectors[i], id, createdAt)
		if err := w.Write(rec); err != nil {
			w.Close()
			return "", fmt.Errorf("orchestrator: write %s: %w", outPath, err)
		}
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("orchestrator: close %s: %w", outPath, err)
	}

	if err := maybePush(ctx, artifactStore, outPath); err != nil {
		return "", err
	}

	return outPath, nil
}

// UpsertEmbeddings reads embeddingsPath and upserts every record into
// store's collection, creating the collection on first use (sized to the
// first record's vector dimensionality). It returns the number inserted.
// A VectorDimensionMismatch on one record is fatal only for that record
// (spec §7): it is skipped and upserting continues with the rest, but the
// returned error is non-nil so the caller exits non-zero at the end. Any
// other error aborts the run immediately, since it is not per-record (a
// broken connection or a missing collection affects every remaining
// record too). artifactStore, if non-nil, pulls embeddingsPath first if it
// is missing locally (spec §4.6 EXPANSION); pass nil to disable.
func UpsertEmbeddings(ctx context.Context, embeddingsPath string, store *vectorstore.Store, collection string, recreate bool, artifactStore *artifacts.Store) (int, error) {
	if err := maybePull(ctx, artifactStore, embeddingsPath); err != nil {
		return 0, err
	}

	r, err := ndjson.Open(embeddingsPath)
	if err != nil {
		return 0, fmt.Errorf("orchestrator: open %s: %w", embeddingsPath, err)
	}
	defer r.Close()

	count := 0
	skipped := 0
	ensured := false
	dim := 0
	var rec EmbeddingRecord
	for r.Next(&rec) {
		if !ensured {
			dim = len(rec.Embedding)
			if err := store.EnsureCollection(ctx, collection, dim, recreate); err != nil {
				return count, err
			}
			ensured = true
		}
		obj := vectorstore.Object{
			ChunkID:      rec.ChunkID,
			Text:         rec.Text,
			ApproxTokens: rec.ApproxTokens,
			Keywords:     rec.Keywords,
			CreatedAt:    rec.CreatedAt,
			ModelName:    rec.Model.Name,
			ModelVersion: rec.Model.Version,
			Headings:     rec.Headings,
			Heading:      rec.Heading,
			FullHeadings: rec.FullHeadings,
			Embedding:    rec.Embedding,
		}
		if err := store.Upsert(ctx, collection, obj, dim); err != nil {
			var e *errs.Error
			if !errs.As(err, &e) || e.Kind != errs.KindVectorDimensionMismatch {
				return count, err
			}
			logging.Get().Warn("skipping record with vector dimension mismatch",
				zap.String("chunk_id", rec.ChunkID), zap.Error(err))
			skipped++
			rec = EmbeddingRecord{}
			continue
		}
		count++
		rec = EmbeddingRecord{}
	}
	if r.Err() != nil {
		return count, fmt.Errorf("orchestrator: read %s: %w", embeddingsPath, r.Err())
	}
	if skipped > 0 {
		return count, fmt.Errorf("orchestrator: %d record(s) skipped due to vector dimension mismatch", skipped)
	}
	return count, nil
}

// SearchQuery encodes query with svc and returns the top k results from
// store's collection. qc, if non-nil, is consulted first (cache-aside) and
// populated with fresh results afterward; cache errors are logged and
// otherwise ignored, since the cache is an optional fast path, not part of
// the query's correctness (spec §2 EXPANSION). Pass nil to disable.
func SearchQuery(ctx context.Context, query string, svc *embedding.Service, store *vectorstore.Store, collection string, k int, qc *cache.QueryCache) ([]vectorstore.SearchResult, error) {
	if qc != nil {
		var cached []vectorstore.SearchResult
		hit, err := qc.Get(ctx, collection, query, &cached)
		if err != nil {
			logging.Get().Warn("query cache get failed", zap.Error(err))
		} else if hit {
			return cached, nil
		}
	}

	vec, err := svc.EncodeOne(ctx, query)
	if err != nil {
		return nil, err
	}
	results, err := store.Search(ctx, collection, vec, k)
	if err != nil {
		return nil, err
	}

	if qc != nil {
		if err := qc.Set(ctx, collection, query, results); err != nil {
			logging.Get().Warn("query cache set failed", zap.Error(err))
		}
	}

	return results, nil
}

// RerankResults reads NDJSON search results from resultsPath, reranks
// them against query with r, and streams the reordered results to its
// *.reranked.ndjson sibling file.
func RerankResults(ctx context.Context, query, resultsPath string, r *rerank.Reranker) (string, error) {
	in, err := ndjson.Open(resultsPath)
	if err != nil {
		return "", fmt.Errorf("orchestrator: open %s: %w", resultsPath, err)
	}
	defer in.Close()

	var candidates []rerank.Candidate
	byID := map[string]vectorstore.SearchResult{}
	var hit vectorstore.SearchResult
	for in.Next(&hit) {
		candidates = append(candidates, rerank.Candidate{ChunkID: hit.ChunkID, Text: hit.Text})
		byID[hit.ChunkID] = hit
		hit = vectorstore.SearchResult{}
	}
	if in.Err() != nil {
		return "", fmt.Errorf("orchestrator: read %s: %w", resultsPath, in.Err())
	}

	ranked, err := r.Rerank(ctx, query, candidates)
	if err != nil {
		return "", err
	}

	outPath := RerankedPath(resultsPath)
	out, err := ndjson.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("orchestrator: create %s: %w", outPath, err)
	}
	defer out.Close()

	for _, res := range ranked {
		type rerankedLine struct {
			vectorstore.SearchResult
			RerankScore float64 `json:"rerank_score"`
		}
		line := rerankedLine{SearchResult: byID[res.ChunkID], RerankScore: res.Score}
		if err := out.Write(line); err != nil {
			return "", fmt.Errorf("orchestrator: write %s: %w", outPath, err)
		}
	}

	return outPath, nil
}
