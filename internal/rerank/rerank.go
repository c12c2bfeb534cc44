// Package rerank implements the Reranker of spec §4.5: score (query,
// chunk) pairs with a cross-encoder and return chunks ordered by score
// descending, stable on ties.
package rerank

import (
	"context"
	"sort"

	"github.com/hsn0918/ragctl/internal/errs"
)

// DefaultBatchSize and DefaultMaxTokens mirror
// original_source/pipeline-advanced/rerank.py's cross-encoder defaults
// (cross-encoder/ms-marco-MiniLM-L-6-v2, batch_size=32, max_length=512).
const (
	DefaultBatchSize = 32
	DefaultMaxTokens = 512
)

// Candidate is one (chunk) half of a (query, chunk) pair to be scored.
type Candidate struct {
	ChunkID string
	Text    string
}

// Result is a Candidate carrying its cross-encoder score. The score is
// monotone in relevance for this query only; spec §4.5 forbids comparing
// it across queries.
type Result struct {
	Candidate
	Score float64
}

// Scorer scores a batch of (query, document) pairs, returning one score
// per document in input order. Implementations truncate on the model
// side to at most maxTokens tokens; the original document text passed
// back in Result is never truncated.
type Scorer interface {
	Score(ctx context.Context, query string, documents []string) ([]float64, error)
}

// Reranker batches candidates through a Scorer and returns them sorted
// by score descending.
type Reranker struct {
	scorer    Scorer
	batchSize int
}

// New builds a Reranker. batchSize <= 0 falls back to DefaultBatchSize.
func New(scorer Scorer, batchSize int) *Reranker {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Reranker{scorer: scorer, batchSize: batchSize}
}

// Rerank scores every candidate against query and returns them sorted by
// score descending. Ties are broken by the original (retrieval) order of
// candidates, via a stable sort (spec §4.5, §8).
func (r *Reranker) Rerank(ctx context.Context, query string, candidates []Candidate) ([]Result, error) {
	scores := make([]float64, len(candidates))

	for start := 0; start < len(candidates); start += r.batchSize {
		end := start + r.batchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		batch := candidates[start:end]
		docs := make([]string, len(batch))
		for i, c := range batch {
			docs[i] = c.Text
		}
		batchScores, err := r.scorer.Score(ctx, query, docs)
		if err != nil {
			return nil, errs.New(errs.KindEmbedBackendUnavailable, "rerank.Rerank", err)
		}
		copy(scores[start:end], batchScores)
	}

	results := make([]Result, len(candidates))
	for i, c := range candidates {
		results[i] = Result{Candidate: c, Score: scores[i]}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results, nil
}
