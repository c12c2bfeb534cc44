// Package embedding implements the EmbeddingService of spec §4.3: batch
// encoding against a pluggable Backend with a persistent content-addressed
// cache in front of it.
package embedding

import (
	"context"

	"github.com/hsn0918/ragctl/internal/errs"
)

// DefaultBatchSize is the default batch partition size (spec §4.3).
const DefaultBatchSize = 64

// Service is the EmbeddingService: encode(batch) -> [vector],
// encode_one(text) -> vector, with cache-aware batching.
type Service struct {
	backend   Backend
	cache     *Cache
	batchSize int
}

// NewService builds a Service over backend, persisting cache misses to
// cache. batchSize <= 0 falls back to DefaultBatchSize.
func NewService(backend Backend, cache *Cache, batchSize int) *Service {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Service{backend: backend, cache: cache, batchSize: batchSize}
}

// Identity exposes the backend's model identity, used by callers that
// need to stamp embedding records with {name, version} (spec §3).
func (s *Service) Identity() ModelIdentity { return s.backend.Identity() }

// EncodeOne encodes a single text, e.g. a search query.
func (s *Service) EncodeOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.Encode(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// Encode partitions texts into batches of at most s.batchSize, resolving
// each text against the cache first; only misses are sent to the
// backend, and results are appended to the cache before the batch
// returns. Output preserves input order (spec §5's FIFO guarantee).
func (s *Service) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	id := s.backend.Identity()

	for start := 0; start < len(texts); start += s.batchSize {
		end := start + s.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		keys := make([]string, len(batch))
		var missPos []int
		var missTexts []string

		for i, t := range batch {
			k := CacheKey(id.Name, id.Version, t)
			keys[i] = k
			if v, ok := s.cache.Get(k); ok {
				out[start+i] = v
				continue
			}
			missPos = append(missPos, i)
			missTexts = append(missTexts, t)
		}

		if len(missTexts) == 0 {
			continue
		}

		computed, err := s.backend.Embed(ctx, missTexts)
		if err != nil {
			return nil, errs.New(errs.KindEmbedBackendUnavailable, "embedding.Encode", err)
		}

		entries := make([]cacheEntry, 0, len(computed))
		for j, pos := range missPos {
			out[start+pos] = computed[j]
			entries = append(entries, cacheEntry{Key: keys[pos], Vector: computed[j]})
		}
		if err := s.cache.Append(entries); err != nil {
			return nil, err
		}
	}

	return out, nil
}
