package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hsn0918/ragctl/internal/embedding"
	"github.com/hsn0918/ragctl/internal/ndjson"
)

type fakeBackend struct {
	id embedding.ModelIdentity
}

func (f *fakeBackend) Identity() embedding.ModelIdentity { return f.id }

func (f *fakeBackend) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1, 2}
	}
	return out, nil
}

func TestChunkSource_WritesChunksNDJSON(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "report.md")
	require.NoError(t, os.WriteFile(src, []byte("# Intro\n\nFirst paragraph of the report.\n\nSecond paragraph here.\n"), 0o644))

	outPath, warnings, err := ChunkSource(context.Background(), src, 200, nil)
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, src+".chunks.ndjson", outPath)

	r, err := ndjson.Open(outPath)
	require.NoError(t, err)
	defer r.Close()

	var c ChunkRecord
	require.True(t, r.Next(&c))
	require.Equal(t, "report-1", c.ChunkID)
	require.NotEmpty(t, c.Keywords)
}

func TestEmbedChunks_PreservesOrderAndStampsModel(t *testing.T) {
	dir := t.TempDir()
	chunksPath := filepath.Join(dir, "report.md.chunks.ndjson")
	w, err := ndjson.Create(chunksPath)
	require.NoError(t, err)
	require.NoError(t, w.Write(ChunkRecord{ChunkID: "report-1", Text: "alpha", Source: "report"}))
	require.NoError(t, w.Write(ChunkRecord{ChunkID: "report-2", Text: "beta-longer-text", Source: "report"}))
	require.NoError(t, w.Close())

	cachePath := filepath.Join(dir, "cache.ndjson")
	cache, err := embedding.OpenCache(cachePath)
	require.NoError(t, err)

	backend := &fakeBackend{id: embedding.ModelIdentity{Name: "test-model", Version: "v1"}}
	svc := embedding.NewService(backend, cache, 64)

	outPath, err := EmbedChunks(context.Background(), chunksPath, svc, func() time.Time {
		return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	}, nil)
	require.NoError(t, err)

	r, err := ndjson.Open(outPath)
	require.NoError(t, err)
	defer r.Close()

	var recs []EmbeddingRecord
	var rec EmbeddingRecord
	for r.Next(&rec) {
		recs = append(recs, rec)
		rec = EmbeddingRecord{}
	}
	require.Len(t, recs, 2)
	require.Equal(t, "report-1", recs[0].ChunkID)
	require.Equal(t, "report-2", recs[1].ChunkID)
	require.Equal(t, "test-model", recs[0].Model.Name)
	require.Equal(t, "2026-01-01T00:00:00Z", recs[0].CreatedAt)
}
