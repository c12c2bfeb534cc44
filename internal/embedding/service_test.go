package embedding

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	id    ModelIdentity
	calls int
}

func (f *fakeBackend) Identity() ModelIdentity { return f.id }

func (f *fakeBackend) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1, 2}
	}
	return out, nil
}

func TestService_CacheIdempotence(t *testing.T) {
	dir := t.TempDir()
	cachePath := filepath.Join(dir, "doc.md.test-model.emb_cache.ndjson")
	cache, err := OpenCache(cachePath)
	require.NoError(t, err)

	backend := &fakeBackend{id: ModelIdentity{Name: "test-model", Version: "1"}}
	svc := NewService(backend, cache, 64)

	texts := []string{"the cat sat on the mat", "the dog barked", "fiscal policy overview"}

	first, err := svc.Encode(context.Background(), texts)
	require.NoError(t, err)
	assert.Equal(t, 1, backend.calls)
	assert.Equal(t, 3, cache.Len())

	second, err := svc.Encode(context.Background(), texts)
	require.NoError(t, err)
	assert.Equal(t, 1, backend.calls, "second run must not call the backend again")
	assert.Equal(t, 3, cache.Len(), "cache key count must be unchanged after replay")
	assert.Equal(t, first, second, "encode(t) must return bit-identical vectors across runs")
}

func TestCacheKey_IsStableAndModelScoped(t *testing.T) {
	k1 := CacheKey("model-a", "1", "hello")
	k2 := CacheKey("model-a", "1", "hello")
	k3 := CacheKey("model-b", "1", "hello")
	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
}

func TestCache_SkipsCorruptLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.ndjson")
	content := "not json\n" + `{"k":"abc","v":[1,2,3]}` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cache, err := OpenCache(path)
	require.NoError(t, err)
	v, ok := cache.Get("abc")
	require.True(t, ok)
	assert.Equal(t, []float32{1, 2, 3}, v)
}
