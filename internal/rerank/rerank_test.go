package rerank

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScorer struct {
	scores map[string]float64
}

func (f *fakeScorer) Score(ctx context.Context, query string, documents []string) ([]float64, error) {
	out := make([]float64, len(documents))
	for i, d := range documents {
		out[i] = f.scores[d]
	}
	return out, nil
}

func TestRerank_OrdersByScoreDescending(t *testing.T) {
	scorer := &fakeScorer{scores: map[string]float64{
		"the cat sat on the mat":  0.9,
		"the dog barked":          0.3,
		"fiscal policy overview":  0.1,
	}}
	r := New(scorer, DefaultBatchSize)

	candidates := []Candidate{
		{ChunkID: "s-1", Text: "the cat sat on the mat"},
		{ChunkID: "s-2", Text: "the dog barked"},
		{ChunkID: "s-3", Text: "fiscal policy overview"},
	}

	results, err := r.Rerank(context.Background(), "feline rests on rug", candidates)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "s-1", results[0].ChunkID)
	assert.Equal(t, "s-2", results[1].ChunkID)
	assert.Equal(t, "s-3", results[2].ChunkID)
}

func TestRerank_StableOnTies(t *testing.T) {
	scorer := &fakeScorer{scores: map[string]float64{
		"a": 0.5, "b": 0.5, "c": 0.5,
	}}
	r := New(scorer, DefaultBatchSize)

	candidates := []Candidate{
		{ChunkID: "a", Text: "a"},
		{ChunkID: "b", Text: "b"},
		{ChunkID: "c", Text: "c"},
	}
	results, err := r.Rerank(context.Background(), "q", candidates)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{results[0].ChunkID, results[1].ChunkID, results[2].ChunkID})
}

func TestRerank_BatchesAcrossMultipleCalls(t *testing.T) {
	scores := map[string]float64{}
	candidates := make([]Candidate, 0, 70)
	for i := 0; i < 70; i++ {
		text := string(rune('a' + i%26))
		scores[text] = float64(i)
		candidates = append(candidates, Candidate{ChunkID: text, Text: text})
	}
	scorer := &fakeScorer{scores: scores}
	r := New(scorer, 32)

	results, err := r.Rerank(context.Background(), "q", candidates)
	require.NoError(t, err)
	require.Len(t, results, 70)
	for i := 0; i+1 < len(results); i++ {
		assert.GreaterOrEqual(t, results[i].Score, results[i+1].Score)
	}
}
