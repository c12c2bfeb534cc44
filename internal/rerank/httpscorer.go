package rerank

import (
	"context"

	"github.com/hsn0918/ragctl/internal/httpx"
)

// httpScorer implements Scorer against a hosted cross-encoder HTTP
// endpoint, following the same request/response shape as the teacher's
// internal/clients/rerank.Client.
type httpScorer struct {
	client    *httpx.Client
	model     string
	maxTokens int
}

// NewHTTPScorer builds a Scorer backed by a hosted cross-encoder
// endpoint (CROSS_ENCODER_MODEL, spec §6).
func NewHTTPScorer(cfg httpx.Config, model string, maxTokens int) Scorer {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &httpScorer{
		client:    httpx.New("reranker", cfg, httpx.DefaultReadTimeout),
		model:     model,
		maxTokens: maxTokens,
	}
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	MaxLength int      `json:"max_length"`
}

type rerankDatum struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

type rerankResponse struct {
	Results []rerankDatum `json:"results"`
}

func (s *httpScorer) Score(ctx context.Context, query string, documents []string) ([]float64, error) {
	var resp rerankResponse
	req := rerankRequest{Model: s.model, Query: query, Documents: documents, MaxLength: s.maxTokens}
	if err := s.client.Post("/rerank", req, &resp); err != nil {
		return nil, err
	}
	out := make([]float64, len(documents))
	for _, d := range resp.Results {
		if d.Index < 0 || d.Index >= len(out) {
			continue
		}
		out[d.Index] = d.Score
	}
	return out, nil
}
