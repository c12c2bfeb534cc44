package embedding

import (
	"context"

	"github.com/hsn0918/ragctl/internal/httpx"
)

// ModelIdentity is {name, version}, which forms part of the cache key
// (spec §3, §4.3).
type ModelIdentity struct {
	Name    string
	Version string
}

// Backend encodes texts to vectors. Two configurations are supported —
// a local multilingual sentence encoder and a hosted embedding API —
// selected at construction and opaque to the Service that calls them
// (spec §4.3).
type Backend interface {
	Identity() ModelIdentity
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// httpBackend implements Backend against an HTTP embeddings endpoint.
// Both the "local" and "hosted" configurations use this same shape
// (original_source/pipeline-advanced/create_embeddings.py's use_openai
// branch differs only in base URL, model name, and API key presence);
// the local configuration talks to a sidecar process serving the same
// contract since the sentence-transformers runtime itself is an external
// ML collaborator, not something this Go module re-implements.
type httpBackend struct {
	client  *httpx.Client
	model   string
	version string
}

// NewHostedBackend builds the "hosted embedding API" backend
// configuration (e.g. text-embedding-3-large).
func NewHostedBackend(cfg httpx.Config, model, version string) Backend {
	return &httpBackend{
		client:  httpx.New("embedding-hosted", cfg, httpx.DefaultReadTimeout),
		model:   model,
		version: version,
	}
}

// NewLocalBackend builds the "local multilingual sentence encoder"
// backend configuration (e.g. paraphrase-xlm-r-multilingual-v1 served by
// a local sidecar).
func NewLocalBackend(cfg httpx.Config, model, version string) Backend {
	return &httpBackend{
		client:  httpx.New("embedding-local", cfg, httpx.DefaultReadTimeout),
		model:   model,
		version: version,
	}
}

func (b *httpBackend) Identity() ModelIdentity {
	return ModelIdentity{Name: b.model, Version: b.version}
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedDatum struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type embedResponse struct {
	Data  []embedDatum `json:"data"`
	Model string       `json:"model"`
}

func (b *httpBackend) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var resp embedResponse
	req := embedRequest{Model: b.model, Input: texts}
	if err := b.client.Post("/embeddings", req, &resp); err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			continue
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}
