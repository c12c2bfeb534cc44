// Package orchestrator wires the stages of spec §4.6: a Markdown source
// is chunked once, chunks stream as NDJSON to the embedding stage, then
// to the vector store. Each stage reads/writes NDJSON so a crashed run
// resumes by re-invoking only the stages after the last intact file,
// the same "stage boundary = file boundary" idiom the teacher's
// cmd/server wiring uses for its own startup phases (config -> logger ->
// clients -> handlers), generalized here from in-process call order to
// on-disk checkpoints.
package orchestrator

import (
	"github.com/hsn0918/ragctl/internal/chunking"
	"github.com/hsn0918/ragctl/internal/embedding"
)

// ChunkRecord is one line of a *.chunks.ndjson file: a Chunk, verbatim.
type ChunkRecord = chunking.Chunk

// ModelStamp names the embedding model and version that produced a
// record's vector (spec §3, §6).
type ModelStamp struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// EmbeddingRecord is one line of a *.embeddings.ndjson file: the Chunk
// fields plus its vector, model stamp, and creation timestamp (spec §6).
type EmbeddingRecord struct {
	ChunkID      string            `json:"chunk_id"`
	Text         string            `json:"text"`
	Headings     map[string]string `json:"headings,omitempty"`
	Heading      map[string]string `json:"heading,omitempty"`
	FullHeadings string            `json:"full_headings,omitempty"`
	Keywords     []string          `json:"keywords,omitempty"`
	ApproxTokens int               `json:"approx_tokens"`
	Source       string            `json:"source"`
	Embedding    []float32         `json:"embedding"`
	Model        ModelStamp        `json:"model"`
	CreatedAt    string            `json:"created_at"`
}

func fromChunk(c ChunkRecord, vec []float32, id embedding.ModelIdentity, createdAt string) EmbeddingRecord {
	return EmbeddingRecord{
		ChunkID:      c.ChunkID,
		Text:         c.Text,
		Headings:     c.Headings,
		Heading:      c.Heading,
		FullHeadings: c.FullHeadings,
		Keywords:     c.Keywords,
		ApproxTokens: c.ApproxTokens,
		Source:       c.Source,
		Embedding:    vec,
		Model:        ModelStamp{Name: id.Name, Version: id.Version},
		CreatedAt:    createdAt,
	}
}
