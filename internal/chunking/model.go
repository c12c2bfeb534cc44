// Package chunking turns a Markdown document into heading-bounded,
// list-atomic chunks and derives keyphrases for each one.
//
// Parsing reuses the teacher's goldmark-based AST walk idiom (a flat loop
// over the document's top-level blocks, with recursive helpers for spans
// and inline text); the packing algorithm itself (greedy token-budget packing,
// paragraph-before-list merging, heading-scope snapshots) is this
// pipeline's own, grounded on original_source/pipeline-advanced/create_chunks.py.
package chunking

// Chunk is the unit of retrieval (spec §3).
type Chunk struct {
	ChunkID      string            `json:"chunk_id"`
	Text         string            `json:"text"`
	Headings     map[string]string `json:"headings,omitempty"`
	Heading      map[string]string `json:"heading,omitempty"`
	FullHeadings string            `json:"full_headings,omitempty"`
	Keywords     []string          `json:"keywords,omitempty"`
	ApproxTokens int               `json:"approx_tokens"`
	Source       string            `json:"source"`
}

// Warning records a non-fatal condition surfaced during chunking, such as
// errs.KindBudgetExceededByAtomic.
type Warning struct {
	ChunkID string
	Kind    string
	Message string
}

// Result is the output of chunking one source document.
type Result struct {
	Chunks   []Chunk
	Warnings []Warning
}

const (
	// DefaultChunkSizeTokens is the default token budget (spec §4.1).
	DefaultChunkSizeTokens = 200
)
