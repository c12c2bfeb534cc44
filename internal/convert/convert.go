// Package convert models the external Markdown-conversion boundary: the
// pipeline's chunker only ever reads Markdown, so turning a .docx/.pdf
// input into Markdown is someone else's job. This package pins down
// that job as a typed interface rather than reimplementing OCR/DOCX
// parsing in Go, the same way the teacher treats its Doc2X integration
// as an external collaborator behind internal/clients/doc2x.Client.
package convert

import (
	"context"
	"fmt"
	"time"

	"github.com/hsn0918/ragctl/internal/httpx"
)

// Converter turns an office document's raw bytes into Markdown text.
// Implementations may be synchronous or may poll an async job
// internally; callers only see the final Markdown or an error.
type Converter interface {
	ToMarkdown(ctx context.Context, filename string, data []byte) (string, error)
}

// HTTPConverter implements Converter against a hosted document-parsing
// service using the upload -> poll-status -> fetch-result flow the
// teacher's doc2x client uses for PDF parsing.
type HTTPConverter struct {
	client       *httpx.Client
	pollInterval time.Duration
}

// NewHTTPConverter builds an HTTPConverter. pollInterval <= 0 falls back
// to DefaultPollInterval.
func NewHTTPConverter(cfg httpx.Config, pollInterval time.Duration) *HTTPConverter {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &HTTPConverter{
		client:       httpx.New("convert", cfg, httpx.DefaultReadTimeout),
		pollInterval: pollInterval,
	}
}

// DefaultPollInterval mirrors the teacher's doc2x polling cadence.
const DefaultPollInterval = 2 * time.Second

type uploadResponse struct {
	UID string `json:"uid"`
}

type statusResponse struct {
	Status string `json:"status"`
	Detail string `json:"detail"`
	Result *struct {
		Markdown string `json:"markdown"`
	} `json:"result"`
}

// ToMarkdown uploads data, polls until the conversion finishes, and
// returns the resulting Markdown text.
func (c *HTTPConverter) ToMarkdown(ctx context.Context, filename string, data []byte) (string, error) {
	var upload uploadResponse
	if err := c.client.Post("/convert/upload", map[string]any{"filename": filename, "data": data}, &upload); err != nil {
		return "", fmt.Errorf("convert: upload %s: %w", filename, err)
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
			var status statusResponse
			if err := c.client.Get("/convert/status", map[string]string{"uid": upload.UID}, &status); err != nil {
				return "", fmt.Errorf("convert: poll %s: %w", upload.UID, err)
			}
			switch status.Status {
			case "done":
				if status.Result == nil {
					return "", fmt.Errorf("convert: %s: done with no result", upload.UID)
				}
				return status.Result.Markdown, nil
			case "failed":
				return "", fmt.Errorf("convert: %s: %s", upload.UID, status.Detail)
			}
		}
	}
}
