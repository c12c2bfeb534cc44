package convert

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hsn0918/ragctl/internal/httpx"
)

func TestHTTPConverter_PollsUntilDone(t *testing.T) {
	polls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/convert/upload":
			_ = json.NewEncoder(w).Encode(uploadResponse{UID: "job-1"})
		case "/convert/status":
			polls++
			if polls < 2 {
				_ = json.NewEncoder(w).Encode(statusResponse{Status: "processing"})
				return
			}
			_ = json.NewEncoder(w).Encode(statusResponse{
				Status: "done",
				Result: &struct {
					Markdown string `json:"markdown"`
				}{Markdown: "# Title\n\nBody text."},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	conv := NewHTTPConverter(httpx.Config{BaseURL: srv.URL}, 10*time.Millisecond)
	md, err := conv.ToMarkdown(context.Background(), "doc.docx", []byte("binary-stub"))
	require.NoError(t, err)
	require.Equal(t, "# Title\n\nBody text.", md)
	require.GreaterOrEqual(t, polls, 2)
}

func TestHTTPConverter_ReturnsErrorOnFailedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/convert/upload":
			_ = json.NewEncoder(w).Encode(uploadResponse{UID: "job-2"})
		case "/convert/status":
			_ = json.NewEncoder(w).Encode(statusResponse{Status: "failed", Detail: "unsupported format"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	conv := NewHTTPConverter(httpx.Config{BaseURL: srv.URL}, 10*time.Millisecond)
	_, err := conv.ToMarkdown(context.Background(), "doc.weird", []byte("x"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported format")
}
