package ai

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
)

// fakeProvider is a minimal OpenAI-compatible chat completions endpoint.
type fakeProvider struct {
	mu       sync.Mutex
	requests []openai.ChatCompletionRequest
	status   int
	content  string
	calls    int
}

func (f *fakeProvider) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		var req openai.ChatCompletionRequest
		assert.NoError(t, json.Unmarshal(body, &req))

		f.mu.Lock()
		f.requests = append(f.requests, req)
		f.calls++
		status, content := f.status, f.content
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if status != 0 && status != http.StatusOK {
			w.WriteHeader(status)
			w.Write([]byte(`{"error":{"message":"upstream exploded","type":"server_error"}}`))
			return
		}

		json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			ID:    "chatcmpl-test",
			Model: req.Model,
			Choices: []openai.ChatCompletionChoice{{
				Index:        0,
				Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
				FinishReason: openai.FinishReasonStop,
			}},
			Usage: openai.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
		})
	}
}

func (f *fakeProvider) lastRequest() openai.ChatCompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newTestClient(t *testing.T, provider *fakeProvider, opts Options) *Client {
	t.Helper()
	server := httptest.NewServer(provider.handler(t))
	t.Cleanup(server.Close)

	opts.APIKey = "test-key"
	opts.BaseURL = server.URL + "/v1/"
	client := NewClient(opts, zerolog.Nop())
	client.now = func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) }
	return client
}
