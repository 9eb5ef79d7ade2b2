package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func chatResponse(content string) string {
	return fmt.Sprintf(`{
		"id": "gen-1",
		"model": "test-model",
		"choices": [{"message": {"role": "assistant", "content": %q}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15, "cost": 0.0001}
	}`, content)
}

func newTestClient(url string) *OpenRouterClient {
	return NewOpenRouterClient(OpenRouterConfig{
		APIKey:     "test-key",
		BaseURL:    url,
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
	})
}

func TestOpenRouterChatSuccess(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, chatResponse("hello"))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	result, err := client.Chat(context.Background(), &ChatRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success || result.Content != "hello" {
		t.Errorf("result = %+v", result)
	}
	if result.TotalTokens != 15 {
		t.Errorf("TotalTokens = %d, want 15", result.TotalTokens)
	}
	if result.CostUSD != 0.0001 {
		t.Errorf("CostUSD = %v", result.CostUSD)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestOpenRouterRetriesServerErrors(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, chatResponse("recovered"))
	}))
	defer srv.Close()

	result, err := newTestClient(srv.URL).Chat(context.Background(), &ChatRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Content != "recovered" {
		t.Errorf("Content = %q", result.Content)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
	if result.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", result.Attempts)
	}
}

func TestOpenRouterDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error": {"message": "bad key"}}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Chat(context.Background(), &ChatRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("401 must not be retried, got %d attempts", calls.Load())
	}
}

func TestOpenRouterInjectsNonceOn422(t *testing.T) {
	var calls atomic.Int64
	var secondBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		body, _ := io.ReadAll(r.Body)
		if n == 1 {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		secondBody = string(body)
		fmt.Fprint(w, chatResponse("ok"))
	}))
	defer srv.Close()

	result, err := newTestClient(srv.URL).Chat(context.Background(), &ChatRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Content != "ok" {
		t.Errorf("Content = %q", result.Content)
	}
	if !strings.Contains(secondBody, "retry_1_id") {
		t.Errorf("retried request missing nonce comment: %s", secondBody)
	}
}

func TestOpenRouterStructuredResponseParsed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatResponse("```json\n{\"title\": \"Deck\"}\n```"))
	}))
	defer srv.Close()

	schema, _ := json.Marshal(map[string]any{"name": "plan", "schema": map[string]any{"type": "object"}})
	result, err := newTestClient(srv.URL).Chat(context.Background(), &ChatRequest{
		Messages:       []Message{{Role: "user", Content: "hi"}},
		ResponseFormat: &ResponseFormat{Type: "json_schema", JSONSchema: schema},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result.ParsedJSON) != `{"title":"Deck"}` {
		t.Errorf("ParsedJSON = %s", result.ParsedJSON)
	}
}

func TestOpenRouterEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id": "gen-1", "model": "m", "choices": [], "usage": {}}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Chat(context.Background(), &ChatRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	if err == nil || !strings.Contains(err.Error(), "no choices") {
		t.Errorf("expected no-choices error, got %v", err)
	}
}
