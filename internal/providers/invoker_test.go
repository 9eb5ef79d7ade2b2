package providers

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInvokerUnwrapsFencedOutput(t *testing.T) {
	mock := NewMockClient()
	mock.ResponseText = "```json\n{\"presentation_title\": \"Deck\", \"slides\": []}\n```"

	iv, err := NewInvoker(InvokerConfig{Client: mock, Logger: testLogger()})
	if err != nil {
		t.Fatal(err)
	}

	out, err := iv.Invoke(context.Background(), "structure this")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != `{"presentation_title":"Deck","slides":[]}` {
		t.Errorf("got %s", out)
	}
}

func TestInvokerPassesThroughNonJSON(t *testing.T) {
	// Shape recovery failing is not a transport error; the pipeline's own
	// validation produces the retry feedback.
	mock := NewMockClient()
	mock.ResponseText = "I cannot help with that."

	iv, err := NewInvoker(InvokerConfig{Client: mock, Logger: testLogger()})
	if err != nil {
		t.Fatal(err)
	}

	out, err := iv.Invoke(context.Background(), "structure this")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "I cannot help with that." {
		t.Errorf("got %q", out)
	}
}

func TestInvokerSendsResponseFormat(t *testing.T) {
	mock := NewMockClient()
	mock.ResponseText = `{"ok": true}`

	schema := map[string]any{
		"type": "json_schema",
		"json_schema": map[string]any{
			"name":   "plan",
			"schema": map[string]any{"type": "object"},
		},
	}
	iv, err := NewInvoker(InvokerConfig{Client: mock, Schema: schema, Model: "test-model", Logger: testLogger()})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := iv.Invoke(context.Background(), "structure this"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reqs := mock.Requests()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	if reqs[0].ResponseFormat == nil || reqs[0].ResponseFormat.Type != "json_schema" {
		t.Errorf("ResponseFormat = %+v", reqs[0].ResponseFormat)
	}
	if reqs[0].Model != "test-model" {
		t.Errorf("Model = %q", reqs[0].Model)
	}
}

func TestInvokerSurfacesTransportError(t *testing.T) {
	mock := NewMockClient()
	mock.ShouldFail = true

	iv, err := NewInvoker(InvokerConfig{Client: mock, Logger: testLogger()})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := iv.Invoke(context.Background(), "p"); err == nil {
		t.Error("expected error")
	}
}

func TestInvokerRequiresClient(t *testing.T) {
	if _, err := NewInvoker(InvokerConfig{}); err == nil {
		t.Error("expected error for missing client")
	}
}
