package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Invoker adapts an LLMClient to the single-prompt contract the layout
// pipeline consumes. It owns outbound rate limiting, structured response
// formatting, and output unwrapping: the pipeline never sees code fences or
// provider wrappers, only a candidate JSON string.
type Invoker struct {
	client  LLMClient
	limiter *RateLimiter
	schema  json.RawMessage
	model   string
	logger  *slog.Logger
}

// InvokerConfig configures the pipeline-facing adapter.
type InvokerConfig struct {
	Client  LLMClient
	Limiter *RateLimiter // optional
	// Schema is the json_schema map sent as response format and used for
	// local validation of the unwrapped output.
	Schema map[string]any
	Model  string
	Logger *slog.Logger
}

// NewInvoker builds the adapter.
func NewInvoker(cfg InvokerConfig) (*Invoker, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("invoker requires an LLM client")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var schema json.RawMessage
	if cfg.Schema != nil {
		inner, ok := cfg.Schema["json_schema"]
		if !ok {
			inner = cfg.Schema
		}
		raw, err := json.Marshal(inner)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize response schema: %w", err)
		}
		schema = raw
	}

	return &Invoker{
		client:  cfg.Client,
		limiter: cfg.Limiter,
		schema:  schema,
		model:   cfg.Model,
		logger:  logger,
	}, nil
}

// Invoke sends one prompt and returns the unwrapped response text. Errors
// are transport-level only: output that parses as JSON but fails schema
// validation is logged and returned as-is, because the pipeline produces a
// more precise validation error and drives its own retry feedback.
func (iv *Invoker) Invoke(ctx context.Context, prompt string) (string, error) {
	if iv.limiter != nil {
		if err := iv.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter wait: %w", err)
		}
	}

	req := &ChatRequest{
		Messages: []Message{{Role: "user", Content: prompt}},
		Model:    iv.model,
	}
	if iv.schema != nil {
		req.ResponseFormat = &ResponseFormat{Type: "json_schema", JSONSchema: iv.schema}
	}

	start := time.Now()
	result, err := iv.client.Chat(ctx, req)
	if err != nil {
		return "", err
	}

	content := result.Content
	if len(result.ParsedJSON) > 0 {
		content = string(result.ParsedJSON)
	} else if unwrapped, perr := ParseStructuredJSON(content); perr == nil {
		content = string(unwrapped)
	}

	if iv.schema != nil {
		if verr := ValidateStructuredJSON(iv.schema, json.RawMessage(content)); verr != nil {
			iv.logger.Warn("llm output failed schema validation",
				"provider", iv.client.Name(),
				"error", verr,
			)
		}
	}

	iv.logger.Debug("llm invocation complete",
		"provider", iv.client.Name(),
		"model", result.ModelUsed,
		"latency_ms", time.Since(start).Milliseconds(),
		"prompt_tokens", result.PromptTokens,
		"completion_tokens", result.CompletionTokens,
		"cost_usd", result.CostUSD,
	)
	return content, nil
}
