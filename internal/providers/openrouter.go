package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
)

const (
	OpenRouterName    = "openrouter"
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"
)

// OpenRouterConfig holds configuration for the OpenRouter client.
type OpenRouterConfig struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	Timeout      time.Duration
	MaxRetries   int           // Max transport attempts (default: 3)
	RetryDelay   time.Duration // Base delay between retries (default: 1s)
}

// OpenRouterClient implements LLMClient using the OpenRouter API.
type OpenRouterClient struct {
	apiKey       string
	baseURL      string
	defaultModel string
	client       *http.Client
	maxRetries   int
	retryDelay   time.Duration
}

// NewOpenRouterClient creates a new OpenRouter client.
func NewOpenRouterClient(cfg OpenRouterConfig) *OpenRouterClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = OpenRouterBaseURL
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "anthropic/claude-3.5-sonnet"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}

	return &OpenRouterClient{
		apiKey:       cfg.APIKey,
		baseURL:      cfg.BaseURL,
		defaultModel: cfg.DefaultModel,
		client:       &http.Client{Timeout: cfg.Timeout},
		maxRetries:   cfg.MaxRetries,
		retryDelay:   cfg.RetryDelay,
	}
}

// Name returns the client identifier.
func (c *OpenRouterClient) Name() string {
	return OpenRouterName
}

// Chat sends a chat completion request.
func (c *OpenRouterClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}

	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	orReq := &openRouterRequest{
		Model:       model,
		Messages:    make([]openRouterMessage, 0, len(req.Messages)),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Usage:       &openRouterUsageRequest{Include: true},
	}
	for _, m := range req.Messages {
		orReq.Messages = append(orReq.Messages, openRouterMessage{Role: m.Role, Content: m.Content})
	}
	if req.ResponseFormat != nil {
		orReq.ResponseFormat = &openRouterResponseFormat{
			Type:       req.ResponseFormat.Type,
			JSONSchema: req.ResponseFormat.JSONSchema,
		}
	}

	orResp, attempts, err := c.doRequest(ctx, "/chat/completions", orReq)

	result := &ChatResult{
		RequestID: requestID,
		Provider:  OpenRouterName,
		Attempts:  attempts,
	}
	if err != nil {
		result.ErrorType = "http_error"
		result.ErrorMessage = err.Error()
		result.TotalTime = time.Since(start)
		return result, err
	}
	if len(orResp.Choices) == 0 {
		result.ErrorType = "empty_response"
		result.ErrorMessage = "no choices in response"
		result.TotalTime = time.Since(start)
		return result, fmt.Errorf("no choices in response")
	}

	result.Success = true
	result.Content = orResp.Choices[0].Message.Content
	result.ModelUsed = orResp.Model
	result.PromptTokens = orResp.Usage.PromptTokens
	result.CompletionTokens = orResp.Usage.CompletionTokens
	result.TotalTokens = orResp.Usage.TotalTokens
	result.CostUSD = orResp.Usage.Cost
	result.ExecutionTime = time.Since(start)
	result.TotalTime = result.ExecutionTime

	if req.ResponseFormat != nil && result.Content != "" {
		if parsed, perr := ParseStructuredJSON(result.Content); perr == nil {
			result.ParsedJSON = parsed
		}
	}

	return result, nil
}

// statusError is an HTTP failure that may warrant a retry.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("OpenRouter error (status %d): %s", e.status, e.body)
}

// doRequest posts to OpenRouter with backoff retries. 413/422 retries
// inject a nonce into the last user message: those statuses are often
// cache or request-dedup artifacts that clear once the payload differs.
func (c *OpenRouterClient) doRequest(ctx context.Context, path string, orReq *openRouterRequest) (*openRouterResponse, int, error) {
	var out *openRouterResponse
	attempts := 0

	err := retry.Do(
		func() error {
			attempts++

			bodyBytes, err := json.Marshal(orReq)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("failed to marshal request: %w", err))
			}

			httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(bodyBytes))
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("failed to create request: %w", err))
			}
			httpReq.Header.Set("Content-Type", "application/json")
			httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
			httpReq.Header.Set("HTTP-Referer", "https://github.com/slidesmith/slidesmith")
			httpReq.Header.Set("X-Title", "Slidesmith")

			resp, err := c.client.Do(httpReq)
			if err != nil {
				return fmt.Errorf("request failed: %w", err)
			}
			respBody, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("failed to read response: %w", err)
			}

			if retryableStatus(resp.StatusCode) {
				return &statusError{status: resp.StatusCode, body: string(respBody)}
			}
			if resp.StatusCode != http.StatusOK {
				return retry.Unrecoverable(&statusError{status: resp.StatusCode, body: string(respBody)})
			}

			var orResp openRouterResponse
			if err := json.Unmarshal(respBody, &orResp); err != nil {
				return retry.Unrecoverable(fmt.Errorf("failed to unmarshal response: %w", err))
			}
			if orResp.Error != nil {
				return retry.Unrecoverable(fmt.Errorf("OpenRouter API error: %s", orResp.Error.Message))
			}

			out = &orResp
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.maxRetries)),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.MaxDelay(10*time.Second),
		retry.MaxJitter(500*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			var se *statusError
			if errors.As(err, &se) && (se.status == http.StatusRequestEntityTooLarge || se.status == http.StatusUnprocessableEntity) {
				injectNonce(orReq, int(n)+1)
			}
		}),
	)
	if err != nil {
		return nil, attempts, err
	}
	return out, attempts, nil
}

// retryableStatus reports whether a status code warrants another attempt.
func retryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestEntityTooLarge, // retry with nonce
		http.StatusUnprocessableEntity, // often cache/format issues
		http.StatusTooManyRequests:
		return true
	default:
		return statusCode >= 500
	}
}

// injectNonce appends a unique comment to the last user message so the
// retried request is not byte-identical to the failed one.
func injectNonce(req *openRouterRequest, attempt int) {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			nonce := uuid.New().String()[:16]
			req.Messages[i].Content += fmt.Sprintf("\n<!-- retry_%d_id: %s -->", attempt, nonce)
			return
		}
	}
}

// OpenRouter API types

type openRouterRequest struct {
	Model          string                    `json:"model"`
	Messages       []openRouterMessage       `json:"messages"`
	Temperature    float64                   `json:"temperature,omitempty"`
	MaxTokens      int                       `json:"max_tokens,omitempty"`
	ResponseFormat *openRouterResponseFormat `json:"response_format,omitempty"`
	Usage          *openRouterUsageRequest   `json:"usage,omitempty"`
}

type openRouterUsageRequest struct {
	Include bool `json:"include"`
}

type openRouterMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openRouterResponseFormat struct {
	Type       string          `json:"type"`
	JSONSchema json.RawMessage `json:"json_schema,omitempty"`
}

type openRouterResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int     `json:"prompt_tokens"`
		CompletionTokens int     `json:"completion_tokens"`
		TotalTokens      int     `json:"total_tokens"`
		Cost             float64 `json:"cost,omitempty"`
	} `json:"usage"`
	Error *openRouterError `json:"error,omitempty"`
}

type openRouterError struct {
	Message string `json:"message"`
	Code    any    `json:"code,omitempty"`
}

var _ LLMClient = (*OpenRouterClient)(nil)
