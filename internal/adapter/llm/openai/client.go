// Package openai implements the AI improvement gateway against the OpenAI
// Chat Completion API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bkyoung/bookreviewer/internal/adapter/llm"
	llmhttp "github.com/bkyoung/bookreviewer/internal/adapter/llm/http"
	"github.com/bkyoung/bookreviewer/internal/domain"
)

const (
	defaultBaseURL = "https://api.openai.com"
	defaultModel   = "gpt-4o"
	defaultTimeout = 60 * time.Second

	completionsPath = "/v1/chat/completions"
	modelsPath      = "/v1/models"

	finishReasonStop = "stop"
)

// Config holds the settings for the OpenAI client.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int      // included in requests only when > 0
	Temperature *float64 // included in requests only when set
	Timeout     time.Duration
	Template    *PromptTemplate // nil uses the built-in template
}

// Client calls the OpenAI API to improve review content. An empty API key is
// a valid configuration: every call then returns a skipped fallback result
// without touching the network.
type Client struct {
	apiKey      string
	model       string
	baseURL     string
	maxTokens   int
	temperature *float64
	template    PromptTemplate
	client      *http.Client
	logger      llmhttp.Logger
}

// NewClient creates an OpenAI client from config, applying defaults for
// model, base URL and timeout.
func NewClient(cfg Config) *Client {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	template := DefaultPromptTemplate()
	if cfg.Template != nil {
		template = *cfg.Template
	}
	return &Client{
		apiKey:      cfg.APIKey,
		model:       model,
		baseURL:     baseURL,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		template:    template,
		client:      &http.Client{Timeout: timeout},
	}
}

// SetLogger wires structured call logging.
func (c *Client) SetLogger(logger llmhttp.Logger) {
	c.logger = logger
}

// GenerateImprovedReview runs the availability probe and the completion
// request, returning a typed result. Provider failures come back as degraded
// fallback results, never as errors; the only error paths are blank inputs.
func (c *Client) GenerateImprovedReview(ctx context.Context, title, content string) (domain.AiReviewResult, error) {
	if c.apiKey == "" {
		return domain.SkippedAiResult(content), nil
	}
	if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
		return domain.AiReviewResult{}, fmt.Errorf("improve review: %w", domain.ErrBlankField)
	}

	if reason := c.probeModel(ctx); reason != "" {
		return domain.DegradedAiResult(content, reason), nil
	}

	reqBody := ChatCompletionRequest{
		Model:       c.model,
		Messages:    c.template.Render(title, content),
		Temperature: c.temperature,
	}
	if c.maxTokens > 0 {
		reqBody.MaxTokens = c.maxTokens
	}

	parsed, reason := c.completeOnce(ctx, reqBody)
	if reason != "" {
		return domain.DegradedAiResult(content, reason), nil
	}

	// Truncated output is assumed recoverable by a single second attempt;
	// whatever that attempt returns is accepted.
	if !strings.EqualFold(parsed.FinishReason, finishReasonStop) {
		retried, retryReason := c.completeOnce(ctx, reqBody)
		if retryReason != "" {
			return domain.DegradedAiResult(content, retryReason), nil
		}
		parsed = retried
	}

	model := parsed.Model
	if model == "" {
		model = c.model
	}
	return domain.AiReviewResult{
		ImprovedContent:  strings.TrimSpace(parsed.Text),
		FromAI:           true,
		Outcome:          domain.AiSuccess,
		Model:            model,
		Reason:           parsed.FinishReason,
		PromptTokens:     parsed.TokensIn,
		CompletionTokens: parsed.TokensOut,
		TotalTokens:      int64(parsed.TokensIn) + int64(parsed.TokensOut),
	}, nil
}

// probeModel queries the model-listing endpoint and verifies the configured
// model is available. Returns an empty string when usable, otherwise the
// classified failure reason.
func (c *Client) probeModel(ctx context.Context) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+modelsPath, nil)
	if err != nil {
		return domain.ReasonUnknown
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logError(ctx, modelsPath, err, domain.ReasonUnknown, 0, start)
		return domain.ReasonUnknown
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logError(ctx, modelsPath, err, domain.ReasonUnknown, resp.StatusCode, start)
		return domain.ReasonUnknown
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reason := classifyError(resp.StatusCode, parseErrorDetail(body))
		c.logError(ctx, modelsPath, fmt.Errorf("model list returned HTTP %d", resp.StatusCode), reason, resp.StatusCode, start)
		return reason
	}

	var list ModelListResponse
	if err := json.Unmarshal(body, &list); err != nil {
		c.logError(ctx, modelsPath, err, domain.ReasonUnknown, resp.StatusCode, start)
		return domain.ReasonUnknown
	}
	for _, entry := range list.Data {
		if entry.ID == c.model {
			return ""
		}
	}
	c.logError(ctx, modelsPath, fmt.Errorf("model %q not present in model list", c.model), domain.ReasonInvalidModel, resp.StatusCode, start)
	return domain.ReasonInvalidModel
}

// parsedCompletion is the subset of the completion response the gateway uses.
type parsedCompletion struct {
	Text         string
	Model        string
	FinishReason string
	TokensIn     int
	TokensOut    int
}

// completeOnce performs a single completion request. Returns the parsed
// response, or a non-empty classified reason on any failure.
func (c *Client) completeOnce(ctx context.Context, reqBody ChatCompletionRequest) (parsedCompletion, string) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return parsedCompletion{}, domain.ReasonUnknown
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+completionsPath, bytes.NewReader(payload))
	if err != nil {
		return parsedCompletion{}, domain.ReasonUnknown
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.logRequest(ctx, reqBody)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logError(ctx, completionsPath, err, domain.ReasonUnknown, 0, start)
		return parsedCompletion{}, domain.ReasonUnknown
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logError(ctx, completionsPath, err, domain.ReasonUnknown, resp.StatusCode, start)
		return parsedCompletion{}, domain.ReasonUnknown
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reason := classifyError(resp.StatusCode, parseErrorDetail(body))
		c.logError(ctx, completionsPath, fmt.Errorf("completion returned HTTP %d", resp.StatusCode), reason, resp.StatusCode, start)
		return parsedCompletion{}, reason
	}

	var chatResp ChatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		c.logError(ctx, completionsPath, err, domain.ReasonUnknown, resp.StatusCode, start)
		return parsedCompletion{}, domain.ReasonUnknown
	}
	if len(chatResp.Choices) == 0 {
		c.logError(ctx, completionsPath, fmt.Errorf("completion returned no choices"), domain.ReasonUnknown, resp.StatusCode, start)
		return parsedCompletion{}, domain.ReasonUnknown
	}

	parsed := parsedCompletion{
		Text:         chatResp.Choices[0].Message.Content,
		Model:        chatResp.Model,
		FinishReason: chatResp.Choices[0].FinishReason,
		TokensIn:     chatResp.Usage.PromptTokens,
		TokensOut:    chatResp.Usage.CompletionTokens,
	}

	if c.logger != nil {
		c.logger.LogResponse(ctx, llmhttp.ResponseLog{
			Endpoint:     completionsPath,
			Model:        c.model,
			Timestamp:    time.Now(),
			Duration:     time.Since(start),
			TokensIn:     parsed.TokensIn,
			TokensOut:    parsed.TokensOut,
			StatusCode:   resp.StatusCode,
			FinishReason: parsed.FinishReason,
		})
	}
	return parsed, ""
}

func parseErrorDetail(body []byte) ErrorDetail {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		return ErrorDetail{}
	}
	return errResp.Error
}

func (c *Client) logRequest(ctx context.Context, reqBody ChatCompletionRequest) {
	if c.logger == nil {
		return
	}
	chars := 0
	prompt := strings.Builder{}
	for _, msg := range reqBody.Messages {
		chars += len(msg.Content)
		prompt.WriteString(msg.Content)
	}
	c.logger.LogRequest(ctx, llmhttp.RequestLog{
		Endpoint:     completionsPath,
		Model:        c.model,
		Timestamp:    time.Now(),
		PromptChars:  chars,
		PromptTokens: llm.EstimateTokens(prompt.String()),
		APIKey:       c.apiKey,
	})
}

func (c *Client) logError(ctx context.Context, endpoint string, err error, reason string, statusCode int, start time.Time) {
	if c.logger == nil {
		return
	}
	c.logger.LogError(ctx, llmhttp.ErrorLog{
		Endpoint:   endpoint,
		Model:      c.model,
		Timestamp:  time.Now(),
		Duration:   time.Since(start),
		Err:        err,
		Reason:     reason,
		StatusCode: statusCode,
	})
}
