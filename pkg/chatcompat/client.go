// Package chatcompat is a client for OpenAI-compatible chat completion
// endpoints (DashScope compatible mode, DeepSeek, OpenAI).
package chatcompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	DefaultModel   = "qwen-plus"
	DefaultBaseURL = "https://dashscope-intl.aliyuncs.com/compatible-mode/v1"
	DefaultTimeout = 30 * time.Second
)

// Client generates chat completions. Implementations are safe for concurrent use.
type Client interface {
	GenerateContent(ctx context.Context, req *Request) (*Response, error)
	Model() string
}

type implClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// New validates cfg and returns a Client.
func New(cfg Config) (Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &implClient{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		httpClient: cfg.HTTPClient,
	}, nil
}

func (c *implClient) GenerateContent(ctx context.Context, req *Request) (*Response, error) {
	if req == nil || len(req.Messages) == 0 {
		return nil, ErrEmptyRequest
	}

	body, err := json.Marshal(c.buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("chatcompat: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("chatcompat: create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("chatcompat: call %s: %w", c.model, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := string(raw)
		var eb errorBody
		if json.Unmarshal(raw, &eb) == nil && eb.Error.Message != "" {
			msg = eb.Error.Message
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	var out completion
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("chatcompat: decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return nil, ErrNoChoices
	}
	choice := out.Choices[0]
	return &Response{
		Text:         choice.Message.Content,
		FinishReason: choice.FinishReason,
		Usage: Usage{
			InputTokens:  out.Usage.PromptTokens,
			OutputTokens: out.Usage.CompletionTokens,
			TotalTokens:  out.Usage.TotalTokens,
		},
	}, nil
}

func (c *implClient) Model() string {
	return c.model
}

func (c *implClient) buildRequest(req *Request) *completionRequest {
	out := &completionRequest{
		Model:       c.model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Messages:    make([]wireMessage, 0, len(req.Messages)+1),
	}
	if req.System != "" {
		out.Messages = append(out.Messages, wireMessage{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		role := m.Role
		if role == "" {
			role = "user"
		}
		out.Messages = append(out.Messages, wireMessage{Role: role, Content: m.Content})
	}
	if req.JSONMode {
		out.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	return out
}
