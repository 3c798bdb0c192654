package llmprovider

import (
	"context"

	"intelligent-scheduler/pkg/gemini"
	"intelligent-scheduler/pkg/chatcompat"
)

// GeminiAdapter adapts the Gemini client to the Provider interface
type GeminiAdapter struct {
	client gemini.Client
}

func NewGeminiAdapter(client gemini.Client) *GeminiAdapter {
	return &GeminiAdapter{client: client}
}

func (a *GeminiAdapter) GenerateContent(ctx context.Context, req *Request) (*Response, error) {
	greq := &gemini.Request{
		SystemInstruction: req.SystemInstruction,
		Contents:          make([]gemini.Content, len(req.Messages)),
		Temperature:       req.Temperature,
		MaxTokens:         req.MaxTokens,
	}
	for i, m := range req.Messages {
		greq.Contents[i] = gemini.Content{Role: m.Role, Text: m.Text}
	}
	if req.JSONOutput {
		greq.ResponseMIMEType = "application/json"
	}

	resp, err := a.client.GenerateContent(ctx, greq)
	if err != nil {
		return nil, &ProviderError{Provider: a.Name(), Err: err}
	}
	return &Response{
		Text:         resp.Text,
		ProviderName: a.Name(),
		ModelName:    a.client.Model(),
		Usage:        Usage(resp.Usage),
	}, nil
}

func (a *GeminiAdapter) Name() string  { return "gemini" }
func (a *GeminiAdapter) Model() string { return a.client.Model() }

// OpenAICompatAdapter adapts the OpenAI-compatible chat client (DashScope, DeepSeek, OpenAI)
// to the Provider interface.
type OpenAICompatAdapter struct {
	name   string
	client chatcompat.Client
}

func NewOpenAICompatAdapter(name string, client chatcompat.Client) *OpenAICompatAdapter {
	return &OpenAICompatAdapter{name: name, client: client}
}

func (a *OpenAICompatAdapter) GenerateContent(ctx context.Context, req *Request) (*Response, error) {
	qreq := &chatcompat.Request{
		System:      req.SystemInstruction,
		Messages:    make([]chatcompat.Message, len(req.Messages)),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		JSONMode:    req.JSONOutput,
	}
	for i, m := range req.Messages {
		qreq.Messages[i] = chatcompat.Message{Role: m.Role, Content: m.Text}
	}

	resp, err := a.client.GenerateContent(ctx, qreq)
	if err != nil {
		return nil, &ProviderError{Provider: a.name, Err: err}
	}
	return &Response{
		Text:         resp.Text,
		ProviderName: a.name,
		ModelName:    a.client.Model(),
		Usage:        Usage(resp.Usage),
	}, nil
}

func (a *OpenAICompatAdapter) Name() string  { return a.name }
func (a *OpenAICompatAdapter) Model() string { return a.client.Model() }
