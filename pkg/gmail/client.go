// Package gmail reads a user's mailbox through the Gmail API.
package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const (
	// Scope grants read access to the user's mailbox.
	Scope = gmail.GmailReadonlyScope

	userMe            = "me"
	defaultMaxResults = 10
)

var (
	tagRe        = regexp.MustCompile(`(?s)<(script|style)[^>]*>.*?</(script|style)>|<[^>]+>`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
)

// Client wraps the Gmail API service.
type Client struct {
	service *gmail.Service
}

// NewClientFromTokenSource creates a Gmail client authorized by ts.
func NewClientFromTokenSource(ctx context.Context, ts oauth2.TokenSource) (*Client, error) {
	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}
	return &Client{service: svc}, nil
}

// NewClientFromHTTP creates a Gmail client from a pre-configured HTTP client.
func NewClientFromHTTP(ctx context.Context, httpClient *http.Client) (*Client, error) {
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}
	return &Client{service: svc}, nil
}

// ListMessageIDs returns the ids of the newest messages matching req.
func (c *Client) ListMessageIDs(ctx context.Context, req ListRequest) ([]string, error) {
	max := req.MaxResults
	if max <= 0 {
		max = defaultMaxResults
	}

	call := c.service.Users.Messages.List(userMe).MaxResults(max).Context(ctx)
	if req.Query != "" {
		call = call.Q(req.Query)
	}
	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.Id)
	}
	return ids, nil
}

// GetMessage fetches one message and decodes its body, preferring text/plain.
func (c *Client) GetMessage(ctx context.Context, id string) (*Message, error) {
	m, err := c.service.Users.Messages.Get(userMe, id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", id, err)
	}

	out := &Message{
		ID:       m.Id,
		ThreadID: m.ThreadId,
		Snippet:  html.UnescapeString(m.Snippet),
	}
	if m.InternalDate > 0 {
		out.ReceivedAt = time.UnixMilli(m.InternalDate).UTC()
	}
	if m.Payload != nil {
		for _, h := range m.Payload.Headers {
			switch strings.ToLower(h.Name) {
			case "subject":
				out.Subject = h.Value
			case "from":
				out.From = h.Value
			}
		}
		out.Body = extractBody(m.Payload)
	}
	if out.Body == "" {
		out.Body = out.Snippet
	}
	return out, nil
}

// extractBody walks the MIME tree. The first text/plain part wins; HTML is
// stripped to text as a fallback.
func extractBody(p *gmail.MessagePart) string {
	if plain := findPart(p, "text/plain"); plain != "" {
		return strings.TrimSpace(plain)
	}
	if h := findPart(p, "text/html"); h != "" {
		return htmlToText(h)
	}
	return ""
}

func findPart(p *gmail.MessagePart, mimeType string) string {
	if p == nil {
		return ""
	}
	if strings.HasPrefix(p.MimeType, mimeType) && p.Body != nil && p.Body.Data != "" {
		if s, err := decodeBase64URL(p.Body.Data); err == nil {
			return s
		}
	}
	for _, child := range p.Parts {
		if s := findPart(child, mimeType); s != "" {
			return s
		}
	}
	return ""
}

func decodeBase64URL(data string) (string, error) {
	b, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		b, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
		if err != nil {
			return "", err
		}
	}
	return string(b), nil
}

func htmlToText(s string) string {
	s = strings.NewReplacer("<br>", "\n", "<br/>", "\n", "<br />", "\n", "</p>", "\n\n", "</div>", "\n").Replace(s)
	s = tagRe.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = blankLinesRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
