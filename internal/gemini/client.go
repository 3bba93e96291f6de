package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ai-textbook/backend/internal/metrics"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-pro"
	defaultTimeout = 60 * time.Second
)

// translatePrompt asks for a clean HTML translation without conversational filler.
const translatePrompt = `Translate the following English technical text from a book on robotics and AI into clear, high-quality, and natural-sounding %s.
The output should be in HTML format.

Original English Text:
---
%s
---

Translated %s Text (in HTML format):`

// Config holds configuration for the Gemini client.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client implements Provider against the generateContent REST endpoint.
type Client struct {
	cfg    Config
	client *http.Client
}

// NewClient creates a Gemini REST client. Zero-value config fields fall back
// to the public endpoint, the gemini-pro model and a 60s timeout.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Wire types for the generateContent endpoint.
type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Generate produces text for a free-form prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.call(ctx, "generate", []content{
		{Role: "user", Parts: []part{{Text: prompt}}},
	})
}

// Translate renders English content into targetLanguage as HTML.
func (c *Client) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	prompt := fmt.Sprintf(translatePrompt, targetLanguage, text, targetLanguage)
	return c.call(ctx, "translate", []content{
		{Role: "user", Parts: []part{{Text: prompt}}},
	})
}

// Chat sends the prior turns plus the new user message as one conversation.
func (c *Client) Chat(ctx context.Context, history []Message, message string) (string, error) {
	contents := make([]content, 0, len(history)+1)
	for _, m := range history {
		contents = append(contents, content{Role: m.Role, Parts: []part{{Text: m.Content}}})
	}
	contents = append(contents, content{Role: "user", Parts: []part{{Text: message}}})
	return c.call(ctx, "chat", contents)
}

func (c *Client) call(ctx context.Context, op string, contents []content) (string, error) {
	start := time.Now()
	text, err := c.doGenerate(ctx, contents)
	metrics.RecordProviderCall(op, time.Since(start).Seconds(), err != nil)
	if err != nil {
		return "", &ProviderError{Op: op, Err: err}
	}
	return text, nil
}

func (c *Client) doGenerate(ctx context.Context, contents []content) (string, error) {
	body, err := json.Marshal(generateRequest{Contents: contents})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.cfg.BaseURL, c.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Truncate upstream error bodies; they go to logs, never to clients.
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("api status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	var sb strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("empty candidate content")
	}
	return sb.String(), nil
}
