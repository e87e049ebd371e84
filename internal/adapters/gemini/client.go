// Package gemini calls the Gemini generateContent REST endpoint.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samirrijal/zimroute/internal/core/ports"
	"github.com/samirrijal/zimroute/internal/pkg/httpclient"
	"github.com/samirrijal/zimroute/internal/pkg/metrics"
	"github.com/samirrijal/zimroute/internal/pkg/telemetry"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-1.5-flash"
	providerName   = "gemini"
)

// SystemInstruction frames every request.
const SystemInstruction = "You are a Zimbabwean traffic expert specialising in Harare routes. " +
	"Give concise, practical advice that considers kombi routes, road quality and peak hours. " +
	"Use kilometers and minutes. Always respond in valid JSON."

// Config configures a Client.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	HTTP    httpclient.Options
}

// Client implements ports.TextGenerator.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	http    *httpclient.Client
}

var _ ports.TextGenerator = (*Client)(nil)

// New creates a Gemini client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		http:    httpclient.New(cfg.HTTP),
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents          []content        `json:"contents"`
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate returns the text of the first candidate.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, span := telemetry.StartProviderSpan(ctx, providerName, "generate_content")
	start := time.Now()

	text, err := c.generate(ctx, prompt)
	telemetry.EndSpan(span, err)
	if err != nil {
		metrics.ObserveProvider(providerName, "error", start)
		return "", err
	}
	metrics.ObserveProvider(providerName, "ok", start)
	return text, nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("gemini api key is not configured")
	}

	body, err := json.Marshal(generateRequest{
		Contents:          []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		SystemInstruction: &content{Parts: []part{{Text: SystemInstruction}}},
		GenerationConfig:  generationConfig{Temperature: 0.4, MaxOutputTokens: 512},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	resp, err := c.http.PostJSON(ctx, url, body, map[string]string{"x-goog-api-key": c.apiKey})
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		var er errorResponse
		if json.Unmarshal(resp.Body, &er) == nil && er.Error.Message != "" {
			return "", fmt.Errorf("gemini status %d (%s): %s", resp.StatusCode, er.Error.Status, er.Error.Message)
		}
		return "", fmt.Errorf("gemini status %d", resp.StatusCode)
	}

	var gr generateResponse
	if err := json.Unmarshal(resp.Body, &gr); err != nil {
		return "", fmt.Errorf("parse gemini response: %w", err)
	}
	if len(gr.Candidates) == 0 {
		if gr.PromptFeedback != nil && gr.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("gemini blocked the prompt: %s", gr.PromptFeedback.BlockReason)
		}
		return "", errors.New("gemini returned no candidates")
	}

	var b strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return strings.TrimSpace(b.String()), nil
}
