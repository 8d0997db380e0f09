package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com"

// GeminiConfig configures the Gemini generateContent client.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float64
	TopP        float64
	Timeout     time.Duration
	BaseURL     string
}

// GeminiProvider implements TextGenerator with the Gemini REST API.
type GeminiProvider struct {
	cfg        GeminiConfig
	httpClient *http.Client
}

// NewGeminiProvider creates a new GeminiProvider.
func NewGeminiProvider(cfg GeminiConfig) *GeminiProvider {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = geminiBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &GeminiProvider{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// ---- Gemini API request/response structs ----

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"topP"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (g *GeminiProvider) Name() string { return "gemini" }

// GenerateText sends prompt as a single user turn and joins the text parts
// of the first candidate.
func (g *GeminiProvider) GenerateText(ctx context.Context, prompt string) (string, error) {
	if g.cfg.APIKey == "" {
		return "", failure(g.Name(), 0, errors.New("api key not configured"))
	}

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature: g.cfg.Temperature,
			TopP:        g.cfg.TopP,
		},
	})
	if err != nil {
		return "", failure(g.Name(), 0, err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent",
		strings.TrimRight(g.cfg.BaseURL, "/"), url.PathEscape(g.cfg.Model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", failure(g.Name(), 0, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.cfg.APIKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", failure(g.Name(), 0, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", failure(g.Name(), 0, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", failure(g.Name(), resp.StatusCode, errors.New(strings.TrimSpace(string(raw))))
	}

	var out geminiResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", failure(g.Name(), 0, fmt.Errorf("decode response: %w", err))
	}
	if len(out.Candidates) == 0 {
		return "", failure(g.Name(), 0, errors.New("no candidates returned"))
	}

	var sb strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", failure(g.Name(), 0, errors.New("empty completion"))
	}
	return text, nil
}
