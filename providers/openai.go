package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const openAIBaseURL = "https://api.openai.com"

// OpenAIImageConfig configures the OpenAI images client.
type OpenAIImageConfig struct {
	APIKey  string
	Model   string
	Size    string
	Timeout time.Duration
	BaseURL string
}

// OpenAIImageProvider implements ImageGenerator with the OpenAI images API.
type OpenAIImageProvider struct {
	cfg        OpenAIImageConfig
	httpClient *http.Client
}

// NewOpenAIImageProvider creates a new OpenAIImageProvider.
func NewOpenAIImageProvider(cfg OpenAIImageConfig) *OpenAIImageProvider {
	if cfg.Model == "" {
		cfg.Model = "gpt-image-1"
	}
	if cfg.Size == "" {
		cfg.Size = "512x512"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = openAIBaseURL
	}
	return &OpenAIImageProvider{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type openAIImageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Size   string `json:"size"`
	N      int    `json:"n"`
}

type openAIImageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (o *OpenAIImageProvider) Name() string { return "openai" }

func (o *OpenAIImageProvider) GenerateImage(ctx context.Context, req ImageRequest) ([]byte, error) {
	if o.cfg.APIKey == "" {
		return nil, failure(o.Name(), 0, errors.New("api key not configured"))
	}

	prompt := fmt.Sprintf(
		"Ultra-detailed studio product photo, soft light, minimal background, %s. Context: %s. No text overlay.",
		req.ProductName, req.MarketingText,
	)
	body, err := json.Marshal(openAIImageRequest{Model: o.cfg.Model, Prompt: prompt, Size: o.cfg.Size, N: 1})
	if err != nil {
		return nil, failure(o.Name(), 0, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(o.cfg.BaseURL, "/")+"/v1/images/generations", bytes.NewReader(body))
	if err != nil {
		return nil, failure(o.Name(), 0, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return nil, failure(o.Name(), 0, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 48<<20))
	if err != nil {
		return nil, failure(o.Name(), 0, err)
	}

	var out openAIImageResponse
	decodeErr := json.Unmarshal(raw, &out)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := http.StatusText(resp.StatusCode)
		if decodeErr == nil && out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return nil, failure(o.Name(), resp.StatusCode, errors.New(msg))
	}
	if decodeErr != nil {
		return nil, failure(o.Name(), 0, fmt.Errorf("decode response: %w", decodeErr))
	}
	if len(out.Data) == 0 || out.Data[0].B64JSON == "" {
		return nil, failure(o.Name(), 0, errors.New("no image data returned"))
	}

	data, err := base64.StdEncoding.DecodeString(out.Data[0].B64JSON)
	if err != nil {
		return nil, failure(o.Name(), 0, fmt.Errorf("decode image: %w", err))
	}
	return data, nil
}
