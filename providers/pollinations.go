package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const pollinationsBaseURL = "https://image.pollinations.ai"

// PollinationsConfig configures the keyless Pollinations image endpoint.
type PollinationsConfig struct {
	Width   int
	Height  int
	Seed    string
	NoLogo  string
	Timeout time.Duration
	BaseURL string
}

// PollinationsProvider implements ImageGenerator with a plain GET against
// Pollinations. No credential is needed.
type PollinationsProvider struct {
	cfg        PollinationsConfig
	httpClient *http.Client
}

// NewPollinationsProvider creates a new PollinationsProvider.
func NewPollinationsProvider(cfg PollinationsConfig) *PollinationsProvider {
	if cfg.Width <= 0 {
		cfg.Width = 1024
	}
	if cfg.Height <= 0 {
		cfg.Height = 1024
	}
	if cfg.NoLogo == "" {
		cfg.NoLogo = "1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = pollinationsBaseURL
	}
	return &PollinationsProvider{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (p *PollinationsProvider) Name() string { return "pollinations" }

// ImageURL renders the request URL for req.
func (p *PollinationsProvider) ImageURL(req ImageRequest) string {
	prompt := fmt.Sprintf(
		"Studio product photo, soft light, minimal background, detailed, %s. Context: %s. No text overlay.",
		req.ProductName, req.MarketingText,
	)
	u := fmt.Sprintf("%s/prompt/%s?width=%s&height=%s&nologo=%s",
		strings.TrimRight(p.cfg.BaseURL, "/"),
		url.QueryEscape(prompt),
		strconv.Itoa(p.cfg.Width),
		strconv.Itoa(p.cfg.Height),
		url.QueryEscape(p.cfg.NoLogo),
	)
	if p.cfg.Seed != "" {
		u += "&seed=" + url.QueryEscape(p.cfg.Seed)
	}
	return u
}

func (p *PollinationsProvider) GenerateImage(ctx context.Context, req ImageRequest) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.ImageURL(req), nil)
	if err != nil {
		return nil, failure(p.Name(), 0, err)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, failure(p.Name(), 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, failure(p.Name(), resp.StatusCode, errors.New(http.StatusText(resp.StatusCode)))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, failure(p.Name(), 0, fmt.Errorf("read image: %w", err))
	}
	if len(data) == 0 {
		return nil, failure(p.Name(), 0, errors.New("empty image body"))
	}
	return data, nil
}
