package providers

import (
	"context"
	"fmt"
)

// TextGenerator produces free text from a prompt.
type TextGenerator interface {
	// Name identifies the provider in logs and metrics.
	Name() string

	// GenerateText returns the provider's completion for prompt.
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// ImageRequest describes the product an image is generated for.
type ImageRequest struct {
	ProductName   string
	MarketingText string
}

// ImageGenerator produces PNG bytes for a product. Each provider phrases its
// own prompt.
type ImageGenerator interface {
	Name() string
	GenerateImage(ctx context.Context, req ImageRequest) ([]byte, error)
}

// ProviderError reports a failed call to an external generation provider.
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func failure(provider string, status int, err error) *ProviderError {
	return &ProviderError{Provider: provider, StatusCode: status, Err: err}
}
