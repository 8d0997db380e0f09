package enrichment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"catalog-service/common/logger"
	aws_pkg "catalog-service/pkg/aws"
	"catalog-service/providers"
	"catalog-service/storage"

	"go.uber.org/zap"
)

// PlaceholderImageURL is returned when no image provider produced an image.
const PlaceholderImageURL = "https://placehold.co/1024x1024/png"

// MetricsRecorder receives enrichment counters and latencies.
// *aws.MetricsClient satisfies it.
type MetricsRecorder interface {
	RecordCount(ctx context.Context, metricName string, dimensions map[string]string) error
	RecordLatency(ctx context.Context, metricName string, duration time.Duration, dimensions map[string]string) error
}

type noopMetrics struct{}

func (noopMetrics) RecordCount(context.Context, string, map[string]string) error { return nil }
func (noopMetrics) RecordLatency(context.Context, string, time.Duration, map[string]string) error {
	return nil
}

// Config wires the providers used by Service. A nil Text disables remote
// text generation; an empty Images chain always yields the placeholder.
type Config struct {
	Text    providers.TextGenerator
	Images  []providers.ImageGenerator
	Store   storage.MediaStore
	Metrics MetricsRecorder
	Logger  *zap.Logger
}

// Service derives marketing copy and product images. Its methods never fail.
type Service struct {
	text    providers.TextGenerator
	images  []providers.ImageGenerator
	store   storage.MediaStore
	metrics MetricsRecorder
	logger  *zap.Logger
	now     func() time.Time
}

func NewService(cfg Config) *Service {
	if cfg.Metrics == nil {
		cfg.Metrics = noopMetrics{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Service{
		text:    cfg.Text,
		images:  cfg.Images,
		store:   cfg.Store,
		metrics: cfg.Metrics,
		logger:  cfg.Logger,
		now:     time.Now,
	}
}

const metricsTimeout = 5 * time.Second

func (s *Service) recordLatency(d time.Duration, dims map[string]string) {
	s.emit(func(ctx context.Context) error {
		return s.metrics.RecordLatency(ctx, aws_pkg.MetricEnrichmentLatency, d, dims)
	})
}

func (s *Service) recordFallback(dims map[string]string) {
	s.emit(func(ctx context.Context) error {
		return s.metrics.RecordCount(ctx, aws_pkg.MetricEnrichmentFallback, dims)
	})
}

// emit runs send off the request path with its own deadline.
func (s *Service) emit(send func(ctx context.Context) error) {
	if _, ok := s.metrics.(noopMetrics); ok {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsTimeout)
		defer cancel()
		if err := send(ctx); err != nil {
			s.logger.Debug("Failed to record enrichment metric", zap.Error(err))
		}
	}()
}

// TextEnabled reports whether a remote text provider is configured.
func (s *Service) TextEnabled() bool {
	return s.text != nil
}

// ImageChain returns the configured image provider names in order.
func (s *Service) ImageChain() []string {
	names := make([]string, 0, len(s.images))
	for _, p := range s.images {
		names = append(names, p.Name())
	}
	return names
}

// Describe returns a marketing paragraph for the product.
func (s *Service) Describe(ctx context.Context, name string, notes *string, price *float64) string {
	log := logger.For(ctx, s.logger)
	if s.text == nil {
		log.Debug("No text provider configured, using fallback description", zap.String("product", name))
		return FallbackDescription(name, notes, price)
	}

	start := time.Now()
	text, err := s.text.GenerateText(ctx, describePrompt(name, notes, price))
	dims := map[string]string{"Provider": s.text.Name(), "Kind": "text"}
	s.recordLatency(time.Since(start), dims)
	if err == nil {
		text = strings.TrimSpace(text)
	}
	if err != nil || text == "" {
		log.Warn("Text generation failed, using fallback description",
			zap.String("provider", s.text.Name()),
			zap.String("product", name),
			zap.Error(err),
		)
		s.recordFallback(dims)
		return FallbackDescription(name, notes, price)
	}
	return text
}

// Illustrate walks the image chain in order and returns the reference of the
// first image that was generated and stored, or the placeholder URL.
func (s *Service) Illustrate(ctx context.Context, marketingText, name string) string {
	log := logger.For(ctx, s.logger)
	req := providers.ImageRequest{ProductName: name, MarketingText: marketingText}

	for _, p := range s.images {
		start := time.Now()
		data, err := p.GenerateImage(ctx, req)
		dims := map[string]string{"Provider": p.Name(), "Kind": "image"}
		s.recordLatency(time.Since(start), dims)
		if err != nil {
			log.Warn("Image generation failed", zap.String("provider", p.Name()), zap.String("product", name), zap.Error(err))
			continue
		}
		if s.store == nil {
			log.Warn("No media store configured, discarding generated image", zap.String("provider", p.Name()))
			continue
		}

		filename := fmt.Sprintf("prod-%s-%d.png", Slug(name), s.now().UnixNano())
		ref, err := s.store.Save(ctx, filename, data)
		if err != nil {
			log.Warn("Failed to store generated image",
				zap.String("provider", p.Name()),
				zap.String("filename", filename),
				zap.Error(err),
			)
			continue
		}
		log.Info("Product image generated", zap.String("provider", p.Name()), zap.String("ref", ref))
		return ref
	}

	if len(s.images) > 0 {
		log.Warn("All image providers failed, using placeholder", zap.String("product", name))
		s.recordFallback(map[string]string{"Kind": "image"})
	}
	return PlaceholderImageURL
}
