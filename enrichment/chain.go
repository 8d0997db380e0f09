package enrichment

import (
	"strings"

	"catalog-service/providers"

	"go.uber.org/zap"
)

// ProviderSettings holds the per-provider settings the image chain is
// built from.
type ProviderSettings struct {
	Pollinations providers.PollinationsConfig
	OpenAI       providers.OpenAIImageConfig
}

// ParseChain splits a comma-separated provider list into lower-cased names.
// "placeholder" and blanks are dropped since the placeholder always ends the
// chain.
func ParseChain(list string) []string {
	var names []string
	seen := map[string]bool{}
	for _, raw := range strings.Split(list, ",") {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" || name == "placeholder" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// BuildImageChain instantiates the providers named in list, in order.
// Unknown names are logged and skipped.
func BuildImageChain(list string, settings ProviderSettings, logger *zap.Logger) []providers.ImageGenerator {
	var chain []providers.ImageGenerator
	for _, name := range ParseChain(list) {
		switch name {
		case "pollinations":
			chain = append(chain, providers.NewPollinationsProvider(settings.Pollinations))
		case "openai":
			chain = append(chain, providers.NewOpenAIImageProvider(settings.OpenAI))
		default:
			if logger != nil {
				logger.Warn("Unknown image provider ignored", zap.String("provider", name))
			}
		}
	}
	return chain
}
