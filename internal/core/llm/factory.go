package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/markdave123-py/counsel/internal/config"
	"github.com/markdave123-py/counsel/internal/core"
)

// NewGateway picks the inference strategy named by cfg.InferenceProvider.
func NewGateway(ctx context.Context, cfg *config.Config, catalog *Catalog) (core.InferenceGateway, error) {
	switch cfg.InferenceProvider {
	case config.ProviderKeyword, "":
		return NewKeywordGateway(), nil
	case config.ProviderHuggingFace:
		return NewHuggingFaceGateway(cfg.HFBaseURL, cfg.HFAPIKey, catalog, &http.Client{Timeout: cfg.InferenceTimeout})
	case config.ProviderGemini:
		return NewGeminiLLM(ctx, cfg.AIAPIKey, cfg.GenModel)
	default:
		return nil, fmt.Errorf("unsupported inference provider %q", cfg.InferenceProvider)
	}
}
