package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/jdfmarine/leadengine/pkg/logging"
)

// ProviderConfig is the explicit configuration object for the provider
// gateway. Credential presence decides which backend variant is active;
// there is no ambient global state.
type ProviderConfig struct {
	GatewayAPIKey  string
	GatewayBaseURL string
	GatewayModel   string

	GeminiAPIKey string
	GeminiModel  string

	Temperature float32
	MaxTokens   int32
	TopP        float32
	Timeout     time.Duration
}

// Configured reports whether at least one provider credential is present.
func (c ProviderConfig) Configured() bool {
	return c.GatewayAPIKey != "" || c.GeminiAPIKey != ""
}

// NewProviderClient builds the active LLM client from configuration.
//
// The OpenAI-style gateway is preferred when its credential is configured;
// Gemini is used otherwise. When both credentials are present, Gemini becomes
// an automatic fallback behind the gateway. Returns nil (and no error) when
// neither credential is configured — callers must answer with the fixed
// not-configured reply instead of failing the request.
func NewProviderClient(ctx context.Context, cfg ProviderConfig, logger *logging.Logger) (LLMClient, error) {
	if logger == nil {
		logger = logging.Default()
	}

	var gateway, gemini LLMClient

	if cfg.GatewayAPIKey != "" {
		client, err := NewGatewayClient(GatewayConfig{
			BaseURL: cfg.GatewayBaseURL,
			APIKey:  cfg.GatewayAPIKey,
			ModelID: cfg.GatewayModel,
			Timeout: cfg.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("chat: gateway client: %w", err)
		}
		gateway = client
	}

	if cfg.GeminiAPIKey != "" {
		client, err := NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("chat: gemini client: %w", err)
		}
		gemini = client
	}

	switch {
	case gateway != nil && gemini != nil:
		logger.Info("provider gateway active with fallback", "primary", "gateway", "fallback", "gemini")
		return NewFallbackClient(gateway, gemini, logger), nil
	case gateway != nil:
		logger.Info("provider gateway active", "provider", "gateway")
		return gateway, nil
	case gemini != nil:
		logger.Info("provider gateway active", "provider", "gemini")
		return gemini, nil
	default:
		logger.Warn("no LLM provider credential configured")
		return nil, nil
	}
}
