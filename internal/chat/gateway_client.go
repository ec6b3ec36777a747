package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// GatewayClient implements LLMClient against an OpenAI-compatible
// chat-completions endpoint (messages array, system role inline).
type GatewayClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	modelID    string
}

// GatewayConfig holds configuration for the OpenAI-style gateway.
type GatewayConfig struct {
	BaseURL string
	APIKey  string
	ModelID string
	Timeout time.Duration
}

// NewGatewayClient creates a client for an OpenAI-compatible gateway.
func NewGatewayClient(cfg GatewayConfig) (*GatewayClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("chat: gateway api key is required")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("chat: gateway base url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GatewayClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		modelID:    cfg.ModelID,
	}, nil
}

type gatewayChatRequest struct {
	Model       string           `json:"model"`
	Messages    []gatewayMessage `json:"messages"`
	Temperature float32          `json:"temperature,omitempty"`
	MaxTokens   int32            `json:"max_tokens,omitempty"`
	TopP        float32          `json:"top_p,omitempty"`
}

type gatewayMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type gatewayChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int32 `json:"prompt_tokens"`
		CompletionTokens int32 `json:"completion_tokens"`
		TotalTokens      int32 `json:"total_tokens"`
	} `json:"usage"`
}

// Complete sends a completion request to the gateway and returns the response.
func (c *GatewayClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	model := req.Model
	if model == "" {
		model = c.modelID
	}

	messages := make([]gatewayMessage, 0, len(req.Messages)+1)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, gatewayMessage{Role: ChatRoleSystem, Content: req.System})
	}
	for _, msg := range req.Messages {
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}
		messages = append(messages, gatewayMessage{Role: msg.Role, Content: msg.Content})
	}
	if len(messages) == 0 {
		return LLMResponse{}, errors.New("chat: gateway requires at least one message")
	}

	body, err := json.Marshal(gatewayChatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		TopP:        req.TopP,
	})
	if err != nil {
		return LLMResponse{}, fmt.Errorf("chat: failed to encode gateway request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return LLMResponse{}, fmt.Errorf("chat: failed to build gateway request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return LLMResponse{}, fmt.Errorf("chat: gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return LLMResponse{}, fmt.Errorf("chat: failed to read gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return LLMResponse{}, newProviderError("gateway", resp.StatusCode, string(respBody))
	}

	var parsed gatewayChatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return LLMResponse{}, newProviderError("gateway", resp.StatusCode, "malformed response body: "+string(respBody))
	}
	if len(parsed.Choices) == 0 {
		return LLMResponse{}, newProviderError("gateway", resp.StatusCode, "response contained no choices")
	}

	return LLMResponse{
		Text:       strings.TrimSpace(parsed.Choices[0].Message.Content),
		StopReason: parsed.Choices[0].FinishReason,
		Usage: TokenUsage{
			InputTokens:  parsed.Usage.PromptTokens,
			OutputTokens: parsed.Usage.CompletionTokens,
			TotalTokens:  parsed.Usage.TotalTokens,
		},
	}, nil
}
