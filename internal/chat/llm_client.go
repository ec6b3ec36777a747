package chat

import (
	"context"
	"fmt"
)

const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// Message is a single conversation turn. The system turn is synthetic and is
// never persisted into caller-visible history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

// LLMRequest carries one completion call. Sampling parameters come from
// configuration and are never request-controlled.
type LLMRequest struct {
	Model       string
	System      string
	Messages    []Message
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

type LLMResponse struct {
	Text       string
	Usage      TokenUsage
	StopReason string
}

// LLMClient is the uniform "send chat, get text" contract over the
// interchangeable provider backends.
type LLMClient interface {
	Complete(ctx context.Context, req LLMRequest) (LLMResponse, error)
}

// maxProviderErrorBody bounds how much of a provider response body is carried
// inside a ProviderError.
const maxProviderErrorBody = 500

// ProviderError reports a non-success status or malformed body from an LLM
// provider. The gateway never retries; recovery is the caller's concern.
type ProviderError struct {
	Provider string
	Status   int
	Body     string
}

func (e *ProviderError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("chat: %s provider returned status %d: %s", e.Provider, e.Status, e.Body)
	}
	return fmt.Sprintf("chat: %s provider error: %s", e.Provider, e.Body)
}

func newProviderError(provider string, status int, body string) *ProviderError {
	if len(body) > maxProviderErrorBody {
		body = body[:maxProviderErrorBody]
	}
	return &ProviderError{Provider: provider, Status: status, Body: body}
}
