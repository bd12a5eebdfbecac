package intent

import "context"

const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is an internal message representation that can include system prompts.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

type LLMRequest struct {
	Model       string
	System      []string
	Messages    []ChatMessage
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

type LLMResponse struct {
	Text       string
	Usage      TokenUsage
	StopReason string
}

type LLMClient interface {
	Complete(ctx context.Context, req LLMRequest) (LLMResponse, error)
}

type usageTagKey struct{}

// UsageTag attributes model spend to an agent/lead pair. It rides the
// request context instead of shared mutable state so concurrent webhook
// deliveries cannot cross-bill each other.
type UsageTag struct {
	AgentID string
	LeadID  string
}

// WithUsageTag returns a context carrying the billing attribution tag.
func WithUsageTag(ctx context.Context, tag UsageTag) context.Context {
	return context.WithValue(ctx, usageTagKey{}, tag)
}

// UsageTagFrom extracts the billing tag, if any, from ctx.
func UsageTagFrom(ctx context.Context) (UsageTag, bool) {
	tag, ok := ctx.Value(usageTagKey{}).(UsageTag)
	return tag, ok
}
