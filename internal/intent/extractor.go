package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/coverlinehq/coverline/pkg/logging"
)

// Input is everything the extractor may consult for one inbound message.
type Input struct {
	Body          string
	LeadState     string // US state, drives timezone resolution
	LastProposed  *time.Time
	RecentReplies []string // newest first, capped by caller at 5
	Now           time.Time
}

// Outcome is the classification of one inbound message. Exactly one of
// CannedReply, ProposedTime, or FreeText is the actionable result;
// Confirmation marks a ProposedTime that re-binds the system's last offer.
type Outcome struct {
	CannedReply  string
	Topic        string
	ProposedTime time.Time
	Confirmation bool
	FreeText     string
	Zone         *time.Location
	Usage        TokenUsage
}

// HasTime reports whether the extractor resolved a concrete instant.
func (o Outcome) HasTime() bool { return !o.ProposedTime.IsZero() }

// Extractor runs the deterministic tier (canned rules, time parsing) and
// falls back to Gemini structured extraction, then free-text completion.
type Extractor struct {
	llm       LLMClient
	modelID   string
	defaultTZ string
	logger    *logging.Logger
}

// NewExtractor builds an extractor. llm may be nil, which disables the model
// tier entirely (deterministic-only operation).
func NewExtractor(llm LLMClient, modelID, defaultTZ string, logger *logging.Logger) *Extractor {
	if logger == nil {
		logger = logging.Default()
	}
	return &Extractor{llm: llm, modelID: modelID, defaultTZ: defaultTZ, logger: logger}
}

// Extract classifies one inbound message. The deterministic tier always runs
// first: its canned replies are compliance-reviewed and must not be restated
// by a model.
func (e *Extractor) Extract(ctx context.Context, in Input) (Outcome, error) {
	zone := ResolveZone(in.Body, in.LeadState, e.defaultTZ)
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	if rule, ok := MatchRule(in.Body); ok {
		return Outcome{CannedReply: rule.Reply, Topic: rule.Topic(), Zone: zone}, nil
	}

	if IsConfirmation(in.Body) && in.LastProposed != nil && !in.LastProposed.IsZero() {
		return Outcome{ProposedTime: *in.LastProposed, Confirmation: true, Zone: zone}, nil
	}

	if t, ok := ParseTimePhrase(in.Body, now, zone); ok {
		return Outcome{ProposedTime: t, Zone: zone}, nil
	}

	if e.llm == nil {
		return Outcome{Zone: zone}, nil
	}

	out, err := e.modelExtract(ctx, in, zone, now)
	if err != nil {
		e.logger.Warn("model extraction failed, falling back to generic prompt", "error", err)
		return Outcome{Zone: zone}, nil
	}
	return out, nil
}

type structuredExtraction struct {
	Intent       string `json:"intent"`
	DatetimeText string `json:"datetime_text"`
	Confirm      bool   `json:"confirm"`
}

const extractionSystemPrompt = `You classify SMS replies from insurance leads. Respond with only a JSON object:
{"intent": one of ["schedule","question","objection","confirm","other"],
 "datetime_text": the exact scheduling phrase from the message or "",
 "confirm": true only if the lead is agreeing to a previously offered time}`

func (e *Extractor) modelExtract(ctx context.Context, in Input, zone *time.Location, now time.Time) (Outcome, error) {
	resp, err := e.llm.Complete(ctx, LLMRequest{
		Model:       e.modelID,
		System:      []string{extractionSystemPrompt},
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: in.Body}},
		MaxTokens:   128,
		Temperature: 0,
	})
	if err != nil {
		return Outcome{}, err
	}

	var parsed structuredExtraction
	if err := json.Unmarshal([]byte(stripCodeFence(resp.Text)), &parsed); err != nil {
		return Outcome{}, fmt.Errorf("intent: unparseable extraction %q: %w", resp.Text, err)
	}

	out := Outcome{Zone: zone, Usage: resp.Usage}
	if parsed.Confirm && in.LastProposed != nil && !in.LastProposed.IsZero() {
		out.ProposedTime = *in.LastProposed
		out.Confirmation = true
		return out, nil
	}
	if parsed.DatetimeText != "" {
		// Normalize through the same resolution logic as the deterministic
		// tier so both paths produce directly comparable instants.
		if t, ok := ParseTimePhrase(parsed.DatetimeText, now, zone); ok {
			out.ProposedTime = t
			return out, nil
		}
	}

	text, usage, err := e.completeFreeText(ctx, in)
	if err != nil {
		return Outcome{}, err
	}
	out.FreeText = text
	out.Usage.InputTokens += usage.InputTokens
	out.Usage.OutputTokens += usage.OutputTokens
	out.Usage.TotalTokens += usage.TotalTokens
	return out, nil
}

func (e *Extractor) completeFreeText(ctx context.Context, in Input) (string, TokenUsage, error) {
	system := []string{
		"You are a licensed life-insurance agent replying by SMS to a lead.",
		"Reply in at most 2 short sentences. No links, no emojis, no signature.",
		"Always steer toward booking a short phone call.",
	}
	if len(in.RecentReplies) > 0 {
		system = append(system, "Do not repeat any of these previous replies verbatim:\n- "+strings.Join(in.RecentReplies, "\n- "))
	}
	resp, err := e.llm.Complete(ctx, LLMRequest{
		Model:       e.modelID,
		System:      system,
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: in.Body}},
		MaxTokens:   160,
		Temperature: 0.7,
	})
	if err != nil {
		return "", TokenUsage{}, fmt.Errorf("intent: free-text completion: %w", err)
	}
	return resp.Text, resp.Usage, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
