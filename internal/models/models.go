package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gafi-insights/internal/icons"
)

// Chat roles accepted by the completion endpoint.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage represents a single conversational turn sent to the provider.
type ChatMessage struct {
	Role    string
	Content string
}

// CandidateModel identifies one LLM backend in the fallback chain.
// Candidates are configured once and immutable at runtime.
type CandidateModel struct {
	ID        string
	Rank      int
	Reasoning bool
}

// CompletionRequest is the canonical representation of one completion call.
// It is built per synthesis call and discarded afterwards.
type CompletionRequest struct {
	Messages         []ChatMessage
	Temperature      float64
	TopP             float64
	MaxTokens        int
	FrequencyPenalty float64
	PresencePenalty  float64
	Stream           bool
}

// OutcomeKind tags the variant carried by a CompletionOutcome.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeFailure
)

// FailureKind classifies terminal dispatcher failures.
type FailureKind int

const (
	FailureAuth FailureKind = iota
	FailureRateLimited
	FailureUpstream
	FailureAllUnavailable
)

func (k FailureKind) String() string {
	switch k {
	case FailureAuth:
		return "auth_failure"
	case FailureRateLimited:
		return "rate_limited"
	case FailureUpstream:
		return "upstream_error"
	case FailureAllUnavailable:
		return "all_candidates_unavailable"
	default:
		return fmt.Sprintf("failure_kind(%d)", int(k))
	}
}

// Degradation records one candidate that reported itself over capacity.
type Degradation struct {
	Model  string
	Reason string
}

// CompletionOutcome is the dispatcher result. Kind selects the variant:
// Success carries Text/ModelUsed/Latency, Failure carries Failure/Message.
// Degradations lists candidates skipped along the way in either case.
type CompletionOutcome struct {
	Kind         OutcomeKind
	Text         string
	ModelUsed    string
	Latency      time.Duration
	Failure      FailureKind
	Message      string
	Degradations []Degradation
}

// InsightType is the closed severity set the rendering layer understands.
type InsightType int

const (
	InsightInfo InsightType = iota
	InsightWarning
	InsightError
	InsightSuccess
)

func (t InsightType) String() string {
	switch t {
	case InsightWarning:
		return "warning"
	case InsightError:
		return "error"
	case InsightSuccess:
		return "success"
	default:
		return "info"
	}
}

// DefaultColor returns the hex colour used when a record carries none.
func (t InsightType) DefaultColor() string {
	switch t {
	case InsightWarning:
		return "#FF9800"
	case InsightError:
		return "#F44336"
	case InsightSuccess:
		return "#4CAF50"
	default:
		return "#2196F3"
	}
}

// ParseInsightType maps free-form model output onto the closed set,
// defaulting to info.
func ParseInsightType(raw string) InsightType {
	switch raw {
	case "warning", "warn":
		return InsightWarning
	case "error", "danger":
		return InsightError
	case "success":
		return InsightSuccess
	default:
		return InsightInfo
	}
}

func (t InsightType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *InsightType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = ParseInsightType(raw)
	return nil
}

// InsightRecord is a normalized, UI-safe unit of advice. Title and Message
// are non-empty, Icon is a vocabulary member, and ID is unique within one
// synthesis call.
type InsightRecord struct {
	ID      string      `json:"id"`
	Type    InsightType `json:"type"`
	Title   string      `json:"title"`
	Message string      `json:"message"`
	Icon    icons.Icon  `json:"icon"`
	Color   string      `json:"color"`
}

// CategorySpend is one slice of the spending breakdown.
type CategorySpend struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// DomainContext carries the read-only numbers insights are derived from.
type DomainContext struct {
	TotalSpent  float64         `json:"total_spent"`
	TotalBudget float64         `json:"total_budget"`
	Categories  []CategorySpend `json:"categories"`
	Currency    string          `json:"currency"`
}

// Empty reports whether the user has no financial data yet.
func (c DomainContext) Empty() bool {
	return c.TotalSpent == 0 && c.TotalBudget == 0 && len(c.Categories) == 0
}
