// Package insight turns a numeric domain context into UI-safe insight
// records, preferring AI-generated content but always able to fall back
// to deterministic rules.
package insight

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"gafi-insights/internal/config"
	"gafi-insights/internal/icons"
	"gafi-insights/internal/models"
	"gafi-insights/internal/recovery"
)

// Dispatcher is the completion backend the orchestrator drives.
type Dispatcher interface {
	Issue(ctx context.Context, req models.CompletionRequest) models.CompletionOutcome
}

// Orchestrator composes the dispatcher, recovery engine, normalizer and
// the deterministic generator behind a single no-fail entry point.
type Orchestrator struct {
	dispatcher Dispatcher
	tuning     config.InsightsConfig
	newID      func() string
}

// Option customises orchestrator construction.
type Option func(*Orchestrator)

// WithIDGenerator swaps the record id source. Tests use this for
// predictable ids.
func WithIDGenerator(gen func() string) Option {
	return func(o *Orchestrator) { o.newID = gen }
}

// New constructs an orchestrator.
func New(dispatcher Dispatcher, tuning config.InsightsConfig, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		dispatcher: dispatcher,
		tuning:     tuning,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

var hexColorRE = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Synthesize produces at least one insight record for any context and
// never returns an error: dispatcher failures and unusable model output
// both route to the deterministic generator.
func (o *Orchestrator) Synthesize(ctx context.Context, domain models.DomainContext) []models.InsightRecord {
	if domain.Empty() {
		return []models.InsightRecord{o.welcomeRecord()}
	}

	outcome := o.dispatcher.Issue(ctx, buildRequest(o.tuning, domain))
	if outcome.Kind == models.OutcomeSuccess {
		records := o.normalize(recovery.Recover(outcome.Text))
		if len(records) > 0 {
			return records
		}
		slog.Warn("model output yielded no usable records, using deterministic insights",
			"model", outcome.ModelUsed,
		)
	} else {
		slog.Warn("completion unavailable, using deterministic insights",
			"kind", outcome.Failure.String(),
			"detail", outcome.Message,
		)
	}

	return o.deterministic(domain)
}

// normalize filters and normalizes recovered records into UI-safe form.
// Records without both a title and a message are dropped.
func (o *Orchestrator) normalize(raw []recovery.Record) []models.InsightRecord {
	out := make([]models.InsightRecord, 0, len(raw))
	for _, record := range raw {
		title := strings.TrimSpace(record.Title)
		message := strings.TrimSpace(record.Message)
		if title == "" || message == "" {
			continue
		}

		insightType := models.ParseInsightType(strings.ToLower(strings.TrimSpace(record.Type)))
		color := strings.TrimSpace(record.Color)
		if !hexColorRE.MatchString(color) {
			color = insightType.DefaultColor()
		}

		out = append(out, models.InsightRecord{
			ID:      o.newID(),
			Type:    insightType,
			Title:   title,
			Message: message,
			Icon:    icons.Normalize(record.Icon),
			Color:   color,
		})
	}
	return out
}

func (o *Orchestrator) welcomeRecord() models.InsightRecord {
	return models.InsightRecord{
		ID:      o.newID(),
		Type:    models.InsightInfo,
		Title:   "Welcome to GaFi!",
		Message: "Add your first budget and a few expenses, and I'll start sharing personalised insights here.",
		Icon:    icons.Sparkles,
		Color:   models.InsightInfo.DefaultColor(),
	}
}
