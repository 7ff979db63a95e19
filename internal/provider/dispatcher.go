package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"gafi-insights/internal/config"
	"gafi-insights/internal/models"
)

const (
	contentTypeJSON = "application/json"
	userAgent       = "gafi-insights/0.1"

	maxErrorBodyBytes = 64 * 1024
)

// Dispatcher issues completion requests against an ordered chain of
// candidate models. Candidates reporting capacity degradation are
// skipped in favour of the next in rank; hard request errors fail
// immediately, since they are assumed request-level and would recur on
// every remaining candidate. That asymmetry is deliberate.
type Dispatcher struct {
	chatURL        string
	apiKey         string
	degradedMarker string
	candidates     []models.CandidateModel
	client         *http.Client
}

// NewDispatcher constructs a dispatcher over the given candidate chain.
// Candidates must already be ordered by priority rank.
func NewDispatcher(cfg config.ProviderConfig, candidates []models.CandidateModel, client *http.Client) (*Dispatcher, error) {
	if client == nil {
		return nil, errors.New("http client must not be nil")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		return nil, errors.New("base url must not be empty")
	}
	if len(candidates) == 0 {
		return nil, errors.New("at least one candidate model is required")
	}

	owned := make([]models.CandidateModel, len(candidates))
	copy(owned, candidates)

	return &Dispatcher{
		chatURL:        baseURL + "/chat/completions",
		apiKey:         cfg.APIKey,
		degradedMarker: cfg.DegradedMarker,
		candidates:     owned,
		client:         client,
	}, nil
}

// attemptState is the dispatcher's explicit loop state: which candidate
// is next and what happened to the ones already tried.
type attemptState struct {
	index        int
	degradations []models.Degradation
}

func (s *attemptState) recordDegraded(model, reason string) {
	s.degradations = append(s.degradations, models.Degradation{Model: model, Reason: reason})
}

// Issue walks the candidate chain in priority order and returns a
// Success outcome for the first candidate that produces non-empty
// content, or a Failure outcome. It never returns Success with empty
// text.
func (d *Dispatcher) Issue(ctx context.Context, req models.CompletionRequest) models.CompletionOutcome {
	state := &attemptState{}

	for state.index = 0; state.index < len(d.candidates); state.index++ {
		candidate := d.candidates[state.index]
		started := time.Now()
		text, err := d.attempt(ctx, candidate, req)
		latency := time.Since(started)

		if err == nil {
			slog.Info("completion succeeded",
				"model", candidate.ID,
				"latency_ms", latency.Milliseconds(),
				"skipped", len(state.degradations),
			)
			return models.CompletionOutcome{
				Kind:         models.OutcomeSuccess,
				Text:         text,
				ModelUsed:    candidate.ID,
				Latency:      latency,
				Degradations: state.degradations,
			}
		}

		var degraded *degradedError
		if errors.As(err, &degraded) {
			state.recordDegraded(candidate.ID, degraded.reason)
			slog.Warn("candidate degraded, trying next",
				"model", candidate.ID,
				"reason", degraded.reason,
			)
			continue
		}

		var hard *apiError
		if errors.As(err, &hard) {
			slog.Error("completion failed",
				"model", candidate.ID,
				"kind", hard.kind.String(),
				"status", hard.status,
			)
			return models.CompletionOutcome{
				Kind:         models.OutcomeFailure,
				Failure:      hard.kind,
				Message:      hard.message,
				Degradations: state.degradations,
			}
		}

		// Transport-level failure. No retry within a candidate; the
		// orchestrator always has its own fallback path.
		slog.Error("completion request failed", "model", candidate.ID, "err", err)
		return models.CompletionOutcome{
			Kind:         models.OutcomeFailure,
			Failure:      models.FailureUpstream,
			Message:      err.Error(),
			Degradations: state.degradations,
		}
	}

	return models.CompletionOutcome{
		Kind:         models.OutcomeFailure,
		Failure:      models.FailureAllUnavailable,
		Message:      "all candidate models reported degraded capacity",
		Degradations: state.degradations,
	}
}

// attempt performs one provider call for a single candidate.
func (d *Dispatcher) attempt(ctx context.Context, candidate models.CandidateModel, req models.CompletionRequest) (string, error) {
	payload := buildChatPayload(candidate, req)

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.chatURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("construct request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentTypeJSON)
	httpReq.Header.Set("Accept", contentTypeJSON)
	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("Authorization", "Bearer "+d.apiKey)

	httpResp, err := d.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return "", d.classifyError(candidate, httpResp)
	}

	var decoded chatResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&decoded); err != nil {
		return "", &degradedError{model: candidate.ID, reason: fmt.Sprintf("undecodable response: %v", err)}
	}

	text := decoded.primaryText()
	if strings.TrimSpace(text) == "" {
		// Malformed or empty content counts as degraded-equivalent:
		// never surface Success without content.
		return "", &degradedError{model: candidate.ID, reason: "response missing content"}
	}
	return text, nil
}

// classifyError maps a non-2xx response onto the error taxonomy. A 400
// carrying the provider's degraded marker means this candidate is over
// capacity and the next should be tried.
func (d *Dispatcher) classifyError(candidate models.CandidateModel, resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err != nil {
		body = nil
	}
	message := providerErrorMessage(body)
	if message == "" {
		message = fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if resp.StatusCode == http.StatusBadRequest && d.degradedMarker != "" &&
		strings.Contains(strings.ToLower(string(body)), strings.ToLower(d.degradedMarker)) {
		return &degradedError{model: candidate.ID, reason: message}
	}

	kind := models.FailureUpstream
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = models.FailureAuth
	case http.StatusTooManyRequests:
		kind = models.FailureRateLimited
	}
	return &apiError{kind: kind, status: resp.StatusCode, message: message}
}

type degradedError struct {
	model  string
	reason string
}

func (e *degradedError) Error() string {
	return fmt.Sprintf("model %s degraded: %s", e.model, e.reason)
}

type apiError struct {
	kind    models.FailureKind
	status  int
	message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s (status %d): %s", e.kind, e.status, e.message)
}

type chatPayload struct {
	Model            string        `json:"model"`
	Messages         []chatMessage `json:"messages"`
	Temperature      float64       `json:"temperature"`
	TopP             float64       `json:"top_p"`
	FrequencyPenalty float64       `json:"frequency_penalty"`
	PresencePenalty  float64       `json:"presence_penalty"`
	MaxTokens        int           `json:"max_tokens"`
	Stream           bool          `json:"stream"`
	EnableThinking   *bool         `json:"enable_thinking,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func buildChatPayload(candidate models.CandidateModel, req models.CompletionRequest) chatPayload {
	messages := make([]chatMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, chatMessage{Role: msg.Role, Content: msg.Content})
	}

	payload := chatPayload{
		Model:            candidate.ID,
		Messages:         messages,
		Temperature:      req.Temperature,
		TopP:             req.TopP,
		FrequencyPenalty: req.FrequencyPenalty,
		PresencePenalty:  req.PresencePenalty,
		MaxTokens:        req.MaxTokens,
		Stream:           req.Stream,
	}
	// The reasoning flag is only sent to candidates that support it;
	// others reject unknown fields.
	if candidate.Reasoning {
		enabled := true
		payload.EnableThinking = &enabled
	}
	return payload
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content          string `json:"content"`
			ReasoningContent string `json:"reasoning_content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// primaryText returns the first choice's content, falling back to the
// secondary reasoning field some backends populate instead.
func (r chatResponse) primaryText() string {
	if len(r.Choices) == 0 {
		return ""
	}
	msg := r.Choices[0].Message
	if strings.TrimSpace(msg.Content) != "" {
		return msg.Content
	}
	return msg.ReasoningContent
}

type providerErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func providerErrorMessage(body []byte) string {
	var decoded providerErrorBody
	if err := json.Unmarshal(body, &decoded); err != nil {
		return ""
	}
	if decoded.Error.Message == "" {
		return ""
	}
	if decoded.Error.Type != "" {
		return fmt.Sprintf("%s: %s", decoded.Error.Type, decoded.Error.Message)
	}
	return decoded.Error.Message
}
