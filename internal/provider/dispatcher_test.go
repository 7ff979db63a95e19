package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gafi-insights/internal/config"
	"gafi-insights/internal/models"
)

const testMarker = "model capacity"

func testCandidates() []models.CandidateModel {
	return []models.CandidateModel{
		{ID: "m1", Rank: 1, Reasoning: true},
		{ID: "m2", Rank: 2},
	}
}

func newTestDispatcher(t *testing.T, baseURL string) *Dispatcher {
	t.Helper()
	cfg := config.ProviderConfig{
		BaseURL:        baseURL,
		APIKey:         "test-key",
		DegradedMarker: testMarker,
	}
	d, err := NewDispatcher(cfg, testCandidates(), NewHTTPClient(5*time.Second))
	require.NoError(t, err)
	return d
}

func chatOK(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	}
}

func sampleRequest() models.CompletionRequest {
	return models.CompletionRequest{
		Messages:    []models.ChatMessage{{Role: models.RoleUser, Content: "ping"}},
		Temperature: 0.7,
		TopP:        0.9,
		MaxTokens:   256,
	}
}

func TestIssueSuccessFirstCandidate(t *testing.T) {
	var gotPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		_ = json.NewEncoder(w).Encode(chatOK("hello"))
	}))
	defer srv.Close()

	outcome := newTestDispatcher(t, srv.URL).Issue(context.Background(), sampleRequest())

	require.Equal(t, models.OutcomeSuccess, outcome.Kind)
	assert.Equal(t, "hello", outcome.Text)
	assert.Equal(t, "m1", outcome.ModelUsed)
	assert.Empty(t, outcome.Degradations)
	assert.Greater(t, outcome.Latency, time.Duration(0))

	// m1 supports reasoning mode, so the flag must be present.
	assert.Equal(t, true, gotPayload["enable_thinking"])
	assert.Equal(t, "m1", gotPayload["model"])
}

func TestIssueOmitsReasoningFlagForUnsupportingCandidate(t *testing.T) {
	payloads := map[string]map[string]any{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		model := payload["model"].(string)
		payloads[model] = payload
		if model == "m1" {
			http.Error(w, `{"error":{"message":"model capacity degraded"}}`, http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(chatOK("from m2"))
	}))
	defer srv.Close()

	outcome := newTestDispatcher(t, srv.URL).Issue(context.Background(), sampleRequest())

	require.Equal(t, models.OutcomeSuccess, outcome.Kind)
	_, hasFlag := payloads["m2"]["enable_thinking"]
	assert.False(t, hasFlag, "non-reasoning candidate must not receive the flag")
}

func TestIssueDegradedContinuesToNextCandidate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		if payload["model"] == "m1" {
			http.Error(w, `{"error":{"message":"model capacity degraded, try later"}}`, http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(chatOK("recovered"))
	}))
	defer srv.Close()

	outcome := newTestDispatcher(t, srv.URL).Issue(context.Background(), sampleRequest())

	require.Equal(t, models.OutcomeSuccess, outcome.Kind)
	assert.Equal(t, "m2", outcome.ModelUsed)
	require.Len(t, outcome.Degradations, 1)
	assert.Equal(t, "m1", outcome.Degradations[0].Model)
}

func TestIssueAuthFailureStopsImmediately(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":{"message":"invalid api key","type":"auth_error"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	outcome := newTestDispatcher(t, srv.URL).Issue(context.Background(), sampleRequest())

	require.Equal(t, models.OutcomeFailure, outcome.Kind)
	assert.Equal(t, models.FailureAuth, outcome.Failure)
	assert.Contains(t, outcome.Message, "invalid api key")
	assert.Equal(t, int32(1), calls.Load(), "remaining candidates must not be attempted")
}

func TestIssueRateLimitFailsFast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	outcome := newTestDispatcher(t, srv.URL).Issue(context.Background(), sampleRequest())

	require.Equal(t, models.OutcomeFailure, outcome.Kind)
	assert.Equal(t, models.FailureRateLimited, outcome.Failure)
}

func TestIssueServerErrorFailsFast(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	outcome := newTestDispatcher(t, srv.URL).Issue(context.Background(), sampleRequest())

	require.Equal(t, models.OutcomeFailure, outcome.Kind)
	assert.Equal(t, models.FailureUpstream, outcome.Failure)
	assert.Equal(t, int32(1), calls.Load())
}

func TestIssuePlain400WithoutMarkerIsHardFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"messages must not be empty"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	outcome := newTestDispatcher(t, srv.URL).Issue(context.Background(), sampleRequest())

	require.Equal(t, models.OutcomeFailure, outcome.Kind)
	assert.Equal(t, models.FailureUpstream, outcome.Failure)
}

func TestIssueEmptyContentTreatedAsDegraded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		if payload["model"] == "m1" {
			_ = json.NewEncoder(w).Encode(chatOK("   "))
			return
		}
		_ = json.NewEncoder(w).Encode(chatOK("real content"))
	}))
	defer srv.Close()

	outcome := newTestDispatcher(t, srv.URL).Issue(context.Background(), sampleRequest())

	require.Equal(t, models.OutcomeSuccess, outcome.Kind)
	assert.Equal(t, "m2", outcome.ModelUsed)
	assert.Equal(t, "real content", outcome.Text)
	require.Len(t, outcome.Degradations, 1)
}

func TestIssueMissingChoicesTreatedAsDegraded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		if payload["model"] == "m1" {
			_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
			return
		}
		_ = json.NewEncoder(w).Encode(chatOK("ok"))
	}))
	defer srv.Close()

	outcome := newTestDispatcher(t, srv.URL).Issue(context.Background(), sampleRequest())

	require.Equal(t, models.OutcomeSuccess, outcome.Kind)
	assert.Equal(t, "m2", outcome.ModelUsed)
}

func TestIssueSecondaryContentFieldAccepted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "", "reasoning_content": "thought output"}},
			},
		})
	}))
	defer srv.Close()

	outcome := newTestDispatcher(t, srv.URL).Issue(context.Background(), sampleRequest())

	require.Equal(t, models.OutcomeSuccess, outcome.Kind)
	assert.Equal(t, "thought output", outcome.Text)
}

func TestIssueAllCandidatesDegraded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"model capacity exhausted"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	outcome := newTestDispatcher(t, srv.URL).Issue(context.Background(), sampleRequest())

	require.Equal(t, models.OutcomeFailure, outcome.Kind)
	assert.Equal(t, models.FailureAllUnavailable, outcome.Failure)
	require.Len(t, outcome.Degradations, 2)
	assert.Equal(t, "m1", outcome.Degradations[0].Model)
	assert.Equal(t, "m2", outcome.Degradations[1].Model)
}

func TestIssueTransportFailure(t *testing.T) {
	outcome := newTestDispatcher(t, "http://127.0.0.1:1").Issue(context.Background(), sampleRequest())

	require.Equal(t, models.OutcomeFailure, outcome.Kind)
	assert.Equal(t, models.FailureUpstream, outcome.Failure)
}

func TestNewDispatcherValidation(t *testing.T) {
	cfg := config.ProviderConfig{BaseURL: "http://localhost", APIKey: "k"}

	_, err := NewDispatcher(cfg, nil, NewHTTPClient(time.Second))
	assert.Error(t, err)

	_, err = NewDispatcher(cfg, testCandidates(), nil)
	assert.Error(t, err)

	_, err = NewDispatcher(config.ProviderConfig{APIKey: "k"}, testCandidates(), NewHTTPClient(time.Second))
	assert.Error(t, err)
}
