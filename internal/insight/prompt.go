package insight

import (
	"encoding/json"
	"fmt"

	"gafi-insights/internal/config"
	"gafi-insights/internal/models"
)

const systemPrompt = `You are a personal finance assistant for a budgeting app. ` +
	`Given the user's spending figures, respond with a JSON array of 2 to 4 insight objects and nothing else. ` +
	`Each object has exactly these string fields: "title" (short headline), "message" (one or two sentences of advice), ` +
	`"type" (one of "info", "warning", "error", "success"), "icon" (an Ionicons outline name such as "wallet-outline"), ` +
	`and "color" (a hex value like "#2196F3"). No markdown, no commentary, no trailing text.`

// buildRequest assembles the per-call completion request from the
// instruction template and the serialized numeric context.
func buildRequest(tuning config.InsightsConfig, domain models.DomainContext) models.CompletionRequest {
	serialized, err := json.Marshal(domain)
	if err != nil {
		// DomainContext is plain data; marshalling cannot realistically
		// fail, but the pipeline must not panic either way.
		serialized = []byte("{}")
	}

	user := fmt.Sprintf("Here is my current spending snapshot as JSON:\n%s\n\nGenerate the insight array.", serialized)

	return models.CompletionRequest{
		Messages: []models.ChatMessage{
			{Role: models.RoleSystem, Content: systemPrompt},
			{Role: models.RoleUser, Content: user},
		},
		Temperature:      tuning.Temperature,
		TopP:             tuning.TopP,
		MaxTokens:        tuning.MaxTokens,
		FrequencyPenalty: tuning.FrequencyPenalty,
		PresencePenalty:  tuning.PresencePenalty,
		Stream:           false,
	}
}
