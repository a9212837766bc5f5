// Package openai condenses ticket text with the OpenAI chat completions API.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/lorrc/ticket-desk/internal/core/domain"
	apperrors "github.com/lorrc/ticket-desk/internal/core/errors"
	"github.com/lorrc/ticket-desk/internal/core/ports"
)

const systemPrompt = `You help an IT service desk triage support tickets.
Reply with a single JSON object and nothing else, using exactly these keys:
"condensed": the ticket restated in one short sentence of at most 100 characters,
"inProgressSubject": a short email subject telling the requester the ticket is being handled,
"inProgressText": a two or three sentence email body telling the requester the ticket is being handled.`

// Config holds the summarizer settings.
type Config struct {
	APIKey string
	Model  string
	// BaseURL overrides the API endpoint. Empty uses the public API.
	BaseURL string
	Timeout time.Duration
}

// Summarizer implements ports.Summarizer.
type Summarizer struct {
	client  openai.Client
	model   shared.ChatModel
	timeout time.Duration
}

var _ ports.Summarizer = (*Summarizer)(nil)

// NewSummarizer creates a summarizer. Retries are disabled so that a slow
// provider never delays ticket creation past Timeout.
func NewSummarizer(cfg Config) *Summarizer {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := shared.ChatModel(cfg.Model)
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	return &Summarizer{
		client:  openai.NewClient(opts...),
		model:   model,
		timeout: timeout,
	}
}

// Condense asks the model for the condensed summary and in-progress email.
func (s *Summarizer) Condense(ctx context.Context, input ports.SummarizeInput) (domain.Enrichment, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	completion, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: s.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt(input)),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
		Temperature: openai.Float(0.2),
	})
	if err != nil {
		return domain.Enrichment{}, apperrors.NewEnrichmentError("chat completion request", err)
	}
	if len(completion.Choices) == 0 {
		return domain.Enrichment{}, apperrors.NewEnrichmentError("empty completion", nil)
	}

	return parseEnrichment(completion.Choices[0].Message.Content)
}

func userPrompt(input ports.SummarizeInput) string {
	var b strings.Builder
	b.WriteString("Ticket description:\n")
	b.WriteString(input.Description)
	if input.Email != "" {
		fmt.Fprintf(&b, "\nRequester email: %s", input.Email)
	}
	if input.Phone != "" {
		fmt.Fprintf(&b, "\nRequester phone: %s", input.Phone)
	}
	return b.String()
}

// parseEnrichment reads the model output. Models occasionally wrap the
// object in a markdown code fence.
func parseEnrichment(content string) (domain.Enrichment, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
		content = strings.TrimSpace(content)
	}

	var enrichment domain.Enrichment
	if err := json.Unmarshal([]byte(content), &enrichment); err != nil {
		return domain.Enrichment{}, apperrors.NewEnrichmentError("malformed model output", err)
	}

	enrichment.Condensed = strings.TrimSpace(enrichment.Condensed)
	enrichment.InProgressSubject = strings.TrimSpace(enrichment.InProgressSubject)
	enrichment.InProgressText = strings.TrimSpace(enrichment.InProgressText)
	if !enrichment.IsComplete() {
		return domain.Enrichment{}, apperrors.NewEnrichmentError("model output is missing fields", nil)
	}
	return enrichment, nil
}
