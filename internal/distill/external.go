package distill

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/HendryAvila/recall/internal/store"
)

// maxTranscript caps the condensed transcript sent to the model.
const maxTranscript = 12000

const systemPrompt = `You extract durable project knowledge from an AI coding session transcript.
Return ONLY a JSON array. Each element:
{"category": "decision|convention|preference|bugfix|pattern|architecture",
 "subject": "short key", "content": "one-sentence fact", "confidence": 0.1-1.0}
Extract only facts that will still matter in future sessions. Return [] if there are none.`

// ExternalModel distills a transcript by asking an OpenAI-compatible
// chat-completion endpoint.
type ExternalModel struct {
	client openai.Client
	model  string
}

// NewExternalModel builds the strategy. baseURL may be empty for the
// default endpoint.
func NewExternalModel(apiKey, model, baseURL string) *ExternalModel {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &ExternalModel{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

// Name implements Strategy.
func (m *ExternalModel) Name() string { return "external" }

// Distill implements Strategy.
func (m *ExternalModel) Distill(ctx context.Context, turns []store.Turn) ([]Entry, error) {
	transcript := condenseTranscript(turns)
	if transcript == "" {
		return nil, nil
	}

	resp, err := m.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(m.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(transcript),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("distill: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("distill: empty completion response")
	}
	return parseEntries(resp.Choices[0].Message.Content)
}

// condenseTranscript renders turns into a compact plain-text transcript
// bounded by maxTranscript. The most recent turns win when space runs
// out, since they carry the session's conclusions.
func condenseTranscript(turns []store.Turn) string {
	var lines []string
	for _, t := range turns {
		content := strings.TrimSpace(t.Content)
		if content == "" {
			continue
		}
		if len(content) > 400 {
			content = content[:400] + "..."
		}
		lines = append(lines, fmt.Sprintf("[%s] %s", t.Kind, content))
	}

	total := 0
	start := len(lines)
	for i := len(lines) - 1; i >= 0; i-- {
		total += len(lines[i]) + 1
		if total > maxTranscript {
			break
		}
		start = i
	}
	return strings.Join(lines[start:], "\n")
}

// parseEntries reads the model's reply leniently: code fences are
// stripped and the first JSON array in the text is used. Entries with
// unknown categories are dropped, confidence is clamped.
func parseEntries(reply string) ([]Entry, error) {
	raw := extractJSONArray(reply)
	if raw == "" {
		return nil, fmt.Errorf("distill: no JSON array in model reply")
	}

	var entries []Entry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("distill: parse model reply: %w", err)
	}

	var valid []Entry
	for _, e := range entries {
		if !store.ValidCategory(e.Category) || e.Subject == "" || e.Content == "" {
			continue
		}
		e.Confidence = clampConfidence(e.Confidence)
		valid = append(valid, e)
	}
	return valid, nil
}

func extractJSONArray(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if i := strings.Index(s, "\n"); i >= 0 {
			s = s[i+1:]
		}
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	start := strings.IndexByte(s, '[')
	end := strings.LastIndexByte(s, ']')
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
