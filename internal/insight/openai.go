package insight

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"bahikhata/internal/core"
)

// OpenAIClient implements both collaborator ports against any
// OpenAI-compatible chat completion endpoint.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient builds a client. baseURL may be empty to use the default
// OpenAI endpoint; model defaults to gpt-4o, the vision-capable model the
// extractor needs.
func NewOpenAIClient(apiKey, baseURL, model string) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4o
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

const advisorSystemPrompt = "You are a business insights assistant for Indian small-business owners. " +
	"Given a day's bookkeeping totals, reply with JSON only: " +
	`{"insights": "2-3 sentences", "action_points": ["p1", "p2", "p3", "p4", "p5"]}.`

// Advise asks the model for narrative insights about one day's totals.
func (c *OpenAIClient) Advise(ctx context.Context, report core.DailyReport) (string, []string, error) {
	prompt := fmt.Sprintf(`Daily Business Report for %s:
- Sales: %s
- Purchase: %s
- Expense: %s
- Net: %s

Provide brief insights (2-3 sentences) and up to 5 concrete action points for tomorrow.`,
		report.Date.Format(core.DateLayout),
		report.SalesTotal.FormatRupees(),
		report.PurchaseTotal.FormatRupees(),
		report.ExpenseTotal.FormatRupees(),
		report.NetAmount.FormatRupees())

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: advisorSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		// Low temperature keeps the JSON stable.
		Temperature: 0.2,
	})
	if err != nil {
		return "", nil, fmt.Errorf("advisor completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil, errors.New("advisor returned no choices")
	}

	var parsed struct {
		Insights     string   `json:"insights"`
		ActionPoints []string `json:"action_points"`
	}
	raw := resp.Choices[0].Message.Content
	if err := decodeJSONBlock(raw, &parsed); err != nil {
		// The model ignored the format; salvage the text as the insight.
		slog.WarnContext(ctx, "Advisor response was not JSON, using raw text", "error", err)
		return truncate(raw, 500), nil, nil
	}
	return parsed.Insights, clampActionPoints(parsed.ActionPoints), nil
}

const extractorSystemPrompt = "You are an OCR assistant. Extract all monetary amounts from the document and " +
	"categorize each as sales, purchase, or expense. Reply with JSON only: " +
	`{"sales": [amounts], "purchase": [amounts], "expense": [amounts], "raw_text": "all recognized text"}. ` +
	"Omit categories with no amounts."

// Extract performs vision OCR over an uploaded document and returns the
// categorized candidate amounts.
func (c *OpenAIClient) Extract(ctx context.Context, filename, contentType string, data []byte) (core.ExtractedData, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data))

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: extractorSystemPrompt},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: "Extract and categorize all amounts from this document (" + filename + ").",
					},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: dataURL},
					},
				},
			},
		},
		Temperature: 0.1,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return core.ExtractedData{}, fmt.Errorf("%w: extraction timed out", core.ErrUnavailable)
		}
		return core.ExtractedData{}, fmt.Errorf("extractor completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return core.ExtractedData{}, nil
	}

	var extracted core.ExtractedData
	raw := resp.Choices[0].Message.Content
	if err := decodeJSONBlock(raw, &extracted); err != nil {
		// Keep whatever the model read even when the structure is off.
		slog.WarnContext(ctx, "Extractor response was not JSON, keeping raw text", "error", err)
		return core.ExtractedData{RawText: truncate(raw, 2000)}, nil
	}
	return extracted, nil
}

// decodeJSONBlock tolerates markdown code fences around a JSON payload.
func decodeJSONBlock(s string, v any) error {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return json.Unmarshal([]byte(strings.TrimSpace(s)), v)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
