package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"loanscan/internal/models"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Assistant fills fields the rule pass could not find.
type Assistant interface {
	Fill(ctx context.Context, text string, missing []Field) (map[Field]string, error)
}

// Complete asks a for the fields res is missing and stores any non-empty
// answers. res is left untouched on error.
func Complete(ctx context.Context, a Assistant, res *Result) error {
	missing := res.Missing()
	if a == nil || len(missing) == 0 {
		return nil
	}
	filled, err := a.Fill(ctx, res.FullText, missing)
	if err != nil {
		return err
	}
	for _, f := range missing {
		if v := strings.TrimSpace(filled[f]); v != "" {
			res.Set(f, v)
		}
	}
	return nil
}

// GeminiAssistant asks a Gemini model to return the missing fields as JSON.
type GeminiAssistant struct {
	client *genai.Client
	model  string
}

func NewGeminiAssistant(ctx context.Context, apiKey, model string) (*GeminiAssistant, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("missing GEMINI_API_KEY")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to init Gemini client: %w", err)
	}
	return &GeminiAssistant{client: client, model: model}, nil
}

func (g *GeminiAssistant) Close() error { return g.client.Close() }

const geminiPrompt = `You extract fields from the OCR text of a loan application document.

Rules:
1. Return ONLY a JSON object with these keys: %s.
2. If a field cannot be found in the text, its value must be null.
3. income and loanAmount must contain only digits and commas, as printed on the document.
4. Remove newline characters and surrounding whitespace from values.

Raw text:
"""
%s
"""`

func (g *GeminiAssistant) Fill(ctx context.Context, text string, missing []Field) (map[Field]string, error) {
	model := g.client.GenerativeModel(g.model)
	model.GenerationConfig = genai.GenerationConfig{ResponseMIMEType: "application/json"}

	keys := make([]string, len(missing))
	for i, f := range missing {
		keys[i] = fmt.Sprintf("%q", f)
	}
	prompt := fmt.Sprintf(geminiPrompt, strings.Join(keys, ", "), text)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini generation failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return nil, errors.New("empty response from Gemini")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return parseAssistantJSON(sb.String(), missing)
}

// parseAssistantJSON reads the model answer, tolerating code fences, prose
// around the object and null or non-string values.
func parseAssistantJSON(answer string, missing []Field) (map[Field]string, error) {
	s := stripCodeFences(answer)
	if s == "" {
		return nil, errors.New("no text in Gemini response")
	}
	if obj, ok := extractBalanced(s, '{', '}'); ok {
		s = obj
	}

	var tmp map[string]any
	if err := json.Unmarshal([]byte(s), &tmp); err != nil {
		return nil, fmt.Errorf("failed to parse Gemini JSON: %w", err)
	}

	out := make(map[Field]string, len(missing))
	for _, f := range missing {
		var v string
		switch t := tmp[string(f)].(type) {
		case nil:
			continue
		case string:
			v = t
		case float64:
			v = fmt.Sprint(t)
		default:
			continue
		}
		if v = strings.TrimSpace(v); v != "" && !strings.EqualFold(v, models.NotFound) {
			out[f] = v
		}
	}
	return out, nil
}

// stripCodeFences removes surrounding Markdown fences like ```json ... ```.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimSpace(strings.TrimPrefix(s, "```"))
	if i := strings.IndexByte(s, '\n'); i != -1 {
		if first := strings.TrimSpace(s[:i]); len(first) > 0 && len(first) < 20 && !strings.HasPrefix(first, "{") {
			s = s[i+1:]
		}
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

func extractBalanced(s string, open, close rune) (string, bool) {
	start := -1
	depth := 0
	for i, r := range s {
		switch r {
		case open:
			if depth == 0 {
				start = i
			}
			depth++
		case close:
			if depth > 0 {
				depth--
				if depth == 0 && start != -1 {
					return s[start : i+1], true
				}
			}
		}
	}
	return "", false
}
