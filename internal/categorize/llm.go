package categorize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// TextGenerator is a client that can answer a prompt with generated text.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// LLMCategorizer asks a language model to organize ingredients into
// categories and to estimate a cost range.
type LLMCategorizer struct {
	textGen TextGenerator
}

// NewLLMCategorizer creates a categorizer backed by a text generator.
func NewLLMCategorizer(gen TextGenerator) *LLMCategorizer {
	return &LLMCategorizer{textGen: gen}
}

var _ Categorizer = (*LLMCategorizer)(nil)

// Categorize prompts the model and parses its JSON response, preserving the
// category order the model produced.
func (c *LLMCategorizer) Categorize(ctx context.Context, ingredients []string, name string) (*Result, error) {
	var sb strings.Builder
	for _, ing := range ingredients {
		fmt.Fprintf(&sb, "- %s\n", ing)
	}

	prompt := fmt.Sprintf(`
You are a grocery shopping assistant. Organize the following ingredient list
for "%s" into purchase categories.

Ingredients:
%s
Return the result strictly as a JSON object with this structure:
{
  "categories": {
    "Produce": ["item1", "item2"],
    "Meat & Seafood": ["item1"],
    "Dairy": ["item1"],
    "Pantry": ["item1"],
    "Spices & Seasonings": ["item1"]
  },
  "total_items": count,
  "estimated_cost": "price_range"
}

Keep every ingredient as its own entry; do not merge or drop any.
Do not include any other text in your response.
Return ONLY the raw JSON string. Do not wrap the response in markdown code blocks.
`, name, sb.String())

	resp, err := c.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("categorization call failed: %w", err)
	}

	result, err := parseResponse([]byte(stripCodeFences(resp)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse categorization response: %w. Response: %s", err, resp)
	}
	return result, nil
}

// stripCodeFences removes a markdown code block wrapper if the model added
// one despite instructions.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// parseResponse decodes the wire shape {"categories": {...}, "total_items",
// "estimated_cost"}. encoding/json maps would lose the category order, so
// the categories object is walked token by token.
func parseResponse(data []byte) (*Result, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	res := &Result{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v, want object key", keyTok)
		}

		switch key {
		case "categories":
			if err := expectDelim(dec, '{'); err != nil {
				return nil, err
			}
			for dec.More() {
				nameTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				name, ok := nameTok.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected token %v, want category name", nameTok)
				}
				var items []string
				if err := dec.Decode(&items); err != nil {
					return nil, fmt.Errorf("failed to decode items for category %q: %w", name, err)
				}
				res.Groups = append(res.Groups, Group{Name: name, Items: items})
			}
			if _, err := dec.Token(); err != nil { // closing }
				return nil, err
			}
		case "estimated_cost":
			if err := dec.Decode(&res.EstimatedCost); err != nil {
				return nil, fmt.Errorf("failed to decode estimated_cost: %w", err)
			}
		default:
			// total_items is recomputed by the aggregator; skip it and
			// anything else unknown.
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, err
			}
		}
	}
	return res, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("unexpected token %v, want %q", tok, want)
	}
	return nil
}
