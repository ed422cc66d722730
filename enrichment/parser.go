package enrichment

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RawClassification holds the classifier's fields exactly as decoded.
// Values are untrusted and may be of any JSON type; Normalize turns them
// into a core.Classification.
type RawClassification struct {
	Category any
	Mood     any
	Summary  any
}

// ParseClassification decodes classifier output into a RawClassification.
// Surrounding whitespace and a leading ```json or ``` fence and trailing
// ``` fence are removed before a single JSON decode. Anything other than a
// JSON object fails with ErrUnparseableResponse.
func ParseClassification(raw string) (*RawClassification, error) {
	fields, err := decodeObject(stripOuterFences(raw))
	if err != nil {
		return nil, err
	}
	return &RawClassification{
		Category: fields["category"],
		Mood:     fields["mood"],
		Summary:  fields["summary"],
	}, nil
}

// stripOuterFences removes markdown code fences wrapping the whole text.
func stripOuterFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
	} else {
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// stripAllFences removes every code fence marker wherever it appears.
func stripAllFences(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

func decodeObject(text string) (map[string]any, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnparseableResponse, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: not a JSON object", ErrUnparseableResponse)
	}
	return fields, nil
}
