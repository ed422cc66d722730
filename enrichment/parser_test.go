package enrichment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClassification(t *testing.T) {
	plain := `{"category":"TASK","mood":"TIRED","summary":"Needs to buy milk."}`

	tests := []struct {
		name string
		raw  string
	}{
		{name: "plain", raw: plain},
		{name: "json fence", raw: "```json\n" + plain + "\n```"},
		{name: "bare fence", raw: "```\n" + plain + "\n```"},
		{name: "surrounding whitespace", raw: "\n\t  " + plain + "  \n"},
		{name: "fence with whitespace", raw: "  ```json " + plain + " ```  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseClassification(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, "TASK", got.Category)
			assert.Equal(t, "TIRED", got.Mood)
			assert.Equal(t, "Needs to buy milk.", got.Summary)
		})
	}
}

func TestParseClassification_Untyped(t *testing.T) {
	got, err := ParseClassification(`{"category":7,"mood":null,"extra":true}`)
	require.NoError(t, err)
	assert.Equal(t, float64(7), got.Category)
	assert.Nil(t, got.Mood)
	assert.Nil(t, got.Summary)
}

func TestParseClassification_Failures(t *testing.T) {
	for name, raw := range map[string]string{
		"prose":          "This message is a study note about consensus.",
		"empty":          "",
		"only fences":    "```json```",
		"array":          `[{"category":"STUDY"}]`,
		"null":           "null",
		"string":         `"STUDY"`,
		"truncated":      `{"category":"STUDY","mood":`,
		"trailing prose": `{"category":"STUDY"} hope this helps`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseClassification(raw)
			assert.ErrorIs(t, err, ErrUnparseableResponse)
		})
	}
}

func TestStripAllFences(t *testing.T) {
	raw := "Here you go:\n```json\n{\"boldness\":\"Hot Take\"}\n```"
	assert.Equal(t, "Here you go:\n\n{\"boldness\":\"Hot Take\"}", stripAllFences(raw))
}
