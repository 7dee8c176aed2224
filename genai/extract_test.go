package genai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONObject(t *testing.T) {
	raw := "Sure! Here is the data:\n```json\n{\"a\": 1, \"b\": [2, 3]}\n```\nHope that helps."
	span, ok := ExtractJSON(raw)
	require.True(t, ok)
	assert.Equal(t, `{"a": 1, "b": [2, 3]}`, span)
}

func TestExtractJSONArray(t *testing.T) {
	span, ok := ExtractJSON(`the keywords are ["go", "sqlite"] as requested`)
	require.True(t, ok)
	assert.Equal(t, `["go", "sqlite"]`, span)
}

func TestExtractJSONBracesInsideStrings(t *testing.T) {
	raw := `{"text": "a } inside a string", "n": 1}`
	span, ok := ExtractJSON("prefix " + raw)
	require.True(t, ok)
	assert.Equal(t, raw, span)
}

func TestExtractJSONNone(t *testing.T) {
	_, ok := ExtractJSON("no structured payload here")
	assert.False(t, ok)

	_, ok = ExtractJSON("{truncated")
	assert.False(t, ok)
}

func TestDecodeLoose(t *testing.T) {
	var v struct {
		Title string `json:"title"`
	}
	require.NoError(t, DecodeLoose(`{"title":"direct"}`, &v))
	assert.Equal(t, "direct", v.Title)

	require.NoError(t, DecodeLoose("noise {\"title\":\"wrapped\"} noise", &v))
	assert.Equal(t, "wrapped", v.Title)

	assert.Error(t, DecodeLoose("not json at all", &v))
}
