package jsonx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type extraction struct {
	Grade   *string `json:"grade"`
	Subject *string `json:"subject"`
	Topic   *string `json:"topic"`
}

func TestParseFencedAndUnfencedRoundTrip(t *testing.T) {
	raw := `{"grade": "middle school", "subject": "math", "topic": "geometry"}`
	fenced := "```json\n" + raw + "\n```"

	var plain, wrapped extraction
	require.NoError(t, Parse(raw, &plain))
	require.NoError(t, Parse(fenced, &wrapped))

	assert.Equal(t, plain, wrapped)
	assert.Equal(t, "math", *plain.Subject)
}

func TestParseFenceWithoutLanguageTag(t *testing.T) {
	var got extraction
	require.NoError(t, Parse("```\n{\"grade\": \"5\", \"subject\": null, \"topic\": null}\n```", &got))

	require.NotNil(t, got.Grade)
	assert.Equal(t, "5", *got.Grade)
	assert.Nil(t, got.Subject)
}

func TestParseLeadingProse(t *testing.T) {
	reply := `Sure! Here is the extracted information:
{"grade": "high school", "subject": "physics", "topic": "mechanics"}`

	var got extraction
	require.NoError(t, Parse(reply, &got))
	assert.Equal(t, "mechanics", *got.Topic)
}

func TestParseMissingClosingFence(t *testing.T) {
	reply := "```json\n{\"grade\": \"5\", \"subject\": \"math\", \"topic\": \"fractions\"}"

	var got extraction
	require.NoError(t, Parse(reply, &got))
	assert.Equal(t, "fractions", *got.Topic)
}

func TestParseNonJSONFails(t *testing.T) {
	var got extraction
	err := Parse("I could not extract anything useful, sorry.", &got)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedReply)
}

func TestParseGarbageObjectFails(t *testing.T) {
	var got extraction
	err := Parse("{not valid json at all}", &got)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedReply)
}

func TestCleanKeepsPlainText(t *testing.T) {
	assert.Equal(t, `{"a":1}`, Clean("  {\"a\":1}\n"))
}
