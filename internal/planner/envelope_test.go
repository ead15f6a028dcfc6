package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripFences(t *testing.T) {
	tests := map[string]string{
		"plain":        `{"a":1}`,
		"json fence":   "```json\n{\"a\":1}\n```",
		"bare fence":   "```\n{\"a\":1}\n```",
		"surrounding":  "  \n```json{\"a\":1}```  \n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, `{"a":1}`, stripFences(in))
		})
	}
}

func TestDecodeEnvelope(t *testing.T) {
	v, err := decodeEnvelope[map[string]int]("```json\n{\"a\": 1}\n```")
	require.NoError(t, err)
	assert.Equal(t, 1, v["a"])

	_, err = decodeEnvelope[map[string]int]("Sure! Here is your plan.")
	assert.ErrorIs(t, err, ErrMalformedOutput)
}
