package chunking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractKeywords_RespectsBounds(t *testing.T) {
	text := `The "Quantum Gateway" project, led by Acme Corp, delivered a
	*breakthrough* result in distributed systems research. Acme Corp will
	continue funding the Quantum Gateway initiative next year.`

	kws := ExtractKeywords(text)
	assert.LessOrEqual(t, len(kws), MaxKeywords)
	assert.NotEmpty(t, kws)
	for _, k := range kws {
		assert.GreaterOrEqual(t, len(k), 1)
	}
}

func TestExtractKeywords_PrefersQuotedAndEmphasized(t *testing.T) {
	text := `This document discusses "Project Orion" in great detail and also
	mentions *Project Orion* again for emphasis.`

	kws := ExtractKeywords(text)
	found := false
	for _, k := range kws {
		if k == "project orion" {
			found = true
		}
	}
	assert.True(t, found, "expected the repeated quoted/emphasized phrase to rank highly, got %v", kws)
}

func TestFallbackKeywords_FrequencyOrder(t *testing.T) {
	text := "alpha alpha alpha beta beta gamma"
	kws := FallbackKeywords(text, 3)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, kws)
}

func TestValidPhrase_RejectsShortAndStopwordOnly(t *testing.T) {
	assert.False(t, validPhrase("a"))
	assert.False(t, validPhrase("the a"))
	assert.True(t, validPhrase("orion gateway"))
}
