package chunking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk_TwoParagraphsUnderOneHeading(t *testing.T) {
	res, err := Chunk("# A\n\npara1\n\npara2\n", "A", 100)
	require.NoError(t, err)
	require.Len(t, res.Chunks, 1)

	c := res.Chunks[0]
	assert.Equal(t, "A-1", c.ChunkID)
	assert.Equal(t, map[string]string{"h1": "A"}, c.Headings)
	assert.Contains(t, c.Text, "para1")
	assert.Contains(t, c.Text, "para2")
}

func TestChunk_HeadingBreak(t *testing.T) {
	res, err := Chunk("# A\n\npara1\n\n## B\n\npara2\n", "A", 100)
	require.NoError(t, err)
	require.Len(t, res.Chunks, 2)

	assert.Equal(t, map[string]string{"h1": "A"}, res.Chunks[0].Headings)
	assert.Equal(t, map[string]string{"h1": "A", "h2": "B"}, res.Chunks[1].Headings)

	for _, c := range res.Chunks {
		hasBoth := strings.Contains(c.Text, "para1") && strings.Contains(c.Text, "para2")
		assert.False(t, hasBoth, "no chunk should contain both paragraphs")
	}
}

func TestChunk_AtomicList(t *testing.T) {
	var items strings.Builder
	items.WriteString("# A\n\n")
	word := "lorem "
	for i := 0; i < 20; i++ {
		items.WriteString("- ")
		items.WriteString(strings.Repeat(word, 25))
		items.WriteString("\n")
	}

	res, err := Chunk(items.String(), "A", 50)
	require.NoError(t, err)
	require.Len(t, res.Chunks, 1)
	assert.Greater(t, res.Chunks[0].ApproxTokens, 50)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "budget_exceeded_by_atomic", res.Warnings[0].Kind)
}

func TestChunk_ParagraphListPairing(t *testing.T) {
	res, err := Chunk("# A\n\nintro sentence.\n\n- item1\n- item2\n", "A", 100)
	require.NoError(t, err)
	require.Len(t, res.Chunks, 1)

	text := res.Chunks[0].Text
	assert.True(t, strings.HasPrefix(text, "intro sentence."))
	assert.Contains(t, text, "item1")
	assert.Contains(t, text, "item2")
}

func TestChunk_TokenEstimateIsWordCount(t *testing.T) {
	res, err := Chunk("# A\n\none two three four\n", "A", 100)
	require.NoError(t, err)
	require.Len(t, res.Chunks, 1)
	assert.Equal(t, 4, res.Chunks[0].ApproxTokens)
	assert.GreaterOrEqual(t, res.Chunks[0].ApproxTokens, 1)
}

func TestChunk_NoHeadingBeforeAnyContent(t *testing.T) {
	res, err := Chunk("intro with no heading\n", "A", 100)
	require.NoError(t, err)
	require.Len(t, res.Chunks, 1)
	assert.Nil(t, res.Chunks[0].Headings)
	assert.Nil(t, res.Chunks[0].Heading)
}

func TestChunk_TableRendersAsKeyValueRows(t *testing.T) {
	md := "# A\n\n| name | age |\n| --- | --- |\n| alice | 30 |\n| bob | 40 |\n"
	res, err := Chunk(md, "A", 100)
	require.NoError(t, err)
	require.Len(t, res.Chunks, 1)
	assert.Contains(t, res.Chunks[0].Text, "TABLE:")
	assert.Contains(t, res.Chunks[0].Text, "name: alice; age: 30")
}

func TestChunk_Packing(t *testing.T) {
	md := "# A\n\n" + strings.Repeat("word ", 30) + "\n\n" + strings.Repeat("next ", 30) + "\n"
	res, err := Chunk(md, "A", 40)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(res.Chunks), 2)
}
