package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func msgsFrom(texts ...string) []Message {
	msgs := make([]Message, len(texts))
	for i, t := range texts {
		msgs[i] = NewMessage(AuthorUser, t)
	}
	return msgs
}

func TestSearchCaseInsensitiveLogOrder(t *testing.T) {
	msgs := msgsFrom("apple pie", "banana", "Apple tart")

	results := Search(msgs, "apple")
	require.Len(t, results, 2)
	assert.Equal(t, 0, results[0].MessageIndex)
	assert.Equal(t, 2, results[1].MessageIndex)
}

func TestSearchEmptyQuery(t *testing.T) {
	msgs := msgsFrom("anything")
	assert.Nil(t, Search(msgs, ""))
	assert.Nil(t, Search(msgs, "   \t"))
}

func TestSearchNoMatch(t *testing.T) {
	msgs := msgsFrom("apple pie")
	assert.Empty(t, Search(msgs, "pear"))
}

func TestSearchFirstOccurrenceOnly(t *testing.T) {
	msgs := msgsFrom("echo echo echo")
	results := Search(msgs, "echo")
	require.Len(t, results, 1)
	assert.Equal(t, 0, results[0].MatchOffset)
}

func TestSearchExcerptWindow(t *testing.T) {
	long := strings.Repeat("a", 100) + "NEEDLE" + strings.Repeat("b", 100)
	msgs := msgsFrom(long)

	results := Search(msgs, "needle")
	require.Len(t, results, 1)
	r := results[0]

	assert.True(t, strings.HasPrefix(r.Excerpt, "..."))
	assert.True(t, strings.HasSuffix(r.Excerpt, "..."))
	// 3 (ellipsis) + 50 runes of leading context
	assert.Equal(t, 53, r.MatchOffset)
	assert.Equal(t, 6, r.MatchLen)

	match := []rune(r.Excerpt)[r.MatchOffset : r.MatchOffset+r.MatchLen]
	assert.Equal(t, "NEEDLE", string(match))
}

func TestSearchExcerptShortMessage(t *testing.T) {
	msgs := msgsFrom("tiny note")
	results := Search(msgs, "note")
	require.Len(t, results, 1)

	assert.Equal(t, "tiny note", results[0].Excerpt)
	assert.Equal(t, 5, results[0].MatchOffset)
}

func TestSearchMultiByteOffsets(t *testing.T) {
	msgs := msgsFrom("héllo wörld — héllo again")
	results := Search(msgs, "wörld")
	require.Len(t, results, 1)
	r := results[0]

	match := []rune(r.Excerpt)[r.MatchOffset : r.MatchOffset+r.MatchLen]
	assert.Equal(t, "wörld", string(match))
}

func TestCursorCyclicNavigation(t *testing.T) {
	msgs := msgsFrom("apple pie", "banana", "Apple tart")
	c := NewCursor(Search(msgs, "apple"))

	_, ok := c.Current()
	assert.False(t, ok, "no active result before first Next")

	r, ok := c.Next()
	require.True(t, ok)
	assert.Equal(t, 0, r.MessageIndex)

	r, _ = c.Next()
	assert.Equal(t, 2, r.MessageIndex)

	r, _ = c.Next() // wraps
	assert.Equal(t, 0, r.MessageIndex)

	r, _ = c.Prev() // wraps backwards
	assert.Equal(t, 2, r.MessageIndex)

	pos, total := c.Pos()
	assert.Equal(t, 2, pos)
	assert.Equal(t, 2, total)
}

func TestCursorEmptyIsNoop(t *testing.T) {
	c := NewCursor(nil)

	_, ok := c.Next()
	assert.False(t, ok)
	_, ok = c.Prev()
	assert.False(t, ok)

	pos, total := c.Pos()
	assert.Equal(t, 0, pos)
	assert.Equal(t, 0, total)
}
