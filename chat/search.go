package chat

import "strings"

// excerptRadius is how many runes of context are kept on each side of the
// first match when building a preview excerpt.
const excerptRadius = 50

const ellipsis = "..."

// Result is one search hit. Results are ephemeral and recomputed from a
// fresh snapshot on every query change.
type Result struct {
	MessageIndex int
	Excerpt      string
	MatchOffset  int // rune offset of the match inside Excerpt
	MatchLen     int // rune length of the match
}

// Search scans msgs in log order for a case-insensitive substring match of
// query. Each matching message contributes its first occurrence only. A query
// that trims to empty yields no results.
func Search(msgs []Message, query string) []Result {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	needle := []rune(strings.ToLower(query))

	var results []Result
	for i, msg := range msgs {
		text := []rune(msg.Text)
		idx := runeIndex([]rune(strings.ToLower(msg.Text)), needle)
		if idx < 0 {
			continue
		}

		start := idx - excerptRadius
		if start < 0 {
			start = 0
		}
		end := idx + len(needle) + excerptRadius
		if end > len(text) {
			end = len(text)
		}

		excerpt := string(text[start:end])
		offset := idx - start
		if start > 0 {
			excerpt = ellipsis + excerpt
			offset += len([]rune(ellipsis))
		}
		if end < len(text) {
			excerpt += ellipsis
		}

		results = append(results, Result{
			MessageIndex: i,
			Excerpt:      excerpt,
			MatchOffset:  offset,
			MatchLen:     len(needle),
		})
	}
	return results
}

// runeIndex returns the index of the first occurrence of needle in haystack,
// in runes, or -1. strings.Index would report a byte offset, which is wrong
// for excerpt windows over multi-byte text.
func runeIndex(haystack, needle []rune) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return -1
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		j := 0
		for ; j < len(needle); j++ {
			if haystack[i+j] != needle[j] {
				break
			}
		}
		if j == len(needle) {
			return i
		}
	}
	return -1
}

// Cursor cycles over a result set. It starts with no active result; the
// first Next lands on the first hit and navigation wraps at both ends.
type Cursor struct {
	results []Result
	pos     int
}

func NewCursor(results []Result) *Cursor {
	return &Cursor{results: results, pos: -1}
}

// Next advances circularly and returns the active result. It is a no-op
// when there are no results.
func (c *Cursor) Next() (Result, bool) {
	if len(c.results) == 0 {
		return Result{}, false
	}
	c.pos = (c.pos + 1) % len(c.results)
	return c.results[c.pos], true
}

// Prev steps back circularly, wrapping to the last result from the front.
func (c *Cursor) Prev() (Result, bool) {
	if len(c.results) == 0 {
		return Result{}, false
	}
	if c.pos <= 0 {
		c.pos = len(c.results) - 1
	} else {
		c.pos--
	}
	return c.results[c.pos], true
}

// Current returns the active result without moving the cursor.
func (c *Cursor) Current() (Result, bool) {
	if c.pos < 0 || c.pos >= len(c.results) {
		return Result{}, false
	}
	return c.results[c.pos], true
}

// Pos returns the 1-based active position and the total count for display.
// Position 0 means no result is active yet.
func (c *Cursor) Pos() (int, int) {
	return c.pos + 1, len(c.results)
}
