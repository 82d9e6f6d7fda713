package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kir-gadjello/ikoi/kv"
)

func TestReactionMonotonicity(t *testing.T) {
	l := NewLedger(kv.NewMemory())
	l.Load()

	for i := 0; i < 5; i++ {
		require.NoError(t, l.Add(2, "❤️"))
	}

	rs := l.For(2)
	require.Len(t, rs, 1)
	assert.Equal(t, Reaction{Emoji: "❤️", Count: 5}, rs[0])
}

func TestReactionsPerEmoji(t *testing.T) {
	l := NewLedger(kv.NewMemory())
	l.Load()

	require.NoError(t, l.Add(0, "👍"))
	require.NoError(t, l.Add(0, "🎉"))
	require.NoError(t, l.Add(0, "👍"))

	rs := l.For(0)
	require.Len(t, rs, 2)
	assert.Equal(t, Reaction{Emoji: "👍", Count: 2}, rs[0])
	assert.Equal(t, Reaction{Emoji: "🎉", Count: 1}, rs[1])

	assert.Empty(t, l.For(1))
}

func TestReactionsRoundTrip(t *testing.T) {
	kvs := kv.NewMemory()
	l := NewLedger(kvs)
	l.Load()

	require.NoError(t, l.Add(3, "😄"))
	require.NoError(t, l.Add(3, "😄"))
	require.NoError(t, l.Add(7, "❤️"))

	l2 := NewLedger(kvs)
	l2.Load()
	assert.Equal(t, []Reaction{{Emoji: "😄", Count: 2}}, l2.For(3))
	assert.Equal(t, []Reaction{{Emoji: "❤️", Count: 1}}, l2.For(7))
}

func TestReactionsCorruptStateStartsEmpty(t *testing.T) {
	kvs := kv.NewMemory()
	require.NoError(t, kvs.Put(kv.KeyReactions, []byte("not a ledger")))

	l := NewLedger(kvs)
	l.Load()
	assert.Empty(t, l.For(0))

	// And it stays usable.
	require.NoError(t, l.Add(0, "👍"))
	assert.Equal(t, []Reaction{{Emoji: "👍", Count: 1}}, l.For(0))
}
