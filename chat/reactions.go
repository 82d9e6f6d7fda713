package chat

import (
	"encoding/json"
	"sync"

	"github.com/kir-gadjello/ikoi/kv"
)

// Ledger owns reaction counts keyed by message id. It is a sibling store to
// the message log: the only relation is the id, which is how a full reset can
// clear it independently. Counts are monotonic, there is no removal.
type Ledger struct {
	mu  sync.Mutex
	kvs kv.Store
	m   map[int][]Reaction
}

func NewLedger(kvs kv.Store) *Ledger {
	return &Ledger{kvs: kvs, m: make(map[int][]Reaction)}
}

// Load reads the persisted ledger. Absent or corrupt data starts empty.
func (l *Ledger) Load() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.m = make(map[int][]Reaction)
	data, err := l.kvs.Get(kv.KeyReactions)
	if err != nil {
		return
	}
	var m map[int][]Reaction
	if json.Unmarshal(data, &m) == nil && m != nil {
		l.m = m
	}
}

// Add increments the count for (messageID, emoji), creating the entry on the
// first reaction, and persists the full ledger.
func (l *Ledger) Add(messageID int, emoji string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rs := l.m[messageID]
	found := false
	for i := range rs {
		if rs[i].Emoji == emoji {
			rs[i].Count++
			found = true
			break
		}
	}
	if !found {
		rs = append(rs, Reaction{Emoji: emoji, Count: 1})
	}
	l.m[messageID] = rs

	if err := l.persist(); err != nil {
		if found {
			for i := range rs {
				if rs[i].Emoji == emoji {
					rs[i].Count--
				}
			}
		} else {
			l.m[messageID] = rs[:len(rs)-1]
		}
		return err
	}
	return nil
}

// For returns the reactions recorded for messageID, or nil.
func (l *Ledger) For(messageID int) []Reaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Reaction(nil), l.m[messageID]...)
}

// Reset clears the entire ledger. Invoked only as part of a full
// conversation reset.
func (l *Ledger) Reset() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.kvs.Delete(kv.KeyReactions); err != nil {
		return err
	}
	l.m = make(map[int][]Reaction)
	return nil
}

func (l *Ledger) persist() error {
	data, err := json.Marshal(l.m)
	if err != nil {
		return err
	}
	return l.kvs.Put(kv.KeyReactions, data)
}
