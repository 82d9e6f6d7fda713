package chat

import (
	"encoding/json"
	"sync"

	"github.com/kir-gadjello/ikoi/kv"
)

// DefaultGreeting seeds an empty or unreadable log.
const DefaultGreeting = "Hi! 👋 I'm ikoi, your AI assistant today.\n\nHow can I help you?"

// Store owns the ordered message log. Every mutation persists the full log
// under kv.KeyMessages before it is considered applied, so a reload never
// loses an append or an edit.
type Store struct {
	mu   sync.Mutex
	kvs  kv.Store
	msgs []Message
}

func NewStore(kvs kv.Store) *Store {
	return &Store{kvs: kvs}
}

// Load reads the persisted log. An absent or unparsable value seeds the
// default assistant greeting; read failures are recovered locally and never
// surfaced. Only the persistence write of the seed can fail.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.kvs.Get(kv.KeyMessages)
	if err == nil {
		var msgs []Message
		if json.Unmarshal(data, &msgs) == nil && len(msgs) > 0 {
			s.msgs = msgs
			return nil
		}
	}

	s.msgs = []Message{NewMessage(AuthorAssistant, DefaultGreeting)}
	return s.persist()
}

// Append adds msg to the end of the log and returns its position-derived id.
// The in-memory log is rolled back if the persistence write fails.
func (s *Store) Append(msg Message) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.msgs = append(s.msgs, msg)
	if err := s.persist(); err != nil {
		s.msgs = s.msgs[:len(s.msgs)-1]
		return 0, err
	}
	return len(s.msgs) - 1, nil
}

// ReplaceAll swaps the entire log. Used by the reset path.
func (s *Store) ReplaceAll(msgs []Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.msgs
	s.msgs = msgs
	if err := s.persist(); err != nil {
		s.msgs = prev
		return err
	}
	return nil
}

// Reset replaces the log with the single default greeting.
func (s *Store) Reset() error {
	return s.ReplaceAll([]Message{NewMessage(AuthorAssistant, DefaultGreeting)})
}

// Snapshot returns a copy of the log in order.
func (s *Store) Snapshot() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.msgs...)
}

// Len returns the current number of messages.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

func (s *Store) persist() error {
	data, err := json.Marshal(s.msgs)
	if err != nil {
		return err
	}
	return s.kvs.Put(kv.KeyMessages, data)
}

// Reset clears both the message log (back to the greeting) and the reaction
// ledger. The two stores are persisted independently; there is no cross-store
// transaction, ledger entries orphaned by a partial reset are ignored on load.
func Reset(s *Store, l *Ledger) error {
	if err := s.Reset(); err != nil {
		return err
	}
	return l.Reset()
}
