package chat

import (
	"strings"
	"time"
)

// CanEdit reports whether msg may be edited in place: only non-error,
// non-voice messages authored by the local user qualify.
func CanEdit(msg Message) bool {
	return msg.Author == AuthorUser && !msg.IsError && msg.Voice == nil
}

// ApplyEdit replaces the text of the message at index, marking it edited and
// persisting the log. Saving the same trimmed text is a silent no-op that
// does not set the edited flag. Everything else about the message, including
// its position, is left untouched.
func (s *Store) ApplyEdit(index int, newText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.msgs) {
		return ErrInvalidEditTarget
	}
	if !CanEdit(s.msgs[index]) {
		return ErrInvalidEditTarget
	}

	trimmed := strings.TrimSpace(newText)
	if trimmed == "" {
		return ErrInvalidEditTarget
	}
	if trimmed == s.msgs[index].Text {
		return nil
	}

	prev := s.msgs[index]
	now := time.Now()
	s.msgs[index].Text = trimmed
	s.msgs[index].Edited = true
	s.msgs[index].EditedAt = &now

	if err := s.persist(); err != nil {
		s.msgs[index] = prev
		return err
	}
	return nil
}
