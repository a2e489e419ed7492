package session

import (
	"sort"
	"sync"

	"PPClient/model"
)

// Store is the in-memory session state: the conversation directory,
// the active conversation, its loaded thread and the typing set. It is
// mutated exclusively by the synchronizer; accessors hand out copies
// so renderers never observe a slice being rewritten.
type Store struct {
	mu            sync.RWMutex
	conversations []model.Conversation
	active        *model.Conversation
	messages      []model.Message
	byID          map[int64]struct{} // ids present in messages
	typing        map[string]struct{}
}

func NewStore() *Store {
	return &Store{
		byID:   make(map[int64]struct{}),
		typing: make(map[string]struct{}),
	}
}

// ---- active conversation ----

// SetActive installs the active-conversation pointer and wipes the
// thread and typing set in the same critical section; a conversation
// switch discards unrelated in-memory state atomically.
func (s *Store) SetActive(conv *model.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conv == nil {
		s.active = nil
	} else {
		cp := *conv
		s.active = &cp
	}
	s.resetThreadLocked()
}

// Active returns a copy of the active conversation, nil when idle.
func (s *Store) Active() *model.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == nil {
		return nil
	}
	cp := *s.active
	return &cp
}

// ActiveID returns the active conversation id, 0 when idle.
func (s *Store) ActiveID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == nil {
		return 0
	}
	return s.active.ID
}

// ---- message thread ----

func (s *Store) resetThreadLocked() {
	s.messages = nil
	s.byID = make(map[int64]struct{})
	s.typing = make(map[string]struct{})
}

// ResetThread empties the loaded thread and typing set.
func (s *Store) ResetThread() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetThreadLocked()
}

// InstallHistory replaces the thread with an ascending-order page.
// Duplicate ids within the page are collapsed, first occurrence wins.
func (s *Store) InstallHistory(msgs []model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = make([]model.Message, 0, len(msgs))
	s.byID = make(map[int64]struct{}, len(msgs))
	for _, m := range msgs {
		if _, dup := s.byID[m.ID]; dup {
			continue
		}
		s.byID[m.ID] = struct{}{}
		s.messages = append(s.messages, m)
	}
}

// AppendMessage adds one message at the tail, deduplicating by id.
// Returns false when the id was already present.
func (s *Store) AppendMessage(m model.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.byID[m.ID]; dup {
		return false
	}
	s.byID[m.ID] = struct{}{}
	s.messages = append(s.messages, m)
	return true
}

// SetStatus updates a message's delivery status in place. Transitions
// only move forward (SENT -> DELIVERED -> READ); downgrades and
// unknown ids are ignored. Returns true when something changed.
func (s *Store) SetStatus(messageID int64, status model.Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID != messageID {
			continue
		}
		if status.Rank() <= s.messages[i].Status.Rank() {
			return false
		}
		s.messages[i].Status = status
		return true
	}
	return false
}

// ClearMessages empties the thread but keeps the typing set; used by
// clear-chat, which is not a conversation switch.
func (s *Store) ClearMessages() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.byID = make(map[int64]struct{})
}

// Messages returns a copy of the loaded thread, ascending by creation.
func (s *Store) Messages() []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// LastMessage returns a copy of the newest loaded message, nil when empty.
func (s *Store) LastMessage() *model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.messages) == 0 {
		return nil
	}
	cp := s.messages[len(s.messages)-1]
	return &cp
}

// ---- typing set ----

// AddTyping flags a participant as typing. Returns false if already set.
func (s *Store) AddTyping(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.typing[username]; ok {
		return false
	}
	s.typing[username] = struct{}{}
	return true
}

// RemoveTyping clears a participant's typing flag.
func (s *Store) RemoveTyping(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.typing, username)
}

// TypingUsers returns the sorted typing set.
func (s *Store) TypingUsers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.typing))
	for u := range s.typing {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}
