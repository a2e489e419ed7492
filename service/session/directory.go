package session

import (
	"sort"

	"PPClient/model"
)

// Conversation directory operations. Invariant: exactly one entry per
// conversation id, ordered by last-activity timestamp descending; the
// sort is stable so ties keep their relative order.

// SetConversations replaces the directory wholesale (initial REST load;
// the server already orders entries, but the invariant is re-asserted).
func (s *Store) SetConversations(convs []model.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[int64]struct{}, len(convs))
	s.conversations = s.conversations[:0]
	for _, cv := range convs {
		if _, dup := seen[cv.ID]; dup {
			continue
		}
		seen[cv.ID] = struct{}{}
		s.conversations = append(s.conversations, cv)
	}
	sortByActivityLocked(s.conversations)
}

// Conversations returns a copy of the directory in display order.
func (s *Store) Conversations() []model.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Conversation, len(s.conversations))
	copy(out, s.conversations)
	return out
}

// Conversation returns a copy of one entry, nil if absent.
func (s *Store) Conversation(id int64) *model.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.conversations {
		if s.conversations[i].ID == id {
			cp := s.conversations[i]
			return &cp
		}
	}
	return nil
}

// UpsertFromEvent folds an inbound message into the directory entry:
// last-message summary and last-activity move to the event's values,
// then the list re-sorts. Unknown conversations are ignored (the entry
// arrives via the next directory load).
func (s *Store) UpsertFromEvent(msg model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.conversations {
		if s.conversations[i].ID != msg.ConversationID {
			continue
		}
		cp := msg
		s.conversations[i].LastMessage = &cp
		s.conversations[i].UpdatedAt = msg.CreatedAt
		sortByActivityLocked(s.conversations)
		return
	}
}

// Prepend puts a newly created conversation at the front; new threads
// are most-recent by construction.
func (s *Store) Prepend(conv model.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.conversations {
		if s.conversations[i].ID == conv.ID {
			s.conversations[i] = conv
			sortByActivityLocked(s.conversations)
			return
		}
	}
	s.conversations = append([]model.Conversation{conv}, s.conversations...)
}

// ClearUnread zeroes a conversation's unread counter. Pure local
// mutation, applied optimistically before any server confirmation.
func (s *Store) ClearUnread(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.conversations {
		if s.conversations[i].ID == id {
			s.conversations[i].UnreadCount = 0
			return
		}
	}
}

func sortByActivityLocked(convs []model.Conversation) {
	sort.SliceStable(convs, func(i, j int) bool {
		return convs[j].UpdatedAt.Before(convs[i].UpdatedAt)
	})
}
