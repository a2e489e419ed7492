package sync

import (
	stdsync "sync"
	"time"
)

// typingTracker owns the remote typing-expiry timers: one cancellable
// delayed task per currently-typing participant. A typing=true signal
// (re)arms the participant's timer; typing=false or a conversation
// switch cancels it. Expiry calls back so the synchronizer can drop
// the participant from the session's typing set.
type typingTracker struct {
	mu     stdsync.Mutex
	ttl    time.Duration
	timers map[string]*time.Timer
	expire func(username string)
}

func newTypingTracker(ttl time.Duration, expire func(username string)) *typingTracker {
	return &typingTracker{
		ttl:    ttl,
		timers: make(map[string]*time.Timer),
		expire: expire,
	}
}

// Touch (re)starts the expiry timer for a participant.
func (t *typingTracker) Touch(username string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if old, ok := t.timers[username]; ok {
		old.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(t.ttl, func() {
		t.mu.Lock()
		// a refresh may have swapped in a newer timer while this one fired
		if t.timers[username] != timer {
			t.mu.Unlock()
			return
		}
		delete(t.timers, username)
		t.mu.Unlock()
		t.expire(username)
	})
	t.timers[username] = timer
}

// Stop cancels the participant's pending expiry, if any.
func (t *typingTracker) Stop(username string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if timer, ok := t.timers[username]; ok {
		timer.Stop()
		delete(t.timers, username)
	}
}

// Reset cancels every pending expiry; called on conversation switch
// and teardown so no timer mutates a torn-down session.
func (t *typingTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for name, timer := range t.timers {
		timer.Stop()
		delete(t.timers, name)
	}
}
