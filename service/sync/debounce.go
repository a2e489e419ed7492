package sync

import (
	stdsync "sync"
	"time"
)

// TypingDebouncer sits between the message composer and SendTyping.
// Every input change emits typing=true and (re)starts the idle timer;
// when the timer fires with no further input, typing=false goes out.
// Submitting a message calls Flush to force the stop signal.
type TypingDebouncer struct {
	mu     stdsync.Mutex
	idle   time.Duration
	timer  *time.Timer
	active bool
	send   func(typing bool)
}

func NewTypingDebouncer(idle time.Duration, send func(typing bool)) *TypingDebouncer {
	return &TypingDebouncer{idle: idle, send: send}
}

// Input records one composer change.
func (d *TypingDebouncer) Input() {
	d.mu.Lock()
	d.active = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.idle, d.expire)
	d.mu.Unlock()

	d.send(true)
}

func (d *TypingDebouncer) expire() {
	d.mu.Lock()
	if !d.active {
		d.mu.Unlock()
		return
	}
	d.active = false
	d.timer = nil
	d.mu.Unlock()

	d.send(false)
}

// Flush forces typing=false immediately (message submitted).
func (d *TypingDebouncer) Flush() {
	d.mu.Lock()
	wasActive := d.active
	d.active = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()

	if wasActive {
		d.send(false)
	}
}

// Stop cancels the pending timer without emitting anything; used on
// conversation switch and teardown.
func (d *TypingDebouncer) Stop() {
	d.mu.Lock()
	d.active = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
}
