package chat

import (
	"sync"
	"time"
)

// DefaultIdleAfter is how long the user must be inactive before follow-up
// prompts are suggested
const DefaultIdleAfter = 15 * time.Second

// IdlePrompts are suggested after a period of inactivity
var IdlePrompts = []string{
	"What are some common mistakes to avoid?",
	"How can I use social media for my hustle?",
	"Suggest a creative name for my new business.",
	"Help me write a pitch for a client.",
}

// WelcomePrompts are offered on a fresh conversation
var WelcomePrompts = []string{
	"How do I find my first client?",
	"Give me a motivational quote.",
	"What's a good hustle for a writer?",
	"Help me price my services.",
}

// IdleTimer surfaces IdlePrompts when nothing happened for a while.
// eligible is consulted when the countdown fires.
type IdleTimer struct {
	after    time.Duration
	eligible func() bool
	onChange func(visible bool)

	mu      sync.Mutex
	timer   *time.Timer
	visible bool
	stopped bool
}

// NewIdleTimer creates a stopped timer; the first Touch arms it
func NewIdleTimer(after time.Duration, eligible func() bool, onChange func(visible bool)) *IdleTimer {
	if after <= 0 {
		after = DefaultIdleAfter
	}
	return &IdleTimer{after: after, eligible: eligible, onChange: onChange}
}

// Touch records activity: hides the prompts and restarts the countdown
func (t *IdleTimer) Touch() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(t.after, t.fire)
	changed := t.visible
	t.visible = false
	t.mu.Unlock()

	if changed {
		t.notify(false)
	}
}

// Dismiss hides the prompts without re-arming
func (t *IdleTimer) Dismiss() {
	t.mu.Lock()
	changed := t.visible
	t.visible = false
	t.mu.Unlock()

	if changed {
		t.notify(false)
	}
}

// Visible reports whether the prompts are currently shown
func (t *IdleTimer) Visible() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.visible
}

// Stop cancels the countdown permanently
func (t *IdleTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	t.visible = false
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *IdleTimer) fire() {
	if t.eligible != nil && !t.eligible() {
		return
	}

	t.mu.Lock()
	if t.stopped || t.visible {
		t.mu.Unlock()
		return
	}
	t.visible = true
	t.mu.Unlock()

	t.notify(true)
}

func (t *IdleTimer) notify(visible bool) {
	if t.onChange != nil {
		t.onChange(visible)
	}
}
