package goals

import (
	"errors"
	"strings"
	"sync"

	"hustle-genie/utils"
)

// Goal is a named income target
type Goal struct {
	Title    string  `json:"title"`
	Current  float64 `json:"current"`
	Goal     float64 `json:"goal"`
	ImageURL string  `json:"imageUrl,omitempty"`
}

// Progress is Current/Goal in [0, 1]
func (g Goal) Progress() float64 {
	if g.Goal <= 0 {
		return 0
	}
	p := g.Current / g.Goal
	if p > 1 {
		return 1
	}
	if p < 0 {
		return 0
	}
	return p
}

// Default is the goal every new account starts with
var Default = Goal{Title: "My First Hustle", Current: 0, Goal: 500}

var (
	ErrDuplicateTitle = errors.New("a goal with this title already exists")
	ErrInvalidGoal    = errors.New("goal needs a title and a target above zero")
	ErrNotFound       = errors.New("goal not found")
)

// Sink persists the full goal list after each change
type Sink interface {
	SaveGoals(goals []Goal) error
}

// Tracker keeps a user's goals
type Tracker struct {
	sink   Sink
	logger *utils.Logger

	mu    sync.Mutex
	goals []Goal
}

// NewTracker starts from the stored goals
func NewTracker(goals []Goal, sink Sink, logger *utils.Logger) *Tracker {
	return &Tracker{
		sink:   sink,
		logger: logger.With("component", "goals"),
		goals:  append([]Goal(nil), goals...),
	}
}

// List returns a copy of all goals in insertion order
func (t *Tracker) List() []Goal {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Goal{}, t.goals...)
}

// Add appends a new goal starting at zero progress
func (t *Tracker) Add(title string, target float64, imageURL string) (Goal, error) {
	title = strings.TrimSpace(title)
	if title == "" || target <= 0 {
		return Goal{}, ErrInvalidGoal
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.indexLocked(title) >= 0 {
		return Goal{}, ErrDuplicateTitle
	}

	g := Goal{Title: title, Current: 0, Goal: target, ImageURL: imageURL}
	t.goals = append(t.goals, g)
	t.persistLocked()
	return g, nil
}

// UpdateProgress sets Current, clamped into [0, Goal]
func (t *Tracker) UpdateProgress(title string, current float64) (Goal, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := t.indexLocked(title)
	if idx < 0 {
		return Goal{}, ErrNotFound
	}

	g := &t.goals[idx]
	switch {
	case current < 0:
		current = 0
	case current > g.Goal:
		current = g.Goal
	}
	g.Current = current
	t.persistLocked()
	return *g, nil
}

// Delete removes the goal with title
func (t *Tracker) Delete(title string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := t.indexLocked(title)
	if idx < 0 {
		return ErrNotFound
	}
	t.goals = append(t.goals[:idx:idx], t.goals[idx+1:]...)
	t.persistLocked()
	return nil
}

func (t *Tracker) indexLocked(title string) int {
	for i := range t.goals {
		if t.goals[i].Title == title {
			return i
		}
	}
	return -1
}

func (t *Tracker) persistLocked() {
	if err := t.sink.SaveGoals(append([]Goal{}, t.goals...)); err != nil {
		t.logger.Error("failed to save goals", "error", err)
	}
}
