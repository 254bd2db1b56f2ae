package workspace

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"hustle-genie/chat"
	"hustle-genie/goals"
	"hustle-genie/store"
	"hustle-genie/utils"
	"hustle-genie/view"
)

var (
	ErrInvalidTheme = errors.New("unknown theme")
	ErrInvalidFont  = errors.New("unknown font")
)

// Generator is the AI gateway as seen by a workspace
type Generator interface {
	chat.Generator
	view.Gateway
}

// Deps are shared by every workspace of a process
type Deps struct {
	Store      *store.Store
	Gen        Generator
	Logger     *utils.Logger
	IdleAfter  time.Duration
	Transition time.Duration
	Clock      func() time.Time
}

// Hooks let a presentation layer follow state changes
type Hooks struct {
	OnChat func()
	OnView func(view.State)
}

// SettingsPatch changes the non-nil fields only
type SettingsPatch struct {
	Theme       *store.Theme `json:"theme,omitempty"`
	Font        *store.Font  `json:"font,omitempty"`
	Personality *string      `json:"personality,omitempty"`
}

// Workspace is everything one signed-in user works with
type Workspace struct {
	Chat  *chat.Engine
	Goals *goals.Tracker
	View  *view.Controller

	data   *store.UserStore
	logger *utils.Logger

	mu       sync.Mutex
	settings store.Settings
}

// Open loads the data of email and builds its engine, tracker and view
// controller. A user without stored data starts from the defaults.
func Open(ctx context.Context, deps Deps, email string, hooks Hooks) (*Workspace, error) {
	us := deps.Store.ForUser(email)
	data, err := us.Load(ctx)
	if errors.Is(err, store.ErrNoUserData) {
		fresh := store.NewUserData()
		if err := deps.Store.SaveUserData(ctx, email, fresh); err != nil {
			return nil, fmt.Errorf("failed to create data for %s: %w", email, err)
		}
		data = &fresh
	} else if err != nil {
		return nil, err
	}

	logger := deps.Logger.With("user", us.Email())
	w := &Workspace{
		data:     us,
		logger:   logger,
		settings: data.Settings,
	}
	w.Chat = chat.NewEngine(deps.Gen, us, data.ChatHistory, logger, chat.Options{
		Personality: data.Settings.Personality,
		Clock:       deps.Clock,
		IdleAfter:   deps.IdleAfter,
		OnChange:    hooks.OnChat,
	})
	w.Goals = goals.NewTracker(data.Goals, us, logger)
	w.View = view.NewController(deps.Gen, logger, view.Options{
		Transition: deps.Transition,
		OnChange:   hooks.OnView,
	})

	logger.Info("workspace opened", "conversations", len(data.ChatHistory), "goals", len(data.Goals))
	return w, nil
}

// Email of the workspace owner
func (w *Workspace) Email() string {
	return w.data.Email()
}

// Settings returns the current settings
func (w *Workspace) Settings() store.Settings {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.settings
}

// UpdateSettings applies patch and persists the result. A new personality
// reaches the model on the next session rebuild. Storage failures are
// logged, not returned.
func (w *Workspace) UpdateSettings(patch SettingsPatch) (store.Settings, error) {
	if patch.Theme != nil && !patch.Theme.Valid() {
		return w.Settings(), fmt.Errorf("%w: %s", ErrInvalidTheme, *patch.Theme)
	}
	if patch.Font != nil && !patch.Font.Valid() {
		return w.Settings(), fmt.Errorf("%w: %s", ErrInvalidFont, *patch.Font)
	}

	w.mu.Lock()
	if patch.Theme != nil {
		w.settings.Theme = *patch.Theme
	}
	if patch.Font != nil {
		w.settings.Font = *patch.Font
	}
	if patch.Personality != nil {
		w.settings.Personality = *patch.Personality
	}
	settings := w.settings
	if err := w.data.SaveSettings(settings); err != nil {
		w.logger.Error("failed to save settings", "error", err)
	}
	w.mu.Unlock()

	if patch.Personality != nil {
		w.Chat.SetPersonality(settings.Personality)
	}
	return settings, nil
}

// Close stops the workspace timers
func (w *Workspace) Close() {
	w.Chat.Close()
	w.View.Close()
}

// Registry caches one workspace per user
type Registry struct {
	deps Deps

	mu     sync.Mutex
	spaces map[string]*Workspace
}

// NewRegistry returns an empty registry
func NewRegistry(deps Deps) *Registry {
	return &Registry{deps: deps, spaces: make(map[string]*Workspace)}
}

// Get returns the workspace of email, opening it on first use
func (r *Registry) Get(ctx context.Context, email string) (*Workspace, error) {
	email = store.NormalizeEmail(email)

	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.spaces[email]; ok {
		return w, nil
	}
	w, err := Open(ctx, r.deps, email, Hooks{})
	if err != nil {
		return nil, err
	}
	r.spaces[email] = w
	return w, nil
}

// Close closes every cached workspace
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for email, w := range r.spaces {
		w.Close()
		delete(r.spaces, email)
	}
}
