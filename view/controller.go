package view

import (
	"context"
	"sync"
	"time"

	"hustle-genie/llm"
	"hustle-genie/utils"
)

// View is a top-level screen
type View string

const (
	Home       View = "home"
	Wishing    View = "wishing"
	Loading    View = "loading"
	Results    View = "results"
	LaunchPlan View = "launchPlan"
	Chat       View = "chat"
	Error      View = "error"
)

// Phase of the view transition
type Phase string

const (
	PhaseIn  Phase = "in"
	PhaseOut Phase = "out"
)

// DefaultTransition matches the view-out animation
const DefaultTransition = 400 * time.Millisecond

// Error panel messages
const (
	WishFailedMessage        = "The genie encountered some magical interference. Please try your wish again!"
	InspirationFailedMessage = "The genie is searching the cosmos for ideas... but hit some space dust. Please try again!"
	PlanFailedMessage        = "The genie had trouble mapping the stars for your launch plan. Please try again!"
	MissingPlanMessage       = "Could not find the selected plan. Please go back and try again."
)

// Gateway is the generation side of the AI gateway
type Gateway interface {
	GenerateIdeas(ctx context.Context, form llm.WishForm) ([]llm.HustleIdea, error)
	GenerateInspirationalIdea(ctx context.Context) ([]llm.HustleIdea, error)
	GenerateLaunchPlan(ctx context.Context, idea llm.HustleIdea) (*llm.LaunchPlan, error)
}

// State is what the presentation layer renders
type State struct {
	View            View             `json:"view"`
	Phase           Phase            `json:"phase"`
	Ideas           []llm.HustleIdea `json:"ideas"`
	Plan            *llm.LaunchPlan  `json:"plan,omitempty"`
	SelectedIdea    *llm.HustleIdea  `json:"selectedIdea,omitempty"`
	InspirationMode bool             `json:"inspirationMode"`
	Error           string           `json:"error,omitempty"`
}

// Options tune a Controller
type Options struct {
	// Transition is the out-phase length; zero or less switches at once
	Transition time.Duration

	// OnChange receives every new state, outside the controller lock
	OnChange func(State)
}

// Controller sequences view changes and the idea and plan flows
type Controller struct {
	gw       Gateway
	logger   *utils.Logger
	delay    time.Duration
	onChange func(State)

	mu      sync.Mutex
	state   State
	pending View
	timer   *time.Timer
	closed  bool
}

// NewController starts on the home view
func NewController(gw Gateway, logger *utils.Logger, opts Options) *Controller {
	return &Controller{
		gw:       gw,
		logger:   logger.With("component", "view"),
		delay:    opts.Transition,
		onChange: opts.OnChange,
		state:    State{View: Home, Phase: PhaseIn},
	}
}

// State returns a copy of the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() State {
	s := c.state
	s.Ideas = append([]llm.HustleIdea(nil), c.state.Ideas...)
	return s
}

// Navigate switches to v. It is ignored when v is already shown or while
// the current view is animating out.
func (c *Controller) Navigate(v View) bool {
	c.mu.Lock()
	if c.closed || c.state.View == v || c.state.Phase == PhaseOut {
		c.mu.Unlock()
		return false
	}
	if v == LaunchPlan && (c.state.Plan == nil || c.state.SelectedIdea == nil) {
		c.state.Error = MissingPlanMessage
		v = Error
	}
	c.beginLocked(v)
	c.mu.Unlock()

	c.notify()
	return true
}

// advance is used by the flows: a target requested during the out phase
// replaces the pending one instead of being dropped
func (c *Controller) advance(v View) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.state.Phase == PhaseOut {
		c.pending = v
		c.mu.Unlock()
		return
	}
	if c.state.View == v {
		c.mu.Unlock()
		c.notify()
		return
	}
	c.beginLocked(v)
	c.mu.Unlock()

	c.notify()
}

func (c *Controller) beginLocked(v View) {
	if c.delay <= 0 {
		c.state.View = v
		c.state.Phase = PhaseIn
		return
	}
	c.state.Phase = PhaseOut
	c.pending = v
	c.timer = time.AfterFunc(c.delay, c.finishTransition)
}

func (c *Controller) finishTransition() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.state.View = c.pending
	c.state.Phase = PhaseIn
	c.timer = nil
	c.mu.Unlock()

	c.notify()
}

// Close cancels a running transition
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// StartWish opens the wish form with a clean slate
func (c *Controller) StartWish() {
	c.Navigate(Wishing)
	c.mu.Lock()
	c.state.Error = ""
	c.state.Ideas = nil
	c.state.InspirationMode = false
	c.mu.Unlock()
	c.notify()
}

// SubmitWish generates ideas for form. Invalid forms are rejected before
// anything changes.
func (c *Controller) SubmitWish(ctx context.Context, form llm.WishForm) error {
	if err := form.Validate(); err != nil {
		return err
	}

	c.advance(Loading)
	c.mu.Lock()
	c.state.InspirationMode = false
	c.mu.Unlock()

	ideas, err := c.gw.GenerateIdeas(ctx, form)
	if err != nil {
		c.logger.Error("wish failed", "error", err)
		c.fail(WishFailedMessage)
		return err
	}

	c.mu.Lock()
	c.state.Ideas = ideas
	c.mu.Unlock()
	c.advance(Results)
	return nil
}

// GetInspired generates a single surprise idea
func (c *Controller) GetInspired(ctx context.Context) error {
	c.advance(Loading)
	c.mu.Lock()
	c.state.InspirationMode = true
	c.state.Error = ""
	c.mu.Unlock()

	ideas, err := c.gw.GenerateInspirationalIdea(ctx)
	if err != nil {
		c.logger.Error("inspiration failed", "error", err)
		c.fail(InspirationFailedMessage)
		return err
	}

	c.mu.Lock()
	c.state.Ideas = ideas
	c.mu.Unlock()
	c.advance(Results)
	return nil
}

// GeneratePlan builds the launch plan of idea
func (c *Controller) GeneratePlan(ctx context.Context, idea llm.HustleIdea) error {
	c.advance(Loading)
	c.mu.Lock()
	selected := idea
	c.state.SelectedIdea = &selected
	c.state.Error = ""
	c.mu.Unlock()

	plan, err := c.gw.GenerateLaunchPlan(ctx, idea)
	if err != nil {
		c.logger.Error("launch plan failed", "idea", idea.Title, "error", err)
		c.fail(PlanFailedMessage)
		return err
	}

	c.mu.Lock()
	c.state.Plan = plan
	c.mu.Unlock()
	c.advance(LaunchPlan)
	return nil
}

func (c *Controller) fail(message string) {
	c.mu.Lock()
	c.state.Error = message
	c.mu.Unlock()
	c.advance(Error)
}

// BackToHome returns to the home view
func (c *Controller) BackToHome() bool {
	return c.Navigate(Home)
}

// BackToResults leaves the launch plan for the idea list
func (c *Controller) BackToResults() bool {
	return c.Navigate(Results)
}

func (c *Controller) notify() {
	if c.onChange != nil {
		c.onChange(c.State())
	}
}
