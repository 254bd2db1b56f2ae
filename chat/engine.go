package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"hustle-genie/llm"
	"hustle-genie/utils"
)

const (
	// CharLimit caps the length of a single user message
	CharLimit = 1000

	// titleLimit is the longest title kept verbatim
	titleLimit = 30

	// Greeting opens every new conversation
	Greeting = "A fresh start! What new wonders shall we explore today?"

	// ImageApology replaces a failed image generation
	ImageApology = "Sorry, I couldn't generate that image. My magic might be a bit fuzzy."

	catalogIDLayout = "2006-01-02T15:04:05.000Z07:00"
	catalogDate     = "Jan 2"
)

var (
	ErrBusy                = errors.New("a message is already being answered")
	ErrEmptyMessage        = errors.New("message is empty")
	ErrTooLong             = errors.New("message exceeds the character limit")
	ErrNothingToRegenerate = errors.New("no response to regenerate")
)

// Mode selects what a send produces
type Mode string

const (
	ModeText  Mode = "text"
	ModeImage Mode = "image"
)

// Direction moves the active response variant
type Direction int

const (
	Prev Direction = -1
	Next Direction = 1
)

// ParseDirection accepts "prev" and "next"
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(s) {
	case "prev":
		return Prev, true
	case "next":
		return Next, true
	}
	return 0, false
}

// Generator is the part of the AI gateway the engine talks to
type Generator interface {
	StartSession(history []llm.Turn, instruction string) llm.ChatSession
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// CatalogStore receives the whole catalog after every mutation
type CatalogStore interface {
	SaveCatalog(catalog []Conversation) error
	ClearCatalog() error
}

// Options tune an Engine. Zero values select the defaults.
type Options struct {
	Personality string
	Clock       func() time.Time
	IdleAfter   time.Duration

	// OnChange is called after every state change, outside the engine lock
	OnChange func()
}

// State is a snapshot of the engine for presentation
type State struct {
	Turns          []Message      `json:"turns"`
	Catalog        []Conversation `json:"catalog"`
	ActiveID       string         `json:"activeId"`
	Sending        bool           `json:"sending"`
	Regenerating   bool           `json:"regenerating"`
	RenamingID     string         `json:"renamingId,omitempty"`
	IdlePrompts    []string       `json:"idlePrompts,omitempty"`
	WelcomePrompts []string       `json:"welcomePrompts,omitempty"`
}

// Engine owns the active conversation and the conversation catalog
type Engine struct {
	gen      Generator
	store    CatalogStore
	logger   *utils.Logger
	now      func() time.Time
	onChange func()
	idle     *IdleTimer

	mu           sync.Mutex
	turns        []Message
	catalog      []Conversation
	activeID     string
	session      llm.ChatSession
	personality  string
	sending      bool
	regenerating bool
	renamingID   string
}

// NewEngine restores catalog and opens its most recent conversation, or a
// new one when the catalog is empty
func NewEngine(gen Generator, store CatalogStore, catalog []Conversation, logger *utils.Logger, opts Options) *Engine {
	e := &Engine{
		gen:         gen,
		store:       store,
		logger:      logger.With("component", "chat"),
		now:         opts.Clock,
		onChange:    opts.OnChange,
		catalog:     cloneCatalog(catalog),
		personality: opts.Personality,
	}
	if e.now == nil {
		e.now = time.Now
	}
	e.idle = NewIdleTimer(opts.IdleAfter, e.idleEligible, func(bool) { e.notify() })

	if len(e.catalog) > 0 {
		e.selectLocked(e.catalog[0].ID)
	} else {
		e.newConversationLocked()
	}
	e.idle.Touch()
	return e
}

// Close stops the idle countdown
func (e *Engine) Close() {
	e.idle.Stop()
}

// SetPersonality changes the system instruction used by the next session
func (e *Engine) SetPersonality(personality string) {
	e.mu.Lock()
	e.personality = personality
	e.mu.Unlock()
}

// Snapshot returns a deep copy of the current state
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := State{
		Turns:        cloneMessages(e.turns),
		Catalog:      cloneCatalog(e.catalog),
		ActiveID:     e.activeID,
		Sending:      e.sending,
		Regenerating: e.regenerating,
		RenamingID:   e.renamingID,
	}
	if e.idle.Visible() {
		s.IdlePrompts = IdlePrompts
	}
	if e.isWelcomeLocked() {
		s.WelcomePrompts = WelcomePrompts
	}
	return s
}

// Turns returns a copy of the active conversation
func (e *Engine) Turns() []Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneMessages(e.turns)
}

// Catalog returns a copy of all stored conversations
func (e *Engine) Catalog() []Conversation {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneCatalog(e.catalog)
}

// ActiveID is empty until the first message of a new conversation
func (e *Engine) ActiveID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activeID
}

// Busy reports whether a send or regenerate is in flight
func (e *Engine) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sending || e.regenerating
}

// NewConversation replaces the active turns with a greeting
func (e *Engine) NewConversation() {
	e.mu.Lock()
	e.newConversationLocked()
	e.mu.Unlock()
	e.idle.Touch()
	e.notify()
}

func (e *Engine) newConversationLocked() {
	e.session = e.gen.StartSession(nil, e.personality)
	e.turns = []Message{{
		ID:        newMessageID("model"),
		Role:      llm.RoleModel,
		Responses: []Response{{Text: Greeting}},
		IsInitial: true,
	}}
	e.activeID = ""
}

// SelectConversation activates a stored conversation. It does nothing while
// a title is being edited or when id is unknown.
func (e *Engine) SelectConversation(id string) bool {
	e.mu.Lock()
	if e.renamingID != "" {
		e.mu.Unlock()
		return false
	}
	ok := e.selectLocked(id)
	e.mu.Unlock()

	if ok {
		e.idle.Touch()
		e.notify()
	}
	return ok
}

func (e *Engine) selectLocked(id string) bool {
	idx := e.indexLocked(id)
	if idx < 0 {
		return false
	}
	conv := e.catalog[idx]
	e.session = e.gen.StartSession(SessionHistory(conv.Messages), e.personality)
	e.turns = cloneMessages(conv.Messages)
	e.activeID = conv.ID
	return true
}

// SelectPinnedMessage opens the conversation holding item unless it is
// already active, and returns the message id to scroll to
func (e *Engine) SelectPinnedMessage(item PinnedMessage) (string, bool) {
	e.mu.Lock()
	if e.activeID == item.ChatID {
		e.mu.Unlock()
		return item.Message.ID, true
	}
	ok := e.selectLocked(item.ChatID)
	e.mu.Unlock()

	if !ok {
		return "", false
	}
	e.idle.Touch()
	e.notify()
	return item.Message.ID, true
}

// UsePrompt sends one of the canned prompts as text
func (e *Engine) UsePrompt(ctx context.Context, prompt string) error {
	return e.Send(ctx, prompt, ModeText)
}

// Send appends a user turn and the model's answer to the active
// conversation, creating a catalog entry on the first message
func (e *Engine) Send(ctx context.Context, text string, mode Mode) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > CharLimit {
		return ErrTooLong
	}

	e.mu.Lock()
	if e.sending || e.regenerating {
		e.mu.Unlock()
		return ErrBusy
	}
	e.sending = true

	userMsg := Message{ID: newMessageID("user"), Role: llm.RoleUser, Text: text, IsPending: true}
	if e.session == nil {
		e.session = e.gen.StartSession(SessionHistory(e.turns), e.personality)
	}
	e.turns = append(e.turns, userMsg)

	if e.activeID == "" {
		now := e.now()
		conv := Conversation{
			ID:       e.uniqueIDLocked(now),
			Title:    conversationTitle(text),
			Date:     now.Format(catalogDate),
			Messages: cloneMessages(e.turns),
		}
		e.catalog = append([]Conversation{conv}, e.catalog...)
		e.activeID = conv.ID
	} else if idx := e.indexLocked(e.activeID); idx >= 0 {
		e.catalog[idx].Messages = cloneMessages(e.turns)
	}

	chatID := e.activeID
	sent := cloneMessages(e.turns)
	session := e.session
	e.persistLocked()
	e.mu.Unlock()

	e.idle.Touch()
	e.notify()

	var resp Response
	if mode == ModeImage {
		src, err := e.gen.GenerateImage(ctx, text)
		if err != nil {
			e.logger.Error("image generation failed", "chat", chatID, "error", err)
			resp = Response{Text: ImageApology}
		} else {
			resp = Response{ImageURL: src}
		}
	} else {
		resp = Response{Text: session.SendText(ctx, text), IsTyping: true}
	}

	e.mu.Lock()
	for i := range sent {
		if sent[i].ID == userMsg.ID {
			sent[i].IsPending = false
		}
	}
	final := append(sent, Message{
		ID:        newMessageID("model"),
		Role:      llm.RoleModel,
		Responses: []Response{resp},
	})
	e.turns = final
	if idx := e.indexLocked(chatID); idx >= 0 {
		e.catalog[idx].Messages = cloneMessages(final)
	}
	e.sending = false
	e.persistLocked()
	e.mu.Unlock()

	e.idle.Touch()
	e.notify()
	return nil
}

// Regenerate asks again for the last answer and adds the result as a new
// variant. A failed attempt leaves the turns untouched.
func (e *Engine) Regenerate(ctx context.Context) error {
	e.mu.Lock()
	if e.sending || e.regenerating {
		e.mu.Unlock()
		return ErrBusy
	}
	n := len(e.turns)
	if n < 2 {
		e.mu.Unlock()
		return ErrNothingToRegenerate
	}
	last, prompt := e.turns[n-1], e.turns[n-2]
	if last.Role != llm.RoleModel || prompt.Role != llm.RoleUser || prompt.Text == "" {
		e.mu.Unlock()
		return ErrNothingToRegenerate
	}

	e.sending = true
	e.regenerating = true
	e.session = e.gen.StartSession(SessionHistory(e.turns[:n-2]), e.personality)
	session := e.session
	snapshot := cloneMessages(e.turns)
	chatID := e.activeID
	wasImage := false
	if r := last.ActiveResponse(); r != nil && r.ImageURL != "" {
		wasImage = true
	}
	e.mu.Unlock()
	e.notify()

	var resp Response
	var err error
	if wasImage {
		var src string
		src, err = e.gen.GenerateImage(ctx, prompt.Text)
		resp = Response{ImageURL: src}
	} else {
		resp = Response{Text: session.SendText(ctx, prompt.Text), IsTyping: true}
	}

	e.mu.Lock()
	if err != nil {
		e.logger.Error("regeneration failed", "chat", chatID, "error", err)
	} else {
		model := &snapshot[len(snapshot)-1]
		model.Responses = append(model.Responses, resp)
		model.ActiveResponseIndex = len(model.Responses) - 1
		model.Text = ""
		e.turns = snapshot
		if chatID != "" {
			if idx := e.indexLocked(chatID); idx >= 0 {
				e.catalog[idx].Messages = cloneMessages(snapshot)
			}
		}
		e.persistLocked()
	}
	e.sending = false
	e.regenerating = false
	e.mu.Unlock()

	e.idle.Touch()
	e.notify()
	return nil
}

// NavigateResponse moves the displayed variant of a model turn by one step
func (e *Engine) NavigateResponse(messageID string, dir Direction) bool {
	return e.updateActive(func(msgs []Message) bool {
		for i := range msgs {
			m := &msgs[i]
			if m.ID != messageID || m.Role != llm.RoleModel || len(m.Responses) < 2 {
				continue
			}
			next := m.ActiveResponseIndex + int(dir)
			if next < 0 || next >= len(m.Responses) {
				return false
			}
			m.ActiveResponseIndex = next
			return true
		}
		return false
	})
}

// ToggleMessagePin flips the pinned flag of a turn
func (e *Engine) ToggleMessagePin(messageID string) bool {
	return e.updateActive(func(msgs []Message) bool {
		for i := range msgs {
			if msgs[i].ID == messageID {
				msgs[i].IsPinned = !msgs[i].IsPinned
				return true
			}
		}
		return false
	})
}

// ToggleReaction adds tag to a turn, or removes it when already present
func (e *Engine) ToggleReaction(messageID, tag string) bool {
	if tag == "" {
		return false
	}
	return e.updateActive(func(msgs []Message) bool {
		for i := range msgs {
			m := &msgs[i]
			if m.ID != messageID {
				continue
			}
			if m.HasReaction(tag) {
				kept := make([]string, 0, len(m.Reactions))
				for _, r := range m.Reactions {
					if r != tag {
						kept = append(kept, r)
					}
				}
				m.Reactions = kept
			} else {
				m.Reactions = append(m.Reactions, tag)
			}
			return true
		}
		return false
	})
}

// TypingComplete clears the typing flag of the last answer
func (e *Engine) TypingComplete() {
	e.updateActive(func(msgs []Message) bool {
		if len(msgs) == 0 {
			return false
		}
		last := &msgs[len(msgs)-1]
		if last.Role != llm.RoleModel {
			return false
		}
		r := last.ActiveResponse()
		if r == nil || !r.IsTyping {
			return false
		}
		r.IsTyping = false
		return true
	})
}

// updateActive applies fn to the active turns and to the stored copy of the
// active conversation, then persists
func (e *Engine) updateActive(fn func([]Message) bool) bool {
	e.mu.Lock()
	changed := fn(e.turns)
	if e.activeID != "" {
		if idx := e.indexLocked(e.activeID); idx >= 0 {
			if fn(e.catalog[idx].Messages) {
				changed = true
			}
		}
		if changed {
			e.persistLocked()
		}
	}
	e.mu.Unlock()

	if changed {
		e.notify()
	}
	return changed
}

// ToggleConversationPin flips the pinned flag of a stored conversation
func (e *Engine) ToggleConversationPin(chatID string) bool {
	return e.updateCatalog(chatID, func(c *Conversation) bool {
		c.IsPinned = !c.IsPinned
		return true
	})
}

// BeginRename marks a conversation as being edited; selection is blocked
// until CommitRename or CancelRename
func (e *Engine) BeginRename(chatID string) bool {
	e.mu.Lock()
	ok := e.indexLocked(chatID) >= 0
	if ok {
		e.renamingID = chatID
	}
	e.mu.Unlock()

	if ok {
		e.notify()
	}
	return ok
}

// CommitRename stores title for the conversation being edited. A blank
// title keeps the edit open.
func (e *Engine) CommitRename(title string) bool {
	e.mu.Lock()
	id := e.renamingID
	e.mu.Unlock()

	if id == "" || !e.RenameConversation(id, title) {
		return false
	}
	return true
}

// CancelRename abandons the edit in progress
func (e *Engine) CancelRename() {
	e.mu.Lock()
	e.renamingID = ""
	e.mu.Unlock()
	e.notify()
}

// RenameConversation stores the trimmed title; blank titles are ignored
func (e *Engine) RenameConversation(chatID, title string) bool {
	title = strings.TrimSpace(title)
	if title == "" {
		return false
	}
	return e.updateCatalog(chatID, func(c *Conversation) bool {
		c.Title = title
		if e.renamingID == chatID {
			e.renamingID = ""
		}
		return true
	})
}

func (e *Engine) updateCatalog(chatID string, fn func(*Conversation) bool) bool {
	e.mu.Lock()
	idx := e.indexLocked(chatID)
	changed := idx >= 0 && fn(&e.catalog[idx])
	if changed {
		e.persistLocked()
	}
	e.mu.Unlock()

	if changed {
		e.notify()
	}
	return changed
}

// DeleteConversation removes a conversation; removing the active one
// starts a new conversation
func (e *Engine) DeleteConversation(chatID string) bool {
	e.mu.Lock()
	idx := e.indexLocked(chatID)
	if idx < 0 {
		e.mu.Unlock()
		return false
	}
	e.catalog = append(e.catalog[:idx:idx], e.catalog[idx+1:]...)
	if e.renamingID == chatID {
		e.renamingID = ""
	}
	e.persistLocked()
	active := e.activeID == chatID
	if active {
		e.newConversationLocked()
	}
	e.mu.Unlock()

	if active {
		e.idle.Touch()
	}
	e.notify()
	return true
}

// ClearHistory drops every stored conversation
func (e *Engine) ClearHistory() {
	e.mu.Lock()
	e.catalog = nil
	e.renamingID = ""
	if err := e.store.ClearCatalog(); err != nil {
		e.logger.Error("failed to clear chat history", "error", err)
	}
	e.newConversationLocked()
	e.mu.Unlock()

	e.idle.Touch()
	e.notify()
}

// Import adds conversations whose id is not in the catalog yet and returns
// how many were added
func (e *Engine) Import(convs []Conversation) int {
	e.mu.Lock()
	added := 0
	for _, c := range convs {
		if c.ID == "" || e.indexLocked(c.ID) >= 0 {
			continue
		}
		e.catalog = append(e.catalog, c.clone())
		added++
	}
	if added > 0 {
		e.persistLocked()
	}
	e.mu.Unlock()

	if added > 0 {
		e.notify()
	}
	return added
}

// Touch records user activity for the idle countdown
func (e *Engine) Touch() {
	e.idle.Touch()
}

// DismissIdlePrompts hides the inactivity suggestions
func (e *Engine) DismissIdlePrompts() {
	e.idle.Dismiss()
}

func (e *Engine) idleEligible() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sending || e.regenerating {
		return false
	}
	return len(e.turns) > 1 || (len(e.turns) == 1 && !e.turns[0].IsInitial)
}

func (e *Engine) isWelcomeLocked() bool {
	return len(e.turns) == 1 && e.turns[0].IsInitial
}

func (e *Engine) indexLocked(chatID string) int {
	for i := range e.catalog {
		if e.catalog[i].ID == chatID {
			return i
		}
	}
	return -1
}

// uniqueIDLocked derives a catalog id from t, stepping a millisecond
// forward on collision
func (e *Engine) uniqueIDLocked(t time.Time) string {
	t = t.UTC()
	for {
		id := t.Format(catalogIDLayout)
		if e.indexLocked(id) < 0 {
			return id
		}
		t = t.Add(time.Millisecond)
	}
}

func (e *Engine) persistLocked() {
	if err := e.store.SaveCatalog(cloneCatalog(e.catalog)); err != nil {
		e.logger.Error("failed to save chat history", "error", err)
	}
}

func (e *Engine) notify() {
	if e.onChange != nil {
		e.onChange()
	}
}

func conversationTitle(text string) string {
	if utf8.RuneCountInString(text) <= titleLimit {
		return text
	}
	return string([]rune(text)[:titleLimit-3]) + "..."
}

func newMessageID(role string) string {
	return "msg-" + role + "-" + uuid.NewString()
}
