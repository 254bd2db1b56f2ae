package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hustle-genie/llm"
	"hustle-genie/utils"
)

type fakeSession struct {
	gen     *fakeGenerator
	history []llm.Turn
}

func (s *fakeSession) SendText(ctx context.Context, text string) string {
	s.gen.mu.Lock()
	release := s.gen.release
	reply := s.gen.reply
	s.gen.sent = append(s.gen.sent, text)
	s.gen.mu.Unlock()

	if release != nil {
		<-release
	}
	s.history = append(s.history, llm.Turn{Role: llm.RoleUser, Text: text}, llm.Turn{Role: llm.RoleModel, Text: reply})
	return reply
}

func (s *fakeSession) History() []llm.Turn { return s.history }

type fakeGenerator struct {
	mu       sync.Mutex
	reply    string
	image    string
	imageErr error
	release  chan struct{}

	sent         []string
	sessions     [][]llm.Turn
	instructions []string
}

func (g *fakeGenerator) StartSession(history []llm.Turn, instruction string) llm.ChatSession {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessions = append(g.sessions, history)
	g.instructions = append(g.instructions, instruction)
	return &fakeSession{gen: g, history: history}
}

func (g *fakeGenerator) GenerateImage(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.image, g.imageErr
}

func (g *fakeGenerator) lastSession() []llm.Turn {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sessions[len(g.sessions)-1]
}

type memoryCatalog struct {
	mu      sync.Mutex
	saved   []Conversation
	saves   int
	cleared int
	err     error
}

func (m *memoryCatalog) SaveCatalog(catalog []Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.err != nil {
		return m.err
	}
	m.saved = catalog
	return nil
}

func (m *memoryCatalog) ClearCatalog() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleared++
	m.saved = nil
	return nil
}

func testClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func newTestEngine(t *testing.T, gen *fakeGenerator, store *memoryCatalog, catalog []Conversation) *Engine {
	t.Helper()
	e := NewEngine(gen, store, catalog, utils.NewNopLogger(), Options{
		Personality: "be magical",
		Clock:       testClock(),
		IdleAfter:   time.Hour,
	})
	t.Cleanup(e.Close)
	return e
}

func TestNewEngineStartsWithGreeting(t *testing.T) {
	gen := &fakeGenerator{}
	e := newTestEngine(t, gen, &memoryCatalog{}, nil)

	turns := e.Turns()
	require.Len(t, turns, 1)
	assert.True(t, turns[0].IsInitial)
	assert.Equal(t, Greeting, turns[0].DisplayText())
	assert.Empty(t, e.ActiveID())
	assert.Equal(t, WelcomePrompts, e.Snapshot().WelcomePrompts)
	assert.Equal(t, "be magical", gen.instructions[0])
}

func TestNewEngineOpensMostRecent(t *testing.T) {
	gen := &fakeGenerator{}
	catalog := []Conversation{sampleConversation("b", "Newest"), sampleConversation("a", "Older")}
	e := newTestEngine(t, gen, &memoryCatalog{}, catalog)

	assert.Equal(t, "b", e.ActiveID())
	assert.Len(t, gen.lastSession(), 2)
}

func TestSendCreatesCatalogEntry(t *testing.T) {
	gen := &fakeGenerator{reply: "Network, network, network!"}
	store := &memoryCatalog{}
	e := newTestEngine(t, gen, store, nil)

	require.NoError(t, e.Send(context.Background(), "How do I find my first client?", ModeText))

	catalog := e.Catalog()
	require.Len(t, catalog, 1)
	conv := catalog[0]
	assert.Equal(t, "How do I find my first client?", conv.Title)
	assert.Equal(t, "2024-03-05T10:00:01.000Z", conv.ID)
	assert.Equal(t, "Mar 5", conv.Date)
	assert.Equal(t, conv.ID, e.ActiveID())

	// greeting, user, model
	require.Len(t, conv.Messages, 3)
	user, model := conv.Messages[1], conv.Messages[2]
	assert.Equal(t, llm.RoleUser, user.Role)
	assert.False(t, user.IsPending)
	assert.Equal(t, llm.RoleModel, model.Role)
	require.Len(t, model.Responses, 1)
	assert.Equal(t, "Network, network, network!", model.Responses[0].Text)
	assert.True(t, model.Responses[0].IsTyping)

	assert.Equal(t, catalog, store.saved)
	assert.False(t, e.Busy())
}

func TestSendTruncatesLongTitle(t *testing.T) {
	e := newTestEngine(t, &fakeGenerator{reply: "ok"}, &memoryCatalog{}, nil)

	text := "Give me ten ideas for a weekend hustle near the beach"
	require.NoError(t, e.Send(context.Background(), text, ModeText))

	title := e.Catalog()[0].Title
	assert.Equal(t, text[:27]+"...", title)
	assert.Len(t, []rune(title), 30)
}

func TestSendAppendsToActiveConversation(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	e := newTestEngine(t, gen, &memoryCatalog{}, nil)

	require.NoError(t, e.Send(context.Background(), "first", ModeText))
	require.NoError(t, e.Send(context.Background(), "second", ModeText))

	catalog := e.Catalog()
	require.Len(t, catalog, 1)
	assert.Len(t, catalog[0].Messages, 5)
	assert.Equal(t, "first", catalog[0].Title)
	assert.Equal(t, []string{"first", "second"}, gen.sent)
}

func TestSendValidation(t *testing.T) {
	e := newTestEngine(t, &fakeGenerator{}, &memoryCatalog{}, nil)

	assert.ErrorIs(t, e.Send(context.Background(), "   ", ModeText), ErrEmptyMessage)
	assert.ErrorIs(t, e.Send(context.Background(), strings.Repeat("a", CharLimit+1), ModeText), ErrTooLong)
	assert.Len(t, e.Turns(), 1)
	assert.Empty(t, e.Catalog())
}

func TestSendWhileBusyIsRejected(t *testing.T) {
	gen := &fakeGenerator{reply: "slow", release: make(chan struct{})}
	e := newTestEngine(t, gen, &memoryCatalog{}, nil)

	done := make(chan error, 1)
	go func() { done <- e.Send(context.Background(), "first", ModeText) }()

	require.Eventually(t, e.Busy, time.Second, 5*time.Millisecond)
	before := len(e.Turns())

	assert.ErrorIs(t, e.Send(context.Background(), "second", ModeText), ErrBusy)
	assert.ErrorIs(t, e.Regenerate(context.Background()), ErrBusy)
	assert.Len(t, e.Turns(), before)

	pending := e.Turns()[before-1]
	assert.True(t, pending.IsPending)

	close(gen.release)
	require.NoError(t, <-done)
	assert.Len(t, e.Turns(), before+1)
}

func TestSendImage(t *testing.T) {
	gen := &fakeGenerator{image: "data:image/png;base64,AAAA"}
	e := newTestEngine(t, gen, &memoryCatalog{}, nil)

	require.NoError(t, e.Send(context.Background(), "a golden lamp", ModeImage))

	turns := e.Turns()
	model := turns[len(turns)-1]
	assert.Equal(t, "data:image/png;base64,AAAA", model.Responses[0].ImageURL)
	assert.False(t, model.Responses[0].IsTyping)
	assert.Empty(t, gen.sent)
}

func TestSendImageFailureApologizes(t *testing.T) {
	gen := &fakeGenerator{imageErr: errors.New("blocked")}
	e := newTestEngine(t, gen, &memoryCatalog{}, nil)

	require.NoError(t, e.Send(context.Background(), "a golden lamp", ModeImage))

	turns := e.Turns()
	assert.Equal(t, ImageApology, turns[len(turns)-1].Responses[0].Text)
}

func TestSendResultLandsOnCapturedConversation(t *testing.T) {
	gen := &fakeGenerator{reply: "late answer", release: make(chan struct{})}
	catalog := []Conversation{sampleConversation("old", "Old chat")}
	e := newTestEngine(t, gen, &memoryCatalog{}, catalog)
	e.NewConversation()

	done := make(chan error, 1)
	go func() { done <- e.Send(context.Background(), "new question", ModeText) }()
	require.Eventually(t, e.Busy, time.Second, 5*time.Millisecond)

	chatID := e.ActiveID()
	require.True(t, e.SelectConversation("old"))

	close(gen.release)
	require.NoError(t, <-done)

	// The reply is committed to the conversation it was asked in and
	// replaces the active turns
	turns := e.Turns()
	assert.Equal(t, "late answer", turns[len(turns)-1].DisplayText())
	for _, c := range e.Catalog() {
		if c.ID == chatID {
			assert.Len(t, c.Messages, 3)
		}
		if c.ID == "old" {
			assert.Len(t, c.Messages, 2)
		}
	}
}

func TestRegenerateAddsVariant(t *testing.T) {
	gen := &fakeGenerator{reply: "first answer"}
	e := newTestEngine(t, gen, &memoryCatalog{}, nil)
	require.NoError(t, e.Send(context.Background(), "question", ModeText))

	gen.reply = "second answer"
	require.NoError(t, e.Regenerate(context.Background()))

	turns := e.Turns()
	model := turns[len(turns)-1]
	require.Len(t, model.Responses, 2)
	assert.Equal(t, 1, model.ActiveResponseIndex)
	assert.Equal(t, "second answer", model.DisplayText())

	// The session was rebuilt from everything before the final exchange
	assert.Equal(t, []llm.Turn{{Role: llm.RoleModel, Text: Greeting}}, gen.lastSession())

	stored := e.Catalog()[0].Messages
	assert.Len(t, stored[len(stored)-1].Responses, 2)
}

func TestRegenerateImage(t *testing.T) {
	gen := &fakeGenerator{image: "data:image/png;base64,AAAA"}
	e := newTestEngine(t, gen, &memoryCatalog{}, nil)
	require.NoError(t, e.Send(context.Background(), "lamp", ModeImage))

	gen.image = "data:image/png;base64,BBBB"
	require.NoError(t, e.Regenerate(context.Background()))

	turns := e.Turns()
	model := turns[len(turns)-1]
	require.Len(t, model.Responses, 2)
	assert.Equal(t, "data:image/png;base64,BBBB", model.ActiveResponse().ImageURL)
}

func TestRegenerateFailureLeavesTurns(t *testing.T) {
	gen := &fakeGenerator{image: "data:image/png;base64,AAAA"}
	e := newTestEngine(t, gen, &memoryCatalog{}, nil)
	require.NoError(t, e.Send(context.Background(), "lamp", ModeImage))
	before := e.Turns()

	gen.imageErr = errors.New("blocked")
	require.NoError(t, e.Regenerate(context.Background()))

	assert.Equal(t, before, e.Turns())
	assert.False(t, e.Busy())
}

func TestRegenerateNeedsExchange(t *testing.T) {
	e := newTestEngine(t, &fakeGenerator{}, &memoryCatalog{}, nil)
	before := e.Turns()

	assert.ErrorIs(t, e.Regenerate(context.Background()), ErrNothingToRegenerate)
	assert.Equal(t, before, e.Turns())
}

func TestNavigateResponseClamps(t *testing.T) {
	gen := &fakeGenerator{reply: "one"}
	e := newTestEngine(t, gen, &memoryCatalog{}, nil)
	require.NoError(t, e.Send(context.Background(), "q", ModeText))
	gen.reply = "two"
	require.NoError(t, e.Regenerate(context.Background()))

	turns := e.Turns()
	id := turns[len(turns)-1].ID

	assert.False(t, e.NavigateResponse(id, Next))
	assert.True(t, e.NavigateResponse(id, Prev))
	assert.False(t, e.NavigateResponse(id, Prev))

	turns = e.Turns()
	assert.Equal(t, 0, turns[len(turns)-1].ActiveResponseIndex)
	stored := e.Catalog()[0].Messages
	assert.Equal(t, 0, stored[len(stored)-1].ActiveResponseIndex)

	assert.True(t, e.NavigateResponse(id, Next))
	assert.Equal(t, "two", e.Turns()[len(turns)-1].DisplayText())
}

func TestToggleMessagePinTwice(t *testing.T) {
	e := newTestEngine(t, &fakeGenerator{reply: "ok"}, &memoryCatalog{}, nil)
	require.NoError(t, e.Send(context.Background(), "q", ModeText))
	id := e.Turns()[1].ID

	require.True(t, e.ToggleMessagePin(id))
	assert.True(t, e.Turns()[1].IsPinned)
	assert.True(t, e.Catalog()[0].Messages[1].IsPinned)

	require.True(t, e.ToggleMessagePin(id))
	assert.False(t, e.Turns()[1].IsPinned)
	assert.False(t, e.ToggleMessagePin("missing"))
}

func TestToggleReactionTwice(t *testing.T) {
	e := newTestEngine(t, &fakeGenerator{reply: "ok"}, &memoryCatalog{}, nil)
	require.NoError(t, e.Send(context.Background(), "q", ModeText))
	id := e.Turns()[2].ID

	require.True(t, e.ToggleReaction(id, "👍"))
	require.True(t, e.ToggleReaction(id, "🎉"))
	assert.Equal(t, []string{"👍", "🎉"}, e.Turns()[2].Reactions)

	require.True(t, e.ToggleReaction(id, "👍"))
	require.True(t, e.ToggleReaction(id, "👍"))
	assert.Equal(t, []string{"🎉", "👍"}, e.Turns()[2].Reactions)

	require.True(t, e.ToggleReaction(id, "👍"))
	assert.Equal(t, []string{"🎉"}, e.Catalog()[0].Messages[2].Reactions)
}

func TestToggleConversationPinTwice(t *testing.T) {
	e := newTestEngine(t, &fakeGenerator{}, &memoryCatalog{}, []Conversation{sampleConversation("a", "A")})

	require.True(t, e.ToggleConversationPin("a"))
	assert.True(t, e.Catalog()[0].IsPinned)
	require.True(t, e.ToggleConversationPin("a"))
	assert.False(t, e.Catalog()[0].IsPinned)
}

func TestRenameConversation(t *testing.T) {
	e := newTestEngine(t, &fakeGenerator{}, &memoryCatalog{}, []Conversation{sampleConversation("a", "A")})

	assert.False(t, e.RenameConversation("a", "   "))
	assert.Equal(t, "A", e.Catalog()[0].Title)

	assert.True(t, e.RenameConversation("a", "  Pricing talk  "))
	assert.Equal(t, "Pricing talk", e.Catalog()[0].Title)
}

func TestRenameBlocksSelection(t *testing.T) {
	catalog := []Conversation{sampleConversation("a", "A"), sampleConversation("b", "B")}
	e := newTestEngine(t, &fakeGenerator{}, &memoryCatalog{}, catalog)

	require.True(t, e.BeginRename("b"))
	assert.False(t, e.SelectConversation("b"))
	assert.Equal(t, "a", e.ActiveID())

	assert.False(t, e.CommitRename(""))
	assert.Equal(t, "b", e.Snapshot().RenamingID)

	assert.True(t, e.CommitRename("Renamed"))
	assert.Empty(t, e.Snapshot().RenamingID)
	assert.True(t, e.SelectConversation("b"))
	assert.Equal(t, "b", e.ActiveID())

	require.True(t, e.BeginRename("a"))
	e.CancelRename()
	assert.True(t, e.SelectConversation("a"))
}

func TestSelectConversationReplaysHistory(t *testing.T) {
	gen := &fakeGenerator{}
	conv := sampleConversation("a", "A")
	conv.Messages = append(conv.Messages, Message{
		ID: "img", Role: llm.RoleModel, Responses: []Response{{ImageURL: "data:x"}},
	})
	e := newTestEngine(t, gen, &memoryCatalog{}, []Conversation{conv})

	assert.Equal(t, []llm.Turn{
		{Role: llm.RoleUser, Text: "hello"},
		{Role: llm.RoleModel, Text: "hi there"},
	}, gen.lastSession())
	assert.False(t, e.SelectConversation("unknown"))
	assert.Equal(t, "a", e.ActiveID())
}

func TestDeleteActiveConversationStartsFresh(t *testing.T) {
	store := &memoryCatalog{}
	e := newTestEngine(t, &fakeGenerator{reply: "ok"}, store, []Conversation{sampleConversation("old", "Old")})
	e.NewConversation()
	require.NoError(t, e.Send(context.Background(), "q", ModeText))
	active := e.ActiveID()

	require.True(t, e.DeleteConversation(active))

	turns := e.Turns()
	require.Len(t, turns, 1)
	assert.True(t, turns[0].IsInitial)
	assert.Empty(t, e.ActiveID())
	require.Len(t, store.saved, 1)
	assert.Equal(t, "old", store.saved[0].ID)
}

func TestDeleteInactiveConversationKeepsActive(t *testing.T) {
	catalog := []Conversation{sampleConversation("a", "A"), sampleConversation("b", "B")}
	e := newTestEngine(t, &fakeGenerator{}, &memoryCatalog{}, catalog)

	require.True(t, e.DeleteConversation("b"))
	assert.Equal(t, "a", e.ActiveID())
	assert.False(t, e.DeleteConversation("b"))
}

func TestClearHistory(t *testing.T) {
	store := &memoryCatalog{}
	e := newTestEngine(t, &fakeGenerator{}, store, []Conversation{sampleConversation("a", "A")})

	e.ClearHistory()

	assert.Empty(t, e.Catalog())
	assert.Empty(t, e.ActiveID())
	assert.Equal(t, 1, store.cleared)
	assert.Len(t, e.Turns(), 1)
}

func TestTypingCompleteIsIdempotent(t *testing.T) {
	e := newTestEngine(t, &fakeGenerator{reply: "ok"}, &memoryCatalog{}, nil)
	require.NoError(t, e.Send(context.Background(), "q", ModeText))

	e.TypingComplete()
	e.TypingComplete()

	turns := e.Turns()
	assert.False(t, turns[len(turns)-1].Responses[0].IsTyping)
	stored := e.Catalog()[0].Messages
	assert.False(t, stored[len(stored)-1].Responses[0].IsTyping)
}

func TestStoreFailureIsSwallowed(t *testing.T) {
	store := &memoryCatalog{err: errors.New("disk full")}
	e := newTestEngine(t, &fakeGenerator{reply: "ok"}, store, nil)

	require.NoError(t, e.Send(context.Background(), "q", ModeText))
	assert.Len(t, e.Catalog(), 1)
	assert.Equal(t, 2, store.saves)
}

func TestSelectPinnedMessage(t *testing.T) {
	catalog := []Conversation{sampleConversation("a", "A"), sampleConversation("b", "B")}
	catalog[1].Messages[0].IsPinned = true
	e := newTestEngine(t, &fakeGenerator{}, &memoryCatalog{}, catalog)

	item := PinnedMessages(e.Catalog())[0]
	id, ok := e.SelectPinnedMessage(item)
	require.True(t, ok)
	assert.Equal(t, item.Message.ID, id)
	assert.Equal(t, "b", e.ActiveID())

	_, ok = e.SelectPinnedMessage(PinnedMessage{ChatID: "gone"})
	assert.False(t, ok)
}

func TestUsePromptSendsText(t *testing.T) {
	gen := &fakeGenerator{reply: "Start with friends and family."}
	e := newTestEngine(t, gen, &memoryCatalog{}, nil)

	require.NoError(t, e.UsePrompt(context.Background(), WelcomePrompts[0]))
	assert.Equal(t, WelcomePrompts[0], e.Catalog()[0].Title)
	assert.Equal(t, []string{WelcomePrompts[0]}, gen.sent)
}

func TestPersonalityAppliesToNextSession(t *testing.T) {
	gen := &fakeGenerator{}
	e := newTestEngine(t, gen, &memoryCatalog{}, nil)

	e.SetPersonality("be terse")
	e.NewConversation()

	assert.Equal(t, "be terse", gen.instructions[len(gen.instructions)-1])
}

func TestImportSkipsKnownIDs(t *testing.T) {
	store := &memoryCatalog{}
	e := newTestEngine(t, &fakeGenerator{}, store, []Conversation{sampleConversation("a", "A")})

	added := e.Import([]Conversation{sampleConversation("a", "dup"), sampleConversation("c", "C")})
	assert.Equal(t, 1, added)
	assert.Len(t, e.Catalog(), 2)
	assert.Len(t, store.saved, 2)
}

func TestParseDirection(t *testing.T) {
	d, ok := ParseDirection("PREV")
	assert.True(t, ok)
	assert.Equal(t, Prev, d)
	_, ok = ParseDirection("sideways")
	assert.False(t, ok)
}

func sampleConversation(id, title string) Conversation {
	return Conversation{
		ID:    id,
		Title: title,
		Date:  "Mar 5",
		Messages: []Message{
			{ID: id + "-u", Role: llm.RoleUser, Text: "hello"},
			{ID: id + "-m", Role: llm.RoleModel, Responses: []Response{{Text: "hi there"}}},
		},
	}
}
