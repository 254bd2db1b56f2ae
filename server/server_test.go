package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"hustle-genie/chat"
	"hustle-genie/db"
	"hustle-genie/llm"
	"hustle-genie/store"
	"hustle-genie/utils"
	"hustle-genie/view"
	"hustle-genie/workspace"
)

type stubSession struct{ reply string }

func (s *stubSession) SendText(context.Context, string) string { return s.reply }
func (s *stubSession) History() []llm.Turn                     { return nil }

type stubGen struct {
	ideaErr    error
	imageDelay time.Duration
}

func (g *stubGen) StartSession([]llm.Turn, string) llm.ChatSession {
	return &stubSession{reply: "Start with a landing page."}
}

func (g *stubGen) GenerateImage(ctx context.Context, _ string) (string, error) {
	if g.imageDelay > 0 {
		select {
		case <-time.After(g.imageDelay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "data:image/png;base64,AA==", nil
}

func (g *stubGen) GenerateIdeas(context.Context, llm.WishForm) ([]llm.HustleIdea, error) {
	if g.ideaErr != nil {
		return nil, g.ideaErr
	}
	return []llm.HustleIdea{{Title: "A"}, {Title: "B"}, {Title: "C"}}, nil
}

func (g *stubGen) GenerateInspirationalIdea(context.Context) ([]llm.HustleIdea, error) {
	return []llm.HustleIdea{{Title: "Surprise"}}, nil
}

func (g *stubGen) GenerateLaunchPlan(context.Context, llm.HustleIdea) (*llm.LaunchPlan, error) {
	return &llm.LaunchPlan{Plan: []llm.PlanDay{{Day: 1, Title: "Go"}}}, nil
}

type testAPI struct {
	t      *testing.T
	router *gin.Engine
	gen    *stubGen
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database, err := db.New(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	log := utils.NewNopLogger()
	st := store.New(database, log, store.WithHashCost(bcrypt.MinCost))
	gen := &stubGen{}
	registry := workspace.NewRegistry(workspace.Deps{Store: st, Gen: gen, Logger: log})
	t.Cleanup(registry.Close)

	tokens := NewTokens("test-secret", time.Hour)
	router := NewRouter(RouterConfig{
		Handler:        NewHandler(log, st, registry, tokens),
		Tokens:         tokens,
		Registry:       registry,
		AllowedOrigins: []string{"http://localhost:5173"},
		Logger:         log,
	})
	return &testAPI{t: t, router: router, gen: gen}
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) register(email string) string {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/register", "", map[string]string{"email": email, "password": "pw"})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp authResponse
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthcheck(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(http.MethodGet, "/healthcheck", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRegisterAndLogin(t *testing.T) {
	api := newTestAPI(t)
	token := api.register("ada@example.com")
	assert.NotEmpty(t, token)

	rec := api.do(http.MethodPost, "/api/register", "", map[string]string{"email": "ada@example.com", "password": "x"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "user_exists", decode[ErrorEnvelope](t, rec).Error.Code)

	rec = api.do(http.MethodPost, "/api/register", "", map[string]string{"email": "nope", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPost, "/api/login", "", map[string]string{"email": "ada@example.com", "password": "bad"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_credentials", decode[ErrorEnvelope](t, rec).Error.Code)

	rec = api.do(http.MethodPost, "/api/login", "", map[string]string{"email": "ADA@example.com", "password": "pw"})
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode[authResponse](t, rec)
	assert.Equal(t, "ada", login.User.Name)

	rec = api.do(http.MethodGet, "/api/me", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ada@example.com", decode[userResponse](t, rec).Email)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodGet, "/api/chat", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decode[ErrorEnvelope](t, rec).Error.Code)

	rec = api.do(http.MethodGet, "/api/chat", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	other, err := NewTokens("other-secret", time.Hour).Issue("ada@example.com")
	require.NoError(t, err)
	rec = api.do(http.MethodGet, "/api/chat", other, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTokensExpire(t *testing.T) {
	tokens := NewTokens("s", time.Minute)
	start := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	tokens.now = func() time.Time { return start }

	token, err := tokens.Issue("ada@example.com")
	require.NoError(t, err)
	email, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", email)

	tokens.now = func() time.Time { return start.Add(2 * time.Minute) }
	_, err = tokens.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSettingsRoutes(t *testing.T) {
	api := newTestAPI(t)
	token := api.register("ada@example.com")

	rec := api.do(http.MethodGet, "/api/settings", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, store.DefaultSettings(), decode[store.Settings](t, rec))

	rec = api.do(http.MethodPut, "/api/settings", token, map[string]string{"theme": "dark"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, store.ThemeDark, decode[store.Settings](t, rec).Theme)

	rec = api.do(http.MethodPut, "/api/settings", token, map[string]string{"font": "comic-sans"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGoalRoutes(t *testing.T) {
	api := newTestAPI(t)
	token := api.register("ada@example.com")

	rec := api.do(http.MethodPost, "/api/goals", token, map[string]any{"title": "Dog Walking", "goal": 200})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = api.do(http.MethodPost, "/api/goals", token, map[string]any{"title": "Dog Walking", "goal": 50})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(http.MethodPost, "/api/goals", token, map[string]any{"title": "Zero", "goal": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPut, "/api/goals/Dog%20Walking", token, map[string]any{"current": 50})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 0.25, decode[goalResponse](t, rec).Progress, 1e-9)

	rec = api.do(http.MethodDelete, "/api/goals/Dog%20Walking", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(http.MethodDelete, "/api/goals/Dog%20Walking", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodGet, "/api/goals", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Goals []goalResponse `json:"goals"`
	}](t, rec)
	require.Len(t, list.Goals, 1)
	assert.Equal(t, "My First Hustle", list.Goals[0].Title)
}

func TestIdeaRoutes(t *testing.T) {
	api := newTestAPI(t)
	token := api.register("ada@example.com")

	rec := api.do(http.MethodPost, "/api/ideas", token, map[string]string{"skills": "", "goal": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPost, "/api/ideas", token, map[string]string{"skills": "baking", "goal": "$200"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	state := decode[view.State](t, rec)
	assert.Equal(t, view.Results, state.View)
	assert.Len(t, state.Ideas, 3)

	rec = api.do(http.MethodPost, "/api/plan", token, map[string]any{"idea": state.Ideas[0]})
	require.Equal(t, http.StatusOK, rec.Code)
	state = decode[view.State](t, rec)
	assert.Equal(t, view.LaunchPlan, state.View)
	require.NotNil(t, state.Plan)

	rec = api.do(http.MethodPost, "/api/ideas/inspire", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	state = decode[view.State](t, rec)
	assert.True(t, state.InspirationMode)
	assert.Len(t, state.Ideas, 1)
}

func TestIdeaFailureUsesFriendlyMessage(t *testing.T) {
	api := newTestAPI(t)
	token := api.register("ada@example.com")
	api.gen.ideaErr = errors.New("quota exceeded")

	rec := api.do(http.MethodPost, "/api/ideas", token, map[string]string{"skills": "baking", "goal": "$200"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	env := decode[ErrorEnvelope](t, rec)
	assert.Equal(t, "generation_failed", env.Error.Code)
	assert.Equal(t, view.WishFailedMessage, env.Error.Message)
}

func TestChatRoutes(t *testing.T) {
	api := newTestAPI(t)
	token := api.register("ada@example.com")

	rec := api.do(http.MethodPost, "/api/chat/messages", token, map[string]string{"text": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPost, "/api/chat/messages", token, map[string]string{"text": strings.Repeat("a", chat.CharLimit+1)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPost, "/api/chat/messages", token, map[string]string{"text": "How do I start?"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	state := decode[chat.State](t, rec)
	require.Len(t, state.Catalog, 1)
	chatID := state.ActiveID
	model := state.Turns[len(state.Turns)-1]
	assert.Equal(t, "Start with a landing page.", model.DisplayText())

	rec = api.do(http.MethodPost, "/api/chat/regenerate", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	state = decode[chat.State](t, rec)
	model = state.Turns[len(state.Turns)-1]
	assert.Len(t, model.Responses, 2)

	rec = api.do(http.MethodPost, "/api/chat/messages/"+model.ID+"/navigate", token, map[string]string{"direction": "prev"})
	require.Equal(t, http.StatusOK, rec.Code)
	state = decode[chat.State](t, rec)
	assert.Equal(t, 0, state.Turns[len(state.Turns)-1].ActiveResponseIndex)

	rec = api.do(http.MethodPost, "/api/chat/messages/"+model.ID+"/navigate", token, map[string]string{"direction": "sideways"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPost, "/api/chat/messages/"+model.ID+"/pin", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodPost, "/api/chat/messages/"+model.ID+"/reactions", token, map[string]string{"reaction": "👍"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodPost, "/api/chat/messages/missing/pin", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodGet, "/api/pinned?q=landing", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	pinned := decode[struct {
		Messages []chat.PinnedMessage `json:"messages"`
	}](t, rec)
	require.Len(t, pinned.Messages, 1)
	assert.Equal(t, chatID, pinned.Messages[0].ChatID)

	rec = api.do(http.MethodPost, "/api/chat/messages", token, map[string]string{"text": "draw a logo", "mode": "image"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodGet, "/api/gallery", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	gallery := decode[struct {
		Images []chat.Image `json:"images"`
	}](t, rec)
	require.Len(t, gallery.Images, 1)
	assert.Equal(t, "data:image/png;base64,AA==", gallery.Images[0].Src)
}

func TestSendSurvivesClientDisconnect(t *testing.T) {
	api := newTestAPI(t)
	token := api.register("ada@example.com")
	api.gen.imageDelay = 100 * time.Millisecond

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(map[string]string{"text": "a rocket", "mode": "image"}))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/chat/messages", &buf).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	api.router.ServeHTTP(httptest.NewRecorder(), req)

	rec := api.do(http.MethodGet, "/api/chat", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	state := decode[chat.State](t, rec)
	require.Len(t, state.Turns, 2)
	model := state.Turns[1].ActiveResponse()
	require.NotNil(t, model)
	assert.Equal(t, "data:image/png;base64,AA==", model.ImageURL)
	assert.NotEqual(t, chat.ImageApology, model.Text)
}

func TestRouterFallsBackToDefaultOrigins(t *testing.T) {
	log := utils.NewNopLogger()
	tokens := NewTokens("test-secret", time.Hour)
	assert.NotPanics(t, func() {
		NewRouter(RouterConfig{
			Handler: NewHandler(log, nil, nil, tokens),
			Tokens:  tokens,
			Logger:  log,
		})
	})
}

func TestCatalogRoutes(t *testing.T) {
	api := newTestAPI(t)
	token := api.register("ada@example.com")

	rec := api.do(http.MethodPost, "/api/chat/messages", token, map[string]string{"text": "pricing"})
	require.Equal(t, http.StatusOK, rec.Code)
	chatID := decode[chat.State](t, rec).ActiveID

	rec = api.do(http.MethodPut, "/api/chats/"+chatID, token, map[string]string{"title": "Pricing ideas"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodPost, "/api/chats/"+chatID+"/pin", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodGet, "/api/chats?q=ideas", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Conversations []chat.Conversation `json:"conversations"`
		Pinned        []chat.Conversation `json:"pinned"`
	}](t, rec)
	require.Len(t, list.Conversations, 1)
	assert.Len(t, list.Pinned, 1)
	assert.Equal(t, "Pricing ideas", list.Conversations[0].Title)

	rec = api.do(http.MethodGet, "/api/chats/"+chatID+"/export?format=markdown", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".md")
	assert.Contains(t, rec.Body.String(), "Pricing ideas")

	rec = api.do(http.MethodGet, "/api/chats/"+chatID+"/export?format=pdf", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodGet, "/api/chats/export", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	exported := rec.Body.Bytes()

	rec = api.do(http.MethodPost, "/api/chat/new", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[chat.State](t, rec).ActiveID)

	rec = api.do(http.MethodPost, "/api/chats/"+chatID+"/select", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, chatID, decode[chat.State](t, rec).ActiveID)

	rec = api.do(http.MethodDelete, "/api/chats/"+chatID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[chat.State](t, rec).Catalog)

	rec = api.do(http.MethodDelete, "/api/chats/"+chatID, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/chats/import", bytes.NewReader(exported))
	req.Header.Set("Authorization", "Bearer "+token)
	imp := httptest.NewRecorder()
	api.router.ServeHTTP(imp, req)
	require.Equal(t, http.StatusOK, imp.Code, imp.Body.String())
	assert.JSONEq(t, `{"imported":1}`, imp.Body.String())

	rec = api.do(http.MethodDelete, "/api/chats", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[chat.State](t, rec).Catalog)
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/login", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRunShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, "127.0.0.1:0", http.NotFoundHandler(), utils.NewNopLogger())
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
