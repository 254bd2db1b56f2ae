package llm

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hustle-genie/utils"
)

type fakeProvider struct {
	mu sync.Mutex

	chatReply string
	chatErr   error
	jsonReply string
	jsonErr   error
	imageMIME string
	imageData []byte
	imageErr  error

	lastInstruction string
	lastTurns       []Turn
	lastJSON        JSONRequest
}

func (f *fakeProvider) Chat(ctx context.Context, systemInstruction string, turns []Turn) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastInstruction = systemInstruction
	f.lastTurns = append([]Turn(nil), turns...)
	return f.chatReply, f.chatErr
}

func (f *fakeProvider) GenerateJSON(ctx context.Context, req JSONRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastJSON = req
	return f.jsonReply, f.jsonErr
}

func (f *fakeProvider) GenerateImage(ctx context.Context, prompt string) (string, []byte, error) {
	return f.imageMIME, f.imageData, f.imageErr
}

func (f *fakeProvider) Name() string          { return "fake" }
func (f *fakeProvider) ValidateConfig() error { return nil }

func newTestGateway(p *fakeProvider) *Gateway {
	return NewGateway(p, utils.NewNopLogger())
}

func validForm() WishForm {
	form := NewWishForm()
	form.Skills = "writing, design"
	form.Goal = "Earn $500/month"
	return form
}

const threeIdeas = `{"ideas":[
 {"title":"Copy Genie","description":"d1","timeCommitment":"5 hrs","estimatedEarnings":"$100","hustleSteps":["a","b","c"]},
 {"title":"Logo Wizard","description":"d2","timeCommitment":"5 hrs","estimatedEarnings":"$200","hustleSteps":["a"]},
 {"title":"Blog Oracle","description":"d3","timeCommitment":"5 hrs","estimatedEarnings":"$300","hustleSteps":["a"]}
]}`

func TestGenerateIdeas(t *testing.T) {
	p := &fakeProvider{jsonReply: threeIdeas}
	g := newTestGateway(p)

	ideas, err := g.GenerateIdeas(context.Background(), validForm())
	require.NoError(t, err)
	require.Len(t, ideas, 3)
	assert.Equal(t, "Copy Genie", ideas[0].Title)
	assert.Equal(t, []string{"a", "b", "c"}, ideas[0].HustleSteps)

	assert.Equal(t, HustleIdeasSchema, p.lastJSON.Schema)
	assert.Contains(t, p.lastJSON.Prompt, `My skills are: "writing, design"`)
	assert.Contains(t, p.lastJSON.Prompt, `I prefer: "Online" hustles.`)
}

func TestGenerateIdeasRejectsInvalidForm(t *testing.T) {
	g := newTestGateway(&fakeProvider{jsonReply: threeIdeas})

	form := validForm()
	form.Skills = "   "
	_, err := g.GenerateIdeas(context.Background(), form)

	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.ErrorIs(t, err, ErrMissingSkills)
}

func TestGenerateIdeasMalformed(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"not json", "the genie is sleeping"},
		{"missing ideas", `{"plan":[]}`},
		{"empty ideas", `{"ideas":[]}`},
		{"untitled idea", `{"ideas":[{"title":""}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGateway(&fakeProvider{jsonReply: tt.reply})

			ideas, err := g.GenerateIdeas(context.Background(), validForm())
			assert.Nil(t, ideas)
			assert.ErrorIs(t, err, ErrMalformedResponse)

			var genErr *GenerationError
			require.ErrorAs(t, err, &genErr)
			assert.Equal(t, "generate hustle ideas", genErr.Op)
		})
	}
}

func TestGenerateIdeasProviderFailure(t *testing.T) {
	backendErr := errors.New("quota exceeded")
	g := newTestGateway(&fakeProvider{jsonErr: backendErr})

	_, err := g.GenerateIdeas(context.Background(), validForm())
	assert.ErrorIs(t, err, backendErr)
	assert.NotErrorIs(t, err, ErrMalformedResponse)
}

func TestGenerateIdeasStripsCodeFence(t *testing.T) {
	g := newTestGateway(&fakeProvider{jsonReply: "```json\n" + threeIdeas + "\n```"})

	ideas, err := g.GenerateIdeas(context.Background(), validForm())
	require.NoError(t, err)
	assert.Len(t, ideas, 3)
}

func TestGenerateInspirationalIdeaKeepsOne(t *testing.T) {
	p := &fakeProvider{jsonReply: threeIdeas}
	g := newTestGateway(p)

	ideas, err := g.GenerateInspirationalIdea(context.Background())
	require.NoError(t, err)
	require.Len(t, ideas, 1)
	assert.Equal(t, "Copy Genie", ideas[0].Title)
	assert.Equal(t, inspirationInstruction, p.lastJSON.SystemInstruction)
}

func TestGenerateLaunchPlanSortsDays(t *testing.T) {
	reply := `{"plan":[
	 {"day":2,"title":"Build","tasks":["x"]},
	 {"day":1,"title":"Dream","tasks":["y","z"]}
	]}`
	p := &fakeProvider{jsonReply: reply}
	g := newTestGateway(p)

	plan, err := g.GenerateLaunchPlan(context.Background(), HustleIdea{Title: "Copy Genie", Description: "words"})
	require.NoError(t, err)
	require.Len(t, plan.Plan, 2)
	assert.Equal(t, 1, plan.Plan[0].Day)
	assert.Equal(t, "Dream", plan.Plan[0].Title)
	assert.Contains(t, p.lastJSON.Prompt, `The hustle is: "Copy Genie"`)
	assert.Equal(t, LaunchPlanSchema, p.lastJSON.Schema)
}

func TestGenerateLaunchPlanMalformed(t *testing.T) {
	for _, reply := range []string{`{}`, `{"plan":[]}`, `{"plan":[{"day":9,"title":"t","tasks":[]}]}`, `[`} {
		g := newTestGateway(&fakeProvider{jsonReply: reply})
		_, err := g.GenerateLaunchPlan(context.Background(), HustleIdea{Title: "x"})
		assert.ErrorIs(t, err, ErrMalformedResponse, reply)
	}
}

func TestGenerateImage(t *testing.T) {
	g := newTestGateway(&fakeProvider{imageData: []byte("png")})

	uri, err := g.GenerateImage(context.Background(), "a lamp")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,cG5n", uri)
}

func TestGenerateImageKeepsMimeType(t *testing.T) {
	g := newTestGateway(&fakeProvider{imageMIME: "image/jpeg", imageData: []byte("jpg")})

	uri, err := g.GenerateImage(context.Background(), "a lamp")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/jpeg;base64,"))
}

func TestGenerateImageFailures(t *testing.T) {
	_, err := newTestGateway(&fakeProvider{}).GenerateImage(context.Background(), "a lamp")
	assert.ErrorIs(t, err, ErrNoImage)

	backendErr := errors.New("blocked")
	_, err = newTestGateway(&fakeProvider{imageErr: backendErr}).GenerateImage(context.Background(), "a lamp")
	assert.ErrorIs(t, err, backendErr)
}

func TestSessionDefaultsPersonality(t *testing.T) {
	p := &fakeProvider{chatReply: "Hello!"}
	s := newTestGateway(p).StartSession(nil, "")

	assert.Equal(t, "Hello!", s.SendText(context.Background(), "hi"))
	assert.Equal(t, DefaultPersonality, p.lastInstruction)
}

func TestSessionAccumulatesHistory(t *testing.T) {
	p := &fakeProvider{chatReply: "reply"}
	seed := []Turn{{Role: RoleUser, Text: "earlier"}, {Role: RoleModel, Text: "answer"}}
	s := newTestGateway(p).StartSession(seed, "be brief")

	s.SendText(context.Background(), "now")

	assert.Equal(t, "be brief", p.lastInstruction)
	assert.Equal(t, []Turn{
		{Role: RoleUser, Text: "earlier"},
		{Role: RoleModel, Text: "answer"},
		{Role: RoleUser, Text: "now"},
	}, p.lastTurns)
	assert.Len(t, s.History(), 4)

	// The caller's slice is not shared with the session
	seed[0].Text = "mutated"
	assert.Equal(t, "earlier", s.History()[0].Text)
}

func TestSessionFailureReply(t *testing.T) {
	p := &fakeProvider{chatErr: errors.New("boom")}
	s := newTestGateway(p).StartSession(nil, "")

	assert.Equal(t, ChatFailureReply, s.SendText(context.Background(), "hi"))
	assert.Empty(t, s.History())
}

func TestWishFormValidate(t *testing.T) {
	form := validForm()
	assert.NoError(t, form.Validate())

	form.Goal = ""
	assert.ErrorIs(t, form.Validate(), ErrMissingGoal)

	form = validForm()
	form.Location = "Moon"
	assert.ErrorIs(t, form.Validate(), ErrInvalidLocation)
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(context.Background(), "openai", Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())

	_, err = NewProvider(context.Background(), "claude", Config{})
	assert.Error(t, err)
}
