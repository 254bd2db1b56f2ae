package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func newOpenAITestServer(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	p, err := NewOpenAIProvider(Config{APIKey: "test", BaseURL: server.URL + "/v1"})
	require.NoError(t, err)
	return p
}

func TestOpenAIChatMapsRoles(t *testing.T) {
	var body struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	p := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		data, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(data, &body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"Abracadabra"}}]}`))
	})

	reply, err := p.Chat(context.Background(), "be magical", []Turn{
		{Role: RoleUser, Text: "hi"},
		{Role: RoleModel, Text: "hello"},
		{Role: RoleUser, Text: "ideas?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Abracadabra", reply)

	require.Len(t, body.Messages, 4)
	assert.Equal(t, "system", body.Messages[0].Role)
	assert.Equal(t, "assistant", body.Messages[2].Role)
	assert.Equal(t, "ideas?", body.Messages[3].Content)
}

func TestOpenAIGenerateJSONEmbedsSchema(t *testing.T) {
	var body struct {
		Messages []struct {
			Content string `json:"content"`
		} `json:"messages"`
		ResponseFormat struct {
			Type string `json:"type"`
		} `json:"response_format"`
	}

	p := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(data, &body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"{\"plan\":[]}"}}]}`))
	})

	raw, err := p.GenerateJSON(context.Background(), JSONRequest{
		SystemInstruction: planInstruction,
		Prompt:            "plan it",
		Schema:            LaunchPlanSchema,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"plan":[]}`, raw)
	assert.Equal(t, "json_object", body.ResponseFormat.Type)
	assert.Contains(t, body.Messages[0].Content, `"tasks"`)
}

func TestOpenAIGenerateImage(t *testing.T) {
	p := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images/generations", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"created":1,"data":[{"b64_json":"cG5n"}]}`))
	})

	mimeType, data, err := p.GenerateImage(context.Background(), "a lamp")
	require.NoError(t, err)
	assert.Equal(t, "image/png", mimeType)
	assert.Equal(t, []byte("png"), data)
}

func TestOpenAIGenerateImageEmpty(t *testing.T) {
	p := newOpenAITestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"created":1,"data":[]}`))
	})

	_, _, err := p.GenerateImage(context.Background(), "a lamp")
	assert.ErrorIs(t, err, ErrNoImage)
}

func TestToGenAISchema(t *testing.T) {
	s := toGenAISchema(LaunchPlanSchema)

	assert.Equal(t, genai.TypeObject, s.Type)
	assert.Equal(t, []string{"plan"}, s.Required)

	plan := s.Properties["plan"]
	require.NotNil(t, plan)
	assert.Equal(t, genai.TypeArray, plan.Type)
	assert.Equal(t, genai.TypeNumber, plan.Items.Properties["day"].Type)
	assert.Equal(t, genai.TypeString, plan.Items.Properties["tasks"].Items.Type)

	assert.Nil(t, toGenAISchema(nil))
}

func TestProviderValidateConfig(t *testing.T) {
	p, err := NewOpenAIProvider(Config{})
	require.NoError(t, err)
	assert.Error(t, p.ValidateConfig())
	assert.Equal(t, "openai", p.Name())
}

func TestToGenAIContents(t *testing.T) {
	contents := toGenAIContents([]Turn{
		{Role: RoleUser, Text: "hi"},
		{Role: RoleModel, Text: "hello"},
	})
	require.Len(t, contents, 2)
	assert.Equal(t, genai.RoleUser, contents[0].Role)
	assert.Equal(t, genai.RoleModel, contents[1].Role)
	require.Len(t, contents[1].Parts, 1)
	assert.Equal(t, "hello", contents[1].Parts[0].Text)
}

func TestOpenAIDefaultModels(t *testing.T) {
	p, err := NewOpenAIProvider(Config{APIKey: "test"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", p.config.Model)
	assert.Equal(t, openai.CreateImageModelDallE3, p.config.ImageModel)
}
