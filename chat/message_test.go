package chat

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hustle-genie/llm"
)

func TestUnmarshalLegacyModelTurn(t *testing.T) {
	var msgs []Message
	data := `[
		{"id":"1","role":"model","text":"Old style answer"},
		{"id":"2","role":"model","imageUrl":"data:image/png;base64,AAAA"},
		{"id":"3","role":"user","text":"question"}
	]`
	require.NoError(t, json.Unmarshal([]byte(data), &msgs))

	assert.Equal(t, []Response{{Text: "Old style answer"}}, msgs[0].Responses)
	assert.Empty(t, msgs[0].Text)
	assert.Equal(t, []Response{{ImageURL: "data:image/png;base64,AAAA"}}, msgs[1].Responses)
	assert.Equal(t, "question", msgs[2].Text)
	assert.Empty(t, msgs[2].Responses)
}

func TestUnmarshalClampsActiveIndex(t *testing.T) {
	var m Message
	require.NoError(t, json.Unmarshal([]byte(`{"id":"1","role":"model","responses":[{"text":"a"}],"activeResponseIndex":4}`), &m))
	assert.Equal(t, 0, m.ActiveResponseIndex)
}

func TestMessageRoundTrip(t *testing.T) {
	conv := Conversation{
		ID:       "2024-03-05T10:00:01.000Z",
		Title:    "Pricing",
		Date:     "Mar 5",
		IsPinned: true,
		Messages: []Message{
			{ID: "u", Role: llm.RoleUser, Text: "how much?", IsPinned: true, Reactions: []string{"👍"}},
			{ID: "m", Role: llm.RoleModel, Responses: []Response{{Text: "a"}, {ImageURL: "b"}}, ActiveResponseIndex: 1},
		},
	}

	data, err := json.Marshal(conv)
	require.NoError(t, err)

	var got Conversation
	require.NoError(t, json.Unmarshal(data, &got))
	if diff := cmp.Diff(conv, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionHistory(t *testing.T) {
	msgs := []Message{
		{Role: llm.RoleModel, Responses: []Response{{Text: Greeting}}, IsInitial: true},
		{Role: llm.RoleUser, Text: "q"},
		{Role: llm.RoleModel, Responses: []Response{{Text: "first"}, {Text: "second"}}, ActiveResponseIndex: 1},
		{Role: llm.RoleUser, Text: "draw"},
		{Role: llm.RoleModel, Responses: []Response{{ImageURL: "img"}}},
		{Role: llm.RoleModel, Text: "legacy"},
	}

	assert.Equal(t, []llm.Turn{
		{Role: llm.RoleModel, Text: Greeting},
		{Role: llm.RoleUser, Text: "q"},
		{Role: llm.RoleModel, Text: "second"},
		{Role: llm.RoleUser, Text: "draw"},
		{Role: llm.RoleModel, Text: "legacy"},
	}, SessionHistory(msgs))
}

func TestConversationTitle(t *testing.T) {
	assert.Equal(t, "Short", conversationTitle("Short"))
	exact := "123456789012345678901234567890"
	assert.Equal(t, exact, conversationTitle(exact))
	assert.Equal(t, "123456789012345678901234567...", conversationTitle(exact+"1"))
	assert.Equal(t, strings.Repeat("é", 27)+"...", conversationTitle(strings.Repeat("é", 31)))
}
