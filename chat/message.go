package chat

import (
	"encoding/json"

	"hustle-genie/llm"
)

// Response is one answer variant of a model turn
type Response struct {
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
	IsTyping bool   `json:"isTyping,omitempty"`
}

// Message is a single conversational turn
type Message struct {
	ID                  string     `json:"id"`
	Role                llm.Role   `json:"role"`
	Text                string     `json:"text,omitempty"`
	Responses           []Response `json:"responses,omitempty"`
	ActiveResponseIndex int        `json:"activeResponseIndex"`
	IsInitial           bool       `json:"isInitial,omitempty"`
	IsPinned            bool       `json:"isPinned,omitempty"`
	IsPending           bool       `json:"isPending,omitempty"`
	Reactions           []string   `json:"reactions,omitempty"`
}

// UnmarshalJSON folds the legacy flat text/imageUrl shape of model turns
// into a single response variant
func (m *Message) UnmarshalJSON(data []byte) error {
	type plain Message
	var raw struct {
		plain
		ImageURL string `json:"imageUrl"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*m = Message(raw.plain)
	if m.Role == llm.RoleModel && len(m.Responses) == 0 && (m.Text != "" || raw.ImageURL != "") {
		m.Responses = []Response{{Text: m.Text, ImageURL: raw.ImageURL}}
		m.Text = ""
	}
	if m.ActiveResponseIndex < 0 || m.ActiveResponseIndex >= len(m.Responses) {
		m.ActiveResponseIndex = 0
	}
	return nil
}

// ActiveResponse returns the displayed variant, or nil for user turns
func (m *Message) ActiveResponse() *Response {
	if len(m.Responses) == 0 {
		return nil
	}
	return &m.Responses[m.ActiveResponseIndex]
}

// DisplayText is the text a turn contributes to the model's context
func (m *Message) DisplayText() string {
	if m.Role == llm.RoleUser {
		return m.Text
	}
	if r := m.ActiveResponse(); r != nil && r.Text != "" {
		return r.Text
	}
	return m.Text
}

// HasReaction reports whether tag is set on the message
func (m *Message) HasReaction(tag string) bool {
	for _, r := range m.Reactions {
		if r == tag {
			return true
		}
	}
	return false
}

func (m Message) clone() Message {
	m.Responses = append([]Response(nil), m.Responses...)
	m.Reactions = append([]string(nil), m.Reactions...)
	return m
}

// Conversation is one entry of the conversation catalog
type Conversation struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Date     string    `json:"date"`
	Messages []Message `json:"messages"`
	IsPinned bool      `json:"isPinned,omitempty"`
}

func (c Conversation) clone() Conversation {
	c.Messages = cloneMessages(c.Messages)
	return c
}

func cloneMessages(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.clone()
	}
	return out
}

func cloneCatalog(catalog []Conversation) []Conversation {
	if catalog == nil {
		return nil
	}
	out := make([]Conversation, len(catalog))
	for i, c := range catalog {
		out[i] = c.clone()
	}
	return out
}

// SessionHistory converts turns into model context. Turns without text,
// such as image-only answers, are skipped.
func SessionHistory(msgs []Message) []llm.Turn {
	turns := make([]llm.Turn, 0, len(msgs))
	for i := range msgs {
		text := msgs[i].DisplayText()
		if text == "" {
			continue
		}
		turns = append(turns, llm.Turn{Role: msgs[i].Role, Text: text})
	}
	return turns
}
