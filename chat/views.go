package chat

import (
	"slices"
	"strings"

	"hustle-genie/llm"
)

// Image is a generated image found in the catalog
type Image struct {
	Src    string `json:"src"`
	ChatID string `json:"chatId"`
}

// PinnedMessage is a pinned turn together with its conversation
type PinnedMessage struct {
	ChatID    string  `json:"chatId"`
	ChatTitle string  `json:"chatTitle"`
	Message   Message `json:"message"`
}

// Images lists every image of every variant, most recent first. A
// duplicate source keeps its first position but takes the chat of its
// last occurrence.
func Images(catalog []Conversation) []Image {
	seen := make(map[string]int)
	var images []Image
	for _, conv := range catalog {
		for _, msg := range conv.Messages {
			if msg.Role != llm.RoleModel {
				continue
			}
			for _, r := range msg.Responses {
				if r.ImageURL == "" {
					continue
				}
				if i, ok := seen[r.ImageURL]; ok {
					images[i].ChatID = conv.ID
					continue
				}
				seen[r.ImageURL] = len(images)
				images = append(images, Image{Src: r.ImageURL, ChatID: conv.ID})
			}
		}
	}
	slices.Reverse(images)
	return images
}

// PinnedConversations keeps catalog order
func PinnedConversations(catalog []Conversation) []Conversation {
	var pinned []Conversation
	for _, conv := range catalog {
		if conv.IsPinned {
			pinned = append(pinned, conv)
		}
	}
	return pinned
}

// PinnedMessages flattens pinned turns across the catalog, most recent first
func PinnedMessages(catalog []Conversation) []PinnedMessage {
	var pinned []PinnedMessage
	for _, conv := range catalog {
		for _, msg := range conv.Messages {
			if msg.IsPinned {
				pinned = append(pinned, PinnedMessage{ChatID: conv.ID, ChatTitle: conv.Title, Message: msg})
			}
		}
	}
	slices.Reverse(pinned)
	return pinned
}

// FilterConversations keeps conversations whose title contains term
func FilterConversations(convs []Conversation, term string) []Conversation {
	if term == "" {
		return convs
	}
	needle := strings.ToLower(term)
	out := []Conversation{}
	for _, conv := range convs {
		if strings.Contains(strings.ToLower(conv.Title), needle) {
			out = append(out, conv)
		}
	}
	return out
}

// FilterImages keeps images whose conversation title contains term
func FilterImages(images []Image, catalog []Conversation, term string) []Image {
	if term == "" {
		return images
	}
	needle := strings.ToLower(term)
	titles := make(map[string]string, len(catalog))
	for _, conv := range catalog {
		titles[conv.ID] = strings.ToLower(conv.Title)
	}
	out := []Image{}
	for _, img := range images {
		if title, ok := titles[img.ChatID]; ok && strings.Contains(title, needle) {
			out = append(out, img)
		}
	}
	return out
}

// FilterPinnedMessages matches term against the message text or the
// conversation title
func FilterPinnedMessages(items []PinnedMessage, term string) []PinnedMessage {
	if term == "" {
		return items
	}
	needle := strings.ToLower(term)
	out := []PinnedMessage{}
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Message.DisplayText()), needle) ||
			strings.Contains(strings.ToLower(item.ChatTitle), needle) {
			out = append(out, item)
		}
	}
	return out
}
