package chat

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"hustle-genie/llm"
)

// ExportFormat represents the export format
type ExportFormat string

const (
	FormatJSON     ExportFormat = "json"
	FormatMarkdown ExportFormat = "markdown"
)

const exportVersion = "1.0"

// ParseExportFormat accepts json, markdown and md
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported export format: %s", s)
	}
}

// catalogExport is the file layout of a full history export
type catalogExport struct {
	Metadata      map[string]string `json:"metadata"`
	Conversations []Conversation    `json:"conversations"`
}

// ExportConversation renders a single conversation
func ExportConversation(conv Conversation, format ExportFormat, now time.Time) ([]byte, error) {
	switch format {
	case FormatMarkdown:
		return []byte(conversationMarkdown(conv, now)), nil
	case FormatJSON:
		data, err := json.MarshalIndent(conv, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// ExportCatalog renders every conversation into one document
func ExportCatalog(catalog []Conversation, format ExportFormat, now time.Time) ([]byte, error) {
	if format == FormatMarkdown {
		var sb strings.Builder
		for i, conv := range catalog {
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(conversationMarkdown(conv, now))
		}
		return []byte(sb.String()), nil
	}

	if catalog == nil {
		catalog = []Conversation{}
	}
	wrapper := catalogExport{
		Metadata: map[string]string{
			"export_version": exportVersion,
			"export_date":    now.Format(time.RFC3339),
			"app_name":       "HustleGenie",
			"total_count":    strconv.Itoa(len(catalog)),
		},
		Conversations: catalog,
	}

	data, err := json.MarshalIndent(wrapper, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return data, nil
}

// ImportCatalog reads a JSON export. It accepts a full export, a bare
// array of conversations or a single conversation.
func ImportCatalog(data []byte) ([]Conversation, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, fmt.Errorf("invalid export: empty file")
	}

	var convs []Conversation
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(data, &convs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal JSON: %w", err)
		}
	default:
		var probe struct {
			Conversations json.RawMessage `json:"conversations"`
		}
		if err := json.Unmarshal(data, &probe); err != nil {
			return nil, fmt.Errorf("failed to unmarshal JSON: %w", err)
		}
		if probe.Conversations != nil {
			if err := json.Unmarshal(probe.Conversations, &convs); err != nil {
				return nil, fmt.Errorf("failed to unmarshal conversations: %w", err)
			}
			break
		}
		var conv Conversation
		if err := json.Unmarshal(data, &conv); err != nil {
			return nil, fmt.Errorf("failed to unmarshal JSON: %w", err)
		}
		convs = []Conversation{conv}
	}

	valid := make([]Conversation, 0, len(convs))
	for _, c := range convs {
		// Skip entries that cannot be selected later
		if c.ID == "" || c.Title == "" || len(c.Messages) == 0 {
			continue
		}
		valid = append(valid, c)
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("invalid export: no conversations")
	}
	return valid, nil
}

func conversationMarkdown(conv Conversation, now time.Time) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", conv.Title))
	if conv.Date != "" {
		sb.WriteString(fmt.Sprintf("**Date**: %s\n\n", conv.Date))
	}
	sb.WriteString("---\n\n")

	for i, msg := range conv.Messages {
		if msg.Role == llm.RoleUser {
			sb.WriteString("## 👤 You\n\n")
			sb.WriteString(msg.Text)
			sb.WriteString("\n\n")
		} else {
			sb.WriteString("## 🧞 HustleGenie\n\n")
			for j, r := range msg.Responses {
				if len(msg.Responses) > 1 {
					sb.WriteString(fmt.Sprintf("*Response %d of %d*\n\n", j+1, len(msg.Responses)))
				}
				if r.Text != "" {
					sb.WriteString(r.Text)
					sb.WriteString("\n\n")
				}
				if r.ImageURL != "" {
					sb.WriteString(fmt.Sprintf("![generated image %d](%s)\n\n", j+1, r.ImageURL))
				}
			}
		}
		if len(msg.Reactions) > 0 {
			sb.WriteString(fmt.Sprintf("*Reactions: %s*\n\n", strings.Join(msg.Reactions, " ")))
		}

		if i < len(conv.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	sb.WriteString("\n---\n\n")
	sb.WriteString(fmt.Sprintf("*Exported: %s*\n", now.Format("2006-01-02 15:04:05")))
	return sb.String()
}

// ExportFilename builds a file name for an export of title
func ExportFilename(title string, format ExportFormat, now time.Time) string {
	sanitized := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, title)

	if runes := []rune(sanitized); len(runes) > 50 {
		sanitized = string(runes[:50])
	}
	if sanitized == "" {
		sanitized = "hustlegenie"
	}

	ext := string(format)
	if format == FormatMarkdown {
		ext = "md"
	}
	return fmt.Sprintf("%s_%s.%s", sanitized, now.Format("20060102_150405"), ext)
}
