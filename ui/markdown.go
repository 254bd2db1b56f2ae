package ui

import (
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

type markdownPart struct {
	content  string
	isCode   bool
	language string
}

// parseMarkdown splits text into plain runs and fenced code blocks. An
// unterminated fence runs to the end of the text.
func parseMarkdown(markdown string) []markdownPart {
	var parts []markdownPart
	var current strings.Builder
	inCode := false
	language := ""

	flush := func(isCode bool) {
		content := current.String()
		current.Reset()
		if !isCode {
			content = strings.Trim(content, "\n")
			if strings.TrimSpace(content) == "" {
				return
			}
		} else {
			content = strings.TrimSuffix(content, "\n")
		}
		parts = append(parts, markdownPart{content: content, isCode: isCode, language: language})
	}

	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			if inCode {
				flush(true)
				language = ""
			} else {
				flush(false)
				language = strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
			}
			inCode = !inCode
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	if inCode {
		flush(true)
	} else {
		flush(false)
	}
	return parts
}

// newSelectableText creates a read-only, selectable text widget
func newSelectableText(text string) *widget.Label {
	label := widget.NewLabel(text)
	label.Wrapping = fyne.TextWrapWord
	label.Selectable = true
	return label
}

// newSelectableCodeText creates a read-only, selectable code text widget with monospace font
func newSelectableCodeText(text string) *widget.Label {
	label := widget.NewLabel(text)
	label.Wrapping = fyne.TextWrapBreak
	label.TextStyle = fyne.TextStyle{Monospace: true}
	label.Selectable = true
	return label
}

// renderMarkdown renders a model answer with copyable code blocks
func (a *App) renderMarkdown(content string) fyne.CanvasObject {
	if !strings.Contains(content, "```") {
		return newSelectableText(content)
	}

	box := container.NewVBox()
	for _, part := range parseMarkdown(content) {
		if !part.isCode {
			box.Add(newSelectableText(part.content))
			continue
		}

		code := part.content
		copyButton := widget.NewButton("📋 Copy code", func() {
			a.window.Clipboard().SetContent(code)
			a.logger.Debug("code copied to clipboard")
		})
		copyButton.Importance = widget.LowImportance

		var header fyne.CanvasObject = container.NewHBox(copyButton)
		if part.language != "" {
			languageLabel := widget.NewLabelWithStyle("📝 "+part.language, fyne.TextAlignLeading, fyne.TextStyle{Bold: true, Italic: true})
			header = container.NewBorder(nil, nil, languageLabel, copyButton)
		}
		box.Add(container.NewBorder(header, nil, nil, nil, newSelectableCodeText(code)))
	}
	return box
}
