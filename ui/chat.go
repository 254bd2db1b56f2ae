package ui

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"hustle-genie/chat"
	"hustle-genie/llm"
	"hustle-genie/utils"
)

const (
	typingInterval = 15 * time.Millisecond
	typingStep     = 3
)

// reactionTags are offered under every turn
var reactionTags = []string{"👍", "❤️", "💡", "🚀"}

// customEntry extends Entry to send on Ctrl+Enter
type customEntry struct {
	widget.Entry
	onCtrlEnter func()
}

// TypedShortcut handles keyboard shortcuts
func (e *customEntry) TypedShortcut(shortcut fyne.Shortcut) {
	if ks, ok := shortcut.(*desktop.CustomShortcut); ok {
		if (ks.KeyName == fyne.KeyReturn || ks.KeyName == fyne.KeyEnter) &&
			ks.Modifier == fyne.KeyModifierControl {
			if e.onCtrlEnter != nil {
				e.onCtrlEnter()
				return
			}
		}
	}
	e.Entry.TypedShortcut(shortcut)
}

// TypedKey sends on Ctrl+Enter when the driver reports modifiers
func (e *customEntry) TypedKey(key *fyne.KeyEvent) {
	if key.Name == fyne.KeyReturn || key.Name == fyne.KeyEnter {
		if drv, ok := fyne.CurrentApp().Driver().(desktop.Driver); ok {
			if drv.CurrentKeyModifiers()&fyne.KeyModifierControl != 0 && e.onCtrlEnter != nil {
				e.onCtrlEnter()
				return
			}
		}
	}
	e.Entry.TypedKey(key)
}

// typingEffect reveals one answer a few runes at a time
type typingEffect struct {
	key   string
	label *widget.Label
	stop  chan struct{}
}

// ChatView represents the chat interface
type ChatView struct {
	app *App

	titleLabel        *widget.Label
	messagesContainer *fyne.Container
	messagesScroll    *container.Scroll
	promptsContainer  *fyne.Container
	inputEntry        *customEntry
	sendButton        *widget.Button
	modeRadio         *widget.RadioGroup
	counterLabel      *widget.Label

	mode   chat.Mode
	typing *typingEffect
}

// NewChatView creates a new chat view
func NewChatView(app *App) *ChatView {
	return &ChatView{app: app, mode: chat.ModeText}
}

// Build builds the chat view UI
func (cv *ChatView) Build() fyne.CanvasObject {
	cv.stopTyping()

	cv.titleLabel = widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	cv.titleLabel.Truncation = fyne.TextTruncateEllipsis
	newChatButton := widget.NewButtonWithIcon("New Chat", theme.ContentAddIcon(), func() {
		cv.app.newConversation()
	})
	newChatButton.Importance = widget.LowImportance
	topBar := container.NewBorder(nil, nil, nil, newChatButton, cv.titleLabel)

	cv.messagesContainer = container.NewVBox()
	cv.messagesScroll = container.NewVScroll(cv.messagesContainer)
	cv.messagesScroll.SetMinSize(fyne.NewSize(480, 360))

	cv.promptsContainer = container.NewVBox()

	cv.inputEntry = &customEntry{}
	cv.inputEntry.MultiLine = true
	cv.inputEntry.Wrapping = fyne.TextWrapWord
	cv.inputEntry.SetMinRowsVisible(3)
	cv.inputEntry.onCtrlEnter = cv.sendMessage
	cv.inputEntry.ExtendBaseWidget(cv.inputEntry)
	cv.inputEntry.OnChanged = func(text string) {
		cv.updateCounter(text)
		cv.app.ws.Chat.Touch()
	}

	cv.counterLabel = widget.NewLabel("")
	cv.sendButton = widget.NewButtonWithIcon("Send", theme.MailSendIcon(), cv.sendMessage)
	cv.sendButton.Importance = widget.HighImportance

	cv.modeRadio = widget.NewRadioGroup([]string{"Text", "Image"}, func(value string) {
		if value == "Image" {
			cv.mode = chat.ModeImage
		} else {
			cv.mode = chat.ModeText
		}
		cv.updatePlaceholder()
	})
	cv.modeRadio.Horizontal = true
	cv.modeRadio.Required = true
	if cv.mode == chat.ModeImage {
		cv.modeRadio.SetSelected("Image")
	} else {
		cv.modeRadio.SetSelected("Text")
	}

	controls := container.NewHBox(cv.modeRadio, layout.NewSpacer(), cv.counterLabel, cv.sendButton)
	inputArea := container.NewVBox(cv.promptsContainer, cv.inputEntry, controls)

	cv.updatePlaceholder()
	cv.updateCounter("")
	cv.Refresh()

	return container.NewBorder(topBar, inputArea, nil, nil, cv.messagesScroll)
}

// Refresh redraws the conversation from the engine state
func (cv *ChatView) Refresh() {
	if cv.messagesContainer == nil {
		return
	}
	state := cv.app.ws.Chat.Snapshot()

	cv.titleLabel.SetText(activeTitle(state))

	objects := make([]fyne.CanvasObject, 0, len(state.Turns)+1)
	activeTyping := ""
	for i := range state.Turns {
		msg := &state.Turns[i]
		isLast := i == len(state.Turns)-1
		objects = append(objects, cv.buildMessageUI(msg, isLast, state))
		if isLast && msg.Role == llm.RoleModel {
			if r := msg.ActiveResponse(); r != nil && r.IsTyping {
				activeTyping = typingKey(msg)
			}
		}
	}
	if state.Sending && !state.Regenerating {
		objects = append(objects, cv.thinkingIndicator())
	}
	if cv.typing != nil && cv.typing.key != activeTyping {
		cv.stopTyping()
	}

	cv.messagesContainer.Objects = objects
	cv.messagesContainer.Refresh()
	cv.messagesScroll.ScrollToBottom()

	cv.refreshPrompts(state)
	busy := state.Sending || state.Regenerating
	if busy {
		cv.sendButton.Disable()
	} else {
		cv.updateCounter(cv.inputEntry.Text)
	}
}

func activeTitle(state chat.State) string {
	for _, conv := range state.Catalog {
		if conv.ID == state.ActiveID {
			return conv.Title
		}
	}
	return "New conversation"
}

func typingKey(msg *chat.Message) string {
	return fmt.Sprintf("%s/%d", msg.ID, msg.ActiveResponseIndex)
}

// buildMessageUI creates the UI for a single turn
func (cv *ChatView) buildMessageUI(msg *chat.Message, isLast bool, state chat.State) fyne.CanvasObject {
	roleLabel := "👤 You"
	if msg.Role == llm.RoleModel {
		roleLabel = "🧞 Genie"
	}
	roleWidget := widget.NewLabelWithStyle(roleLabel, fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	header := []fyne.CanvasObject{roleWidget}
	if msg.IsPinned {
		header = append(header, widget.NewIcon(theme.RadioButtonCheckedIcon()))
	}
	if msg.IsPending {
		pending := widget.NewLabelWithStyle("sending...", fyne.TextAlignLeading, fyne.TextStyle{Italic: true})
		header = append(header, pending)
	}

	var body fyne.CanvasObject
	if msg.Role == llm.RoleUser {
		body = newSelectableText(msg.Text)
	} else {
		body = cv.renderResponse(msg, isLast)
	}

	actions := container.NewHBox()
	if msg.Role == llm.RoleModel && len(msg.Responses) > 1 {
		actions.Add(cv.variantControls(msg))
	}
	if msg.Role == llm.RoleModel && isLast && !msg.IsInitial {
		regenerate := widget.NewButtonWithIcon("", theme.ViewRefreshIcon(), cv.regenerate)
		regenerate.Importance = widget.LowImportance
		if state.Sending || state.Regenerating {
			regenerate.Disable()
		}
		actions.Add(regenerate)
	}
	if text := msg.DisplayText(); text != "" {
		copyButton := widget.NewButtonWithIcon("", theme.ContentCopyIcon(), func() {
			cv.app.window.Clipboard().SetContent(text)
		})
		copyButton.Importance = widget.LowImportance
		actions.Add(copyButton)
	}
	if !msg.IsInitial {
		pinLabel := "Pin"
		if msg.IsPinned {
			pinLabel = "Unpin"
		}
		id := msg.ID
		pin := widget.NewButton(pinLabel, func() {
			cv.app.ws.Chat.ToggleMessagePin(id)
		})
		pin.Importance = widget.LowImportance
		actions.Add(pin)
		actions.Add(cv.reactionBar(msg))
	}

	content := container.NewVBox(container.NewHBox(header...), body, actions)
	if state.Regenerating && isLast && msg.Role == llm.RoleModel {
		content.Add(widget.NewProgressBarInfinite())
	}
	return container.NewVBox(content, widget.NewSeparator())
}

// renderResponse renders the active variant of a model turn
func (cv *ChatView) renderResponse(msg *chat.Message, isLast bool) fyne.CanvasObject {
	r := msg.ActiveResponse()
	if r == nil {
		return newSelectableText(msg.Text)
	}

	box := container.NewVBox()
	if r.ImageURL != "" {
		box.Add(imageFromDataURI(msg.ID, r.ImageURL, fyne.NewSize(320, 320)))
	}
	if r.Text != "" {
		if r.IsTyping && isLast {
			box.Add(cv.typingLabel(msg, r.Text))
		} else {
			box.Add(cv.app.renderMarkdown(r.Text))
		}
	}
	return box
}

// typingLabel returns the label of the running effect for msg, starting
// one when none is running
func (cv *ChatView) typingLabel(msg *chat.Message, text string) fyne.CanvasObject {
	key := typingKey(msg)
	if cv.typing != nil && cv.typing.key == key {
		return cv.typing.label
	}
	cv.stopTyping()

	effect := &typingEffect{
		key:   key,
		label: newSelectableText(""),
		stop:  make(chan struct{}),
	}
	cv.typing = effect

	engine := cv.app.ws.Chat
	utils.SafeGo(cv.app.logger, "typingEffect", func() {
		runes := []rune(text)
		ticker := time.NewTicker(typingInterval)
		defer ticker.Stop()

		for shown := 0; shown < len(runes); {
			select {
			case <-effect.stop:
				return
			case <-ticker.C:
			}
			shown = min(shown+typingStep, len(runes))
			partial := string(runes[:shown])
			fyne.Do(func() { effect.label.SetText(partial) })
		}
		engine.TypingComplete()
	})
	return effect.label
}

func (cv *ChatView) stopTyping() {
	if cv.typing == nil {
		return
	}
	close(cv.typing.stop)
	cv.typing = nil
}

func (cv *ChatView) variantControls(msg *chat.Message) fyne.CanvasObject {
	id := msg.ID
	prev := widget.NewButtonWithIcon("", theme.NavigateBackIcon(), func() {
		cv.app.ws.Chat.NavigateResponse(id, chat.Prev)
	})
	next := widget.NewButtonWithIcon("", theme.NavigateNextIcon(), func() {
		cv.app.ws.Chat.NavigateResponse(id, chat.Next)
	})
	prev.Importance = widget.LowImportance
	next.Importance = widget.LowImportance
	if msg.ActiveResponseIndex == 0 {
		prev.Disable()
	}
	if msg.ActiveResponseIndex == len(msg.Responses)-1 {
		next.Disable()
	}
	position := widget.NewLabel(fmt.Sprintf("%d / %d", msg.ActiveResponseIndex+1, len(msg.Responses)))
	return container.NewHBox(prev, position, next)
}

func (cv *ChatView) reactionBar(msg *chat.Message) fyne.CanvasObject {
	bar := container.NewHBox()
	id := msg.ID
	for _, tag := range reactionTags {
		tag := tag
		button := widget.NewButton(tag, func() {
			cv.app.ws.Chat.ToggleReaction(id, tag)
		})
		if msg.HasReaction(tag) {
			button.Importance = widget.HighImportance
		} else {
			button.Importance = widget.LowImportance
		}
		bar.Add(button)
	}
	return bar
}

func (cv *ChatView) thinkingIndicator() fyne.CanvasObject {
	text := "🧞 The genie is thinking..."
	if cv.mode == chat.ModeImage {
		text = "🎨 Conjuring your image..."
	}
	label := widget.NewLabelWithStyle(text, fyne.TextAlignLeading, fyne.TextStyle{Italic: true})
	return container.NewVBox(label, widget.NewProgressBarInfinite())
}

// refreshPrompts shows the welcome or idle suggestions
func (cv *ChatView) refreshPrompts(state chat.State) {
	var objects []fyne.CanvasObject
	switch {
	case len(state.WelcomePrompts) > 0:
		objects = append(objects, widget.NewLabelWithStyle("Try asking:", fyne.TextAlignLeading, fyne.TextStyle{Italic: true}))
		objects = append(objects, cv.promptGrid(state.WelcomePrompts))
	case len(state.IdlePrompts) > 0:
		dismiss := widget.NewButtonWithIcon("", theme.CancelIcon(), func() {
			cv.app.ws.Chat.DismissIdlePrompts()
		})
		dismiss.Importance = widget.LowImportance
		title := widget.NewLabelWithStyle("Need some inspiration?", fyne.TextAlignLeading, fyne.TextStyle{Italic: true})
		objects = append(objects, container.NewBorder(nil, nil, nil, dismiss, title))
		objects = append(objects, cv.promptGrid(state.IdlePrompts))
	}
	cv.promptsContainer.Objects = objects
	cv.promptsContainer.Refresh()
}

func (cv *ChatView) promptGrid(prompts []string) fyne.CanvasObject {
	grid := container.NewGridWithColumns(2)
	for _, prompt := range prompts {
		prompt := prompt
		button := widget.NewButton(prompt, func() {
			cv.usePrompt(prompt)
		})
		button.Importance = widget.LowImportance
		grid.Add(button)
	}
	return grid
}

func (cv *ChatView) updatePlaceholder() {
	if cv.inputEntry == nil {
		return
	}
	if cv.mode == chat.ModeImage {
		cv.inputEntry.SetPlaceHolder("Describe the image you wish to see... (Ctrl+Enter to send)")
	} else {
		cv.inputEntry.SetPlaceHolder("Make a wish... (Ctrl+Enter to send)")
	}
}

// updateCounter shows the remaining budget and gates the send button
func (cv *ChatView) updateCounter(text string) {
	count := utf8.RuneCountInString(text)
	cv.counterLabel.SetText(fmt.Sprintf("%d / %d", count, chat.CharLimit))
	if count > chat.CharLimit {
		cv.counterLabel.Importance = widget.DangerImportance
	} else {
		cv.counterLabel.Importance = widget.MediumImportance
	}
	cv.counterLabel.Refresh()

	if count == 0 || count > chat.CharLimit || cv.app.ws.Chat.Busy() {
		cv.sendButton.Disable()
	} else {
		cv.sendButton.Enable()
	}
}

// sendMessage sends the input in the selected mode
func (cv *ChatView) sendMessage() {
	text := cv.inputEntry.Text
	if utf8.RuneCountInString(text) > chat.CharLimit {
		cv.app.showError(fmt.Sprintf("Messages are limited to %d characters.", chat.CharLimit))
		return
	}
	mode := cv.mode
	cv.inputEntry.SetText("")

	engine := cv.app.ws.Chat
	utils.SafeGoWithError(cv.app.logger, "sendMessage", func() error {
		return engine.Send(context.Background(), text, mode)
	}, func(err error) {
		cv.handleSendError(err, text)
	})
}

func (cv *ChatView) usePrompt(prompt string) {
	engine := cv.app.ws.Chat
	utils.SafeGoWithError(cv.app.logger, "usePrompt", func() error {
		return engine.UsePrompt(context.Background(), prompt)
	}, func(err error) {
		cv.handleSendError(err, "")
	})
}

func (cv *ChatView) regenerate() {
	engine := cv.app.ws.Chat
	utils.SafeGo(cv.app.logger, "regenerate", func() {
		err := engine.Regenerate(context.Background())
		if err != nil && !errors.Is(err, chat.ErrNothingToRegenerate) {
			cv.app.logger.Warn("regenerate failed", "error", err)
		}
	})
}

// handleSendError runs on a worker goroutine. Rejected input is put back
// into the entry.
func (cv *ChatView) handleSendError(err error, text string) {
	if errors.Is(err, chat.ErrEmptyMessage) {
		return
	}
	fyne.Do(func() {
		if text != "" && cv.inputEntry.Text == "" {
			cv.inputEntry.SetText(text)
		}
		if errors.Is(err, chat.ErrBusy) {
			cv.app.showError("The genie is still answering. Please wait a moment.")
			return
		}
		cv.app.showError(err.Error())
	})
}
