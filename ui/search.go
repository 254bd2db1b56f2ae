package ui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"hustle-genie/chat"
	"hustle-genie/view"
)

const snippetLength = 80

// refreshImages fills the gallery; tapping an image opens its conversation
func (hv *HistoryView) refreshImages(catalog []chat.Conversation) {
	images := chat.FilterImages(chat.Images(catalog), catalog, hv.term)

	objects := make([]fyne.CanvasObject, 0, len(images))
	for i, img := range images {
		chatID := img.ChatID
		thumb := imageFromDataURI(fmt.Sprintf("gallery-%d", i), img.Src, fyne.NewSize(88, 88))
		open := widget.NewButton("", func() {
			hv.app.openConversation(chatID)
		})
		open.Importance = widget.LowImportance
		objects = append(objects, container.NewStack(open, thumb))
	}
	if len(objects) == 0 {
		objects = append(objects, emptyLabel(hv.term, "No images yet."))
	}
	hv.imagesGrid.Objects = objects
	hv.imagesGrid.Refresh()
}

// refreshPinned lists pinned messages with the title of their conversation
func (hv *HistoryView) refreshPinned(catalog []chat.Conversation) {
	items := chat.FilterPinnedMessages(chat.PinnedMessages(catalog), hv.term)

	objects := make([]fyne.CanvasObject, 0, len(items))
	for _, item := range items {
		item := item
		title := widget.NewLabelWithStyle(item.ChatTitle, fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
		title.Truncation = fyne.TextTruncateEllipsis
		body := widget.NewLabel(formatSnippet(item.Message.DisplayText()))
		body.Wrapping = fyne.TextWrapWord

		open := widget.NewButton("Open", func() {
			hv.app.openPinnedMessage(item)
		})
		open.Importance = widget.LowImportance

		objects = append(objects, container.NewBorder(nil, nil, nil, open, container.NewVBox(title, body)), widget.NewSeparator())
	}
	if len(objects) == 0 {
		objects = append(objects, emptyLabel(hv.term, "Pin a message to keep it here."))
	}
	hv.pinnedList.Objects = objects
	hv.pinnedList.Refresh()
}

// formatSnippet flattens text to one line and truncates it
func formatSnippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return "[image]"
	}
	if utf8.RuneCountInString(text) <= snippetLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:snippetLength-3]) + "..."
}

// openPinnedMessage switches to the conversation holding item
func (a *App) openPinnedMessage(item chat.PinnedMessage) {
	if _, ok := a.ws.Chat.SelectPinnedMessage(item); !ok {
		a.showError("That conversation no longer exists.")
		return
	}
	a.ws.View.Navigate(view.Chat)
}
