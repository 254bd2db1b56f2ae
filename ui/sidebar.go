package ui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"hustle-genie/chat"
)

// ConversationItem represents a clickable conversation item with context menu
type ConversationItem struct {
	widget.BaseWidget
	app          *App
	conversation chat.Conversation
	label        *widget.Label
	onTapped     func()
}

// NewConversationItem creates a new conversation item
func NewConversationItem(app *App, conv chat.Conversation, active bool, onTapped func()) *ConversationItem {
	item := &ConversationItem{
		app:          app,
		conversation: conv,
		onTapped:     onTapped,
	}
	text := conv.Title
	if conv.Date != "" {
		text = fmt.Sprintf("%s  ·  %s", conv.Title, conv.Date)
	}
	item.label = widget.NewLabel(text)
	item.label.Truncation = fyne.TextTruncateEllipsis
	if active {
		item.label.TextStyle = fyne.TextStyle{Bold: true}
	}
	item.ExtendBaseWidget(item)
	return item
}

// CreateRenderer creates the renderer for the conversation item
func (ci *ConversationItem) CreateRenderer() fyne.WidgetRenderer {
	var leading fyne.CanvasObject
	if ci.conversation.IsPinned {
		leading = widget.NewIcon(theme.RadioButtonCheckedIcon())
	}
	return widget.NewSimpleRenderer(container.NewBorder(nil, nil, leading, nil, ci.label))
}

// Tapped handles left-click
func (ci *ConversationItem) Tapped(_ *fyne.PointEvent) {
	if ci.onTapped != nil {
		ci.onTapped()
	}
}

// TappedSecondary handles right-click
func (ci *ConversationItem) TappedSecondary(pe *fyne.PointEvent) {
	ci.showContextMenu(pe.AbsolutePosition)
}

// showContextMenu shows the context menu for this conversation
func (ci *ConversationItem) showContextMenu(pos fyne.Position) {
	id := ci.conversation.ID

	renameItem := fyne.NewMenuItem("Rename", func() {
		ci.app.renameConversation(id)
	})

	pinLabel := "Pin"
	if ci.conversation.IsPinned {
		pinLabel = "Unpin"
	}
	pinItem := fyne.NewMenuItem(pinLabel, func() {
		ci.app.ws.Chat.ToggleConversationPin(id)
	})

	conv := ci.conversation
	exportJSONItem := fyne.NewMenuItem("Export as JSON", func() {
		ci.app.exportConversation(conv, chat.FormatJSON)
	})
	exportMarkdownItem := fyne.NewMenuItem("Export as Markdown", func() {
		ci.app.exportConversation(conv, chat.FormatMarkdown)
	})

	deleteItem := fyne.NewMenuItem("Delete", func() {
		ci.app.deleteConversation(id, conv.Title)
	})

	menu := fyne.NewMenu("", renameItem, pinItem, exportJSONItem, exportMarkdownItem, deleteItem)
	popupMenu := widget.NewPopUpMenu(menu, ci.app.window.Canvas())
	popupMenu.ShowAtPosition(pos)
}

// HistoryView is the side panel with past chats, generated images and
// pinned messages
type HistoryView struct {
	app         *App
	searchEntry *widget.Entry
	chatsList   *fyne.Container
	imagesGrid  *fyne.Container
	pinnedList  *fyne.Container
	term        string
}

// NewHistoryView creates the history panel
func NewHistoryView(app *App) *HistoryView {
	return &HistoryView{app: app}
}

// Build builds the history panel UI
func (hv *HistoryView) Build() fyne.CanvasObject {
	hv.searchEntry = widget.NewEntry()
	hv.searchEntry.SetPlaceHolder("Search history...")
	hv.searchEntry.ActionItem = widget.NewIcon(theme.SearchIcon())
	hv.searchEntry.OnChanged = func(term string) {
		hv.term = term
		hv.Refresh()
	}

	hv.chatsList = container.NewVBox()
	hv.imagesGrid = container.NewGridWrap(fyne.NewSize(96, 96))
	hv.pinnedList = container.NewVBox()

	tabs := container.NewAppTabs(
		container.NewTabItemWithIcon("Chats", theme.MailComposeIcon(), container.NewVScroll(hv.chatsList)),
		container.NewTabItemWithIcon("Images", theme.FileImageIcon(), container.NewVScroll(hv.imagesGrid)),
		container.NewTabItemWithIcon("Pinned", theme.RadioButtonCheckedIcon(), container.NewVScroll(hv.pinnedList)),
	)

	hv.Refresh()
	return container.NewBorder(hv.searchEntry, nil, nil, nil, tabs)
}

// Refresh rebuilds all three tabs from the current catalog
func (hv *HistoryView) Refresh() {
	if hv.chatsList == nil {
		return
	}
	catalog := hv.app.ws.Chat.Catalog()
	activeID := hv.app.ws.Chat.ActiveID()

	hv.refreshChats(catalog, activeID)
	hv.refreshImages(catalog)
	hv.refreshPinned(catalog)
}

func (hv *HistoryView) refreshChats(catalog []chat.Conversation, activeID string) {
	var objects []fyne.CanvasObject

	pinned := chat.FilterConversations(chat.PinnedConversations(catalog), hv.term)
	if len(pinned) > 0 {
		objects = append(objects, widget.NewLabelWithStyle("Pinned", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}))
		for _, conv := range pinned {
			objects = append(objects, hv.conversationItem(conv, activeID))
		}
		objects = append(objects, widget.NewSeparator())
	}

	recent := chat.FilterConversations(catalog, hv.term)
	objects = append(objects, widget.NewLabelWithStyle("Recent", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}))
	if len(recent) == 0 {
		objects = append(objects, emptyLabel(hv.term, "No conversations yet."))
	}
	for _, conv := range recent {
		objects = append(objects, hv.conversationItem(conv, activeID))
	}

	hv.chatsList.Objects = objects
	hv.chatsList.Refresh()
}

func (hv *HistoryView) conversationItem(conv chat.Conversation, activeID string) fyne.CanvasObject {
	id := conv.ID
	return NewConversationItem(hv.app, conv, conv.ID == activeID, func() {
		hv.app.openConversation(id)
	})
}

func emptyLabel(term, fallback string) fyne.CanvasObject {
	text := fallback
	if term != "" {
		text = fmt.Sprintf("Nothing matches %q.", term)
	}
	return widget.NewLabelWithStyle(text, fyne.TextAlignLeading, fyne.TextStyle{Italic: true})
}

// renameConversation asks for a new title of a stored conversation
func (a *App) renameConversation(id string) {
	if !a.ws.Chat.BeginRename(id) {
		return
	}
	current := ""
	for _, conv := range a.ws.Chat.Catalog() {
		if conv.ID == id {
			current = conv.Title
			break
		}
	}

	entry := widget.NewEntry()
	entry.SetText(current)
	items := []*widget.FormItem{widget.NewFormItem("Title", entry)}
	form := dialog.NewForm("Rename conversation", "Save", "Cancel", items, func(ok bool) {
		if !ok {
			a.ws.Chat.CancelRename()
			return
		}
		if !a.ws.Chat.CommitRename(entry.Text) {
			a.ws.Chat.CancelRename()
		}
	}, a.window)
	form.Resize(fyne.NewSize(400, 160))
	form.Show()
	a.window.Canvas().Focus(entry)
}

// deleteConversation removes a conversation after confirmation
func (a *App) deleteConversation(id, title string) {
	dialog.ShowConfirm("Delete conversation", fmt.Sprintf("Delete %q? This cannot be undone.", title), func(ok bool) {
		if !ok {
			return
		}
		a.ws.Chat.DeleteConversation(id)
	}, a.window)
}
