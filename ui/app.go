package ui

import (
	"context"
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"hustle-genie/chat"
	"hustle-genie/store"
	"hustle-genie/utils"
	"hustle-genie/view"
	"hustle-genie/workspace"
)

// App represents the main application
type App struct {
	fyneApp    fyne.App
	window     fyne.Window
	config     *utils.Config
	configPath string
	deps       workspace.Deps
	store      *store.Store
	logger     *utils.Logger
	uploader   *utils.ImageUploader

	// Signed-in state
	user *store.User
	ws   *workspace.Workspace

	// UI components
	main         *fyne.Container
	homeView     *HomeView
	ideasView    *IdeasView
	chatView     *ChatView
	historyView  *HistoryView
	settingsView *SettingsView
	historySplit *container.Split
	historyShown bool
}

// NewApp creates a new application instance
func NewApp(config *utils.Config, configPath string, deps workspace.Deps) *App {
	fyneApp := app.NewWithID("hustle-genie")
	window := fyneApp.NewWindow("HustleGenie")

	window.Resize(fyne.NewSize(
		float32(config.UI.WindowWidth),
		float32(config.UI.WindowHeight),
	))

	application := &App{
		fyneApp:    fyneApp,
		window:     window,
		config:     config,
		configPath: configPath,
		deps:       deps,
		store:      deps.Store,
		logger:     deps.Logger.With("component", "ui"),
		uploader:   utils.NewImageUploader(),
	}

	window.SetOnClosed(func() {
		size := window.Canvas().Size()
		application.config.UI.WindowWidth = int(size.Width)
		application.config.UI.WindowHeight = int(size.Height)
		if err := utils.SaveConfig(application.configPath, application.config); err != nil {
			application.logger.Error("failed to save window size", "error", err)
		}
	})

	application.applyTheme(store.DefaultSettings())
	application.SetupSystemTray()
	return application
}

// Run restores the remembered user, or asks for a login, then blocks
// until the window closes
func (a *App) Run() {
	user, err := a.store.ActiveUser(context.Background())
	if err == nil {
		a.signIn(user)
	} else {
		a.showLogin()
	}
	a.window.ShowAndRun()
}

// signIn opens the workspace of user and shows the main UI
func (a *App) signIn(user *store.User) {
	ws, err := workspace.Open(context.Background(), a.deps, user.Email, workspace.Hooks{
		OnChat: func() {
			fyne.Do(a.refreshChat)
		},
		OnView: func(s view.State) {
			fyne.Do(func() { a.renderView(s) })
		},
	})
	if err != nil {
		a.logger.Error("failed to open workspace", "email", user.Email, "error", err)
		a.showError("Could not load your data: " + err.Error())
		a.showLogin()
		return
	}
	if err := a.store.SetActiveUser(context.Background(), user.Email); err != nil {
		a.logger.Warn("failed to remember user", "error", err)
	}

	a.user = user
	a.ws = ws
	a.applyTheme(ws.Settings())
	a.buildUI()
	a.logger.Info("signed in", "email", user.Email)
}

// signOut closes the workspace and returns to the login screen
func (a *App) signOut() {
	if err := a.store.ClearActiveUser(context.Background()); err != nil {
		a.logger.Warn("failed to forget user", "error", err)
	}
	if a.ws != nil {
		a.ws.Close()
		a.ws = nil
	}
	a.user = nil
	a.applyTheme(store.DefaultSettings())
	a.showLogin()
}

// buildUI builds the main UI
func (a *App) buildUI() {
	a.homeView = NewHomeView(a)
	a.ideasView = NewIdeasView(a)
	a.chatView = NewChatView(a)
	a.historyView = NewHistoryView(a)
	a.settingsView = NewSettingsView(a)

	homeButton := widget.NewButtonWithIcon("Home", theme.HomeIcon(), func() {
		a.ws.View.BackToHome()
	})
	chatButton := widget.NewButtonWithIcon("Chat", theme.MailComposeIcon(), func() {
		a.ws.View.Navigate(view.Chat)
	})
	historyButton := widget.NewButtonWithIcon("History", theme.HistoryIcon(), func() {
		a.toggleHistory()
	})
	settingsButton := widget.NewButtonWithIcon("Settings", theme.SettingsIcon(), func() {
		a.showSettings()
	})
	signOutButton := widget.NewButtonWithIcon("Sign out", theme.LogoutIcon(), func() {
		dialog.ShowConfirm("Sign out", "Sign out of HustleGenie?", func(ok bool) {
			if ok {
				a.signOut()
			}
		}, a.window)
	})
	signOutButton.Importance = widget.LowImportance

	greeting := widget.NewLabelWithStyle("🧞 "+a.user.Name, fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	nav := container.NewBorder(
		container.NewVBox(greeting, widget.NewSeparator(), homeButton, chatButton, historyButton),
		container.NewVBox(settingsButton, signOutButton),
		nil, nil,
	)

	a.main = container.NewStack()
	a.historySplit = container.NewHSplit(a.main, a.historyView.Build())
	a.historySplit.SetOffset(1)
	a.historyShown = false

	split := container.NewHSplit(nav, a.historySplit)
	split.SetOffset(0.18)
	a.window.SetContent(split)

	a.setupKeyboardShortcuts()
	a.renderView(a.ws.View.State())
}

// setupKeyboardShortcuts sets up global keyboard shortcuts
func (a *App) setupKeyboardShortcuts() {
	// Ctrl+N: New conversation
	a.window.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyne.KeyN,
		Modifier: fyne.KeyModifierControl,
	}, func(shortcut fyne.Shortcut) {
		a.newConversation()
	})

	// Ctrl+H: History panel
	a.window.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyne.KeyH,
		Modifier: fyne.KeyModifierControl,
	}, func(shortcut fyne.Shortcut) {
		a.toggleHistory()
	})

	// Ctrl+Comma: Settings
	a.window.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyne.KeyComma,
		Modifier: fyne.KeyModifierControl,
	}, func(shortcut fyne.Shortcut) {
		a.showSettings()
	})
}

// renderView swaps the main content for the view in s. Nothing changes
// while the previous view animates out.
func (a *App) renderView(s view.State) {
	if a.main == nil || a.ws == nil {
		return
	}
	if s.Phase == view.PhaseOut {
		return
	}

	var content fyne.CanvasObject
	switch s.View {
	case view.Home:
		content = a.homeView.Build()
	case view.Wishing:
		content = a.ideasView.BuildWishForm()
	case view.Loading:
		content = a.ideasView.BuildLoading(s)
	case view.Results:
		content = a.ideasView.BuildResults(s)
	case view.LaunchPlan:
		content = a.ideasView.BuildPlan(s)
	case view.Error:
		content = a.ideasView.BuildError(s)
	case view.Chat:
		content = a.chatView.Build()
		a.ws.Chat.Touch()
	default:
		content = a.homeView.Build()
	}
	a.main.Objects = []fyne.CanvasObject{content}
	a.main.Refresh()
}

// refreshChat redraws everything that shows conversation state
func (a *App) refreshChat() {
	if a.ws == nil {
		return
	}
	if a.chatView != nil {
		a.chatView.Refresh()
	}
	if a.historyView != nil {
		a.historyView.Refresh()
	}
}

func (a *App) newConversation() {
	if a.ws == nil {
		return
	}
	a.ws.Chat.NewConversation()
	a.ws.View.Navigate(view.Chat)
}

func (a *App) toggleHistory() {
	if a.historySplit == nil {
		return
	}
	a.historyShown = !a.historyShown
	if a.historyShown {
		a.historyView.Refresh()
		a.historySplit.SetOffset(0.65)
	} else {
		a.historySplit.SetOffset(1)
	}
}

// openConversation selects a stored conversation and switches to chat
func (a *App) openConversation(id string) {
	if !a.ws.Chat.SelectConversation(id) {
		return
	}
	a.ws.View.Navigate(view.Chat)
}

func (a *App) showSettings() {
	if a.ws == nil {
		return
	}
	settingsWindow := a.fyneApp.NewWindow("Settings")
	a.settingsView.SetWindow(settingsWindow)
	settingsWindow.SetContent(a.settingsView.Build())
	settingsWindow.Resize(fyne.NewSize(560, 640))
	settingsWindow.Show()
}

// applyTheme applies the theme and font of settings
func (a *App) applyTheme(settings store.Settings) {
	a.fyneApp.Settings().SetTheme(newCustomTheme(settings))
}

// exportConversation writes one conversation into the export directory
func (a *App) exportConversation(conv chat.Conversation, format chat.ExportFormat) {
	now := a.now()
	data, err := chat.ExportConversation(conv, format, now)
	if err != nil {
		a.showError("Export failed: " + err.Error())
		return
	}
	a.writeExport(chat.ExportFilename(conv.Title, format, now), data)
}

// exportAllConversations writes the whole catalog as one JSON file
func (a *App) exportAllConversations() {
	now := a.now()
	data, err := chat.ExportCatalog(a.ws.Chat.Catalog(), chat.FormatJSON, now)
	if err != nil {
		a.showError("Export failed: " + err.Error())
		return
	}
	a.writeExport(chat.ExportFilename("all_conversations", chat.FormatJSON, now), data)
}

func (a *App) writeExport(filename string, data []byte) {
	exportDir, err := utils.GetDefaultExportPath()
	if err != nil {
		a.showError("Failed to get export directory: " + err.Error())
		return
	}
	path, err := utils.WriteExportFile(exportDir, filename, data)
	if err != nil {
		a.showError("Export failed: " + err.Error())
		return
	}
	a.logger.Info("exported conversations", "path", path)
	a.showInfo("Export complete!\nSaved to: " + path)
}

// showImportDialog lets the user pick a JSON export to merge in
func (a *App) showImportDialog() {
	fileDialog := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			a.showError("Import failed: " + err.Error())
			return
		}
		if reader == nil {
			return
		}
		defer reader.Close()

		data, err := utils.ReadFileContent(reader.URI().Path())
		if err != nil {
			a.showError("Import failed: " + err.Error())
			return
		}
		convs, err := chat.ImportCatalog(data)
		if err != nil {
			a.showError("Import failed: " + err.Error())
			return
		}
		count := a.ws.Chat.Import(convs)
		a.showInfo(fmt.Sprintf("Import complete!\n%d conversations added", count))
	}, a.window)
	fileDialog.Show()
}

// showError shows an error dialog
func (a *App) showError(message string) {
	var popup *widget.PopUp
	popup = widget.NewModalPopUp(
		container.NewVBox(
			widget.NewLabel("❌ Error"),
			widget.NewLabel(message),
			widget.NewButton("OK", func() {
				popup.Hide()
			}),
		),
		a.window.Canvas(),
	)
	popup.Show()
}

// showInfo shows an info dialog
func (a *App) showInfo(message string) {
	var popup *widget.PopUp
	popup = widget.NewModalPopUp(
		container.NewVBox(
			widget.NewLabel("ℹ️ Info"),
			widget.NewLabel(message),
			widget.NewButton("OK", func() {
				popup.Hide()
			}),
		),
		a.window.Canvas(),
	)
	popup.Show()
}

func (a *App) now() time.Time {
	if a.deps.Clock != nil {
		return a.deps.Clock()
	}
	return time.Now()
}

// Cleanup performs cleanup before exit
func (a *App) Cleanup() {
	if a.ws != nil {
		a.ws.Close()
	}
}
