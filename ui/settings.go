package ui

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"hustle-genie/db"
	"hustle-genie/llm"
	"hustle-genie/store"
	"hustle-genie/utils"
	"hustle-genie/workspace"
)

// maintainer is implemented by backends with local file statistics
type maintainer interface {
	GetStats() (*db.DBStats, error)
	Vacuum() error
}

var themeLabels = map[store.Theme]string{
	store.ThemeDefault: "Genie Purple",
	store.ThemeLight:   "Daylight",
	store.ThemeDark:    "Midnight",
	store.ThemeRed:     "Ruby",
	store.ThemeGreen:   "Emerald",
	store.ThemeBlue:    "Sapphire",
	store.ThemePurple:  "Amethyst",
}

var fontLabels = map[store.Font]string{
	store.FontNunito:        "Nunito",
	store.FontInter:         "Inter",
	store.FontLora:          "Lora",
	store.FontMono:          "Monospace",
	store.FontPoppins:       "Poppins",
	store.FontPlayfair:      "Playfair Display",
	store.FontSourceCodePro: "Source Code Pro",
}

// SettingsView represents the settings interface
type SettingsView struct {
	app            *App
	settingsWindow fyne.Window

	themeSelect      *widget.Select
	fontSelect       *widget.Select
	personalityEntry *widget.Entry
}

// NewSettingsView creates a new settings view
func NewSettingsView(app *App) *SettingsView {
	return &SettingsView{app: app}
}

// SetWindow sets the settings window reference
func (sv *SettingsView) SetWindow(window fyne.Window) {
	sv.settingsWindow = window
}

// Build builds the settings view UI
func (sv *SettingsView) Build() fyne.CanvasObject {
	return container.NewAppTabs(
		container.NewTabItem("Appearance", sv.buildAppearanceTab()),
		container.NewTabItem("Genie", sv.buildPersonalityTab()),
		container.NewTabItem("Data", container.NewVScroll(sv.buildDataSettings())),
	)
}

func (sv *SettingsView) buildAppearanceTab() fyne.CanvasObject {
	current := sv.app.ws.Settings()

	themeOptions := make([]string, 0, len(store.Themes))
	for _, t := range store.Themes {
		themeOptions = append(themeOptions, themeLabels[t])
	}
	sv.themeSelect = widget.NewSelect(themeOptions, func(label string) {
		for _, t := range store.Themes {
			if themeLabels[t] == label && t != sv.app.ws.Settings().Theme {
				t := t
				sv.save(workspace.SettingsPatch{Theme: &t})
				return
			}
		}
	})
	sv.themeSelect.SetSelected(themeLabels[current.Theme])

	fontOptions := make([]string, 0, len(store.Fonts))
	for _, f := range store.Fonts {
		fontOptions = append(fontOptions, fontLabels[f])
	}
	sv.fontSelect = widget.NewSelect(fontOptions, func(label string) {
		for _, f := range store.Fonts {
			if fontLabels[f] == label && f != sv.app.ws.Settings().Font {
				f := f
				sv.save(workspace.SettingsPatch{Font: &f})
				return
			}
		}
	})
	sv.fontSelect.SetSelected(fontLabels[current.Font])

	fontNote := widget.NewLabel("Only monospace fonts change the desktop rendering; the others apply to exports and the web client.")
	fontNote.Wrapping = fyne.TextWrapWord
	fontNote.TextStyle = fyne.TextStyle{Italic: true}

	form := widget.NewForm(
		widget.NewFormItem("Theme", sv.themeSelect),
		widget.NewFormItem("Font", container.NewVBox(sv.fontSelect, fontNote)),
	)
	return container.NewVBox(widget.NewLabel("Appearance"), widget.NewSeparator(), form)
}

func (sv *SettingsView) buildPersonalityTab() fyne.CanvasObject {
	sv.personalityEntry = widget.NewMultiLineEntry()
	sv.personalityEntry.Wrapping = fyne.TextWrapWord
	sv.personalityEntry.SetMinRowsVisible(8)
	sv.personalityEntry.SetPlaceHolder("Describe how you want the genie to behave...")
	sv.personalityEntry.SetText(sv.app.ws.Settings().Personality)

	saveButton := widget.NewButton("Save Personality", func() {
		personality := strings.TrimSpace(sv.personalityEntry.Text)
		if personality == "" {
			sv.showError("The genie needs a personality. Describe one or reset to the default.")
			return
		}
		if sv.save(workspace.SettingsPatch{Personality: &personality}) {
			sv.showSuccess("Personality saved. It applies from the next message.")
		}
	})
	saveButton.Importance = widget.HighImportance

	resetButton := widget.NewButton("Reset to Default", func() {
		sv.personalityEntry.SetText(llm.DefaultPersonality)
	})

	return container.NewBorder(
		container.NewVBox(widget.NewLabel("Genie Personality"), widget.NewSeparator()),
		container.NewHBox(resetButton, saveButton),
		nil, nil,
		sv.personalityEntry,
	)
}

// save applies patch and restyles the app
func (sv *SettingsView) save(patch workspace.SettingsPatch) bool {
	settings, err := sv.app.ws.UpdateSettings(patch)
	if err != nil {
		sv.app.logger.Warn("invalid settings", "error", err)
		sv.showError(err.Error())
		return false
	}
	sv.app.applyTheme(settings)
	return true
}

func (sv *SettingsView) buildDataSettings() *fyne.Container {
	statsLabel := widget.NewLabel("Loading statistics...")
	statsLabel.Wrapping = fyne.TextWrapWord
	sv.updateDBStats(statsLabel)

	backend := widget.NewEntry()
	backend.SetText(fmt.Sprintf("%s (%s)", sv.app.config.Data.Backend, sv.dataLocation()))
	backend.Disable()

	backendNote := widget.NewLabel("Changing the storage backend requires a restart.")
	backendNote.Wrapping = fyne.TextWrapWord
	backendNote.TextStyle = fyne.TextStyle{Italic: true}

	exportButton := widget.NewButton("Export All Conversations", func() {
		sv.app.exportAllConversations()
	})
	importButton := widget.NewButton("Import Conversations", func() {
		sv.app.showImportDialog()
	})

	clearButton := widget.NewButton("Clear Chat History", func() {
		sv.clearHistory()
	})
	clearButton.Importance = widget.DangerImportance

	vacuumButton := widget.NewButton("Optimize Database", func() {
		sv.vacuumDatabase(statsLabel)
	})
	refreshStatsButton := widget.NewButton("Refresh Statistics", func() {
		sv.updateDBStats(statsLabel)
	})
	if _, ok := sv.app.store.KV().(maintainer); !ok {
		vacuumButton.Disable()
	}

	form := widget.NewForm(
		widget.NewFormItem("Storage", container.NewVBox(backend, backendNote)),
	)

	return container.NewVBox(
		widget.NewLabel("Data Settings"),
		widget.NewSeparator(),
		form,
		widget.NewLabel("Conversations"),
		container.NewGridWithColumns(2, exportButton, importButton),
		clearButton,
		widget.NewSeparator(),
		widget.NewLabel("Database Statistics"),
		statsLabel,
		container.NewHBox(refreshStatsButton, vacuumButton),
	)
}

func (sv *SettingsView) dataLocation() string {
	if sv.app.config.Data.Backend == utils.BackendRedis {
		return sv.app.config.Data.Redis.Addr
	}
	return sv.app.config.Data.DBPath
}

// updateDBStats updates the database statistics label
func (sv *SettingsView) updateDBStats(label *widget.Label) {
	m, ok := sv.app.store.KV().(maintainer)
	if !ok {
		label.SetText("Statistics are only available for the local database.")
		return
	}
	stats, err := m.GetStats()
	if err != nil {
		sv.app.logger.Error("failed to get database stats", "error", err)
		label.SetText("Could not read statistics")
		return
	}

	label.SetText(fmt.Sprintf(
		"Records: %d\nStored data: %s\nDatabase size: %s\nConversations: %d",
		stats.KeyCount,
		utils.FormatFileSize(stats.ValueBytes),
		utils.FormatFileSize(stats.DBSizeBytes),
		len(sv.app.ws.Chat.Catalog()),
	))
}

func (sv *SettingsView) vacuumDatabase(statsLabel *widget.Label) {
	m, ok := sv.app.store.KV().(maintainer)
	if !ok {
		return
	}
	sv.app.logger.Info("starting database vacuum")
	if err := m.Vacuum(); err != nil {
		sv.app.logger.Error("failed to vacuum database", "error", err)
		sv.showError("Optimization failed: " + err.Error())
		return
	}
	sv.app.logger.Info("database vacuum completed")
	sv.showSuccess("Database optimized")
	sv.updateDBStats(statsLabel)
}

// clearHistory deletes every conversation after confirmation
func (sv *SettingsView) clearHistory() {
	var confirmDialog *widget.PopUp
	confirmDialog = widget.NewModalPopUp(
		container.NewVBox(
			widget.NewLabel("Delete all conversations?"),
			widget.NewLabel("This cannot be undone!"),
			container.NewHBox(
				widget.NewButton("Cancel", func() {
					confirmDialog.Hide()
				}),
				widget.NewButton("Delete All", func() {
					confirmDialog.Hide()
					sv.app.ws.Chat.ClearHistory()
					sv.app.logger.Info("cleared chat history", "email", sv.app.ws.Email())
					sv.showSuccess("Chat history cleared")
				}),
			),
		),
		sv.getCanvas(),
	)
	confirmDialog.Show()
}

func (sv *SettingsView) showError(message string) {
	sv.showPopup("❌ Error", message)
}

func (sv *SettingsView) showSuccess(message string) {
	sv.showPopup("✅ Success", message)
}

func (sv *SettingsView) showPopup(title, message string) {
	var popup *widget.PopUp
	popup = widget.NewModalPopUp(
		container.NewVBox(
			widget.NewLabel(title),
			widget.NewLabel(message),
			widget.NewButton("OK", func() {
				popup.Hide()
			}),
		),
		sv.getCanvas(),
	)
	popup.Show()
}

func (sv *SettingsView) getCanvas() fyne.Canvas {
	if sv.settingsWindow != nil {
		return sv.settingsWindow.Canvas()
	}
	return sv.app.window.Canvas()
}
