package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"hustle-genie/goals"
	"hustle-genie/utils"
)

// HomeView shows the goal tracker and the two ways into idea generation
type HomeView struct {
	app       *App
	goalsList *fyne.Container
	addForm   *fyne.Container
}

// NewHomeView creates the home view
func NewHomeView(app *App) *HomeView {
	return &HomeView{app: app}
}

// Build builds the home view UI
func (hv *HomeView) Build() fyne.CanvasObject {
	title := widget.NewLabelWithStyle("Welcome back, "+hv.app.user.Name+"!", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	subtitle := widget.NewLabel("What hustle shall we conjure today?")

	wishButton := widget.NewButtonWithIcon("Make a Wish", theme.ContentAddIcon(), func() {
		hv.app.ws.View.StartWish()
	})
	wishButton.Importance = widget.HighImportance

	inspireButton := widget.NewButtonWithIcon("Get Inspired", theme.SearchIcon(), func() {
		hv.app.getInspired()
	})

	hv.goalsList = container.NewVBox()
	hv.addForm = container.NewVBox()
	hv.refreshGoals()

	addGoalButton := widget.NewButtonWithIcon("Add Goal", theme.ContentAddIcon(), func() {
		hv.showAddForm()
	})
	addGoalButton.Importance = widget.LowImportance

	goalsHeader := container.NewBorder(nil, nil,
		widget.NewLabelWithStyle("My Hustle Goals", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		addGoalButton,
	)

	return container.NewVScroll(container.NewVBox(
		title,
		subtitle,
		container.NewGridWithColumns(2, wishButton, inspireButton),
		widget.NewSeparator(),
		goalsHeader,
		hv.goalsList,
		hv.addForm,
	))
}

// refreshGoals rebuilds the goal cards from the tracker
func (hv *HomeView) refreshGoals() {
	list := hv.app.ws.Goals.List()
	cards := make([]fyne.CanvasObject, 0, len(list))
	for _, g := range list {
		cards = append(cards, hv.goalCard(g))
	}
	if len(cards) == 0 {
		cards = append(cards, widget.NewLabel("No goals yet. Add one to start tracking your earnings."))
	}
	hv.goalsList.Objects = cards
	hv.goalsList.Refresh()
}

func (hv *HomeView) goalCard(g goals.Goal) fyne.CanvasObject {
	amount := widget.NewLabel(goalAmount(g))

	slider := widget.NewSlider(0, g.Goal)
	slider.Step = 1
	slider.SetValue(g.Current)
	slider.OnChanged = func(v float64) {
		g.Current = v
		amount.SetText(goalAmount(g))
	}
	slider.OnChangeEnded = func(v float64) {
		if _, err := hv.app.ws.Goals.UpdateProgress(g.Title, v); err != nil {
			hv.app.logger.Warn("failed to update goal", "goal", g.Title, "error", err)
		}
	}

	deleteButton := widget.NewButtonWithIcon("", theme.DeleteIcon(), func() {
		dialog.ShowConfirm("Delete goal", fmt.Sprintf("Delete %q?", g.Title), func(ok bool) {
			if !ok {
				return
			}
			if err := hv.app.ws.Goals.Delete(g.Title); err != nil {
				hv.app.showError(err.Error())
				return
			}
			hv.refreshGoals()
		}, hv.app.window)
	})
	deleteButton.Importance = widget.LowImportance

	header := container.NewBorder(nil, nil,
		widget.NewLabelWithStyle(g.Title, fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewHBox(amount, deleteButton),
	)
	body := container.NewVBox(header, slider)

	if g.ImageURL != "" {
		thumb := imageFromDataURI(g.Title, g.ImageURL, fyne.NewSize(64, 64))
		return widget.NewCard("", "", container.NewBorder(nil, nil, thumb, nil, body))
	}
	return widget.NewCard("", "", body)
}

func goalAmount(g goals.Goal) string {
	return fmt.Sprintf("$%s / $%s", formatAmount(g.Current), formatAmount(g.Goal))
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// showAddForm opens the inline add-goal form
func (hv *HomeView) showAddForm() {
	titleEntry := widget.NewEntry()
	titleEntry.SetPlaceHolder("e.g., Launch a new Etsy shop")
	amountEntry := widget.NewEntry()
	amountEntry.SetPlaceHolder("500")
	picker := NewImagePicker(hv.app, nil)

	closeForm := func() {
		hv.addForm.Objects = nil
		hv.addForm.Refresh()
	}

	save := widget.NewButton("Save Goal", func() {
		target, err := strconv.ParseFloat(strings.TrimSpace(amountEntry.Text), 64)
		if err != nil {
			hv.app.showError("Please enter a goal amount greater than zero.")
			return
		}
		if _, err := hv.app.ws.Goals.Add(titleEntry.Text, target, picker.DataURI()); err != nil {
			hv.app.showError(err.Error())
			return
		}
		closeForm()
		hv.refreshGoals()
	})
	save.Importance = widget.HighImportance
	cancel := widget.NewButton("Cancel", closeForm)

	fields := container.NewVBox(
		widget.NewLabel("Hustle Title"),
		titleEntry,
		widget.NewLabel("Goal Amount ($)"),
		amountEntry,
	)
	form := container.NewVBox(
		container.NewBorder(nil, nil, nil, picker, fields),
		container.NewHBox(layout.NewSpacer(), cancel, save),
	)
	hv.addForm.Objects = []fyne.CanvasObject{widget.NewCard("New Goal", "", form)}
	hv.addForm.Refresh()
	hv.app.window.Canvas().Focus(titleEntry)
}

// getInspired runs the inspiration flow off the UI goroutine
func (a *App) getInspired() {
	ws := a.ws
	utils.SafeGo(a.logger, "getInspired", func() {
		if err := ws.View.GetInspired(context.Background()); err != nil {
			a.logger.Warn("inspiration failed", "error", err)
		}
	})
}
