package ui

import (
	"context"
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"hustle-genie/llm"
	"hustle-genie/utils"
	"hustle-genie/view"
)

const wishSteps = 4

// IdeasView renders the wish form and everything the idea flow produces
type IdeasView struct {
	app  *App
	form llm.WishForm
	step int
}

// NewIdeasView creates the idea flow views
func NewIdeasView(app *App) *IdeasView {
	return &IdeasView{app: app}
}

// BuildWishForm builds the four-step wish wizard with a fresh form
func (iv *IdeasView) BuildWishForm() fyne.CanvasObject {
	iv.form = llm.NewWishForm()
	iv.step = 1

	body := container.NewStack()
	stepLabel := widget.NewLabel("")
	backButton := widget.NewButton("Cancel", nil)
	nextButton := widget.NewButton("Next Wish", nil)
	nextButton.Importance = widget.HighImportance

	validate := func() {
		if iv.stepValid() {
			nextButton.Enable()
		} else {
			nextButton.Disable()
		}
	}

	render := func() {
		body.Objects = []fyne.CanvasObject{iv.wishStep(validate)}
		body.Refresh()
		stepLabel.SetText(fmt.Sprintf("Step %d of %d", iv.step, wishSteps))
		if iv.step == 1 {
			backButton.SetText("Cancel")
		} else {
			backButton.SetText("Back")
		}
		if iv.step == wishSteps {
			nextButton.SetText("Conjure Ideas ✨")
		} else {
			nextButton.SetText("Next Wish")
		}
		validate()
	}

	backButton.OnTapped = func() {
		if iv.step == 1 {
			iv.app.ws.View.BackToHome()
			return
		}
		iv.step--
		render()
	}
	nextButton.OnTapped = func() {
		if !iv.stepValid() {
			return
		}
		if iv.step < wishSteps {
			iv.step++
			render()
			return
		}
		iv.submit()
	}

	render()

	footer := container.NewHBox(backButton, layout.NewSpacer(), stepLabel, layout.NewSpacer(), nextButton)
	card := widget.NewCard("Make a Wish", "Tell the genie about yourself.", container.NewBorder(nil, footer, nil, nil, body))
	return container.NewCenter(container.NewGridWrap(fyne.NewSize(560, 360), card))
}

func (iv *IdeasView) stepValid() bool {
	switch iv.step {
	case 1:
		return strings.TrimSpace(iv.form.Skills) != ""
	case wishSteps:
		return strings.TrimSpace(iv.form.Goal) != ""
	}
	return true
}

// wishStep builds the question of the current step
func (iv *IdeasView) wishStep(onChange func()) fyne.CanvasObject {
	heading := func(text string) *widget.Label {
		return widget.NewLabelWithStyle(text, fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	}

	switch iv.step {
	case 1:
		entry := widget.NewMultiLineEntry()
		entry.Wrapping = fyne.TextWrapWord
		entry.SetPlaceHolder("e.g., writing, graphic design, talking to people, organizing events...")
		entry.SetText(iv.form.Skills)
		entry.OnChanged = func(s string) {
			iv.form.Skills = s
			onChange()
		}
		return container.NewVBox(heading("Wish 1: What are your skills?"), entry)
	case 2:
		choice := widget.NewRadioGroup(llm.TimeOptions, func(s string) {
			iv.form.Time = s
			onChange()
		})
		choice.Horizontal = true
		choice.Required = true
		choice.SetSelected(iv.form.Time)
		return container.NewVBox(heading("Wish 2: How much time can you give weekly?"), choice)
	case 3:
		options := []string{string(llm.LocationOnline), string(llm.LocationLocal), string(llm.LocationHybrid)}
		choice := widget.NewRadioGroup(options, func(s string) {
			iv.form.Location = llm.Location(s)
			onChange()
		})
		choice.Horizontal = true
		choice.Required = true
		choice.SetSelected(string(iv.form.Location))
		return container.NewVBox(heading("Wish 3: Do you prefer online or offline?"), choice)
	default:
		entry := widget.NewMultiLineEntry()
		entry.Wrapping = fyne.TextWrapWord
		entry.SetPlaceHolder("e.g., Earn an extra $500/month, save for a vacation, explore a passion...")
		entry.SetText(iv.form.Goal)
		entry.OnChanged = func(s string) {
			iv.form.Goal = s
			onChange()
		}
		return container.NewVBox(heading("Wish 4: What's your main goal?"), entry)
	}
}

func (iv *IdeasView) submit() {
	form := iv.form
	if err := form.Validate(); err != nil {
		iv.app.showError(err.Error())
		return
	}
	ws := iv.app.ws
	utils.SafeGo(iv.app.logger, "submitWish", func() {
		if err := ws.View.SubmitWish(context.Background(), form); err != nil {
			iv.app.logger.Warn("wish failed", "error", err)
		}
	})
}

// BuildLoading builds the spinner shown while the genie works
func (iv *IdeasView) BuildLoading(s view.State) fyne.CanvasObject {
	title := "The genie is conjuring your wishes..."
	if s.InspirationMode {
		title = "The genie is searching the cosmos..."
	}
	return container.NewCenter(container.NewVBox(
		widget.NewLabelWithStyle("🧞", fyne.TextAlignCenter, fyne.TextStyle{}),
		widget.NewLabelWithStyle(title, fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle("Turning your dreams into plans!", fyne.TextAlignCenter, fyne.TextStyle{Italic: true}),
		widget.NewProgressBarInfinite(),
	))
}

// BuildResults builds the idea cards
func (iv *IdeasView) BuildResults(s view.State) fyne.CanvasObject {
	title, subtitle := "Your Wish is My Command!", "Here are a few hustle ideas conjured just for you."
	if s.InspirationMode {
		title, subtitle = "A Spark of Inspiration!", "The genie found this idea floating in the cosmos for you."
	}

	columns := len(s.Ideas)
	if columns == 0 {
		columns = 1
	}
	cards := container.NewGridWithColumns(columns)
	for _, idea := range s.Ideas {
		cards.Add(iv.ideaCard(idea))
	}

	var actions fyne.CanvasObject
	if s.InspirationMode {
		another := widget.NewButton("Get Another Spark", iv.app.getInspired)
		another.Importance = widget.HighImportance
		custom := widget.NewButton("Make a Custom Wish", iv.app.ws.View.StartWish)
		actions = container.NewHBox(layout.NewSpacer(), another, custom, layout.NewSpacer())
	} else {
		again := widget.NewButton("Make Another Wish", iv.app.ws.View.StartWish)
		again.Importance = widget.HighImportance
		actions = container.NewHBox(layout.NewSpacer(), again, layout.NewSpacer())
	}

	return container.NewVScroll(container.NewVBox(
		widget.NewLabelWithStyle(title, fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle(subtitle, fyne.TextAlignCenter, fyne.TextStyle{}),
		cards,
		actions,
	))
}

func (iv *IdeasView) ideaCard(idea llm.HustleIdea) fyne.CanvasObject {
	description := widget.NewLabelWithStyle("✨ "+idea.Description, fyne.TextAlignLeading, fyne.TextStyle{Italic: true})
	description.Wrapping = fyne.TextWrapWord

	details := widget.NewLabel(fmt.Sprintf("🕒 Time: %s\n💸 Est. Earnings: %s", idea.TimeCommitment, idea.EstimatedEarnings))
	details.Wrapping = fyne.TextWrapWord

	steps := widget.NewLabel(strings.Join(idea.HustleSteps, "\n"))
	steps.Wrapping = fyne.TextWrapWord

	plan := widget.NewButtonWithIcon("Generate Launch Plan", theme.DocumentIcon(), func() {
		iv.generatePlan(idea)
	})

	content := container.NewBorder(nil, plan, nil, nil, container.NewVBox(
		description,
		details,
		widget.NewLabelWithStyle("🪄 Hustle Steps:", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		steps,
	))
	return widget.NewCard(idea.Title, "", content)
}

func (iv *IdeasView) generatePlan(idea llm.HustleIdea) {
	ws := iv.app.ws
	utils.SafeGo(iv.app.logger, "generatePlan", func() {
		if err := ws.View.GeneratePlan(context.Background(), idea); err != nil {
			iv.app.logger.Warn("launch plan failed", "idea", idea.Title, "error", err)
		}
	})
}

// BuildPlan builds the 7-day launch plan of the selected idea
func (iv *IdeasView) BuildPlan(s view.State) fyne.CanvasObject {
	if s.Plan == nil || s.SelectedIdea == nil {
		return iv.BuildError(view.State{Error: view.MissingPlanMessage})
	}

	days := container.NewVBox()
	for _, day := range s.Plan.Plan {
		tasks := container.NewVBox()
		for _, task := range day.Tasks {
			label := widget.NewLabel(task)
			label.Wrapping = fyne.TextWrapWord
			tasks.Add(container.NewBorder(nil, nil, widget.NewIcon(theme.ConfirmIcon()), nil, label))
		}
		days.Add(widget.NewCard(fmt.Sprintf("Day %d: %s", day.Day, day.Title), "", tasks))
	}

	description := widget.NewLabelWithStyle(fmt.Sprintf("%q", s.SelectedIdea.Description), fyne.TextAlignCenter, fyne.TextStyle{Italic: true})
	description.Wrapping = fyne.TextWrapWord

	back := widget.NewButtonWithIcon("Back to Ideas", theme.NavigateBackIcon(), func() {
		iv.app.ws.View.BackToResults()
	})
	back.Importance = widget.HighImportance

	return container.NewVScroll(container.NewVBox(
		widget.NewLabelWithStyle("Your 7-Day Launch Scroll", fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		widget.NewLabelWithStyle(s.SelectedIdea.Title, fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		description,
		days,
		container.NewHBox(layout.NewSpacer(), back, layout.NewSpacer()),
	))
}

// BuildError shows the friendly failure message with a retry
func (iv *IdeasView) BuildError(s view.State) fyne.CanvasObject {
	message := widget.NewLabelWithStyle(s.Error, fyne.TextAlignCenter, fyne.TextStyle{})
	message.Wrapping = fyne.TextWrapWord

	retry := widget.NewButton("Try Again", iv.app.ws.View.StartWish)
	retry.Importance = widget.HighImportance
	home := widget.NewButton("Back to Home", func() {
		iv.app.ws.View.BackToHome()
	})

	card := widget.NewCard("Oh no!", "", container.NewVBox(
		message,
		container.NewHBox(layout.NewSpacer(), retry, home, layout.NewSpacer()),
	))
	return container.NewCenter(container.NewGridWrap(fyne.NewSize(480, 220), card))
}
