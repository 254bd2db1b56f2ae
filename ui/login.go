package ui

import (
	"context"
	"errors"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"hustle-genie/store"
)

// showLogin replaces the window content with the sign-in form
func (a *App) showLogin() {
	a.main = nil

	registering := false

	title := widget.NewLabelWithStyle("🧞 HustleGenie", fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	subtitle := widget.NewLabelWithStyle("Your wish for a side hustle is my command.", fyne.TextAlignCenter, fyne.TextStyle{Italic: true})

	nameEntry := widget.NewEntry()
	nameEntry.SetPlaceHolder("Name (optional)")
	nameEntry.Hide()

	emailEntry := widget.NewEntry()
	emailEntry.SetPlaceHolder("Email")

	passwordEntry := widget.NewPasswordEntry()
	passwordEntry.SetPlaceHolder("Password")

	errorLabel := widget.NewLabel("")
	errorLabel.Wrapping = fyne.TextWrapWord
	errorLabel.Importance = widget.DangerImportance
	errorLabel.Hide()

	submitButton := widget.NewButton("Sign in", nil)
	submitButton.Importance = widget.HighImportance
	toggleButton := widget.NewButton("New here? Create an account", nil)
	toggleButton.Importance = widget.LowImportance

	showErr := func(err error) {
		errorLabel.SetText(err.Error())
		errorLabel.Show()
	}

	submit := func() {
		errorLabel.Hide()
		ctx := context.Background()

		var user *store.User
		var err error
		if registering {
			user, err = a.store.Register(ctx, nameEntry.Text, emailEntry.Text, passwordEntry.Text)
		} else {
			if emailEntry.Text == "" || passwordEntry.Text == "" {
				showErr(store.ErrPasswordRequired)
				return
			}
			user, err = a.store.Authenticate(ctx, emailEntry.Text, passwordEntry.Text)
		}
		if err != nil {
			if !errors.Is(err, store.ErrInvalidCredentials) {
				a.logger.Warn("sign in failed", "registering", registering, "error", err)
			}
			showErr(err)
			return
		}
		a.signIn(user)
	}
	submitButton.OnTapped = submit
	passwordEntry.OnSubmitted = func(string) { submit() }

	toggleButton.OnTapped = func() {
		registering = !registering
		errorLabel.Hide()
		if registering {
			nameEntry.Show()
			submitButton.SetText("Create account")
			toggleButton.SetText("Already have an account? Sign in")
		} else {
			nameEntry.Hide()
			submitButton.SetText("Sign in")
			toggleButton.SetText("New here? Create an account")
		}
	}

	form := container.NewVBox(
		title,
		subtitle,
		widget.NewSeparator(),
		nameEntry,
		emailEntry,
		passwordEntry,
		errorLabel,
		submitButton,
		toggleButton,
	)
	a.window.SetContent(container.NewCenter(container.NewGridWrap(fyne.NewSize(360, 420), form)))
	a.window.Canvas().Focus(emailEntry)
}
