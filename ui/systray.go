package ui

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"fyne.io/fyne/v2"
	"fyne.io/systray"

	"hustle-genie/store"
)

const trayIconSize = 32

// SetupSystemTray sets up the system tray icon and menu
func (a *App) SetupSystemTray() {
	go systray.Run(a.onTrayReady, a.onTrayExit)
	a.logger.Info("system tray initialized")
}

// onTrayReady builds the tray menu. Clicks arrive on the tray goroutine and
// are handed to the UI with fyne.Do.
func (a *App) onTrayReady() {
	if icon, err := trayIcon(); err == nil {
		systray.SetIcon(icon)
	} else {
		a.logger.Warn("failed to render tray icon", "error", err)
	}
	systray.SetTitle("HustleGenie")
	systray.SetTooltip("HustleGenie: your side hustle genie")

	mShow := systray.AddMenuItem("Show HustleGenie", "Show main window")
	mWish := systray.AddMenuItem("Make a Wish", "Start the wish form")
	mChat := systray.AddMenuItem("New Chat", "Start a new conversation")
	mSettings := systray.AddMenuItem("Settings", "Open settings")
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit the application")

	go func() {
		for {
			select {
			case <-mShow.ClickedCh:
				fyne.Do(a.window.Show)
			case <-mWish.ClickedCh:
				fyne.Do(func() {
					a.window.Show()
					if a.ws != nil {
						a.ws.View.StartWish()
					}
				})
			case <-mChat.ClickedCh:
				fyne.Do(func() {
					a.window.Show()
					a.newConversation()
				})
			case <-mSettings.ClickedCh:
				fyne.Do(func() {
					a.window.Show()
					a.showSettings()
				})
			case <-mQuit.ClickedCh:
				a.logger.Info("quit from system tray")
				fyne.Do(a.fyneApp.Quit)
				systray.Quit()
				return
			}
		}
	}()
}

func (a *App) onTrayExit() {
	a.logger.Info("system tray exited")
}

// trayIcon draws a filled accent circle as PNG
func trayIcon() ([]byte, error) {
	img := image.NewNRGBA(image.Rect(0, 0, trayIconSize, trayIconSize))
	accent := accentColors[store.ThemeDefault].(color.NRGBA)

	center := float64(trayIconSize-1) / 2
	radius := float64(trayIconSize) / 2
	for y := 0; y < trayIconSize; y++ {
		for x := 0; x < trayIconSize; x++ {
			dx, dy := float64(x)-center, float64(y)-center
			if dx*dx+dy*dy <= radius*radius {
				img.SetNRGBA(x, y, accent)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
