package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"

	"hustle-genie/store"
)

// customTheme maps the user's theme and font choice onto the fyne theme
type customTheme struct {
	baseTheme fyne.Theme
	variant   fyne.ThemeVariant
	primary   color.Color
	monospace bool
}

var accentColors = map[store.Theme]color.Color{
	store.ThemeDefault: color.NRGBA{R: 0x8b, G: 0x5c, B: 0xf6, A: 0xff},
	store.ThemeLight:   color.NRGBA{R: 0x63, G: 0x66, B: 0xf1, A: 0xff},
	store.ThemeDark:    color.NRGBA{R: 0xa7, G: 0x8b, B: 0xfa, A: 0xff},
	store.ThemeRed:     color.NRGBA{R: 0xef, G: 0x44, B: 0x44, A: 0xff},
	store.ThemeGreen:   color.NRGBA{R: 0x22, G: 0xc5, B: 0x5e, A: 0xff},
	store.ThemeBlue:    color.NRGBA{R: 0x3b, G: 0x82, B: 0xf6, A: 0xff},
	store.ThemePurple:  color.NRGBA{R: 0xc0, G: 0x84, B: 0xfc, A: 0xff},
}

// newCustomTheme builds the theme for settings
func newCustomTheme(settings store.Settings) fyne.Theme {
	variant := theme.VariantDark
	if settings.Theme == store.ThemeLight {
		variant = theme.VariantLight
	}
	primary, ok := accentColors[settings.Theme]
	if !ok {
		primary = accentColors[store.ThemeDefault]
	}
	return &customTheme{
		baseTheme: theme.DefaultTheme(),
		variant:   variant,
		primary:   primary,
		monospace: settings.Font == store.FontMono || settings.Font == store.FontSourceCodePro,
	}
}

func (t *customTheme) Color(name fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary, theme.ColorNameFocus, theme.ColorNameHyperlink:
		return t.primary
	case theme.ColorNameDisabled:
		// Disabled text stays readable
		return t.baseTheme.Color(theme.ColorNameForeground, t.variant)
	}
	return t.baseTheme.Color(name, t.variant)
}

func (t *customTheme) Font(style fyne.TextStyle) fyne.Resource {
	if t.monospace {
		style.Monospace = true
	}
	return t.baseTheme.Font(style)
}

func (t *customTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return t.baseTheme.Icon(name)
}

func (t *customTheme) Size(name fyne.ThemeSizeName) float32 {
	return t.baseTheme.Size(name)
}
