package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"hustle-genie/utils"
)

// imageFromDataURI renders a data URI image, or a placeholder icon when the
// source cannot be decoded
func imageFromDataURI(name, uri string, size fyne.Size) fyne.CanvasObject {
	_, data, err := utils.DecodeDataURI(uri)
	if err != nil {
		icon := widget.NewIcon(theme.BrokenImageIcon())
		return container.NewGridWrap(size, icon)
	}
	img := canvas.NewImageFromResource(fyne.NewStaticResource(name, data))
	img.FillMode = canvas.ImageFillContain
	img.SetMinSize(size)
	return img
}

// ImagePicker is the optional image slot of the add-goal form
type ImagePicker struct {
	widget.BaseWidget
	app      *App
	dataURI  string
	preview  *fyne.Container
	onChange func(string)
}

// NewImagePicker creates an empty picker
func NewImagePicker(app *App, onChange func(string)) *ImagePicker {
	p := &ImagePicker{
		app:      app,
		preview:  container.NewStack(),
		onChange: onChange,
	}
	p.ExtendBaseWidget(p)
	p.showPlaceholder()
	return p
}

// CreateRenderer creates the renderer for the picker
func (p *ImagePicker) CreateRenderer() fyne.WidgetRenderer {
	choose := widget.NewButtonWithIcon("Image (Optional)", theme.FileImageIcon(), p.pick)
	choose.Importance = widget.LowImportance
	content := container.NewBorder(nil, choose, nil, nil, container.NewGridWrap(fyne.NewSize(112, 112), p.preview))
	return widget.NewSimpleRenderer(content)
}

// DataURI returns the picked image, or "" when none was chosen
func (p *ImagePicker) DataURI() string {
	return p.dataURI
}

// Reset clears the picked image
func (p *ImagePicker) Reset() {
	p.dataURI = ""
	p.showPlaceholder()
}

func (p *ImagePicker) showPlaceholder() {
	label := widget.NewLabelWithStyle("Click to upload", fyne.TextAlignCenter, fyne.TextStyle{Italic: true})
	p.preview.Objects = []fyne.CanvasObject{container.NewCenter(label)}
	p.preview.Refresh()
}

func (p *ImagePicker) pick() {
	fileDialog := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			p.app.showError("Failed to open image: " + err.Error())
			return
		}
		if reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()

		uri, err := p.app.uploader.ReadImageAsDataURI(path)
		if err != nil {
			p.app.logger.Warn("image rejected", "path", path, "error", err)
			p.app.showError(err.Error())
			return
		}
		p.dataURI = uri
		p.preview.Objects = []fyne.CanvasObject{imageFromDataURI("goal-preview", uri, fyne.NewSize(112, 112))}
		p.preview.Refresh()
		if p.onChange != nil {
			p.onChange(uri)
		}
	}, p.app.window)
	fileDialog.SetFilter(storage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg", ".gif"}))
	fileDialog.Show()
}
