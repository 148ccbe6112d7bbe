package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// compactTheme wraps an existing theme and reduces padding so the picture gets the room.
type compactTheme struct {
	fyne.Theme
}

var _ fyne.Theme = (*compactTheme)(nil)

// Size overrides the padding and leaves every other size to the wrapped theme.
func (t *compactTheme) Size(name fyne.ThemeSizeName) float32 {
	if name == theme.SizeNamePadding {
		return 2.0
	}
	return t.Theme.Size(name)
}

// NewCompactTheme creates a theme wrapper with reduced padding on top of base.
func NewCompactTheme(base fyne.Theme) fyne.Theme {
	return &compactTheme{Theme: base}
}
