package tui

import (
	"fmt"

	"github.com/dm/fleetmon/internal/format"
)

// renderFooter renders the key binding help footer at full terminal width.
// When app.showHelp is true, shows all key bindings; otherwise the mirror
// state and a brief hint.
func renderFooter(app *App) string {
	width := app.width
	if width <= 0 {
		width = 80
	}
	text := helpText
	if !app.showHelp {
		synced := "not synced"
		if !app.pipeline.Cursor().IsZero() {
			synced = "synced " + format.FormatAgo(app.pipeline.Cursor(), app.now())
		}
		text = fmt.Sprintf("%s points  %s  ? for help", format.FormatNumber(int64(app.pipeline.Len())), synced)
	}
	return StyleDim.Width(width).Render(text)
}
