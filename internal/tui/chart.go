package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dm/fleetmon/internal/format"
	"github.com/dm/fleetmon/internal/model"
)

// renderChart renders the windowed history panel: the window selector tabs
// and a full-width sparkline of active workers over the selected window.
func renderChart(app *App) string {
	width := app.width
	if width <= 0 {
		width = 80
	}

	tabs := renderWindowTabs(app.window)

	pts := app.pipeline.WindowPoints(app.window)
	// Inner chart width: card padding eats 2 columns.
	chartWidth := width - 4
	if chartWidth < 10 {
		chartWidth = 10
	}

	var body string
	if len(pts) == 0 {
		body = StyleDim.Render("no history in this window yet")
	} else {
		values := model.PointValues(pts, "workersActive")
		spark := RenderSparkline(values, chartWidth, colorGreen)

		lo, hi := values[0], values[0]
		for _, v := range values {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		caption := StyleDim.Render(fmt.Sprintf("workers active  min %s  max %s  %d pts",
			format.FormatNumber(int64(lo)), format.FormatNumber(int64(hi)), len(pts)))
		body = spark + "\n" + caption
	}

	card := StyleChartCard.Width(width).Render(body)
	return lipgloss.JoinVertical(lipgloss.Left, tabs, card)
}

// renderWindowTabs renders the window selector: one tab per named window,
// with the active one highlighted.
func renderWindowTabs(active model.Window) string {
	var parts []string
	for _, w := range model.Windows {
		parts = append(parts, WindowTabStyle(w == active).Render(string(w)))
	}
	return strings.Join(parts, " ")
}
