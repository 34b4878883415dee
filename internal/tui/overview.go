package tui

import (
	"fmt"
	"math"

	"github.com/charmbracelet/lipgloss"

	"github.com/dm/fleetmon/internal/format"
	"github.com/dm/fleetmon/internal/model"
)

// renderOverview renders the 4-counter overview bar: nodes online, workers
// active, workers spawned, workers terminated. Each card shows the animated
// value plus a sparkline of the current window's history.
// Wide terminals (>= 80 cols): all 4 cards in a single horizontal row.
// Narrow terminals (< 80 cols): 2 rows of 2.
// Returns empty string before the first successful poll.
func renderOverview(app *App) string {
	if !app.haveLive {
		return ""
	}

	width := app.width
	if width <= 0 {
		width = 80
	}

	narrowMode := width < 80

	var cardWidth int
	if narrowMode {
		cardWidth = (width - 4) / 2
		if cardWidth < 12 {
			cardWidth = 12
		}
	} else {
		cardWidth = (width - 8) / 4
		if cardWidth < 12 {
			cardWidth = 12
		}
	}

	// Sparkline inner width: card width minus padding.
	sparkWidth := cardWidth - 4
	if sparkWidth < 4 {
		sparkWidth = 4
	}

	pts := app.pipeline.WindowPoints(app.window)

	card1 := counterCard("Nodes Online", app.interpNodes.Value(),
		model.PointValues(pts, "nodesOnline"), colorBlue, cardWidth, sparkWidth)
	card2 := counterCard("Workers Active", app.interpWorkers.Value(),
		model.PointValues(pts, "workersActive"), colorGreen, cardWidth, sparkWidth)
	card3 := counterCard("Spawned", app.interpSpawned.Value(),
		model.PointValues(pts, "spawnedTotal"), colorCyan, cardWidth, sparkWidth)
	card4 := counterCard("Terminated", app.interpTerminated.Value(),
		model.PointValues(pts, "terminatedTotal"), colorOrange, cardWidth, sparkWidth)

	if narrowMode {
		row1 := lipgloss.JoinHorizontal(lipgloss.Top, card1, card2)
		row2 := lipgloss.JoinHorizontal(lipgloss.Top, card3, card4)
		return lipgloss.JoinVertical(lipgloss.Left, row1, row2)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, card1, card2, card3, card4)
}

// counterCard renders one overview card: big number, sparkline, label.
func counterCard(label string, value float64, history []float64, color lipgloss.Color, cardWidth, sparkWidth int) string {
	display := format.FormatNumber(int64(math.Round(value)))
	spark := RenderSparkline(history, sparkWidth, color)
	return StyleCounterCard.
		Foreground(color).
		Width(cardWidth).
		Render(fmt.Sprintf("%s\n%s\n%s", display, spark, label))
}
