package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dm/fleetmon/internal/format"
)

// renderHeader renders the top header bar with the source, connection state,
// and timing info.
//
// Layout:
//
//	left:   "fleetmon  <server URL>"
//	center: colored "● CONNECTED" indicator (or "● DEGRADED  <error>")
//	right:  "Last: HH:MM:SS  Poll: Ns" (or "Press r to retry" when degraded)
func renderHeader(app *App) string {
	width := app.width
	if width <= 0 {
		width = 80
	}

	left := "fleetmon  " + app.pipeline.Source().BaseURL()

	var center, right string
	if app.pipeline.Degraded() {
		errDisplay := "● DEGRADED"
		if app.lastError != nil {
			errMsg := app.lastError.Error()
			if len(errMsg) > 40 {
				errMsg = errMsg[:40] + "..."
			}
			errDisplay += "  " + errMsg
		}
		center = StyleError.Render(errDisplay)
		right = StyleError.Render("Press r to retry")
	} else if !app.haveLive {
		center = StyleDim.Render("● CONNECTING")
	} else {
		center = StyleGreen.Bold(true).Render("● CONNECTED")
		lastStr := "..."
		if !app.lastUpdated.IsZero() {
			lastStr = app.lastUpdated.Format("15:04:05")
		}
		right = StyleDim.Render(fmt.Sprintf("Last: %s  Poll: %s", lastStr, format.FormatDuration(app.pollInterval)))
	}

	// Build row: left + padding + center + padding + right, filling innerWidth.
	// StyleHeader has Padding(0, 1) so inner content width = total width - 2.
	innerWidth := width - 2
	leftVW := lipgloss.Width(left)
	centerVW := lipgloss.Width(center)
	rightVW := lipgloss.Width(right)

	spacing := innerWidth - leftVW - centerVW - rightVW
	if spacing < 0 {
		spacing = 0
	}
	leftSpacing := spacing / 2
	rightSpacing := spacing - leftSpacing

	row := left +
		strings.Repeat(" ", leftSpacing) +
		center +
		strings.Repeat(" ", rightSpacing) +
		right

	return StyleHeader.Width(width).Render(row)
}

// renderBanner renders the degraded-source banner, or "" while healthy. When
// a fallback document is active the banner says so, since the numbers on
// screen are no longer live.
func renderBanner(app *App) string {
	if !app.pipeline.Degraded() {
		return ""
	}
	width := app.width
	if width <= 0 {
		width = 80
	}
	text := "Server unreachable"
	if app.usingFallback {
		text += ": showing last exported snapshot"
	} else if app.fallback != nil {
		text += ": fallback document available"
	}
	return StyleBanner.Width(width).Render(text)
}
