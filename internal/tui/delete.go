package tui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dm/fleetmon/internal/client"
)

// deleteCmd issues a node delete against the admin API in a goroutine and
// returns a DeleteResultMsg with the outcome.
func deleteCmd(c *client.DefaultClient, nodeID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := c.DeleteNode(ctx, nodeID)
		return DeleteResultMsg{NodeID: nodeID, Err: err}
	}
}

// renderDeleteConfirm renders the confirmation dialog for removing a node.
// Deleting drops the node's current state and its history stream; lifetime
// fleet counters are unaffected, and the dialog says so.
func renderDeleteConfirm(app *App) string {
	width := app.width
	if width <= 0 {
		width = 80
	}

	titleText := "Remove Node"
	hintText := StyleDim.Render("[y: confirm  n/esc: cancel]")
	innerWidth := width - 2 // StyleHeader has Padding(0,1)
	gap := innerWidth - lipgloss.Width(titleText) - lipgloss.Width(hintText)
	if gap < 1 {
		gap = 1
	}
	titleBar := StyleHeader.Width(width).MaxWidth(width).Render(
		titleText + strings.Repeat(" ", gap) + hintText)

	lines := []string{
		"",
		"  " + StyleRed.Bold(true).Render("This removes the node's snapshot and history."),
		"",
		"  Node: " + sanitize(app.pendingDelete),
		"",
		"  " + StyleDim.Render("Lifetime spawned/terminated totals are kept."),
		"",
		"  " + StyleYellow.Render("Press y to confirm, n or esc to cancel."),
	}

	return titleBar + "\n" + strings.Join(lines, "\n")
}
