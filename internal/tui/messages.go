package tui

import (
	"time"

	"github.com/dm/fleetmon/internal/engine"
	"github.com/dm/fleetmon/internal/model"
)

// LiveMsg delivers one successful live poll to the dashboard.
type LiveMsg struct {
	Live *engine.LiveState
	// Fallback is true when the data came from the static fallback source
	// rather than the server.
	Fallback bool
}

// HistoryMsg delivers one history fetch. Points may be empty when the
// dashboard is already caught up.
type HistoryMsg struct {
	Points []model.HistoryPoint
}

// FetchErrorMsg signals a failed poll.
type FetchErrorMsg struct {
	Err error
	// History marks which poll failed; live and history failures both count
	// against availability.
	History bool
	// Fallback marks a failed read of the static export document. Those do
	// not count against server availability.
	Fallback bool
}

// TickMsg drives the scheduler; the dashboard ticks at UI rate and the
// scheduler decides which polls are due.
type TickMsg time.Time

// FrameMsg advances counter animations between data updates.
type FrameMsg time.Time

// DeleteResultMsg reports the outcome of a node delete request.
type DeleteResultMsg struct {
	NodeID string
	Err    error
}
