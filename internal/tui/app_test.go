package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dm/fleetmon/internal/client"
	"github.com/dm/fleetmon/internal/engine"
	"github.com/dm/fleetmon/internal/model"
)

// testSource never returns data; app tests drive state through messages.
type testSource struct{}

func (testSource) Current(context.Context) (model.AggregateCounters, error) {
	return model.AggregateCounters{}, nil
}

func (testSource) Nodes(context.Context) ([]model.NodeStatus, error) {
	return nil, nil
}

func (testSource) History(context.Context, string, time.Time) ([]model.HistoryPoint, error) {
	return nil, nil
}

func (testSource) BaseURL() string { return "http://test" }

func newTestApp() *App {
	p := engine.NewPipeline(testSource{}, nil, engine.PipelineConfig{
		Cadence:       time.Minute,
		Budget:        700,
		CacheTTL:      time.Second,
		FailThreshold: 2,
	}, nil, nil)
	return NewApp(p, nil, nil, 5*time.Second)
}

func liveMsg(nodesOnline, workers int) LiveMsg {
	return LiveMsg{Live: &engine.LiveState{
		Counters: model.AggregateCounters{
			NodesOnline:   nodesOnline,
			WorkersActive: workers,
		},
		Nodes:     testRows(),
		FetchedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}}
}

func TestApp_FirstLiveSnapshotSnaps(t *testing.T) {
	app := newTestApp()
	m, _ := app.Update(liveMsg(2, 7))
	app = m.(*App)

	assert.True(t, app.haveLive)
	assert.Equal(t, 7.0, app.interpWorkers.Value())
	assert.False(t, app.animating)
}

func TestApp_CounterChangeStartsAnimation(t *testing.T) {
	app := newTestApp()
	m, _ := app.Update(liveMsg(2, 7))
	app = m.(*App)

	m, cmd := app.Update(liveMsg(2, 10))
	app = m.(*App)
	assert.True(t, app.animating)
	require.NotNil(t, cmd)

	// Frames march the value toward the target.
	for i := 0; i < interpFrames; i++ {
		m, _ = app.Update(FrameMsg(time.Now()))
		app = m.(*App)
	}
	assert.Equal(t, 10.0, app.interpWorkers.Value())
	assert.False(t, app.animating)
}

func TestApp_DegradedBannerAfterTwoFailures(t *testing.T) {
	app := newTestApp()
	app.width = 100
	m, _ := app.Update(liveMsg(1, 3))
	app = m.(*App)

	assert.Empty(t, renderBanner(app))

	boom := FetchErrorMsg{Err: errors.New("connection refused")}
	m, _ = app.Update(boom)
	app = m.(*App)
	assert.Empty(t, renderBanner(app), "one failure is a blip, not an outage")

	m, _ = app.Update(boom)
	app = m.(*App)
	banner := stripAnsi(renderBanner(app))
	assert.Contains(t, banner, "Server unreachable")

	// A single success clears the banner.
	m, _ = app.Update(liveMsg(1, 3))
	app = m.(*App)
	assert.Empty(t, renderBanner(app))
}

func TestApp_WindowCycling(t *testing.T) {
	app := newTestApp()
	assert.Equal(t, model.Window1h, app.window)

	m, _ := app.Update(tea.KeyMsg{Type: tea.KeyTab})
	app = m.(*App)
	assert.Equal(t, model.Window1d, app.window)

	m, _ = app.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	app = m.(*App)
	assert.Equal(t, model.Window1h, app.window)
}

func TestApp_DeleteRequiresAdmin(t *testing.T) {
	app := newTestApp() // admin is nil
	m, _ := app.Update(liveMsg(1, 3))
	app = m.(*App)

	m, _ = app.Update(keyMsg("d"))
	app = m.(*App)
	assert.False(t, app.confirmingDelete)
}

func TestApp_DeleteConfirmFlow(t *testing.T) {
	app := newTestApp()
	admin, err := client.NewDefaultClient(client.Config{BaseURL: "http://localhost:1"})
	require.NoError(t, err)
	app.admin = admin

	m, _ := app.Update(liveMsg(1, 3))
	app = m.(*App)

	m, _ = app.Update(keyMsg("d"))
	app = m.(*App)
	require.True(t, app.confirmingDelete)
	assert.Equal(t, "worker-c", app.pendingDelete)

	view := stripAnsi(app.View())
	assert.Contains(t, view, "Remove Node")
	assert.Contains(t, view, "worker-c")

	// n cancels without issuing anything.
	m, cmd := app.Update(keyMsg("n"))
	app = m.(*App)
	assert.False(t, app.confirmingDelete)
	assert.Nil(t, cmd)
}

func TestApp_ViewRendersAllSections(t *testing.T) {
	app := newTestApp()
	app.width = 120
	app.height = 40
	m, _ := app.Update(liveMsg(2, 7))
	app = m.(*App)

	view := stripAnsi(app.View())
	assert.Contains(t, view, "fleetmon")
	assert.Contains(t, view, "Workers Active")
	assert.Contains(t, view, "Fleet Nodes")
	assert.True(t, strings.Contains(view, "1h"))
}

func TestApp_QuitKey(t *testing.T) {
	app := newTestApp()
	_, cmd := app.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestNextWindow_WrapsBothWays(t *testing.T) {
	assert.Equal(t, model.Windows[0], nextWindow(model.Windows[len(model.Windows)-1], 1))
	assert.Equal(t, model.Windows[len(model.Windows)-1], nextWindow(model.Windows[0], -1))
	assert.Equal(t, model.Windows[0], nextWindow(model.Window("bogus"), 1))
}
