// Package tui is the terminal dashboard: a Bubble Tea app over the engine's
// history pipeline, with animated counters, a windowed fleet chart, and a
// node table with admin actions.
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dm/fleetmon/internal/client"
	"github.com/dm/fleetmon/internal/engine"
	"github.com/dm/fleetmon/internal/model"
)

const (
	// tickInterval is the UI tick; the scheduler decides which polls fire.
	tickInterval = 250 * time.Millisecond
	// frameInterval approximates 60 fps for counter animation.
	frameInterval = 16 * time.Millisecond
	// interpFrames spreads a counter transition over ~500ms of frames.
	interpFrames = 30
	// saveInterval is how often the history cache is persisted.
	saveInterval = 30 * time.Second
)

// App is the root Bubble Tea model for the fleetmon dashboard.
type App struct {
	pipeline *engine.Pipeline
	admin    *client.DefaultClient // nil when the source is a static document
	fallback client.Source         // optional degraded-mode source
	sched    *engine.Scheduler
	now      func() time.Time

	pollInterval time.Duration

	// Poll state
	fetchingLive bool
	fetchingHist bool
	haveLive     bool
	lastError    error
	lastUpdated  time.Time

	usingFallback bool

	// Counter animation
	interpNodes      *engine.Interpolator
	interpWorkers    *engine.Interpolator
	interpSpawned    *engine.Interpolator
	interpTerminated *engine.Interpolator
	animating        bool

	// UI state
	window           model.Window
	nodeTable        NodeTableModel
	width, height    int
	showHelp         bool
	confirmingDelete bool
	pendingDelete    string
}

// NewApp creates the dashboard over a wired pipeline. admin may be nil to
// disable destructive actions (the d key does nothing); fallback may be nil
// when no export document is configured.
func NewApp(pipeline *engine.Pipeline, admin *client.DefaultClient, fallback client.Source, pollInterval time.Duration) *App {
	now := time.Now
	return &App{
		pipeline:     pipeline,
		admin:        admin,
		fallback:     fallback,
		now:          now,
		pollInterval: pollInterval,
		sched: engine.NewScheduler(now,
			&engine.Task{Name: "live", Interval: pollInterval},
			&engine.Task{Name: "history", Interval: pollInterval},
			&engine.Task{Name: "save", Interval: saveInterval},
		),
		interpNodes:      engine.NewInterpolator(interpFrames),
		interpWorkers:    engine.NewInterpolator(interpFrames),
		interpSpawned:    engine.NewInterpolator(interpFrames),
		interpTerminated: engine.NewInterpolator(interpFrames),
		window:           model.Window1h,
		nodeTable:        NewNodeTable(),
	}
}

// Init implements tea.Model. The first tick fires immediately, and the
// scheduler makes every poll due on it.
func (app *App) Init() tea.Cmd {
	return func() tea.Msg { return TickMsg(app.now()) }
}

// Update implements tea.Model. All pipeline mutation happens here; commands
// only carry out network fetches and report back as messages.
func (app *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		app.width = msg.Width
		app.height = msg.Height

	case TickMsg:
		var cmds []tea.Cmd
		for _, name := range app.sched.Tick() {
			switch name {
			case "live":
				if !app.fetchingLive {
					app.fetchingLive = true
					cmds = append(cmds, app.liveCmd())
				}
			case "history":
				if !app.fetchingHist {
					app.fetchingHist = true
					cmds = append(cmds, app.historyCmd())
				}
			case "save":
				if err := app.pipeline.SaveCache(); err != nil {
					app.lastError = err
				}
			}
		}
		cmds = append(cmds, tickCmd())
		return app, tea.Batch(cmds...)

	case LiveMsg:
		app.fetchingLive = false
		if !msg.Fallback {
			app.pipeline.RecordSuccess()
			app.usingFallback = false
			app.lastError = nil
		}
		app.haveLive = true
		app.lastUpdated = msg.Live.FetchedAt
		app.interpNodes.Set(float64(msg.Live.Counters.NodesOnline))
		app.interpWorkers.Set(float64(msg.Live.Counters.WorkersActive))
		app.interpSpawned.Set(float64(msg.Live.Counters.SpawnedTotal))
		app.interpTerminated.Set(float64(msg.Live.Counters.TerminatedTotal))
		app.nodeTable.SetData(msg.Live.Nodes)
		if !app.animating && !app.interpolatorsDone() {
			app.animating = true
			return app, frameCmd()
		}

	case HistoryMsg:
		app.fetchingHist = false
		app.pipeline.RecordSuccess()
		app.pipeline.ApplyHistory(msg.Points)

	case FetchErrorMsg:
		if msg.History {
			app.fetchingHist = false
		} else {
			app.fetchingLive = false
		}
		app.lastError = msg.Err
		if msg.Fallback {
			// The export document itself is unreadable; wait for the next
			// poll rather than hammering it in a message loop.
			return app, nil
		}
		app.pipeline.RecordFailure()
		// Once degraded, show the export document instead of stale zeros.
		// Re-read it on every failed poll so an external refresh shows up.
		if app.pipeline.Degraded() && app.fallback != nil {
			app.usingFallback = true
			return app, fallbackCmd(app.fallback)
		}

	case FrameMsg:
		app.interpNodes.Frame()
		app.interpWorkers.Frame()
		app.interpSpawned.Frame()
		app.interpTerminated.Frame()
		if app.interpolatorsDone() {
			app.animating = false
			return app, nil
		}
		return app, frameCmd()

	case DeleteResultMsg:
		if msg.Err != nil {
			app.lastError = msg.Err
		} else {
			// Refetch promptly so the row disappears.
			app.sched.Force("live")
			app.sched.Force("history")
		}

	case tea.KeyMsg:
		return app.handleKey(msg)
	}

	return app, nil
}

func (app *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if app.confirmingDelete {
		switch {
		case key.Matches(msg, keys.Confirm):
			app.confirmingDelete = false
			nodeID := app.pendingDelete
			app.pendingDelete = ""
			return app, deleteCmd(app.admin, nodeID)
		case key.Matches(msg, keys.Cancel):
			app.confirmingDelete = false
			app.pendingDelete = ""
		}
		return app, nil
	}

	// While the search input is live, everything except global quit belongs
	// to the table.
	if app.nodeTable.searching {
		if key.Matches(msg, keys.Quit) && msg.String() == "ctrl+c" {
			return app, tea.Quit
		}
		var cmd tea.Cmd
		app.nodeTable, cmd = app.nodeTable.Update(msg)
		return app, cmd
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return app, tea.Quit

	case key.Matches(msg, keys.Refresh):
		app.sched.Force("live")
		app.sched.Force("history")

	case key.Matches(msg, keys.Help):
		app.showHelp = !app.showHelp

	case key.Matches(msg, keys.Tab):
		app.window = nextWindow(app.window, 1)

	case key.Matches(msg, keys.ShiftTab):
		app.window = nextWindow(app.window, -1)

	case key.Matches(msg, keys.Delete):
		if app.admin == nil {
			return app, nil
		}
		if sel := app.nodeTable.Selected(); sel != nil {
			app.confirmingDelete = true
			app.pendingDelete = sel.NodeID
		}

	default:
		var cmd tea.Cmd
		app.nodeTable, cmd = app.nodeTable.Update(msg)
		return app, cmd
	}

	return app, nil
}

// View implements tea.Model. Renders the full dashboard.
func (app *App) View() string {
	if app.confirmingDelete {
		return renderDeleteConfirm(app) + "\n" + renderFooter(app)
	}

	var parts []string
	parts = append(parts, renderHeader(app))
	if b := renderBanner(app); b != "" {
		parts = append(parts, b)
	}
	if o := renderOverview(app); o != "" {
		parts = append(parts, o)
	}
	parts = append(parts, renderChart(app))
	parts = append(parts, app.nodeTable.renderTable(app))
	parts = append(parts, renderFooter(app))

	return strings.Join(parts, "\n")
}

func (app *App) interpolatorsDone() bool {
	return app.interpNodes.Done() && app.interpWorkers.Done() &&
		app.interpSpawned.Done() && app.interpTerminated.Done()
}

// liveCmd fetches current counters and nodes from the pipeline's source.
func (app *App) liveCmd() tea.Cmd {
	src := app.pipeline.Source()
	timeout := app.fetchTimeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		live, err := engine.FetchLive(ctx, src)
		if err != nil {
			return FetchErrorMsg{Err: err}
		}
		return LiveMsg{Live: live}
	}
}

// historyCmd fetches global history strictly after the sync cursor.
func (app *App) historyCmd() tea.Cmd {
	src := app.pipeline.Source()
	cursor := app.pipeline.Cursor()
	timeout := app.fetchTimeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		points, err := src.History(ctx, model.StreamGlobal, cursor)
		if err != nil {
			return FetchErrorMsg{Err: err, History: true}
		}
		return HistoryMsg{Points: points}
	}
}

// fallbackCmd reads the static export document.
func fallbackCmd(src client.Source) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		live, err := engine.FetchLive(ctx, src)
		if err != nil {
			return FetchErrorMsg{Err: err, Fallback: true}
		}
		return LiveMsg{Live: live, Fallback: true}
	}
}

// fetchTimeout leaves headroom so a hung fetch cannot pile onto the next
// poll.
func (app *App) fetchTimeout() time.Duration {
	timeout := app.pollInterval - 500*time.Millisecond
	if timeout < 500*time.Millisecond {
		timeout = 500 * time.Millisecond
	}
	return timeout
}

// tickCmd schedules the next UI tick.
func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// frameCmd schedules the next animation frame.
func frameCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return FrameMsg(t)
	})
}

// nextWindow cycles through the named windows in either direction.
func nextWindow(w model.Window, step int) model.Window {
	for i, cand := range model.Windows {
		if cand == w {
			n := len(model.Windows)
			return model.Windows[((i+step)%n+n)%n]
		}
	}
	return model.Windows[0]
}
