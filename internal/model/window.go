package model

import (
	"fmt"
	"time"
)

// Window is a named dashboard time window.
type Window string

const (
	Window10m Window = "10m"
	Window30m Window = "30m"
	Window1h  Window = "1h"
	Window1d  Window = "1d"
	Window1w  Window = "1w"
	Window1mo Window = "1mo"
	Window1y  Window = "1y"
)

// Windows lists all windows from shortest to longest.
var Windows = []Window{
	Window10m, Window30m, Window1h, Window1d, Window1w, Window1mo, Window1y,
}

var windowDurations = map[Window]time.Duration{
	Window10m: 10 * time.Minute,
	Window30m: 30 * time.Minute,
	Window1h:  time.Hour,
	Window1d:  24 * time.Hour,
	Window1w:  7 * 24 * time.Hour,
	Window1mo: 30 * 24 * time.Hour,
	Window1y:  365 * 24 * time.Hour,
}

// Duration returns the window length. Unknown windows return 0.
func (w Window) Duration() time.Duration {
	return windowDurations[w]
}

// Valid reports whether w is one of the named windows.
func (w Window) Valid() bool {
	_, ok := windowDurations[w]
	return ok
}

// ParseWindow validates a window name from user input.
func ParseWindow(s string) (Window, error) {
	w := Window(s)
	if !w.Valid() {
		return "", fmt.Errorf("unknown window %q", s)
	}
	return w, nil
}

// Stride returns the decimation stride for a window: how many raw points
// collapse into one kept point so that a fully-populated window stays within
// budget. It depends only on the window length and the sampling cadence, not
// on the data currently present, so repeated calls over stable history are
// reproducible. Strides never decrease as windows lengthen.
func (w Window) Stride(cadence time.Duration, budget int) int {
	if cadence <= 0 || budget <= 0 {
		return 1
	}
	raw := int64(w.Duration() / cadence)
	if raw <= int64(budget) {
		return 1
	}
	stride := raw / int64(budget)
	if raw%int64(budget) != 0 {
		stride++
	}
	return int(stride)
}
