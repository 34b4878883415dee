package engine

// Interpolator eases a displayed value toward its target over a fixed number
// of frames, so counter changes glide instead of jumping. It is plain state
// stepped by the UI's frame messages.
type Interpolator struct {
	frames    int
	current   float64
	target    float64
	step      float64
	remaining int
	started   bool
}

// NewInterpolator animates transitions over the given number of frames.
// Values below 1 snap immediately.
func NewInterpolator(frames int) *Interpolator {
	if frames < 1 {
		frames = 1
	}
	return &Interpolator{frames: frames}
}

// Set points the interpolator at a new target. The very first value snaps so
// the dashboard does not animate up from zero on startup; an unchanged
// target is a no-op.
func (ip *Interpolator) Set(target float64) {
	if !ip.started {
		ip.started = true
		ip.current = target
		ip.target = target
		return
	}
	if target == ip.target {
		return
	}
	ip.target = target
	ip.step = (target - ip.current) / float64(ip.frames)
	ip.remaining = ip.frames
}

// Frame advances one animation frame and returns the value to display.
func (ip *Interpolator) Frame() float64 {
	if ip.remaining == 0 {
		ip.current = ip.target
		return ip.current
	}
	ip.remaining--
	if ip.remaining == 0 {
		ip.current = ip.target
	} else {
		ip.current += ip.step
	}
	return ip.current
}

// Value returns the currently displayed value without advancing.
func (ip *Interpolator) Value() float64 {
	return ip.current
}

// Done reports whether the animation has settled on the target.
func (ip *Interpolator) Done() bool {
	return ip.remaining == 0
}
