package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseWindow(t *testing.T) {
	for _, w := range Windows {
		got, err := ParseWindow(string(w))
		assert.NoError(t, err)
		assert.Equal(t, w, got)
	}

	_, err := ParseWindow("2h")
	assert.Error(t, err)
	_, err = ParseWindow("")
	assert.Error(t, err)
}

func TestWindow_Stride_SubHourUndecimated(t *testing.T) {
	// At a 60s cadence, sub-hour windows hold at most 60 points — far under
	// any sane budget, so the stride is 1 (no decimation).
	for _, w := range []Window{Window10m, Window30m, Window1h} {
		assert.Equal(t, 1, w.Stride(time.Minute, 700), "window %s", w)
	}
}

func TestWindow_Stride_MonotonicallyNonDecreasing(t *testing.T) {
	prev := 0
	for _, w := range Windows {
		s := w.Stride(time.Minute, 700)
		assert.GreaterOrEqual(t, s, prev, "stride shrank at window %s", w)
		prev = s
	}
}

func TestWindow_Stride_KeepsFullWindowWithinBudget(t *testing.T) {
	const budget = 700
	for _, w := range Windows {
		stride := w.Stride(time.Minute, budget)
		raw := int(w.Duration() / time.Minute)
		kept := raw / stride
		if raw%stride != 0 {
			kept++
		}
		assert.LessOrEqual(t, kept, budget, "window %s overflows budget", w)
	}
}

func TestWindow_Stride_DegenerateInputs(t *testing.T) {
	assert.Equal(t, 1, Window1y.Stride(0, 700))
	assert.Equal(t, 1, Window1y.Stride(time.Minute, 0))
}
