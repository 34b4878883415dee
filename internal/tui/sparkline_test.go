package tui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderSparkline_Empty(t *testing.T) {
	got := RenderSparkline(nil, 10, colorGreen)
	assert.Equal(t, strings.Repeat(" ", 10), got)
}

func TestRenderSparkline_ZeroWidth(t *testing.T) {
	assert.Equal(t, "", RenderSparkline([]float64{1, 2}, 0, colorGreen))
}

func TestRenderSparkline_FlatSeriesIsFloor(t *testing.T) {
	got := stripAnsi(RenderSparkline([]float64{5, 5, 5}, 3, colorGreen))
	assert.Equal(t, "▁▁▁", got)
}

func TestRenderSparkline_ScalesBetweenMinAndMax(t *testing.T) {
	// A counter hovering near a large baseline should still show movement.
	got := stripAnsi(RenderSparkline([]float64{1000, 1004, 1007}, 3, colorGreen))
	assert.Equal(t, '▁', []rune(got)[0])
	assert.Equal(t, '█', []rune(got)[2])
}

func TestRenderSparkline_TakesLastWidthValues(t *testing.T) {
	values := []float64{9, 9, 9, 0, 1}
	got := []rune(stripAnsi(RenderSparkline(values, 2, colorGreen)))
	assert.Len(t, got, 2)
	assert.Equal(t, '▁', got[0])
	assert.Equal(t, '█', got[1])
}

func TestRenderSparkline_LeftPadsShortSeries(t *testing.T) {
	got := stripAnsi(RenderSparkline([]float64{1}, 4, colorGreen))
	assert.Equal(t, "   ▁", got)
}

// stripAnsi removes terminal escape sequences so tests can compare glyphs.
func stripAnsi(s string) string {
	var sb strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		case r == '\x1b':
			inEscape = true
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
