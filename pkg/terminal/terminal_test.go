package terminal_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/repohealth/pkg/terminal"
)

func TestDetectWidth_FromEnv(t *testing.T) {
	t.Setenv("COLUMNS", "100")
	assert.Equal(t, 100, terminal.DetectWidth())

	t.Setenv("COLUMNS", "invalid")
	assert.Equal(t, terminal.DefaultWidth, terminal.DetectWidth())

	t.Setenv("COLUMNS", "500")
	assert.Equal(t, terminal.MaxWidth, terminal.DetectWidth())

	t.Setenv("COLUMNS", "")
	assert.Equal(t, terminal.DefaultWidth, terminal.DetectWidth())
}

func TestColorize_NoColor_ReturnsText(t *testing.T) {
	t.Parallel()

	cfg := terminal.Config{NoColor: true}
	assert.Equal(t, "x", cfg.Colorize("x", terminal.ColorRed))
}

func TestColorize_WithColor_AddsEscapes(t *testing.T) {
	t.Parallel()

	cfg := terminal.Config{}
	out := cfg.Colorize("x", terminal.ColorRed)

	assert.Contains(t, out, "\x1b[")
	assert.Contains(t, out, "x")
	assert.Equal(t, "x", cfg.Colorize("x", terminal.ColorNone))
}

func TestColorForCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, terminal.ColorRed, terminal.ColorForCode(-1))
	assert.Equal(t, terminal.ColorYellow, terminal.ColorForCode(0))
	assert.Equal(t, terminal.ColorGreen, terminal.ColorForCode(12))
}

func TestDrawHeader_AlignsRightText(t *testing.T) {
	t.Parallel()

	lines := strings.Split(terminal.DrawHeader("HEAD~0 1/3", "ETA 0.00 min", 40), "\n")
	require.Len(t, lines, 3)

	for _, line := range lines {
		assert.Equal(t, 40, len([]rune(line)))
	}

	assert.True(t, strings.HasSuffix(lines[1], "ETA 0.00 min ┃"))
}

func TestDrawHeader_GrowsToFit(t *testing.T) {
	t.Parallel()

	lines := strings.Split(terminal.DrawHeader(strings.Repeat("t", 30), "right", 10), "\n")
	assert.Greater(t, len([]rune(lines[0])), 30)
}

func TestDrawProgressBar_Clamps(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "███░", terminal.DrawProgressBar(0.75, 4))
	assert.Equal(t, "░░░░", terminal.DrawProgressBar(-1, 4))
	assert.Equal(t, "████", terminal.DrawProgressBar(2, 4))
}

func TestFormatMinutes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1.50 min", terminal.FormatMinutes(90*time.Second))
	assert.Equal(t, "0.00 min", terminal.FormatMinutes(0))
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func TestProgress_AverageAndETA(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}

	var buf bytes.Buffer

	p := terminal.NewProgressWithClock(&buf, terminal.Config{Width: 50, NoColor: true}, 4, clock.now)

	p.Begin("HEAD~0")
	assert.Zero(t, p.Average())

	p.Commit("abc1234", "2024-01-01")
	p.Result("loc", "12 3", 12, true)
	clock.t = clock.t.Add(2 * time.Minute)
	p.End()

	assert.Equal(t, 2*time.Minute, p.Average())
	assert.Equal(t, 6*time.Minute, p.ETA())

	p.Begin("HEAD~1")
	clock.t = clock.t.Add(4 * time.Minute)
	p.End()

	assert.Equal(t, 3*time.Minute, p.Average())
	assert.Equal(t, 6*time.Minute, p.ETA())
	assert.Equal(t, 6*time.Minute, p.Finish())

	out := buf.String()
	assert.Contains(t, out, "HEAD~0 1/4")
	assert.Contains(t, out, "HEAD~1 2/4")
	assert.Contains(t, out, "avg 2.00 min  ETA 6.00 min")
	assert.Contains(t, out, "commit abc1234 2024-01-01")
	assert.Contains(t, out, "12 3 (cached)")
	assert.Contains(t, out, "Time passed: 6.00 min")
	assert.NotContains(t, out, "\x1b[")
}
