package terminal

import (
	"github.com/fatih/color"
)

// Color names the palette used by progress output.
type Color int

// Color constants.
const (
	ColorNone Color = iota
	ColorGreen
	ColorYellow
	ColorRed
	ColorBlue
	ColorGray
)

var attributes = map[Color]color.Attribute{
	ColorGreen:  color.FgGreen,
	ColorYellow: color.FgYellow,
	ColorRed:    color.FgRed,
	ColorBlue:   color.FgBlue,
	ColorGray:   color.FgHiBlack,
}

// Colorize applies color to text. If NoColor is true, returns text unchanged.
func (c Config) Colorize(text string, col Color) string {
	attr, ok := attributes[col]
	if !ok || c.NoColor {
		return text
	}

	painter := color.New(attr)
	painter.EnableColor()

	return painter.Sprint(text)
}

// ColorForCode picks a color for a leading KPI value: negative values are
// error codes, zero is neutral.
func ColorForCode(value float64) Color {
	switch {
	case value < 0:
		return ColorRed
	case value == 0:
		return ColorYellow
	default:
		return ColorGreen
	}
}
