package terminal

import (
	"strings"
	"unicode/utf8"
)

// PadRight pads s with spaces on the right to reach width.
// If s is already longer than width, returns s unchanged.
func PadRight(s string, width int) string {
	n := runeLen(s)
	if n >= width {
		return s
	}

	return s + strings.Repeat(" ", width-n)
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
