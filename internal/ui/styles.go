package ui

import "fmt"

// ANSI256 color codes matching the Ayu palette.
const (
	colorAccent = 74  // blue
	colorCmd    = 250 // light gray
	colorMuted  = 245 // medium gray
	colorGood   = 114 // green
	colorWarn   = 179 // yellow
	colorBad    = 167 // red
)

var noColor bool

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string {
	return render(colorAccent, s)
}

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string {
	return render(colorMuted, s)
}

// RenderCommand returns s styled as a command name (light gray).
func RenderCommand(s string) string {
	return render(colorCmd, s)
}

// RenderGood returns s in green, for completed tasks and strong scores.
func RenderGood(s string) string {
	return render(colorGood, s)
}

// RenderWarn returns s in yellow, for middling scores.
func RenderWarn(s string) string {
	return render(colorWarn, s)
}

// RenderBad returns s in red, for weak scores.
func RenderBad(s string) string {
	return render(colorBad, s)
}

// RenderScore colors a score string by where it falls against the good and
// okay cutoffs.
func RenderScore(s string, score, good, okay int) string {
	switch {
	case score >= good:
		return RenderGood(s)
	case score >= okay:
		return RenderWarn(s)
	default:
		return RenderBad(s)
	}
}

func render(color int, s string) string {
	if noColor {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", color, s)
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
