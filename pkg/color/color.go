// Package color styles diagnostics and listings for the terminal.
package color

import (
	"github.com/muesli/termenv"
)

// ANSI palette indices.
const (
	Red       = "1"
	Green     = "2"
	Yellow    = "3"
	Blue      = "4"
	Cyan      = "6"
	Gray      = "8"
	BrightRed = "9"
)

// profile is the detected output capability; Ascii disables styling.
var (
	detected = termenv.EnvColorProfile()
	profile  = detected
)

// EnableColor turns styling on (with the detected profile) or off.
func EnableColor(enable bool) {
	if enable {
		profile = detected
		return
	}
	profile = termenv.Ascii
}

// SetProfile forces a color profile regardless of the environment.
func SetProfile(p termenv.Profile) {
	profile = p
}

func IsColorEnabled() bool {
	return profile != termenv.Ascii
}

func Colorize(color, text string) string {
	if !IsColorEnabled() {
		return text
	}
	return termenv.String(text).Foreground(profile.Color(color)).String()
}

func RedText(text string) string {
	return Colorize(Red, text)
}

func BrightRedText(text string) string {
	return Colorize(BrightRed, text)
}

func GreenText(text string) string {
	return Colorize(Green, text)
}

func YellowText(text string) string {
	return Colorize(Yellow, text)
}

func BlueText(text string) string {
	return Colorize(Blue, text)
}

func CyanText(text string) string {
	return Colorize(Cyan, text)
}

func GrayText(text string) string {
	return Colorize(Gray, text)
}

func BoldText(text string) string {
	if !IsColorEnabled() {
		return text
	}
	return termenv.String(text).Bold().String()
}
