package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the pvm banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct{ text, color string }{
		{"  _ ____ __   ___ __ ___  ", "#818cf8"},
		{" | '_ \\ \\ / /| '_ ` _ \\ ", "#a78bfa"},
		{" | |_) \\ V / | | | | | |", "#c084fc"},
		{" | .__/ \\_/  |_| |_| |_|", "#e879f9"},
		{" |_|                     ", "#f472b6"},
	}
	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}

// Success colors s green when the terminal supports it.
func Success(s string) string {
	p := termenv.ColorProfile()
	return termenv.String(s).Foreground(p.Color("#22c55e")).String()
}

// Failure colors s red when the terminal supports it.
func Failure(s string) string {
	p := termenv.ColorProfile()
	return termenv.String(s).Foreground(p.Color("#ef4444")).Bold().String()
}

// Warning colors s yellow when the terminal supports it.
func Warning(s string) string {
	p := termenv.ColorProfile()
	return termenv.String(s).Foreground(p.Color("#eab308")).String()
}
