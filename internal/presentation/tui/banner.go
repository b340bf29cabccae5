package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the PageFlow banner, colored for the terminal's profile.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"  ___              ___ _", "#818cf8"},
		{" | _ \\__ _ __ _ ___| __| |_____ __ __", "#a78bfa"},
		{" |  _/ _` / _` / -_) _|| / _ \\ V  V /", "#e879f9"},
		{" |_| \\__,_\\__, \\___|_| |_\\___/\\_/\\_/", "#f472b6"},
		{"          |___/", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
