package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{`   ___ ___  _ __ ___  / _|_   _ / _| ___  _ __ __ _  ___ `, "#818cf8"},
	{`  / __/ _ \| '_ ' _ \| |_| | | | |_ / _ \| '__/ _' |/ _ \`, "#a78bfa"},
	{` | (_| (_) | | | | | |  _| |_| |  _| (_) | | | (_| |  __/`, "#c084fc"},
	{`  \___\___/|_| |_| |_|_|  \__, |_|  \___/|_|  \__, |\___|`, "#e879f9"},
	{`                          |___/               |___/      `, "#f472b6"},
}

// PrintBanner writes the comfyforge banner, colored for the terminal behind w.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
