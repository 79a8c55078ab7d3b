package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the WizVis banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{` __        ___    __     ___     `, "#22d3ee"},
		{` \ \      / (_)___\ \   / (_)___ `, "#38bdf8"},
		{`  \ \ /\ / /| |_  /\ \ / /| / __|`, "#60a5fa"},
		{`   \ V  V / | |/ /  \ V / | \__ \`, "#818cf8"},
		{`    \_/\_/  |_/___|  \_/  |_|___/`, "#a78bfa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("    state machine inspector v"+version).Faint())
	fmt.Fprintln(w)
}
