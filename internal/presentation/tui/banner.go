// Package tui holds the terminal presentation pieces of the CLI: the
// startup banner, the glamour line renderer and the Markdown form of
// validation reports.
package tui

import (
	"fmt"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the espalier wordmark to stdout, with the build
// version underneath when one is known.
func PrintBanner(version string) {
	p := termenv.ColorProfile()
	// Leaf to fruit gradient, lime fading into emerald.
	s1 := termenv.String("                              _   _").Foreground(p.Color("#a3e635"))
	s2 := termenv.String("  ___   ___   _ __     __ _  | | (_)   ___   _ __").Foreground(p.Color("#84cc16"))
	s3 := termenv.String(" / _ \\ / __| | '_ \\   / _` | | | | |  / _ \\ | '__|").Foreground(p.Color("#4ade80"))
	s4 := termenv.String("|  __/ \\__ \\ | |_) | | (_| | | | | | |  __/ | |").Foreground(p.Color("#22c55e"))
	s5 := termenv.String(" \\___| |___/ | .__/   \\__,_| |_| |_|  \\___| |_|").Foreground(p.Color("#10b981"))
	s6 := termenv.String("             |_|").Foreground(p.Color("#059669"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println(s5)
	fmt.Println(s6)
	if v := strings.TrimSpace(version); v != "" {
		fmt.Println(termenv.String("             " + v).Faint())
	}
	fmt.Println()
}
