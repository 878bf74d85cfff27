package tui

import (
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a line renderer backed by glamour, shaped to fit
// the root runner's ContentRenderer slot. Styling auto-detects the
// terminal background.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
	)
	if err != nil {
		// A terminal too odd to probe still gets plain output.
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}
