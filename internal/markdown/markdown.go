package markdown

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Reader widths in columns, keyed by the reader_width setting.
var readerWidths = map[string]int{
	"narrow": 60,
	"medium": 80,
	"wide":   110,
}

// Width maps a reader_width setting value to a wrap width. Unknown values
// fall back to medium.
func Width(setting string) int {
	if w, ok := readerWidths[strings.ToLower(strings.TrimSpace(setting))]; ok {
		return w
	}

	return readerWidths["medium"]
}

// Render formats markdown for the terminal. The style follows the terminal
// background and is plain when output is not a terminal.
func Render(text string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("create renderer: %w", err)
	}

	out, err := r.Render(text)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}

	return out, nil
}
