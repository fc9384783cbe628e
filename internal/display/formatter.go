package display

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const keyWidth = 12

// SeparatorLine is printed under section titles.
var SeparatorLine = strings.Repeat("─", 60)

// Section formats a section header.
func Section(title string) string {
	if title == "" {
		return "\n" + SeparatorLine + "\n"
	}
	return fmt.Sprintf("\n%s\n%s\n", Bold(title), SeparatorLine)
}

// KeyValue formats an aligned key-value line.
func KeyValue(key, value string) string {
	return fmt.Sprintf("  %-*s %s\n", keyWidth, key+":", value)
}

// Truncate shortens s to maxLen runes, ending in "..." when cut.
func Truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return string([]rune(s)[:maxLen-3]) + "..."
}

// Table formats rows under a header. Cells are plain text; widths are
// measured in runes so colors must be applied by the caller per column.
func Table(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], utf8.RuneCountInString(cell))
			}
		}
	}

	pad := func(cells []string) string {
		out := make([]string, len(cells))
		for i, cell := range cells {
			if i < len(widths) && i < len(cells)-1 {
				cell += strings.Repeat(" ", widths[i]-utf8.RuneCountInString(cell))
			}
			out[i] = cell
		}
		return strings.Join(out, "  ")
	}

	var sb strings.Builder
	sb.WriteString(Bold(pad(headers)))
	sb.WriteString("\n")

	separators := make([]string, len(widths))
	for i, w := range widths {
		separators[i] = strings.Repeat("─", w)
	}
	sb.WriteString(Muted(strings.Join(separators, "  ")))
	sb.WriteString("\n")

	for _, row := range rows {
		sb.WriteString(pad(row))
		sb.WriteString("\n")
	}

	return sb.String()
}
