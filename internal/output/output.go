// Package output provides consistent CLI output for indexwrap commands.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Writer prints status lines and tables to a CLI stream.
type Writer struct {
	out    io.Writer
	styles Styles
}

// New creates a Writer. Colors are used only when out is a terminal and
// noColor is false.
func New(out io.Writer, noColor bool) *Writer {
	return &Writer{
		out:    out,
		styles: GetStyles(noColor || !IsTTY(out)),
	}
}

// Status prints a message prefixed by icon. Write errors are ignored.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
		return
	}
	_, _ = fmt.Fprintf(w.out, "  %s\n", msg)
}

// Success prints a success message.
func (w *Writer) Success(msg string) {
	w.Status(w.styles.Success.Render("✓"), msg)
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status(w.styles.Warning.Render("!"), msg)
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status(w.styles.Error.Render("✗"), msg)
}

// Line prints msg verbatim.
func (w *Writer) Line(msg string) {
	_, _ = fmt.Fprintln(w.out, msg)
}

// Table prints rows under a header, with columns padded to the widest cell.
func (w *Writer) Table(header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if cw := lipgloss.Width(row[i]); cw > widths[i] {
				widths[i] = cw
			}
		}
	}

	w.Line(w.styles.Header.Render(formatRow(header, widths)))
	for _, row := range rows {
		w.Line(formatRow(row, widths))
	}
}

func formatRow(cells []string, widths []int) string {
	parts := make([]string, len(widths))
	for i := range widths {
		var cell string
		if i < len(cells) {
			cell = cells[i]
		}
		parts[i] = cell + strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
	}
	return strings.TrimRight(strings.Join(parts, "  "), " ")
}
