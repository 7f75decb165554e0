// Package output provides the status lines printed around reports, such as
// the watch-mode banner and re-run notices.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Aman-CERP/shipcheck/internal/ui"
)

// Writer provides formatted output for CLI.
type Writer struct {
	out    io.Writer
	styles ui.Styles
	now    func() time.Time
}

// New creates a new output Writer without colors.
func New(out io.Writer) *Writer {
	return NewStyled(out, ui.NoColorStyles())
}

// NewStyled creates a Writer that colors its icons with styles.
func NewStyled(out io.Writer, styles ui.Styles) *Writer {
	return &Writer{out: out, styles: styles, now: time.Now}
}

// Status prints a status message with an icon.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success message with checkmark.
func (w *Writer) Success(msg string) {
	w.Status(w.styles.Pass.Render("✅"), msg)
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status(w.styles.Warn.Render("⚠️ "), msg)
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status(w.styles.Fail.Render("❌"), msg)
}

// Separator prints a dimmed rule stamped with the current time, used to
// separate successive watch-mode runs.
func (w *Writer) Separator(reason string) {
	stamp := w.now().Format("15:04:05")
	line := fmt.Sprintf("── %s %s ", stamp, reason)
	if pad := 60 - len([]rune(line)); pad > 0 {
		line += strings.Repeat("─", pad)
	}
	_, _ = fmt.Fprintln(w.out, w.styles.Dim.Render(line))
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}
