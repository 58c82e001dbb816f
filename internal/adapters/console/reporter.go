// Package console writes human-readable progress messages for CI job logs.
package console

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Message colors. Renderers fall back to plain text when the destination
// is not a terminal, which is the usual case on CI runners.
var (
	colorGreen  = lipgloss.Color("#00FF00")
	colorYellow = lipgloss.Color("#FFFF00")
	colorRed    = lipgloss.Color("#FF0000")
)

// Reporter writes informational and success messages to stdout, and
// warnings and errors to stderr.
type Reporter struct {
	out    io.Writer
	errOut io.Writer

	info    lipgloss.Style
	success lipgloss.Style
	warn    lipgloss.Style
	fail    lipgloss.Style
}

// NewReporter creates a Reporter writing to the process stdout and stderr.
func NewReporter() *Reporter {
	return NewReporterWithOutput(os.Stdout, os.Stderr)
}

// NewReporterWithOutput creates a Reporter with custom destinations.
// Each destination gets its own renderer so color detection follows it.
func NewReporterWithOutput(out, errOut io.Writer) *Reporter {
	outRenderer := lipgloss.NewRenderer(out)
	errRenderer := lipgloss.NewRenderer(errOut)

	return &Reporter{
		out:     out,
		errOut:  errOut,
		info:    outRenderer.NewStyle(),
		success: outRenderer.NewStyle().Foreground(colorGreen).Bold(true),
		warn:    errRenderer.NewStyle().Foreground(colorYellow),
		fail:    errRenderer.NewStyle().Foreground(colorRed).Bold(true),
	}
}

// Info writes a neutral message to stdout.
func (r *Reporter) Info(msg string) {
	writeLine(r.out, r.info.Render(msg))
}

// Success writes a success message to stdout.
func (r *Reporter) Success(msg string) {
	writeLine(r.out, r.success.Render(msg))
}

// Warn writes a warning to stderr.
func (r *Reporter) Warn(msg string) {
	writeLine(r.errOut, r.warn.Render("WARNING: "+msg))
}

// Error writes an error to stderr.
func (r *Reporter) Error(msg string) {
	writeLine(r.errOut, r.fail.Render("ERROR: "+msg))
}

// writeLine is best-effort: there is no recovery action for failed console writes.
func writeLine(w io.Writer, s string) {
	_, _ = fmt.Fprintln(w, s)
}
