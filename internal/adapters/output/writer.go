// Package output provides adapters for writing application output.
package output

import (
	"fmt"
	"io"
	"os"
)

// commitPrefix is the marker downstream tooling greps for.
const commitPrefix = "Commit: "

// Writer emits the resolved commit line for later CI steps to pick up.
type Writer struct {
	out io.Writer
}

// NewWriter returns a Writer on stdout, where CI steps read the result.
func NewWriter() *Writer {
	return &Writer{out: os.Stdout}
}

// NewWriterWithOutput returns a Writer that emits the commit line to out.
func NewWriterWithOutput(out io.Writer) *Writer {
	return &Writer{out: out}
}

// WriteCommit writes the single machine-readable result line, "Commit: <sha>".
func (w *Writer) WriteCommit(sha string) error {
	_, err := fmt.Fprintln(w.out, commitPrefix+sha)
	return err
}
