// Package output provides adapters for writing application output.
package output

import (
	"fmt"
	"io"
	"os"
)

// Writer writes candidate tags to the configured output destination.
// By default, it writes to stdout. Dry-run output is the tool's only
// stdout surface; everything else goes to the log on stderr.
type Writer struct {
	out io.Writer
}

// NewWriter creates a new Writer that writes to stdout.
func NewWriter() *Writer {
	return &Writer{out: os.Stdout}
}

// NewWriterWithOutput creates a new Writer with a custom output destination.
// This is useful for testing.
func NewWriterWithOutput(out io.Writer) *Writer {
	return &Writer{out: out}
}

// WriteTag writes a candidate display tag to the output destination.
// The tag is written as a single line without any prefix or formatting,
// for consumption by external systems.
func (w *Writer) WriteTag(tag string) error {
	_, err := fmt.Fprintln(w.out, tag)
	return err
}
