// Package layer writes the text layer CSV consumed by the video
// switcher's watched-file data source.
//
// The file has a fixed shape: a Body,Footer header row and exactly one
// data row. The switcher re-reads the file on every change, so each
// write replaces the file atomically; a reader never sees a truncated
// row or a headerless file.
package layer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/slidebridge/slidebridge/internal/openlp"
)

// DefaultFileName is the conventional output file name expected by the
// switcher's data source configuration.
const DefaultFileName = "Text Layer.csv"

// Header column titles. These must match the column mapping configured
// in the switcher and are not configurable here.
var header = []string{"Body", "Footer"}

// Writer owns the text layer file. There must be exactly one Writer per
// output path; concurrent writers would race on the rename.
type Writer struct {
	path string
}

// NewWriter creates a Writer for the given output path.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Path returns the output file path.
func (w *Writer) Path() string {
	return w.path
}

// Write replaces the text layer file with the given content. Writing
// identical content twice produces byte-identical files.
func (w *Writer) Write(content openlp.DisplayContent) error {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	if err := cw.Write([]string{content.Body, content.Footer}); err != nil {
		return fmt.Errorf("encode row: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("encode text layer: %w", err)
	}

	if err := replaceFile(w.path, buf.Bytes()); err != nil {
		return fmt.Errorf("write text layer: %w", err)
	}
	return nil
}

// Clear writes an empty row, hiding the overlay.
func (w *Writer) Clear() error {
	return w.Write(openlp.DisplayContent{})
}

// replaceFile writes data to a temporary file in the destination
// directory and renames it over path. The temporary file must live on
// the same filesystem as the destination for the rename to be atomic.
func replaceFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".layer-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	// CreateTemp uses 0600; the switcher may run as a different user.
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	renamed = true
	return nil
}
