package archive

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"

	cerrors "github.com/FocuswithJustin/dstckit/core/errors"
)

// Writer compresses according to the suffix of the file it writes.
type Writer struct {
	io.Writer
	file       *os.File
	compressor io.Closer
}

// NewWriter creates path, along with its parent directories, and picks a
// compressor from the suffix.
func NewWriter(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, cerrors.NewIO("create directory for", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, cerrors.NewIO("create", path, err)
	}

	w := &Writer{Writer: f, file: f}
	switch {
	case strings.HasSuffix(path, ".xz"):
		xzw, err := xz.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("xz writer: %w", err)
		}
		w.Writer, w.compressor = xzw, xzw
	case strings.HasSuffix(path, ".gz"):
		gzw := gzip.NewWriter(f)
		w.Writer, w.compressor = gzw, gzw
	}
	return w, nil
}

// Close flushes the compressor and closes the file.
func (w *Writer) Close() error {
	var errs []error
	if w.compressor != nil {
		if err := w.compressor.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := w.file.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// WriteJSON encodes v to path. Indented output uses four spaces, matching
// the corpus files.
func WriteJSON(path string, v any, indent bool) error {
	w, err := NewWriter(path)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "    ")
	}
	if err := enc.Encode(v); err != nil {
		w.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return w.Close()
}
