// Package archive reads and writes corpus JSON files that may be stored
// compressed. A logical name such as "label.json" resolves to the first of
// label.json, label.json.xz and label.json.gz that exists.
package archive

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"

	cerrors "github.com/FocuswithJustin/dstckit/core/errors"
)

// Suffixes lists the compression suffixes Resolve tries, in order.
var Suffixes = []string{"", ".xz", ".gz"}

// Reader wraps a file with automatic decompression handling.
type Reader struct {
	io.Reader
	file         *os.File
	decompressor io.Closer
}

// NewReader opens path and decompresses it according to its suffix.
// Files without a known suffix are read as is.
func NewReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, cerrors.NewIO("open", path, err)
	}

	var reader io.Reader = f
	var decompressor io.Closer

	switch {
	case strings.HasSuffix(path, ".xz"):
		xzr, err := xz.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("xz reader: %w", err)
		}
		reader = xzr
	case strings.HasSuffix(path, ".gz"):
		gzr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		reader = gzr
		decompressor = gzr
	}

	return &Reader{
		Reader:       reader,
		file:         f,
		decompressor: decompressor,
	}, nil
}

// Close closes the reader and any underlying decompressor.
func (r *Reader) Close() error {
	var errs []error
	if r.decompressor != nil {
		if err := r.decompressor.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := r.file.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// Resolve returns the first existing variant of path.
func Resolve(path string) (string, error) {
	for _, suffix := range Suffixes {
		candidate := path + suffix
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", cerrors.NewNotFound("file", path)
}

// Exists reports whether any variant of path exists.
func Exists(path string) bool {
	_, err := Resolve(path)
	return err == nil
}

// Open resolves path and opens the variant found.
func Open(path string) (*Reader, error) {
	resolved, err := Resolve(path)
	if err != nil {
		return nil, err
	}
	return NewReader(resolved)
}

// ReadJSON resolves path and decodes its JSON content into v.
func ReadJSON(path string, v any) error {
	r, err := Open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	if err := json.NewDecoder(r).Decode(v); err != nil {
		return cerrors.NewParse("JSON", r.file.Name(), err)
	}
	return nil
}
