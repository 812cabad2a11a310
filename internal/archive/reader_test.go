package archive

import (
	"compress/gzip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/ulikunitz/xz"

	cerrors "github.com/FocuswithJustin/dstckit/core/errors"
)

const labelJSON = `{"session_id": 10, "utterances": [{"utter_index": 0}]}`

func writePlain(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}
}

func writeGz(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create file: %v", err)
	}
	defer f.Close()
	gw := gzip.NewWriter(f)
	if _, err := gw.Write([]byte(content)); err != nil {
		t.Fatalf("write content: %v", err)
	}
	gw.Close()
}

func writeXz(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create file: %v", err)
	}
	defer f.Close()
	xw, err := xz.NewWriter(f)
	if err != nil {
		t.Fatalf("xz writer: %v", err)
	}
	if _, err := xw.Write([]byte(content)); err != nil {
		t.Fatalf("write content: %v", err)
	}
	xw.Close()
}

func TestNewReader(t *testing.T) {
	tests := []struct {
		name   string
		file   string
		writer func(*testing.T, string, string)
	}{
		{name: "plain", file: "label.json", writer: writePlain},
		{name: "gzip", file: "label.json.gz", writer: writeGz},
		{name: "xz", file: "label.json.xz", writer: writeXz},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			tt.writer(t, path, labelJSON)

			r, err := NewReader(path)
			if err != nil {
				t.Fatalf("NewReader() error = %v", err)
			}
			defer r.Close()

			got, err := io.ReadAll(r)
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			if string(got) != labelJSON {
				t.Errorf("content = %q, want %q", got, labelJSON)
			}
		})
	}
}

func TestNewReaderErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := NewReader(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json.gz")
	writePlain(t, bad, "not gzip")
	if _, err := NewReader(bad); err == nil {
		t.Error("expected error for corrupt gzip")
	}

	badXz := filepath.Join(dir, "bad.json.xz")
	writePlain(t, badXz, "not xz")
	if _, err := NewReader(badXz); err == nil {
		t.Error("expected error for corrupt xz")
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "log.json")

	if _, err := Resolve(base); !errors.Is(err, cerrors.ErrNotFound) {
		t.Fatalf("Resolve() on empty dir error = %v, want ErrNotFound", err)
	}
	if Exists(base) {
		t.Error("Exists() = true for missing file")
	}

	writeXz(t, base+".xz", labelJSON)
	got, err := Resolve(base)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got != base+".xz" {
		t.Errorf("Resolve() = %q, want %q", got, base+".xz")
	}

	writePlain(t, base, labelJSON)
	got, _ = Resolve(base)
	if got != base {
		t.Errorf("plain file should win, got %q", got)
	}
}

func TestReadJSON(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "label.json")
	writeGz(t, base+".gz", labelJSON)

	var v struct {
		SessionID  int `json:"session_id"`
		Utterances []struct {
			UtterIndex int `json:"utter_index"`
		} `json:"utterances"`
	}
	if err := ReadJSON(base, &v); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if v.SessionID != 10 || len(v.Utterances) != 1 {
		t.Errorf("decoded %+v", v)
	}
}

func TestReadJSONParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	writePlain(t, path, "{")

	var v map[string]any
	err := ReadJSON(path, &v)
	var pe *cerrors.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("ReadJSON() error = %v, want ParseError", err)
	}
	if pe.Path != path {
		t.Errorf("ParseError.Path = %q, want %q", pe.Path, path)
	}
}
