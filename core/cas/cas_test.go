package cas

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSum(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		sha256 string
	}{
		{
			name:   "empty",
			data:   nil,
			sha256: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			name:   "abc",
			data:   []byte("abc"),
			sha256: "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Sum(tt.data)
			if d.SHA256 != tt.sha256 {
				t.Errorf("SHA256 = %s, want %s", d.SHA256, tt.sha256)
			}
			if len(d.BLAKE3) != 64 {
				t.Errorf("BLAKE3 has %d hex digits, want 64", len(d.BLAKE3))
			}
			if got := Fingerprint(tt.data); got != d.BLAKE3 {
				t.Errorf("Fingerprint() = %s, want %s", got, d.BLAKE3)
			}
		})
	}

	if Sum([]byte("a")).BLAKE3 == Sum([]byte("b")).BLAKE3 {
		t.Error("different data must have different fingerprints")
	}
}

func TestPutGet(t *testing.T) {
	root := t.TempDir()
	s, err := NewStore(root)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	data := []byte(`{"dataset": "dstc5_dev", "sessions": []}`)
	d, err := s.Put(data)
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if d != Sum(data) {
		t.Errorf("Put() = %+v, want %+v", d, Sum(data))
	}

	got, err := s.Get(d.SHA256)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("Get() = %q, want %q", got, data)
	}
	if !s.Has(d.SHA256) {
		t.Error("Has() = false after Put")
	}

	sha, err := s.Resolve(d.BLAKE3)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if sha != d.SHA256 {
		t.Errorf("Resolve() = %s, want %s", sha, d.SHA256)
	}
	got, err = s.GetByFingerprint(d.BLAKE3)
	if err != nil || !bytes.Equal(got, data) {
		t.Errorf("GetByFingerprint() = %q, %v", got, err)
	}

	if _, err := os.Stat(filepath.Join(root, "sha256", d.SHA256[:2], d.SHA256)); err != nil {
		t.Errorf("stored file missing: %v", err)
	}

	again, err := s.Put(data)
	if err != nil || again != d {
		t.Errorf("second Put() = %+v, %v", again, err)
	}
}

func TestLookupErrors(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	missing := strings.Repeat("ab", 32)

	tests := []struct {
		name string
		call func() error
		want error
	}{
		{"get invalid", func() error { _, err := s.Get("xyz"); return err }, ErrInvalidDigest},
		{"get upper case", func() error { _, err := s.Get(strings.ToUpper(missing)); return err }, ErrInvalidDigest},
		{"get missing", func() error { _, err := s.Get(missing); return err }, ErrNotFound},
		{"resolve invalid", func() error { _, err := s.Resolve(""); return err }, ErrInvalidDigest},
		{"resolve missing", func() error { _, err := s.Resolve(missing); return err }, ErrNotFound},
		{"fingerprint missing", func() error { _, err := s.GetByFingerprint(missing); return err }, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}

	if s.Has("nope") {
		t.Error("Has() = true for an invalid digest")
	}
}

func TestResolveCorruptIndex(t *testing.T) {
	root := t.TempDir()
	s, err := NewStore(root)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	fp := strings.Repeat("cd", 32)
	dir := filepath.Join(root, "blake3", fp[:2])
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, fp), []byte("not a digest"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Resolve(fp); err == nil {
		t.Error("Resolve() accepted a corrupt index entry")
	}
}

func TestNewStoreOnFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewStore(file); err == nil {
		t.Error("NewStore() on a regular file should fail")
	}
}
