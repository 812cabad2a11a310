// Package cas archives tracker outputs by content. Files are stored under
// their SHA-256 digest; a BLAKE3 index maps the fingerprint recorded with
// every score run back to the stored file.
//
// Layout under the root:
//
//	sha256/<aa>/<digest>   the stored bytes
//	blake3/<aa>/<digest>   the SHA-256 digest of the same bytes
package cas

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/zeebo/blake3"
)

// ErrNotFound is returned when no file with the given digest is stored.
var ErrNotFound = errors.New("cas: not found")

// ErrInvalidDigest is returned for a string that is not a 64-character
// lower-case hex digest.
var ErrInvalidDigest = errors.New("cas: invalid digest")

var digestPattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// Digest holds both digests of one file.
type Digest struct {
	SHA256 string `json:"sha256"`
	BLAKE3 string `json:"blake3"`
}

// Sum returns the digests of data.
func Sum(data []byte) Digest {
	s := sha256.Sum256(data)
	b := blake3.Sum256(data)
	return Digest{SHA256: hex.EncodeToString(s[:]), BLAKE3: hex.EncodeToString(b[:])}
}

// Fingerprint returns the BLAKE3 digest of data.
func Fingerprint(data []byte) string {
	b := blake3.Sum256(data)
	return hex.EncodeToString(b[:])
}

// Store is an archive rooted at a directory.
type Store struct {
	root string
}

// NewStore opens the archive at root, creating it when needed.
func NewStore(root string) (*Store, error) {
	for _, dir := range []string{"sha256", "blake3"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0755); err != nil {
			return nil, fmt.Errorf("cas: create %s: %w", dir, err)
		}
	}
	return &Store{root: root}, nil
}

func (s *Store) path(kind, digest string) string {
	return filepath.Join(s.root, kind, digest[:2], digest)
}

// Put stores data and its index entry. Storing the same bytes twice is a
// no-op.
func (s *Store) Put(data []byte) (Digest, error) {
	d := Sum(data)
	if err := s.write(s.path("sha256", d.SHA256), data); err != nil {
		return Digest{}, err
	}
	if err := s.write(s.path("blake3", d.BLAKE3), []byte(d.SHA256)); err != nil {
		return Digest{}, err
	}
	return d, nil
}

// write creates path atomically unless it already exists.
func (s *Store) write(path string, data []byte) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("cas: create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".put-*")
	if err != nil {
		return fmt.Errorf("cas: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("cas: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("cas: close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("cas: rename %s: %w", path, err)
	}
	return nil
}

// Get returns the file stored under a SHA-256 digest.
func (s *Store) Get(sha string) ([]byte, error) {
	if !digestPattern.MatchString(sha) {
		return nil, ErrInvalidDigest
	}
	data, err := os.ReadFile(s.path("sha256", sha))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// Resolve maps a BLAKE3 fingerprint to the SHA-256 digest of the same file.
func (s *Store) Resolve(fingerprint string) (string, error) {
	if !digestPattern.MatchString(fingerprint) {
		return "", ErrInvalidDigest
	}
	data, err := os.ReadFile(s.path("blake3", fingerprint))
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	sha := strings.TrimSpace(string(data))
	if !digestPattern.MatchString(sha) {
		return "", fmt.Errorf("cas: corrupt index entry %s", fingerprint)
	}
	return sha, nil
}

// GetByFingerprint returns the file with the given BLAKE3 fingerprint.
func (s *Store) GetByFingerprint(fingerprint string) ([]byte, error) {
	sha, err := s.Resolve(fingerprint)
	if err != nil {
		return nil, err
	}
	return s.Get(sha)
}

// Has reports whether a file with the given SHA-256 digest is stored.
func (s *Store) Has(sha string) bool {
	if !digestPattern.MatchString(sha) {
		return false
	}
	_, err := os.Stat(s.path("sha256", sha))
	return err == nil
}
