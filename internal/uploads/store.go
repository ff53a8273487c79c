// Package uploads stores payment proofs and event images on local disk under
// a directory that is also served at /uploads.
package uploads

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"etickets/internal/errs"
)

// Kind selects the sub-directory, file prefix and allowed formats.
type Kind struct {
	Dir     string
	Prefix  string
	Allowed map[string][]string // extension -> accepted sniffed MIME types
}

var (
	PaymentProof = Kind{
		Dir:    "payments",
		Prefix: "payment",
		Allowed: map[string][]string{
			".jpg":  {"image/jpeg"},
			".jpeg": {"image/jpeg"},
			".png":  {"image/png"},
			".pdf":  {"application/pdf"},
		},
	}
	EventImage = Kind{
		Dir:    "events",
		Prefix: "event",
		Allowed: map[string][]string{
			".jpg":  {"image/jpeg"},
			".jpeg": {"image/jpeg"},
			".png":  {"image/png"},
			".webp": {"image/webp"},
		},
	}
)

const PublicPrefix = "/uploads"

// File is an incoming upload as read from a multipart form.
type File struct {
	Filename string
	Size     int64
	Body     io.Reader
}

type Store struct {
	Root     string
	MaxBytes int64
}

func NewStore(root string, maxBytes int64) *Store {
	return &Store{Root: root, MaxBytes: maxBytes}
}

// Save validates and writes the file, returning its public path
// (/uploads/<dir>/<name>).
func (s *Store) Save(kind Kind, filename string, size int64, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	accepted, ok := kind.Allowed[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q files are not accepted", errs.ErrInvalidFile, ext)
	}
	if size > s.MaxBytes {
		return "", fmt.Errorf("%w: file is larger than %d bytes", errs.ErrInvalidFile, s.MaxBytes)
	}

	// Read one byte past the limit so an understated size is still caught.
	data, err := io.ReadAll(io.LimitReader(r, s.MaxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.MaxBytes {
		return "", fmt.Errorf("%w: file is larger than %d bytes", errs.ErrInvalidFile, s.MaxBytes)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: file is empty", errs.ErrInvalidFile)
	}

	detected := mimetype.Detect(data)
	if !matches(detected, accepted) {
		return "", fmt.Errorf("%w: content is %s, not %s", errs.ErrInvalidFile, detected.String(), strings.Join(accepted, " or "))
	}

	dir := filepath.Join(s.Root, kind.Dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := fmt.Sprintf("%s-%s%s", kind.Prefix, uuid.NewString(), ext)
	if err := writeFile(filepath.Join(dir, name), data); err != nil {
		return "", err
	}
	return path.Join(PublicPrefix, kind.Dir, name), nil
}

// Delete removes a file by its public path. Missing files and paths outside
// the store are ignored.
func (s *Store) Delete(publicPath string) error {
	if publicPath == "" || !strings.HasPrefix(publicPath, PublicPrefix+"/") {
		return nil
	}
	rel := path.Clean(strings.TrimPrefix(publicPath, PublicPrefix+"/"))
	if rel == "." || strings.HasPrefix(rel, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(s.Root, filepath.FromSlash(rel)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete upload %s: %w", publicPath, err)
	}
	return nil
}

func matches(detected *mimetype.MIME, accepted []string) bool {
	for _, m := range accepted {
		if detected.Is(m) {
			return true
		}
	}
	return false
}

func writeFile(name string, data []byte) error {
	f, err := os.OpenFile(name, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
		f.Close()
		os.Remove(name)
		return fmt.Errorf("write upload file: %w", err)
	}
	return f.Close()
}
