package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooLarge        = errors.New("file too large")
)

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// Store writes uploads keyed by the sha256 of their bytes, so re-uploading
// the same file yields the same path and nothing is ever duplicated on disk.
type Store struct {
	BaseDir string
	BaseURL string // optional absolute prefix, e.g. http://localhost:8080
	MaxSize int64
}

func New(baseDir, baseURL string) *Store {
	return &Store{
		BaseDir: baseDir,
		BaseURL: baseURL,
		MaxSize: 5 << 20, // 5 MB
	}
}

// SaveImage stores an uploaded image under kind (e.g. "services",
// "profiles") and returns its public URL.
func (s *Store) SaveImage(fh *multipart.FileHeader, kind string) (string, error) {
	return s.save(fh, kind, imageExts)
}

// SaveDocument accepts images plus PDF, for CAC registration documents.
func (s *Store) SaveDocument(fh *multipart.FileHeader, kind string) (string, error) {
	exts := map[string]bool{".pdf": true}
	for e := range imageExts {
		exts[e] = true
	}
	return s.save(fh, kind, exts)
}

func (s *Store) save(fh *multipart.FileHeader, kind string, allowed map[string]bool) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowed[ext] {
		return "", ErrUnsupportedType
	}
	if fh.Size <= 0 || (s.MaxSize > 0 && fh.Size > s.MaxSize) {
		return "", ErrTooLarge
	}

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dir := filepath.Join(s.BaseDir, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	// Write to a temp file while hashing, then rename to the hash. If the
	// target already exists the content is identical and the temp copy is
	// discarded.
	tmp, err := os.CreateTemp(dir, "upload-*")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()

	h := sha256.New()
	_, err = io.Copy(io.MultiWriter(tmp, h), src)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpName)
		return "", err
	}

	name := hex.EncodeToString(h.Sum(nil)) + ext
	final := filepath.Join(dir, name)
	if _, statErr := os.Stat(final); statErr == nil {
		os.Remove(tmpName)
	} else if err := os.Rename(tmpName, final); err != nil {
		os.Remove(tmpName)
		return "", err
	}

	publicPath := fmt.Sprintf("/uploads/%s/%s", kind, name)
	if s.BaseURL != "" {
		return strings.TrimRight(s.BaseURL, "/") + publicPath, nil
	}
	return publicPath, nil
}
