package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// MediaPrefix is the URL path local media is served under.
const MediaPrefix = "/media/"

// MediaStore persists generated media and returns the reference clients use
// to fetch it.
type MediaStore interface {
	Save(ctx context.Context, filename string, data []byte) (string, error)
}

var ErrInvalidFilename = errors.New("invalid media filename")

// LocalStore writes media files to a directory served at /media.
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) *LocalStore {
	if dir == "" {
		dir = "media"
	}
	return &LocalStore{dir: dir}
}

// Dir returns the directory files are written to.
func (s *LocalStore) Dir() string { return s.dir }

func (s *LocalStore) Save(ctx context.Context, filename string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !validFilename(filename) {
		return "", ErrInvalidFilename
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, filename), data, 0o644); err != nil {
		return "", fmt.Errorf("write media file: %w", err)
	}
	return MediaPrefix + filename, nil
}

// ResolveLocal maps a /media/<file> reference to its path under dir. It
// reports false for anything that is not a plain local media reference.
func ResolveLocal(dir, ref string) (string, bool) {
	if !strings.HasPrefix(ref, MediaPrefix) {
		return "", false
	}
	name := strings.TrimPrefix(ref, MediaPrefix)
	if !validFilename(name) {
		return "", false
	}
	if dir == "" {
		dir = "media"
	}
	return filepath.Join(dir, name), true
}

func validFilename(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return path.Base(name) == name && !strings.ContainsAny(name, `/\`)
}
