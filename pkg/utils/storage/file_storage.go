package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"realty_backend/pkg/config"
)

var ErrInvalidPath = errors.New("invalid storage path")

// FileStore persists uploaded files and hands back their public URL.
// dir groups files, e.g. one directory per property id.
type FileStore interface {
	Save(ctx context.Context, dir, name, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
	RemoveDir(ctx context.Context, dir string) error
}

// New picks the backend named by cfg.Backend.
func New(ctx context.Context, cfg config.UploadConfig) (FileStore, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocalStore(cfg.Dir, cfg.PublicPath)
	case "s3", "r2":
		return NewS3Store(ctx, cfg)
	}
	return nil, fmt.Errorf("unsupported upload backend %q", cfg.Backend)
}

// LocalStore writes under root and serves files from publicPath.
type LocalStore struct {
	root       string
	publicPath string
}

func NewLocalStore(root, publicPath string) (*LocalStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if publicPath == "" {
		publicPath = "/uploads"
	}
	return &LocalStore{root: abs, publicPath: "/" + strings.Trim(publicPath, "/")}, nil
}

func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) PublicPath() string {
	return s.publicPath
}

func (s *LocalStore) Save(_ context.Context, dir, name, _ string, body io.Reader) (string, error) {
	rel, err := cleanRel(path.Join(dir, name))
	if err != nil {
		return "", err
	}
	full := filepath.Join(s.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create directory: %w", err)
	}

	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(full)
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return s.publicPath + "/" + rel, nil
}

// Delete removes the file behind url. A missing file is not an error.
func (s *LocalStore) Delete(_ context.Context, url string) error {
	if !strings.HasPrefix(url, s.publicPath+"/") {
		return ErrInvalidPath
	}
	rel, err := cleanRel(strings.TrimPrefix(url, s.publicPath+"/"))
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// RemoveDir deletes dir and everything in it. A missing directory is not an error.
func (s *LocalStore) RemoveDir(_ context.Context, dir string) error {
	rel, err := cleanRel(dir)
	if err != nil {
		return err
	}
	return os.RemoveAll(filepath.Join(s.root, filepath.FromSlash(rel)))
}

// cleanRel normalises p to a slash separated path that stays inside the root.
func cleanRel(p string) (string, error) {
	p = strings.ReplaceAll(p, "\\", "/")
	cleaned := path.Clean("/" + p)
	if cleaned == "/" || strings.Contains(p, "..") {
		return "", ErrInvalidPath
	}
	return strings.TrimPrefix(cleaned, "/"), nil
}
