package localfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Storage serves document bytes from a local directory tree, one subtree per
// tenant. Uploads land here through the out-of-scope upload service; the
// verification pipeline only reads.
type Storage struct {
	basePath string
}

func New(basePath string) (*Storage, error) {
	if basePath == "" {
		basePath = "./data/documents"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Storage{basePath: basePath}, nil
}

func (s *Storage) Download(_ context.Context, tenantID, key string) ([]byte, error) {
	path, err := s.resolve(tenantID, key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document file: %w", err)
	}
	return data, nil
}

// Save exists for tooling and tests; the production write path is the upload
// service.
func (s *Storage) Save(_ context.Context, tenantID, key string, data []byte) error {
	path, err := s.resolve(tenantID, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create tenant dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write document file: %w", err)
	}
	return nil
}

func (s *Storage) resolve(tenantID, key string) (string, error) {
	if tenantID == "" || key == "" {
		return "", fmt.Errorf("tenant id and key are required")
	}
	return filepath.Join(s.basePath, sanitize(tenantID), sanitize(key)), nil
}

func sanitize(part string) string {
	part = filepath.Base(part)
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, part)
	if sanitized == "" || sanitized == "." || sanitized == ".." {
		return "_"
	}
	return sanitized
}
