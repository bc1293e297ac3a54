package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const DefaultFilename = "plan-export.png"

// ============================================================
// File Storage
// ============================================================

// FileStorage keeps exported PNGs under root/<sessionID>/.
type FileStorage struct {
	root string
}

func NewFileStorage(root string) *FileStorage {
	return &FileStorage{root: root}
}

func (s *FileStorage) SessionDir(sessionID string) string {
	return filepath.Join(s.root, sessionID)
}

func (s *FileStorage) ExportPath(sessionID, filename string) string {
	return filepath.Join(s.SessionDir(sessionID), SanitizeFilename(filename))
}

func (s *FileStorage) EnsureSessionDir(sessionID string) error {
	path := s.SessionDir(sessionID)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("mkdir export dir: %w", err)
	}
	return nil
}

// Save writes data and returns the path it was written to.
func (s *FileStorage) Save(sessionID, filename string, data []byte) (string, error) {
	if err := s.EnsureSessionDir(sessionID); err != nil {
		return "", err
	}
	target := s.ExportPath(sessionID, filename)
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return target, nil
}

// SanitizeFilename strips directories and forces a .png extension.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == "/" || name == "" {
		return DefaultFilename
	}
	if !strings.EqualFold(filepath.Ext(name), ".png") {
		name += ".png"
	}
	return name
}
