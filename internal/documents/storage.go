package documents

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Storage keeps uploaded payloads in a directory tree:
// <root>/plots/<plotID>/<file> or <root>/logs/<logID>/<file>.
type Storage struct {
	Root string
}

// Save writes data and returns the stored file name and its path relative to Root.
func (s Storage) Save(kind, ownerID, originalName string, data []byte) (string, string, error) {
	name := uuid.NewString() + "-" + sanitizeFilename(originalName)
	rel := filepath.Join(kind, ownerID, name)
	full := filepath.Join(s.Root, rel)

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", "", fmt.Errorf("create upload dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", "", fmt.Errorf("write upload: %w", err)
	}
	return name, rel, nil
}

func (s Storage) Open(rel string) (*os.File, error) {
	clean := filepath.Clean(rel)
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return nil, fmt.Errorf("invalid stored path %q", rel)
	}
	return os.Open(filepath.Join(s.Root, clean))
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Join(strings.Fields(name), "-")
	if name == "" || name == "." || name == "/" {
		return "file"
	}
	return name
}
