package site

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	TopTemplate    = "top.html"
	BottomTemplate = "bottom.html"

	IndexPage   = "index.html"
	ArchivePage = "archive.html"
)

// Templates holds the static header and footer wrapped around every page.
type Templates struct {
	Top    string
	Bottom string
}

// LoadTemplates reads top.html and bottom.html from dir. A missing file is an error.
func LoadTemplates(dir string) (Templates, error) {
	top, err := os.ReadFile(filepath.Join(dir, TopTemplate))
	if err != nil {
		return Templates{}, fmt.Errorf("read %s template: %w", TopTemplate, err)
	}
	bottom, err := os.ReadFile(filepath.Join(dir, BottomTemplate))
	if err != nil {
		return Templates{}, fmt.Errorf("read %s template: %w", BottomTemplate, err)
	}
	return Templates{Top: string(top), Bottom: string(bottom)}, nil
}

// Render concatenates header, body and footer. No escaping is applied.
func (t Templates) Render(body string) string {
	return t.Top + body + t.Bottom
}

// WriteFile writes data to dir/name, creating dir when needed, and returns the full path.
func WriteFile(dir, name string, data []byte) (string, error) {
	if dir == "" {
		dir = "."
	}
	full := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create directory for %s: %w", full, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", full, err)
	}
	return full, nil
}
