package client

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileSaver persists a downloaded export. Implementations are
// per-environment: a directory write for CLI use, a save dialog for
// interactive shells, an in-memory sink for tests.
type FileSaver interface {
	Save(filename string, payload io.Reader) error
}

// DirSaver writes exports into a fixed directory, creating it on first use.
type DirSaver struct {
	Dir string
}

// Save writes the payload to Dir/filename. The filename is reduced to its
// base name first so a hostile Content-Disposition header cannot escape
// the target directory.
func (d DirSaver) Save(filename string, payload io.Reader) error {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == string(filepath.Separator) || name == "" {
		return fmt.Errorf("filesaver: unusable filename %q", filename)
	}

	dir := d.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("filesaver: create directory: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("filesaver: create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, payload); err != nil {
		return fmt.Errorf("filesaver: write payload: %w", err)
	}
	return nil
}
