package sink

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

// Local writes objects into a directory. Files appear atomically via rename.
type Local struct {
	dir    string
	logger *log.Logger
}

// NewLocal returns a sink rooted at dir.
func NewLocal(dir string, logger *log.Logger) *Local {
	if logger == nil {
		logger = log.Default()
	}
	return &Local{dir: dir, logger: logger}
}

// Put writes body to dir/name and returns the absolute file path.
func (l *Local) Put(ctx context.Context, name string, body io.Reader, _ PutOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(l.dir, ".tmp-"+name+"-")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("close %s: %w", name, err)
	}

	target := filepath.Join(l.dir, name)
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("rename %s: %w", name, err)
	}

	abs, err := filepath.Abs(target)
	if err != nil {
		abs = target
	}
	l.logger.Printf("sink: wrote %s", abs)
	return abs, nil
}
