package common

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileOutput configures rotating file output for logs.
type FileOutput struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Rotation defaults applied when FileOutput leaves them at zero.
const (
	defaultMaxSizeMB  = 20
	defaultMaxBackups = 3
	defaultMaxAgeDays = 7
)

// OpenWriter returns the log destination: stderr when Path is empty, otherwise
// a lumberjack logger rotating at MaxSizeMB. The parent directory is created.
func (f FileOutput) OpenWriter() (io.Writer, error) {
	path := strings.TrimSpace(f.Path)
	if path == "" {
		return os.Stderr, nil
	}
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create log directory %q: %w", dir, err)
		}
	}
	size := f.MaxSizeMB
	if size <= 0 {
		size = defaultMaxSizeMB
	}
	backups := f.MaxBackups
	if backups <= 0 {
		backups = defaultMaxBackups
	}
	age := f.MaxAgeDays
	if age <= 0 {
		age = defaultMaxAgeDays
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    size,
		MaxBackups: backups,
		MaxAge:     age,
		Compress:   f.Compress,
	}, nil
}
