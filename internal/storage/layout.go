package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Layout 数据目录布局
// Layout is the on-disk data directory layout
type Layout struct {
	BaseDir    string
	LogsDir    string
	ExportsDir string
}

// NewLayout 创建数据目录及子目录
// NewLayout creates the data directory and its subdirectories
func NewLayout(baseDir string) (Layout, error) {
	baseDir = strings.TrimSpace(baseDir)
	if baseDir == "" {
		return Layout{}, fmt.Errorf("storage base dir is empty")
	}
	l := Layout{
		BaseDir:    baseDir,
		LogsDir:    filepath.Join(baseDir, "logs"),
		ExportsDir: filepath.Join(baseDir, "exports"),
	}
	for _, dir := range []string{l.BaseDir, l.LogsDir, l.ExportsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Layout{}, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return l, nil
}

// DBPath returns the SQLite database path.
func (l Layout) DBPath() string {
	return filepath.Join(l.BaseDir, "genos.db")
}

// LogFile returns the default log file path.
func (l Layout) LogFile() string {
	return filepath.Join(l.LogsDir, "genos.log")
}
