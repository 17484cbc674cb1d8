package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// PathUtil joins rel onto root and creates the directory tree. MkdirAll
// treats a directory created concurrently by another job as success.
func PathUtil(root string, rel string) (string, error) {
	dir := filepath.Join(root, rel)

	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create directories: %w", err)
	}
	return dir, nil
}

// OutputPath names the converted file <dir>/<base without ext>.<format>.
func OutputPath(dir, src, format string) string {
	base := filepath.Base(src)
	name := base[:len(base)-len(filepath.Ext(base))]
	return filepath.Join(dir, name+"."+format)
}
