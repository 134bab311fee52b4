package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File permissions
const (
	DefaultDirPermissions = 0755
)

// File extensions to skip
var (
	SkippedExtensions = []string{".part", ".ytdl", ".temp"}
)

// CreateDirectoryIfNotExists creates directory if it doesn't exist
func CreateDirectoryIfNotExists(dirPath string) error {
	if err := os.MkdirAll(dirPath, DefaultDirPermissions); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dirPath, err)
	}
	return nil
}

// IsPartialFile reports whether name looks like an unfinished yt-dlp download
func IsPartialFile(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range SkippedExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// PurgeDirectory removes every entry inside dirPath, keeping the directory itself
func PurgeDirectory(dirPath string) error {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return fmt.Errorf("failed to read directory %s: %w", dirPath, err)
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(dirPath, entry.Name())); err != nil {
			return fmt.Errorf("failed to remove %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// FileSize returns the size of the file at path
func FileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
