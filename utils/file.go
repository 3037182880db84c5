package utils

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// SanitizeFileName replaces every character outside [A-Za-z0-9._-] with '_'.
func SanitizeFileName(name string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.' {
			return r
		}
		return '_'
	}, name)
}

// TimestampedName returns originalname_<unix nanos>.ext, sanitized for the filesystem.
func TimestampedName(filename string) string {
	ext := filepath.Ext(filepath.Base(filename))
	if ext == "." {
		ext = ""
	}
	name := FileNameWithoutExt(filename)
	if name == "" || name == "." {
		name = "upload"
	}
	return SanitizeFileName(fmt.Sprintf("%s_%d%s", name, time.Now().UnixNano(), ext))
}

// FileNameWithoutExt extracts the filename without extension from a path.
func FileNameWithoutExt(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
