package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// NormalizePath normalizes a path for the current platform
func NormalizePath(path string) string {
	normalized := filepath.Clean(path)

	// On Windows, ensure UNC paths are preserved
	if runtime.GOOS == "windows" {
		if strings.HasPrefix(path, "\\\\") && !strings.HasPrefix(normalized, "\\\\") {
			normalized = "\\\\" + normalized
		}
	}

	return normalized
}

// invalidNameChars cannot appear in a file name on any supported platform
const invalidNameChars = `<>:"/\|?*`

// SafeFileName turns a server-provided document name into a local file name.
// Separators and reserved characters become underscores; an empty result becomes fallback.
func SafeFileName(name, fallback string) string {
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || strings.ContainsRune(invalidNameChars, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))

	name = strings.Trim(name, ". ")
	if name == "" {
		return fallback
	}
	return name
}

// OutputPath places a downloaded file: into dir when dir is an existing directory,
// at dir itself when it names a file, or into the working directory when empty
func OutputPath(dir, fileName string) string {
	if dir == "" {
		return fileName
	}
	trailing := strings.HasSuffix(dir, string(filepath.Separator)) || strings.HasSuffix(dir, "/")
	dir = NormalizePath(dir)
	if info, err := os.Stat(dir); (err == nil && info.IsDir()) || trailing {
		return filepath.Join(dir, fileName)
	}
	return dir
}

// ValidatePath checks if a path is valid for the current platform
func ValidatePath(path string) error {
	if path == "" {
		return &PathError{Path: path, Message: "path is empty"}
	}

	if runtime.GOOS == "windows" {
		for _, char := range []string{"<", ">", "\"", "|", "?", "*"} {
			if strings.Contains(path, char) {
				return &PathError{Path: path, Message: "path contains invalid character: " + char}
			}
		}
	}

	return nil
}

// PathError represents a path validation error
type PathError struct {
	Path    string
	Message string
}

func (e *PathError) Error() string {
	return "invalid path '" + e.Path + "': " + e.Message
}
