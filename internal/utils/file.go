package utils

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

// GetFileExtension returns the file extension without the dot
func GetFileExtension(filename string) string {
	ext := filepath.Ext(filename)
	if len(ext) > 0 {
		return strings.ToLower(ext[1:])
	}
	return ""
}

// BaseName returns the file name of a path or URL without its extension
func BaseName(source string) string {
	name := source
	if u, err := url.Parse(source); err == nil && u.Scheme != "" && u.Host != "" {
		name = path.Base(u.Path)
	} else {
		name = filepath.Base(source)
	}
	if name == "." || name == "/" {
		return "image"
	}
	name = SanitizeFilename(strings.TrimSuffix(name, filepath.Ext(name)))
	if name == "" {
		return "image"
	}
	return name
}

// SampleStem joins a prefix and a base name into a file name stem.
// Path separators and other invalid characters in either part are replaced.
func SampleStem(prefix, baseName string) string {
	stem := SanitizeFilename(prefix + baseName)
	if stem == "" {
		return "image"
	}
	return stem
}

// SampleFilename builds the output path for sample index i, e.g. out/cat_000.jpg.
// stem is used as is; see BaseName and SampleStem.
func SampleFilename(stem, outputDir string, index int, format string) string {
	if format == "" {
		format = "jpg"
	}
	name := fmt.Sprintf("%s_%03d.%s", stem, index, strings.ToLower(format))
	return filepath.Join(outputDir, name)
}

// FileExists checks if a file exists and is not a directory
func FileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// SanitizeFilename removes or replaces invalid characters in filenames
func SanitizeFilename(filename string) string {
	invalid := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	result := filename

	for _, char := range invalid {
		result = strings.ReplaceAll(result, char, "_")
	}

	// Remove leading/trailing spaces and dots
	result = strings.Trim(result, " .")

	return result
}
