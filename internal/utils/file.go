package utils

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultImageExtensions lists the extensions picked up from directories
var DefaultImageExtensions = []string{"jpg", "jpeg", "png", "gif", "bmp", "tiff", "webp"}

// GetFileExtension returns the file extension without the dot
func GetFileExtension(filename string) string {
	ext := filepath.Ext(filename)
	if len(ext) > 0 {
		return strings.ToLower(ext[1:])
	}
	return ""
}

// IsImageFile checks if a file has one of the given image extensions.
// With no extensions, DefaultImageExtensions is used.
func IsImageFile(filename string, exts ...string) bool {
	if len(exts) == 0 {
		exts = DefaultImageExtensions
	}
	ext := GetFileExtension(filename)
	if ext == "" {
		return false
	}
	for _, imgExt := range exts {
		if strings.EqualFold(ext, imgExt) {
			return true
		}
	}
	return false
}

// ListImageFiles lists the image files of a directory sorted by name.
// Subdirectories are walked only when recursive is set.
func ListImageFiles(dir string, recursive bool, exts ...string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if IsImageFile(path, exts...) {
			files = append(files, path)
		}
		return nil
	})

	sort.Strings(files)
	return files, err
}

// ExpandInputs turns a mix of files and directories into an ordered,
// de-duplicated list of absolute image paths. Explicit files are kept
// whatever their extension; directories contribute their image files.
func ExpandInputs(inputs []string, recursive bool, exts ...string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)

	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", in, err)
		}
		if !DirExists(abs) {
			if _, err := os.Stat(abs); err != nil {
				return nil, fmt.Errorf("failed to stat %s: %w", in, err)
			}
			add(abs)
			continue
		}
		files, err := ListImageFiles(abs, recursive, exts...)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", in, err)
		}
		for _, f := range files {
			add(f)
		}
	}

	return out, nil
}

// FileExists checks if a file exists and is not a directory
func FileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// DirExists checks if a directory exists
func DirExists(dirname string) bool {
	info, err := os.Stat(dirname)
	if err != nil {
		return false
	}
	return info.IsDir()
}
