package worker

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrTemplateNotFound is returned when no file matches the AWR number
var ErrTemplateNotFound = errors.New("template not found")

// templateExtensions are tried in order
var templateExtensions = []string{".docx", ".doc", ".pdf"}

// DefaultTypeFolders maps each AWR type to its folder under the source root
var DefaultTypeFolders = map[string]string{
	"FPS":       "FPS-IMS-AWR ISSUANCE",
	"IMS":       "FPS-IMS-AWR ISSUANCE",
	"MICRO":     "Micro AWR Issuance",
	"PM":        "PM AWR Issuance",
	"RM":        "RM AWR Issuance",
	"STABILITY": "Stability AWR Issuance",
	"WATER":     "Water AWR Issuance",
}

// TypeFolder returns the folder for awrType; overrides win over the defaults.
// Unmapped types use the source root itself.
func TypeFolder(awrType string, overrides map[string]string) string {
	// viper lower-cases map keys
	for _, key := range []string{awrType, strings.ToLower(awrType)} {
		if folder, ok := overrides[key]; ok {
			return folder
		}
	}
	return DefaultTypeFolders[awrType]
}

// FindFile returns dir/base+ext for the first extension that exists
func FindFile(dir, base string) (string, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: folder %s does not exist", ErrTemplateNotFound, dir)
	}
	for _, ext := range templateExtensions {
		candidate := filepath.Join(dir, base+ext)
		if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s in %s", ErrTemplateNotFound, base, dir)
}
