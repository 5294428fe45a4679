// Package upload stores user-submitted drawing images with validated
// extensions and collision-free names.
package upload

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// allowedExts is the extension whitelist for uploaded images.
var allowedExts = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
	"webp": true,
}

// AllowedExt reports whether the lowercase extension (without dot) is
// accepted.
func AllowedExt(ext string) bool {
	return allowedExts[strings.ToLower(ext)]
}

// SaveFile copies an uploaded file into targetDir under a generated
// collision-free name and returns that name. Files with a missing or
// unsupported extension are rejected with an empty name and no error;
// rejection is an expected outcome, not a failure.
func SaveFile(file multipart.File, header *multipart.FileHeader, targetDir string) (string, error) {
	if file == nil || header == nil || header.Filename == "" {
		return "", nil
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(header.Filename)), ".")
	if ext == "" || !AllowedExt(ext) {
		return "", nil
	}

	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	name := fmt.Sprintf("%s.%s", strings.ReplaceAll(uuid.New().String(), "-", ""), ext)
	path := filepath.Join(targetDir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write upload file: %w", err)
	}

	return name, nil
}
