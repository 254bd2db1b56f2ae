package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var imageMimeTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
}

// GetMimeType returns the MIME type based on file extension
func GetMimeType(filePath string) string {
	ext := strings.ToLower(filepath.Ext(filePath))
	if mime, ok := imageMimeTypes[ext]; ok {
		return mime
	}
	switch ext {
	case ".json":
		return "application/json"
	case ".md":
		return "text/markdown"
	case ".txt":
		return "text/plain"
	}
	return "application/octet-stream"
}

// IsImageFile checks if the file is an image
func IsImageFile(filePath string) bool {
	_, ok := imageMimeTypes[strings.ToLower(filepath.Ext(filePath))]
	return ok
}

// ReadFileContent reads a whole file
func ReadFileContent(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// GetDefaultExportPath returns the default export directory, creating it
// when missing
func GetDefaultExportPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	exportDir := filepath.Join(homeDir, "Documents", "HustleGenie_Exports")
	if err := os.MkdirAll(exportDir, 0755); err != nil {
		return "", err
	}
	return exportDir, nil
}

// WriteExportFile writes data into dir and returns the full path
func WriteExportFile(dir, filename string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	return path, nil
}
