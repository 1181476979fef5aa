package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFromFile loads configuration from a YAML file on top of the
// environment: keys present in the file override environment values, keys
// absent from the file keep them.
func LoadFromFile(filePath string) (*Config, error) {
	// Validate file path
	if !isValidFilePath(filePath) {
		return nil, fmt.Errorf("invalid file path")
	}

	// Read file safely
	data, err := os.ReadFile(filePath) // #nosec G304 - Path is validated with isValidFilePath() before use
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := LoadFromEnv()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return config, nil
}

// isValidFilePath checks if a file path is valid and safe
func isValidFilePath(filePath string) bool {
	// Check for empty path
	if filePath == "" {
		return false
	}

	// Clean and normalize the path
	cleanPath := filepath.Clean(filePath)

	// Check for path traversal attempts
	if strings.Contains(cleanPath, "..") {
		return false
	}

	// Get absolute path
	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return false
	}

	// On Unix systems, check if the path is absolute and doesn't start with /proc, /sys, etc.
	// which could lead to sensitive information disclosure
	if strings.HasPrefix(absPath, "/proc") ||
		strings.HasPrefix(absPath, "/sys") ||
		strings.HasPrefix(absPath, "/dev") {
		return false
	}

	// Ensure the file exists
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return false
	}

	// Ensure it's a regular file, not a directory or symlink
	return fileInfo.Mode().IsRegular()
}
