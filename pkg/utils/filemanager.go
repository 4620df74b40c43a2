// =============================================================================
// Jira to XLSX Converter - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the converter:
//   - Directory management
//   - Output file naming from a placeholder format
//   - Input archival after successful processing
//
// ARCHIVAL STRATEGY:
//   - Input files are moved to the archive directory after successful
//     processing when archival is requested
//   - Failed files remain in their original location
//
// =============================================================================

package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates every given directory if it does not exist.
func EnsureDirectories(paths ...string) error {
	for _, dir := range paths {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName expands an output name format.
//
// PLACEHOLDERS:
//   {stem}      - input file name without extension
//   {mode}      - schema name
//   {timestamp} - current timestamp (YYYYMMDD_HHMMSS)
//   {date}      - current date (YYYY-MM-DD)
//   {uuid}      - a random UUID
//
// A name without an extension gets ".xlsx" appended.
//
// EXAMPLE:
//   format: "{stem}_{mode}.xlsx", stem: "export", mode: "msm"
//   output: "export_msm.xlsx"
func GenerateOutputFileName(format, stem, mode string) string {
	now := time.Now()

	replacements := map[string]string{
		"{stem}":      stem,
		"{mode}":      mode,
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("2006-01-02"),
		"{uuid}":      uuid.New().String(),
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	if filepath.Ext(result) == "" {
		result += ".xlsx"
	}

	return result
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveFile moves a processed file into archiveDir and returns the new
// path. A cross-device rename falls back to copy and delete.
func ArchiveFile(path, archiveDir string) (string, error) {
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	archivePath := filepath.Join(archiveDir, filepath.Base(path))

	if err := os.Rename(path, archivePath); err != nil {
		if err := copyFile(path, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(path); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}

	return archivePath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
