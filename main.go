// =============================================================================
// Jira to XLSX Converter - Main Entry Point
// =============================================================================
//
// This is the main entry point for the Jira to XLSX Converter CLI. It
// initializes the Cobra CLI framework and delegates command execution to
// the cmd package.
//
// USAGE:
//   jiraconvert process      - Transform Jira CSV exports into workbooks
//   jiraconvert fetch        - Fetch worklog issues straight from Jira
//   jiraconvert version      - Display the application version
//
// ARCHITECTURE:
//   This application follows a modular design where:
//   - cmd/           : Contains all CLI command definitions (Cobra)
//   - internal/      : Contains core business logic (not for external import)
//   - pkg/           : Contains shared utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/Jira-to-XLSX-conversion/cmd"
)

// main is the entry point of the application.
// It simply calls the Execute function from the cmd package, which
// initializes and runs the Cobra CLI.
func main() {
	cmd.Execute()
}
