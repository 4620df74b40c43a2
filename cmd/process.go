// =============================================================================
// Jira to XLSX Converter - Process Command
// =============================================================================
//
// This file defines the 'process' command, which transforms already-exported
// Jira CSV files into reporting workbooks.
//
// COMMAND USAGE:
//   jiraconvert process [files...] --mode <applens|msm> [flags]
//
// FLAGS:
//   --mode, -m     : Transformation schema to apply (required)
//   --output, -o   : Output file path (single input file only)
//   --output-dir   : Directory for generated workbooks
//   --delimiter    : CSV field delimiter override
//   --archive-dir  : Move inputs here after successful processing
//
// PROCESSING PIPELINE:
//   1. Resolve the schema descriptor from --mode
//   2. For each file (concurrently):
//      a. Parse the CSV file
//      b. Reconcile headers and derive the output fields
//      c. Validate rows and enforce column order
//      d. Write the workbook
//   3. Archive processed inputs when requested
//   4. Print a summary
//
//   Each file is processed independently; errors in one file do not affect
//   the processing of others. Ctrl-C cancels all in-flight runs.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ginjaninja78/Jira-to-XLSX-conversion/internal/csvparser"
	"github.com/ginjaninja78/Jira-to-XLSX-conversion/internal/events"
	"github.com/ginjaninja78/Jira-to-XLSX-conversion/internal/pipeline"
	"github.com/ginjaninja78/Jira-to-XLSX-conversion/internal/schema"
	"github.com/ginjaninja78/Jira-to-XLSX-conversion/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// mode selects the transformation schema (applens, msm).
var mode string

// outputPath is an explicit output file path, valid for a single input.
var outputPath string

// outputDir overrides the configured output directory.
var outputDir string

// delimiter overrides the configured CSV field delimiter.
var delimiter string

// archiveDir, when set, receives successfully processed input files.
var archiveDir string

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

// processCmd represents the 'process' command.
var processCmd = &cobra.Command{
	Use:   "process [files...]",
	Short: "Transform Jira CSV exports into XLSX workbooks",
	Long: `The process command reads one or more Jira CSV exports, applies the selected
transformation schema, and writes one workbook per input file.

The applens schema is strict: every expected input column must be present
(matching is case-insensitive and tolerates renamed variants). The msm schema
is best-effort: missing columns produce empty cells.

Processing is done concurrently. Each file is processed independently, and
errors in one file do not affect the processing of others.

On successful processing:
  - The generated workbook is placed in the output directory
  - With --archive-dir, the input CSV is moved there

On error:
  - The input file remains in place
  - Processing continues for other files
  - The command exits non-zero`,

	Args: cobra.MinimumNArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd, args)
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init registers the process command with the root command and sets up flags.
func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVarP(
		&mode,
		"mode",
		"m",
		"",
		"Transformation schema to apply: applens or msm (required)",
	)
	processCmd.MarkFlagRequired("mode")

	processCmd.Flags().StringVarP(
		&outputPath,
		"output",
		"o",
		"",
		"Output file path (only with a single input file)",
	)

	processCmd.Flags().StringVar(
		&outputDir,
		"output-dir",
		"",
		"Directory for generated workbooks (defaults to output_dir from config)",
	)

	processCmd.Flags().StringVar(
		&delimiter,
		"delimiter",
		"",
		"CSV field delimiter (accepts a character or tab/pipe/semicolon)",
	)

	processCmd.Flags().StringVar(
		&archiveDir,
		"archive-dir",
		"",
		"Move input files here after successful processing",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runProcess transforms every input file with the selected schema.
func runProcess(cmd *cobra.Command, args []string) error {
	startTime := time.Now()

	// =========================================================================
	// STEP 1: RESOLVE SCHEMA AND OUTPUT LOCATIONS
	// =========================================================================

	desc, err := schema.ForMode(mode)
	if err != nil {
		return err
	}

	if outputPath != "" && len(args) > 1 {
		return fmt.Errorf("--output works with a single input file, got %d", len(args))
	}

	dir := outputDir
	if dir == "" {
		dir = cfg.OutputDir
	}
	if err := utils.EnsureDirectories(dir); err != nil {
		return err
	}

	fmt.Println("=== Jira to XLSX Converter ===")
	fmt.Printf("Processing %d file(s) with the %s schema\n", len(args), desc.Name)

	// =========================================================================
	// STEP 2: BUILD THE PIPELINE
	// =========================================================================
	// One pipeline serves all files; it is safe for concurrent runs.

	sink := events.NewLogSink(log)
	pipe, err := pipeline.New(desc, pipeline.WithSink(sink))
	if err != nil {
		return err
	}

	csvSettings := csvparser.Settings{Delimiter: cfg.CSV.Delimiter}
	if delimiter != "" {
		csvSettings.Delimiter = delimiter
	}

	// =========================================================================
	// STEP 3: PROCESS FILES CONCURRENTLY
	// =========================================================================
	// One goroutine per file. Failures are carried in the per-file results,
	// so one bad file never cancels its siblings; only Ctrl-C does.

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results := make([]pipeline.Result, len(args))
	g, ctx := errgroup.WithContext(ctx)

	for i, file := range args {
		i, file := i, file // per-iteration copies: goroutines below must not share loop vars under go <1.22 semantics
		out := outputPath
		if out == "" {
			stem := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
			name := utils.GenerateOutputFileName(cfg.OutputNameFormat, stem, strings.ToLower(desc.Name))
			out = filepath.Join(dir, name)
		}

		g.Go(func() error {
			src := &csvparser.FileSource{Path: file, Settings: csvSettings, Sink: sink}
			results[i] = pipe.Run(ctx, src, out)
			return nil
		})
	}

	// Goroutines never return errors; per-file failures live in results.
	_ = g.Wait()

	// =========================================================================
	// STEP 4: REPORT RESULTS AND ARCHIVE INPUTS
	// =========================================================================

	var successCount, errorCount, totalRows int

	for i, result := range results {
		if result.Success {
			successCount++
			totalRows += result.RowsWritten
			fmt.Printf("  ✓ %s -> %s (%d rows)\n", filepath.Base(args[i]), result.OutputFile, result.RowsWritten)

			if archiveDir != "" {
				if _, err := utils.ArchiveFile(args[i], archiveDir); err != nil {
					log.Warn("failed to archive input", "file", args[i], "error", err)
				}
			}
		} else {
			errorCount++
			fmt.Printf("  ✗ %s: %v\n", filepath.Base(args[i]), result.Err)
		}
	}

	// =========================================================================
	// STEP 5: PRINT SUMMARY
	// =========================================================================

	elapsed := time.Since(startTime)
	fmt.Println("\n=== Processing Complete ===")
	fmt.Printf("Total files:     %d\n", len(args))
	fmt.Printf("Successful:      %d\n", successCount)
	fmt.Printf("Errors:          %d\n", errorCount)
	fmt.Printf("Rows written:    %d\n", totalRows)
	fmt.Printf("Time elapsed:    %s\n", elapsed)

	if errorCount > 0 {
		return fmt.Errorf("%d of %d file(s) failed", errorCount, len(args))
	}

	return nil
}
