// =============================================================================
// Jira to XLSX Converter - Fetch Command
// =============================================================================
//
// This file defines the 'fetch' command, which pulls worklog-bearing issues
// straight from a Jira Cloud site instead of reading an exported CSV.
//
// COMMAND USAGE:
//   jiraconvert fetch --start 2025-07-01 --end 2025-07-31 [flags]
//
// FLAGS:
//   --start        : Worklog window start date, YYYY-MM-DD (required)
//   --end          : Worklog window end date, YYYY-MM-DD (required)
//   --format       : Output format: csv (raw dump) or xlsx (default csv)
//   --mode, -m     : Transformation schema, required with --format xlsx
//   --output, -o   : Output file path
//   --pages        : Page cap override (0 = unbounded)
//
// CREDENTIALS:
//   Read from the environment, optionally seeded from a .env file in the
//   working directory: JIRA_URL, JIRA_EMAIL, JIRA_API_TOKEN and
//   JIRA_WORKLOG_AUTHORS (comma-separated). Credentials never live in
//   config.yaml.
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

	"github.com/ginjaninja78/Jira-to-XLSX-conversion/internal/config"
	"github.com/ginjaninja78/Jira-to-XLSX-conversion/internal/events"
	"github.com/ginjaninja78/Jira-to-XLSX-conversion/internal/jiraclient"
	"github.com/ginjaninja78/Jira-to-XLSX-conversion/internal/pipeline"
	"github.com/ginjaninja78/Jira-to-XLSX-conversion/internal/schema"
	"github.com/ginjaninja78/Jira-to-XLSX-conversion/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// fetchStart and fetchEnd bound the worklog date window (inclusive).
var fetchStart string
var fetchEnd string

// fetchFormat selects between a raw CSV dump and a transformed workbook.
var fetchFormat string

// fetchMode is the transformation schema for --format xlsx.
var fetchMode string

// fetchOutput is an explicit output file path.
var fetchOutput string

// fetchPages overrides the configured page cap when set.
var fetchPages int

// =============================================================================
// FETCH COMMAND DEFINITION
// =============================================================================

// fetchCmd represents the 'fetch' command.
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch worklog issues from Jira",
	Long: `The fetch command queries Jira for issues with worklogs by the configured
authors inside a date window, using cursor-based pagination.

With --format csv the raw flattened table is dumped as-is, ready to be fed
to 'process' later. With --format xlsx the fetched issues are piped straight
through a transformation schema and written as a workbook, with no
intermediate file.

Example Usage:
  jiraconvert fetch --start 2025-07-01 --end 2025-07-31
  jiraconvert fetch --start 2025-07-01 --end 2025-07-31 --format xlsx -m msm`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runFetch(cmd)
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init registers the fetch command with the root command and sets up flags.
func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVar(
		&fetchStart,
		"start",
		"",
		"Worklog window start date, YYYY-MM-DD (required)",
	)
	fetchCmd.MarkFlagRequired("start")

	fetchCmd.Flags().StringVar(
		&fetchEnd,
		"end",
		"",
		"Worklog window end date, YYYY-MM-DD (required)",
	)
	fetchCmd.MarkFlagRequired("end")

	fetchCmd.Flags().StringVar(
		&fetchFormat,
		"format",
		"csv",
		"Output format: csv (raw dump) or xlsx (transformed workbook)",
	)

	fetchCmd.Flags().StringVarP(
		&fetchMode,
		"mode",
		"m",
		"",
		"Transformation schema for --format xlsx: applens or msm",
	)

	fetchCmd.Flags().StringVarP(
		&fetchOutput,
		"output",
		"o",
		"",
		"Output file path",
	)

	fetchCmd.Flags().IntVar(
		&fetchPages,
		"pages",
		0,
		"Maximum pages to fetch, 0 for unbounded (overrides fetch.page_limit)",
	)
}

// =============================================================================
// MAIN FETCH FUNCTION
// =============================================================================

// runFetch queries Jira and writes the result in the requested format.
func runFetch(cmd *cobra.Command) error {
	// =========================================================================
	// STEP 1: VALIDATE FLAGS AND LOAD CREDENTIALS
	// =========================================================================

	for _, check := range []struct{ name, value string }{
		{"start", fetchStart},
		{"end", fetchEnd},
	} {
		if _, err := time.Parse("2006-01-02", check.value); err != nil {
			return fmt.Errorf("--%s must be a YYYY-MM-DD date, got %q", check.name, check.value)
		}
	}

	if fetchFormat != "csv" && fetchFormat != "xlsx" {
		return fmt.Errorf("unknown format %q: want csv or xlsx", fetchFormat)
	}

	creds, err := config.LoadCredentials(".env")
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 2: BUILD CLIENT AND QUERY
	// =========================================================================

	sink := events.NewLogSink(log)
	client := jiraclient.New(creds, cfg.Fetch, sink)

	query := jiraclient.Query{
		Authors: creds.Authors,
		Start:   fetchStart,
		End:     fetchEnd,
	}

	pageLimit := cfg.Fetch.PageLimit
	if cmd.Flags().Changed("pages") {
		pageLimit = fetchPages
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// =========================================================================
	// STEP 3: FETCH AND WRITE
	// =========================================================================

	if fetchFormat == "xlsx" {
		if fetchMode == "" {
			return fmt.Errorf("--mode is required with --format xlsx")
		}
		desc, err := schema.ForMode(fetchMode)
		if err != nil {
			return err
		}

		pipe, err := pipeline.New(desc, pipeline.WithSink(sink))
		if err != nil {
			return err
		}

		out := fetchOutput
		if out == "" {
			if err := utils.EnsureDirectories(cfg.OutputDir); err != nil {
				return err
			}
			stem := fmt.Sprintf("jira_%s_%s", fetchStart, fetchEnd)
			name := utils.GenerateOutputFileName(cfg.OutputNameFormat, stem, strings.ToLower(desc.Name))
			out = filepath.Join(cfg.OutputDir, name)
		}

		src := &jiraclient.SearchSource{Client: client, Query: query, PageLimit: pageLimit}
		result := pipe.Run(ctx, src, out)
		if !result.Success {
			return result.Err
		}

		fmt.Printf("Fetched %d issue(s) -> %s (%d rows written)\n", result.RowsLoaded, result.OutputFile, result.RowsWritten)
		return nil
	}

	table, err := client.Search(ctx, query, pageLimit)
	if err != nil {
		return err
	}

	if len(table.Rows) == 0 {
		fmt.Println("No tickets matched the query; nothing written.")
		return nil
	}

	out := fetchOutput
	if out == "" {
		if err := utils.EnsureDirectories(cfg.OutputDir); err != nil {
			return err
		}
		out = filepath.Join(cfg.OutputDir, fmt.Sprintf("jira_dump_%s.csv", time.Now().Format("20060102_150405")))
	}

	if err := jiraclient.WriteCSV(out, table); err != nil {
		return err
	}

	fmt.Printf("Saved Jira dump to %s (%d rows)\n", out, len(table.Rows))
	return nil
}
