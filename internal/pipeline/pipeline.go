// =============================================================================
// Jira to XLSX Converter - Pipeline Module
// =============================================================================
//
// This module orchestrates one transformation run. It owns the phase
// sequence and nothing else; everything schema-specific lives in the
// descriptor the pipeline is built with.
//
// TRANSFORMATION PIPELINE:
//   Phase 1: Load the raw table from the source (CSV file or Jira fetch)
//   Phase 2: Reconcile headers against the descriptor and derive all fields
//   Phase 3: Drop rows without a key value, enforce column order
//   Phase 4: Write the styled workbook, falling back to plain once
//
// FAILURE POLICY:
//   Phases run strictly in order and the first failure is terminal: no
//   retries, no partial output file. The one exception is the write phase,
//   where a styled-output failure gets a single plain-format retry before
//   the run fails. Run never panics; a recover guard turns a programming
//   fault into a failed Result.
//
// CONCURRENCY:
//   A Pipeline is immutable after New and safe for concurrent Run calls;
//   each file is processed in its own goroutine by the CLI.
//
// =============================================================================

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ginjaninja78/Jira-to-XLSX-conversion/internal/events"
	"github.com/ginjaninja78/Jira-to-XLSX-conversion/internal/reconcile"
	"github.com/ginjaninja78/Jira-to-XLSX-conversion/internal/schema"
	"github.com/ginjaninja78/Jira-to-XLSX-conversion/internal/transform"
	"github.com/ginjaninja78/Jira-to-XLSX-conversion/internal/types"
	"github.com/ginjaninja78/Jira-to-XLSX-conversion/internal/validation"
	"github.com/ginjaninja78/Jira-to-XLSX-conversion/internal/xlsxwriter"
)

// =============================================================================
// SOURCE CONTRACT
// =============================================================================

// Source supplies the raw table a run starts from. csvparser.FileSource and
// jiraclient.SearchSource both satisfy it.
type Source interface {
	// Name describes the source for run messages (a file path, a fetch
	// description).
	Name() string

	// Load produces the raw table. It must honor ctx.
	Load(ctx context.Context) (*types.Table, error)
}

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result is the outcome of one run.
type Result struct {
	// RunID is a short random identifier tying events and result together.
	RunID string

	// Schema is the descriptor name the run used.
	Schema string

	// Source describes where the input came from.
	Source string

	// OutputFile is the path of the written workbook. Empty on failure.
	OutputFile string

	// Success reports whether the workbook was written.
	Success bool

	// RowsLoaded is the raw row count from the source.
	RowsLoaded int

	// RowsWritten is the number of data rows in the workbook.
	RowsWritten int

	// RowsDropped counts rows removed for a missing key value.
	RowsDropped int

	// Duration is the wall-clock time of the run.
	Duration time.Duration

	// Err is the terminal error. Nil when Success is true.
	Err error
}

// =============================================================================
// PIPELINE STRUCTURE
// =============================================================================

// Pipeline runs one descriptor's transformation. Create it with New.
type Pipeline struct {
	desc *schema.Descriptor
	sink events.Sink
	now  func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithSink routes run events to s. The default discards them.
func WithSink(s events.Sink) Option {
	return func(p *Pipeline) {
		if s != nil {
			p.sink = s
		}
	}
}

// WithClock replaces the clock the Month derivation reads. Tests pin it so
// output is reproducible.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// New builds a pipeline for the descriptor. The descriptor is validated
// once here so Run can trust it.
func New(desc *schema.Descriptor, opts ...Option) (*Pipeline, error) {
	if err := desc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema descriptor: %w", err)
	}

	p := &Pipeline{
		desc: desc,
		sink: events.Nop(),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the four phases against one source and returns the outcome.
// Errors come back inside the Result, never as a panic.
func (p *Pipeline) Run(ctx context.Context, src Source, outputPath string) (result Result) {
	start := time.Now()
	result = Result{
		RunID:  uuid.New().String()[:8],
		Schema: p.desc.Name,
		Source: src.Name(),
	}

	defer func() {
		if r := recover(); r != nil {
			result.Success = false
			result.OutputFile = ""
			result.Err = fmt.Errorf("internal fault: %v", r)
			events.Errorf(p.sink, events.PhaseNone, result.Err, "Run %s aborted.", result.RunID)
		}
		result.Duration = time.Since(start)
	}()

	// =========================================================================
	// PHASE 1: LOAD
	// =========================================================================

	events.Infof(p.sink, events.PhaseLoad, "Phase 1: Reading input from %s", src.Name())

	table, err := src.Load(ctx)
	if err != nil {
		return p.fail(result, events.PhaseLoad, fmt.Errorf("failed to load input: %w", err))
	}
	result.RowsLoaded = len(table.Rows)
	events.Infof(p.sink, events.PhaseLoad, "Loaded %d rows, %d columns.", table.RowCount, table.ColumnCount)

	if err := ctx.Err(); err != nil {
		return p.fail(result, events.PhaseLoad, err)
	}

	// =========================================================================
	// PHASE 2: TRANSFORM
	// =========================================================================

	events.Infof(p.sink, events.PhaseTransform, "Phase 2: Applying %s transformations...", p.desc.Name)

	binding, err := reconcile.Build(p.desc, table.Headers)
	if err != nil {
		return p.fail(result, events.PhaseTransform, err)
	}

	derived, err := transform.Derive(ctx, p.desc, binding, table.Rows, transform.Options{Now: p.now})
	if err != nil {
		return p.fail(result, events.PhaseTransform, err)
	}

	if err := ctx.Err(); err != nil {
		return p.fail(result, events.PhaseTransform, err)
	}

	// =========================================================================
	// PHASE 3: VALIDATE
	// =========================================================================

	events.Infof(p.sink, events.PhaseValidate, "Phase 3: Validating data...")

	kept, dropped := validation.Clean(p.desc, derived)
	result.RowsDropped = dropped
	if dropped > 0 {
		events.Warnf(p.sink, events.PhaseValidate, "Dropped %d rows with missing %ss.", dropped, p.desc.KeyColumn)
	}

	grid := validation.Enforce(p.desc, kept)

	if err := ctx.Err(); err != nil {
		return p.fail(result, events.PhaseValidate, err)
	}

	// =========================================================================
	// PHASE 4: WRITE
	// =========================================================================

	events.Infof(p.sink, events.PhaseWrite, "Phase 4: Writing output to %s", outputPath)

	basic := false
	if err := xlsxwriter.Write(outputPath, p.desc, grid); err != nil {
		events.Warnf(p.sink, events.PhaseWrite, "Failed to write styled output (%v); retrying with basic format.", err)

		if err := xlsxwriter.WritePlain(outputPath, p.desc, grid); err != nil {
			return p.fail(result, events.PhaseWrite, fmt.Errorf("fallback export also failed: %w", err))
		}
		basic = true
	}

	result.OutputFile = outputPath
	result.RowsWritten = len(grid)
	result.Success = true

	if basic {
		events.Infof(p.sink, events.PhaseNone, "SUCCESS: %s transformation complete (basic format).", p.desc.Name)
	} else {
		events.Infof(p.sink, events.PhaseNone, "SUCCESS: %s transformation complete.", p.desc.Name)
	}

	return result
}

// fail records a terminal error on the result and reports it.
func (p *Pipeline) fail(result Result, phase events.Phase, err error) Result {
	result.Success = false
	result.Err = err
	events.Errorf(p.sink, phase, err, "FAILED: %s transformation did not complete.", p.desc.Name)
	return result
}
