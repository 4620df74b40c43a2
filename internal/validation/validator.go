// =============================================================================
// Jira to XLSX Converter - Validation Engine
// =============================================================================
//
// This module performs the last checks before a batch is written:
//
//   1. Row cleanup: rows whose key column is empty carry no usable ticket
//      reference and are dropped. The caller reports the dropped count so a
//      bad export is visible in the run log.
//   2. Schema enforcement: the output grid gets exactly the columns the
//      descriptor declares, in declared order, regardless of what the
//      derivation produced. Missing values become empty cells; surplus keys
//      are discarded.
//
// Cell-level normalization (dates, numerics) happens earlier, during
// derivation. By the time rows reach this module the only failure mode left
// is structural, and structural problems are corrected rather than reported:
// the grid shape is an invariant of the writer, not a user error.
//
// =============================================================================

package validation

import (
	"strings"

	"github.com/ginjaninja78/Jira-to-XLSX-conversion/internal/schema"
)

// =============================================================================
// ROW CLEANUP
// =============================================================================

// Clean drops rows whose key column is empty or whitespace and returns the
// surviving rows plus the dropped count. Row order is preserved.
func Clean(desc *schema.Descriptor, rows []map[string]string) (kept []map[string]string, dropped int) {
	kept = make([]map[string]string, 0, len(rows))

	for _, row := range rows {
		if strings.TrimSpace(row[desc.KeyColumn]) == "" {
			dropped++
			continue
		}
		kept = append(kept, row)
	}

	return kept, dropped
}

// =============================================================================
// SCHEMA ENFORCEMENT
// =============================================================================

// Enforce converts derived rows into the final cell grid. Every output row
// has exactly len(desc.Fields) cells, ordered as the descriptor declares
// them. Keys absent from a row fill an empty cell; keys the descriptor does
// not declare are dropped.
func Enforce(desc *schema.Descriptor, rows []map[string]string) [][]string {
	grid := make([][]string, 0, len(rows))

	for _, row := range rows {
		cells := make([]string, len(desc.Fields))
		for i, field := range desc.Fields {
			cells[i] = row[field.Header]
		}
		grid = append(grid, cells)
	}

	return grid
}
