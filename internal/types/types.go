// =============================================================================
// Jira to XLSX Converter - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - csvparser
//   - jiraclient
//   - pipeline
//
// =============================================================================

package types

// =============================================================================
// RAW TABLE TYPES
// =============================================================================

// Table is the raw tabular shape every ingestion path produces: a Jira CSV
// export parsed from disk and a flattened REST search result have the exact
// same structure, so the transformation pipeline never knows where its input
// came from.
type Table struct {
	// Headers holds the source column names in file order.
	Headers []string

	// Rows holds one map per data row, keyed by header name.
	// Missing cells are filled with "" so every row has every header.
	Rows []map[string]string

	// Source describes where the table came from (file path or remote
	// search). Used in messages only.
	Source string

	// RowCount is the number of data rows (header excluded).
	RowCount int

	// ColumnCount is the number of header columns.
	ColumnCount int
}
