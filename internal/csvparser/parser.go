// =============================================================================
// Jira to XLSX Converter - CSV Parser Module
// =============================================================================
//
// This module parses Jira CSV exports into the raw table the pipeline
// consumes. It handles the variations real exports show up with:
//   - Different delimiters (comma, pipe, tab, semicolon)
//   - Quoted fields that do not follow strict CSV rules
//   - Rows with fewer cells than the header row
//   - Files saved in a legacy single-byte encoding instead of UTF-8
//
// ENCODING:
//   Files are decoded as UTF-8 first. When the bytes are not valid UTF-8 the
//   parser retries once through a latin-1 decoder and reports a warning.
//   Only a file that survives neither decode fails the batch.
//
// =============================================================================

package csvparser

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/ginjaninja78/Jira-to-XLSX-conversion/internal/events"
	"github.com/ginjaninja78/Jira-to-XLSX-conversion/internal/types"
)

// ctxCheckInterval is how many CSV records are read between context checks,
// so a cancelled run stops between row batches instead of at EOF.
const ctxCheckInterval = 500

// =============================================================================
// SETTINGS
// =============================================================================

// Settings controls how the CSV file is parsed.
type Settings struct {
	// Delimiter is the character separating fields. Besides literal
	// characters the names "tab", "pipe" and "semicolon" are accepted.
	// Empty means comma.
	Delimiter string
}

// configureReader applies the settings to a csv.Reader.
func configureReader(reader *csv.Reader, settings Settings) {
	switch settings.Delimiter {
	case "\\t", "\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		if len(settings.Delimiter) > 0 {
			reader.Comma = rune(settings.Delimiter[0])
		} else {
			reader.Comma = ','
		}
	}

	// Jira exports are ragged: rows may have fewer cells than headers, and
	// summaries can contain stray quotes.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a delimited export file into a raw table.
//
// The first record is the header row; headers are trimmed and empty headers
// get a positional placeholder name. Data rows are trimmed, short rows are
// padded with empty strings, and fully empty rows are skipped. An empty file
// or a header-only file yields an empty table, not an error: whether that is
// acceptable is the schema's call, not the loader's.
//
// Load-time diagnostics (currently only the encoding fallback) are reported
// through sink; a nil sink discards them.
func Parse(ctx context.Context, path string, settings Settings, sink events.Sink) (*types.Table, error) {
	if sink == nil {
		sink = events.Nop()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	decoded, err := decode(raw, sink)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	configureReader(reader, settings)

	var (
		headers []string
		rows    []map[string]string
		read    int
	)

	for {
		if read%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV: %w", err)
		}
		read++

		if headers == nil {
			headers = cleanHeaders(record)
			continue
		}
		if isRowEmpty(record) {
			continue
		}
		rows = append(rows, rowToMap(headers, record))
	}

	if headers == nil {
		headers = []string{}
	}

	return &types.Table{
		Headers:     headers,
		Rows:        rows,
		Source:      path,
		RowCount:    len(rows),
		ColumnCount: len(headers),
	}, nil
}

// decode returns the file contents as UTF-8 text, falling back to latin-1
// for files the legacy tooling saved in a single-byte encoding.
func decode(raw []byte, sink events.Sink) ([]byte, error) {
	if utf8.Valid(raw) {
		return raw, nil
	}

	events.Warnf(sink, events.PhaseLoad, "UTF-8 decode failed, retrying with latin-1.")

	decoded, _, err := transform.Bytes(charmap.ISO8859_1.NewDecoder(), raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode file as UTF-8 or latin-1: %w", err)
	}
	return decoded, nil
}

// cleanHeaders trims header cells and names empty ones by position so every
// column stays addressable.
func cleanHeaders(record []string) []string {
	headers := make([]string, len(record))
	for i, header := range record {
		header = strings.TrimSpace(header)
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		headers[i] = header
	}
	return headers
}

// rowToMap converts one record into a header-keyed map. Cells beyond the
// header count are dropped; missing cells become empty strings.
func rowToMap(headers, record []string) map[string]string {
	row := make(map[string]string, len(headers))
	for i, header := range headers {
		if i < len(record) {
			row[header] = strings.TrimSpace(record[i])
		} else {
			row[header] = ""
		}
	}
	return row
}

// isRowEmpty reports whether every cell in the record is blank.
func isRowEmpty(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// =============================================================================
// PIPELINE SOURCE
// =============================================================================

// FileSource adapts a CSV file on disk to the pipeline's Source interface.
type FileSource struct {
	Path     string
	Settings Settings

	// Sink receives load-time diagnostics. Nil discards them.
	Sink events.Sink
}

// Name returns the file path for use in messages.
func (s *FileSource) Name() string {
	return s.Path
}

// Load parses the file into a raw table.
func (s *FileSource) Load(ctx context.Context) (*types.Table, error) {
	return Parse(ctx, s.Path, s.Settings, s.Sink)
}
