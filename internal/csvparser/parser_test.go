package csvparser

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/Jira-to-XLSX-conversion/internal/events"
)

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

// collectSink gathers emitted events into the given slice.
func collectSink(collected *[]events.Event) events.Sink {
	return events.SinkFunc(func(e events.Event) {
		*collected = append(*collected, e)
	})
}

func TestParse_CommaDefault(t *testing.T) {
	path := writeFile(t, "export.csv", []byte(
		"Issue Key,Status,Summary\nOPS-1,Done,\"Login, again\"\nOPS-2,Open,Slow search\n"))

	table, err := Parse(context.Background(), path, Settings{}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Issue Key", "Status", "Summary"}, table.Headers)
	assert.Equal(t, path, table.Source)
	assert.Equal(t, 2, table.RowCount)
	assert.Equal(t, 3, table.ColumnCount)
	assert.Equal(t, "Login, again", table.Rows[0]["Summary"])
	assert.Equal(t, "OPS-2", table.Rows[1]["Issue Key"])
}

func TestParse_Delimiters(t *testing.T) {
	cases := []struct {
		name      string
		delimiter string
		content   string
	}{
		{"pipe literal", "|", "A|B\n1|2\n"},
		{"pipe name", "pipe", "A|B\n1|2\n"},
		{"tab literal", "\t", "A\tB\n1\t2\n"},
		{"tab escaped", "\\t", "A\tB\n1\t2\n"},
		{"tab name", "tab", "A\tB\n1\t2\n"},
		{"semicolon", ";", "A;B\n1;2\n"},
		{"semicolon name", "semicolon", "A;B\n1;2\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, "export.csv", []byte(tc.content))
			table, err := Parse(context.Background(), path, Settings{Delimiter: tc.delimiter}, nil)
			require.NoError(t, err)
			assert.Equal(t, []string{"A", "B"}, table.Headers)
			require.Equal(t, 1, table.RowCount)
			assert.Equal(t, "1", table.Rows[0]["A"])
			assert.Equal(t, "2", table.Rows[0]["B"])
		})
	}
}

func TestParse_BlankHeadersGetPlaceholders(t *testing.T) {
	path := writeFile(t, "export.csv", []byte("Issue Key,,  ,Status\nOPS-1,x,y,Done\n"))

	table, err := Parse(context.Background(), path, Settings{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Issue Key", "Column_2", "Column_3", "Status"}, table.Headers)
	assert.Equal(t, "x", table.Rows[0]["Column_2"])
}

func TestParse_SkipsEmptyRows(t *testing.T) {
	path := writeFile(t, "export.csv", []byte("A,B\n1,2\n,\n  ,  \n3,4\n"))

	table, err := Parse(context.Background(), path, Settings{}, nil)
	require.NoError(t, err)
	require.Equal(t, 2, table.RowCount)
	assert.Equal(t, "1", table.Rows[0]["A"])
	assert.Equal(t, "3", table.Rows[1]["A"])
}

func TestParse_PadsShortRows(t *testing.T) {
	path := writeFile(t, "export.csv", []byte("A,B,C\n1,2\n"))

	table, err := Parse(context.Background(), path, Settings{}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "1", "B": "2", "C": ""}, table.Rows[0])
}

func TestParse_DropsCellsBeyondHeaders(t *testing.T) {
	path := writeFile(t, "export.csv", []byte("A,B\n1,2,3,4\n"))

	table, err := Parse(context.Background(), path, Settings{}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, table.Rows[0])
}

func TestParse_TrimsCellWhitespace(t *testing.T) {
	path := writeFile(t, "export.csv", []byte("A,B\n  1  ,  2\n"))

	table, err := Parse(context.Background(), path, Settings{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "1", table.Rows[0]["A"])
	assert.Equal(t, "2", table.Rows[0]["B"])
}

func TestParse_Latin1Fallback(t *testing.T) {
	// 0xE9 is not valid UTF-8 on its own; in latin-1 it is "é".
	path := writeFile(t, "legacy.csv", []byte("Name,City\nJos\xe9,Lyon\n"))

	var collected []events.Event
	table, err := Parse(context.Background(), path, Settings{}, collectSink(&collected))
	require.NoError(t, err)
	assert.Equal(t, "José", table.Rows[0]["Name"])

	require.Len(t, collected, 1)
	assert.Equal(t, events.Warning, collected[0].Severity)
	assert.Equal(t, events.PhaseLoad, collected[0].Phase)
	assert.Equal(t, "UTF-8 decode failed, retrying with latin-1.", collected[0].Message)
}

func TestParse_ValidUTF8EmitsNothing(t *testing.T) {
	path := writeFile(t, "export.csv", []byte("A\n1\n"))

	var collected []events.Event
	_, err := Parse(context.Background(), path, Settings{}, collectSink(&collected))
	require.NoError(t, err)
	assert.Empty(t, collected)
}

func TestParse_EmptyFile(t *testing.T) {
	path := writeFile(t, "empty.csv", nil)

	table, err := Parse(context.Background(), path, Settings{}, nil)
	require.NoError(t, err)
	assert.Empty(t, table.Headers)
	assert.Empty(t, table.Rows)
	assert.Zero(t, table.RowCount)
}

func TestParse_HeaderOnlyFile(t *testing.T) {
	path := writeFile(t, "headers.csv", []byte("A,B,C\n"))

	table, err := Parse(context.Background(), path, Settings{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, table.Headers)
	assert.Zero(t, table.RowCount)
}

func TestParse_MissingFile(t *testing.T) {
	_, err := Parse(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), Settings{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read file")
}

func TestParse_CanceledContext(t *testing.T) {
	path := writeFile(t, "export.csv", []byte("A\n1\n"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Parse(ctx, path, Settings{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileSource(t *testing.T) {
	path := writeFile(t, "export.csv", []byte("A\n1\n"))

	src := &FileSource{Path: path}
	assert.Equal(t, path, src.Name())

	table, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, table.RowCount)
}
