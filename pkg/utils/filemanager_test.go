package utils

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	first := filepath.Join(base, "output")
	second := filepath.Join(base, "archive", "nested")

	require.NoError(t, EnsureDirectories(first, "", second))

	for _, dir := range []string{first, second} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}

	// Existing directories are fine.
	assert.NoError(t, EnsureDirectories(first))
}

func TestGenerateOutputFileName_StemAndMode(t *testing.T) {
	name := GenerateOutputFileName("{stem}_{mode}.xlsx", "export", "msm")
	assert.Equal(t, "export_msm.xlsx", name)
}

func TestGenerateOutputFileName_TimestampAndDate(t *testing.T) {
	name := GenerateOutputFileName("{stem}_{timestamp}", "export", "msm")
	assert.Regexp(t, regexp.MustCompile(`^export_\d{8}_\d{6}\.xlsx$`), name)

	name = GenerateOutputFileName("{date}_{mode}.xlsx", "export", "applens")
	assert.Regexp(t, regexp.MustCompile(`^\d{4}-\d{2}-\d{2}_applens\.xlsx$`), name)
}

func TestGenerateOutputFileName_UUID(t *testing.T) {
	name := GenerateOutputFileName("{uuid}.xlsx", "export", "msm")
	id, err := uuid.Parse(name[:len(name)-len(".xlsx")])
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	other := GenerateOutputFileName("{uuid}.xlsx", "export", "msm")
	assert.NotEqual(t, name, other)
}

func TestGenerateOutputFileName_AppendsExtension(t *testing.T) {
	assert.Equal(t, "export.xlsx", GenerateOutputFileName("{stem}", "export", "msm"))
	assert.Equal(t, "export.csv", GenerateOutputFileName("{stem}.csv", "export", "msm"),
		"an explicit extension is kept")
}

func TestArchiveFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "export.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n"), 0o644))

	archiveDir := filepath.Join(dir, "archive")
	archived, err := ArchiveFile(path, archiveDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(archiveDir, "export.csv"), archived)

	content, err := os.ReadFile(archived)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(content))

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "original file is gone after archiving")
}

func TestArchiveFile_MissingSource(t *testing.T) {
	dir := t.TempDir()
	_, err := ArchiveFile(filepath.Join(dir, "nope.csv"), filepath.Join(dir, "archive"))
	assert.Error(t, err)
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "present.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	assert.True(t, FileExists(path))
	assert.False(t, FileExists(filepath.Join(dir, "absent.txt")))
}
