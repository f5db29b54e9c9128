package preprocess

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"letterflow/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareImagePassthrough(t *testing.T) {
	c := &Converter{Command: "convert", TmpDir: t.TempDir()}
	doc := &schema.Document{SourcePath: "input/scan.jpg", Stem: "scan"}

	require.NoError(t, c.Prepare(context.Background(), doc, false))
	assert.Equal(t, "input/scan.jpg", doc.PreparedPath)
	assert.Equal(t, 1, doc.PageCount)
}

func TestPrepareFailedConversion(t *testing.T) {
	c := &Converter{Command: "false", TmpDir: t.TempDir()}
	doc := &schema.Document{SourcePath: "input/scan.jpg", Stem: "scan"}

	err := c.Prepare(context.Background(), doc, true)
	require.Error(t, err)
	assert.Equal(t, schema.KindPreprocess, schema.KindOf(err))
}

func TestCleanTmp(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "scan.pdf"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(tmpDir, "nested"), 0o755))

	CleanTmp(tmpDir)

	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
