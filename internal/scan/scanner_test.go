package scan

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestScanInbox(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	touch(t, filepath.Join(dir, "b.eml"), base.Add(2*time.Hour))
	touch(t, filepath.Join(dir, "Transport Schedule 150124.pdf"), base)
	touch(t, filepath.Join(dir, "sub", "Transport Schedule 220124.CSV"), base.Add(time.Hour))
	touch(t, filepath.Join(dir, "notes.md"), base)
	touch(t, filepath.Join(dir, ".hidden.eml"), base)
	touch(t, filepath.Join(dir, ".git", "x.eml"), base)

	files, err := ScanInbox(dir)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, KindPDF, files[0].Kind)
	assert.Equal(t, KindText, files[1].Kind)
	assert.Equal(t, KindEmail, files[2].Kind)
	assert.Equal(t, filepath.Join(dir, "b.eml"), files[2].Path)
	assert.EqualValues(t, 1, files[2].Size)
}

func TestScanInbox_Missing(t *testing.T) {
	files, err := ScanInbox(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindText, KindOf("a.txt"))
	assert.Equal(t, KindEmail, KindOf("A.EML"))
	assert.Equal(t, "", KindOf("a.docx"))
}
