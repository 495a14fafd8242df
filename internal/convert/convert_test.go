package convert

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePDF(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Transport Schedule 150124.pdf")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func requireTool(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available", name)
	}
}

func TestExec_Placeholder(t *testing.T) {
	requireTool(t, "cat")
	path := writePDF(t, "Time,Vehicle\n0830,Bus 1\n")

	out, err := Exec{Argv: []string{"cat", "{input}"}}.Convert(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Time,Vehicle\n0830,Bus 1\n", out)
}

func TestExec_AppendsPathWithoutPlaceholder(t *testing.T) {
	assert.Equal(t, []string{"tool", "-x", "/a.pdf"}, Exec{Argv: []string{"tool", "-x"}}.expand("/a.pdf"))
	assert.Equal(t, []string{"tool", "--in=/a.pdf"}, Exec{Argv: []string{"tool", "--in={input}"}}.expand("/a.pdf"))
}

func TestExec_Errors(t *testing.T) {
	path := writePDF(t, "x")

	_, err := Exec{}.Convert(context.Background(), path)
	assert.ErrorIs(t, err, ErrNoCommand)

	_, err = Exec{Argv: []string{"cat"}}.Convert(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"))
	assert.ErrorContains(t, err, "pdf not found")

	requireTool(t, "sh")
	_, err = Exec{Argv: []string{"sh", "-c", "echo broken >&2; exit 3", "{input}"}}.Convert(context.Background(), path)
	assert.ErrorContains(t, err, "broken")
}

func TestExec_Cancelled(t *testing.T) {
	requireTool(t, "sleep")
	path := writePDF(t, "x")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := Exec{Argv: []string{"sleep", "5"}}.Convert(ctx, path)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFunc(t *testing.T) {
	var c Converter = Func(func(_ context.Context, p string) (string, error) { return "csv:" + p, nil })
	out, err := c.Convert(context.Background(), "a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "csv:a.pdf", out)
}
