package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// testFont has one stale rule (E.left reads H.left, 40, but is 35) and a
// composite of A without rules.
const testFont = `glyphs:
  H: {left: 40, right: 40, width: 700, contours: 2}
  E: {left: 35, right: 20, width: 560, contours: 1}
  O: {left: 30, right: 30, width: 660, contours: 2}
  A: {left: 10, right: 10, width: 600, contours: 2}
  acutecomb: {bounds: [-60, 60], width: 0, contours: 1}
  Aacute:
    left: 10
    right: 10
    width: 600
    components: [{base: A}, {base: acutecomb, offset: 300}]
rules:
  E: {left: "=H"}
  O: {right: "=|"}
`

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeContext(t, context.Background(), nil, args...)
}

func executeContext(t *testing.T, ctx context.Context, out *syncBuffer, args ...string) (string, error) {
	t.Helper()
	if out == nil {
		out = &syncBuffer{}
	}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

// syncBuffer is a bytes.Buffer safe for a command writing from another
// goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
