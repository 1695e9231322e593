package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// executeCommand runs a fresh command tree and returns everything it wrote.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

// writeFile creates name under dir with content and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// testConfig writes a config that keeps output deterministic: fixed-pitch
// fonts and quiet logs.
func testConfig(t *testing.T, dir string, extra string) string {
	t.Helper()
	return writeFile(t, dir, "trellis.yaml", `
logger:
  level: error
engine:
  fixed_pitch_fonts: true
`+extra)
}

const boxPage = `<html><head><style>
	body { margin: 0 }
	#box { width: 120px; height: 40px; background-color: #00ff00 }
	#tall { height: 120px }
</style></head><body><div id="box"></div><div id="tall"></div></body></html>`
