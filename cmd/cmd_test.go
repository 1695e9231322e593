package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/trellis/api/schemas"
)

func decode(t *testing.T, data string, v any) {
	t.Helper()
	require.NoError(t, jsoniter.ConfigCompatibleWithStandardLibrary.UnmarshalFromString(data, v))
}

func boxByID(t *testing.T, res schemas.RenderResult, id string) schemas.Box {
	t.Helper()
	for _, b := range res.Boxes {
		if b.ElementID == id {
			return b
		}
	}
	t.Fatalf("no box for #%s", id)
	return schemas.Box{}
}

func TestRenderHTMLToJSON(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir, "")
	doc := writeFile(t, dir, "page.html", boxPage)

	out, err := executeCommand(t, "render", doc, "--config", cfg, "--width", "300", "--height", "200")
	require.NoError(t, err)

	var res schemas.RenderResult
	decode(t, out, &res)
	assert.NotEmpty(t, res.PassID)
	assert.Equal(t, float32(300), res.Document.W)
	box := boxByID(t, res, "box")
	assert.Equal(t, schemas.Rect{X: 0, Y: 0, W: 120, H: 40}, box.Rect)
	assert.Equal(t, "div", box.Tag)
	assert.NotEmpty(t, res.Items)
}

func TestRenderJSONDocumentUsesItsViewport(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir, "")
	doc := writeFile(t, dir, "doc.json", `{
		"viewport": {"width": 320, "height": 100},
		"css": "body { margin: 0 }",
		"root": {"tag": "div", "id": "x", "style": "height: 30px", "children": [{"text": "hi"}]}
	}`)
	target := filepath.Join(dir, "out.json")

	_, err := executeCommand(t, "render", doc, "--config", cfg, "--width", "999", "-o", target, "--pretty")
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"pass_id\"")
	var res schemas.RenderResult
	decode(t, string(data), &res)
	assert.Equal(t, float32(320), res.Document.W)
	assert.Equal(t, float32(30), boxByID(t, res, "x").Rect.H)
}

func TestRenderSVGPages(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir, "")
	doc := writeFile(t, dir, "page.html", boxPage)

	out, err := executeCommand(t, "render", doc, "--config", cfg, "--format", "svg", "--width", "300", "--height", "50", "--paged", "--page", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "<svg")
	assert.Contains(t, out, `viewBox="0 0 300 50"`)

	_, err = executeCommand(t, "render", doc, "--config", cfg, "--format", "svg", "--width", "300", "--height", "50", "--paged", "--page", "9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestRenderMissingDocument(t *testing.T) {
	dir := t.TempDir()
	_, err := executeCommand(t, "render", filepath.Join(dir, "absent.html"), "--config", testConfig(t, dir, ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open document")

	_, err = executeCommand(t, "render")
	assert.Error(t, err, "a document argument is required")
}

func TestHitTest(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir, "")
	doc := writeFile(t, dir, "page.html", boxPage)

	out, err := executeCommand(t, "hittest", doc, "--config", cfg, "--x", "10", "--y", "10")
	require.NoError(t, err)
	var hit schemas.HitResult
	decode(t, out, &hit)
	assert.True(t, hit.Hit)
	assert.Equal(t, "box", hit.ElementID)
	require.NotNil(t, hit.Rect)
	assert.Equal(t, float32(120), hit.Rect.W)

	out, err = executeCommand(t, "hittest", doc, "--config", cfg, "--x", "10", "--y", "60")
	require.NoError(t, err)
	decode(t, out, &hit)
	assert.Equal(t, "tall", hit.ElementID)
}

func TestBatchRendersEveryDocument(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir, "")
	a := writeFile(t, dir, "a.html", boxPage)
	b := writeFile(t, dir, "b.html", `<html><body><p>second</p></body></html>`)
	outDir := filepath.Join(dir, "out")

	out, err := executeCommand(t, "batch", a, b, "--config", cfg, "--out-dir", outDir, "--jobs", "2")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], a+" -> "))

	for _, name := range []string{"a.json", "b.json"} {
		data, err := os.ReadFile(filepath.Join(outDir, name))
		require.NoError(t, err)
		var res schemas.RenderResult
		decode(t, string(data), &res)
		assert.NotEmpty(t, res.Boxes)
	}

	_, err = executeCommand(t, "batch", a, filepath.Join(dir, "absent.html"), "--config", cfg, "--out-dir", outDir)
	assert.Error(t, err)
}

func TestWatchAppliesEdits(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir, "")
	doc := writeFile(t, dir, "page.html", boxPage)
	edits := writeFile(t, dir, "edits.jsonl", `{"op":"style","target":"#box","value":"width: 60px; height: 40px"}`+"\n")
	target := filepath.Join(dir, "latest.json")

	out, err := executeCommand(t, "watch", doc, "--config", cfg, "--edits", edits, "--from-start", "--poll", "--frames", "2", "-o", target)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	var first, second schemas.FrameSummary
	decode(t, lines[0], &first)
	decode(t, lines[1], &second)
	assert.Equal(t, uint64(1), first.Seq)
	assert.Equal(t, uint64(2), second.Seq)
	assert.Equal(t, 1, second.Applied)
	assert.NotEqual(t, first.PassID, second.PassID)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	var res schemas.RenderResult
	decode(t, string(data), &res)
	assert.Equal(t, float32(60), boxByID(t, res, "box").Rect.W)

	_, err = executeCommand(t, "watch", doc, "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--edits")
}
