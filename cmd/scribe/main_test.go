package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	code := run(args, strings.NewReader(stdin), &out, &errOut)
	return result{code: code, stdout: out.String(), stderr: errOut.String()}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sampleHTML = "<h1>Title</h1><p>Body <strong>bold</strong></p>"

func TestVersion(t *testing.T) {
	r := runCLI(t, "", "version")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, "scribe dev")
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "doc.html", sampleHTML)

	r := runCLI(t, "", "convert", in, "--to", "text")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, "Title\n\nBody bold\n", r.stdout)

	r = runCLI(t, "", "convert", in)
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, "heading")

	// The JSON output converts back to the same HTML.
	jsonDoc := writeFile(t, dir, "doc.json", r.stdout)
	r = runCLI(t, "", "convert", jsonDoc, "--to", "html")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, "<strong>bold</strong>")
}

func TestConvertStdin(t *testing.T) {
	r := runCLI(t, "<p>from stdin</p>", "convert", "--from", "html", "--to", "text")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, "from stdin\n", r.stdout)
}

func TestConvertUnknownExtension(t *testing.T) {
	in := writeFile(t, t.TempDir(), "doc.md", "# hi")

	r := runCLI(t, "", "convert", in)
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "use --from")
}

func TestValidate(t *testing.T) {
	in := writeFile(t, t.TempDir(), "doc.html", sampleHTML)

	r := runCLI(t, "", "validate", in, "--not-empty", "--min-words", "2")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, "valid (3 words)\n", r.stdout)

	r = runCLI(t, "", "validate", in, "--max-words", "2")
	assert.Equal(t, 1, r.code)
	assert.NotEmpty(t, r.stdout)
	assert.Contains(t, r.stderr, "document is invalid")
}

func TestValidateMalformed(t *testing.T) {
	in := writeFile(t, t.TempDir(), "doc.json", `{"type":"doc","content":[{"type":"nope"}]}`)

	r := runCLI(t, "", "validate", in)
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "document is invalid")
}

func TestSchemaCommands(t *testing.T) {
	r := runCLI(t, "", "schema", "ls")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, "basic\nletter\n", r.stdout)

	r = runCLI(t, "", "schema", "show", "--schema", "basic")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, "schema basic (top doc")
	assert.Contains(t, r.stdout, "paragraph")
	assert.Contains(t, r.stdout, "MARK")

	r = runCLI(t, "", "schema", "show", "--schema", "invoice")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "unknown schema")
}

func TestStoreFileBackend(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SCRIBE_STORE", "file")
	t.Setenv("SCRIBE_STORE_DIR", filepath.Join(dir, "snapshots"))
	in := writeFile(t, dir, "doc.html", sampleHTML)

	r := runCLI(t, "", "store", "ls")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, "No snapshots found.\n", r.stdout)

	r = runCLI(t, "", "store", "save", "memo", in)
	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, "saved memo\n", r.stdout)

	r = runCLI(t, "", "store", "ls")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, "memo\n", r.stdout)

	r = runCLI(t, "", "store", "load", "memo", "--to", "text")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, "Title\n\nBody bold\n", r.stdout)

	r = runCLI(t, "", "store", "show", "memo")
	require.Equal(t, 0, r.code, r.stderr)
	assert.True(t, strings.HasPrefix(r.stdout, "memo: "))

	r = runCLI(t, "", "store", "rm", "memo")
	require.Equal(t, 0, r.code, r.stderr)

	r = runCLI(t, "", "store", "load", "memo")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "not found")
}

func TestStoreSaveInvalidID(t *testing.T) {
	t.Setenv("SCRIBE_STORE", "file")
	t.Setenv("SCRIBE_STORE_DIR", t.TempDir())

	r := runCLI(t, "<p>x</p>", "store", "save", "../escape", "--from", "html")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "invalid")
}

func TestStoreSaveMetrics(t *testing.T) {
	t.Setenv("SCRIBE_STORE", "file")
	t.Setenv("SCRIBE_STORE_DIR", t.TempDir())
	t.Setenv("SCRIBE_METRICS", "true")

	r := runCLI(t, "<p>x</p>", "store", "save", "memo", "--from", "html")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stderr, "scribe_document_size")
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "scribe.toml", "[schema]\nname = \"letter\"\n")

	r := runCLI(t, "", "schema", "show", "--config", cfg)
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, "schema letter")

	r = runCLI(t, "", "version", "--config", filepath.Join(dir, "absent.toml"))
	assert.Equal(t, 1, r.code)
}

func TestSchemaFile(t *testing.T) {
	dir := t.TempDir()
	spec := writeFile(t, dir, "notes.yaml", "topNode: doc\nnodes:\n  - name: doc\n    content: note+\n  - name: note\n    content: text*\n  - name: text\n")

	r := runCLI(t, "", "schema", "show", "--schema-file", spec)
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, "schema notes")
	assert.Contains(t, r.stdout, "note+")
}
