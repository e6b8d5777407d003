package builtin

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/vantage/view"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func mustDerive(t *testing.T, name string, params map[string]any) *view.Func {
	t.Helper()
	fn, err := view.Derive(name, params)
	require.NoError(t, err)
	return fn
}

func TestFileText(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "hello")

	v, err := view.New(mustDerive(t, "file.text", nil), filepath.Join(dir, "a.txt"))
	require.NoError(t, err)

	got, err := v.Materialize()
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestFileBytes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.bin"), "\x00\x01")

	v, err := view.New(mustDerive(t, "file.bytes", nil), filepath.Join(dir, "a.bin"))
	require.NoError(t, err)

	got, err := v.Materialize()
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1}, got)
}

func TestFileTextRejectsMultipleTargets(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "a")
	writeFile(t, filepath.Join(dir, "b.txt"), "b")

	v, err := view.New(mustDerive(t, "file.text", nil),
		filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt"))
	require.NoError(t, err)

	_, err = v.Materialize()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected exactly 1 target")
}

func TestTextConcat(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "alpha")
	writeFile(t, filepath.Join(dir, "b.txt"), "beta")

	// Mix a path target with a nested view target.
	inner, err := view.New(mustDerive(t, "file.text", nil), filepath.Join(dir, "b.txt"))
	require.NoError(t, err)
	v, err := view.New(mustDerive(t, "text.concat", map[string]any{"sep": ", "}),
		filepath.Join(dir, "a.txt"), inner)
	require.NoError(t, err)

	got, err := v.Materialize()
	require.NoError(t, err)
	assert.Equal(t, "alpha, beta", got)
}

func TestJSONPath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "doc.json"),
		`{"store":{"books":[{"title":"one","price":5},{"title":"two","price":9}]}}`)

	v, err := view.New(
		mustDerive(t, "json.path", map[string]any{"path": "$.store.books[0].title"}),
		filepath.Join(dir, "doc.json"))
	require.NoError(t, err)

	got, err := v.Materialize()
	require.NoError(t, err)
	assert.Equal(t, "one", got)
}

func TestJSONPathAllMatches(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "doc.json"),
		`{"store":{"books":[{"title":"one"},{"title":"two"}]}}`)

	v, err := view.New(
		mustDerive(t, "json.path", map[string]any{"path": "$.store.books[*].title", "all": true}),
		filepath.Join(dir, "doc.json"))
	require.NoError(t, err)

	got, err := v.Materialize()
	require.NoError(t, err)
	assert.Equal(t, []any{"one", "two"}, got)
}

func TestJSONPathMissingParam(t *testing.T) {
	_, err := view.Derive("json.path", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path")
}

func TestSQLiteQuery(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "data.db")

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE metrics (name TEXT, value INTEGER)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO metrics VALUES ('cpu', 42), ('mem', 7)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	v, err := view.New(
		mustDerive(t, "sqlite.query", map[string]any{
			"query": "SELECT name, value FROM metrics ORDER BY name",
		}),
		dbPath)
	require.NoError(t, err)

	got, err := v.Materialize()
	require.NoError(t, err)
	rows, ok := got.([]map[string]any)
	require.True(t, ok)
	require.Len(t, rows, 2)
	assert.Equal(t, "cpu", rows[0]["name"])
	assert.Equal(t, int64(42), rows[0]["value"])
	assert.Equal(t, "mem", rows[1]["name"])
}

func TestSQLiteQueryRoundTrip(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "data.db")

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE t (x INTEGER)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO t VALUES (1)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	v, err := view.New(
		mustDerive(t, "sqlite.query", map[string]any{"query": "SELECT x FROM t"}),
		dbPath)
	require.NoError(t, err)

	viewPath := filepath.Join(dir, "t.view")
	require.NoError(t, v.Save(viewPath))

	loaded, err := view.FromPath(viewPath)
	require.NoError(t, err)
	got, err := loaded.Materialize()
	require.NoError(t, err)
	rows, ok := got.([]map[string]any)
	require.True(t, ok)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0]["x"])
}

func TestBytesPersist(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "raw-content")

	v, err := view.New(mustDerive(t, "file.text", nil), filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	p, err := view.Persist("bytes", nil)
	require.NoError(t, err)
	v.SetPersist(p)

	out := filepath.Join(dir, "out.txt")
	require.NoError(t, v.Solidify(out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "raw-content", string(data))
}
