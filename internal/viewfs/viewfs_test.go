package viewfs

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/agentic-research/vantage/builtin"
	"github.com/agentic-research/vantage/view"
)

// buildView saves a file.text view over a data file and returns nothing;
// the view lands at <root>/<name>.view.
func buildView(t *testing.T, root, name, dataPath string) {
	t.Helper()
	fn, err := view.Derive("file.text", nil)
	require.NoError(t, err)
	v, err := view.New(fn, dataPath)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(root, name)), 0o755))
	require.NoError(t, v.Save(filepath.Join(root, name+view.Ext)))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestOpenMaterializesView(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "data.txt"), "rendered content")
	buildView(t, root, "report", filepath.Join(root, "data.txt"))

	fs, err := New(root)
	require.NoError(t, err)

	f, err := fs.Open("/report")
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "rendered content", string(data))
}

func TestOpenCachesRendering(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "data.txt"), "first")
	buildView(t, root, "report", filepath.Join(root, "data.txt"))

	fs, err := New(root)
	require.NoError(t, err)

	_, err = fs.Stat("/report")
	require.NoError(t, err)

	// Changing the target after first access must not change the content:
	// the rendering is cached for the life of the filesystem.
	writeFile(t, filepath.Join(root, "data.txt"), "second")
	f, err := fs.Open("/report")
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

func TestReadDirListsViewsAndIndex(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "data.txt"), "x")
	buildView(t, root, "alpha", filepath.Join(root, "data.txt"))
	buildView(t, root, filepath.Join("nested", "beta"), filepath.Join(root, "data.txt"))

	fs, err := New(root)
	require.NoError(t, err)

	infos, err := fs.ReadDir("/")
	require.NoError(t, err)

	names := make([]string, 0, len(infos))
	for _, fi := range infos {
		names = append(names, fi.Name())
	}
	assert.Contains(t, names, "_index.json")
	assert.Contains(t, names, "alpha")
	assert.Contains(t, names, "nested")
	// The raw data file is not part of the projection.
	assert.NotContains(t, names, "data.txt")

	f, err := fs.Open("/_index.json")
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Contains(t, string(data), "/alpha")
	assert.Contains(t, string(data), "/nested/beta")
}

func TestStatSubdirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "data.txt"), "x")
	buildView(t, root, filepath.Join("nested", "beta"), filepath.Join(root, "data.txt"))

	fs, err := New(root)
	require.NoError(t, err)

	fi, err := fs.Stat("/nested")
	require.NoError(t, err)
	assert.True(t, fi.IsDir())

	fi, err = fs.Stat("/nested/beta")
	require.NoError(t, err)
	assert.False(t, fi.IsDir())
	assert.Equal(t, int64(1), fi.Size())
}

func TestReadOnly(t *testing.T) {
	root := t.TempDir()
	fs, err := New(root)
	require.NoError(t, err)

	_, err = fs.Create("/x")
	require.Error(t, err)
	require.Error(t, fs.Remove("/x"))
	require.Error(t, fs.Rename("/x", "/y"))
	require.Error(t, fs.MkdirAll("/d", 0o755))
	_, err = fs.OpenFile("/x", os.O_WRONLY, 0o644)
	require.Error(t, err)
}

func TestOpenMissingView(t *testing.T) {
	root := t.TempDir()
	fs, err := New(root)
	require.NoError(t, err)

	_, err = fs.Open("/nope")
	require.ErrorIs(t, err, os.ErrNotExist)
}
