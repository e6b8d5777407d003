// Package viewfs presents a directory tree of .view files as a read-only
// billy.Filesystem whose files hold the materialized bytes of each view.
// A view is loaded and materialized the first time anything stats or reads
// it; the rendered bytes are cached for the life of the filesystem. This
// is the bridge between vantage's views and go-nfs.
package viewfs

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/helper/chroot"
	"github.com/ohler55/ojg/oj"

	"github.com/agentic-research/vantage/view"
)

var errReadOnly = fmt.Errorf("read-only filesystem")

// indexName is the virtual file at the root listing every view served.
const indexName = "_index.json"

// FS serves the views found under a root directory. A file named
// reports/daily.view on disk appears as /reports/daily in the filesystem,
// containing the view's materialized bytes.
type FS struct {
	root      string // absolute directory holding .view files
	mountTime time.Time

	mu       sync.Mutex
	rendered map[string][]byte // clean fs path -> materialized bytes
}

// New creates a FS over root, which must be an existing directory.
func New(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", abs)
	}
	return &FS{
		root:      abs,
		mountTime: time.Now(),
		rendered:  make(map[string][]byte),
	}, nil
}

// render materializes the view backing the given fs path, caching the
// result. The path must already be known to map to a .view file.
func (fs *FS) render(name string) ([]byte, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if data, ok := fs.rendered[name]; ok {
		return data, nil
	}

	v, err := view.FromPath(fs.osView(name))
	if err != nil {
		return nil, err
	}
	obj, err := v.Materialize()
	if err != nil {
		return nil, fmt.Errorf("materialize %s: %w", name, err)
	}
	data := renderBytes(obj)
	fs.rendered[name] = data
	return data, nil
}

// renderBytes converts a materialized object to file content: bytes and
// strings pass through, anything structured renders as indented JSON.
func renderBytes(obj any) []byte {
	switch t := obj.(type) {
	case []byte:
		return t
	case string:
		return []byte(t)
	default:
		return append([]byte(oj.JSON(t, 2)), '\n')
	}
}

// osView maps a clean fs path to the backing .view file on disk.
func (fs *FS) osView(name string) string {
	return filepath.Join(fs.root, filepath.FromSlash(strings.TrimPrefix(name, "/"))+view.Ext)
}

// osDir maps a clean fs path to the corresponding on-disk directory.
func (fs *FS) osDir(name string) string {
	return filepath.Join(fs.root, filepath.FromSlash(strings.TrimPrefix(name, "/")))
}

// index renders the virtual _index.json: the fs path of every view under
// the root, sorted.
func (fs *FS) index() ([]byte, error) {
	var names []string
	err := filepath.Walk(fs.root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(p) != view.Ext {
			return nil
		}
		rel, err := filepath.Rel(fs.root, p)
		if err != nil {
			return err
		}
		rel = strings.TrimSuffix(filepath.ToSlash(rel), view.Ext)
		names = append(names, "/"+rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("index views: %w", err)
	}
	sort.Strings(names)
	return append([]byte(oj.JSON(names, 2)), '\n'), nil
}

// --- billy.Basic ---

func (fs *FS) Create(filename string) (billy.File, error) {
	return nil, errReadOnly
}

func (fs *FS) Open(filename string) (billy.File, error) {
	return fs.OpenFile(filename, os.O_RDONLY, 0)
}

func (fs *FS) OpenFile(filename string, flag int, perm os.FileMode) (billy.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_TRUNC) != 0 {
		return nil, errReadOnly
	}
	filename = cleanPath(filename)

	if filename == "/"+indexName {
		data, err := fs.index()
		if err != nil {
			return nil, err
		}
		return &bytesFile{name: indexName, data: data}, nil
	}

	if info, err := os.Stat(fs.osDir(filename)); err == nil && info.IsDir() {
		return nil, &os.PathError{Op: "open", Path: filename, Err: fmt.Errorf("is a directory")}
	}
	if _, err := os.Stat(fs.osView(filename)); err != nil {
		return nil, &os.PathError{Op: "open", Path: filename, Err: os.ErrNotExist}
	}

	data, err := fs.render(filename)
	if err != nil {
		return nil, &os.PathError{Op: "open", Path: filename, Err: err}
	}
	return &bytesFile{name: path.Base(filename), data: data}, nil
}

func (fs *FS) Stat(filename string) (os.FileInfo, error) {
	return fs.Lstat(filename)
}

func (fs *FS) Rename(oldpath, newpath string) error { return errReadOnly }
func (fs *FS) Remove(filename string) error         { return errReadOnly }

func (fs *FS) Join(elem ...string) string {
	return filepath.Join(elem...)
}

// --- billy.TempFile ---

func (fs *FS) TempFile(dir, prefix string) (billy.File, error) {
	return nil, billy.ErrNotSupported
}

// --- billy.Dir ---

func (fs *FS) ReadDir(p string) ([]os.FileInfo, error) {
	p = cleanPath(p)

	entries, err := os.ReadDir(fs.osDir(p))
	if err != nil {
		return nil, &os.PathError{Op: "readdir", Path: p, Err: os.ErrNotExist}
	}

	infos := make([]os.FileInfo, 0, len(entries)+1)
	if p == "/" {
		data, err := fs.index()
		if err != nil {
			return nil, err
		}
		infos = append(infos, &staticFileInfo{
			name:    indexName,
			size:    int64(len(data)),
			mode:    0o444,
			modTime: fs.mountTime,
		})
	}

	for _, e := range entries {
		if e.IsDir() {
			infos = append(infos, &staticFileInfo{
				name:    e.Name(),
				mode:    os.ModeDir | 0o555,
				modTime: fs.mountTime,
			})
			continue
		}
		if filepath.Ext(e.Name()) != view.Ext {
			continue
		}
		name := strings.TrimSuffix(e.Name(), view.Ext)
		data, err := fs.render(path.Join(p, name))
		if err != nil {
			// A broken view hides the entry rather than failing the listing.
			continue
		}
		infos = append(infos, &staticFileInfo{
			name:    name,
			size:    int64(len(data)),
			mode:    0o444,
			modTime: fs.mountTime,
		})
	}
	return infos, nil
}

func (fs *FS) MkdirAll(filename string, perm os.FileMode) error {
	return errReadOnly
}

// --- billy.Symlink ---

func (fs *FS) Lstat(filename string) (os.FileInfo, error) {
	filename = cleanPath(filename)

	if filename == "/" {
		return &staticFileInfo{name: "/", mode: os.ModeDir | 0o555, modTime: fs.mountTime}, nil
	}
	if filename == "/"+indexName {
		data, err := fs.index()
		if err != nil {
			return nil, err
		}
		return &staticFileInfo{
			name:    indexName,
			size:    int64(len(data)),
			mode:    0o444,
			modTime: fs.mountTime,
		}, nil
	}
	if info, err := os.Stat(fs.osDir(filename)); err == nil && info.IsDir() {
		return &staticFileInfo{
			name:    path.Base(filename),
			mode:    os.ModeDir | 0o555,
			modTime: fs.mountTime,
		}, nil
	}
	if _, err := os.Stat(fs.osView(filename)); err != nil {
		return nil, &os.PathError{Op: "lstat", Path: filename, Err: os.ErrNotExist}
	}

	data, err := fs.render(filename)
	if err != nil {
		return nil, &os.PathError{Op: "lstat", Path: filename, Err: err}
	}
	return &staticFileInfo{
		name:    path.Base(filename),
		size:    int64(len(data)),
		mode:    0o444,
		modTime: fs.mountTime,
	}, nil
}

func (fs *FS) Symlink(target, link string) error {
	return billy.ErrNotSupported
}

func (fs *FS) Readlink(link string) (string, error) {
	return "", billy.ErrNotSupported
}

// --- billy.Chroot ---

func (fs *FS) Chroot(p string) (billy.Filesystem, error) {
	return chroot.New(fs, p), nil
}

func (fs *FS) Root() string {
	return "/"
}

// --- billy.Capable ---

func (fs *FS) Capabilities() billy.Capability {
	return billy.ReadCapability | billy.SeekCapability
}

// cleanPath normalizes a billy path to a clean absolute path.
func cleanPath(p string) string {
	p = path.Clean("/" + filepath.ToSlash(p))
	if p == "." {
		return "/"
	}
	return p
}

// Compile-time interface checks.
var (
	_ billy.Filesystem = (*FS)(nil)
	_ billy.Capable    = (*FS)(nil)
)
