package view

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Ext is the conventional extension for serialized view files.
const Ext = ".view"

// ErrNeverSaved is returned by FromPath when the decoded view carries no
// recorded save location, which makes relocation undecidable. It means the
// file was written by Dump rather than Save.
var ErrNeverSaved = errors.New("view has no recorded save path")

// Warnf is the non-fatal warning channel. Save reports unconventional
// extensions through it; embedders and tests may replace it.
var Warnf = func(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "vantage: warning: "+format+"\n", args...)
}

// Dump writes the view's definition to w. Caches are cleared first, so the
// serialized form never includes materialized values.
func (v *View) Dump(w io.Writer) error {
	data, err := v.DumpBytes()
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write view: %w", err)
	}
	return nil
}

// DumpBytes is Dump into a byte slice.
func (v *View) DumpBytes() ([]byte, error) {
	v.clearCache()
	return v.encode()
}

// Save writes the view's definition to path and records the location so a
// later FromPath can rebase targets if the file moves. A non-.view
// extension is reported through Warnf but does not abort the save.
func (v *View) Save(path string) error {
	abs, err := canonicalize(path)
	if err != nil {
		return err
	}
	// Recorded before encoding so the envelope carries the save location.
	v.savedPath = abs
	if filepath.Ext(abs) != Ext {
		Warnf("a %q extension is recommended for view files, got %q", Ext, filepath.Base(abs))
	}
	data, err := v.DumpBytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return fmt.Errorf("save view: %w", err)
	}
	return nil
}

// FromPath loads a view from path. When the file has moved since it was
// saved, every path target is rebased from the old parent directory to the
// new one — the relative layout between the view file and its targets must
// have been preserved.
func FromPath(path string) (*View, error) {
	abs, err := canonicalize(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("read view %s: %w", abs, err)
	}
	v, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("load view %s: %w", abs, err)
	}
	if v.savedPath == "" {
		return nil, fmt.Errorf("load view %s: %w", abs, ErrNeverSaved)
	}
	if v.savedPath != abs {
		if err := v.Rebase(filepath.Dir(v.savedPath), filepath.Dir(abs)); err != nil {
			return nil, err
		}
	}
	v.savedPath = abs
	return v, nil
}

// FromBytes decodes a view from an in-memory buffer. The result carries no
// save location — there is no context to rebase against — so its targets
// are used exactly as serialized.
func FromBytes(data []byte) (*View, error) {
	v, err := decode(data)
	if err != nil {
		return nil, err
	}
	v.savedPath = ""
	return v, nil
}
