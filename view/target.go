package view

import (
	"fmt"
	"path/filepath"
)

// Path is a resolved filesystem path target. Derivers receive path targets
// as Path rather than string so they can tell "file to read" apart from an
// already-materialized string value produced by a nested view.
type Path string

// Target is a single dependency of a View: either an absolute canonical
// filesystem path or a nested view. Exactly one of the two is set.
type Target struct {
	path string
	view *View
}

// IsView reports whether the target is a nested view.
func (t Target) IsView() bool { return t.view != nil }

// Path returns the target's filesystem path, or "" for view targets.
func (t Target) Path() string { return t.path }

// View returns the nested view, or nil for path targets.
func (t Target) View() *View { return t.view }

// InvalidTargetError reports a target value of an unsupported type passed
// to New.
type InvalidTargetError struct {
	Value any
}

func (e *InvalidTargetError) Error() string {
	return fmt.Sprintf("got target type %T; expected string, Path, Target, or *View", e.Value)
}

// checkTarget validates and normalizes a raw target value. Strings and
// Paths are canonicalized; views and well-formed Targets pass through.
func checkTarget(raw any) (Target, error) {
	switch t := raw.(type) {
	case *View:
		if t == nil {
			return Target{}, &InvalidTargetError{Value: raw}
		}
		return Target{view: t}, nil
	case Target:
		if t.view == nil && t.path == "" {
			return Target{}, &InvalidTargetError{Value: raw}
		}
		return t, nil
	case Path:
		p, err := canonicalize(string(t))
		if err != nil {
			return Target{}, err
		}
		return Target{path: p}, nil
	case string:
		p, err := canonicalize(t)
		if err != nil {
			return Target{}, err
		}
		return Target{path: p}, nil
	default:
		return Target{}, &InvalidTargetError{Value: raw}
	}
}

// canonicalize resolves p to an absolute path, following symlinks when the
// path exists. Nonexistent paths are cleaned lexically so a view can be
// declared before its target file is written.
func canonicalize(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve path %q: %w", p, err)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real, nil
	}
	// Nonexistent leaf: resolve the parent instead, so the result matches
	// what EvalSymlinks will return once the file is written.
	if realDir, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		return filepath.Join(realDir, filepath.Base(abs)), nil
	}
	return filepath.Clean(abs), nil
}
