// Package view implements lazy, serializable references to derived data.
//
// A View names an ordered set of targets — files on disk or other views —
// and a derivation strategy. Materializing the view recursively resolves
// its targets, applies the strategy, and caches the result in memory.
// Views are lightweight proxies for data that is easy to compute but
// expensive to store: the view's definition (not its value) round-trips
// through a small on-disk envelope and stays valid after the files move,
// as long as the relative layout between the view file and its targets is
// preserved.
//
// Derivation and persistence strategies are named, registry-resolved
// functions (see RegisterDeriver and RegisterPersister); a serialized view
// stores only the strategy name and its parameters.
package view

import (
	"errors"
	"fmt"
	"path/filepath"
)

// ErrMalformedTarget reports a target that is neither a path nor a nested
// view. Unreachable through New; guards zero-valued Targets and corrupt
// envelopes.
var ErrMalformedTarget = errors.New("malformed target")

// View is an unmaterialized reference to derived data. The zero value is
// not usable; construct views with New or load them with FromPath or
// FromBytes.
type View struct {
	targets []Target
	derive  *Func
	persist *Func

	// Cache slot: populated by the first Materialize, cleared at every
	// serialization boundary (Dump/DumpBytes/Save). Tri-state made
	// explicit so a nil derived value still counts as populated.
	cached bool
	cache  any

	// savedPath is the absolute location the serialized view was last
	// written to via Save; "" before any save. Only used to compute
	// rebase offsets when the file is loaded from somewhere else.
	savedPath string
}

// New builds a view over one or more targets. Each target may be a string
// (treated as a filesystem path), a Path, a Target, or a nested *View;
// anything else fails with *InvalidTargetError. Path targets are resolved
// to absolute canonical form at construction time.
//
// The dependency structure is a caller-constructed tree or DAG. Cycles are
// not detected and cause unbounded recursion at materialization time.
func New(derive *Func, targets ...any) (*View, error) {
	if derive == nil || derive.derive == nil {
		return nil, errors.New("view: derive strategy is nil or not a deriver")
	}
	if len(targets) == 0 {
		return nil, errors.New("view: at least one target is required")
	}
	ts := make([]Target, len(targets))
	for i, raw := range targets {
		t, err := checkTarget(raw)
		if err != nil {
			return nil, err
		}
		ts[i] = t
	}
	return &View{targets: ts, derive: derive}, nil
}

// SetPersist overrides the persistence strategy used by Solidify.
func (v *View) SetPersist(p *Func) { v.persist = p }

// Targets returns the view's dependency list, in declaration order.
func (v *View) Targets() []Target { return v.targets }

// Deriver returns the view's derivation strategy.
func (v *View) Deriver() *Func { return v.derive }

// Persister returns the configured persistence strategy, or nil when the
// default applies.
func (v *View) Persister() *Func { return v.persist }

// SavedPath returns the location the view was last saved to, or "" if it
// was never saved (or was loaded with FromBytes).
func (v *View) SavedPath() string { return v.savedPath }

// Materialize recursively resolves the view's targets in declaration order
// and applies the derivation strategy, computing at most once per
// in-memory instance. Later calls return the cached value without
// re-reading targets, even if the underlying files changed.
//
// Errors from nested views or from the strategy propagate unwrapped, and
// the cache stays unset so a retry after fixing the cause can succeed.
func (v *View) Materialize() (any, error) {
	if v.cached {
		return v.cache, nil
	}
	args := make([]any, len(v.targets))
	for i, t := range v.targets {
		if t.view != nil {
			obj, err := t.view.Materialize()
			if err != nil {
				return nil, err
			}
			args[i] = obj
			continue
		}
		args[i] = Path(t.path)
	}
	obj, err := v.derive.derive(args...)
	if err != nil {
		return nil, err
	}
	v.cache = obj
	v.cached = true
	return obj, nil
}

// Rebase rewrites every path target so that its position relative to
// newParent matches its original position relative to oldParent, and
// recurses into nested views in place, preserving their identity. Callers
// guarantee the targets were correct relative to oldParent; nothing is
// verified against the filesystem.
func (v *View) Rebase(oldParent, newParent string) error {
	for i := range v.targets {
		t := &v.targets[i]
		switch {
		case t.view != nil:
			if err := t.view.Rebase(oldParent, newParent); err != nil {
				return err
			}
		case t.path != "":
			rel, err := filepath.Rel(oldParent, t.path)
			if err != nil {
				return fmt.Errorf("rebase %s against %s: %w", t.path, oldParent, err)
			}
			t.path = filepath.Clean(filepath.Join(newParent, rel))
		default:
			return fmt.Errorf("target %d: %w", i, ErrMalformedTarget)
		}
	}
	return nil
}

// Solidify materializes the view and writes the result to dest using the
// configured persistence strategy (default: the generic JSON persister).
// The output is a concrete artifact, independent of the view's own
// serialized form.
func (v *View) Solidify(dest string) error {
	obj, err := v.Materialize()
	if err != nil {
		return err
	}
	p := v.persist
	if p == nil {
		p, err = Persist(DefaultPersist, nil)
		if err != nil {
			return err
		}
	}
	return p.persist(obj, dest)
}

// clearCache drops materialized values from this view and every nested
// view. Called at each serialization boundary so a dumped definition never
// carries a potentially huge derived value.
func (v *View) clearCache() {
	v.cached = false
	v.cache = nil
	for _, t := range v.targets {
		if t.view != nil {
			t.view.clearCache()
		}
	}
}
