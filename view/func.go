package view

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/ohler55/ojg/oj"
)

// DeriveFunc computes a derived object from materialized target values,
// one argument per target in declaration order. Path targets arrive as
// Path; nested view targets arrive as whatever the nested view derived.
type DeriveFunc func(args ...any) (any, error)

// PersistFunc writes a materialized object to dest in some storage format.
type PersistFunc func(obj any, dest string) error

// DeriveBuilder constructs a DeriveFunc from serialized parameters.
type DeriveBuilder func(params map[string]any) (DeriveFunc, error)

// PersistBuilder constructs a PersistFunc from serialized parameters.
type PersistBuilder func(params map[string]any) (PersistFunc, error)

// ErrUnknownStrategy is returned when a derive or persist name has no
// registered builder, typically when loading a view in a process that
// never registered the strategies it was built with.
var ErrUnknownStrategy = errors.New("unknown strategy")

var registry = struct {
	mu         sync.RWMutex
	derivers   map[string]DeriveBuilder
	persisters map[string]PersistBuilder
}{
	derivers:   make(map[string]DeriveBuilder),
	persisters: make(map[string]PersistBuilder),
}

// RegisterDeriver makes a derivation strategy available under name. It
// panics on a nil builder or duplicate name, matching database/sql's
// driver registration contract, since registration happens in init.
func RegisterDeriver(name string, b DeriveBuilder) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if b == nil {
		panic("view: RegisterDeriver builder is nil")
	}
	if _, dup := registry.derivers[name]; dup {
		panic("view: RegisterDeriver called twice for " + name)
	}
	registry.derivers[name] = b
}

// RegisterPersister makes a persistence strategy available under name.
// Same contract as RegisterDeriver.
func RegisterPersister(name string, b PersistBuilder) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if b == nil {
		panic("view: RegisterPersister builder is nil")
	}
	if _, dup := registry.persisters[name]; dup {
		panic("view: RegisterPersister called twice for " + name)
	}
	registry.persisters[name] = b
}

// Func is a named, parameterized derivation or persistence strategy. The
// name and parameters are what a serialized view carries; the function
// itself is resolved through the process registry at construction or load
// time.
type Func struct {
	Name    string
	Params  map[string]any
	derive  DeriveFunc
	persist PersistFunc
}

// Derive resolves a registered derivation strategy and binds it to params.
func Derive(name string, params map[string]any) (*Func, error) {
	registry.mu.RLock()
	b := registry.derivers[name]
	registry.mu.RUnlock()
	if b == nil {
		return nil, fmt.Errorf("deriver %q: %w", name, ErrUnknownStrategy)
	}
	fn, err := b(params)
	if err != nil {
		return nil, fmt.Errorf("build deriver %q: %w", name, err)
	}
	return &Func{Name: name, Params: params, derive: fn}, nil
}

// Persist resolves a registered persistence strategy and binds it to params.
func Persist(name string, params map[string]any) (*Func, error) {
	registry.mu.RLock()
	b := registry.persisters[name]
	registry.mu.RUnlock()
	if b == nil {
		return nil, fmt.Errorf("persister %q: %w", name, ErrUnknownStrategy)
	}
	fn, err := b(params)
	if err != nil {
		return nil, fmt.Errorf("build persister %q: %w", name, err)
	}
	return &Func{Name: name, Params: params, persist: fn}, nil
}

// DefaultPersist is the persistence strategy Solidify falls back to when a
// view has none configured: the materialized object rendered as JSON in a
// single file.
const DefaultPersist = "json"

func init() {
	RegisterPersister(DefaultPersist, func(params map[string]any) (PersistFunc, error) {
		return func(obj any, dest string) error {
			data := []byte(oj.JSON(obj, 2))
			data = append(data, '\n')
			if err := os.WriteFile(dest, data, 0o644); err != nil {
				return fmt.Errorf("persist json: %w", err)
			}
			return nil
		}, nil
	})
}
