package view

import (
	"fmt"

	"github.com/ohler55/ojg/oj"
)

// Envelope format: a JSON document describing the view's definition.
// Target paths are stored as saved (absolute); FromPath fixes them up via
// rebasing when the file has moved. Caches are never encoded.

const (
	kindPath = "path"
	kindView = "view"
)

type viewEnvelope struct {
	Targets   []targetEnvelope `json:"targets"`
	Derive    funcEnvelope     `json:"derive"`
	Persist   *funcEnvelope    `json:"persist,omitempty"`
	SavedPath string           `json:"saved_path,omitempty"`
}

type targetEnvelope struct {
	Kind string        `json:"kind"`
	Path string        `json:"path,omitempty"`
	View *viewEnvelope `json:"view,omitempty"`
}

type funcEnvelope struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params,omitempty"`
}

func (v *View) envelope() *viewEnvelope {
	env := &viewEnvelope{
		Targets:   make([]targetEnvelope, len(v.targets)),
		Derive:    funcEnvelope{Name: v.derive.Name, Params: v.derive.Params},
		SavedPath: v.savedPath,
	}
	if v.persist != nil {
		env.Persist = &funcEnvelope{Name: v.persist.Name, Params: v.persist.Params}
	}
	for i, t := range v.targets {
		if t.view != nil {
			env.Targets[i] = targetEnvelope{Kind: kindView, View: t.view.envelope()}
			continue
		}
		env.Targets[i] = targetEnvelope{Kind: kindPath, Path: t.path}
	}
	return env
}

func (v *View) encode() ([]byte, error) {
	data, err := oj.Marshal(v.envelope())
	if err != nil {
		return nil, fmt.Errorf("encode view: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*View, error) {
	var env viewEnvelope
	if err := oj.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode view envelope: %w", err)
	}
	return decodeEnvelope(&env)
}

// decodeEnvelope rebuilds a View from its envelope, resolving strategy
// names through the registry. Fails when a strategy is unregistered or a
// target's declared kind is unrecognized.
func decodeEnvelope(env *viewEnvelope) (*View, error) {
	targets := make([]Target, len(env.Targets))
	for i, te := range env.Targets {
		switch te.Kind {
		case kindPath:
			if te.Path == "" {
				return nil, fmt.Errorf("target %d: empty path: %w", i, ErrMalformedTarget)
			}
			targets[i] = Target{path: te.Path}
		case kindView:
			if te.View == nil {
				return nil, fmt.Errorf("target %d: missing nested view: %w", i, ErrMalformedTarget)
			}
			nested, err := decodeEnvelope(te.View)
			if err != nil {
				return nil, fmt.Errorf("target %d: %w", i, err)
			}
			targets[i] = Target{view: nested}
		default:
			return nil, fmt.Errorf("target %d: kind %q: %w", i, te.Kind, ErrMalformedTarget)
		}
	}
	derive, err := Derive(env.Derive.Name, env.Derive.Params)
	if err != nil {
		return nil, err
	}
	v := &View{targets: targets, derive: derive, savedPath: env.SavedPath}
	if env.Persist != nil {
		persist, err := Persist(env.Persist.Name, env.Persist.Params)
		if err != nil {
			return nil, err
		}
		v.persist = persist
	}
	return v, nil
}
