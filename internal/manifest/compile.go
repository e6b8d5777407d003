// Package manifest compiles declarative HCL view definitions into views.
package manifest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/agentic-research/vantage/api"
	"github.com/agentic-research/vantage/view"
)

// Compiled pairs a built view with the manifest name it was declared under.
type Compiled struct {
	Name string
	View *view.View
}

// Compile decodes an HCL manifest and builds each declared view. Relative
// target paths resolve against the manifest's directory; "@name" targets
// reference views declared earlier in the same file (forward references
// are an error, which also rules out cycles).
func Compile(path string) ([]Compiled, error) {
	var m api.Manifest
	if err := hclsimple.DecodeFile(path, nil, &m); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", path, err)
	}
	baseDir := filepath.Dir(path)

	byName := make(map[string]*view.View, len(m.Views))
	out := make([]Compiled, 0, len(m.Views))
	for _, vb := range m.Views {
		if _, dup := byName[vb.Name]; dup {
			return nil, fmt.Errorf("manifest %s: duplicate view %q", path, vb.Name)
		}
		targets := make([]any, 0, len(vb.Targets))
		for _, raw := range vb.Targets {
			if name, ok := strings.CutPrefix(raw, "@"); ok {
				ref, exists := byName[name]
				if !exists {
					return nil, fmt.Errorf("manifest %s: view %q references %q before it is declared", path, vb.Name, name)
				}
				targets = append(targets, ref)
				continue
			}
			p := raw
			if !filepath.IsAbs(p) {
				p = filepath.Join(baseDir, p)
			}
			targets = append(targets, p)
		}

		derive, err := view.Derive(vb.Derive.Name, paramsAny(vb.Derive.Params))
		if err != nil {
			return nil, fmt.Errorf("manifest %s: view %q: %w", path, vb.Name, err)
		}
		v, err := view.New(derive, targets...)
		if err != nil {
			return nil, fmt.Errorf("manifest %s: view %q: %w", path, vb.Name, err)
		}
		if vb.Persist != nil {
			p, err := view.Persist(vb.Persist.Name, paramsAny(vb.Persist.Params))
			if err != nil {
				return nil, fmt.Errorf("manifest %s: view %q: %w", path, vb.Name, err)
			}
			v.SetPersist(p)
		}

		byName[vb.Name] = v
		out = append(out, Compiled{Name: vb.Name, View: v})
	}
	return out, nil
}

// paramsAny widens HCL string params to the map the strategy registry
// expects. Builders that take non-string params accept their string forms
// (see builtin's boolParam).
func paramsAny(in map[string]string) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
