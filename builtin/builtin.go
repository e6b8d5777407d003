// Package builtin registers the stock derivation and persistence
// strategies. Import it for side effects:
//
//	import _ "github.com/agentic-research/vantage/builtin"
//
// Derivers: file.bytes, file.text, text.concat, json.path, sqlite.query.
// Persisters: bytes (the "json" persister is registered by package view).
package builtin

import (
	"fmt"
	"os"
	"strings"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"

	"github.com/agentic-research/vantage/view"
)

func init() {
	view.RegisterDeriver("file.bytes", buildFileBytes)
	view.RegisterDeriver("file.text", buildFileText)
	view.RegisterDeriver("text.concat", buildConcat)
	view.RegisterDeriver("json.path", buildJSONPath)
	view.RegisterDeriver("sqlite.query", buildSQLiteQuery)
	view.RegisterPersister("bytes", buildBytesPersist)
}

// stringParam reads an optional string parameter.
func stringParam(params map[string]any, key string) (string, bool, error) {
	raw, ok := params[key]
	if !ok {
		return "", false, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", false, fmt.Errorf("param %q: expected string, got %T", key, raw)
	}
	return s, true, nil
}

// boolParam reads an optional bool parameter. String values "true"/"false"
// are accepted so HCL manifests (whose params are string-typed) work too.
func boolParam(params map[string]any, key string) (bool, error) {
	raw, ok := params[key]
	if !ok {
		return false, nil
	}
	switch t := raw.(type) {
	case bool:
		return t, nil
	case string:
		switch t {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return false, fmt.Errorf("param %q: expected bool, got %v (%T)", key, raw, raw)
}

// singlePath asserts a one-target invocation whose target is a path.
func singlePath(name string, args []any) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%s: expected exactly 1 target, got %d", name, len(args))
	}
	p, ok := args[0].(view.Path)
	if !ok {
		return "", fmt.Errorf("%s: expected a path target, got %T", name, args[0])
	}
	return string(p), nil
}

// file.bytes reads its single path target and returns the contents as []byte.
func buildFileBytes(params map[string]any) (view.DeriveFunc, error) {
	return func(args ...any) (any, error) {
		p, err := singlePath("file.bytes", args)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("file.bytes: %w", err)
		}
		return data, nil
	}, nil
}

// file.text reads its single path target and returns the contents as string.
func buildFileText(params map[string]any) (view.DeriveFunc, error) {
	return func(args ...any) (any, error) {
		p, err := singlePath("file.text", args)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("file.text: %w", err)
		}
		return string(data), nil
	}, nil
}

// text.concat joins its materialized targets with params["sep"] (default
// ""). Path targets are read from disk; string and []byte values are used
// as-is.
func buildConcat(params map[string]any) (view.DeriveFunc, error) {
	sep, _, err := stringParam(params, "sep")
	if err != nil {
		return nil, err
	}
	return func(args ...any) (any, error) {
		parts := make([]string, 0, len(args))
		for i, arg := range args {
			s, err := textValue(arg)
			if err != nil {
				return nil, fmt.Errorf("text.concat: target %d: %w", i, err)
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, sep), nil
	}, nil
}

func textValue(arg any) (string, error) {
	switch t := arg.(type) {
	case view.Path:
		data, err := os.ReadFile(string(t))
		if err != nil {
			return "", err
		}
		return string(data), nil
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	default:
		return "", fmt.Errorf("cannot treat %T as text", arg)
	}
}

// json.path extracts the JSONPath expression params["path"] from each JSON
// target. Path targets are parsed from disk; values produced by nested
// views are queried directly. A single target yields its extraction alone;
// several targets yield a slice in declaration order. params["all"] = true
// returns every match per target instead of the first.
func buildJSONPath(params map[string]any) (view.DeriveFunc, error) {
	exprStr, ok, err := stringParam(params, "path")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("json.path: missing required param %q", "path")
	}
	expr, err := jp.ParseString(exprStr)
	if err != nil {
		return nil, fmt.Errorf("json.path: invalid jsonpath %q: %w", exprStr, err)
	}
	all, err := boolParam(params, "all")
	if err != nil {
		return nil, err
	}
	return func(args ...any) (any, error) {
		out := make([]any, 0, len(args))
		for i, arg := range args {
			doc, err := jsonValue(arg)
			if err != nil {
				return nil, fmt.Errorf("json.path: target %d: %w", i, err)
			}
			matches := expr.Get(doc)
			switch {
			case all:
				out = append(out, matches)
			case len(matches) > 0:
				out = append(out, matches[0])
			default:
				out = append(out, nil)
			}
		}
		if len(out) == 1 {
			return out[0], nil
		}
		return out, nil
	}, nil
}

func jsonValue(arg any) (any, error) {
	switch t := arg.(type) {
	case view.Path:
		data, err := os.ReadFile(string(t))
		if err != nil {
			return nil, err
		}
		return oj.Parse(data)
	case []byte:
		return oj.Parse(t)
	case string:
		return oj.ParseString(t)
	default:
		// Already structured (e.g. a nested sqlite.query result).
		return t, nil
	}
}

// bytes writes []byte or string content to the destination verbatim.
func buildBytesPersist(params map[string]any) (view.PersistFunc, error) {
	return func(obj any, dest string) error {
		var data []byte
		switch t := obj.(type) {
		case []byte:
			data = t
		case string:
			data = []byte(t)
		default:
			return fmt.Errorf("bytes persist: cannot write %T verbatim", obj)
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return fmt.Errorf("bytes persist: %w", err)
		}
		return nil
	}, nil
}
