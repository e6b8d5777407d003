package builtin

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/agentic-research/vantage/view"
)

// sqlite.query runs params["query"] against its single SQLite database
// target and returns the result set as []map[string]any, one map per row.
// []byte column values are widened to string so the result persists
// cleanly as JSON.
func buildSQLiteQuery(params map[string]any) (view.DeriveFunc, error) {
	query, ok, err := stringParam(params, "query")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("sqlite.query: missing required param %q", "query")
	}
	return func(args ...any) (any, error) {
		dbPath, err := singlePath("sqlite.query", args)
		if err != nil {
			return nil, err
		}
		return queryRows(dbPath, query)
	}, nil
}

func queryRows(dbPath, query string) ([]map[string]any, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	defer func() { _ = db.Close() }() // safe to ignore

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query sqlite %s: %w", dbPath, err)
	}
	defer func() { _ = rows.Close() }() // safe to ignore

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	var out []map[string]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			v := vals[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[c] = v
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
