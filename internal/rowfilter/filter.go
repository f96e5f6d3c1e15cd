// Package rowfilter evaluates user-configured boolean expressions against
// decoded rows, deciding which rows reach the table. Expressions are
// compiled once at startup and run per row; evaluation failures keep the
// row (soft-fail) so a bad expression degrades output, never drops data.
package rowfilter

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/tracekit/dtracecol/internal/colval"
)

// Filter is a compiled per-row predicate. Expressions see the row as
// `cols`, a map from output column name to the cell's native value,
// e.g. `cols.latency_ns > 1000000 && cols.req_path != "/healthz"`.
type Filter struct {
	source string
	prog   *vm.Program
}

// Compile pre-compiles an expression and type-checks it against the
// evaluation environment.
func Compile(expression string) (*Filter, error) {
	exprEnv := map[string]interface{}{
		"cols": map[string]interface{}{},
	}
	prog, err := expr.Compile(expression, expr.Env(exprEnv), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compiling row filter %q: %w", expression, err)
	}
	return &Filter{source: expression, prog: prog}, nil
}

// Source returns the original expression text.
func (f *Filter) Source() string { return f.source }

// Keep reports whether the row passes the filter. On evaluation error the
// row is kept and the error returned for logging.
func (f *Filter) Keep(colNames []string, cells []colval.Value) (bool, error) {
	cols := make(map[string]interface{}, len(cells))
	for i, name := range colNames {
		if i < len(cells) {
			cols[name] = cells[i].Native()
		}
	}

	out, err := expr.Run(f.prog, map[string]interface{}{"cols": cols})
	if err != nil {
		return true, fmt.Errorf("evaluating row filter %q: %w", f.source, err)
	}
	keep, ok := out.(bool)
	if !ok {
		return true, fmt.Errorf("row filter %q returned %T, want bool", f.source, out)
	}
	return keep, nil
}
