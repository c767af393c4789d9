package script

import (
	"context"
	"strings"

	"github.com/dop251/goja"

	"github.com/roach88/vellum/internal/store"
)

// newCapability builds the single argument passed to a script: always
// a store handle, plus fetchExternal for the Writer. Nothing else from
// the host is reachable; calling an undefined member fails loudly with
// a TypeError in the script.
func (r *Runner) newCapability(ctx context.Context, vm *goja.Runtime, writer bool) (goja.Value, error) {
	capability := vm.NewObject()

	storeObj, err := r.newStoreObject(ctx, vm)
	if err != nil {
		return nil, err
	}
	if err := capability.Set("store", storeObj); err != nil {
		return nil, err
	}

	if writer {
		if err := capability.Set("fetchExternal", r.newFetchFunc(ctx, vm)); err != nil {
			return nil, err
		}
	}

	return capability, nil
}

// newStoreObject exposes the scratch store to scripts. Store failures
// are thrown as catchable errors carrying the StoreError message, so a
// script can try/catch a bad statement without killing the run.
func (r *Runner) newStoreObject(ctx context.Context, vm *goja.Runtime) (*goja.Object, error) {
	obj := vm.NewObject()

	mutate := func(call goja.FunctionCall) goja.Value {
		stmt := call.Argument(0).String()
		params := exportParams(call.Arguments[1:])
		affected, err := r.store.Mutate(ctx, stmt, params...)
		if err != nil {
			panic(vm.NewGoError(err))
		}
		res := vm.NewObject()
		_ = res.Set("rowsAffected", affected)
		return res
	}

	// execute returns one { columns, values } result set per statement,
	// splitting on top-level semicolons.
	execute := func(call goja.FunctionCall) goja.Value {
		scriptSQL := call.Argument(0).String()
		params := exportParams(call.Arguments[1:])

		stmts := store.SplitStatements(scriptSQL)
		results := make([]any, 0, len(stmts))
		for _, stmt := range stmts {
			rs, err := r.store.Execute(ctx, stmt, params...)
			if err != nil {
				panic(vm.NewGoError(err))
			}
			results = append(results, map[string]any{
				"columns": rs.Columns,
				"values":  rs.Rows,
			})
		}
		return vm.ToValue(results)
	}

	listTables := func(call goja.FunctionCall) goja.Value {
		tables, err := r.store.ListTables(ctx)
		if err != nil {
			panic(vm.NewGoError(err))
		}
		return vm.ToValue(tables)
	}

	tableRows := func(call goja.FunctionCall) goja.Value {
		name := call.Argument(0).String()
		limit := store.DefaultTableRowLimit
		if v := call.Argument(1); !goja.IsUndefined(v) && !goja.IsNull(v) {
			limit = int(v.ToInteger())
		}
		rs, err := r.store.TableRows(ctx, name, limit)
		if err != nil {
			panic(vm.NewGoError(err))
		}
		return vm.ToValue(map[string]any{
			"columns": rs.Columns,
			"values":  rs.Rows,
		})
	}

	for name, fn := range map[string]func(goja.FunctionCall) goja.Value{
		"mutate":     mutate,
		"execute":    execute,
		"listTables": listTables,
		"tableRows":  tableRows,
	} {
		if err := obj.Set(name, fn); err != nil {
			return nil, err
		}
	}

	return obj, nil
}

// newFetchFunc exposes fetchExternal(url, method?). It never throws:
// every outcome is { data } or { error }, so scripts branch on the
// result instead of wrapping fetches in try/catch.
func (r *Runner) newFetchFunc(ctx context.Context, vm *goja.Runtime) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		url := call.Argument(0).String()
		method := "GET"
		if v := call.Argument(1); !goja.IsUndefined(v) && !goja.IsNull(v) {
			method = strings.ToUpper(v.String())
		}

		body, err := r.fetcher.Fetch(ctx, url, method)
		if err != nil {
			return vm.ToValue(map[string]any{"error": err.Error()})
		}
		return vm.ToValue(map[string]any{"data": body})
	}
}

// exportParams converts script call arguments to SQL parameters. A
// single array argument spreads, matching the params-as-array calling
// convention; otherwise each argument is one parameter.
func exportParams(args []goja.Value) []any {
	if len(args) == 0 {
		return nil
	}

	if len(args) == 1 {
		if arr, ok := args[0].Export().([]any); ok {
			return arr
		}
	}

	out := make([]any, len(args))
	for i, a := range args {
		out[i] = a.Export()
	}
	return out
}
