// Package deferunlock defines an analyzer that requires every Lock or RLock
// on a sync lock to be immediately followed by the matching deferred unlock.
package deferunlock

import (
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// Analyzer reports sync locks that are not released through defer.
// A lock released by a plain call stays held if the code in between panics.
var Analyzer = &analysis.Analyzer{
	Name:     "deferunlock",
	Doc:      "requires `defer x.Unlock()` right after `x.Lock()` (and RUnlock after RLock)",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

var unlockFor = map[string]string{
	"Lock":  "Unlock",
	"RLock": "RUnlock",
}

func run(pass *analysis.Pass) (interface{}, error) {
	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{
		(*ast.BlockStmt)(nil),
		(*ast.CaseClause)(nil),
		(*ast.CommClause)(nil),
	}
	inspect.Preorder(nodeFilter, func(n ast.Node) {
		var stmts []ast.Stmt
		switch n := n.(type) {
		case *ast.BlockStmt:
			stmts = n.List
		case *ast.CaseClause:
			stmts = n.Body
		case *ast.CommClause:
			stmts = n.Body
		}

		for i, stmt := range stmts {
			receiver, method, ok := syncLockCall(pass, stmt)
			if !ok {
				continue
			}

			if i+1 < len(stmts) && isDeferredUnlock(stmts[i+1], receiver, unlockFor[method]) {
				continue
			}

			pass.Reportf(stmt.Pos(), "%s without an immediately deferred %s", method, unlockFor[method])
		}
	})

	return nil, nil
}

// syncLockCall matches statements of the form `x.Lock()` or `x.RLock()`
// where the method belongs to package sync.
func syncLockCall(pass *analysis.Pass, stmt ast.Stmt) (string, string, bool) {
	exprStmt, ok := stmt.(*ast.ExprStmt)
	if !ok {
		return "", "", false
	}

	call, ok := exprStmt.X.(*ast.CallExpr)
	if !ok || len(call.Args) != 0 {
		return "", "", false
	}

	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		return "", "", false
	}
	if _, known := unlockFor[sel.Sel.Name]; !known {
		return "", "", false
	}

	fn, ok := pass.TypesInfo.Uses[sel.Sel].(*types.Func)
	if !ok || fn.Pkg() == nil || fn.Pkg().Path() != "sync" {
		return "", "", false
	}

	return types.ExprString(sel.X), sel.Sel.Name, true
}

func isDeferredUnlock(stmt ast.Stmt, receiver, unlock string) bool {
	deferStmt, ok := stmt.(*ast.DeferStmt)
	if !ok {
		return false
	}

	sel, ok := deferStmt.Call.Fun.(*ast.SelectorExpr)
	if !ok {
		return false
	}

	return sel.Sel.Name == unlock && types.ExprString(sel.X) == receiver
}
