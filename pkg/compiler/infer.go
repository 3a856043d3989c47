package compiler

import "fmt"

// ReturnKind classifies a function's return value, which picks its native
// return representation: a double for Scalar, a matrix-record pointer for
// Matrix.
type ReturnKind uint8

const (
	ScalarKind ReturnKind = iota
	MatrixKind
)

func (k ReturnKind) String() string {
	if k == MatrixKind {
		return "Matrix"
	}
	return "Scalar"
}

// InferReturnKind walks a function body once, forward, tracking the kind of
// every let-bound name. The first return statement decides the function's
// kind; a body with no return defaults to Scalar. Referencing a name before
// it is bound is an error.
func InferReturnKind(fn *Function) (ReturnKind, error) {
	locals := make(map[string]ReturnKind)
	for _, stmt := range fn.Body {
		switch s := stmt.(type) {
		case *LetStmt:
			k, err := exprKind(s.Expr, locals)
			if err != nil {
				return ScalarKind, err
			}
			locals[s.Name] = k
		case *ReturnStmt:
			return exprKind(s.Expr, locals)
		}
	}
	return ScalarKind, nil
}

func exprKind(e Expr, locals map[string]ReturnKind) (ReturnKind, error) {
	switch n := e.(type) {
	case *NumberLit:
		return ScalarKind, nil
	case *MatrixLit:
		return MatrixKind, nil
	case *VarRef:
		k, ok := locals[n.Name]
		if !ok {
			return ScalarKind, fmt.Errorf("unbound identifier %q", n.Name)
		}
		return k, nil
	case *BinaryExpr:
		lhs, err := exprKind(n.Left, locals)
		if err != nil {
			return ScalarKind, err
		}
		rhs, err := exprKind(n.Right, locals)
		if err != nil {
			return ScalarKind, err
		}
		if lhs == MatrixKind || rhs == MatrixKind {
			return MatrixKind, nil
		}
		return ScalarKind, nil
	default:
		return ScalarKind, fmt.Errorf("unhandled expression node %T", e)
	}
}
