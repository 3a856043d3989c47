package compiler

import (
	"fmt"
	"strings"
)

//  Expression nodes

// Expr is implemented by every node that produces a value.
type Expr interface {
	exprNode()
	String() string
}

// NumberLit is a floating-point constant.
//
//	let x = 10.5;
//	        ^^^^  NumberLit{Value: 10.5}
type NumberLit struct {
	Value float64
}

func (*NumberLit) exprNode()        {}
func (n *NumberLit) String() string { return fmt.Sprintf("%g", n.Value) }

// VarRef is a read of a named binding.
//
//	return x;
//	       ^  VarRef{Name: "x"}
type VarRef struct {
	Name string
}

func (*VarRef) exprNode()        {}
func (v *VarRef) String() string { return v.Name }

// BinaryExpr represents a binary operation: Left Op Right.
type BinaryExpr struct {
	Op    TokenType // PLUS, MINUS, STAR or SLASH
	Left  Expr
	Right Expr
}

func (*BinaryExpr) exprNode() {}
func (b *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, opSymbol(b.Op), b.Right)
}

func opSymbol(tt TokenType) string {
	switch tt {
	case PLUS:
		return "+"
	case MINUS:
		return "-"
	case STAR:
		return "*"
	case SLASH:
		return "/"
	}
	return tt.String()
}

// MatrixLit is a dense matrix literal. A flat literal [a, b] is stored as a
// single row. Row lengths are recorded exactly as parsed; rectangularity is
// checked at code generation.
type MatrixLit struct {
	Rows [][]Expr
}

func (*MatrixLit) exprNode() {}
func (m *MatrixLit) String() string {
	var rows []string
	for _, row := range m.Rows {
		var elems []string
		for _, e := range row {
			elems = append(elems, e.String())
		}
		rows = append(rows, "["+strings.Join(elems, ", ")+"]")
	}
	return "[" + strings.Join(rows, ", ") + "]"
}

//  Statement nodes

// Stmt is implemented by every node that does not produce a value.
type Stmt interface {
	stmtNode()
	String() string
}

// LetStmt represents  let name = expr;
type LetStmt struct {
	Name string
	Expr Expr
}

func (*LetStmt) stmtNode() {}
func (s *LetStmt) String() string {
	return fmt.Sprintf("LetStmt(%s = %s)", s.Name, s.Expr)
}

// ReturnStmt represents  return expr;
type ReturnStmt struct {
	Expr Expr
}

func (*ReturnStmt) stmtNode() {}
func (s *ReturnStmt) String() string {
	return fmt.Sprintf("ReturnStmt(%s)", s.Expr)
}

// Function represents  fn name() { body }. All functions are zero-arity.
type Function struct {
	Name string
	Body []Stmt
}

func (f *Function) String() string {
	return fmt.Sprintf("Function(%s, stmts=%d)", f.Name, len(f.Body))
}

// Program is the parsed compilation unit: functions in source order.
type Program struct {
	Functions []Function
}
