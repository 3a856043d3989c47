package compiler

import (
	"fmt"

	"matrixscript/pkg/grid"
	"matrixscript/pkg/ir"
)

// Matrix record field layout: {data ptr, rows, cols}.
const (
	fieldData = 0
	fieldRows = 1
	fieldCols = 2
	numFields = 3
)

// binding records where a let-bound name lives and how its stored word is
// to be interpreted on load.
type binding struct {
	slot  *ir.Value
	class ir.Class
}

// CodeGen lowers one Program into an ir.Module. The binding table is rebuilt
// from scratch for every function; nothing carries across.
type CodeGen struct {
	mod  *ir.Module
	b    *ir.Builder
	vars map[string]binding
}

// Generate lowers the program to IR. Each function's declared return class
// comes from the inference pass over the same body the generator walks, so
// the two agree; the Return lowering still asserts it.
func Generate(prog *Program) (*ir.Module, error) {
	cg := &CodeGen{
		mod: ir.NewModule("matrixscript"),
		b:   ir.NewBuilder(),
	}
	for i := range prog.Functions {
		if err := cg.genFunction(&prog.Functions[i]); err != nil {
			return nil, fmt.Errorf("function %q: %w", prog.Functions[i].Name, err)
		}
	}
	return cg.mod, nil
}

func retClass(kind ReturnKind) ir.Class {
	if kind == MatrixKind {
		return ir.Ptr
	}
	return ir.Float
}

func (cg *CodeGen) genFunction(fn *Function) error {
	kind, err := InferReturnKind(fn)
	if err != nil {
		return err
	}

	irFn := cg.mod.NewFunction(fn.Name, retClass(kind))
	entry := irFn.NewBlock("entry")
	cg.b.SetInsertBlock(entry)
	cg.vars = make(map[string]binding)

	for _, stmt := range fn.Body {
		if err := cg.genStmt(stmt); err != nil {
			return err
		}
	}

	// A body without a return falls off the end; complete it with the
	// Scalar default so every block stays terminated.
	if !cg.b.InsertBlock().Terminated() {
		cg.b.Ret(cg.b.ConstFloat(0))
	}
	return nil
}

func (cg *CodeGen) genStmt(stmt Stmt) error {
	switch s := stmt.(type) {
	case *LetStmt:
		val, err := cg.genExpr(s.Expr)
		if err != nil {
			return err
		}
		slot := cg.b.Alloca(val.Class)
		cg.b.Store(slot, val)
		// Re-binding overwrites: last write wins in the flat table.
		cg.vars[s.Name] = binding{slot: slot, class: val.Class}
		return nil

	case *ReturnStmt:
		val, err := cg.genExpr(s.Expr)
		if err != nil {
			return err
		}
		if declared := cg.b.InsertBlock().Func().Ret; val.Class != declared {
			return fmt.Errorf("return value class %s does not match declared %s", val.Class, declared)
		}
		cg.b.Ret(val)
		return nil

	default:
		return fmt.Errorf("unhandled statement node %T", stmt)
	}
}

func (cg *CodeGen) genExpr(expr Expr) (*ir.Value, error) {
	switch e := expr.(type) {
	case *NumberLit:
		return cg.b.ConstFloat(e.Value), nil

	case *VarRef:
		bind, ok := cg.vars[e.Name]
		if !ok {
			return nil, fmt.Errorf("unbound identifier %q", e.Name)
		}
		return cg.b.Load(bind.slot, bind.class), nil

	case *BinaryExpr:
		lhs, err := cg.genExpr(e.Left)
		if err != nil {
			return nil, err
		}
		rhs, err := cg.genExpr(e.Right)
		if err != nil {
			return nil, err
		}

		if lhs.Class == ir.Float && rhs.Class == ir.Float {
			switch e.Op {
			case PLUS:
				return cg.b.FAdd(lhs, rhs), nil
			case MINUS:
				return cg.b.FSub(lhs, rhs), nil
			case STAR:
				return cg.b.FMul(lhs, rhs), nil
			case SLASH:
				return cg.b.FDiv(lhs, rhs), nil
			}
			return nil, fmt.Errorf("unsupported scalar operator %s", opSymbol(e.Op))
		}
		if lhs.Class == ir.Ptr && rhs.Class == ir.Ptr {
			if e.Op != PLUS {
				return nil, fmt.Errorf("operator %s not supported for matrices", opSymbol(e.Op))
			}
			return cg.genMatrixAdd(lhs, rhs), nil
		}
		return nil, fmt.Errorf("type mismatch in binary operation: %s %s %s", lhs.Class, opSymbol(e.Op), rhs.Class)

	case *MatrixLit:
		return cg.genMatrixLit(e)

	default:
		return nil, fmt.Errorf("unhandled expression node %T", expr)
	}
}

// genMatrixLit allocates a flat row-major buffer plus a matrix record and
// fills both. Element count and positions are compile-time constants; only
// the element values are runtime computed.
func (cg *CodeGen) genMatrixLit(m *MatrixLit) (*ir.Value, error) {
	numRows := len(m.Rows)
	if numRows == 0 || len(m.Rows[0]) == 0 {
		return nil, fmt.Errorf("empty matrix literal")
	}
	numCols := len(m.Rows[0])
	for _, row := range m.Rows {
		if len(row) != numCols {
			return nil, fmt.Errorf("matrix rows must have same length")
		}
	}

	b := cg.b
	total := int64(numRows * numCols)
	data := b.ArrayAlloc(b.ConstInt(total))

	for i, row := range m.Rows {
		for j, elem := range row {
			val, err := cg.genExpr(elem)
			if err != nil {
				return nil, err
			}
			if val.Class != ir.Float {
				return nil, fmt.Errorf("matrix elements must be scalars")
			}
			offset := int64(grid.Index(i, j, numCols))
			b.Store(b.ElemAddr(data, b.ConstInt(offset)), val)
		}
	}

	rec := b.RecordAlloc(numFields)
	b.Store(b.FieldAddr(rec, fieldData), data)
	b.Store(b.FieldAddr(rec, fieldRows), b.ConstInt(int64(numRows)))
	b.Store(b.FieldAddr(rec, fieldCols), b.ConstInt(int64(numCols)))
	return rec, nil
}

// genMatrixAdd emits an element-wise addition loop over two matrix records.
// The loop bound comes from the left operand's dimensions only; the right
// operand's record is never consulted beyond its data pointer.
func (cg *CodeGen) genMatrixAdd(lhs, rhs *ir.Value) *ir.Value {
	b := cg.b
	fn := b.InsertBlock().Func()

	rows := b.Load(b.FieldAddr(lhs, fieldRows), ir.Int)
	cols := b.Load(b.FieldAddr(lhs, fieldCols), ir.Int)
	total := b.IMul(rows, cols)
	dest := b.ArrayAlloc(total)

	lhsData := b.Load(b.FieldAddr(lhs, fieldData), ir.Ptr)
	rhsData := b.Load(b.FieldAddr(rhs, fieldData), ir.Ptr)

	pre := b.InsertBlock()
	zero := b.ConstInt(0)
	loop := fn.NewBlock("loop")
	after := fn.NewBlock("after")
	b.Br(loop)

	// Loop header: the index merges 0 from entry with the incremented
	// value from the previous iteration.
	b.SetInsertBlock(loop)
	idx := b.Phi(ir.Int)
	idx.AddIncoming(pre, zero)

	lhsVal := b.Load(b.ElemAddr(lhsData, idx), ir.Float)
	rhsVal := b.Load(b.ElemAddr(rhsData, idx), ir.Float)
	b.Store(b.ElemAddr(dest, idx), b.FAdd(lhsVal, rhsVal))

	next := b.IAdd(idx, b.ConstInt(1))
	idx.AddIncoming(loop, next)
	b.CondBr(b.ICmpLT(next, total), loop, after)

	b.SetInsertBlock(after)
	rec := b.RecordAlloc(numFields)
	b.Store(b.FieldAddr(rec, fieldData), dest)
	b.Store(b.FieldAddr(rec, fieldRows), rows)
	b.Store(b.FieldAddr(rec, fieldCols), cols)
	return rec
}
