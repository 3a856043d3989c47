package jit

import (
	"reflect"
	"strings"
	"testing"

	"matrixscript/pkg/ir"
)

func TestRunConstant(t *testing.T) {
	mod := ir.NewModule("test")
	fn := mod.NewFunction("answer", ir.Float)
	b := ir.NewBuilder()
	b.SetInsertBlock(fn.NewBlock("entry"))
	b.Ret(b.ConstFloat(42))

	e, err := NewEngine(mod)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	res, err := e.Run("answer")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Kind != ScalarResult || res.Scalar != 42 {
		t.Errorf("got %+v; want scalar 42", res)
	}
}

func TestRunStackSlot(t *testing.T) {
	mod := ir.NewModule("test")
	fn := mod.NewFunction("slot", ir.Float)
	b := ir.NewBuilder()
	b.SetInsertBlock(fn.NewBlock("entry"))

	slot := b.Alloca(ir.Float)
	b.Store(slot, b.ConstFloat(7.5))
	b.Ret(b.Load(slot, ir.Float))

	e, err := NewEngine(mod)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	res, err := e.Run("slot")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Scalar != 7.5 {
		t.Errorf("got %g; want 7.5", res.Scalar)
	}
}

// Sums 0..9 with two loop-carried phis to exercise simultaneous phi updates.
func TestRunLoopWithPhis(t *testing.T) {
	mod := ir.NewModule("test")
	fn := mod.NewFunction("sum", ir.Int)
	b := ir.NewBuilder()

	entry := fn.NewBlock("entry")
	loop := fn.NewBlock("loop")
	after := fn.NewBlock("after")

	b.SetInsertBlock(entry)
	zero := b.ConstInt(0)
	limit := b.ConstInt(10)
	b.Br(loop)

	b.SetInsertBlock(loop)
	i := b.Phi(ir.Int)
	acc := b.Phi(ir.Int)
	i.AddIncoming(entry, zero)
	acc.AddIncoming(entry, zero)

	accNext := b.IAdd(acc, i)
	next := b.IAdd(i, b.ConstInt(1))
	i.AddIncoming(loop, next)
	acc.AddIncoming(loop, accNext)
	b.CondBr(b.ICmpLT(next, limit), loop, after)

	b.SetInsertBlock(after)
	b.Ret(accNext)

	e, err := NewEngine(mod)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	res, err := e.Run("sum")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Scalar != 45 {
		t.Errorf("got %g; want 45", res.Scalar)
	}
}

// Builds a 1x2 matrix record by hand and checks the tagged decode.
func TestRunMatrixReturn(t *testing.T) {
	mod := ir.NewModule("test")
	fn := mod.NewFunction("mat", ir.Ptr)
	b := ir.NewBuilder()
	b.SetInsertBlock(fn.NewBlock("entry"))

	data := b.ArrayAlloc(b.ConstInt(2))
	b.Store(b.ElemAddr(data, b.ConstInt(0)), b.ConstFloat(3))
	b.Store(b.ElemAddr(data, b.ConstInt(1)), b.ConstFloat(4))

	rec := b.RecordAlloc(3)
	b.Store(b.FieldAddr(rec, 0), data)
	b.Store(b.FieldAddr(rec, 1), b.ConstInt(1))
	b.Store(b.FieldAddr(rec, 2), b.ConstInt(2))
	b.Ret(rec)

	e, err := NewEngine(mod)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	res, err := e.Run("mat")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Kind != MatrixResult {
		t.Fatalf("kind = %v; want MatrixResult", res.Kind)
	}
	m := res.Matrix
	if m.Rows != 1 || m.Cols != 2 {
		t.Errorf("dims = %dx%d; want 1x2", m.Rows, m.Cols)
	}
	if !reflect.DeepEqual(m.Data, []float64{3, 4}) {
		t.Errorf("data = %v; want [3 4]", m.Data)
	}
	if m.At(0, 1) != 4 {
		t.Errorf("At(0,1) = %g; want 4", m.At(0, 1))
	}
	if got := m.String(); got != "[[3, 4]]" {
		t.Errorf("String() = %q", got)
	}
}

func TestRunFunctionNotFound(t *testing.T) {
	mod := ir.NewModule("test")
	fn := mod.NewFunction("present", ir.Float)
	b := ir.NewBuilder()
	b.SetInsertBlock(fn.NewBlock("entry"))
	b.Ret(b.ConstFloat(0))

	e, err := NewEngine(mod)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if _, err := e.Run("absent"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("Run(absent) err = %v; want not-found error", err)
	}
}

func TestNewEngineRejectsUnterminatedBlock(t *testing.T) {
	mod := ir.NewModule("test")
	fn := mod.NewFunction("bad", ir.Float)
	b := ir.NewBuilder()
	b.SetInsertBlock(fn.NewBlock("entry"))
	b.ConstFloat(1) // no terminator

	if _, err := NewEngine(mod); err == nil || !strings.Contains(err.Error(), "not terminated") {
		t.Errorf("NewEngine err = %v; want unterminated-block error", err)
	}
}

func TestNewEngineRejectsMisplacedPhi(t *testing.T) {
	mod := ir.NewModule("test")
	fn := mod.NewFunction("bad", ir.Float)
	b := ir.NewBuilder()
	entry := fn.NewBlock("entry")
	b.SetInsertBlock(entry)
	c := b.ConstFloat(1)
	phi := b.Phi(ir.Float)
	phi.AddIncoming(entry, c)
	b.Ret(c)

	if _, err := NewEngine(mod); err == nil || !strings.Contains(err.Error(), "phi") {
		t.Errorf("NewEngine err = %v; want misplaced-phi error", err)
	}
}

// The heap arena only grows; repeated runs keep allocating fresh records.
func TestHeapNeverShrinks(t *testing.T) {
	mod := ir.NewModule("test")
	fn := mod.NewFunction("alloc", ir.Float)
	b := ir.NewBuilder()
	b.SetInsertBlock(fn.NewBlock("entry"))
	b.ArrayAlloc(b.ConstInt(8))
	b.Ret(b.ConstFloat(0))

	e, err := NewEngine(mod)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	before := e.HeapSize()
	if _, err := e.Run("alloc"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	mid := e.HeapSize()
	if _, err := e.Run("alloc"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	end := e.HeapSize()
	if !(before < mid && mid < end) {
		t.Errorf("heap sizes %d, %d, %d should be strictly increasing", before, mid, end)
	}
}
