// Package jit compiles an ir.Module into a directly executable form and
// invokes its functions in-process. Each engine owns a word-addressed heap
// arena; generated code allocates from it and nothing is ever freed while
// the engine lives.
package jit

import (
	"fmt"
	"math"
	"strings"

	"matrixscript/pkg/grid"
	"matrixscript/pkg/ir"
)

// ResultKind tags what a Run call produced.
type ResultKind uint8

const (
	ScalarResult ResultKind = iota
	MatrixResult
)

// Matrix is a decoded matrix record: dimensions plus a row-major copy of the
// backing buffer taken at return time.
type Matrix struct {
	Rows, Cols int
	Data       []float64
}

// At returns the element at (row, col).
func (m *Matrix) At(row, col int) float64 {
	return m.Data[grid.Index(row, col, m.Cols)]
}

func (m *Matrix) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i := 0; i < m.Rows; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('[')
		for j := 0; j < m.Cols; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%g", m.At(i, j))
		}
		sb.WriteByte(']')
	}
	sb.WriteByte(']')
	return sb.String()
}

// Result is the tagged outcome of invoking a function: the kind follows the
// function's declared return representation, never a blind reinterpretation
// of the return register.
type Result struct {
	Kind   ResultKind
	Scalar float64
	Matrix *Matrix
}

// compiledBlock is a block split into its phi head and the remaining body.
type compiledBlock struct {
	phis []*ir.Value
	body []*ir.Value
}

type compiledFunc struct {
	fn     *ir.Function
	frame  int // register count
	blocks map[*ir.Block]*compiledBlock
}

// Engine executes functions from a single compiled module.
type Engine struct {
	mod   *ir.Module
	funcs map[string]*compiledFunc
	heap  []uint64
}

// NewEngine compiles every function in the module, validating block structure
// up front so Run never meets a malformed function.
func NewEngine(mod *ir.Module) (*Engine, error) {
	e := &Engine{
		mod:   mod,
		funcs: make(map[string]*compiledFunc),
		heap:  make([]uint64, 1), // word 0 is reserved as null
	}
	for _, fn := range mod.Funcs {
		cf, err := compileFunc(fn)
		if err != nil {
			return nil, fmt.Errorf("jit: function %q: %w", fn.Name, err)
		}
		e.funcs[fn.Name] = cf
	}
	return e, nil
}

func compileFunc(fn *ir.Function) (*compiledFunc, error) {
	if len(fn.Blocks) == 0 {
		return nil, fmt.Errorf("no blocks")
	}
	cf := &compiledFunc{
		fn:     fn,
		frame:  fn.NumValues(),
		blocks: make(map[*ir.Block]*compiledBlock, len(fn.Blocks)),
	}
	for _, blk := range fn.Blocks {
		if !blk.Terminated() {
			return nil, fmt.Errorf("block %q is not terminated", blk.Name)
		}
		cb := &compiledBlock{}
		inBody := false
		for i, in := range blk.Instrs {
			if in.Terminator() && i != len(blk.Instrs)-1 {
				return nil, fmt.Errorf("block %q has instructions after its terminator", blk.Name)
			}
			if in.Op == ir.OpPhi {
				if inBody {
					return nil, fmt.Errorf("block %q has a phi below its head", blk.Name)
				}
				cb.phis = append(cb.phis, in)
				continue
			}
			inBody = true
			cb.body = append(cb.body, in)
		}
		cf.blocks[blk] = cb
	}
	return cf, nil
}

// alloc reserves n zeroed words on the heap and returns the base address.
func (e *Engine) alloc(n int64) uint64 {
	base := uint64(len(e.heap))
	e.heap = append(e.heap, make([]uint64, n)...)
	return base
}

// HeapSize returns the arena size in words. It only ever grows: generated
// code never frees what it allocates.
func (e *Engine) HeapSize() int {
	return len(e.heap)
}

func (e *Engine) load(addr uint64) (uint64, error) {
	if addr == 0 || addr >= uint64(len(e.heap)) {
		return 0, fmt.Errorf("jit: load from invalid address %d", addr)
	}
	return e.heap[addr], nil
}

func (e *Engine) store(addr, val uint64) error {
	if addr == 0 || addr >= uint64(len(e.heap)) {
		return fmt.Errorf("jit: store to invalid address %d", addr)
	}
	e.heap[addr] = val
	return nil
}

// Run invokes the named zero-argument function and returns its result, tagged
// by the function's declared return representation.
func (e *Engine) Run(name string) (Result, error) {
	cf, ok := e.funcs[name]
	if !ok {
		return Result{}, fmt.Errorf("jit: function %q not found in compiled module", name)
	}

	regs := make([]uint64, cf.frame)
	var prev *ir.Block
	cur := cf.fn.Entry()

	for {
		cb := cf.blocks[cur]

		// Phis read their incoming registers before any of them are
		// overwritten, so a block of phis updates simultaneously.
		if len(cb.phis) > 0 {
			staged := make([]uint64, len(cb.phis))
			for i, phi := range cb.phis {
				val, err := phiIncoming(phi, prev)
				if err != nil {
					return Result{}, err
				}
				staged[i] = regs[val.ID]
			}
			for i, phi := range cb.phis {
				regs[phi.ID] = staged[i]
			}
		}

		var next *ir.Block
		for _, in := range cb.body {
			switch in.Op {
			case ir.OpConstFloat:
				regs[in.ID] = math.Float64bits(in.Float)
			case ir.OpConstInt:
				regs[in.ID] = uint64(in.Int)
			case ir.OpFAdd:
				regs[in.ID] = fop(regs[in.A.ID], regs[in.B.ID], func(x, y float64) float64 { return x + y })
			case ir.OpFSub:
				regs[in.ID] = fop(regs[in.A.ID], regs[in.B.ID], func(x, y float64) float64 { return x - y })
			case ir.OpFMul:
				regs[in.ID] = fop(regs[in.A.ID], regs[in.B.ID], func(x, y float64) float64 { return x * y })
			case ir.OpFDiv:
				regs[in.ID] = fop(regs[in.A.ID], regs[in.B.ID], func(x, y float64) float64 { return x / y })
			case ir.OpIAdd:
				regs[in.ID] = uint64(int64(regs[in.A.ID]) + int64(regs[in.B.ID]))
			case ir.OpIMul:
				regs[in.ID] = uint64(int64(regs[in.A.ID]) * int64(regs[in.B.ID]))
			case ir.OpICmpLT:
				if int64(regs[in.A.ID]) < int64(regs[in.B.ID]) {
					regs[in.ID] = 1
				} else {
					regs[in.ID] = 0
				}
			case ir.OpAlloca:
				regs[in.ID] = e.alloc(1)
			case ir.OpLoad:
				word, err := e.load(regs[in.A.ID])
				if err != nil {
					return Result{}, err
				}
				regs[in.ID] = word
			case ir.OpStore:
				if err := e.store(regs[in.A.ID], regs[in.B.ID]); err != nil {
					return Result{}, err
				}
			case ir.OpArrayAlloc:
				n := int64(regs[in.A.ID])
				if n < 0 {
					return Result{}, fmt.Errorf("jit: negative array allocation %d", n)
				}
				regs[in.ID] = e.alloc(n)
			case ir.OpRecordAlloc:
				regs[in.ID] = e.alloc(in.Int)
			case ir.OpFieldAddr:
				regs[in.ID] = regs[in.A.ID] + uint64(in.Int)
			case ir.OpElemAddr:
				regs[in.ID] = regs[in.A.ID] + regs[in.B.ID]
			case ir.OpBr:
				next = in.Target
			case ir.OpCondBr:
				if regs[in.A.ID] != 0 {
					next = in.Then
				} else {
					next = in.Else
				}
			case ir.OpRet:
				return e.makeResult(cf.fn, regs[in.A.ID])
			default:
				return Result{}, fmt.Errorf("jit: unknown opcode %s", in.Op)
			}
		}

		prev, cur = cur, next
	}
}

func phiIncoming(phi *ir.Value, pred *ir.Block) (*ir.Value, error) {
	for _, in := range phi.Incomings {
		if in.Pred == pred {
			return in.Val, nil
		}
	}
	return nil, fmt.Errorf("jit: phi %s has no incoming for the arriving block", phi.Name())
}

func fop(a, b uint64, f func(x, y float64) float64) uint64 {
	return math.Float64bits(f(math.Float64frombits(a), math.Float64frombits(b)))
}

// makeResult interprets the raw return word according to the function's
// declared return class.
func (e *Engine) makeResult(fn *ir.Function, word uint64) (Result, error) {
	switch fn.Ret {
	case ir.Float:
		return Result{Kind: ScalarResult, Scalar: math.Float64frombits(word)}, nil
	case ir.Int:
		return Result{Kind: ScalarResult, Scalar: float64(int64(word))}, nil
	case ir.Ptr:
		m, err := e.decodeMatrix(word)
		if err != nil {
			return Result{}, err
		}
		return Result{Kind: MatrixResult, Matrix: m}, nil
	default:
		return Result{}, fmt.Errorf("jit: unknown return class %s", fn.Ret)
	}
}

// Matrix record layout: {data ptr, rows, cols} in three consecutive words.
func (e *Engine) decodeMatrix(addr uint64) (*Matrix, error) {
	if addr == 0 || addr+2 >= uint64(len(e.heap)) {
		return nil, fmt.Errorf("jit: returned matrix record at invalid address %d", addr)
	}
	dataAddr := e.heap[addr]
	rows := int64(e.heap[addr+1])
	cols := int64(e.heap[addr+2])
	total := rows * cols
	if rows <= 0 || cols <= 0 || dataAddr == 0 || dataAddr+uint64(total) > uint64(len(e.heap)) {
		return nil, fmt.Errorf("jit: returned matrix record is malformed (rows=%d cols=%d)", rows, cols)
	}
	data := make([]float64, total)
	for i := range data {
		data[i] = math.Float64frombits(e.heap[dataAddr+uint64(i)])
	}
	return &Matrix{Rows: int(rows), Cols: int(cols), Data: data}, nil
}
