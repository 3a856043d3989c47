// Package ir defines the low-level intermediate representation the code
// generator targets and the execution engine consumes. A module holds named
// functions; a function holds basic blocks of instructions in SSA form, with
// phi nodes carrying loop state between blocks.
package ir

import (
	"fmt"
	"strings"
)

// Class identifies the machine representation of a value: a native
// double-precision float, a word-sized integer, or a pointer-sized address.
type Class uint8

const (
	Float Class = iota
	Int
	Ptr
)

var classNames = [...]string{
	Float: "float",
	Int:   "int",
	Ptr:   "ptr",
}

func (c Class) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return fmt.Sprintf("Class(%d)", int(c))
}

// Op identifies an instruction.
type Op uint8

const (
	OpConstFloat Op = iota // float constant (Float field)
	OpConstInt             // integer constant (Int field)

	// Native float arithmetic
	OpFAdd
	OpFSub
	OpFMul
	OpFDiv

	// Integer arithmetic and comparison
	OpIAdd
	OpIMul
	OpICmpLT // signed A < B, yields int 0/1

	// Memory
	OpAlloca      // one stack word, yields its address
	OpLoad        // load the word at address A
	OpStore       // store B at address A, no result
	OpArrayAlloc  // heap array of A float words, yields base address
	OpRecordAlloc // heap record of Int fields, yields base address
	OpFieldAddr   // address of field Int within record A
	OpElemAddr    // address of element B within array A

	// Control flow
	OpPhi    // merge of per-predecessor incoming values
	OpBr     // unconditional branch to Target
	OpCondBr // branch to Then if A is non-zero, else to Else
	OpRet    // return A
)

var opNames = [...]string{
	OpConstFloat:  "constfloat",
	OpConstInt:    "constint",
	OpFAdd:        "fadd",
	OpFSub:        "fsub",
	OpFMul:        "fmul",
	OpFDiv:        "fdiv",
	OpIAdd:        "iadd",
	OpIMul:        "imul",
	OpICmpLT:      "icmplt",
	OpAlloca:      "alloca",
	OpLoad:        "load",
	OpStore:       "store",
	OpArrayAlloc:  "arrayalloc",
	OpRecordAlloc: "recordalloc",
	OpFieldAddr:   "fieldaddr",
	OpElemAddr:    "elemaddr",
	OpPhi:         "phi",
	OpBr:          "br",
	OpCondBr:      "condbr",
	OpRet:         "ret",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("Op(%d)", int(op))
}

// Incoming is one phi arm: the value the phi takes when control arrives from
// the given predecessor block.
type Incoming struct {
	Pred *Block
	Val  *Value
}

// Value is a single instruction. Every instruction that produces a result is
// itself the value of that result, addressed by its ID within the function.
type Value struct {
	ID    int
	Op    Op
	Class Class

	A, B *Value // operands

	Float float64 // OpConstFloat
	Int   int64   // OpConstInt, field index/count for record ops

	Incomings []Incoming // OpPhi

	Target     *Block // OpBr
	Then, Else *Block // OpCondBr
}

// Name returns the value's register name, e.g. "%3".
func (v *Value) Name() string {
	return fmt.Sprintf("%%%d", v.ID)
}

// AddIncoming appends a phi arm. Only meaningful on OpPhi values.
func (v *Value) AddIncoming(pred *Block, val *Value) {
	v.Incomings = append(v.Incomings, Incoming{Pred: pred, Val: val})
}

// Terminator reports whether the instruction ends a basic block.
func (v *Value) Terminator() bool {
	return v.Op == OpBr || v.Op == OpCondBr || v.Op == OpRet
}

func (v *Value) String() string {
	switch v.Op {
	case OpConstFloat:
		return fmt.Sprintf("%s = constfloat %g", v.Name(), v.Float)
	case OpConstInt:
		return fmt.Sprintf("%s = constint %d", v.Name(), v.Int)
	case OpFAdd, OpFSub, OpFMul, OpFDiv, OpIAdd, OpIMul, OpICmpLT:
		return fmt.Sprintf("%s = %s %s, %s", v.Name(), v.Op, v.A.Name(), v.B.Name())
	case OpAlloca:
		return fmt.Sprintf("%s = alloca %s", v.Name(), Class(v.Int))
	case OpLoad:
		return fmt.Sprintf("%s = load %s, %s", v.Name(), v.Class, v.A.Name())
	case OpStore:
		return fmt.Sprintf("store %s, %s", v.A.Name(), v.B.Name())
	case OpArrayAlloc:
		return fmt.Sprintf("%s = arrayalloc %s", v.Name(), v.A.Name())
	case OpRecordAlloc:
		return fmt.Sprintf("%s = recordalloc %d", v.Name(), v.Int)
	case OpFieldAddr:
		return fmt.Sprintf("%s = fieldaddr %s, %d", v.Name(), v.A.Name(), v.Int)
	case OpElemAddr:
		return fmt.Sprintf("%s = elemaddr %s, %s", v.Name(), v.A.Name(), v.B.Name())
	case OpPhi:
		var arms []string
		for _, in := range v.Incomings {
			arms = append(arms, fmt.Sprintf("[%s, %s]", in.Val.Name(), in.Pred.Name))
		}
		return fmt.Sprintf("%s = phi %s %s", v.Name(), v.Class, strings.Join(arms, ", "))
	case OpBr:
		return fmt.Sprintf("br %s", v.Target.Name)
	case OpCondBr:
		return fmt.Sprintf("condbr %s, %s, %s", v.A.Name(), v.Then.Name, v.Else.Name)
	case OpRet:
		return fmt.Sprintf("ret %s", v.A.Name())
	default:
		return fmt.Sprintf("%s = %s", v.Name(), v.Op)
	}
}

// Block is a basic block: a straight-line instruction sequence ending in a
// single terminator. Phi instructions may only appear at the head.
type Block struct {
	Name   string
	Instrs []*Value

	fn *Function
}

// Func returns the function the block belongs to.
func (b *Block) Func() *Function {
	return b.fn
}

// Terminated reports whether the block already ends in a terminator.
func (b *Block) Terminated() bool {
	return len(b.Instrs) > 0 && b.Instrs[len(b.Instrs)-1].Terminator()
}

// Function is a zero-argument native-callable unit with a declared return
// representation.
type Function struct {
	Name   string
	Ret    Class
	Blocks []*Block

	nextID int
}

// NewBlock appends a fresh, empty block to the function.
func (f *Function) NewBlock(name string) *Block {
	b := &Block{Name: name, fn: f}
	f.Blocks = append(f.Blocks, b)
	return b
}

// Entry returns the function's entry block, or nil if none exists yet.
func (f *Function) Entry() *Block {
	if len(f.Blocks) == 0 {
		return nil
	}
	return f.Blocks[0]
}

// NumValues returns an upper bound on instruction IDs, suitable for sizing a
// register frame.
func (f *Function) NumValues() int {
	return f.nextID
}

// Module is an ordered collection of functions.
type Module struct {
	Name  string
	Funcs []*Function

	byName map[string]*Function
}

func NewModule(name string) *Module {
	return &Module{Name: name, byName: make(map[string]*Function)}
}

// NewFunction declares a zero-argument function with the given return class.
// Declaring a name twice replaces the lookup entry; emission order keeps both.
func (m *Module) NewFunction(name string, ret Class) *Function {
	f := &Function{Name: name, Ret: ret}
	m.Funcs = append(m.Funcs, f)
	m.byName[name] = f
	return f
}

// Lookup finds a declared function by name.
func (m *Module) Lookup(name string) (*Function, bool) {
	f, ok := m.byName[name]
	return f, ok
}

// Dump renders the whole module as text.
func (m *Module) Dump() string {
	var sb strings.Builder
	for i, f := range m.Funcs {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "func %s() %s {\n", f.Name, f.Ret)
		for _, b := range f.Blocks {
			fmt.Fprintf(&sb, "%s:\n", b.Name)
			for _, in := range b.Instrs {
				fmt.Fprintf(&sb, "  %s\n", in)
			}
		}
		sb.WriteString("}\n")
	}
	return sb.String()
}
