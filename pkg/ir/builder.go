package ir

// Builder emits instructions into its current insert block, assigning each a
// fresh ID within the enclosing function.
type Builder struct {
	blk *Block
}

func NewBuilder() *Builder {
	return &Builder{}
}

// SetInsertBlock positions the builder at the end of blk.
func (b *Builder) SetInsertBlock(blk *Block) {
	b.blk = blk
}

// InsertBlock returns the block the builder is currently emitting into.
func (b *Builder) InsertBlock() *Block {
	return b.blk
}

func (b *Builder) emit(v *Value) *Value {
	fn := b.blk.fn
	v.ID = fn.nextID
	fn.nextID++
	b.blk.Instrs = append(b.blk.Instrs, v)
	return v
}

// ConstFloat yields a double-precision float constant.
func (b *Builder) ConstFloat(f float64) *Value {
	return b.emit(&Value{Op: OpConstFloat, Class: Float, Float: f})
}

// ConstInt yields a word-sized integer constant.
func (b *Builder) ConstInt(n int64) *Value {
	return b.emit(&Value{Op: OpConstInt, Class: Int, Int: n})
}

func (b *Builder) FAdd(x, y *Value) *Value {
	return b.emit(&Value{Op: OpFAdd, Class: Float, A: x, B: y})
}

func (b *Builder) FSub(x, y *Value) *Value {
	return b.emit(&Value{Op: OpFSub, Class: Float, A: x, B: y})
}

func (b *Builder) FMul(x, y *Value) *Value {
	return b.emit(&Value{Op: OpFMul, Class: Float, A: x, B: y})
}

func (b *Builder) FDiv(x, y *Value) *Value {
	return b.emit(&Value{Op: OpFDiv, Class: Float, A: x, B: y})
}

func (b *Builder) IAdd(x, y *Value) *Value {
	return b.emit(&Value{Op: OpIAdd, Class: Int, A: x, B: y})
}

func (b *Builder) IMul(x, y *Value) *Value {
	return b.emit(&Value{Op: OpIMul, Class: Int, A: x, B: y})
}

// ICmpLT yields 1 when x < y (signed), else 0.
func (b *Builder) ICmpLT(x, y *Value) *Value {
	return b.emit(&Value{Op: OpICmpLT, Class: Int, A: x, B: y})
}

// Alloca reserves one stack word for a value of the given class and yields
// its address.
func (b *Builder) Alloca(class Class) *Value {
	v := b.emit(&Value{Op: OpAlloca, Class: Ptr})
	v.Int = int64(class) // remembered for the dump only
	return v
}

// Load reads the word at ptr, interpreted as the given class.
func (b *Builder) Load(ptr *Value, class Class) *Value {
	return b.emit(&Value{Op: OpLoad, Class: class, A: ptr})
}

// Store writes val to the word at ptr.
func (b *Builder) Store(ptr, val *Value) *Value {
	return b.emit(&Value{Op: OpStore, A: ptr, B: val})
}

// ArrayAlloc reserves a heap array of count float words and yields its base
// address. The count is a runtime integer value.
func (b *Builder) ArrayAlloc(count *Value) *Value {
	return b.emit(&Value{Op: OpArrayAlloc, Class: Ptr, A: count})
}

// RecordAlloc reserves a heap record with the given number of word-sized
// fields and yields its base address.
func (b *Builder) RecordAlloc(fields int) *Value {
	return b.emit(&Value{Op: OpRecordAlloc, Class: Ptr, Int: int64(fields)})
}

// FieldAddr yields the address of the given field within the record at rec.
func (b *Builder) FieldAddr(rec *Value, field int) *Value {
	return b.emit(&Value{Op: OpFieldAddr, Class: Ptr, A: rec, Int: int64(field)})
}

// ElemAddr yields the address of element idx within the array at base.
func (b *Builder) ElemAddr(base, idx *Value) *Value {
	return b.emit(&Value{Op: OpElemAddr, Class: Ptr, A: base, B: idx})
}

// Phi yields a control-flow merge value of the given class. Arms are attached
// afterwards with AddIncoming; phis must stay at the head of their block.
func (b *Builder) Phi(class Class) *Value {
	return b.emit(&Value{Op: OpPhi, Class: class})
}

// Br ends the current block with an unconditional branch.
func (b *Builder) Br(target *Block) *Value {
	return b.emit(&Value{Op: OpBr, Target: target})
}

// CondBr ends the current block, branching to then when cond is non-zero.
func (b *Builder) CondBr(cond *Value, then, els *Block) *Value {
	return b.emit(&Value{Op: OpCondBr, A: cond, Then: then, Else: els})
}

// Ret ends the current block, returning val from the function.
func (b *Builder) Ret(val *Value) *Value {
	return b.emit(&Value{Op: OpRet, A: val})
}
