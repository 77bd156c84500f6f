package zmachine

// Instruction decode: opcode form, operand count and operand fetch. §4.F.
//
// Store and branch trailing bytes are deliberately NOT consumed here —
// only the opcode handler knows whether it stores a result or branches
// (that depends on the opcode number *and* the story version: 1OP:15 is
// a storing NOT on v3/4 but a non-storing CALL_1N on v5+). Handlers read
// those trailing bytes themselves via readStoreTarget/readBranch, in the
// same place the teacher's zmachine.go does, immediately after the
// operands have been fetched.

type operandKind uint8

const (
	kindLargeConstant operandKind = 0b00
	kindSmallConstant operandKind = 0b01
	kindVariable      operandKind = 0b10
	kindOmitted       operandKind = 0b11
)

type opcodeForm uint8

const (
	formLong  opcodeForm = 0b00
	formShort opcodeForm = 0b10
	formVar   opcodeForm = 0b11
	formExt   opcodeForm = 0b01
)

type operandCount uint8

const (
	countOP0 operandCount = iota
	countOP1
	countOP2
	countVAR
	countEXT
)

type operand struct {
	kind operandKind
	raw  uint16
}

// value resolves an operand to its 16-bit value, reading a variable if
// the operand names one.
func (o operand) value(v *VM, f *callFrame) (uint16, error) {
	switch o.kind {
	case kindVariable:
		return v.readVariable(f, uint8(o.raw))
	default:
		return o.raw, nil
	}
}

type instruction struct {
	opcodeByte uint8
	form       opcodeForm
	count      operandCount
	number     uint8
	operands   []operand
}

func (v *VM) decodeInstruction(f *callFrame) (instruction, error) {
	opcodeByte := v.readByteAtPC(f)
	ins := instruction{opcodeByte: opcodeByte, form: opcodeForm(opcodeByte >> 6)}

	switch {
	case opcodeByte == 0xbe && v.mem.Version() >= 5:
		ins.form = formExt
		ins.number = v.readByteAtPC(f)
		ins.count = countEXT
		v.decodeVarOperands(f, &ins)

	case ins.form == formVar:
		ins.number = opcodeByte & 0b1_1111
		if (opcodeByte>>5)&1 == 0 {
			ins.count = countOP2
		} else {
			ins.count = countVAR
		}
		// call_vs2/call_vn2 take a second types byte for up to 8 operands.
		if ins.count == countVAR && (ins.number == 12 || ins.number == 26) {
			hi := uint16(v.readByteAtPC(f))
			types := hi<<8 | uint16(v.readByteAtPC(f))
			for i := 0; i < 8; i++ {
				kind := operandKind((types >> (2 * (7 - i))) & 0b11)
				if kind == kindOmitted {
					break
				}
				if kind == kindLargeConstant {
					ins.operands = append(ins.operands, operand{kind: kind, raw: v.readWordAtPC(f)})
				} else {
					ins.operands = append(ins.operands, operand{kind: kind, raw: uint16(v.readByteAtPC(f))})
				}
			}
		} else {
			v.decodeVarOperands(f, &ins)
		}

	case ins.form == formShort:
		ins.number = opcodeByte & 0b1111
		switch (opcodeByte >> 4) & 0b11 {
		case 0b00:
			ins.operands = append(ins.operands, operand{kind: kindLargeConstant, raw: v.readWordAtPC(f)})
			ins.count = countOP1
		case 0b01:
			ins.operands = append(ins.operands, operand{kind: kindSmallConstant, raw: uint16(v.readByteAtPC(f))})
			ins.count = countOP1
		case 0b10:
			ins.operands = append(ins.operands, operand{kind: kindVariable, raw: uint16(v.readByteAtPC(f))})
			ins.count = countOP1
		case 0b11:
			ins.count = countOP0
		}

	default: // long form
		ins.number = opcodeByte & 0b1_1111
		ins.count = countOP2
		k1, k2 := kindSmallConstant, kindSmallConstant
		if (opcodeByte>>6)&1 == 1 {
			k1 = kindVariable
		}
		if (opcodeByte>>5)&1 == 1 {
			k2 = kindVariable
		}
		ins.operands = append(ins.operands,
			operand{kind: k1, raw: uint16(v.readByteAtPC(f))},
			operand{kind: k2, raw: uint16(v.readByteAtPC(f))},
		)
	}

	return ins, nil
}

// decodeVarOperands reads one types byte (two bits per operand, up to 4)
// and the operands it describes, stopping at the first omitted operand.
func (v *VM) decodeVarOperands(f *callFrame, ins *instruction) {
	typesByte := v.readByteAtPC(f)
	for i := 0; i < 4; i++ {
		kind := operandKind((typesByte >> (2 * (3 - i))) & 0b11)
		switch kind {
		case kindOmitted:
			return
		case kindLargeConstant:
			ins.operands = append(ins.operands, operand{kind: kind, raw: v.readWordAtPC(f)})
		default: // small constant or variable, both one byte
			ins.operands = append(ins.operands, operand{kind: kind, raw: uint16(v.readByteAtPC(f))})
		}
	}
}

// readStoreTarget consumes the trailing store-destination byte common to
// every storing opcode. §4.F.
func (v *VM) readStoreTarget(f *callFrame) uint8 {
	return v.readByteAtPC(f)
}

// readBranch consumes the trailing one- or two-byte branch operand and
// returns whether the branch should actually divert control (result
// matches the branch-on-true/false polarity), plus the raw offset
// (0/1 meaning "return false/true", otherwise a PC-relative jump). §4.F.
func (v *VM) readBranch(f *callFrame) (onTrue bool, offset int32) {
	b1 := v.readByteAtPC(f)
	onTrue = b1&0x80 != 0
	if b1&0x40 != 0 {
		return onTrue, int32(b1 & 0x3f)
	}
	b2 := v.readByteAtPC(f)
	raw := uint16(b1&0x3f)<<8 | uint16(b2)
	// sign-extend the 14-bit offset
	return onTrue, int32(int16(raw<<2) >> 2)
}

// doBranch applies the outcome of a branch test: result is the opcode's
// boolean test result, onTrue/offset come from readBranch. §4.F.
func (v *VM) doBranch(f *callFrame, result, onTrue bool, offset int32) error {
	if result != onTrue {
		return nil
	}
	switch offset {
	case 0:
		return v.doReturn(0)
	case 1:
		return v.doReturn(1)
	default:
		f.returnPC = uint32(int64(f.returnPC) + int64(offset) - 2)
		return nil
	}
}
