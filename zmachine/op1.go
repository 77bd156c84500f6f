package zmachine

import (
	"github.com/avocet-labs/ifvm/zobject"
	"github.com/avocet-labs/ifvm/zstring"
)

// executeOP1 dispatches the sixteen 1OP opcodes. §4.H.
func (v *VM) executeOP1(ins instruction, f *callFrame) error {
	operands, err := v.operandValues(ins, f)
	if err != nil {
		return err
	}
	a := operands[0]

	switch ins.number {
	case 0: // jz
		return v.branchResult(f, a == 0)

	case 1: // get_sibling
		obj, err := v.objOrZero(a)
		if err != nil {
			return err
		}
		if err := v.storeResult(f, obj.Sibling); err != nil {
			return err
		}
		return v.branchResult(f, obj.Sibling != zobject.None)

	case 2: // get_child
		obj, err := v.objOrZero(a)
		if err != nil {
			return err
		}
		if err := v.storeResult(f, obj.Child); err != nil {
			return err
		}
		return v.branchResult(f, obj.Child != zobject.None)

	case 3: // get_parent
		obj, err := v.objOrZero(a)
		if err != nil {
			return err
		}
		return v.storeResult(f, obj.Parent)

	case 4: // get_prop_len
		return v.storeResult(f, v.tree.GetPropLen(uint32(a)))

	case 5: // inc
		val, err := v.peekVariable(f, uint8(a))
		if err != nil {
			return err
		}
		return v.storeVariableInPlace(f, uint8(a), uint16(int16(val)+1))

	case 6: // dec
		val, err := v.peekVariable(f, uint8(a))
		if err != nil {
			return err
		}
		return v.storeVariableInPlace(f, uint8(a), uint16(int16(val)-1))

	case 7: // print_addr
		s, _, err := v.decodeStringAt(uint32(a))
		if err != nil {
			return err
		}
		v.emit(s)
		return nil

	case 8: // call_1s
		return v.call(f, operands, false)

	case 9: // remove_obj
		return v.tree.RemoveObj(a)

	case 10: // print_obj
		name, err := v.tree.Name(a)
		if err != nil {
			return err
		}
		v.emit(name)
		return nil

	case 11: // ret
		return v.doReturn(a)

	case 12: // jump
		f.returnPC = uint32(int64(f.returnPC) + int64(int16(a)) - 2)
		return nil

	case 13: // print_paddr
		addr := v.mem.PackedAddress(uint32(a), true)
		s, _, err := v.decodeStringAt(addr)
		if err != nil {
			return err
		}
		v.emit(s)
		return nil

	case 14: // load
		val, err := v.peekVariable(f, uint8(a))
		if err != nil {
			return err
		}
		return v.storeResult(f, val)

	case 15: // not (v1-4) / call_1n (v5+)
		if v.mem.Version() <= 4 {
			return v.storeResult(f, ^a)
		}
		return v.call(f, operands, true)

	default:
		return v.fatalf("unknown 1OP opcode %d", ins.number)
	}
}

// objOrZero fetches an object, treating id 0 as the all-zero object
// rather than an error: several 1OP/2OP opcodes are routinely applied to
// "no object" by real story files. §4.C, §7.2.
func (v *VM) objOrZero(id uint16) (zobject.Object, error) {
	if id == zobject.None {
		return zobject.Object{}, nil
	}
	return v.tree.Get(id)
}

func (v *VM) decodeStringAt(addr uint32) (string, uint32, error) {
	return zstring.Decode(v.mem, addr, v.alphabets, true)
}
