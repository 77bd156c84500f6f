package zmachine

// executeOP2 dispatches the 2OP opcodes (numbers 1-28; 0 is illegal).
// §4.H.
func (v *VM) executeOP2(ins instruction, f *callFrame) error {
	operands, err := v.operandValues(ins, f)
	if err != nil {
		return err
	}
	a, b := operands[0], operands[1]

	switch ins.number {
	case 1: // je: true if a equals any of the remaining operands
		for _, other := range operands[1:] {
			if a == other {
				return v.branchResult(f, true)
			}
		}
		return v.branchResult(f, false)

	case 2: // jl
		return v.branchResult(f, int16(a) < int16(b))

	case 3: // jg
		return v.branchResult(f, int16(a) > int16(b))

	case 4: // dec_chk
		val, err := v.peekVariable(f, uint8(a))
		if err != nil {
			return err
		}
		newVal := int16(val) - 1
		if err := v.storeVariableInPlace(f, uint8(a), uint16(newVal)); err != nil {
			return err
		}
		return v.branchResult(f, newVal < int16(b))

	case 5: // inc_chk
		val, err := v.peekVariable(f, uint8(a))
		if err != nil {
			return err
		}
		newVal := int16(val) + 1
		if err := v.storeVariableInPlace(f, uint8(a), uint16(newVal)); err != nil {
			return err
		}
		return v.branchResult(f, newVal > int16(b))

	case 6: // jin
		obj, err := v.objOrZero(a)
		if err != nil {
			return err
		}
		return v.branchResult(f, obj.Parent == b)

	case 7: // test
		return v.branchResult(f, a&b == b)

	case 8: // or
		return v.storeResult(f, a|b)

	case 9: // and
		return v.storeResult(f, a&b)

	case 10: // test_attr
		ok, err := v.tree.TestAttr(a, b)
		if err != nil {
			return err
		}
		return v.branchResult(f, ok)

	case 11: // set_attr
		return v.tree.SetAttr(a, b)

	case 12: // clear_attr
		return v.tree.ClearAttr(a, b)

	case 13: // store
		return v.storeVariableInPlace(f, uint8(a), b)

	case 14: // insert_obj
		return v.tree.InsertObj(a, b)

	case 15: // loadw
		return v.storeResult(f, v.mem.ReadWord(uint32(a)+2*uint32(b)))

	case 16: // loadb
		return v.storeResult(f, uint16(v.mem.ReadByte(uint32(a)+uint32(b))))

	case 17: // get_prop
		val, err := v.tree.GetProp(a, uint8(b))
		if err != nil {
			return err
		}
		return v.storeResult(f, val)

	case 18: // get_prop_addr
		addr, err := v.tree.GetPropAddr(a, uint8(b))
		if err != nil {
			return err
		}
		return v.storeResult(f, uint16(addr))

	case 19: // get_next_prop
		id, err := v.tree.GetNextProp(a, uint8(b))
		if err != nil {
			return err
		}
		return v.storeResult(f, uint16(id))

	case 20: // add
		return v.storeResult(f, uint16(int16(a)+int16(b)))

	case 21: // sub
		return v.storeResult(f, uint16(int16(a)-int16(b)))

	case 22: // mul
		return v.storeResult(f, uint16(int16(a)*int16(b)))

	case 23: // div
		if int16(b) == 0 {
			return v.fatalf("division by zero")
		}
		return v.storeResult(f, uint16(int16(a)/int16(b)))

	case 24: // mod
		if int16(b) == 0 {
			return v.fatalf("division by zero")
		}
		return v.storeResult(f, uint16(int16(a)%int16(b)))

	case 25: // call_2s
		return v.call(f, operands, false)

	case 26: // call_2n
		return v.call(f, operands, true)

	case 27: // set_colour
		v.screen.Foreground = colourFromOperand(a, v.screen.Foreground, v.screen.DefaultForeground)
		v.screen.Background = colourFromOperand(b, v.screen.Background, v.screen.DefaultBackground)
		return nil

	case 28: // throw
		return v.doThrow(a, b)

	default:
		return v.fatalf("unknown 2OP opcode %d", ins.number)
	}
}

func colourFromOperand(val uint16, current, def Colour) Colour {
	switch c := Colour(val); c {
	case ColourCurrent:
		return current
	case ColourDefault:
		return def
	default:
		return c
	}
}

// doThrow implements §4.H's non-local exit: unwind the call stack down
// to (and including) the frame stackFrame calls identify, then deliver
// value as that frame's return, exactly as if it had executed ret.
// stackFrame is a depth captured earlier by catch (0OP:9 on v5+).
func (v *VM) doThrow(value uint16, stackFrame uint16) error {
	for uint16(v.stack.depth()) > stackFrame {
		if _, ok := v.stack.pop(); !ok {
			break
		}
	}
	return v.doReturn(value)
}
