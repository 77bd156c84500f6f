package zmachine

import "github.com/avocet-labs/ifvm/zstring"

// executeEXT dispatches the version-5+ extended opcode set. §4.H.
func (v *VM) executeEXT(ins instruction, f *callFrame) error {
	operands, err := v.operandValues(ins, f)
	if err != nil {
		return err
	}
	opnd := func(i int) uint16 {
		if i < len(operands) {
			return operands[i]
		}
		return 0
	}

	switch ins.number {
	case 0: // save
		return v.opSave(f)
	case 1: // restore
		return v.opRestore(f)

	case 2: // log_shift: positive shifts left, negative shifts right
		n := int16(opnd(1))
		var result uint16
		if n >= 0 {
			result = opnd(0) << uint16(n)
		} else {
			result = opnd(0) >> uint16(-n)
		}
		return v.storeResult(f, result)

	case 3: // art_shift: arithmetic (sign-preserving) shift
		n := int16(opnd(1))
		val := int16(opnd(0))
		var result int16
		if n >= 0 {
			result = val << uint16(n)
		} else {
			result = val >> uint16(-n)
		}
		return v.storeResult(f, uint16(result))

	case 4: // set_font: only font 1 (normal) is modelled; report success and
		// leave the screen model's style untouched otherwise.
		target := v.readStoreTarget(f)
		prev := uint16(0)
		if opnd(0) == 1 {
			prev = 1
		}
		return v.writeVariable(f, target, prev)

	case 9: // save_undo
		return v.opSaveUndo(f)
	case 10: // restore_undo
		return v.opRestoreUndo(f)

	case 11: // print_unicode
		v.emit(string(rune(opnd(0))))
		return nil

	case 12: // check_unicode: bit0 can-print, bit1 can-input; assume both
		target := v.readStoreTarget(f)
		_, canOutput := zstring.UnicodeToZscii(v.mem, rune(opnd(0)))
		result := uint16(0)
		if canOutput {
			result = 0b11
		}
		return v.writeVariable(f, target, result)

	case 13: // set_true_colour: no true-colour display modelled (§1)
		return nil

	default:
		return v.fatalf("unknown EXT opcode %d", ins.number)
	}
}
