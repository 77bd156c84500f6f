package zmachine

import (
	"strconv"
	"strings"

	"github.com/avocet-labs/ifvm/zstring"
)

// executeVAR dispatches the 32 VAR opcodes. §4.H.
func (v *VM) executeVAR(ins instruction, f *callFrame) error {
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
	case 0: // call/call_vs
		return v.call(f, operands, false)

	case 1: // storew
		return v.mem.WriteWord(uint32(opnd(0))+2*uint32(opnd(1)), opnd(2))

	case 2: // storeb
		return v.mem.WriteByte(uint32(opnd(0))+uint32(opnd(1)), uint8(opnd(2)))

	case 3: // put_prop
		return v.tree.PutProp(opnd(0), uint8(opnd(1)), opnd(2))

	case 4: // sread/aread
		return v.opRead(f, operands)

	case 5: // print_char
		v.emit(string(zstring.ZsciiToUnicode(v.mem, uint8(opnd(0)))))
		return nil

	case 6: // print_num
		return v.printNum(int16(opnd(0)))

	case 7: // random
		return v.storeResult(f, v.rng.draw(int16(opnd(0)), v.opts.RandSeed))

	case 8: // push
		return v.writeVariable(f, 0, opnd(0))

	case 9: // pull
		if v.mem.Version() == 6 {
			return v.fatalf("v6 pull (stack table form) unsupported")
		}
		val, err := v.readVariable(f, 0)
		if err != nil {
			return err
		}
		return v.writeVariable(f, uint8(opnd(0)), val)

	case 10: // split_window
		v.screen.UpperWindowHeight = int(int16(opnd(0)))
		if v.screen.UpperCursorY > v.screen.UpperWindowHeight {
			v.screen.UpperCursorY = 1
		}
		return nil

	case 11: // set_window
		if opnd(0) == uint16(windowUpper) {
			v.screen.Current = windowUpper
		} else {
			v.screen.Current = windowLower
		}
		return nil

	case 12: // call_vs2
		return v.call(f, operands, false)

	case 13: // erase_window
		v.screen.UpperCursorX, v.screen.UpperCursorY = 1, 1
		v.screen.LowerCursorX, v.screen.LowerCursorY = 1, 1
		return nil

	case 14: // erase_line
		return nil

	case 15: // set_cursor
		v.screen.UpperCursorY = int(opnd(0))
		v.screen.UpperCursorX = int(opnd(1))
		return nil

	case 16: // get_cursor
		addr := uint32(opnd(0))
		if err := v.mem.WriteWord(addr, uint16(v.screen.UpperCursorY)); err != nil {
			return err
		}
		return v.mem.WriteWord(addr+2, uint16(v.screen.UpperCursorX))

	case 17: // set_text_style
		switch TextStyle(opnd(0)) {
		case StyleRoman:
			v.screen.Style = StyleRoman
		default:
			v.screen.Style |= TextStyle(opnd(0))
		}
		return nil

	case 18: // buffer_mode
		v.screen.BufferedLower = opnd(0) != 0
		return nil

	case 19: // output_stream
		return v.setOutputStream(int16(opnd(0)), opnd(1))

	case 20: // input_stream
		return nil

	case 21: // sound_effect: no sound device modelled (§1 Non-goals)
		return nil

	case 22: // read_char
		return v.opReadChar(f, operands)

	case 23: // scan_table
		return v.opScanTable(f, operands)

	case 24: // not
		return v.storeResult(f, ^opnd(0))

	case 25: // call_vn
		return v.call(f, operands, true)

	case 26: // call_vn2
		return v.call(f, operands, true)

	case 27: // tokenise
		dict := v.dict
		skip := len(operands) < 3 || opnd(3) != 0
		return v.tokenise(dict, uint32(opnd(0)), uint32(opnd(1)), skip)

	case 28: // encode_text
		return v.opEncodeText(operands)

	case 29: // copy_table
		return v.opCopyTable(operands)

	case 30: // print_table
		return v.opPrintTable(operands)

	case 31: // check_arg_count
		return v.branchResult(f, uint16(f.argCount) >= opnd(0))

	default:
		return v.fatalf("unknown VAR opcode %d", ins.number)
	}
}

func (v *VM) printNum(n int16) error {
	v.emit(strconv.Itoa(int(n)))
	return nil
}

// opEncodeText implements VAR:28: encode the text at a char buffer into a
// dictionary-style word array at a target address. §4.E.
func (v *VM) opEncodeText(operands []uint16) error {
	if len(operands) < 4 {
		return v.fatalf("encode_text requires 4 operands")
	}
	textBuf, length, from, codedBuf := uint32(operands[0]), operands[1], operands[2], uint32(operands[3])
	chars := make([]byte, length)
	for i := range chars {
		chars[i] = v.mem.ReadByte(textBuf + uint32(from) + uint32(i))
	}
	key := zstring.Encode(v.mem, string(chars), v.alphabets)
	for i, b := range key {
		if err := v.mem.WriteByte(codedBuf+uint32(i), b); err != nil {
			return err
		}
	}
	return nil
}

// opCopyTable implements VAR:29: copy or zero a block of memory. A
// negative size forces a forward (non-overlap-safe) copy; a zero
// destination zeroes the source. §4.H.
func (v *VM) opCopyTable(operands []uint16) error {
	if len(operands) < 3 {
		return v.fatalf("copy_table requires 3 operands")
	}
	first, second, sizeOp := uint32(operands[0]), operands[1], int16(operands[2])

	size := int(sizeOp)
	forceForward := size < 0
	if forceForward {
		size = -size
	}

	if second == 0 {
		for i := 0; i < size; i++ {
			if err := v.mem.WriteByte(first+uint32(i), 0); err != nil {
				return err
			}
		}
		return nil
	}

	dest := uint32(second)
	if forceForward || dest <= first || dest >= first+uint32(size) {
		for i := 0; i < size; i++ {
			if err := v.mem.WriteByte(dest+uint32(i), v.mem.ReadByte(first+uint32(i))); err != nil {
				return err
			}
		}
		return nil
	}

	for i := size - 1; i >= 0; i-- {
		if err := v.mem.WriteByte(dest+uint32(i), v.mem.ReadByte(first+uint32(i))); err != nil {
			return err
		}
	}
	return nil
}

// opPrintTable implements VAR:30: print a rectangular block of ZSCII text
// with an optional row skip. §4.H.
func (v *VM) opPrintTable(operands []uint16) error {
	if len(operands) < 2 {
		return v.fatalf("print_table requires at least 2 operands")
	}
	addr, width := uint32(operands[0]), operands[1]
	height := uint16(1)
	if len(operands) > 2 {
		height = operands[2]
	}
	skip := uint16(0)
	if len(operands) > 3 {
		skip = operands[3]
	}

	var b strings.Builder
	for row := uint16(0); row < height; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		rowAddr := addr + uint32(row)*(uint32(width)+uint32(skip))
		for col := uint16(0); col < width; col++ {
			b.WriteRune(zstring.ZsciiToUnicode(v.mem, v.mem.ReadByte(rowAddr+uint32(col))))
		}
	}
	v.emit(b.String())
	return nil
}

// opScanTable implements VAR:23: linear search a table of words or bytes
// for a value, storing the matching address (or 0) and branching on
// whether it was found. §4.H.
func (v *VM) opScanTable(f *callFrame, operands []uint16) error {
	if len(operands) < 3 {
		return v.fatalf("scan_table requires at least 3 operands")
	}
	needle, table, length := operands[0], uint32(operands[1]), operands[2]
	form := uint8(0x82) // default: words, field size 2
	if len(operands) > 3 {
		form = uint8(operands[3])
	}
	fieldSize := uint32(form & 0x7f)
	isWord := form&0x80 != 0

	var found uint32
	for i := uint16(0); i < length; i++ {
		addr := table + uint32(i)*fieldSize
		var val uint16
		if isWord {
			val = v.mem.ReadWord(addr)
		} else {
			val = uint16(v.mem.ReadByte(addr))
		}
		if val == needle {
			found = addr
			break
		}
	}

	if err := v.storeResult(f, uint16(found)); err != nil {
		return err
	}
	return v.branchResult(f, found != 0)
}
