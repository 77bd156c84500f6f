package zmachine

// execute runs one decoded instruction against frame f, which is always
// the current top of the call stack. §4.H.
func (v *VM) execute(ins instruction, f *callFrame) error {
	switch ins.count {
	case countOP0:
		return v.executeOP0(ins, f)
	case countOP1:
		return v.executeOP1(ins, f)
	case countOP2:
		return v.executeOP2(ins, f)
	case countVAR:
		return v.executeVAR(ins, f)
	case countEXT:
		return v.executeEXT(ins, f)
	default:
		return v.fatalf("unreachable operand count")
	}
}

// operandValues resolves every operand of ins in order, left to right —
// order matters because a variable-0 operand pops the eval stack as a
// side effect.
func (v *VM) operandValues(ins instruction, f *callFrame) ([]uint16, error) {
	vals := make([]uint16, len(ins.operands))
	for i, op := range ins.operands {
		val, err := op.value(v, f)
		if err != nil {
			return nil, err
		}
		vals[i] = val
	}
	return vals, nil
}

func (v *VM) storeResult(f *callFrame, val uint16) error {
	target := v.readStoreTarget(f)
	return v.writeVariable(f, target, val)
}

func (v *VM) branchResult(f *callFrame, result bool) error {
	onTrue, offset := v.readBranch(f)
	return v.doBranch(f, result, onTrue, offset)
}

func boolToUint16(b bool) uint16 {
	if b {
		return 1
	}
	return 0
}

// doReturn implements `ret`'s semantics (§4.G): pop the current frame,
// and unless it was a discard-result ("_vn"/"_n"-family) call, deliver
// value to the store target recorded when the frame was pushed. If the
// popped frame was the outermost one the game has nothing left to run,
// equivalent to a clean quit.
func (v *VM) doReturn(value uint16) error {
	frame, ok := v.stack.pop()
	if !ok {
		return v.fatalf("return with an empty call stack")
	}
	if frame.timerCallback {
		return v.completeTimerCallback(value)
	}

	caller := v.stack.top()
	if caller == nil {
		v.quit = true
		return nil
	}
	if frame.discardResult {
		return nil
	}
	return v.writeVariable(caller, frame.storeTarget, value)
}

// call implements §4.G `call` semantics shared by call/call_1s/call_2s/
// call_vs/call_vs2 (discard=false, storing) and call_1n/call_2n/call_vn/
// call_vn2 (discard=true). operands[0] is the packed routine address;
// the rest are the arguments supplied.
func (v *VM) call(f *callFrame, operands []uint16, discard bool) error {
	var storeTarget uint8
	if !discard {
		storeTarget = v.readStoreTarget(f)
	}

	if len(operands) == 0 {
		return v.fatalf("call with no routine operand")
	}
	target := operands[0]
	args := operands[1:]

	if target == 0 {
		if !discard {
			return v.writeVariable(f, storeTarget, 0)
		}
		return nil
	}

	addr := v.mem.PackedAddress(uint32(target), false)
	localCount := v.mem.ReadByte(addr)
	if localCount > 15 {
		return v.fatalf("routine at 0x%x declares %d locals (max 15)", addr, localCount)
	}
	addr++

	newFrame := callFrame{
		discardResult: discard,
		storeTarget:   storeTarget,
		numLocals:     localCount,
		argCount:      uint8(len(args)),
	}

	if v.mem.Version() <= 3 {
		for i := 0; i < int(localCount); i++ {
			newFrame.locals[i] = v.mem.ReadWord(addr)
			addr += 2
		}
	}
	for i := 0; i < len(args) && i < int(localCount); i++ {
		newFrame.locals[i] = args[i]
	}

	newFrame.returnPC = addr
	v.stack.push(newFrame)
	return nil
}
