package zmachine

import "strings"

// timerState carries what's needed to resume a suspended read/read_char
// once a timeout's timer routine (§4.H, §4.J) has returned: rearm
// re-issues the original Need* request, onAbandon completes the opcode
// early if the routine's return value says to give up on the input.
type timerState struct {
	rearm    func(v *VM)
	onAbandon func(v *VM) error
}

// completeTimerCallback is doReturn's special case for a frame pushed to
// run a timeout routine: a nonzero return abandons the read, zero
// resumes waiting for input exactly as before the timeout fired.
func (v *VM) completeTimerCallback(value uint16) error {
	t := v.timer
	v.timer = nil
	if t == nil {
		return nil
	}
	if value != 0 {
		return t.onAbandon(v)
	}
	t.rearm(v)
	return nil
}

// runTimerRoutine pushes a call frame for a read/read_char timeout
// routine. Its return value is intercepted by completeTimerCallback
// rather than stored anywhere ordinary, per the callFrame.timerCallback
// comment in cpu.go.
func (v *VM) runTimerRoutine(routine uint16) {
	addr := v.mem.PackedAddress(uint32(routine), false)
	localCount := v.mem.ReadByte(addr)
	addr++

	f := callFrame{timerCallback: true, numLocals: localCount}
	if v.mem.Version() <= 3 {
		for i := 0; i < int(localCount); i++ {
			f.locals[i] = v.mem.ReadWord(addr)
			addr += 2
		}
	}
	f.returnPC = addr
	v.stack.push(f)
}

func (v *VM) buildStatusLine() *StatusLine {
	obj, err := v.readVariable(v.stack.top(), 16) // global 0: the "current room" object
	if err != nil {
		return nil
	}
	room, err := v.tree.Name(obj)
	if err != nil {
		room = ""
	}
	score, _ := v.readVariable(v.stack.top(), 17)
	turns, _ := v.readVariable(v.stack.top(), 18)
	return &StatusLine{
		RoomName:   room,
		Score:      int(int16(score)),
		Turns:      int(turns),
		IsTimeGame: v.mem.Flags1()&0x02 != 0,
	}
}

// opRead implements sread/aread (VAR:4), §4.E/§4.H/§4.J. Versions 1-4
// don't store a result; version 5+ stores the terminating character,
// which is always 13 (newline): the header's terminating character
// table is not consulted.
func (v *VM) opRead(f *callFrame, operands []uint16) error {
	frameIdx := v.stack.depth() - 1

	textBuf := uint32(operands[0])
	var parseBuf uint32
	if len(operands) > 1 {
		parseBuf = uint32(operands[1])
	}
	var timeTenths uint16
	if len(operands) > 2 {
		timeTenths = operands[2]
	}
	var routine uint16
	if len(operands) > 3 {
		routine = operands[3]
	}

	storing := v.mem.Version() >= 5
	var target uint8
	if storing {
		target = v.readStoreTarget(f)
	}

	maxChars := v.mem.ReadByte(textBuf)

	finish := func(v *VM, line string, terminator uint16) error {
		top := v.stack.at(frameIdx)
		writeTextBuffer(v.mem, textBuf, line, storing)
		if parseBuf != 0 {
			if err := v.tokenise(v.dict, textBuf, parseBuf, true); err != nil {
				return err
			}
		}
		if storing {
			return v.writeVariable(top, target, terminator)
		}
		return nil
	}

	var rearm func(v *VM)
	rearm = func(v *VM) {
		var status *StatusLine
		if v.mem.Version() <= 3 {
			status = v.buildStatusLine()
		}
		v.pending = &pendingRequest{
			result: StepResult{
				Kind:       KindNeedLine,
				TextAddr:   textBuf,
				ParseAddr:  parseBuf,
				MaxChars:   maxChars,
				TimeTenths: timeTenths,
				Status:     status,
			},
			continue_: func(v *VM, resume *ResumeValue) error {
				if resume != nil && resume.TimedOut {
					if routine != 0 {
						v.timer = &timerState{
							rearm: rearm,
							onAbandon: func(v *VM) error {
								return finish(v, "", 13)
							},
						}
						v.runTimerRoutine(routine)
						return nil
					}
					rearm(v)
					return nil
				}
				line := ""
				if resume != nil {
					line = resume.Line
				}
				return finish(v, line, 13)
			},
		}
	}

	rearm(v)
	return nil
}

// writeTextBuffer lowercases and stores the typed line into the text
// buffer per the version-specific layout (§4.E), returning the bytes
// written so callers needing a count don't have to recompute it.
func writeTextBuffer(mem interface {
	ReadByte(uint32) uint8
	WriteByte(uint32, uint8) error
}, textBuf uint32, line string, v5Plus bool) int {
	lower := strings.ToLower(line)
	maxChars := int(mem.ReadByte(textBuf))
	if len(lower) > maxChars {
		lower = lower[:maxChars]
	}

	var dataStart uint32
	if v5Plus {
		dataStart = textBuf + 2
	} else {
		dataStart = textBuf + 1
	}
	for i := 0; i < len(lower); i++ {
		mem.WriteByte(dataStart+uint32(i), lower[i])
	}
	if v5Plus {
		mem.WriteByte(textBuf+1, uint8(len(lower)))
	} else {
		mem.WriteByte(dataStart+uint32(len(lower)), 0)
	}
	return len(lower)
}

// opReadChar implements VAR:22 (read_char, v4+): wait for one keystroke
// and store its ZSCII code. Timeout/timer semantics mirror opRead.
func (v *VM) opReadChar(f *callFrame, operands []uint16) error {
	frameIdx := v.stack.depth() - 1
	target := v.readStoreTarget(f)

	var timeTenths uint16
	if len(operands) > 1 {
		timeTenths = operands[1]
	}
	var routine uint16
	if len(operands) > 2 {
		routine = operands[2]
	}

	finish := func(v *VM, char uint8) error {
		top := v.stack.at(frameIdx)
		return v.writeVariable(top, target, uint16(char))
	}

	var rearm func(v *VM)
	rearm = func(v *VM) {
		v.pending = &pendingRequest{
			result: StepResult{Kind: KindNeedChar, TimeTenths: timeTenths},
			continue_: func(v *VM, resume *ResumeValue) error {
				if resume != nil && resume.TimedOut {
					if routine != 0 {
						v.timer = &timerState{
							rearm: rearm,
							onAbandon: func(v *VM) error {
								return finish(v, 0)
							},
						}
						v.runTimerRoutine(routine)
						return nil
					}
					rearm(v)
					return nil
				}
				char := uint8(0)
				if resume != nil {
					char = resume.Char
				}
				return finish(v, char)
			},
		}
	}

	rearm(v)
	return nil
}
