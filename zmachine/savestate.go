package zmachine

import "github.com/avocet-labs/ifvm/quetzal"

// snapshotFrames converts the live call stack to the Quetzal frame
// records save/save_undo serialise. §4.I.
func (v *VM) snapshotFrames() []quetzal.Frame {
	frames := make([]quetzal.Frame, 0, v.stack.depth())
	for _, f := range v.stack.frames {
		frames = append(frames, quetzal.Frame{
			ReturnPC:     f.returnPC,
			DiscardValue: f.discardResult,
			StoreTarget:  f.storeTarget,
			ArgCount:     f.argCount,
			Locals:       append([]uint16{}, f.locals[:f.numLocals]...),
			EvalStack:    append([]uint16{}, f.evalStack...),
		})
	}
	return frames
}

func restoreFrames(frames []quetzal.Frame) callStack {
	var cs callStack
	for _, qf := range frames {
		f := callFrame{
			returnPC:      qf.ReturnPC,
			discardResult: qf.DiscardValue,
			storeTarget:   qf.StoreTarget,
			argCount:      qf.ArgCount,
			numLocals:     uint8(len(qf.Locals)),
			evalStack:     append([]uint16{}, qf.EvalStack...),
		}
		copy(f.locals[:], qf.Locals)
		cs.push(f)
	}
	return cs
}

// buildSaveState captures everything a save blob carries: the header
// identifying the story, dynamic memory, and the call-stack snapshot.
// pcAtSave is the address of the save instruction's trailing branch or
// store byte, per the Quetzal IFhd convention. §4.I.
func (v *VM) buildSaveState(pcAtSave uint32) quetzal.SaveState {
	return quetzal.SaveState{
		Header: quetzal.Header{
			Release:  v.mem.ReadWord(0x02),
			Serial:   v.serial(),
			Checksum: v.mem.StoredChecksum(),
			PC:       pcAtSave,
		},
		DynamicMemory: append([]byte{}, v.mem.DynamicRegion()...),
		Frames:        v.snapshotFrames(),
	}
}

func (v *VM) serial() [6]byte {
	var s [6]byte
	for i := range s {
		s[i] = v.mem.ReadByte(uint32(0x12 + i))
	}
	return s
}

// applyRestore overwrites dynamic memory and the call stack from state,
// then re-stamps interpreter-capability header bytes, per §3's
// "Lifecycle" and §4.I.
func (v *VM) applyRestore(state quetzal.SaveState) error {
	if err := v.mem.SetDynamicRegion(state.DynamicMemory); err != nil {
		return err
	}
	v.stack = restoreFrames(state.Frames)
	v.stampCapabilities()
	return nil
}

