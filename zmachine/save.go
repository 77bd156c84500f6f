package zmachine

import "github.com/avocet-labs/ifvm/quetzal"

// save/restore suspend for the host to persist or supply a blob (§4.I,
// §4.J). Versions 1-3 report success/failure as a branch; version 4 and
// up store it. Restore's success case never returns to the point of the
// restore instruction at all: a successful restore replaces the entire
// call stack with the snapshot taken at save time, so execution resumes
// from there instead. What makes that possible is that pcAtSave — the
// address captured by opSave before it consumes its own trailing
// store/branch bytes — always points into static or high memory, code
// that dynamic-memory-only restore never touches. So after restoring,
// the top frame's PC still points at those original save-instruction
// trailing bytes, unconsumed; restore's continuation reads them exactly
// as opSave itself would have, and delivers the "returned from restore"
// result through them (a taken branch on v3, the value 2 on v4+). This is the only place the interpreter
// re-parses an instruction's tail from two different call sites.
func (v *VM) opSave(f *callFrame) error {
	pcAtSave := f.returnPC
	branching := v.mem.Version() <= 3

	// Snapshot before the trailing bytes are consumed, so the saved top
	// frame's PC is pcAtSave.
	state := v.buildSaveState(pcAtSave)
	blob := quetzal.Write(state, v.originalDynamic)

	var target uint8
	var onTrue bool
	var offset int32
	if branching {
		onTrue, offset = v.readBranch(f)
	} else {
		target = v.readStoreTarget(f)
	}

	v.pending = &pendingRequest{
		result: StepResult{Kind: KindSave, SaveBytes: blob},
		continue_: func(v *VM, resume *ResumeValue) error {
			ok := resume != nil && resume.SaveOK
			if branching {
				return v.doBranch(f, ok, onTrue, offset)
			}
			return v.writeVariable(f, target, boolToUint16(ok))
		},
	}
	return nil
}

func (v *VM) opRestore(f *callFrame) error {
	branching := v.mem.Version() <= 3

	var target uint8
	var onTrue bool
	var offset int32
	if branching {
		onTrue, offset = v.readBranch(f)
	} else {
		target = v.readStoreTarget(f)
	}

	fail := func() error {
		if branching {
			return v.doBranch(f, false, onTrue, offset)
		}
		return v.writeVariable(f, target, 0)
	}

	v.pending = &pendingRequest{
		result: StepResult{Kind: KindRestore},
		continue_: func(v *VM, resume *ResumeValue) error {
			if resume == nil || len(resume.RestoreBytes) == 0 {
				return fail()
			}
			state, err := quetzal.Read(resume.RestoreBytes, v.originalDynamic)
			if err != nil {
				v.warnOnce("restore-decode", "corrupt save data: %v", err)
				return fail()
			}
			if state.Header.Release != v.mem.ReadWord(0x02) || state.Header.Serial != v.serial() {
				v.warnOnce("restore-mismatch", "save is from a different story or release")
				return fail()
			}
			return v.finishRestore(state)
		},
	}
	return nil
}

// finishRestore installs state and delivers its save point's pending
// result (the "redo trick" described above the opSave/opRestore pair).
func (v *VM) finishRestore(state quetzal.SaveState) error {
	if err := v.applyRestore(state); err != nil {
		return err
	}
	top := v.stack.top()
	if top == nil {
		v.quit = true
		return nil
	}
	if v.mem.Version() <= 3 {
		onTrue, offset := v.readBranch(top)
		return v.doBranch(top, true, onTrue, offset)
	}
	target := v.readStoreTarget(top)
	return v.writeVariable(top, target, 2)
}

// opSaveUndo and opRestoreUndo (EXT 9/10, v5+) are the synchronous
// in-process cousins of save/restore: no host round trip, so the "redo
// trick" above collapses to a plain synchronous call into
// finishRestore. §4.I, §12.
func (v *VM) opSaveUndo(f *callFrame) error {
	pcAtSave := f.returnPC
	if v.opts.UndoLimit <= 0 {
		return v.writeVariable(f, v.readStoreTarget(f), uint16(0xffff))
	}

	state := v.buildSaveState(pcAtSave)
	target := v.readStoreTarget(f)
	for len(v.undoStack) >= v.opts.UndoLimit {
		v.undoStack = v.undoStack[1:]
	}
	v.undoStack = append(v.undoStack, state)
	return v.writeVariable(f, target, 1)
}

func (v *VM) opRestoreUndo(f *callFrame) error {
	target := v.readStoreTarget(f)
	if len(v.undoStack) == 0 {
		return v.writeVariable(f, target, 0)
	}
	state := v.undoStack[len(v.undoStack)-1]
	v.undoStack = v.undoStack[:len(v.undoStack)-1]
	return v.finishRestore(state)
}

// opRestart reloads dynamic memory from the pristine image the story was
// loaded with and drops the call stack back to the initial routine,
// exactly as if New had just been called, except the undo stack and RNG
// mode survive (§3 "Lifecycle").
func (v *VM) opRestart(f *callFrame) error {
	if err := v.mem.SetDynamicRegion(v.originalDynamic); err != nil {
		return err
	}
	v.stampCapabilities()
	v.stack = callStack{}
	v.stack.push(callFrame{returnPC: v.mem.InitialPC(), discardResult: true})
	return nil
}
