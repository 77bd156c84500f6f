package zmachine

import "fmt"

// VMError is a fatal VM error per §7.1: illegal memory writes, illegal
// opcodes, division by zero, stack underflow and similar conditions
// that halt execution. The eval and call stacks have no size limit, so
// no stack-overflow error is raised. It carries the PC at fault so the
// host can report it without the VM needing a backtrace facility.
type VMError struct {
	PC      uint32
	Opcode  string
	Message string
}

func (e *VMError) Error() string {
	if e.Opcode != "" {
		return fmt.Sprintf("zmachine: %s at pc=0x%x (opcode %s)", e.Message, e.PC, e.Opcode)
	}
	return fmt.Sprintf("zmachine: %s at pc=0x%x", e.Message, e.PC)
}

// fatalf builds a *VMError anchored at the instruction currently
// executing. It never logs — fatal errors are returned to the caller on
// the Step result, never swallowed (§7.1).
func (v *VM) fatalf(format string, args ...any) *VMError {
	return &VMError{PC: v.currentInstructionPC, Opcode: v.currentOpcodeName, Message: fmt.Sprintf(format, args...)}
}

// warnOnce reports a recoverable-but-suspicious condition through
// Options.Warnf (if set) once per distinct cause and continues, mirroring the teacher's warnOnce in
// zmachine/callstack.go: these are conditions the Standard doesn't treat
// as fatal but that usually indicate a buggy story file or interpreter
// bug, so they're worth a single diagnostic rather than a flood of them.
func (v *VM) warnOnce(cause, format string, args ...any) {
	if v.warnings == nil {
		v.warnings = make(map[string]bool)
	}
	if v.warnings[cause] {
		return
	}
	v.warnings[cause] = true
	if v.opts.Warnf != nil {
		v.opts.Warnf("warning: "+format+" (pc=0x%x)", append(args, v.currentInstructionPC)...)
	}
}
