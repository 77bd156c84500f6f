// Package zmachine implements the Z-machine interpreter core: bytecode
// decode and dispatch, the call-stack/frame model, the opcode set across
// versions 3/4/5/8, and the host façade (§4.J) through which the core
// asks for line/char input, persists saves and emits text without ever
// blocking on I/O itself.
package zmachine

import (
	"fmt"

	"github.com/avocet-labs/ifvm/zdict"
	"github.com/avocet-labs/ifvm/zmem"
	"github.com/avocet-labs/ifvm/zobject"
	"github.com/avocet-labs/ifvm/zstring"

	"github.com/avocet-labs/ifvm/quetzal"
)

// Options configures interpreter capabilities the story's header flags
// advertise. Everything the core needs arrives here; it reads no
// environment variables and opens no files (§6).
type Options struct {
	RandSeed      int64 // 0: seed the PRNG from the wall clock
	StatusCapable bool  // v3 only: can the host render a status line
	UndoSupported bool
	UndoLimit     int // caps the save_undo stack; 0 with UndoSupported defaults to 1 (§12)
	ScreenCols    uint8
	ScreenRows    uint8
	DefaultFG     uint8
	DefaultBG     uint8
	ColourCapable bool

	// Warnf receives recoverable-but-suspicious diagnostics (§7.2). May be
	// nil to suppress them entirely.
	Warnf func(format string, args ...any)
}

func (o Options) normalise() Options {
	if o.UndoSupported && o.UndoLimit == 0 {
		o.UndoLimit = 1
	}
	if o.ScreenCols == 0 {
		o.ScreenCols = 80
	}
	if o.ScreenRows == 0 {
		o.ScreenRows = 24
	}
	return o
}

// VM is one running Z-machine instance: the memory image, call stack,
// PRNG, undo snapshots and output buffers. It holds no global state —
// every resource is scoped to the VM's own lifetime, so multiple VMs may
// run in the same process (§5).
type VM struct {
	mem       *zmem.Image
	alphabets *zstring.Alphabets
	dict      *zdict.Dictionary
	tree      *zobject.Tree
	stack     callStack
	rng       *randomSource
	screen    ScreenModel
	opts      Options

	originalDynamic []byte // dynamic memory exactly as loaded, the Quetzal RLE baseline
	undoStack       []quetzal.SaveState

	streamScreen     bool
	streamTranscript bool
	streamInputLog   bool
	memStreams       []memoryStream
	outBuf           []OutputEvent

	warnings map[string]bool

	finished bool
	quit     bool
	pending  *pendingRequest
	timer    *timerState

	currentInstructionPC uint32
	currentOpcodeName    string
}

// Kind identifies what a Step result is asking the host for. §4.J.
type Kind int

const (
	KindDone Kind = iota
	KindNeedLine
	KindNeedChar
	KindSave
	KindRestore
)

// StatusLine mirrors the v3 status bar: the host renders it, the core
// only supplies the values. §4.J.
type StatusLine struct {
	RoomName   string
	Score      int
	Turns      int
	IsTimeGame bool
}

// StepResult is what Step returns: a terminal Done, or a request the
// host must answer by calling Step again with a ResumeValue. Output is
// always populated with whatever text was produced since the previous
// suspension, per §4.J ("zero or more emitted before every Need*").
type StepResult struct {
	Kind   Kind
	Output []OutputEvent
	Status *StatusLine // set only for NeedLine on a v3 story

	TimeTenths uint16 // NeedLine/NeedChar: 0 means no timeout requested
	TextAddr   uint32 // NeedLine
	ParseAddr  uint32 // NeedLine, 0 if the story passed no parse buffer
	MaxChars   uint8  // NeedLine

	SaveBytes []byte // Save: the blob the host must persist

	Quit bool  // Done via the quit opcode
	Err  error // Done via a fatal VM error (§7.1); nil on a clean quit
}

// ResumeValue answers the request named by the StepResult most recently
// returned from Step.
type ResumeValue struct {
	Line     string
	TimedOut bool // a read/read_char timeout fired; Line/Char are ignored
	Char     uint8

	RestoreBytes []byte // Restore: nil/empty means the host couldn't supply one
	SaveOK       bool   // Save: whether the host's persist succeeded
}

// pendingRequest captures a suspended opcode: the StepResult already
// built for the host, and a continuation that finishes the opcode once
// the next Step call supplies an answer.
type pendingRequest struct {
	result   StepResult
	continue_ func(v *VM, resume *ResumeValue) error
}

// New loads a story file and prepares initial execution state. The
// image bytes are consumed, not copied (zmem.Load's contract).
func New(storyBytes []byte, opts Options) (*VM, error) {
	mem, err := zmem.Load(storyBytes)
	if err != nil {
		return nil, err
	}
	opts = opts.normalise()

	alphabets := zstring.LoadAlphabets(mem)
	dict := zdict.Parse(mem, mem.DictionaryBase(), alphabets)

	v := &VM{
		mem:              mem,
		alphabets:        alphabets,
		dict:             dict,
		tree:             zobject.NewTree(mem, alphabets),
		rng:              newRandomSource(opts.RandSeed),
		opts:             opts,
		streamScreen:     true,
		originalDynamic:  append([]byte{}, mem.DynamicRegion()...),
	}
	v.screen = newScreenModel(colourFromHeaderByte(opts.DefaultFG, ColourBlack), colourFromHeaderByte(opts.DefaultBG, ColourWhite))
	v.stampCapabilities()

	v.stack.push(callFrame{returnPC: mem.InitialPC(), discardResult: true})

	return v, nil
}

func (v *VM) stampCapabilities() {
	v.mem.StampCapabilities(v.opts.ScreenCols, v.opts.ScreenRows, v.opts.DefaultFG, v.opts.DefaultBG, v.opts.StatusCapable, v.opts.UndoLimit > 0, v.opts.ColourCapable)
}

// Screen exposes the live window/cursor/style model for a host driver
// that wants to render it (§12).
func (v *VM) Screen() ScreenModel { return v.screen }

// Step advances execution until it either finishes or needs something
// from the host. resume must be nil on the very first call, and must
// answer the request named by the previous StepResult on every
// subsequent call. Any internal panic (a malformed story file driving
// an out-of-bounds access) is recovered here and reported as a fatal
// VMError rather than escaping to the caller, mirroring the teacher's
// own recover() boundary in cmd/gametest. §9 "Coroutine-style I/O".
func (v *VM) Step(resume *ResumeValue) (result StepResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			verr := v.fatalf("internal error: %v", r)
			v.finished = true
			result = StepResult{Kind: KindDone, Output: v.flushOutput(), Err: verr}
			err = nil
		}
	}()

	if v.finished {
		return StepResult{Kind: KindDone, Output: v.flushOutput(), Quit: v.quit}, nil
	}

	if v.pending != nil {
		req := v.pending
		v.pending = nil
		if cerr := req.continue_(v, resume); cerr != nil {
			return v.fail(cerr), nil
		}
	}

	return v.runLoop(), nil
}

func (v *VM) fail(err error) StepResult {
	if _, ok := err.(*VMError); !ok {
		err = v.fatalf("%v", err)
	}
	v.finished = true
	return StepResult{Kind: KindDone, Output: v.flushOutput(), Err: err}
}

func (v *VM) flushOutput() []OutputEvent {
	out := v.outBuf
	v.outBuf = nil
	return out
}

func (v *VM) runLoop() StepResult {
	for {
		if v.quit {
			v.finished = true
			return StepResult{Kind: KindDone, Output: v.flushOutput(), Quit: true}
		}

		f := v.stack.top()
		if f == nil {
			return v.fail(fmt.Errorf("call stack exhausted"))
		}

		v.currentInstructionPC = f.returnPC
		ins, err := v.decodeInstruction(f)
		if err != nil {
			return v.fail(err)
		}
		v.currentOpcodeName = opcodeName(ins)

		if err := v.execute(ins, f); err != nil {
			return v.fail(err)
		}

		if v.pending != nil {
			req := v.pending
			req.result.Output = v.flushOutput()
			return req.result
		}
	}
}
