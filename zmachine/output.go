package zmachine

import "github.com/avocet-labs/ifvm/zstring"

// Output stream bit positions, Z-machine Standard §7.
const (
	streamScreen     uint8 = 1 << 0
	streamTranscript uint8 = 1 << 1
	streamInputLog   uint8 = 1 << 3
)

// OutputEvent is one batch of text produced since the last suspension,
// tagged with the output streams it was routed to at the time it was
// printed. §4.J.
type OutputEvent struct {
	Text       string
	StreamMask uint8
}

type memoryStream struct {
	addr  uint32
	runes []rune
}

// emit routes text through the active output streams. Per the Standard,
// while stream 3 (memory) is selected no text reaches any other stream,
// which is why memStreams is checked first and returns early. §4.I / §12.
func (v *VM) emit(text string) {
	if text == "" {
		return
	}
	if len(v.memStreams) > 0 {
		top := &v.memStreams[len(v.memStreams)-1]
		top.runes = append(top.runes, []rune(text)...)
		return
	}

	mask := uint8(0)
	if v.streamScreen {
		mask |= streamScreen
	}
	if v.streamTranscript {
		mask |= streamTranscript
	}
	if mask == 0 {
		return
	}

	if n := len(v.outBuf); n > 0 && v.outBuf[n-1].StreamMask == mask {
		v.outBuf[n-1].Text += text
		return
	}
	v.outBuf = append(v.outBuf, OutputEvent{Text: text, StreamMask: mask})
}

// setOutputStream implements the output_stream opcode: a positive
// operand enables a stream (3 requires a second operand, the table
// address to redirect into), negative disables it (3 pops and flushes
// the redirect). §4.H.
func (v *VM) setOutputStream(n int16, tableAddr uint16) error {
	switch n {
	case 1:
		v.streamScreen = true
	case -1:
		v.streamScreen = false
	case 2:
		v.streamTranscript = true
	case -2:
		v.streamTranscript = false
	case 3:
		v.memStreams = append(v.memStreams, memoryStream{addr: uint32(tableAddr)})
	case -3:
		return v.popMemoryStream()
	case 4:
		v.streamInputLog = true
	case -4:
		v.streamInputLog = false
	}
	return nil
}

func (v *VM) popMemoryStream() error {
	if len(v.memStreams) == 0 {
		return nil
	}
	top := v.memStreams[len(v.memStreams)-1]
	v.memStreams = v.memStreams[:len(v.memStreams)-1]

	if err := v.mem.WriteWord(top.addr, uint16(len(top.runes))); err != nil {
		return err
	}
	for i, r := range top.runes {
		code, ok := zstring.UnicodeToZscii(v.mem, r)
		if !ok {
			code = '?'
		}
		if err := v.mem.WriteByte(top.addr+2+uint32(i), code); err != nil {
			return err
		}
	}
	return nil
}
