package zmachine

import (
	"github.com/avocet-labs/ifvm/zdict"
	"github.com/avocet-labs/ifvm/zstring"
)

// textBufferChars extracts the lowercase-folded character bytes the
// player typed from a text buffer, per the version-specific layout of
// §4.E/§4.H `read`: v3/v4 buffers are null-terminated, v5+ buffers carry
// an explicit length byte after the one-byte maximum.
func (v *VM) textBufferChars(textBufAddr uint32) (chars []byte, dataStart uint32) {
	if v.mem.Version() >= 5 {
		n := v.mem.ReadByte(textBufAddr + 1)
		dataStart = textBufAddr + 2
		chars = make([]byte, n)
		for i := 0; i < int(n); i++ {
			chars[i] = v.mem.ReadByte(dataStart + uint32(i))
		}
		return chars, dataStart
	}

	dataStart = textBufAddr + 1
	for {
		b := v.mem.ReadByte(dataStart + uint32(len(chars)))
		if b == 0 {
			break
		}
		chars = append(chars, b)
	}
	return chars, dataStart
}

type token struct {
	text   []byte
	offset uint32 // relative to textBufAddr
}

// splitTokens implements §4.E's tokeniser: split on whitespace (a
// boundary, never itself a token) and on the dictionary's declared
// separator set (each separator is its own single-character token).
func splitTokens(chars []byte, textBufAddr, dataStart uint32, dict *zdict.Dictionary) []token {
	var tokens []token
	start := -1
	flush := func(end int) {
		if start >= 0 && end > start {
			tokens = append(tokens, token{text: chars[start:end], offset: dataStart + uint32(start) - textBufAddr})
		}
		start = -1
	}

	for i, c := range chars {
		switch {
		case c == ' ':
			flush(i)
		case dict.IsSeparator(c):
			flush(i)
			tokens = append(tokens, token{text: chars[i : i+1], offset: dataStart + uint32(i) - textBufAddr})
		default:
			if start < 0 {
				start = i
			}
		}
	}
	flush(len(chars))
	return tokens
}

// tokenise is the shared implementation behind the `read` opcode's
// implicit tokenisation and the explicit `tokenise` opcode. §4.E, §4.H.
func (v *VM) tokenise(dict *zdict.Dictionary, textBufAddr, parseBufAddr uint32, skipUnknown bool) error {
	chars, dataStart := v.textBufferChars(textBufAddr)
	tokens := splitTokens(chars, textBufAddr, dataStart, dict)

	maxSlots := int(v.mem.ReadByte(parseBufAddr))
	if len(tokens) > maxSlots {
		tokens = tokens[:maxSlots]
	}

	if err := v.mem.WriteByte(parseBufAddr+1, uint8(len(tokens))); err != nil {
		return err
	}

	for i, t := range tokens {
		slot := parseBufAddr + 2 + uint32(i)*4
		key := zstring.Encode(v.mem, string(t.text), v.alphabets)
		addr := dict.Lookup(key)
		if addr == 0 && skipUnknown {
			continue
		}
		if err := v.mem.WriteWord(slot, addr); err != nil {
			return err
		}
		if err := v.mem.WriteByte(slot+2, uint8(len(t.text))); err != nil {
			return err
		}
		if err := v.mem.WriteByte(slot+3, uint8(t.offset)); err != nil {
			return err
		}
	}
	return nil
}
