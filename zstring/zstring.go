// Package zstring implements the Z-machine's packed text encoding: decoding
// a stream of 5-bit z-characters (with alphabet shifts, ZSCII escapes and
// abbreviation indirection) to a string, and encoding a string to the
// fixed-length form used as a dictionary lookup key. §4.B.
package zstring

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/avocet-labs/ifvm/zmem"
)

// ErrNestedAbbreviation is returned by Decode when an abbreviation string
// itself references another abbreviation, which the Standard forbids
// (§3, §8 scenario 6).
var ErrNestedAbbreviation = fmt.Errorf("illegal nested abbreviation")

// Decode reads z-characters starting at addr until the terminator bit,
// returning the decoded text and the number of bytes consumed. allowAbbrev
// must be false when decoding the body of an abbreviation, so that a
// reference to a further abbreviation is caught rather than silently
// recursed into.
func Decode(mem *zmem.Image, addr uint32, alphabets *Alphabets, allowAbbrev bool) (string, uint32, error) {
	var zchrs []uint8
	ptr := addr
	for {
		word := mem.ReadWord(ptr)
		ptr += 2
		zchrs = append(zchrs, uint8((word>>10)&0x1f), uint8((word>>5)&0x1f), uint8(word&0x1f))
		if word&0x8000 != 0 {
			break
		}
	}

	var out strings.Builder
	nextShift := 0
	for i := 0; i < len(zchrs); i++ {
		z := zchrs[i]
		alphabet := nextShift
		nextShift = 0

		switch {
		case z == 0:
			out.WriteByte(' ')

		case z >= 1 && z <= 3:
			if !allowAbbrev {
				return "", 0, ErrNestedAbbreviation
			}
			if i+1 >= len(zchrs) {
				return "", 0, fmt.Errorf("truncated z-string: abbreviation escape with no index")
			}
			str, err := FindAbbreviation(mem, alphabets, z, zchrs[i+1])
			if err != nil {
				return "", 0, err
			}
			out.WriteString(str)
			i++

		case z == 4:
			nextShift = 1

		case z == 5:
			nextShift = 2

		case alphabet == 2 && z == 6:
			if i+2 >= len(zchrs) {
				return "", 0, fmt.Errorf("truncated z-string: zscii escape with no operand")
			}
			code := (zchrs[i+1] << 5) | zchrs[i+2]
			out.WriteRune(ZsciiToUnicode(mem, code))
			i += 2

		default:
			out.WriteByte(alphabets.char(alphabet, z))
		}
	}

	return out.String(), ptr - addr, nil
}

// FindAbbreviation resolves z-char trigger/index pair to the abbreviation
// table entry and decodes it. §4.B.
func FindAbbreviation(mem *zmem.Image, alphabets *Alphabets, trigger uint8, index uint8) (string, error) {
	abbrevIx := uint16(32)*uint16(trigger-1) + uint16(index)
	entryAddr := uint32(mem.AbbreviationTableBase()) + 2*uint32(abbrevIx)
	strAddr := uint32(mem.ReadWord(entryAddr)) * 2

	str, _, err := Decode(mem, strAddr, alphabets, false)
	return str, err
}

// numZChars is the fixed dictionary-entry length in z-characters: 6 (2
// words) for v3, 9 (3 words) for v4+.
func numZChars(version uint8) int {
	if version <= 3 {
		return 6
	}
	return 9
}

// Encode produces the fixed-length dictionary key form of s: z-chars
// packed three per word, padded with the pad character (5) and truncated
// to the version's fixed word count, terminator bit set on the last word.
// §4.B.
func Encode(mem *zmem.Image, s string, alphabets *Alphabets) []byte {
	version := mem.Version()
	limit := numZChars(version)

	var zchrs []uint8
	for _, r := range strings.ToLower(s) {
		if len(zchrs) >= limit {
			break
		}
		zchrs = appendZChar(zchrs, mem, r, alphabets)
	}

	for len(zchrs)%3 != 0 || len(zchrs) < limit {
		zchrs = append(zchrs, 5)
	}
	zchrs = zchrs[:limit]

	out := make([]byte, 0, limit/3*2)
	for i := 0; i < len(zchrs); i += 3 {
		word := uint16(zchrs[i]&0x1f)<<10 | uint16(zchrs[i+1]&0x1f)<<5 | uint16(zchrs[i+2]&0x1f)
		if i+3 >= len(zchrs) {
			word |= 0x8000
		}
		out = binary.BigEndian.AppendUint16(out, word)
	}
	return out
}

func appendZChar(zchrs []uint8, mem *zmem.Image, r rune, alphabets *Alphabets) []uint8 {
	if r == ' ' {
		return append(zchrs, 0)
	}
	if r >= 0 && r < 256 {
		b := byte(r)
		if ix := indexOf(alphabets.A0, b); ix >= 0 {
			return append(zchrs, 6+uint8(ix))
		}
		if ix := indexOf(alphabets.A1, b); ix >= 0 {
			return append(zchrs, 4, 6+uint8(ix))
		}
		if ix := indexOf(alphabets.A2, b); ix >= 0 && ix != 0 {
			return append(zchrs, 5, 6+uint8(ix))
		}
	}
	if code, ok := UnicodeToZscii(mem, r); ok {
		return append(zchrs, 5, 6, code>>5, code&0x1f)
	}
	return zchrs
}

func indexOf(table [26]byte, b byte) int {
	for i, c := range table {
		if c == b {
			return i
		}
	}
	return -1
}
