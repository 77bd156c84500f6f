package zstring

import "github.com/avocet-labs/ifvm/zmem"

// Alphabets holds the three 26-entry alphabet tables (A0/A1/A2) z-chars 6-31
// index into. §4.B / §3.
type Alphabets struct {
	A0 [26]byte
	A1 [26]byte
	A2 [26]byte
}

var defaultAlphabets = Alphabets{
	A0: [26]byte{'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h', 'i', 'j', 'k', 'l', 'm', 'n', 'o', 'p', 'q', 'r', 's', 't', 'u', 'v', 'w', 'x', 'y', 'z'},
	A1: [26]byte{'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H', 'I', 'J', 'K', 'L', 'M', 'N', 'O', 'P', 'Q', 'R', 'S', 'T', 'U', 'V', 'W', 'X', 'Y', 'Z'},
	A2: [26]byte{0, '\n', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '.', ',', '!', '?', '_', '#', '\'', '"', '/', '\\', '-', ':', '(', ')'},
}

// LoadAlphabets returns the default alphabets, or a story's custom ones if
// it declares an alphabet table (v5+ only, §4.B).
func LoadAlphabets(mem *zmem.Image) *Alphabets {
	base := mem.AlphabetTableBase()
	if mem.Version() < 5 || base == 0 {
		a := defaultAlphabets
		return &a
	}

	var a Alphabets
	for i := 0; i < 26; i++ {
		a.A0[i] = mem.ReadByte(uint32(base) + uint32(i))
		a.A1[i] = mem.ReadByte(uint32(base) + 26 + uint32(i))
	}
	a.A2[0] = 0
	for i := 1; i < 26; i++ {
		a.A2[i] = mem.ReadByte(uint32(base) + 52 + uint32(i))
	}
	return &a
}

func (a *Alphabets) char(alphabet int, zchr uint8) byte {
	switch alphabet {
	case 0:
		return a.A0[zchr-6]
	case 1:
		return a.A1[zchr-6]
	default:
		return a.A2[zchr-6]
	}
}
