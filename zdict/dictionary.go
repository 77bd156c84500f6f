// Package zdict implements the Z-machine dictionary and the lexical
// analyser that splits player input into tokens and matches them against
// it. §3, §4.E.
package zdict

import (
	"bytes"

	"github.com/avocet-labs/ifvm/zmem"
	"github.com/avocet-labs/ifvm/zstring"
)

// Entry is one dictionary word: its encoded lookup key, the address of that
// entry (stored back into the parse buffer so opcodes can cross-reference
// it) and the interpreter-opaque data bytes that follow the key.
type Entry struct {
	Address uint16
	Key     []byte
	Data    []byte
}

// Dictionary is a parsed dictionary table: the separator set, entry layout
// and the (possibly unsorted) list of entries.
type Dictionary struct {
	Separators  []byte
	EntryLength uint8
	Sorted      bool
	Entries     []Entry
}

// Parse reads the dictionary table starting at base. §3.
func Parse(mem *zmem.Image, base uint16, alphabets *zstring.Alphabets) *Dictionary {
	ptr := uint32(base)
	numSeparators := mem.ReadByte(ptr)
	separators := append([]byte{}, mem.Slice(ptr+1, ptr+1+uint32(numSeparators))...)
	ptr += 1 + uint32(numSeparators)

	entryLength := mem.ReadByte(ptr)
	ptr++
	count := int16(mem.ReadWord(ptr))
	ptr += 2

	sorted := count >= 0
	n := int(count)
	if !sorted {
		n = -n
	}

	keyLen := uint32(6)
	if mem.Version() <= 3 {
		keyLen = 4
	}

	entries := make([]Entry, n)
	for i := 0; i < n; i++ {
		entryAddr := ptr
		key := append([]byte{}, mem.Slice(entryAddr, entryAddr+keyLen)...)
		data := append([]byte{}, mem.Slice(entryAddr+keyLen, entryAddr+uint32(entryLength))...)
		entries[i] = Entry{Address: uint16(entryAddr), Key: key, Data: data}
		ptr += uint32(entryLength)
	}

	return &Dictionary{
		Separators:  separators,
		EntryLength: entryLength,
		Sorted:      sorted,
		Entries:     entries,
	}
}

// IsSeparator reports whether zscii is one of the dictionary's separator
// codes.
func (d *Dictionary) IsSeparator(zscii byte) bool {
	for _, s := range d.Separators {
		if s == zscii {
			return true
		}
	}
	return false
}

// Lookup finds the dictionary address for an already-encoded key, binary
// searching if the table is declared sorted and scanning linearly
// otherwise. §4.E.
func (d *Dictionary) Lookup(key []byte) uint16 {
	if d.Sorted {
		lo, hi := 0, len(d.Entries)
		for lo < hi {
			mid := (lo + hi) / 2
			switch bytes.Compare(d.Entries[mid].Key, key) {
			case 0:
				return d.Entries[mid].Address
			case -1:
				lo = mid + 1
			default:
				hi = mid
			}
		}
		return 0
	}

	for _, e := range d.Entries {
		if bytes.Equal(e.Key, key) {
			return e.Address
		}
	}
	return 0
}
