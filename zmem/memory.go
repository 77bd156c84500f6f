// Package zmem implements the Z-machine's byte-addressable memory image:
// the header fields, the dynamic/static/high region split, and the
// bounds-checked byte/word accessors every other package reads and writes
// through.
package zmem

import (
	"encoding/binary"
	"fmt"
)

// Header byte offsets, Z-machine Standard v1.1 §11.1.
const (
	offVersion               = 0x00
	offFlags1                = 0x01
	offReleaseNumber         = 0x02
	offHighMemBase           = 0x04
	offInitialPC             = 0x06
	offDictionaryBase        = 0x08
	offObjectTableBase       = 0x0a
	offGlobalVariableBase    = 0x0c
	offStaticMemoryBase      = 0x0e
	offFlags2                = 0x10
	offSerial                = 0x12
	offAbbreviationTableBase = 0x18
	offFileLength            = 0x1a
	offChecksum              = 0x1c
	offInterpreterNumber     = 0x1e
	offInterpreterVersion    = 0x1f
	offScreenHeightLines     = 0x20
	offScreenWidthChars      = 0x21
	offScreenWidthUnits      = 0x22
	offScreenHeightUnits     = 0x24
	offFontWidthUnits        = 0x26
	offFontHeightUnits       = 0x27
	offRoutinesOffset        = 0x28
	offStringOffset          = 0x2a
	offDefaultBackground     = 0x2c
	offDefaultForeground     = 0x2d
	offTerminatingCharsBase  = 0x2e
	offOutputStream3Width    = 0x30
	offStandardRevision      = 0x32
	offAlphabetTableBase     = 0x34
	offHeaderExtensionBase   = 0x36

	HeaderSize = 64
)

// ErrIllegalWrite is returned when a store opcode targets static or high
// memory. It is always fatal to the VM that receives it.
type ErrIllegalWrite struct {
	Address uint32
}

func (e *ErrIllegalWrite) Error() string {
	return fmt.Sprintf("illegal write to address 0x%x (not in dynamic memory)", e.Address)
}

// Image is the Z-machine's memory: a single contiguous byte array plus the
// handful of header fields every component needs to locate its own tables.
// Addresses below StaticBase are dynamic and may be mutated; at or above it
// they are static/high and read-only to the running story.
type Image struct {
	bytes []byte
}

// Load wraps a raw story-file image. The caller retains ownership of the
// slice's backing array only in the sense that Load does not copy it — the
// VM is expected to treat it as consumed.
func Load(storyBytes []byte) (*Image, error) {
	if len(storyBytes) < HeaderSize {
		return nil, fmt.Errorf("story file too short to contain a header (%d bytes)", len(storyBytes))
	}
	img := &Image{bytes: storyBytes}
	switch img.Version() {
	case 3, 4, 5, 8:
	default:
		return nil, fmt.Errorf("unsupported story file version %d", img.Version())
	}
	return img, nil
}

func (m *Image) Len() uint32 { return uint32(len(m.bytes)) }

func (m *Image) Version() uint8 { return m.bytes[offVersion] }

func (m *Image) Flags1() uint8 { return m.bytes[offFlags1] }

func (m *Image) ObjectTableBase() uint16 { return m.readWordUnchecked(offObjectTableBase) }

func (m *Image) DictionaryBase() uint16 { return m.readWordUnchecked(offDictionaryBase) }

func (m *Image) GlobalVariableBase() uint16 { return m.readWordUnchecked(offGlobalVariableBase) }

func (m *Image) StaticMemoryBase() uint32 { return uint32(m.readWordUnchecked(offStaticMemoryBase)) }

func (m *Image) HighMemoryBase() uint32 { return uint32(m.readWordUnchecked(offHighMemBase)) }

func (m *Image) AbbreviationTableBase() uint16 { return m.readWordUnchecked(offAbbreviationTableBase) }

func (m *Image) InitialPC() uint32 { return uint32(m.readWordUnchecked(offInitialPC)) }

func (m *Image) RoutinesOffset() uint16 { return m.readWordUnchecked(offRoutinesOffset) }

func (m *Image) StringOffset() uint16 { return m.readWordUnchecked(offStringOffset) }

func (m *Image) TerminatingCharsBase() uint16 { return m.readWordUnchecked(offTerminatingCharsBase) }

func (m *Image) AlphabetTableBase() uint16 { return m.readWordUnchecked(offAlphabetTableBase) }

func (m *Image) HeaderExtensionBase() uint16 { return m.readWordUnchecked(offHeaderExtensionBase) }

// UnicodeTableBase returns the address of the header extension table's
// unicode-translation-table entry, or 0 if the story declares no extension
// table or no such entry.
func (m *Image) UnicodeTableBase() uint16 {
	ext := m.HeaderExtensionBase()
	if ext == 0 {
		return 0
	}
	if m.readWordUnchecked(uint32(ext)) < 3 {
		return 0
	}
	return m.readWordUnchecked(uint32(ext) + 6)
}

func (m *Image) StoredChecksum() uint16 { return m.readWordUnchecked(offChecksum) }

// FileLength is the header's declared length in bytes, scaled by the
// version-specific packing divisor.
func (m *Image) FileLength() uint32 {
	divisor := uint32(2)
	switch {
	case m.Version() >= 8:
		divisor = 8
	case m.Version() >= 4:
		divisor = 4
	}
	return uint32(m.readWordUnchecked(offFileLength)) * divisor
}

// ComputeChecksum is the unsigned 16-bit sum of every byte from offset 64
// up to FileLength, per §4.A.
func (m *Image) ComputeChecksum() uint16 {
	limit := m.FileLength()
	if limit > m.Len() || limit < HeaderSize {
		limit = m.Len()
	}
	var sum uint16
	for _, b := range m.bytes[HeaderSize:limit] {
		sum += uint16(b)
	}
	return sum
}

// PackedAddress converts a packed code or string address to a byte address,
// scaling by the version's packing factor (2/4/8) per §3.
func (m *Image) PackedAddress(packed uint32, isString bool) uint32 {
	switch {
	case m.Version() <= 3:
		return 2 * packed
	case m.Version() <= 5:
		return 4 * packed
	default: // v8
		return 8 * packed
	}
}

func (m *Image) readWordUnchecked(addr uint32) uint16 {
	return binary.BigEndian.Uint16(m.bytes[addr : addr+2])
}

// ReadByte reads one byte anywhere in the image (static and high memory are
// readable, only writes to them are rejected).
func (m *Image) ReadByte(addr uint32) uint8 {
	return m.bytes[addr]
}

// ReadWord reads a big-endian 16-bit word anywhere in the image.
func (m *Image) ReadWord(addr uint32) uint16 {
	return binary.BigEndian.Uint16(m.bytes[addr : addr+2])
}

// Slice exposes a read-only view of the image for callers (zstring, zobject,
// zdict) that need to scan runs of bytes directly. The returned slice must
// not be mutated.
func (m *Image) Slice(start, end uint32) []byte {
	return m.bytes[start:end]
}

// WriteByte writes into dynamic memory, or returns ErrIllegalWrite if addr
// falls in static or high memory.
func (m *Image) WriteByte(addr uint32, value uint8) error {
	if addr >= m.StaticMemoryBase() {
		return &ErrIllegalWrite{Address: addr}
	}
	m.bytes[addr] = value
	return nil
}

// WriteWord writes a big-endian word into dynamic memory, or returns
// ErrIllegalWrite if addr (or addr+1) falls in static or high memory.
func (m *Image) WriteWord(addr uint32, value uint16) error {
	if addr+1 >= m.StaticMemoryBase() {
		return &ErrIllegalWrite{Address: addr}
	}
	binary.BigEndian.PutUint16(m.bytes[addr:addr+2], value)
	return nil
}

// DynamicRegion returns the mutable prefix of the image that save/restore
// preserves.
func (m *Image) DynamicRegion() []byte {
	return m.bytes[:m.StaticMemoryBase()]
}

// SetDynamicRegion overwrites the dynamic region wholesale, as restore does.
func (m *Image) SetDynamicRegion(data []byte) error {
	if uint32(len(data)) != m.StaticMemoryBase() {
		return fmt.Errorf("restored dynamic memory is %d bytes, expected %d", len(data), m.StaticMemoryBase())
	}
	copy(m.bytes[:m.StaticMemoryBase()], data)
	return nil
}

// StampCapabilities rewrites the header bytes that describe the interpreter
// itself, per §3's "Invariants": these are inside dynamic memory but the
// story must never set them, and the interpreter re-asserts them on start
// and after every restore.
func (m *Image) StampCapabilities(screenCols, screenRows, defaultFG, defaultBG uint8, statusCapable, undoSupported, colorCapable bool) {
	m.bytes[offInterpreterNumber] = 6 // IBM PC, an arbitrary but conventional choice
	m.bytes[offInterpreterVersion] = 1

	m.bytes[offScreenHeightLines] = screenRows
	m.bytes[offScreenWidthChars] = screenCols
	binary.BigEndian.PutUint16(m.bytes[offScreenWidthUnits:offScreenWidthUnits+2], uint16(screenCols))
	binary.BigEndian.PutUint16(m.bytes[offScreenHeightUnits:offScreenHeightUnits+2], uint16(screenRows))
	m.bytes[offFontWidthUnits] = 1
	m.bytes[offFontHeightUnits] = 1
	m.bytes[offDefaultBackground] = defaultBG
	m.bytes[offDefaultForeground] = defaultFG

	binary.BigEndian.PutUint16(m.bytes[offStandardRevision:offStandardRevision+2], 0x0101)

	if m.Version() <= 3 {
		flag := m.bytes[offFlags1]
		flag |= 0b0010_0000 // split screen available
		flag &^= 0b0100_0000 // variable-pitch is not the default
		if statusCapable {
			flag &^= 0b0001_0000
		} else {
			flag |= 0b0001_0000
		}
		m.bytes[offFlags1] = flag
		return
	}

	flag := m.bytes[offFlags1]
	flag |= 0b0010_0000 // split screen available
	flag |= 0b0000_0100 // bold available
	flag |= 0b0000_1000 // italic available
	flag |= 0b0001_0000 // fixed-space style available
	if colorCapable {
		flag |= 0b0000_0001
	} else {
		flag &^= 0b0000_0001
	}
	flag &^= 0b1000_0000 // timed keyboard input is never advertised
	m.bytes[offFlags1] = flag

	flags2 := m.bytes[offFlags2]
	if undoSupported {
		flags2 &^= 0b0001_0000 // bit 4: "no more undo available" must stay clear
	}
	m.bytes[offFlags2] = flags2
}
