package zobject

import (
	"fmt"
)

// Property is one decoded entry from an object's property table.
type Property struct {
	ID         uint8
	Length     uint8
	DataAddr   uint32
	HeaderAddr uint32
	headerLen  uint8
}

func (t *Tree) propertyTableStart(id uint16) (uint32, error) {
	obj, err := t.Get(id)
	if err != nil {
		return 0, err
	}
	nameWords := uint32(t.mem.ReadByte(uint32(obj.PropertyPointer)))
	return uint32(obj.PropertyPointer) + 1 + nameWords*2, nil
}

// readPropertyHeader decodes the property entry whose first header byte is
// at headerAddr, returning it plus the address immediately after the
// entry (its data, for chaining to the next header).
func (t *Tree) readPropertyHeader(headerAddr uint32) Property {
	first := t.mem.ReadByte(headerAddr)

	if t.mem.Version() <= 3 {
		return Property{
			ID:         first & 0x1f,
			Length:     (first >> 5) + 1,
			HeaderAddr: headerAddr,
			DataAddr:   headerAddr + 1,
			headerLen:  1,
		}
	}

	id := first & 0x3f
	if first&0x80 != 0 {
		size := t.mem.ReadByte(headerAddr+1) & 0x3f
		if size == 0 {
			size = 64
		}
		return Property{ID: id, Length: size, HeaderAddr: headerAddr, DataAddr: headerAddr + 2, headerLen: 2}
	}

	length := uint8(1)
	if first&0x40 != 0 {
		length = 2
	}
	return Property{ID: id, Length: length, HeaderAddr: headerAddr, DataAddr: headerAddr + 1, headerLen: 1}
}

// findProperty walks id's property table looking for propertyID, returning
// ok=false if absent (not an error: the caller falls back to the default
// table).
func (t *Tree) findProperty(id uint16, propertyID uint8) (Property, bool, error) {
	ptr, err := t.propertyTableStart(id)
	if err != nil {
		return Property{}, false, err
	}

	for {
		first := t.mem.ReadByte(ptr)
		if first == 0 {
			return Property{}, false, nil
		}
		prop := t.readPropertyHeader(ptr)
		if prop.ID == propertyID {
			return prop, true, nil
		}
		if prop.ID < propertyID {
			// Property lists are in descending ID order; once we've passed
			// propertyID it cannot appear later.
			return Property{}, false, nil
		}
		ptr = prop.DataAddr + uint32(prop.Length)
	}
}

// GetProp returns id's value for propertyID: the stored bytes if present
// (1-byte properties zero-extended, 2-byte read as a big-endian word), or
// the story's default for that property if absent. Object 0 always reads
// as 0. §4.C.
func (t *Tree) GetProp(id uint16, propertyID uint8) (uint16, error) {
	if id == None {
		return 0, nil
	}

	prop, ok, err := t.findProperty(id, propertyID)
	if err != nil {
		return 0, err
	}
	if ok {
		switch prop.Length {
		case 1:
			return uint16(t.mem.ReadByte(prop.DataAddr)), nil
		case 2:
			return t.mem.ReadWord(prop.DataAddr), nil
		default:
			return 0, fmt.Errorf("get_prop: property %d on object %d has length %d (must be 1 or 2)", propertyID, id, prop.Length)
		}
	}

	defaultAddr := uint32(t.mem.ObjectTableBase()) + 2*uint32(propertyID-1)
	return t.mem.ReadWord(defaultAddr), nil
}

// GetPropAddr returns the byte address of propertyID's data on id, or 0 if
// the object has no such property (distinct from "property absent, use
// default" — callers must not confuse the two). §4.C.
func (t *Tree) GetPropAddr(id uint16, propertyID uint8) (uint32, error) {
	if id == None {
		return 0, nil
	}
	prop, ok, err := t.findProperty(id, propertyID)
	if err != nil || !ok {
		return 0, err
	}
	return prop.DataAddr, nil
}

// GetPropLen returns the length of the property whose data starts at addr,
// or 0 if addr is 0 (§7.2: a recoverable, never-surfaced condition).
func (t *Tree) GetPropLen(addr uint32) uint16 {
	if addr == 0 {
		return 0
	}

	prevByte := t.mem.ReadByte(addr - 1)
	if t.mem.Version() <= 3 {
		return uint16(prevByte>>5) + 1
	}

	// The second byte of a two-byte header always has bit 7 set; a
	// one-byte header never does.
	if prevByte&0x80 != 0 {
		size := uint16(prevByte & 0x3f)
		if size == 0 {
			size = 64
		}
		return size
	}
	if prevByte&0x40 == 0 {
		return 1
	}
	return 2
}

// GetNextProp returns the property ID following propertyID in id's table,
// or the first property ID if propertyID is 0, or 0 if propertyID was the
// last (or the table is empty). It is an error if propertyID is nonzero and
// not present on id. §4.C.
func (t *Tree) GetNextProp(id uint16, propertyID uint8) (uint8, error) {
	if id == None {
		return 0, nil
	}

	ptr, err := t.propertyTableStart(id)
	if err != nil {
		return 0, err
	}

	var prev uint8
	for {
		first := t.mem.ReadByte(ptr)
		if first == 0 {
			if propertyID == 0 {
				return 0, nil
			}
			if prev == propertyID {
				return 0, nil
			}
			return 0, fmt.Errorf("get_next_prop: property %d not present on object %d", propertyID, id)
		}

		prop := t.readPropertyHeader(ptr)
		if propertyID == 0 {
			return prop.ID, nil
		}
		if prev == propertyID {
			return prop.ID, nil
		}
		prev = prop.ID
		ptr = prop.DataAddr + uint32(prop.Length)
	}
}

// PutProp stores value into propertyID on id, which must already have a 1-
// or 2-byte property of that number; larger or absent properties are a
// fatal operand error (§4.C, §4.H).
func (t *Tree) PutProp(id uint16, propertyID uint8, value uint16) error {
	if id == None {
		return nil
	}
	prop, ok, err := t.findProperty(id, propertyID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("put_prop: object %d has no property %d", id, propertyID)
	}

	switch prop.Length {
	case 1:
		return t.mem.WriteByte(prop.DataAddr, uint8(value))
	case 2:
		return t.mem.WriteWord(prop.DataAddr, value)
	default:
		return fmt.Errorf("put_prop: property %d on object %d has length %d (must be 1 or 2)", propertyID, id, prop.Length)
	}
}
