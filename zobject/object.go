// Package zobject implements the Z-machine's object tree: attribute bits,
// parent/sibling/child navigation and the property tables, per §3 / §4.C.
package zobject

import (
	"fmt"

	"github.com/avocet-labs/ifvm/zmem"
	"github.com/avocet-labs/ifvm/zstring"
)

// None is the "no object" sentinel. The attribute, tree-mutation, name and
// property operations treat it as a no-op that reads as zero and never
// touches memory, per §4.C; Get rejects it with an error.
const None uint16 = 0

// Object is a decoded view of one object-table entry. It does not cache
// property data; property lookups always re-read memory so that a prior
// PutProp in the same turn is immediately visible.
type Object struct {
	ID              uint16
	BaseAddress     uint32
	Attributes      uint64
	Parent          uint16
	Sibling         uint16
	Child           uint16
	PropertyPointer uint16
}

func entrySize(version uint8) uint32 {
	if version <= 3 {
		return 9
	}
	return 14
}

func defaultPropertyCount(version uint8) uint16 {
	if version <= 3 {
		return 31
	}
	return 63
}

// Tree wraps a memory image with the object table's base address and the
// story's alphabets, so callers don't have to thread them through every
// call.
type Tree struct {
	mem       *zmem.Image
	alphabets *zstring.Alphabets
}

func NewTree(mem *zmem.Image, alphabets *zstring.Alphabets) *Tree {
	return &Tree{mem: mem, alphabets: alphabets}
}

func (t *Tree) objectTableBase() uint32 {
	return uint32(t.mem.ObjectTableBase()) + uint32(defaultPropertyCount(t.mem.Version()))*2
}

// Get decodes the object-table entry for id. id must not be None; callers
// special-case object 0 before reaching here (§4.C).
func (t *Tree) Get(id uint16) (Object, error) {
	if id == None {
		return Object{}, fmt.Errorf("object 0 has no entry")
	}

	base := t.objectTableBase() + uint32(id-1)*entrySize(t.mem.Version())

	if t.mem.Version() <= 3 {
		return Object{
			ID:              id,
			BaseAddress:     base,
			Attributes:      uint64(t.mem.ReadWord(base))<<48 | uint64(t.mem.ReadWord(base+2))<<32,
			Parent:          uint16(t.mem.ReadByte(base + 4)),
			Sibling:         uint16(t.mem.ReadByte(base + 5)),
			Child:           uint16(t.mem.ReadByte(base + 6)),
			PropertyPointer: t.mem.ReadWord(base + 7),
		}, nil
	}

	return Object{
		ID:              id,
		BaseAddress:     base,
		Attributes:      uint64(t.mem.ReadWord(base))<<48 | uint64(t.mem.ReadWord(base+2))<<32 | uint64(t.mem.ReadWord(base+4))<<16,
		Parent:          t.mem.ReadWord(base + 6),
		Sibling:         t.mem.ReadWord(base + 8),
		Child:           t.mem.ReadWord(base + 10),
		PropertyPointer: t.mem.ReadWord(base + 12),
	}, nil
}

// Name decodes an object's short-name string (the first field of its
// properties block).
func (t *Tree) Name(id uint16) (string, error) {
	if id == None {
		return "", nil
	}
	obj, err := t.Get(id)
	if err != nil {
		return "", err
	}
	name, _, err := zstring.Decode(t.mem, uint32(obj.PropertyPointer)+1, t.alphabets, true)
	return name, err
}

func attrMask(attribute uint16) uint64 {
	return uint64(1) << (63 - attribute)
}

// TestAttr reports whether attribute is set on id. §4.C.
func (t *Tree) TestAttr(id uint16, attribute uint16) (bool, error) {
	if id == None {
		return false, nil
	}
	obj, err := t.Get(id)
	if err != nil {
		return false, err
	}
	return obj.Attributes&attrMask(attribute) != 0, nil
}

func (t *Tree) writeAttributes(obj Object) error {
	if err := t.mem.WriteWord(obj.BaseAddress, uint16(obj.Attributes>>48)); err != nil {
		return err
	}
	if err := t.mem.WriteWord(obj.BaseAddress+2, uint16(obj.Attributes>>32)); err != nil {
		return err
	}
	if t.mem.Version() >= 4 {
		return t.mem.WriteWord(obj.BaseAddress+4, uint16(obj.Attributes>>16))
	}
	return nil
}

// SetAttr sets attribute on id. A no-op on object 0. §4.C.
func (t *Tree) SetAttr(id uint16, attribute uint16) error {
	if id == None {
		return nil
	}
	obj, err := t.Get(id)
	if err != nil {
		return err
	}
	obj.Attributes |= attrMask(attribute)
	return t.writeAttributes(obj)
}

// ClearAttr clears attribute on id. A no-op on object 0. §4.C.
func (t *Tree) ClearAttr(id uint16, attribute uint16) error {
	if id == None {
		return nil
	}
	obj, err := t.Get(id)
	if err != nil {
		return err
	}
	obj.Attributes &^= attrMask(attribute)
	return t.writeAttributes(obj)
}

func (t *Tree) setParent(obj *Object, parent uint16) error {
	obj.Parent = parent
	if t.mem.Version() >= 4 {
		return t.mem.WriteWord(obj.BaseAddress+6, parent)
	}
	return t.mem.WriteByte(obj.BaseAddress+4, uint8(parent))
}

func (t *Tree) setSibling(obj *Object, sibling uint16) error {
	obj.Sibling = sibling
	if t.mem.Version() >= 4 {
		return t.mem.WriteWord(obj.BaseAddress+8, sibling)
	}
	return t.mem.WriteByte(obj.BaseAddress+5, uint8(sibling))
}

func (t *Tree) setChild(obj *Object, child uint16) error {
	obj.Child = child
	if t.mem.Version() >= 4 {
		return t.mem.WriteWord(obj.BaseAddress+10, child)
	}
	return t.mem.WriteByte(obj.BaseAddress+6, uint8(child))
}

// RemoveObj unlinks id from its parent's sibling chain, leaving it parentless.
// A no-op on object 0. §4.C.
func (t *Tree) RemoveObj(id uint16) error {
	if id == None {
		return nil
	}
	obj, err := t.Get(id)
	if err != nil {
		return err
	}
	if obj.Parent == None {
		return nil
	}

	parent, err := t.Get(obj.Parent)
	if err != nil {
		return err
	}

	if parent.Child == id {
		if err := t.setChild(&parent, obj.Sibling); err != nil {
			return err
		}
	} else {
		cur, err := t.Get(parent.Child)
		if err != nil {
			return err
		}
		for cur.Sibling != id {
			cur, err = t.Get(cur.Sibling)
			if err != nil {
				return err
			}
		}
		if err := t.setSibling(&cur, obj.Sibling); err != nil {
			return err
		}
	}

	return t.setParent(&obj, None)
}

// InsertObj detaches id from wherever it currently sits and makes it the
// first child of dest, preserving the sibling order of dest's other
// children. A no-op if id is None; §4.C says insert_obj on object 0 is a
// no-op, not a fault.
func (t *Tree) InsertObj(id uint16, dest uint16) error {
	if id == None {
		return nil
	}
	if err := t.RemoveObj(id); err != nil {
		return err
	}
	if dest == None {
		return nil
	}

	obj, err := t.Get(id)
	if err != nil {
		return err
	}
	destObj, err := t.Get(dest)
	if err != nil {
		return err
	}

	if err := t.setSibling(&obj, destObj.Child); err != nil {
		return err
	}
	if err := t.setParent(&obj, dest); err != nil {
		return err
	}
	return t.setChild(&destObj, id)
}
