package zobject

import (
	"testing"

	"github.com/avocet-labs/ifvm/zmem"
	"github.com/avocet-labs/ifvm/zstring"
)

// newV3Tree builds a tiny v3 object table: three objects plus a default
// property table, laid out by hand the way a story file's compiler would
// emit it.
//
// Tree shape: 1 is the parent of 2 and 3 (2 is the first child, 3 its
// sibling). Object 1 has property 5 (1 byte, value 7). Object 2 has
// property 3 (2 bytes, value 0x1234). Object 3 has no properties.
// Default property 10 is 99.
func newV3Tree(t *testing.T) (*Tree, *zmem.Image) {
	t.Helper()
	b := make([]byte, 1024)
	b[0x00] = 3                 // version
	b[0x0e], b[0x0f] = 0x03, 0x00 // static memory base 0x300
	b[0x0a], b[0x0b] = 0x00, 0x40 // object table base 0x40
	b[0x1a], b[0x1b] = 0x00, 0x80 // file length (words) * 2 = 0x100

	img, err := zmem.Load(b)
	if err != nil {
		t.Fatal(err)
	}

	// default property 10's value, at objectTableBase + 2*(10-1)
	if err := img.WriteWord(0x40+2*9, 99); err != nil {
		t.Fatal(err)
	}

	// object entries start at 0x40 + 31*2 = 0x7e
	const obj1, obj2, obj3 = 0x7e, 0x87, 0x90
	writeObj3 := func(addr uint32, parent, sibling, child uint8, propPtr uint16) {
		for i := uint32(0); i < 4; i++ {
			must(t, img.WriteByte(addr+i, 0))
		}
		must(t, img.WriteByte(addr+4, parent))
		must(t, img.WriteByte(addr+5, sibling))
		must(t, img.WriteByte(addr+6, child))
		must(t, img.WriteWord(addr+7, propPtr))
	}
	writeObj3(obj1, 0, 0, 2, 0x100)
	writeObj3(obj2, 1, 3, 0, 0x120)
	writeObj3(obj3, 1, 0, 0, 0x140)

	// object 1's properties: name length 0, then property 5 (1 byte, value 7)
	must(t, img.WriteByte(0x100, 0)) // name word count
	must(t, img.WriteByte(0x101, 5)) // header: 32*(1-1)+5
	must(t, img.WriteByte(0x102, 7))
	must(t, img.WriteByte(0x103, 0)) // terminator

	// object 2's properties: name length 0, then property 3 (2 bytes, 0x1234)
	must(t, img.WriteByte(0x120, 0))
	must(t, img.WriteByte(0x121, 32+3)) // header: 32*(2-1)+3
	must(t, img.WriteWord(0x122, 0x1234))
	must(t, img.WriteByte(0x124, 0))

	// object 3: no name, no properties
	must(t, img.WriteByte(0x140, 0))
	must(t, img.WriteByte(0x141, 0))

	alphabets := zstring.LoadAlphabets(img)
	return NewTree(img, alphabets), img
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

func TestObjectNavigation(t *testing.T) {
	tree, _ := newV3Tree(t)

	obj1, err := tree.Get(1)
	if err != nil {
		t.Fatal(err)
	}
	if obj1.Child != 2 {
		t.Errorf("object 1's child = %d, want 2", obj1.Child)
	}

	obj2, err := tree.Get(2)
	if err != nil {
		t.Fatal(err)
	}
	if obj2.Parent != 1 || obj2.Sibling != 3 {
		t.Errorf("object 2 parent/sibling = %d/%d, want 1/3", obj2.Parent, obj2.Sibling)
	}
}

func TestObjectZeroIsSentinel(t *testing.T) {
	tree, _ := newV3Tree(t)

	if ok, err := tree.TestAttr(None, 0); ok || err != nil {
		t.Errorf("TestAttr on object 0 = %v, %v; want false, nil", ok, err)
	}
	if err := tree.SetAttr(None, 0); err != nil {
		t.Errorf("SetAttr on object 0 should be a silent no-op, got %v", err)
	}
	if err := tree.InsertObj(None, 1); err != nil {
		t.Errorf("InsertObj(0, _) should be a silent no-op, got %v", err)
	}
	if v, err := tree.GetProp(None, 5); v != 0 || err != nil {
		t.Errorf("GetProp on object 0 = %v, %v; want 0, nil", v, err)
	}
}

func TestAttributeBits(t *testing.T) {
	tree, _ := newV3Tree(t)

	if ok, _ := tree.TestAttr(1, 3); ok {
		t.Fatal("attribute 3 should start clear")
	}
	if err := tree.SetAttr(1, 3); err != nil {
		t.Fatal(err)
	}
	if ok, _ := tree.TestAttr(1, 3); !ok {
		t.Fatal("attribute 3 should be set after SetAttr")
	}
	// Setting one attribute must not disturb an adjacent one.
	if ok, _ := tree.TestAttr(1, 4); ok {
		t.Fatal("attribute 4 should remain clear")
	}
	if err := tree.ClearAttr(1, 3); err != nil {
		t.Fatal(err)
	}
	if ok, _ := tree.TestAttr(1, 3); ok {
		t.Fatal("attribute 3 should be clear after ClearAttr")
	}
}

func TestInsertObjPreservesSiblingOrder(t *testing.T) {
	tree, _ := newV3Tree(t)

	// Move object 3 to be the new first child of object 1; object 2 (the
	// prior first child) must still be reachable as 3's sibling.
	if err := tree.InsertObj(3, 1); err != nil {
		t.Fatal(err)
	}

	obj1, err := tree.Get(1)
	if err != nil {
		t.Fatal(err)
	}
	if obj1.Child != 3 {
		t.Fatalf("object 1's child = %d, want 3", obj1.Child)
	}
	obj3, err := tree.Get(3)
	if err != nil {
		t.Fatal(err)
	}
	if obj3.Sibling != 2 {
		t.Fatalf("object 3's sibling = %d, want 2 (the displaced former first child)", obj3.Sibling)
	}
	obj2, err := tree.Get(2)
	if err != nil {
		t.Fatal(err)
	}
	if obj2.Sibling != 0 {
		t.Fatalf("object 2's sibling = %d, want 0 (end of chain)", obj2.Sibling)
	}
}

func TestRemoveObjUnlinksFromSiblingChain(t *testing.T) {
	tree, _ := newV3Tree(t)

	if err := tree.RemoveObj(2); err != nil {
		t.Fatal(err)
	}
	obj1, err := tree.Get(1)
	if err != nil {
		t.Fatal(err)
	}
	if obj1.Child != 3 {
		t.Fatalf("after removing the first child, object 1's child = %d, want 3", obj1.Child)
	}
	obj2, err := tree.Get(2)
	if err != nil {
		t.Fatal(err)
	}
	if obj2.Parent != None {
		t.Fatalf("removed object should have no parent, got %d", obj2.Parent)
	}
}

func TestRemoveObjMiddleOfChain(t *testing.T) {
	tree, img := newV3Tree(t)
	// Add a fourth object as a third child of 1, after 3, to exercise
	// unlinking from the middle of a chain rather than the head.
	const obj4 = 0x99
	must(t, img.WriteByte(obj4+4, 1)) // parent
	must(t, img.WriteByte(obj4+5, 0)) // sibling
	must(t, img.WriteByte(obj4+6, 0)) // child
	must(t, img.WriteWord(obj4+7, 0x140))
	obj3, _ := tree.Get(3)
	must(t, img.WriteByte(uint32(obj3.BaseAddress)+5, 4)) // object 3's sibling is now 4

	if err := tree.RemoveObj(3); err != nil {
		t.Fatal(err)
	}
	obj2, err := tree.Get(2)
	if err != nil {
		t.Fatal(err)
	}
	if obj2.Sibling != 4 {
		t.Fatalf("object 2's sibling after removing 3 = %d, want 4", obj2.Sibling)
	}
}

func TestGetPropReturnsDefaultWhenAbsent(t *testing.T) {
	tree, _ := newV3Tree(t)

	v, err := tree.GetProp(1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if v != 99 {
		t.Errorf("GetProp(1, 10) = %d, want the default 99", v)
	}
}

func TestGetPropReturnsStoredValue(t *testing.T) {
	tree, _ := newV3Tree(t)

	v1, err := tree.GetProp(1, 5)
	if err != nil {
		t.Fatal(err)
	}
	if v1 != 7 {
		t.Errorf("GetProp(1, 5) = %d, want 7", v1)
	}

	v2, err := tree.GetProp(2, 3)
	if err != nil {
		t.Fatal(err)
	}
	if v2 != 0x1234 {
		t.Errorf("GetProp(2, 3) = 0x%x, want 0x1234", v2)
	}
}

func TestPutPropRequiresExistingProperty(t *testing.T) {
	tree, _ := newV3Tree(t)

	if err := tree.PutProp(1, 5, 42); err != nil {
		t.Fatal(err)
	}
	v, _ := tree.GetProp(1, 5)
	if v != 42 {
		t.Errorf("GetProp after PutProp = %d, want 42", v)
	}

	if err := tree.PutProp(1, 10, 1); err == nil {
		t.Fatal("PutProp on a property the object doesn't have should fail")
	}
}

func TestGetPropAddrAndLen(t *testing.T) {
	tree, _ := newV3Tree(t)

	addr, err := tree.GetPropAddr(1, 5)
	if err != nil {
		t.Fatal(err)
	}
	if addr == 0 {
		t.Fatal("GetPropAddr for an existing property should be nonzero")
	}
	if got := tree.GetPropLen(addr); got != 1 {
		t.Errorf("GetPropLen = %d, want 1", got)
	}

	if addr, _ := tree.GetPropAddr(1, 10); addr != 0 {
		t.Errorf("GetPropAddr for a missing property = %d, want 0", addr)
	}
	if got := tree.GetPropLen(0); got != 0 {
		t.Errorf("GetPropLen(0) = %d, want 0", got)
	}
}

func TestGetNextProp(t *testing.T) {
	tree, _ := newV3Tree(t)

	first, err := tree.GetNextProp(1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if first != 5 {
		t.Errorf("first property of object 1 = %d, want 5", first)
	}

	last, err := tree.GetNextProp(1, 5)
	if err != nil {
		t.Fatal(err)
	}
	if last != 0 {
		t.Errorf("property after the last one = %d, want 0", last)
	}

	if _, err := tree.GetNextProp(1, 9); err == nil {
		t.Fatal("GetNextProp for a property the object doesn't have should error")
	}
}
