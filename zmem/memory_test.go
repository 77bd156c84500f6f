package zmem

import "testing"

// minimalV3Image builds a story image just large enough to hold a
// sensible header and a handful of dynamic/static bytes for bounds
// testing. Table bases are placed in the low dynamic region; the static
// boundary sits right after them.
func minimalV3Image() []byte {
	b := make([]byte, 256)
	b[offVersion] = 3
	// static memory starts at 0x80, high memory at 0xc0, file length 256 bytes
	b[offStaticMemoryBase] = 0x00
	b[offStaticMemoryBase+1] = 0x80
	b[offHighMemBase] = 0x00
	b[offHighMemBase+1] = 0xc0
	b[offFileLength] = 0x00
	b[offFileLength+1] = 0x80 // 128 words * 2 = 256 bytes
	b[offObjectTableBase] = 0x00
	b[offObjectTableBase+1] = 0x40
	b[offDictionaryBase] = 0x00
	b[offDictionaryBase+1] = 0x50
	b[offGlobalVariableBase] = 0x00
	b[offGlobalVariableBase+1] = 0x60
	return b
}

func TestLoadRejectsShortFiles(t *testing.T) {
	if _, err := Load(make([]byte, 10)); err == nil {
		t.Fatal("expected an error loading a too-short story file")
	}
}

func TestLoadRejectsUnsupportedVersion(t *testing.T) {
	b := minimalV3Image()
	b[offVersion] = 6
	if _, err := Load(b); err == nil {
		t.Fatal("expected an error loading a v6 story file")
	}
}

func TestLoadAcceptsSupportedVersions(t *testing.T) {
	for _, v := range []uint8{3, 4, 5, 8} {
		b := minimalV3Image()
		b[offVersion] = v
		if _, err := Load(b); err != nil {
			t.Errorf("version %d should load cleanly: %v", v, err)
		}
	}
}

func TestHeaderAccessors(t *testing.T) {
	img, err := Load(minimalV3Image())
	if err != nil {
		t.Fatal(err)
	}
	if got := img.ObjectTableBase(); got != 0x40 {
		t.Errorf("ObjectTableBase = 0x%x, want 0x40", got)
	}
	if got := img.DictionaryBase(); got != 0x50 {
		t.Errorf("DictionaryBase = 0x%x, want 0x50", got)
	}
	if got := img.GlobalVariableBase(); got != 0x60 {
		t.Errorf("GlobalVariableBase = 0x%x, want 0x60", got)
	}
	if got := img.StaticMemoryBase(); got != 0x80 {
		t.Errorf("StaticMemoryBase = 0x%x, want 0x80", got)
	}
}

func TestFileLengthScalesByVersion(t *testing.T) {
	cases := []struct {
		version uint8
		divisor uint32
	}{
		{3, 2}, {4, 4}, {5, 4}, {8, 8},
	}
	for _, c := range cases {
		b := minimalV3Image()
		b[offVersion] = c.version
		b[offFileLength], b[offFileLength+1] = 0, 10
		img, err := Load(b)
		if err != nil {
			t.Fatal(err)
		}
		want := 10 * c.divisor
		if got := img.FileLength(); got != want {
			t.Errorf("version %d: FileLength = %d, want %d", c.version, got, want)
		}
	}
}

func TestComputeChecksumMatchesStoredChecksum(t *testing.T) {
	b := minimalV3Image()
	img, err := Load(b)
	if err != nil {
		t.Fatal(err)
	}
	computed := img.ComputeChecksum()
	b[offChecksum] = byte(computed >> 8)
	b[offChecksum+1] = byte(computed)

	img2, err := Load(b)
	if err != nil {
		t.Fatal(err)
	}
	if img2.ComputeChecksum() != img2.StoredChecksum() {
		t.Fatal("checksum should match after stamping it into the header")
	}
}

func TestWriteByteRejectsStaticMemory(t *testing.T) {
	img, err := Load(minimalV3Image())
	if err != nil {
		t.Fatal(err)
	}
	if err := img.WriteByte(0x80, 1); err == nil {
		t.Fatal("expected ErrIllegalWrite writing to static memory")
	}
	if err := img.WriteByte(0x7f, 1); err != nil {
		t.Fatalf("writing the last dynamic byte should succeed: %v", err)
	}
}

func TestWriteWordRejectsCrossingStaticBoundary(t *testing.T) {
	img, err := Load(minimalV3Image())
	if err != nil {
		t.Fatal(err)
	}
	// 0x7f..0x80 straddles the static boundary at 0x80.
	if err := img.WriteWord(0x7f, 0x1234); err == nil {
		t.Fatal("expected ErrIllegalWrite writing a word straddling the static boundary")
	}
	if err := img.WriteWord(0x7e, 0x1234); err != nil {
		t.Fatalf("writing entirely within dynamic memory should succeed: %v", err)
	}
}

func TestPackedAddressScalesByVersion(t *testing.T) {
	cases := []struct {
		version uint8
		factor  uint32
	}{
		{3, 2}, {4, 4}, {5, 4}, {8, 8},
	}
	for _, c := range cases {
		b := minimalV3Image()
		b[offVersion] = c.version
		img, err := Load(b)
		if err != nil {
			t.Fatal(err)
		}
		if got, want := img.PackedAddress(10, false), 10*c.factor; got != want {
			t.Errorf("version %d: PackedAddress(10) = %d, want %d", c.version, got, want)
		}
	}
}

func TestDynamicRegionRoundTrip(t *testing.T) {
	img, err := Load(minimalV3Image())
	if err != nil {
		t.Fatal(err)
	}
	if err := img.WriteByte(0x10, 0x42); err != nil {
		t.Fatal(err)
	}
	snapshot := append([]byte{}, img.DynamicRegion()...)

	if err := img.WriteByte(0x10, 0x99); err != nil {
		t.Fatal(err)
	}
	if err := img.SetDynamicRegion(snapshot); err != nil {
		t.Fatal(err)
	}
	if got := img.ReadByte(0x10); got != 0x42 {
		t.Errorf("ReadByte(0x10) after restore = 0x%x, want 0x42", got)
	}
}

func TestSetDynamicRegionRejectsWrongLength(t *testing.T) {
	img, err := Load(minimalV3Image())
	if err != nil {
		t.Fatal(err)
	}
	if err := img.SetDynamicRegion(make([]byte, 5)); err == nil {
		t.Fatal("expected an error restoring a mis-sized dynamic region")
	}
}

func TestStampCapabilitiesSetsScreenDimensions(t *testing.T) {
	img, err := Load(minimalV3Image())
	if err != nil {
		t.Fatal(err)
	}
	img.StampCapabilities(80, 24, 9, 2, true, false, false)
	if img.ReadByte(offScreenWidthChars) != 80 {
		t.Errorf("screen width = %d, want 80", img.ReadByte(offScreenWidthChars))
	}
	if img.ReadByte(offScreenHeightLines) != 24 {
		t.Errorf("screen height = %d, want 24", img.ReadByte(offScreenHeightLines))
	}
}
