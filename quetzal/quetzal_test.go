package quetzal

import (
	"bytes"
	"testing"
)

func sampleState() (SaveState, []byte) {
	original := make([]byte, 64)
	for i := range original {
		original[i] = byte(i)
	}
	dynamic := append([]byte{}, original...)
	dynamic[10] = 0xff // one changed byte surrounded by long unchanged runs
	dynamic[40] = 0x01

	state := SaveState{
		Header: Header{
			Release:  7,
			Serial:   [6]byte{'8', '6', '0', '9', '2', '1'},
			Checksum: 0x1234,
			PC:       0x4567,
		},
		DynamicMemory: dynamic,
		Frames: []Frame{
			{
				ReturnPC:     0x1000,
				DiscardValue: false,
				StoreTarget:  3,
				ArgCount:     2,
				Locals:       []uint16{1, 2, 3},
				EvalStack:    []uint16{10, 20},
			},
			{
				ReturnPC:     0x2000,
				DiscardValue: true,
				StoreTarget:  0,
				ArgCount:     0,
				Locals:       nil,
				EvalStack:    []uint16{99},
			},
		},
	}
	return state, original
}

func TestWriteReadRoundTrip(t *testing.T) {
	state, original := sampleState()

	blob := Write(state, original)
	got, err := Read(blob, original)
	if err != nil {
		t.Fatal(err)
	}

	if got.Header != state.Header {
		t.Errorf("header round trip = %+v, want %+v", got.Header, state.Header)
	}
	if !bytes.Equal(got.DynamicMemory, state.DynamicMemory) {
		t.Error("dynamic memory did not round trip")
	}
	if len(got.Frames) != len(state.Frames) {
		t.Fatalf("got %d frames, want %d", len(got.Frames), len(state.Frames))
	}
	for i := range state.Frames {
		want := state.Frames[i]
		have := got.Frames[i]
		if have.ReturnPC != want.ReturnPC || have.DiscardValue != want.DiscardValue ||
			have.StoreTarget != want.StoreTarget || have.ArgCount != want.ArgCount {
			t.Errorf("frame %d scalar fields = %+v, want %+v", i, have, want)
		}
		if !equalWords(have.Locals, want.Locals) {
			t.Errorf("frame %d locals = %v, want %v", i, have.Locals, want.Locals)
		}
		if !equalWords(have.EvalStack, want.EvalStack) {
			t.Errorf("frame %d eval stack = %v, want %v", i, have.EvalStack, want.EvalStack)
		}
	}
}

func equalWords(a, b []uint16) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRLECompressesLongUnchangedRuns(t *testing.T) {
	state, original := sampleState()
	blob := Write(state, original)

	// The CMem chunk should be far smaller than the raw 64-byte memory
	// image, since only two bytes differ from the baseline.
	idx := bytes.Index(blob, []byte("CMem"))
	if idx < 0 {
		t.Fatal("CMem chunk not found")
	}
	length := int(blob[idx+4])<<24 | int(blob[idx+5])<<16 | int(blob[idx+6])<<8 | int(blob[idx+7])
	if length >= len(original) {
		t.Errorf("CMem payload length = %d, want less than the raw %d bytes it replaces", length, len(original))
	}
}

func TestReadRejectsNonQuetzalBlob(t *testing.T) {
	if _, err := Read([]byte("not a save file"), make([]byte, 64)); err == nil {
		t.Fatal("expected an error reading a non-FORM/IFZS blob")
	}
}

func TestReadRejectsMissingIFhd(t *testing.T) {
	state, original := sampleState()
	blob := Write(state, original)

	idx := bytes.Index(blob, []byte("IFhd"))
	if idx < 0 {
		t.Fatal("IFhd chunk not found in generated blob")
	}
	length := int(blob[idx+4])<<24 | int(blob[idx+5])<<16 | int(blob[idx+6])<<8 | int(blob[idx+7])
	chunkTotal := 8 + length
	if length%2 == 1 {
		chunkTotal++
	}
	mangled := append(append([]byte{}, blob[:idx]...), blob[idx+chunkTotal:]...)

	if _, err := Read(mangled, original); err == nil {
		t.Fatal("expected an error reading a blob with no IFhd chunk")
	}
}

func TestReadRejectsTruncatedChunk(t *testing.T) {
	state, original := sampleState()
	blob := Write(state, original)
	if _, err := Read(blob[:len(blob)-2], original); err == nil {
		t.Fatal("expected an error reading a blob whose last chunk is cut short")
	}
}

func TestChunkPadsOddLengthPayload(t *testing.T) {
	out := chunk("TEST", []byte{1, 2, 3})
	if len(out) != 8+3+1 {
		t.Fatalf("chunk with odd payload length = %d bytes, want 12 (padded)", len(out))
	}
	if out[len(out)-1] != 0 {
		t.Error("odd-length chunk padding byte should be 0")
	}
}

func TestUMemRoundTrip(t *testing.T) {
	// A Read of a hand-built UMem chunk (uncompressed dynamic memory)
	// should come through unchanged, independent of the CMem path.
	mem := make([]byte, 32)
	for i := range mem {
		mem[i] = byte(i * 3)
	}
	ifhd := make([]byte, 13)
	var blob []byte
	blob = append(blob, "IFZS"...)
	blob = append(blob, chunk("IFhd", ifhd)...)
	blob = append(blob, chunk("UMem", mem)...)

	full := append([]byte("FORM"), byteLen(len(blob))...)
	full = append(full, blob...)

	state, err := Read(full, mem)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(state.DynamicMemory, mem) {
		t.Error("UMem chunk should be copied through verbatim")
	}
}

func byteLen(n int) []byte {
	return []byte{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}
}
