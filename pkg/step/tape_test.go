package step

import "testing"

func TestTapeAppendAndRead(t *testing.T) {
	tape := NewTape()
	tape.AppendByte(byte(TagRef))
	tape.Append([]byte{1, 0, 0, 0})

	tape.MoveTo(0)
	if tag := Tag(tape.ReadByte()); tag != TagRef {
		t.Fatalf("tag = %v, want TagRef", tag)
	}
	if got := tape.ReadU32(); got != 1 {
		t.Fatalf("ReadU32() = %d, want 1", got)
	}
}

func TestTapeReadF64(t *testing.T) {
	tape := NewTape()
	encodeReal(tape, 1.23456789012345)
	tape.MoveTo(0)
	if tag := Tag(tape.ReadByte()); tag != TagReal {
		t.Fatalf("tag = %v, want TagReal", tag)
	}
	if got := tape.ReadF64(); got != 1.23456789012345 {
		t.Fatalf("ReadF64() = %v, want 1.23456789012345", got)
	}
}

// TestTapeChunkBoundary forces a string payload to the boundary of the
// first chunk and checks it is still readable whole, exercising the
// reserve() rollover (spec.md §4.1: readStringView must never straddle).
func TestTapeChunkBoundary(t *testing.T) {
	tape := NewTape()
	// Fill the first chunk to within a few bytes of its end in one shot,
	// then append a STRING payload that wouldn't fit without a rollover.
	filler := make([]byte, tape.spaceInLastChunk()-10)
	tape.Append(filler)
	payload := "boundary-straddle-check"
	offset := tape.Append([]byte{byte(TagString), byte(len(payload))})
	tape.Append([]byte(payload))

	tape.MoveTo(offset)
	if tag := Tag(tape.ReadByte()); tag != TagString {
		t.Fatalf("tag = %v, want TagString", tag)
	}
	view := tape.ReadStringView()
	if view.String() != payload {
		t.Fatalf("ReadStringView() = %q, want %q", view.String(), payload)
	}
}

func TestTapeReverse(t *testing.T) {
	tape := NewTape()
	tape.AppendByte(byte(TagEmpty))
	tape.AppendByte(byte(TagUnknown))
	tape.MoveTo(0)
	tape.ReadByte()
	tape.ReadByte()
	tape.Reverse()
	if tag := Tag(tape.ReadByte()); tag != TagUnknown {
		t.Fatalf("after Reverse, tag = %v, want TagUnknown", tag)
	}
}

func TestTapeCopy(t *testing.T) {
	tape := NewTape()
	tape.Append([]byte("hello world"))
	dst := make([]byte, 5)
	if n := tape.Copy(0, 5, dst); n != 5 {
		t.Fatalf("Copy() wrote %d bytes, want 5", n)
	}
	if string(dst) != "hello" {
		t.Fatalf("Copy() = %q, want %q", dst, "hello")
	}
}
