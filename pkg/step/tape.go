package step

import (
	"encoding/binary"
	"math"
)

// tapeChunkSize is the size of each backing chunk. 16 MiB, matching the
// reference implementation's TAPE_SIZE constant
// (original_source/src/wasm/include/web-ifc.h). It must stay >= 256 plus a
// tag byte's worth of slack so a single STRING/LABEL/ENUM payload (at most
// 255 bytes, per spec) always fits in one chunk: reserve rolls a payload
// that wouldn't fit past the end of the current chunk to a fresh one rather
// than splitting it, and skipChunkGapIfNeeded advances reads over the same
// abandoned tail on the way back out.
const tapeChunkSize = 1 << 24

// Tape is an append-only, chunked byte buffer with a movable read cursor.
// It is the backing store for all parsed and written line content in one
// model. Appending never relocates previously written chunks, so offsets
// handed out by append remain valid for the tape's lifetime.
//
// Tape is not safe for concurrent use; per spec.md §5 it is owned
// exclusively by one Loader and its cursor is single-threaded.
type Tape struct {
	chunks []*[tapeChunkSize]byte
	size   uint64 // total bytes appended across all chunks
	cursor uint64 // absolute read offset
}

// NewTape returns an empty tape with one backing chunk allocated.
func NewTape() *Tape {
	t := &Tape{}
	t.growChunk()
	return t
}

func (t *Tape) growChunk() {
	t.chunks = append(t.chunks, new([tapeChunkSize]byte))
}

// spaceInLastChunk returns how many bytes remain free in the chunk that the
// next append would land in.
func (t *Tape) spaceInLastChunk() int {
	used := int(t.size % tapeChunkSize)
	if t.size > 0 && used == 0 {
		// size is an exact multiple of the chunk size: the last chunk is
		// full, so logically there is no room left in it.
		return 0
	}
	return tapeChunkSize - used
}

// reserve ensures the next `n` bytes (n <= tapeChunkSize) can be appended
// without splitting across chunks, by starting a fresh chunk first if the
// current one lacks room. The tokenizer/serializer rely on this to keep
// every token's payload contiguous within one chunk, which is what lets
// readStringView return a zero-copy slice.
func (t *Tape) reserve(n int) {
	if n > tapeChunkSize {
		panic("step: tape append larger than chunk size")
	}
	if t.spaceInLastChunk() < n {
		// Skip the old chunk's unused tail so Append's offset lands at the
		// start of the freshly grown chunk, not inside the stale one.
		if rem := t.size % tapeChunkSize; rem != 0 {
			t.size += tapeChunkSize - rem
		}
		t.growChunk()
	}
}

// Append copies bytes onto the end of the tape, starting a new chunk when
// the current one cannot hold them contiguously. It returns the absolute
// offset the bytes were written at.
func (t *Tape) Append(b []byte) uint64 {
	if len(b) > tapeChunkSize {
		panic("step: append larger than chunk size")
	}
	t.reserve(len(b))
	off := t.size
	chunkIdx := int(off / tapeChunkSize)
	chunkOff := int(off % tapeChunkSize)
	copy(t.chunks[chunkIdx][chunkOff:], b)
	t.size += uint64(len(b))
	return off
}

// AppendByte appends a single byte and returns its offset.
func (t *Tape) AppendByte(b byte) uint64 {
	return t.Append([]byte{b})
}

// TotalSize returns the number of bytes appended to the tape so far.
func (t *Tape) TotalSize() uint64 {
	return t.size
}

// MoveTo sets the absolute read cursor.
func (t *Tape) MoveTo(offset uint64) {
	t.cursor = offset
}

// GetReadOffset returns the current absolute read cursor.
func (t *Tape) GetReadOffset() uint64 {
	return t.cursor
}

// AtEnd reports whether the cursor has consumed the whole tape.
func (t *Tape) AtEnd() bool {
	return t.cursor >= t.size
}

// Reverse backs the cursor up by exactly one tag byte. Used by callers that
// peeked a tag and want to re-read it with a typed accessor.
func (t *Tape) Reverse() {
	if t.cursor == 0 {
		panic("step: reverse at start of tape")
	}
	t.cursor--
}

func (t *Tape) byteAt(off uint64) byte {
	chunkIdx := int(off / tapeChunkSize)
	chunkOff := int(off % tapeChunkSize)
	return t.chunks[chunkIdx][chunkOff]
}

// ReadByte reads and consumes one byte at the cursor.
func (t *Tape) ReadByte() byte {
	if t.cursor >= t.size {
		panic("step: read past end of tape")
	}
	b := t.byteAt(t.cursor)
	t.cursor++
	return b
}

// Advance moves the cursor forward n bytes without decoding, for skipping a
// payload whose length is already known. Like readRaw, it must skip a
// chunk-rollover gap before the payload rather than count through it.
func (t *Tape) Advance(n uint64) {
	t.skipChunkGapIfNeeded(int(n))
	if t.cursor+n > t.size {
		panic("step: advance past end of tape")
	}
	t.cursor += n
}

// skipChunkGapIfNeeded advances the cursor to the start of the next chunk
// when the next n bytes don't fit in what's left of the current one. This
// mirrors reserve(): a multi-byte value that didn't fit contiguously was
// written starting at a fresh chunk, not split across the boundary, so
// reading it back must skip the same unused tail rather than read through it.
func (t *Tape) skipChunkGapIfNeeded(n int) {
	chunkOff := int(t.cursor % tapeChunkSize)
	if tapeChunkSize-chunkOff < n {
		t.cursor += uint64(tapeChunkSize - chunkOff)
	}
}

// readRaw reads n bytes at the cursor into a freshly allocated slice. Fixed-
// width scalars read via ReadU32/ReadF64 use this as their single code path.
func (t *Tape) readRaw(n int) []byte {
	t.skipChunkGapIfNeeded(n)
	if t.cursor+uint64(n) > t.size {
		panic("step: read past end of tape")
	}
	chunkIdx := int(t.cursor / tapeChunkSize)
	chunkOff := int(t.cursor % tapeChunkSize)
	out := make([]byte, n)
	copy(out, t.chunks[chunkIdx][chunkOff:chunkOff+n])
	t.cursor += uint64(n)
	return out
}

// ReadU32 reads a little-endian uint32 at the cursor.
func (t *Tape) ReadU32() uint32 {
	return binary.LittleEndian.Uint32(t.readRaw(4))
}

// ReadF64 reads a little-endian IEEE-754 double at the cursor.
func (t *Tape) ReadF64() float64 {
	bits := binary.LittleEndian.Uint64(t.readRaw(8))
	return math.Float64frombits(bits)
}

// StringView is a reference to tape bytes valid only until the tape is
// mutated or dropped; it never straddles a chunk boundary (guaranteed by
// reserve/Append rolling a payload that wouldn't fit to a fresh chunk rather
// than splitting it), so it is always backed by a single contiguous chunk
// slice. Implementations that hand out a StringView must not let it outlive
// the tape.
type StringView struct {
	chunk []byte
}

func (s StringView) String() string {
	return string(s.chunk)
}

func (s StringView) Len() int {
	return len(s.chunk)
}

// ReadStringView reads a u8 length prefix then returns a zero-copy view over
// the following bytes, skipping the unused tail of the current chunk first
// if the payload was rolled to a fresh one at write time (see
// skipChunkGapIfNeeded).
func (t *Tape) ReadStringView() StringView {
	n := int(t.ReadByte())
	t.skipChunkGapIfNeeded(n)
	if t.cursor+uint64(n) > t.size {
		panic("step: read past end of tape")
	}
	chunkIdx := int(t.cursor / tapeChunkSize)
	chunkOff := int(t.cursor % tapeChunkSize)
	view := StringView{chunk: t.chunks[chunkIdx][chunkOff : chunkOff+n]}
	t.cursor += uint64(n)
	return view
}

// Copy bulk-copies the physical byte range [start, end) into dst, which must
// be at least end-start bytes long. It walks chunk-by-chunk and does not
// skip chunk-rollover gaps the way readRaw/ReadStringView do, so start and
// end must be offsets that never land inside a gap; every current caller
// passes a range built from consecutive Append return values, for which
// that always holds. Extracting a range that might straddle a rollover
// should read it sequentially with MoveTo instead.
func (t *Tape) Copy(start, end uint64, dst []byte) int {
	if end < start || end > t.size {
		panic("step: copy range out of bounds")
	}
	n := int(end - start)
	if len(dst) < n {
		panic("step: destination buffer too small")
	}
	remaining := n
	off := start
	written := 0
	for remaining > 0 {
		chunkIdx := int(off / tapeChunkSize)
		chunkOff := int(off % tapeChunkSize)
		avail := tapeChunkSize - chunkOff
		take := remaining
		if take > avail {
			take = avail
		}
		copy(dst[written:written+take], t.chunks[chunkIdx][chunkOff:chunkOff+take])
		written += take
		off += uint64(take)
		remaining -= take
	}
	return written
}
