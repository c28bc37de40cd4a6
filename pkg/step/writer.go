package step

import (
	"fmt"
	"math"
)

// This file holds the tape-level token encoders shared by the tokenizer
// (which encodes a token per character-classifier decision) and the write
// path (which encodes a token per caller-supplied Arg). Keeping the byte
// layout in one place is what lets the reader in cursor.go stay agnostic to
// whether a line came from parsing text or from WriteLine.

func encodeRef(tape *Tape, h Handle) {
	tape.AppendByte(byte(TagRef))
	var buf [4]byte
	buf[0] = byte(h)
	buf[1] = byte(h >> 8)
	buf[2] = byte(h >> 16)
	buf[3] = byte(h >> 24)
	tape.Append(buf[:])
}

func encodeReal(tape *Tape, v float64) {
	tape.AppendByte(byte(TagReal))
	bits := math.Float64bits(v)
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(bits >> (8 * i))
	}
	tape.Append(buf[:])
}

func encodeLenPrefixed(tape *Tape, tag Tag, s string) error {
	if len(s) > maxTokenPayload {
		return fmt.Errorf("%w: %s payload", ErrTokenTooLong, tag)
	}
	tape.AppendByte(byte(tag))
	tape.AppendByte(byte(len(s)))
	tape.Append([]byte(s))
	return nil
}

func encodeString(tape *Tape, s string) error { return encodeLenPrefixed(tape, TagString, s) }
func encodeLabel(tape *Tape, s string) error  { return encodeLenPrefixed(tape, TagLabel, s) }
func encodeEnum(tape *Tape, s string) error   { return encodeLenPrefixed(tape, TagEnum, s) }

func encodeEmpty(tape *Tape)   { tape.AppendByte(byte(TagEmpty)) }
func encodeUnknown(tape *Tape) { tape.AppendByte(byte(TagUnknown)) }
func encodeLineEnd(tape *Tape) { tape.AppendByte(byte(TagLineEnd)) }

// encodeSetBegin appends SET_BEGIN and returns the offset it was written
// at, which becomes a Line's tapeOffset when this is the outermost list.
func encodeSetBegin(tape *Tape) uint64 { return tape.AppendByte(byte(TagSetBegin)) }
func encodeSetEnd(tape *Tape)          { tape.AppendByte(byte(TagSetEnd)) }

// encodeArg writes one argument value, recursing into Set for nested lists
// and for a LABEL that wraps a typed value (Tag == TagLabel with Set != nil,
// e.g. IFCLABEL('x')). args are read-only: nothing here mutates a.
func encodeArg(tape *Tape, a Arg) error {
	switch a.Tag {
	case TagRef:
		encodeRef(tape, a.Ref)
	case TagReal:
		encodeReal(tape, a.Real)
	case TagString:
		return encodeString(tape, a.Text)
	case TagEnum:
		return encodeEnum(tape, a.Text)
	case TagLabel:
		if err := encodeLabel(tape, a.Text); err != nil {
			return err
		}
		if a.Set != nil {
			encodeSetBegin(tape)
			for _, elem := range a.Set {
				if err := encodeArg(tape, elem); err != nil {
					return err
				}
			}
			encodeSetEnd(tape)
		}
	case TagEmpty:
		encodeEmpty(tape)
	case TagUnknown:
		encodeUnknown(tape)
	case TagSetBegin:
		encodeSetBegin(tape)
		for _, elem := range a.Set {
			if err := encodeArg(tape, elem); err != nil {
				return err
			}
		}
		encodeSetEnd(tape)
	default:
		return fmt.Errorf("%w: cannot encode tag %v", ErrWrongTag, a.Tag)
	}
	return nil
}

// writeRawLine implements spec.md §4.7: emit REF(handle), LABEL(schema name
// for typeCode), each argument, LINE_END, then insert or update the Line
// record. The handle, LineID, and type never change on overwrite — only the
// tape range does; old bytes become garbage the tape never compacts.
func writeRawLine(tape *Tape, meta *MetaData, schema *Schema, handle Handle, typeCode TypeCode, args []Arg) error {
	encodeRef(tape, handle)
	if err := encodeLabel(tape, schema.Name(typeCode)); err != nil {
		return err
	}
	setOffset := encodeSetBegin(tape)
	for _, a := range args {
		if err := encodeArg(tape, a); err != nil {
			return err
		}
	}
	encodeSetEnd(tape)
	encodeLineEnd(tape)
	end := tape.TotalSize()

	if id, ok := meta.LineIDForHandle(handle); ok {
		meta.setLine(id, setOffset, end)
		return nil
	}
	meta.addLine(Line{Handle: handle, Type: typeCode, tapeOffset: setOffset, tapeEnd: end})
	return nil
}
