package step

// parseLines walks a fully tokenized tape from its start, discovering line
// boundaries and populating a fresh MetaData (spec.md §4.3). numLines is the
// count the tokenizer reported; it bounds the walk but a short tape simply
// stops the loop early rather than erroring, so callers can also parse a
// tape that was tokenized independently and don't need to trust the count.
func parseLines(tape *Tape, schema *Schema, numLines uint32) (*MetaData, error) {
	meta := NewMetaData()
	tape.MoveTo(0)
	for i := uint32(0); i < numLines && !tape.AtEnd(); i++ {
		if err := parseOneLine(tape, schema, meta); err != nil {
			return nil, err
		}
	}
	return meta, nil
}

// parseOneLine consumes exactly one "#N=LABEL(...);" line at the tape
// cursor and records it in meta.
func parseOneLine(tape *Tape, schema *Schema, meta *MetaData) error {
	startOffset := tape.GetReadOffset()

	if tag := Tag(tape.ReadByte()); tag != TagRef {
		return parseErrorf(startOffset, "expected REF at line start, got %v", tag)
	}
	handle := Handle(tape.ReadU32())

	labelStart := tape.GetReadOffset()
	if tag := Tag(tape.ReadByte()); tag != TagLabel {
		return parseErrorf(labelStart, "expected LABEL after handle, got %v", tag)
	}
	typeName := tape.ReadStringView().String()
	typeCode, ok := schema.Lookup(typeName)
	if !ok {
		typeCode = TypeUnknown
	}

	setStart := tape.GetReadOffset()
	if tag := Tag(tape.ReadByte()); tag != TagSetBegin {
		return parseErrorf(setStart, "expected SET_BEGIN after label, got %v", tag)
	}
	tapeOffset := setStart

	depth := 1
	for depth > 0 {
		if tape.AtEnd() {
			return parseErrorf(tape.GetReadOffset(), "unexpected end of tape inside line")
		}
		tagOffset := tape.GetReadOffset()
		switch tag := Tag(tape.ReadByte()); tag {
		case TagSetBegin:
			depth++
		case TagSetEnd:
			depth--
		case TagRef:
			tape.Advance(4)
		case TagReal:
			tape.Advance(8)
		case TagString, TagLabel, TagEnum:
			n := uint64(tape.ReadByte())
			tape.Advance(n)
		case TagEmpty, TagUnknown:
			// no payload
		case TagLineEnd:
			return parseErrorf(tagOffset, "unbalanced set: LINE_END inside argument list")
		default:
			return parseErrorf(tagOffset, "unexpected tag %v", tag)
		}
	}

	lineEndOffset := tape.GetReadOffset()
	if tape.AtEnd() {
		return parseErrorf(lineEndOffset, "missing LINE_END")
	}
	if tag := Tag(tape.ReadByte()); tag != TagLineEnd {
		return parseErrorf(lineEndOffset, "expected LINE_END, got %v", tag)
	}

	meta.addLine(Line{
		Handle:     handle,
		Type:       typeCode,
		tapeOffset: tapeOffset,
		tapeEnd:    tape.GetReadOffset(),
	})
	return nil
}
