package step

import "fmt"

// moveToArgument repositions tape's cursor to the first token of the
// argIndex-th top-level argument (0-based) of line's argument list, ready
// for a typed getter or readArgValue to consume it. It only depth-tracks
// tags to find the byte offset; it never materializes skipped arguments.
//
// A LABEL immediately followed by SET_BEGIN with nothing between them is a
// single typed-value argument (e.g. IFCLABEL('x')), not two sibling
// arguments — this mirrors the tokenizer's own rule (tokenizer.go,
// tokenizeValue) for a bare label followed directly by '('. Both sides of
// the tape boundary must agree on this grouping, since the tape itself
// carries no separator token for argument boundaries.
func moveToArgument(tape *Tape, line Line, argIndex int) error {
	tape.MoveTo(line.tapeOffset)
	if tag := Tag(tape.ReadByte()); tag != TagSetBegin {
		return fmt.Errorf("%w: line does not begin with an argument list", ErrWrongTag)
	}

	depth := 1
	currentArg := 0
	lastWasLabelAtDepth1 := false

	for depth > 0 {
		if depth == 1 && currentArg == argIndex && !lastWasLabelAtDepth1 {
			return nil
		}
		atDepth1 := depth == 1
		tag := Tag(tape.ReadByte())
		switch tag {
		case TagSetBegin:
			if atDepth1 && !lastWasLabelAtDepth1 {
				currentArg++
			}
			lastWasLabelAtDepth1 = false
			depth++
		case TagSetEnd:
			depth--
			if depth == 0 {
				return ErrArgumentOutOfRange
			}
		case TagRef:
			tape.Advance(4)
			if atDepth1 {
				currentArg++
				lastWasLabelAtDepth1 = false
			}
		case TagReal:
			tape.Advance(8)
			if atDepth1 {
				currentArg++
				lastWasLabelAtDepth1 = false
			}
		case TagString, TagEnum:
			n := uint64(tape.ReadByte())
			tape.Advance(n)
			if atDepth1 {
				currentArg++
				lastWasLabelAtDepth1 = false
			}
		case TagLabel:
			n := uint64(tape.ReadByte())
			tape.Advance(n)
			if atDepth1 {
				currentArg++
				lastWasLabelAtDepth1 = peekTag(tape) == TagSetBegin
			}
		case TagEmpty, TagUnknown:
			if atDepth1 {
				currentArg++
				lastWasLabelAtDepth1 = false
			}
		case TagLineEnd:
			return fmt.Errorf("%w: unbalanced argument list", ErrArgumentOutOfRange)
		default:
			return fmt.Errorf("%w: unexpected tag %v", ErrWrongTag, tag)
		}
	}
	return ErrArgumentOutOfRange
}

// peekTag reports the tag at the cursor without consuming it.
func peekTag(tape *Tape) Tag {
	tag := Tag(tape.ReadByte())
	tape.Reverse()
	return tag
}

// readArgValue reads one argument's tokens at the cursor, recursing into
// nested sets, and returns it as an Arg tree. A LABEL directly followed by
// SET_BEGIN is folded into one Arg (Tag LABEL, with Set populated from the
// wrapped list) rather than two.
func readArgValue(tape *Tape) (Arg, error) {
	tag := Tag(tape.ReadByte())
	switch tag {
	case TagRef:
		return Arg{Tag: TagRef, Ref: Handle(tape.ReadU32())}, nil
	case TagReal:
		return Arg{Tag: TagReal, Real: tape.ReadF64()}, nil
	case TagString, TagEnum:
		v := tape.ReadStringView()
		return Arg{Tag: tag, Text: v.String()}, nil
	case TagLabel:
		v := tape.ReadStringView()
		arg := Arg{Tag: TagLabel, Text: v.String()}
		if peekTag(tape) == TagSetBegin {
			inner, err := readArgValue(tape)
			if err != nil {
				return Arg{}, err
			}
			arg.Set = inner.Set
		}
		return arg, nil
	case TagEmpty:
		return Arg{Tag: TagEmpty}, nil
	case TagUnknown:
		return Arg{Tag: TagUnknown}, nil
	case TagSetBegin:
		var elems []Arg
		for peekTag(tape) != TagSetEnd {
			elem, err := readArgValue(tape)
			if err != nil {
				return Arg{}, err
			}
			elems = append(elems, elem)
		}
		tape.ReadByte() // consume SET_END
		return Arg{Tag: TagSetBegin, Set: elems}, nil
	default:
		return Arg{}, fmt.Errorf("%w: unexpected tag %v", ErrWrongTag, tag)
	}
}

// getRefArgument reads a REF at the cursor, or returns ErrWrongTag.
func getRefArgument(tape *Tape) (Handle, error) {
	if tag := Tag(tape.ReadByte()); tag != TagRef {
		return 0, fmt.Errorf("%w: expected REF, got %v", ErrWrongTag, tag)
	}
	return Handle(tape.ReadU32()), nil
}

// getRealArgument reads a REAL at the cursor, or returns ErrWrongTag.
func getRealArgument(tape *Tape) (float64, error) {
	if tag := Tag(tape.ReadByte()); tag != TagReal {
		return 0, fmt.Errorf("%w: expected REAL, got %v", ErrWrongTag, tag)
	}
	return tape.ReadF64(), nil
}

// getStringArgument reads a STRING at the cursor, or returns ErrWrongTag.
func getStringArgument(tape *Tape) (string, error) {
	if tag := Tag(tape.ReadByte()); tag != TagString {
		return "", fmt.Errorf("%w: expected STRING, got %v", ErrWrongTag, tag)
	}
	return tape.ReadStringView().String(), nil
}

// getEnumArgument reads an ENUM at the cursor, or returns ErrWrongTag.
func getEnumArgument(tape *Tape) (string, error) {
	if tag := Tag(tape.ReadByte()); tag != TagEnum {
		return "", fmt.Errorf("%w: expected ENUM, got %v", ErrWrongTag, tag)
	}
	return tape.ReadStringView().String(), nil
}

// getSetArgument reads a SET_BEGIN...SET_END at the cursor and returns its
// elements, or returns ErrWrongTag.
func getSetArgument(tape *Tape) ([]Arg, error) {
	if peekTag(tape) != TagSetBegin {
		return nil, fmt.Errorf("%w: expected SET_BEGIN, got %v", ErrWrongTag, peekTag(tape))
	}
	arg, err := readArgValue(tape)
	if err != nil {
		return nil, err
	}
	return arg.Set, nil
}
