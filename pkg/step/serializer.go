package step

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// dumpAsIFC re-serializes a model to STEP text (spec.md §4.8), the inverse
// of the tokenizer: header stub, then each line in LineID order transcribed
// from its tape tokens, then footer stub. The header/footer fields are a
// fixed placeholder (spec.md §6: "header filled with placeholder
// description/name and schema IFC2X3") — rewriting real header metadata is
// explicitly out of scope.
func dumpAsIFC(tape *Tape, meta *MetaData, schema *Schema) ([]byte, error) {
	var out bytes.Buffer
	out.WriteString("ISO-10303-21;\n")
	out.WriteString("HEADER;\n")
	out.WriteString("FILE_DESCRIPTION((''),'2;1');\n")
	out.WriteString("FILE_NAME('','',(''),(''),'','','ifcstep-export');\n")
	out.WriteString("FILE_SCHEMA(('IFC2X3'));\n")
	out.WriteString("ENDSEC;\n")
	out.WriteString("DATA;\n")

	for _, id := range meta.AllLineIDs() {
		line, _ := meta.LineByID(id)
		if err := transcribeLine(tape, line, schema, &out); err != nil {
			return nil, err
		}
	}

	out.WriteString("ENDSEC;\n")
	out.WriteString("END-ISO-10303-21;\n")
	return out.Bytes(), nil
}

// transcribeLine writes "#<handle>=<label>(<args>);\n" for one line,
// reading its argument tokens from the tape starting at tapeOffset.
func transcribeLine(tape *Tape, line Line, schema *Schema, out *bytes.Buffer) error {
	fmt.Fprintf(out, "#%d=%s", line.Handle, schema.Name(line.Type))
	tape.MoveTo(line.tapeOffset)
	if err := transcribeValue(tape, out); err != nil {
		return err
	}
	if tag := Tag(tape.ReadByte()); tag != TagLineEnd {
		return fmt.Errorf("%w: expected LINE_END after line body, got %v", ErrParseError, tag)
	}
	out.WriteString(";\n")
	return nil
}

// transcribeValue writes one argument's text form, recursing into nested
// sets. A LABEL immediately followed by SET_BEGIN (a typed-value wrapper)
// is written with no separating comma, matching how it was tokenized.
// Commas separate siblings inside a set, but never follow SET_BEGIN or a
// LABEL that opens its own wrapper.
func transcribeValue(tape *Tape, out *bytes.Buffer) error {
	switch tag := Tag(tape.ReadByte()); tag {
	case TagRef:
		fmt.Fprintf(out, "#%d", tape.ReadU32())
	case TagReal:
		out.WriteString(formatReal(tape.ReadF64()))
	case TagString:
		out.WriteByte('\'')
		out.WriteString(escapeQuotes(tape.ReadStringView().String()))
		out.WriteByte('\'')
	case TagLabel:
		out.WriteString(tape.ReadStringView().String())
		if peekTag(tape) == TagSetBegin {
			if err := transcribeValue(tape, out); err != nil {
				return err
			}
		}
	case TagEnum:
		out.WriteByte('.')
		out.WriteString(tape.ReadStringView().String())
		out.WriteByte('.')
	case TagEmpty:
		out.WriteByte('$')
	case TagUnknown:
		out.WriteByte('*')
	case TagSetBegin:
		out.WriteByte('(')
		first := true
		for peekTag(tape) != TagSetEnd {
			if !first {
				out.WriteByte(',')
			}
			first = false
			if err := transcribeValue(tape, out); err != nil {
				return err
			}
		}
		tape.ReadByte() // consume SET_END
		out.WriteByte(')')
	default:
		return fmt.Errorf("%w: unexpected tag %v while serializing", ErrWrongTag, tag)
	}
	return nil
}

// formatReal renders v as the shortest decimal that round-trips back to
// the same float64 (spec.md invariant 5/S5).
func formatReal(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
