package step

import (
	"strconv"
)

// Tokenizer streams a byte slice of STEP text through a character
// classifier and writes tagged tokens onto a Tape (spec.md §4.2). It does
// not itself understand IFC semantics beyond the Part-21 lexical grammar:
// line boundaries and schema resolution are the Parser's job.
type Tokenizer struct {
	tape *Tape
	src  []byte
	pos  int
}

// NewTokenizer returns a Tokenizer that appends tokens to tape.
func NewTokenizer(tape *Tape) *Tokenizer {
	return &Tokenizer{tape: tape}
}

// Tokenize scans src and appends its tokens to the tokenizer's tape,
// returning the number of "#N=...;" lines found. HEADER...ENDSEC; and
// DATA;/ENDSEC; section markers, and anything else outside a #-prefixed
// line, are skipped without being written to the tape.
func (tz *Tokenizer) Tokenize(src []byte) (uint32, error) {
	tz.src = src
	tz.pos = 0
	var numLines uint32

	for {
		tz.skipToLineStartOrEOF()
		if tz.pos >= len(tz.src) {
			return numLines, nil
		}
		if err := tz.tokenizeLine(); err != nil {
			return numLines, err
		}
		numLines++
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlpha(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func isLabelByte(c byte) bool {
	return isAlpha(c) || isDigit(c) || c == '_'
}

// skipToLineStartOrEOF advances past whitespace, comments, and any bytes
// that are not part of a "#N=...;" line (i.e. HEADER/DATA/ENDSEC markers
// and their statements), stopping at either the next '#' or end of input.
// Quoted strings are honored so a literal '#' inside header text cannot be
// mistaken for a line start.
func (tz *Tokenizer) skipToLineStartOrEOF() {
	for tz.pos < len(tz.src) {
		tz.skipWhitespaceAndComments()
		if tz.pos >= len(tz.src) {
			return
		}
		c := tz.src[tz.pos]
		if c == '#' {
			return
		}
		if c == '\'' {
			tz.skipQuotedRaw()
			continue
		}
		tz.pos++
	}
}

func (tz *Tokenizer) skipWhitespaceAndComments() {
	for tz.pos < len(tz.src) {
		c := tz.src[tz.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			tz.pos++
		case c == '/' && tz.pos+1 < len(tz.src) && tz.src[tz.pos+1] == '*':
			tz.pos += 2
			for tz.pos+1 < len(tz.src) && !(tz.src[tz.pos] == '*' && tz.src[tz.pos+1] == '/') {
				tz.pos++
			}
			if tz.pos+1 < len(tz.src) {
				tz.pos += 2
			} else {
				tz.pos = len(tz.src)
			}
		default:
			return
		}
	}
}

// skipQuotedRaw skips a 'quoted' run (doubled '' is an escaped quote)
// without tokenizing it, used only while scanning header material.
func (tz *Tokenizer) skipQuotedRaw() {
	tz.pos++ // opening quote
	for tz.pos < len(tz.src) {
		if tz.src[tz.pos] == '\'' {
			if tz.pos+1 < len(tz.src) && tz.src[tz.pos+1] == '\'' {
				tz.pos += 2
				continue
			}
			tz.pos++
			return
		}
		tz.pos++
	}
}

func (tz *Tokenizer) tokenizeLine() error {
	lineStart := tz.pos
	tz.pos++ // consume '#'

	digitsStart := tz.pos
	for tz.pos < len(tz.src) && isDigit(tz.src[tz.pos]) {
		tz.pos++
	}
	if tz.pos == digitsStart {
		return parseErrorf(uint64(lineStart), "expected digits after '#'")
	}
	handle64, err := strconv.ParseUint(string(tz.src[digitsStart:tz.pos]), 10, 32)
	if err != nil {
		return parseErrorf(uint64(digitsStart), "invalid handle: %v", err)
	}
	tz.emitRef(uint32(handle64))

	tz.skipWhitespaceAndComments()
	if tz.pos >= len(tz.src) || tz.src[tz.pos] != '=' {
		return parseErrorf(uint64(tz.pos), "expected '=' after handle")
	}
	tz.pos++ // consume '='; never tokenized
	tz.skipWhitespaceAndComments()

	label, labelStart, err := tz.readLabelText()
	if err != nil {
		return err
	}
	if len(label) > maxTokenPayload {
		return parseErrorf(uint64(labelStart), "%v: label %q", ErrTokenTooLong, label)
	}
	tz.emitLabel(label)

	tz.skipWhitespaceAndComments()
	if tz.pos >= len(tz.src) || tz.src[tz.pos] != '(' {
		return parseErrorf(uint64(tz.pos), "expected '(' after label")
	}
	if err := tz.tokenizeSet(); err != nil {
		return err
	}

	tz.skipWhitespaceAndComments()
	if tz.pos >= len(tz.src) || tz.src[tz.pos] != ';' {
		return parseErrorf(uint64(tz.pos), "unbalanced set: expected ';'")
	}
	tz.pos++
	tz.emitLineEnd()
	return nil
}

// tokenizeSet consumes a balanced '(' ... ')' run, emitting SET_BEGIN,
// each element's tokens, and SET_END. tz.pos must be at the opening '('.
func (tz *Tokenizer) tokenizeSet() error {
	tz.pos++ // consume '('
	tz.emitSetBegin()

	first := true
	for {
		tz.skipWhitespaceAndComments()
		if tz.pos >= len(tz.src) {
			return parseErrorf(uint64(tz.pos), "unbalanced set: unterminated")
		}
		if tz.src[tz.pos] == ')' {
			tz.pos++
			tz.emitSetEnd()
			return nil
		}
		if !first {
			if tz.src[tz.pos] != ',' {
				return parseErrorf(uint64(tz.pos), "expected ',' between set elements")
			}
			tz.pos++
			tz.skipWhitespaceAndComments()
		}
		first = false
		if err := tz.tokenizeValue(); err != nil {
			return err
		}
	}
}

func (tz *Tokenizer) tokenizeValue() error {
	if tz.pos >= len(tz.src) {
		return parseErrorf(uint64(tz.pos), "unexpected end of input in argument list")
	}
	c := tz.src[tz.pos]
	switch {
	case c == '#':
		return tz.tokenizeRef()
	case c == '\'':
		return tz.tokenizeString()
	case c == '(':
		return tz.tokenizeSet()
	case c == '$':
		tz.pos++
		tz.emitEmpty()
		return nil
	case c == '*':
		tz.pos++
		tz.emitUnknown()
		return nil
	case c == '.':
		if tz.pos+1 < len(tz.src) && isAlpha(tz.src[tz.pos+1]) {
			return tz.tokenizeEnum()
		}
		return tz.tokenizeReal()
	case isDigit(c) || c == '+' || c == '-':
		return tz.tokenizeReal()
	case isAlpha(c):
		start := tz.pos
		label, _, err := tz.readLabelText()
		if err != nil {
			return err
		}
		if len(label) > maxTokenPayload {
			return parseErrorf(uint64(start), "%v: label %q", ErrTokenTooLong, label)
		}
		tz.emitLabel(label)
		tz.skipWhitespaceAndComments()
		if tz.pos < len(tz.src) && tz.src[tz.pos] == '(' {
			// typed-value wrapper, e.g. IFCLABEL('x'): the nested set
			// belongs to this same argument slot.
			return tz.tokenizeSet()
		}
		return nil
	default:
		return parseErrorf(uint64(tz.pos), "unexpected character %q", c)
	}
}

func (tz *Tokenizer) tokenizeRef() error {
	start := tz.pos
	tz.pos++ // consume '#'
	digitsStart := tz.pos
	for tz.pos < len(tz.src) && isDigit(tz.src[tz.pos]) {
		tz.pos++
	}
	if tz.pos == digitsStart {
		return parseErrorf(uint64(start), "expected digits after '#'")
	}
	v, err := strconv.ParseUint(string(tz.src[digitsStart:tz.pos]), 10, 32)
	if err != nil {
		return parseErrorf(uint64(start), "invalid handle: %v", err)
	}
	tz.emitRef(uint32(v))
	return nil
}

func (tz *Tokenizer) tokenizeString() error {
	start := tz.pos
	tz.pos++ // opening quote
	var buf []byte
	for {
		if tz.pos >= len(tz.src) {
			return parseErrorf(uint64(start), "unterminated string")
		}
		c := tz.src[tz.pos]
		if c == '\'' {
			if tz.pos+1 < len(tz.src) && tz.src[tz.pos+1] == '\'' {
				buf = append(buf, '\'')
				tz.pos += 2
				continue
			}
			tz.pos++
			break
		}
		buf = append(buf, c)
		tz.pos++
	}
	if len(buf) > maxTokenPayload {
		return parseErrorf(uint64(start), "%v: string literal", ErrTokenTooLong)
	}
	tz.emitString(buf)
	return nil
}

func (tz *Tokenizer) tokenizeEnum() error {
	start := tz.pos
	tz.pos++ // opening '.'
	nameStart := tz.pos
	for tz.pos < len(tz.src) && isAlpha(tz.src[tz.pos]) {
		tz.pos++
	}
	if tz.pos == nameStart {
		return parseErrorf(uint64(start), "empty enumeration literal")
	}
	name := tz.src[nameStart:tz.pos]
	if tz.pos >= len(tz.src) || tz.src[tz.pos] != '.' {
		return parseErrorf(uint64(start), "unterminated enumeration literal")
	}
	tz.pos++ // closing '.'
	if len(name) > maxTokenPayload {
		return parseErrorf(uint64(start), "%v: enum literal", ErrTokenTooLong)
	}
	tz.emitEnum(name)
	return nil
}

func (tz *Tokenizer) tokenizeReal() error {
	start := tz.pos
	if tz.src[tz.pos] == '+' || tz.src[tz.pos] == '-' {
		tz.pos++
	}
	sawDigit := false
	for tz.pos < len(tz.src) && isDigit(tz.src[tz.pos]) {
		tz.pos++
		sawDigit = true
	}
	if tz.pos < len(tz.src) && tz.src[tz.pos] == '.' {
		tz.pos++
		for tz.pos < len(tz.src) && isDigit(tz.src[tz.pos]) {
			tz.pos++
			sawDigit = true
		}
	}
	if !sawDigit {
		return parseErrorf(uint64(start), "invalid numeric literal")
	}
	if tz.pos < len(tz.src) && (tz.src[tz.pos] == 'e' || tz.src[tz.pos] == 'E') {
		save := tz.pos
		tz.pos++
		if tz.pos < len(tz.src) && (tz.src[tz.pos] == '+' || tz.src[tz.pos] == '-') {
			tz.pos++
		}
		expStart := tz.pos
		for tz.pos < len(tz.src) && isDigit(tz.src[tz.pos]) {
			tz.pos++
		}
		if tz.pos == expStart {
			// Not actually an exponent (e.g. a LABEL starting with 'E'
			// immediately after a number would never reach here in valid
			// STEP text); back off.
			tz.pos = save
		}
	}
	v, err := strconv.ParseFloat(string(tz.src[start:tz.pos]), 64)
	if err != nil {
		return parseErrorf(uint64(start), "invalid numeric literal: %v", err)
	}
	tz.emitReal(v)
	return nil
}

// readLabelText reads a greedy [A-Z0-9_] run starting at the current
// position and returns it along with where it started.
func (tz *Tokenizer) readLabelText() (string, int, error) {
	start := tz.pos
	for tz.pos < len(tz.src) && isLabelByte(tz.src[tz.pos]) {
		tz.pos++
	}
	if tz.pos == start {
		return "", start, parseErrorf(uint64(start), "expected label")
	}
	return string(tz.src[start:tz.pos]), start, nil
}

// --- token emission: thin wrappers over the shared encoders in writer.go.
// Lengths were already checked against maxTokenPayload by the caller (with
// the correct source offset for the error), so errors here are ignored.

func (tz *Tokenizer) emitRef(h uint32)     { encodeRef(tz.tape, Handle(h)) }
func (tz *Tokenizer) emitLabel(s string)   { _ = encodeLabel(tz.tape, s) }
func (tz *Tokenizer) emitString(b []byte)  { _ = encodeString(tz.tape, string(b)) }
func (tz *Tokenizer) emitEnum(b []byte)    { _ = encodeEnum(tz.tape, string(b)) }
func (tz *Tokenizer) emitReal(v float64)   { encodeReal(tz.tape, v) }
func (tz *Tokenizer) emitEmpty()           { encodeEmpty(tz.tape) }
func (tz *Tokenizer) emitUnknown()         { encodeUnknown(tz.tape) }
func (tz *Tokenizer) emitSetBegin()        { encodeSetBegin(tz.tape) }
func (tz *Tokenizer) emitSetEnd()          { encodeSetEnd(tz.tape) }
func (tz *Tokenizer) emitLineEnd()         { encodeLineEnd(tz.tape) }
