package step

import (
	"errors"
	"strings"
	"testing"
)

func tokenize(t *testing.T, src string) (*Tape, uint32) {
	t.Helper()
	tape := NewTape()
	n, err := NewTokenizer(tape).Tokenize([]byte(src))
	if err != nil {
		t.Fatalf("Tokenize(%q) error: %v", src, err)
	}
	return tape, n
}

func TestTokenizeMinimalLine(t *testing.T) {
	tape, n := tokenize(t, "#1= IFCPROJECT('g',$,'p',$,$,$,$,(#2),#3);")
	if n != 1 {
		t.Fatalf("numLines = %d, want 1", n)
	}
	tape.MoveTo(0)
	if tag := Tag(tape.ReadByte()); tag != TagRef {
		t.Fatalf("first tag = %v, want TagRef", tag)
	}
	if h := tape.ReadU32(); h != 1 {
		t.Fatalf("handle = %d, want 1", h)
	}
	if tag := Tag(tape.ReadByte()); tag != TagLabel {
		t.Fatalf("second tag = %v, want TagLabel", tag)
	}
	if name := tape.ReadStringView().String(); name != "IFCPROJECT" {
		t.Fatalf("label = %q, want IFCPROJECT", name)
	}
	if tag := Tag(tape.ReadByte()); tag != TagSetBegin {
		t.Fatalf("third tag = %v, want TagSetBegin", tag)
	}
}

// S4 — escaped quote.
func TestTokenizeEscapedQuote(t *testing.T) {
	tape, n := tokenize(t, "#1=IFCLABEL('it''s');")
	if n != 1 {
		t.Fatalf("numLines = %d, want 1", n)
	}
	tape.MoveTo(0)
	tape.ReadByte()
	tape.ReadU32()
	tape.ReadByte() // LABEL tag
	tape.ReadStringView()
	if tag := Tag(tape.ReadByte()); tag != TagSetBegin {
		t.Fatalf("tag = %v, want TagSetBegin", tag)
	}
	if tag := Tag(tape.ReadByte()); tag != TagString {
		t.Fatalf("tag = %v, want TagString", tag)
	}
	if s := tape.ReadStringView().String(); s != "it's" {
		t.Fatalf("string = %q, want %q", s, "it's")
	}
}

// S5 — real round-trip.
func TestTokenizeRealRoundTrip(t *testing.T) {
	tape, _ := tokenize(t, "#1=X(1.23456789012345);")
	tape.MoveTo(0)
	tape.ReadByte()
	tape.ReadU32()
	tape.ReadByte() // LABEL
	tape.ReadStringView()
	tape.ReadByte() // SET_BEGIN
	if tag := Tag(tape.ReadByte()); tag != TagReal {
		t.Fatalf("tag = %v, want TagReal", tag)
	}
	if v := tape.ReadF64(); v != 1.23456789012345 {
		t.Fatalf("real = %v, want 1.23456789012345", v)
	}
}

// S6 — unbalanced set reports ParseError at the semicolon.
func TestTokenizeUnbalancedSet(t *testing.T) {
	src := "#1=X((1,2);"
	tape := NewTape()
	_, err := NewTokenizer(tape).Tokenize([]byte(src))
	if err == nil {
		t.Fatal("expected ParseError, got nil")
	}
	if !errors.Is(err, ErrParseError) {
		t.Fatalf("error = %v, want wrapping ErrParseError", err)
	}
	var perr *ParseErr
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *ParseErr", err)
	}
	wantOffset := uint64(strings.IndexByte(src, ';'))
	if perr.Offset != wantOffset {
		t.Fatalf("offset = %d, want %d", perr.Offset, wantOffset)
	}
}

// Invariant 9: a 255-byte string is preserved; 256 bytes is TokenTooLong.
func TestTokenizeStringLengthBoundary(t *testing.T) {
	ok := strings.Repeat("a", 255)
	tape, n := tokenize(t, "#1=X('"+ok+"');")
	if n != 1 {
		t.Fatalf("numLines = %d, want 1", n)
	}
	tape.MoveTo(0)
	tape.ReadByte()
	tape.ReadU32()
	tape.ReadByte()
	tape.ReadStringView()
	tape.ReadByte() // SET_BEGIN
	tape.ReadByte() // STRING tag
	if got := int(tape.ReadByte()); got != 255 {
		t.Fatalf("string length = %d, want 255", got)
	}

	tooLong := strings.Repeat("a", 256)
	_, err := NewTokenizer(NewTape()).Tokenize([]byte("#1=X('" + tooLong + "');"))
	if !errors.Is(err, ErrTokenTooLong) {
		t.Fatalf("error = %v, want ErrTokenTooLong", err)
	}
}

func TestTokenizeSkipsHeaderSection(t *testing.T) {
	src := "ISO-10303-21;\nHEADER;\nFILE_DESCRIPTION(('x'),'2;1');\nENDSEC;\nDATA;\n#1=X($);\nENDSEC;\nEND-ISO-10303-21;\n"
	_, n := tokenize(t, src)
	if n != 1 {
		t.Fatalf("numLines = %d, want 1 (header/footer must not be counted)", n)
	}
}

func TestTokenizeTypedValueWrapper(t *testing.T) {
	tape, _ := tokenize(t, "#1=X(IFCLABEL('hi'));")
	arg, err := readArgValue(seekAfterSetBegin(t, tape))
	if err != nil {
		t.Fatalf("readArgValue: %v", err)
	}
	if arg.Tag != TagLabel || arg.Text != "IFCLABEL" {
		t.Fatalf("arg = %+v, want Tag=LABEL Text=IFCLABEL", arg)
	}
	if len(arg.Set) != 1 || arg.Set[0].Tag != TagString || arg.Set[0].Text != "hi" {
		t.Fatalf("arg.Set = %+v, want one STRING(hi)", arg.Set)
	}
}

// seekAfterSetBegin skips REF/LABEL/SET_BEGIN of the line's single argument
// list so the cursor sits at the first argument's tag, for tests that want
// to exercise readArgValue directly without going through moveToArgument.
func seekAfterSetBegin(t *testing.T, tape *Tape) *Tape {
	t.Helper()
	tape.MoveTo(0)
	tape.ReadByte()
	tape.ReadU32()
	tape.ReadByte()
	tape.ReadStringView()
	tape.ReadByte() // SET_BEGIN
	return tape
}
