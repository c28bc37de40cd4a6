package step

import (
	"errors"
	"testing"
)

const s1Fixture = `ISO-10303-21;
HEADER; FILE_DESCRIPTION(('x'),'2;1'); FILE_NAME('n','',(''),(''),'t'); FILE_SCHEMA(('IFC2X3')); ENDSEC;
DATA;
#1= IFCPROJECT('g',$,'p',$,$,$,$,(#2),#3);
#2= IFCGEOMETRICREPRESENTATIONCONTEXT($,$,3,1.0E-5,$,$);
#3= IFCUNITASSIGNMENT((#4));
#4= IFCSIUNIT(*,.LENGTHUNIT.,.MILLI.,.METRE.);
ENDSEC; END-ISO-10303-21;
`

func openFixture(t *testing.T, src string) ModelID {
	t.Helper()
	id, err := OpenModel([]byte(src), DefaultLoaderSettings())
	if err != nil {
		t.Fatalf("OpenModel: %v", err)
	}
	t.Cleanup(func() { CloseModel(id) })
	return id
}

// S1 — minimal file.
func TestS1MinimalFile(t *testing.T) {
	id := openFixture(t, s1Fixture)

	handles, err := GetLineIDsWithType(id, TypeIFCPROJECT)
	if err != nil {
		t.Fatalf("GetLineIDsWithType: %v", err)
	}
	if len(handles) != 1 {
		t.Fatalf("len(handles) = %d, want 1", len(handles))
	}

	factor, err := LinearScalingFactor(id)
	if err != nil {
		t.Fatalf("LinearScalingFactor: %v", err)
	}
	if factor != 0.001 {
		t.Fatalf("linearScalingFactor = %v, want 0.001", factor)
	}
}

// S2 — RelVoids in file order.
func TestS2RelVoids(t *testing.T) {
	src := s1Fixture +
		"#10= IFCWALL($,$,$,$,$,$,$,$,$);\n" +
		"#20= IFCOPENINGELEMENT($,$,$,$,$,$,$,$);\n" +
		"#21= IFCOPENINGELEMENT($,$,$,$,$,$,$,$);\n" +
		"#30= IFCRELVOIDSELEMENT($,$,$,$,#10,#20);\n" +
		"#31= IFCRELVOIDSELEMENT($,$,$,$,#10,#21);\n"
	id := openFixture(t, src)

	rel, err := RelVoids(id)
	if err != nil {
		t.Fatalf("RelVoids: %v", err)
	}
	got := rel[10]
	if len(got) != 2 || got[0] != 20 || got[1] != 21 {
		t.Fatalf("relVoids[10] = %v, want [20 21]", got)
	}
}

// S3 — write a new line and read it back.
func TestS3WriteNewLine(t *testing.T) {
	id := openFixture(t, s1Fixture)

	args := []Arg{
		StringArg("gid"),
		EmptyArg(),
		StringArg("name"),
		EmptyArg(),
		SetArg(RefArg(1), RefArg(2)),
	}
	if err := WriteLine(id, 999, TypeIFCPROPERTYSET, args); err != nil {
		t.Fatalf("WriteLine: %v", err)
	}

	line, err := GetLine(id, 999)
	if err != nil {
		t.Fatalf("GetLine: %v", err)
	}
	if line.Type != TypeIFCPROPERTYSET {
		t.Fatalf("Type = %v, want TypeIFCPROPERTYSET", line.Type)
	}
	if len(line.Args) != 5 {
		t.Fatalf("len(Args) = %d, want 5", len(line.Args))
	}
	if line.Args[0].Tag != TagString || line.Args[0].Text != "gid" {
		t.Fatalf("Args[0] = %+v, want STRING(gid)", line.Args[0])
	}
	if line.Args[4].Tag != TagSetBegin || len(line.Args[4].Set) != 2 {
		t.Fatalf("Args[4] = %+v, want a 2-element set", line.Args[4])
	}

	ids, err := GetLineIDsWithType(id, TypeIFCPROPERTYSET)
	if err != nil {
		t.Fatalf("GetLineIDsWithType: %v", err)
	}
	found := false
	for _, h := range ids {
		if h == 999 {
			found = true
		}
	}
	if !found {
		t.Fatalf("GetLineIDsWithType(IFCPROPERTYSET) = %v, want to contain 999", ids)
	}
}

// Invariant 10: a referenced-but-undefined handle yields UnknownLine.
func TestGetLineUnknownHandle(t *testing.T) {
	id := openFixture(t, s1Fixture)
	_, err := GetLine(id, 12345)
	if !errors.Is(err, ErrUnknownLine) {
		t.Fatalf("error = %v, want ErrUnknownLine", err)
	}
}

// Invariant 7: writeRawLine then getLine returns the written record exactly.
func TestWriteLineThenGetLineExact(t *testing.T) {
	id, err := CreateModel(DefaultLoaderSettings())
	if err != nil {
		t.Fatalf("CreateModel: %v", err)
	}
	defer CloseModel(id)

	args := []Arg{RealArg(3.5), EnumArg("FOO"), RefArg(7)}
	if err := WriteLine(id, 1, TypeIFCLABEL, args); err != nil {
		t.Fatalf("WriteLine: %v", err)
	}
	line, err := GetLine(id, 1)
	if err != nil {
		t.Fatalf("GetLine: %v", err)
	}
	if len(line.Args) != len(args) {
		t.Fatalf("len(Args) = %d, want %d", len(line.Args), len(args))
	}
	if line.Args[0].Real != 3.5 || line.Args[1].Text != "FOO" || line.Args[2].Ref != 7 {
		t.Fatalf("Args = %+v, want %+v", line.Args, args)
	}
}

// Invariant 8: an empty model loads and round-trips its header/footer.
func TestEmptyModelRoundTrip(t *testing.T) {
	src := "ISO-10303-21;\nHEADER; FILE_DESCRIPTION(('x'),'2;1'); ENDSEC;\nDATA;\nENDSEC; END-ISO-10303-21;\n"
	id := openFixture(t, src)

	lines, err := GetAllLines(id)
	if err != nil {
		t.Fatalf("GetAllLines: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("len(lines) = %d, want 0", len(lines))
	}

	out, err := ExportFileAsIFC(id)
	if err != nil {
		t.Fatalf("ExportFileAsIFC: %v", err)
	}
	reopened, err := OpenModel(out, DefaultLoaderSettings())
	if err != nil {
		t.Fatalf("reopen exported empty model: %v", err)
	}
	defer CloseModel(reopened)
	again, _ := GetAllLines(reopened)
	if len(again) != 0 {
		t.Fatalf("len(again) = %d, want 0", len(again))
	}
}

// Invariant 6: OpenModel(DumpAsIFC(OpenModel(x))) has an equal line table.
func TestRoundTripThroughDumpAsIFC(t *testing.T) {
	id := openFixture(t, s1Fixture)
	before, err := GetAllLines(id)
	if err != nil {
		t.Fatalf("GetAllLines: %v", err)
	}

	out, err := DumpAsIFC(id)
	if err != nil {
		t.Fatalf("DumpAsIFC: %v", err)
	}
	id2, err := OpenModel(out, DefaultLoaderSettings())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer CloseModel(id2)

	after, err := GetAllLines(id2)
	if err != nil {
		t.Fatalf("GetAllLines: %v", err)
	}
	if len(before) != len(after) {
		t.Fatalf("len(before)=%d len(after)=%d", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("handle[%d] = %d, want %d", i, after[i], before[i])
		}
	}
}

func TestBadHandleErrors(t *testing.T) {
	if _, err := GetLine(999999, 1); !errors.Is(err, ErrBadHandle) {
		t.Fatalf("error = %v, want ErrBadHandle", err)
	}
	if err := CloseModel(999999); !errors.Is(err, ErrBadHandle) {
		t.Fatalf("error = %v, want ErrBadHandle", err)
	}
}

func TestIsModelOpen(t *testing.T) {
	id := openFixture(t, s1Fixture)
	if !IsModelOpen(id) {
		t.Fatal("IsModelOpen = false, want true")
	}
	CloseModel(id)
	if IsModelOpen(id) {
		t.Fatal("IsModelOpen = true after close, want false")
	}
}
