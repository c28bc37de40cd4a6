package step

// Line is the per-line record the parser builds while walking the tape.
// Invariant: tapeOffset points at the TagSetBegin token of the line's
// outermost argument list — not at its leading REF/LABEL tokens — so that
// moveToArgument can treat offset 0 uniformly as "just past the opening
// paren" for every line, regardless of how its handle or label were
// spelled in the source text.
type Line struct {
	Handle     Handle
	Type       TypeCode
	tapeOffset uint64
	tapeEnd    uint64
}

// TapeOffset returns the absolute tape offset of this line's outermost
// SET_BEGIN token.
func (l Line) TapeOffset() uint64 { return l.tapeOffset }

// TapeEnd returns the absolute tape offset just past this line's LINE_END
// token.
func (l Line) TapeEnd() uint64 { return l.tapeEnd }

// HandlePair is one relating-line's contribution to a relationship map whose
// value carries more than a bare handle: Relating is the handle of the line
// that expressed the relation (the IFCSTYLEDITEM/IFCRELASSOCIATESMATERIAL/
// IFCMATERIALDEFINITIONREPRESENTATION instance itself), Other is the handle
// it relates the map's key to. Mirrors the reference implementation's
// emplace_back(relatingID, otherRef) pairs (spec.md §3).
type HandlePair struct {
	Relating Handle
	Other    Handle
}

// MetaData holds everything the parser discovers about one model: the
// dense/sparse line index, the type index, and the five relationship maps
// precomputed during the load (spec.md §4.3, §4.6). It is the in-memory
// analog of mantle's tensor index (internal/gguf tensor_index.go) —
// a name/handle keyed directory over content that lives elsewhere (there,
// mmap'd tensor bytes; here, tape token streams).
type MetaData struct {
	lines       []Line          // dense, indexed by LineID
	handleToID  map[Handle]LineID
	typeToIDs   map[TypeCode][]LineID

	RelVoids            map[Handle][]Handle     // IFCRELVOIDSELEMENT: wall -> openings
	RelAggregates       map[Handle][]Handle     // IFCRELAGGREGATES: parent -> children
	StyledItems         map[Handle][]HandlePair // IFCSTYLEDITEM: represented item -> (styledItem, style) pairs
	RelMaterials        map[Handle][]HandlePair // IFCRELASSOCIATESMATERIAL: object -> (association, material) pairs
	MaterialDefinitions map[Handle][]HandlePair // IFCMATERIALDEFINITIONREPRESENTATION: material -> (definition, representation) pairs
}

// NewMetaData returns an empty MetaData ready for the parser to populate.
func NewMetaData() *MetaData {
	return &MetaData{
		handleToID:          make(map[Handle]LineID),
		typeToIDs:           make(map[TypeCode][]LineID),
		RelVoids:            make(map[Handle][]Handle),
		RelAggregates:       make(map[Handle][]Handle),
		StyledItems:         make(map[Handle][]HandlePair),
		RelMaterials:        make(map[Handle][]HandlePair),
		MaterialDefinitions: make(map[Handle][]HandlePair),
	}
}

// addLine records a newly parsed line and returns its dense LineID.
func (m *MetaData) addLine(line Line) LineID {
	id := LineID(len(m.lines))
	m.lines = append(m.lines, line)
	m.handleToID[line.Handle] = id
	m.typeToIDs[line.Type] = append(m.typeToIDs[line.Type], id)
	return id
}

// setLine overwrites an existing line's tape range in place, used by the
// write path when a line's argument list is replaced (spec.md §4.7: the
// handle, LineID, and type never change on overwrite).
func (m *MetaData) setLine(id LineID, tapeOffset, tapeEnd uint64) {
	m.lines[id].tapeOffset = tapeOffset
	m.lines[id].tapeEnd = tapeEnd
}

// LineByID returns the line record for a dense LineID.
func (m *MetaData) LineByID(id LineID) (Line, bool) {
	if int(id) >= len(m.lines) {
		return Line{}, false
	}
	return m.lines[id], true
}

// LineIDForHandle resolves a sparse handle (ExpressID) to its dense LineID.
func (m *MetaData) LineIDForHandle(h Handle) (LineID, bool) {
	id, ok := m.handleToID[h]
	return id, ok
}

// LineIDsWithType returns every LineID whose line resolved to typ, in the
// order they were parsed.
func (m *MetaData) LineIDsWithType(typ TypeCode) []LineID {
	return m.typeToIDs[typ]
}

// AllLineIDs returns every LineID in parse order.
func (m *MetaData) AllLineIDs() []LineID {
	ids := make([]LineID, len(m.lines))
	for i := range m.lines {
		ids[i] = LineID(i)
	}
	return ids
}

// NumLines returns the number of lines currently indexed.
func (m *MetaData) NumLines() int {
	return len(m.lines)
}
