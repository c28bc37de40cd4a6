package step

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/samcharles93/ifcstep/internal/logger"
)

// RawLine is the flattened read/write shape at the package boundary: a
// handle, its resolved type code, and its top-level arguments. The
// schema-typed entity-object layer that maps this to Go structs per IFC
// class is an external collaborator (spec.md §1); this package only ever
// sees pre-flattened arguments.
type RawLine struct {
	Handle Handle
	Type   TypeCode
	Args   []Arg
}

// Loader owns one model's tape, indices, and derived scalars. It is not
// safe for concurrent use (spec.md §5: single-threaded per model); callers
// coordinate access to one model ID themselves.
type Loader struct {
	tape     *Tape
	meta     *MetaData
	schema   *Schema
	settings LoaderSettings
	log      logger.Logger

	traceID             string
	linearScalingFactor float64
}

// TraceID returns the UUID generated when this model was opened, used to
// correlate its log lines and its entry in the debug API's model listing.
func (l *Loader) TraceID() string { return l.traceID }

// LinearScalingFactor returns the multiplier from model length units to
// metres, resolved during load (spec.md §4.6). 1.0 for a freshly created
// model until units are established by written IFCPROJECT/IFCSIUNIT lines
// and RecomputeUnits is called.
func (l *Loader) LinearScalingFactor() float64 { return l.linearScalingFactor }

// OpenModel tokenizes and parses raw STEP bytes into a new model, runs the
// relationship and unit post-passes, and registers it. Returns ParseError
// on malformed input.
func OpenModel(data []byte, settings LoaderSettings) (ModelID, error) {
	log := settings.loggerOrNop()
	tape := NewTape()
	tz := NewTokenizer(tape)
	numLines, err := tz.Tokenize(data)
	if err != nil {
		return 0, err
	}

	schema := settings.schemaOrDefault()
	meta, err := parseLines(tape, schema, numLines)
	if err != nil {
		return 0, err
	}

	l := &Loader{
		tape:     tape,
		meta:     meta,
		schema:   schema,
		settings: settings,
		log:      log,
		traceID:  uuid.NewString(),
	}
	populateRelationships(l.tape, l.meta, l.log)
	l.linearScalingFactor = readLinearScalingFactor(l.tape, l.meta, l.log)

	id := globalRegistry.open(l)
	l.log.Debug("model opened", "model", id, "trace", l.traceID, "lines", meta.NumLines())
	return id, nil
}

// CreateModel registers a new, empty model ready for WriteLine calls.
func CreateModel(settings LoaderSettings) (ModelID, error) {
	l := &Loader{
		tape:                NewTape(),
		meta:                NewMetaData(),
		schema:              settings.schemaOrDefault(),
		settings:            settings,
		log:                 settings.loggerOrNop(),
		traceID:             uuid.NewString(),
		linearScalingFactor: 1.0,
	}
	id := globalRegistry.open(l)
	l.log.Debug("model created", "model", id, "trace", l.traceID)
	return id, nil
}

// CloseModel releases a model's tape and indices.
func CloseModel(id ModelID) error {
	if !globalRegistry.close(id) {
		return fmt.Errorf("%w: %d", ErrBadHandle, id)
	}
	return nil
}

// IsModelOpen reports whether id names a currently open model.
func IsModelOpen(id ModelID) bool {
	return globalRegistry.isOpen(id)
}

func lookupLoader(id ModelID) (*Loader, error) {
	l, ok := globalRegistry.get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrBadHandle, id)
	}
	return l, nil
}

// GetLine returns handle's flattened record: its resolved type and every
// top-level argument of its line.
func GetLine(id ModelID, handle Handle) (RawLine, error) {
	l, err := lookupLoader(id)
	if err != nil {
		return RawLine{}, err
	}
	lineID, ok := l.meta.LineIDForHandle(handle)
	if !ok {
		return RawLine{}, fmt.Errorf("%w: handle %d", ErrUnknownLine, handle)
	}
	line, _ := l.meta.LineByID(lineID)

	l.tape.MoveTo(line.tapeOffset)
	arg, err := readArgValue(l.tape)
	if err != nil {
		return RawLine{}, err
	}
	return RawLine{Handle: line.Handle, Type: line.Type, Args: arg.Set}, nil
}

// WriteLine appends a new line for handle with typeCode and args, or, when
// handle already exists, replaces its arguments; an existing line keeps the
// type it was first recorded with. args
// is treated as read-only (spec.md §9: the write path must not mutate the
// caller's argument tree); nested objects must already be flattened to
// Ref(handle) by the caller before calling WriteLine.
func WriteLine(id ModelID, handle Handle, typeCode TypeCode, args []Arg) error {
	l, err := lookupLoader(id)
	if err != nil {
		return err
	}
	return writeRawLine(l.tape, l.meta, l.schema, handle, typeCode, args)
}

// GetLineIDsWithType returns the handles of every line of the given type,
// in file/insertion order. Despite the name (kept for parity with the
// spec's external-interface table), it returns handles, not dense LineIDs.
func GetLineIDsWithType(id ModelID, typeCode TypeCode) ([]Handle, error) {
	l, err := lookupLoader(id)
	if err != nil {
		return nil, err
	}
	ids := l.meta.LineIDsWithType(typeCode)
	handles := make([]Handle, len(ids))
	for i, lineID := range ids {
		line, _ := l.meta.LineByID(lineID)
		handles[i] = line.Handle
	}
	return handles, nil
}

// GetExpressIDsWithType is an alias for GetLineIDsWithType, matching
// spec.md §1's public-surface list; "ExpressID" and "handle" name the same
// value in this package.
func GetExpressIDsWithType(id ModelID, typeCode TypeCode) ([]Handle, error) {
	return GetLineIDsWithType(id, typeCode)
}

// GetAllLines returns every handle in the model, in LineID (file) order.
func GetAllLines(id ModelID) ([]Handle, error) {
	l, err := lookupLoader(id)
	if err != nil {
		return nil, err
	}
	ids := l.meta.AllLineIDs()
	handles := make([]Handle, len(ids))
	for i, lineID := range ids {
		line, _ := l.meta.LineByID(lineID)
		handles[i] = line.Handle
	}
	return handles, nil
}

// RelVoids returns a copy of the model's IFCRELVOIDSELEMENT map.
func RelVoids(id ModelID) (map[Handle][]Handle, error) { return relCopy(id, func(l *Loader) map[Handle][]Handle { return l.meta.RelVoids }) }

// RelAggregates returns a copy of the model's IFCRELAGGREGATES map.
func RelAggregates(id ModelID) (map[Handle][]Handle, error) {
	return relCopy(id, func(l *Loader) map[Handle][]Handle { return l.meta.RelAggregates })
}

// StyledItems returns a copy of the model's IFCSTYLEDITEM map. Each value
// pairs the styled-item line's own handle with the style REF it assigns
// (spec.md §3).
func StyledItems(id ModelID) (map[Handle][]HandlePair, error) {
	return relCopy(id, func(l *Loader) map[Handle][]HandlePair { return l.meta.StyledItems })
}

// RelMaterials returns a copy of the model's IFCRELASSOCIATESMATERIAL map.
// Each value pairs the associating line's own handle with the material REF
// (spec.md §3).
func RelMaterials(id ModelID) (map[Handle][]HandlePair, error) {
	return relCopy(id, func(l *Loader) map[Handle][]HandlePair { return l.meta.RelMaterials })
}

// MaterialDefinitions returns a copy of the model's
// IFCMATERIALDEFINITIONREPRESENTATION map. Each value pairs the definition
// line's own handle with the representation REF (spec.md §3).
func MaterialDefinitions(id ModelID) (map[Handle][]HandlePair, error) {
	return relCopy(id, func(l *Loader) map[Handle][]HandlePair { return l.meta.MaterialDefinitions })
}

func relCopy[V any](id ModelID, pick func(*Loader) map[Handle][]V) (map[Handle][]V, error) {
	l, err := lookupLoader(id)
	if err != nil {
		return nil, err
	}
	src := pick(l)
	out := make(map[Handle][]V, len(src))
	for k, v := range src {
		cp := make([]V, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out, nil
}

// LinearScalingFactor returns the model's resolved unit scaling factor.
func LinearScalingFactor(id ModelID) (float64, error) {
	l, err := lookupLoader(id)
	if err != nil {
		return 0, err
	}
	return l.linearScalingFactor, nil
}

// RecomputeUnits re-runs unit resolution, for callers that WriteLine'd new
// IFCPROJECT/IFCSIUNIT lines into a model created with CreateModel.
func RecomputeUnits(id ModelID) error {
	l, err := lookupLoader(id)
	if err != nil {
		return err
	}
	l.linearScalingFactor = readLinearScalingFactor(l.tape, l.meta, l.log)
	return nil
}

// RecomputeRelationships re-runs the five relationship passes, for callers
// that WriteLine'd new relating lines into a model created with CreateModel.
func RecomputeRelationships(id ModelID) error {
	l, err := lookupLoader(id)
	if err != nil {
		return err
	}
	l.meta.RelVoids = make(map[Handle][]Handle)
	l.meta.RelAggregates = make(map[Handle][]Handle)
	l.meta.StyledItems = make(map[Handle][]HandlePair)
	l.meta.RelMaterials = make(map[Handle][]HandlePair)
	l.meta.MaterialDefinitions = make(map[Handle][]HandlePair)
	populateRelationships(l.tape, l.meta, l.log)
	return nil
}

// ExportFileAsIFC re-serializes a model to STEP text.
func ExportFileAsIFC(id ModelID) ([]byte, error) {
	l, err := lookupLoader(id)
	if err != nil {
		return nil, err
	}
	return dumpAsIFC(l.tape, l.meta, l.schema)
}

// DumpAsIFC is ExportFileAsIFC under the reference implementation's name
// (spec.md §6 ADD); both resolve to the same serialization.
func DumpAsIFC(id ModelID) ([]byte, error) {
	return ExportFileAsIFC(id)
}
