package step

import (
	"fmt"
	"os"
	"sync"

	json "github.com/goccy/go-json"
)

// Schema maps IFC entity class labels (as they appear after "#N=" in STEP
// text) to the numeric TypeCode this package indexes lines by. The full,
// generated IFC2X3/IFC4 mapping is owned by the schema-specific entity
// object layer, an external collaborator; Schema here only needs to know
// the handful of types this package's own relationship and unit passes
// consume, plus whatever a caller registers for its own queries.
type Schema struct {
	mu        sync.RWMutex
	byLabel   map[string]TypeCode
	byCode    map[TypeCode]string
	nextAuto  TypeCode
}

// unknownType is the sentinel TypeCode for a LABEL that does not resolve
// through the schema table (spec: "such lines are indexed but cannot be
// semantically queried by type").
const unknownType TypeCode = 0

// Well-known type codes used by this package's own relationship and unit
// passes. Values are stable for the lifetime of a process but are not a
// public wire format; a persisted model must carry (or re-derive) its own
// schema table.
const (
	TypeUnknown                        TypeCode = unknownType
	TypeIFCPROJECT                     TypeCode = 1
	TypeIFCSIUNIT                      TypeCode = 2
	TypeIFCGEOMETRICREPRESENTATIONCONTEXT TypeCode = 3
	TypeIFCUNITASSIGNMENT              TypeCode = 4
	TypeIFCRELVOIDSELEMENT             TypeCode = 5
	TypeIFCRELAGGREGATES               TypeCode = 6
	TypeIFCSTYLEDITEM                  TypeCode = 7
	TypeIFCRELASSOCIATESMATERIAL       TypeCode = 8
	TypeIFCMATERIALDEFINITIONREPRESENTATION TypeCode = 9
	TypeIFCWALL                        TypeCode = 10
	TypeIFCOPENINGELEMENT              TypeCode = 11
	TypeIFCPROPERTYSET                 TypeCode = 12
	TypeIFCLABEL                       TypeCode = 13
)

var defaultSchemaOnce sync.Once
var defaultSchema *Schema

// DefaultSchema returns the package's built-in label table, covering the
// entity types this package's own passes reference. It is safe to share
// across models (spec.md §5: "the schema table ... is read-only and may be
// shared").
func DefaultSchema() *Schema {
	defaultSchemaOnce.Do(func() {
		s := NewSchema()
		s.mustRegister("IFCPROJECT", TypeIFCPROJECT)
		s.mustRegister("IFCSIUNIT", TypeIFCSIUNIT)
		s.mustRegister("IFCGEOMETRICREPRESENTATIONCONTEXT", TypeIFCGEOMETRICREPRESENTATIONCONTEXT)
		s.mustRegister("IFCUNITASSIGNMENT", TypeIFCUNITASSIGNMENT)
		s.mustRegister("IFCRELVOIDSELEMENT", TypeIFCRELVOIDSELEMENT)
		s.mustRegister("IFCRELAGGREGATES", TypeIFCRELAGGREGATES)
		s.mustRegister("IFCSTYLEDITEM", TypeIFCSTYLEDITEM)
		s.mustRegister("IFCRELASSOCIATESMATERIAL", TypeIFCRELASSOCIATESMATERIAL)
		s.mustRegister("IFCMATERIALDEFINITIONREPRESENTATION", TypeIFCMATERIALDEFINITIONREPRESENTATION)
		s.mustRegister("IFCWALL", TypeIFCWALL)
		s.mustRegister("IFCOPENINGELEMENT", TypeIFCOPENINGELEMENT)
		s.mustRegister("IFCPROPERTYSET", TypeIFCPROPERTYSET)
		s.mustRegister("IFCLABEL", TypeIFCLABEL)
		defaultSchema = s
	})
	return defaultSchema
}

// NewSchema returns an empty schema. Labels not registered resolve to
// TypeUnknown.
func NewSchema() *Schema {
	return &Schema{
		byLabel:  make(map[string]TypeCode),
		byCode:   make(map[TypeCode]string),
		nextAuto: 1 << 15, // keep autogenerated codes out of the well-known low range
	}
}

// Register associates a label with an explicit type code. It is an error to
// register the same label twice with different codes, or the same code
// twice under different labels.
func (s *Schema) Register(label string, code TypeCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.byLabel[label]; ok && existing != code {
		return fmt.Errorf("%w: label %q already registered as code %d", ErrDuplicateSchemaEntry, label, existing)
	}
	if existing, ok := s.byCode[code]; ok && existing != label {
		return fmt.Errorf("%w: code %d already registered as label %q", ErrDuplicateSchemaEntry, code, existing)
	}
	s.byLabel[label] = code
	s.byCode[code] = label
	return nil
}

// mustRegister registers one of the package's own well-known built-in
// entries; a conflict here is a programmer error in this file, not bad
// caller input, so it panics rather than threading an error back to
// DefaultSchema's sync.Once initializer.
func (s *Schema) mustRegister(label string, code TypeCode) {
	if err := s.Register(label, code); err != nil {
		panic(err)
	}
}

// RegisterAuto assigns and returns a fresh type code for a label not already
// known, or returns the existing code if the label is already registered.
// The parser does not call it: it resolves labels with Lookup and indexes
// unregistered ones under TypeUnknown.
func (s *Schema) RegisterAuto(label string) TypeCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if code, ok := s.byLabel[label]; ok {
		return code
	}
	code := s.nextAuto
	s.nextAuto++
	s.byLabel[label] = code
	s.byCode[code] = label
	return code
}

// Lookup resolves a label to its type code. ok is false if the label is
// unknown; callers that want auto-registration should use RegisterAuto.
func (s *Schema) Lookup(label string) (TypeCode, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	code, ok := s.byLabel[label]
	return code, ok
}

// Name returns the label registered for a type code, or "" if none.
func (s *Schema) Name(code TypeCode) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byCode[code]
}

// schemaFileEntry is the JSON record shape accepted by LoadSchemaJSON:
// [{"label": "IFCWALL", "code": 10}, ...]
type schemaFileEntry struct {
	Label string   `json:"label"`
	Code  TypeCode `json:"code"`
}

// LoadSchemaJSON reads a label->code table from a JSON file, using
// goccy/go-json for the decode. This is how a host embedding a full,
// generated IFC schema (thousands of entity types) supplies it to the
// loader without this package needing to know about code generation.
func LoadSchemaJSON(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []schemaFileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	s := NewSchema()
	for _, e := range entries {
		if err := s.Register(e.Label, e.Code); err != nil {
			return nil, err
		}
	}
	return s, nil
}
