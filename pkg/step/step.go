// Package step implements a loader for STEP-encoded (ISO 10303-21) Industry
// Foundation Classes models: tokenization onto a packed binary tape,
// handle/type indexing, line-level read and write queries, and
// re-serialization back to STEP text.
//
// The package never validates schema conformance and never computes
// geometry; both are the concern of collaborators built on top of the read
// interface this package exposes.
package step

// Handle names an instance globally within one model ("#N" in STEP text).
// Handles are assigned by the file's author, not by this package, and are
// sparse: they may reach into the tens of millions.
type Handle = uint32

// LineID is a dense internal index (0..N-1) into a model's line table.
type LineID = uint32

// TypeCode identifies an IFC entity class. Zero is the "unknown label"
// sentinel used for lines whose LABEL token did not resolve through the
// schema table.
type TypeCode = uint16

// ModelID identifies one open model in the process-wide registry.
type ModelID = uint32
