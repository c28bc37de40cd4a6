package step

import "github.com/samcharles93/ifcstep/internal/logger"

// LoaderSettings configures a model open. Most fields are consumed by the
// geometry collaborator; the loader itself only stores them.
type LoaderSettings struct {
	// CoordinateToOrigin shifts geometry so its bounding box origin sits at
	// (0,0,0). Geometry-only; unused by this package.
	CoordinateToOrigin bool

	// UseFastBools selects an approximate CSG boolean algorithm. Geometry-only.
	UseFastBools bool

	// DumpCsgMeshes writes intermediate CSG operands to disk for debugging.
	// Geometry-only.
	DumpCsgMeshes bool

	// CircleSegmentsLow/Medium/High set tessellation density for circular
	// profiles at three levels of detail. Geometry-only.
	CircleSegmentsLow    int
	CircleSegmentsMedium int
	CircleSegmentsHigh   int

	// MeshCache enables the geometry collaborator's mesh memoization.
	MeshCache bool

	// Schema supplies the label->TypeCode table used while parsing. When
	// nil, DefaultSchema() is used.
	Schema *Schema

	// Logger receives parse diagnostics (relationship-pass skips, unit
	// fallback, etc). When nil, a no-op logger is used.
	Logger logger.Logger
}

// DefaultLoaderSettings returns the settings the reference loader uses when
// none are supplied: conservative circle tessellation, no CSG shortcuts, no
// mesh cache.
func DefaultLoaderSettings() LoaderSettings {
	return LoaderSettings{
		CircleSegmentsLow:    5,
		CircleSegmentsMedium: 8,
		CircleSegmentsHigh:   12,
	}
}

func (s LoaderSettings) schemaOrDefault() *Schema {
	if s.Schema != nil {
		return s.Schema
	}
	return DefaultSchema()
}

func (s LoaderSettings) loggerOrNop() logger.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return logger.Nop()
}
