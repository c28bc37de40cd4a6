package step

import "github.com/samcharles93/ifcstep/internal/logger"

// siPrefixMultipliers maps an IFCSIUNIT prefix enumeration literal to its
// multiplier against the base unit, taken verbatim from the reference
// ConvertPrefix table (original_source/src/wasm/include/web-ifc.h). The
// empty string is the "no prefix" case (argument 2 was EMPTY in the file).
var siPrefixMultipliers = map[string]float64{
	"EXA":   1e18,
	"PETA":  1e15,
	"TERA":  1e12,
	"GIGA":  1e9,
	"MEGA":  1e6,
	"KILO":  1e3,
	"HECTO": 1e2,
	"DECA":  1e1,
	"":      1.0,
	"DECI":  1e-1,
	"CENTI": 1e-2,
	"MILLI": 1e-3,
	"MICRO": 1e-6,
	"NANO":  1e-9,
	"PICO":  1e-12,
	"FEMTO": 1e-15,
	"ATTO":  1e-18,
}

// readLinearScalingFactor resolves IFCPROJECT -> UnitsInContext ->
// IFCSIUNIT(LENGTHUNIT, prefix, METRE) per spec.md §4.6, returning 1.0 (and
// logging a warning) for any step of that chain that doesn't resolve the
// way a well-formed file would. This is intentionally lenient: a missing or
// malformed unit declaration must not fail the whole load.
func readLinearScalingFactor(tape *Tape, meta *MetaData, log logger.Logger) float64 {
	projects := meta.LineIDsWithType(TypeIFCPROJECT)
	if len(projects) != 1 {
		log.Warn("expected exactly one IFCPROJECT line", "count", len(projects))
		return 1.0
	}
	projectLine, _ := meta.LineByID(projects[0])

	if err := moveToArgument(tape, projectLine, 8); err != nil {
		log.Warn("IFCPROJECT missing UnitsInContext argument", "error", err)
		return 1.0
	}
	unitsRef, err := getRefArgument(tape)
	if err != nil {
		log.Warn("IFCPROJECT UnitsInContext is not a reference", "error", err)
		return 1.0
	}
	unitsID, ok := meta.LineIDForHandle(unitsRef)
	if !ok {
		log.Warn("UnitsInContext handle not found", "handle", unitsRef)
		return 1.0
	}
	unitsLine, _ := meta.LineByID(unitsID)

	if err := moveToArgument(tape, unitsLine, 0); err != nil {
		log.Warn("IFCUNITASSIGNMENT missing unit set", "error", err)
		return 1.0
	}
	units, err := getSetArgument(tape)
	if err != nil {
		log.Warn("IFCUNITASSIGNMENT unit set unreadable", "error", err)
		return 1.0
	}

	for _, u := range units {
		if u.Tag != TagRef {
			continue
		}
		siID, ok := meta.LineIDForHandle(u.Ref)
		if !ok {
			continue
		}
		siLine, _ := meta.LineByID(siID)
		if siLine.Type != TypeIFCSIUNIT {
			continue
		}
		if factor, ok := linearFactorFromSIUnit(tape, siLine); ok {
			return factor
		}
	}
	log.Warn("no IFCSIUNIT length unit found in UnitsInContext", "handle", unitsRef)
	return 1.0
}

// linearFactorFromSIUnit reads an IFCSIUNIT's unit-type (arg 1), optional
// prefix (arg 2), and unit-name (arg 3), returning the tabled multiplier
// when the unit is LENGTHUNIT/METRE.
func linearFactorFromSIUnit(tape *Tape, line Line) (float64, bool) {
	if err := moveToArgument(tape, line, 1); err != nil {
		return 0, false
	}
	unitType, err := getEnumArgument(tape)
	if err != nil || unitType != "LENGTHUNIT" {
		return 0, false
	}

	if err := moveToArgument(tape, line, 2); err != nil {
		return 0, false
	}
	prefix := ""
	if peekTag(tape) == TagEnum {
		p, err := getEnumArgument(tape)
		if err != nil {
			return 0, false
		}
		prefix = p
	} else {
		tape.ReadByte() // EMPTY or UNKNOWN
	}

	if err := moveToArgument(tape, line, 3); err != nil {
		return 0, false
	}
	unitName, err := getEnumArgument(tape)
	if err != nil || unitName != "METRE" {
		return 0, false
	}

	mult, ok := siPrefixMultipliers[prefix]
	return mult, ok
}
