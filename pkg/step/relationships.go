package step

import "github.com/samcharles93/ifcstep/internal/logger"

// populateRelationships runs the five relationship passes over an already
// parsed MetaData, each grounded 1:1 on a Populate*Map method in the
// reference implementation (original_source/src/wasm/include/web-ifc.h).
// Malformed lines are skipped, not fatal (spec.md §4.5, §7): a bad argument
// at one relating line must not abort the whole load.
func populateRelationships(tape *Tape, meta *MetaData, log logger.Logger) {
	skipped := 0
	skipped += populateRelVoids(tape, meta)
	skipped += populateRelAggregates(tape, meta)
	skipped += populateStyledItems(tape, meta)
	skipped += populateRelMaterials(tape, meta)
	skipped += populateMaterialDefinitions(tape, meta)
	if skipped > 0 {
		log.Warn("relationship passes skipped malformed lines", "count", skipped)
	}
}

// populateRelVoids implements RelVoids: IFCRELVOIDSELEMENT argument 4 is the
// building element, argument 5 the opening.
func populateRelVoids(tape *Tape, meta *MetaData) int {
	skipped := 0
	for _, id := range meta.LineIDsWithType(TypeIFCRELVOIDSELEMENT) {
		line, _ := meta.LineByID(id)
		if err := moveToArgument(tape, line, 4); err != nil {
			skipped++
			continue
		}
		building, err := getRefArgument(tape)
		if err != nil {
			skipped++
			continue
		}
		opening, err := getRefArgument(tape)
		if err != nil {
			skipped++
			continue
		}
		meta.RelVoids[building] = append(meta.RelVoids[building], opening)
	}
	return skipped
}

// populateRelAggregates implements RelAggregates: IFCRELAGGREGATES argument
// 4 is the parent, argument 5 a set of child REFs.
func populateRelAggregates(tape *Tape, meta *MetaData) int {
	skipped := 0
	for _, id := range meta.LineIDsWithType(TypeIFCRELAGGREGATES) {
		line, _ := meta.LineByID(id)
		if err := moveToArgument(tape, line, 4); err != nil {
			skipped++
			continue
		}
		parent, err := getRefArgument(tape)
		if err != nil {
			skipped++
			continue
		}
		children, err := getSetArgument(tape)
		if err != nil {
			skipped++
			continue
		}
		for _, c := range children {
			if c.Tag != TagRef {
				continue
			}
			meta.RelAggregates[parent] = append(meta.RelAggregates[parent], c.Ref)
		}
	}
	return skipped
}

// populateStyledItems implements StyledItems: IFCSTYLEDITEM argument 0 is
// the represented item (REF), argument 1 a set of style-assignment REFs.
// The second read is sequential from wherever argument 0's read left the
// cursor — no re-seek — per the resolved Open Question (SPEC_FULL.md §4.4).
// Each style REF is recorded alongside the styled-item line's own handle
// (spec.md §3: `(styledItemHandle, styleAssignmentHandle)` pairs).
func populateStyledItems(tape *Tape, meta *MetaData) int {
	skipped := 0
	for _, id := range meta.LineIDsWithType(TypeIFCSTYLEDITEM) {
		line, _ := meta.LineByID(id)
		if err := moveToArgument(tape, line, 0); err != nil {
			skipped++
			continue
		}
		repItem, err := getRefArgument(tape)
		if err != nil {
			skipped++
			continue
		}
		styles, err := getSetArgument(tape)
		if err != nil {
			skipped++
			continue
		}
		for _, s := range styles {
			if s.Tag != TagRef {
				continue
			}
			meta.StyledItems[repItem] = append(meta.StyledItems[repItem], HandlePair{Relating: line.Handle, Other: s.Ref})
		}
	}
	return skipped
}

// populateRelMaterials implements RelMaterials: IFCRELASSOCIATESMATERIAL
// argument 4 is a set of object REFs, argument 5 the material REF. Each
// object is recorded alongside the associating line's own handle (spec.md
// §3: `(associationHandle, materialHandle)` pairs).
func populateRelMaterials(tape *Tape, meta *MetaData) int {
	skipped := 0
	for _, id := range meta.LineIDsWithType(TypeIFCRELASSOCIATESMATERIAL) {
		line, _ := meta.LineByID(id)
		if err := moveToArgument(tape, line, 4); err != nil {
			skipped++
			continue
		}
		objects, err := getSetArgument(tape)
		if err != nil {
			skipped++
			continue
		}
		if err := moveToArgument(tape, line, 5); err != nil {
			skipped++
			continue
		}
		material, err := getRefArgument(tape)
		if err != nil {
			skipped++
			continue
		}
		for _, o := range objects {
			if o.Tag != TagRef {
				continue
			}
			meta.RelMaterials[o.Ref] = append(meta.RelMaterials[o.Ref], HandlePair{Relating: line.Handle, Other: material})
		}
	}
	return skipped
}

// populateMaterialDefinitions implements MaterialDefinitions:
// IFCMATERIALDEFINITIONREPRESENTATION argument 2 is a set of representation
// REFs, argument 3 the material REF. Each representation is recorded
// alongside the definition line's own handle (spec.md §3:
// `(defHandle, representationHandle)` pairs).
func populateMaterialDefinitions(tape *Tape, meta *MetaData) int {
	skipped := 0
	for _, id := range meta.LineIDsWithType(TypeIFCMATERIALDEFINITIONREPRESENTATION) {
		line, _ := meta.LineByID(id)
		if err := moveToArgument(tape, line, 2); err != nil {
			skipped++
			continue
		}
		reps, err := getSetArgument(tape)
		if err != nil {
			skipped++
			continue
		}
		if err := moveToArgument(tape, line, 3); err != nil {
			skipped++
			continue
		}
		material, err := getRefArgument(tape)
		if err != nil {
			skipped++
			continue
		}
		for _, r := range reps {
			if r.Tag != TagRef {
				continue
			}
			meta.MaterialDefinitions[material] = append(meta.MaterialDefinitions[material], HandlePair{Relating: line.Handle, Other: r.Ref})
		}
	}
	return skipped
}
