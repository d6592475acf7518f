package chem

import "sort"

// identify re-scans the live bond graph for connected components and
// materializes every component of size >= 2 as a molecule. Traversal
// is iterative and the result is independent of visit order because
// components and their canonical ids only depend on the edge set.
func (w *World) identify() {
	adjacency := make(map[AtomID][]AtomID)
	for _, b := range w.bonds {
		atomA, okA := w.atoms[b.A]
		atomB, okB := w.atoms[b.B]
		if !okA || !okB || atomA.MoleculeMember || atomB.MoleculeMember {
			continue
		}
		adjacency[b.A] = append(adjacency[b.A], b.B)
		adjacency[b.B] = append(adjacency[b.B], b.A)
	}

	roots := make([]AtomID, 0, len(adjacency))
	for id := range adjacency {
		roots = append(roots, id)
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })

	visited := make(map[AtomID]struct{})
	for _, root := range roots {
		if _, seen := visited[root]; seen {
			continue
		}
		component := []AtomID{}
		stack := []AtomID{root}
		visited[root] = struct{}{}
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			component = append(component, id)
			for _, next := range adjacency[id] {
				if _, seen := visited[next]; !seen {
					visited[next] = struct{}{}
					stack = append(stack, next)
				}
			}
		}
		if len(component) >= 2 {
			w.materialize(component)
		}
	}
}

// materialize consumes a connected component into one molecule:
// members leave the free pool, their bodies collapse into a single
// aggregate, and the internal bonds move off the live pool (the
// structure becomes rigid via the recorded offsets).
func (w *World) materialize(memberIDs []AtomID) {
	sort.Slice(memberIDs, func(i, j int) bool { return memberIDs[i] < memberIDs[j] })

	members := make([]*Atom, 0, len(memberIDs))
	for _, id := range memberIDs {
		if a, ok := w.atoms[id]; ok {
			members = append(members, a)
		}
	}
	if len(members) < 2 {
		return
	}

	// Collect and detach the internal bonds.
	inComponent := make(map[AtomID]struct{}, len(members))
	for _, a := range members {
		inComponent[a.ID] = struct{}{}
	}
	var internal []Bond
	for id, b := range w.bonds {
		_, hasA := inComponent[b.A]
		_, hasB := inComponent[b.B]
		if hasA && hasB {
			internal = append(internal, *b)
			delete(w.bonds, id)
		}
	}
	sort.Slice(internal, func(i, j int) bool { return internal[i].ID < internal[j].ID })

	central := centralByDegree(members, internal)
	name, formula, geometry := w.classifyComponent(members, internal, central)

	m := &Molecule{
		ID:        CanonicalMoleculeID(memberIDs),
		Name:      name,
		Formula:   formula,
		Geometry:  geometry,
		Members:   memberIDs,
		Stability: stabilityScore(members, internal),
		Bonds:     internal,
		Offsets:   moleculeOffsets(members, internal, central, geometry),
	}

	// Aggregate body: scaled mass sum, centroid position, momentum-
	// weighted velocity. Member bodies are released.
	var mass float64
	var centroid, momentum Vec3
	for _, a := range members {
		mass += a.Mass()
		centroid = centroid.Add(a.body.Position())
		momentum = momentum.Add(a.body.Velocity().Scale(a.Mass()))
	}
	centroid = centroid.Scale(1 / float64(len(members)))
	aggregateMass := mass * w.cfg.AggregateMassScale
	m.body = w.newBody(centroid, aggregateMass)
	m.body.SetVelocity(momentum.Scale(1 / mass))

	for _, a := range members {
		a.MoleculeMember = true
		a.body = nil
	}

	w.molecules[m.ID] = m

	newly := false
	if _, seen := w.discoveredSet[m.Name]; !seen {
		w.discoveredSet[m.Name] = struct{}{}
		w.discovered = append(w.discovered, m.Name)
		newly = true
	}

	w.log.Infof("molecule formed: %s %s (%d atoms, %s)", m.Name, m.ID, len(members), m.Geometry)
	w.emit(Event{Kind: EventMoleculeFormed, Molecule: m, NewlyDiscovered: newly})
}

// classifyComponent resolves name, formula and geometry: known
// compositions first, then a systematic name with a VSEPR geometry
// derived from the central atom's bonded-neighbor count.
func (w *World) classifyComponent(members []*Atom, internal []Bond, central *Atom) (string, string, Geometry) {
	comp := CompositionOf(members)
	fallback := GeometryComplex
	if central != nil {
		if e, ok := central.Element(); ok {
			fallback = DetermineGeometry(e, bondsTouching(internal, central.ID))
		}
	}
	return ClassifyComposition(comp, fallback)
}

// centralByDegree picks the member carrying the most internal bonds,
// breaking ties with FindOptimalCentralAtom. A hub atom makes a better
// structural anchor than a terminal one regardless of electronegativity.
func centralByDegree(members []*Atom, internal []Bond) *Atom {
	if len(members) == 0 {
		return nil
	}
	maxDeg := -1
	for _, m := range members {
		if d := bondsTouching(internal, m.ID); d > maxDeg {
			maxDeg = d
		}
	}
	tied := make([]*Atom, 0, len(members))
	for _, m := range members {
		if bondsTouching(internal, m.ID) == maxDeg {
			tied = append(tied, m)
		}
	}
	return FindOptimalCentralAtom(tied)
}

func bondsTouching(bonds []Bond, id AtomID) int {
	count := 0
	for _, b := range bonds {
		if b.Has(id) {
			count++
		}
	}
	return count
}

// moleculeOffsets places the central atom at the aggregate origin and
// the remaining members on the geometry's angular template, scaled by
// the mean ideal bond length.
func moleculeOffsets(members []*Atom, internal []Bond, central *Atom, geometry Geometry) map[AtomID]Vec3 {
	offsets := make(map[AtomID]Vec3, len(members))
	if central == nil {
		central = members[0]
	}
	offsets[central.ID] = Vec3{}

	bondLength := 1.0
	if len(internal) > 0 {
		total := 0.0
		for _, b := range internal {
			total += b.IdealLength
		}
		bondLength = total / float64(len(internal))
	}

	peripheral := make([]*Atom, 0, len(members)-1)
	for _, a := range members {
		if a.ID != central.ID {
			peripheral = append(peripheral, a)
		}
	}
	positions := MolecularPositions(len(peripheral), geometry, bondLength)
	for i, a := range peripheral {
		offsets[a.ID] = positions[i]
	}
	return offsets
}

// stabilityScore is the fraction of the members' total valence
// capacity used by the internal bonds, capped at 1.
func stabilityScore(members []*Atom, internal []Bond) float64 {
	capacity := 0
	for _, a := range members {
		if e, ok := a.Element(); ok {
			capacity += e.MaxBonds
		}
	}
	if capacity == 0 {
		return 0
	}
	score := float64(2*len(internal)) / float64(capacity)
	if score > 1 {
		score = 1
	}
	return score
}

// dissolveMolecule returns a molecule's members to the free pool.
// Each surviving member gets a fresh body at its rigid offset
// position, inheriting the aggregate velocity. When restoreBonds is
// set the internal bonds whose endpoints survive go back to the live
// pool (they will re-identify into the same canonical molecule).
// Atoms listed in skip are left bodiless for the caller to delete.
func (w *World) dissolveMolecule(m *Molecule, restoreBonds bool, skip ...AtomID) {
	skipSet := make(map[AtomID]struct{}, len(skip))
	for _, id := range skip {
		skipSet[id] = struct{}{}
	}

	vel := m.body.Velocity()
	for _, id := range m.Members {
		a, ok := w.atoms[id]
		if !ok {
			continue
		}
		a.MoleculeMember = false
		if _, skipped := skipSet[id]; skipped {
			continue
		}
		a.body = w.newBody(m.MemberPosition(id), a.Mass())
		a.body.SetVelocity(vel)
	}

	if restoreBonds {
		for i := range m.Bonds {
			b := m.Bonds[i]
			if _, skippedA := skipSet[b.A]; skippedA {
				continue
			}
			if _, skippedB := skipSet[b.B]; skippedB {
				continue
			}
			_, okA := w.atoms[b.A]
			_, okB := w.atoms[b.B]
			if okA && okB {
				w.bonds[b.ID] = &b
			}
		}
	}

	delete(w.molecules, m.ID)
	w.bondsDirty = true
	w.log.Infof("molecule broken: %s %s", m.Name, m.ID)
	w.emit(Event{Kind: EventMoleculeBroken, Molecule: m})
}

// dissolveMoleculeExceptBond dissolves a molecule while dropping one
// internal bond; the remaining bonds return to the live pool so the
// surviving fragments re-identify next tick.
func (w *World) dissolveMoleculeExceptBond(m *Molecule, dropped BondID) {
	kept := make([]Bond, 0, len(m.Bonds))
	for _, b := range m.Bonds {
		if b.ID != dropped {
			kept = append(kept, b)
		} else {
			w.emit(Event{Kind: EventBondBroken, Bond: &b})
		}
	}
	m.Bonds = kept
	w.dissolveMolecule(m, true)
}
