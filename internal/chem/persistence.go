package chem

import (
	"encoding/json"
	"fmt"
)

// AtomSnapshot is the persisted form of one atom.
type AtomSnapshot struct {
	ID        AtomID `json:"id"`
	Protons   int    `json:"protons"`
	Neutrons  int    `json:"neutrons"`
	Electrons int    `json:"electrons"`
	Position  Vec3   `json:"position"`
	Velocity  Vec3   `json:"velocity"`
}

// Snapshot represents a point-in-time capture of the world. Molecules
// are stored dissolved (atoms plus bonds); loading re-identifies them,
// which reproduces the same canonical molecule ids.
type Snapshot struct {
	Tick       uint64         `json:"tick"`
	Heat       float64        `json:"heat"`
	Discovered []string       `json:"discovered"`
	Atoms      []AtomSnapshot `json:"atoms"`
	Bonds      []Bond         `json:"bonds"`
}

// Snapshot captures the current world state.
func (w *World) Snapshot() Snapshot {
	s := Snapshot{
		Tick:       w.tick,
		Heat:       w.energy.Heat(),
		Discovered: w.Discovered(),
	}

	for _, a := range w.atoms {
		snap := AtomSnapshot{
			ID:        a.ID,
			Protons:   a.Protons,
			Neutrons:  a.Neutrons,
			Electrons: a.Electrons,
		}
		if a.MoleculeMember {
			if m := w.moleculeOf(a.ID); m != nil {
				snap.Position = m.MemberPosition(a.ID)
				snap.Velocity = m.body.Velocity()
			}
		} else if a.body != nil {
			snap.Position = a.body.Position()
			snap.Velocity = a.body.Velocity()
		}
		s.Atoms = append(s.Atoms, snap)
	}

	for _, b := range w.bonds {
		s.Bonds = append(s.Bonds, *b)
	}
	for _, m := range w.molecules {
		s.Bonds = append(s.Bonds, m.Bonds...)
	}
	return s
}

// Restore replaces the world state with a snapshot. The bond set is
// loaded raw and identification runs on the next Step.
func (w *World) Restore(s Snapshot) error {
	if err := ValidateSnapshot(s); err != nil {
		return err
	}

	w.tick = s.Tick
	w.energy.Reset()
	w.energy.Add(s.Heat)
	w.atoms = make(map[AtomID]*Atom, len(s.Atoms))
	w.bonds = make(map[BondID]*Bond, len(s.Bonds))
	w.molecules = make(map[MoleculeID]*Molecule)
	w.forming = make(map[BondID]*formingBond)
	w.cooldown = make(map[BondID]uint64)
	w.reaction = nil
	w.discovered = append([]string(nil), s.Discovered...)
	w.discoveredSet = make(map[string]struct{}, len(s.Discovered))
	for _, name := range s.Discovered {
		w.discoveredSet[name] = struct{}{}
	}

	w.nextAtomID = 0
	for _, snap := range s.Atoms {
		a := &Atom{
			ID:        snap.ID,
			Protons:   snap.Protons,
			Neutrons:  snap.Neutrons,
			Electrons: snap.Electrons,
		}
		a.body = w.newBody(snap.Position, a.Mass())
		a.body.SetVelocity(snap.Velocity)
		w.atoms[a.ID] = a
		if a.ID > w.nextAtomID {
			w.nextAtomID = a.ID
		}
	}

	for i := range s.Bonds {
		b := s.Bonds[i]
		w.bonds[b.ID] = &b
	}
	w.bondsDirty = true
	return nil
}

// ValidateSnapshot performs validation checks on a snapshot:
// atom ids must be positive and unique, and every bond endpoint must
// reference a snapshotted atom.
func ValidateSnapshot(s Snapshot) error {
	seen := make(map[AtomID]struct{}, len(s.Atoms))
	for i, a := range s.Atoms {
		if a.ID <= 0 {
			return fmt.Errorf("atom at index %d has invalid id %d", i, a.ID)
		}
		if _, exists := seen[a.ID]; exists {
			return fmt.Errorf("duplicate atom id: %d", a.ID)
		}
		seen[a.ID] = struct{}{}
	}
	for _, b := range s.Bonds {
		if _, ok := seen[b.A]; !ok {
			return fmt.Errorf("bond %s references missing atom %d", b.ID, b.A)
		}
		if _, ok := seen[b.B]; !ok {
			return fmt.Errorf("bond %s references missing atom %d", b.ID, b.B)
		}
	}
	return nil
}

// EncodeSnapshotJSON encodes a snapshot to JSON format.
func EncodeSnapshotJSON(s Snapshot) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshotJSON decodes a snapshot from JSON format.
func DecodeSnapshotJSON(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return s, nil
}
