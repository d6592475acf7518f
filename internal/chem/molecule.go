package chem

import (
	"sort"
	"strconv"
	"strings"
)

// MoleculeID is the canonical identifier of a molecule: the member
// atom ids sorted ascending and joined by "-". Re-identifying the
// same atom set always yields the same id.
type MoleculeID string

// CanonicalMoleculeID builds the molecule id for a set of atom ids.
func CanonicalMoleculeID(members []AtomID) MoleculeID {
	sorted := make([]AtomID, len(members))
	copy(sorted, members)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = strconv.FormatInt(int64(id), 10)
	}
	return MoleculeID(strings.Join(parts, "-"))
}

// Molecule is a connected component of bonded atoms materialized as
// one rigid aggregate. Members are owned exclusively: their individual
// bodies are replaced by the aggregate body while the molecule exists,
// and the internal bonds are held here instead of the live pool.
type Molecule struct {
	ID        MoleculeID `json:"id"`
	Name      string     `json:"name"`
	Formula   string     `json:"formula"`
	Geometry  Geometry   `json:"geometry"`
	Members   []AtomID   `json:"members"` // sorted ascending
	Stability float64    `json:"stability"`

	// Internal rigid structure: bonds removed from the live pool and
	// per-member offsets relative to the aggregate body.
	Bonds   []Bond             `json:"bonds"`
	Offsets map[AtomID]Vec3    `json:"offsets"`

	body Body
}

// clone returns a detached copy of the molecule. The engine keeps
// mutating the live struct, so anything handed to asynchronous
// consumers must not alias it.
func (m *Molecule) clone() *Molecule {
	c := *m
	c.Members = append([]AtomID(nil), m.Members...)
	c.Bonds = append([]Bond(nil), m.Bonds...)
	c.Offsets = make(map[AtomID]Vec3, len(m.Offsets))
	for id, off := range m.Offsets {
		c.Offsets[id] = off
	}
	c.body = nil
	return &c
}

// Body returns the molecule's aggregate physical body.
func (m *Molecule) Body() Body {
	return m.body
}

// HasMember reports whether the atom id belongs to this molecule.
func (m *Molecule) HasMember(id AtomID) bool {
	for _, member := range m.Members {
		if member == id {
			return true
		}
	}
	return false
}

// MemberPosition returns the world position of a member atom,
// derived from the aggregate body and the recorded offset.
func (m *Molecule) MemberPosition(id AtomID) Vec3 {
	return m.body.Position().Add(m.Offsets[id])
}
