package chem

import (
	"fmt"
	"math"
)

// BondID identifies a bond by its unordered atom pair.
type BondID string

// PairID returns the canonical bond id for an unordered atom pair.
// The lower atom id always comes first, so (a,b) and (b,a) map to
// the same bond.
func PairID(a, b AtomID) BondID {
	if b < a {
		a, b = b, a
	}
	return BondID(fmt.Sprintf("%d-%d", a, b))
}

// BondType classifies a bond by how the electrons are shared.
type BondType string

const (
	BondCovalent BondType = "covalent"
	BondIonic    BondType = "ionic"
	BondMetallic BondType = "metallic"
	BondHydrogen BondType = "hydrogen"
)

// ionicThreshold is the electronegativity difference above which a
// bond is treated as ionic.
const ionicThreshold = 1.7

// Bond is a constraint between two atoms, referenced by id. It never
// owns the atoms; a missing lookup on either endpoint is the stale
// reference condition and invalidates the bond.
type Bond struct {
	ID          BondID   `json:"id"`
	A           AtomID   `json:"a"`
	B           AtomID   `json:"b"`
	Order       int      `json:"order"`
	Type        BondType `json:"type"`
	Energy      float64  `json:"energy"`
	IdealLength float64  `json:"ideal_length"`
	Polarity    float64  `json:"polarity"`
}

// NewBond builds a bond record for the pair, deriving type, energy,
// ideal length and polarity from the two elements.
func NewBond(a, b *Atom, ea, eb Element, cfg *Config) Bond {
	return Bond{
		ID:          PairID(a.ID, b.ID),
		A:           a.ID,
		B:           b.ID,
		Order:       1,
		Type:        classifyBond(ea, eb),
		Energy:      bondEnergy(ea, eb),
		IdealLength: (ea.AtomicRadius + eb.AtomicRadius) * cfg.BondLengthFactor,
		Polarity:    math.Abs(ea.Electronegativity - eb.Electronegativity),
	}
}

// Other returns the opposite endpoint of the bond, and whether id is
// actually an endpoint.
func (b *Bond) Other(id AtomID) (AtomID, bool) {
	switch id {
	case b.A:
		return b.B, true
	case b.B:
		return b.A, true
	}
	return 0, false
}

// Has reports whether id is one of the bond's endpoints.
func (b *Bond) Has(id AtomID) bool {
	return id == b.A || id == b.B
}

// BreakLength is the distance beyond which the bond snaps.
func (b *Bond) BreakLength(cfg *Config) float64 {
	return b.IdealLength * cfg.BreakFactor
}

func classifyBond(ea, eb Element) BondType {
	if ea.IsMetal() && eb.IsMetal() {
		return BondMetallic
	}
	if math.Abs(ea.Electronegativity-eb.Electronegativity) >= ionicThreshold {
		return BondIonic
	}
	return BondCovalent
}

// bondEnergy is an illustrative bond strength derived from the mean
// ionization energy of the pair.
func bondEnergy(ea, eb Element) float64 {
	return (ea.IonizationEnergy + eb.IonizationEnergy) / 4
}
