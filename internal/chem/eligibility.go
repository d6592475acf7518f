package chem

import "math"

// ActivationEnergy is the minimum system energy required before the
// two elements may bond. Strongly electronegative pairings react more
// readily, so a larger difference lowers the barrier. Never below 1.
func ActivationEnergy(ea, eb Element) float64 {
	avgIE := (ea.IonizationEnergy + eb.IonizationEnergy) / 2
	delta := math.Abs(ea.Electronegativity - eb.Electronegativity)
	e := avgIE * (1 - delta/4) * 0.1
	if e < 1 {
		e = 1
	}
	return e
}

// CanFormBond is the pure eligibility predicate: may atoms a and b
// bond given their current bond counts and the system energy?
// Checks run in a fixed order and the first failure wins:
// unknown element, noble gas, valence, then activation energy.
// A nil return means the pair is eligible.
func CanFormBond(a, b *Atom, bondsA, bondsB int, systemEnergy float64) error {
	ea, okA := a.Element()
	eb, okB := b.Element()
	if !okA || !okB {
		return ErrUnknownElement
	}
	if ea.MaxBonds == 0 || eb.MaxBonds == 0 {
		return ErrValenceExceeded
	}
	if bondsA >= ea.MaxBonds || bondsB >= eb.MaxBonds {
		return ErrValenceExceeded
	}
	if systemEnergy < ActivationEnergy(ea, eb) {
		return ErrInsufficientEnergy
	}
	return nil
}

// betterPartnerNearby runs the layered preference filter for a
// candidate pair: the pair is rejected when a rule names a preferred
// partner element and a free atom of that element with remaining
// valence sits within the rule's look-around radius of either
// candidate. This is a hand-tuned bias (e.g. oxygen over a second
// hydrogen), not derivable chemistry.
func (w *World) betterPartnerNearby(a, b *Atom) bool {
	for _, rule := range w.cfg.PreferenceRules {
		if !rule.Matches(a.Protons, b.Protons) {
			continue
		}
		radius := rule.Radius
		if radius == 0 {
			radius = w.cfg.PreferenceRadius
		}
		if w.freeAtomWithin(rule.Better, radius, a, b) {
			return true
		}
	}
	return false
}

// freeAtomWithin reports whether a free atom of the given element,
// with valence room left, is within radius of either reference atom.
func (w *World) freeAtomWithin(protons int, radius float64, refs ...*Atom) bool {
	for _, candidate := range w.atoms {
		if candidate.MoleculeMember || candidate.Protons != protons {
			continue
		}
		skip := false
		for _, ref := range refs {
			if candidate.ID == ref.ID {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		e, ok := candidate.Element()
		if !ok || w.bondCount(candidate.ID) >= e.MaxBonds {
			continue
		}
		for _, ref := range refs {
			if Distance(candidate.body.Position(), ref.body.Position()) <= radius {
				return true
			}
		}
	}
	return false
}
