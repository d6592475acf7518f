package chem

// AtomID is a unique, monotonically assigned identifier for an atom.
type AtomID int64

// Atom represents a simulated particle. The proton count is the
// element identity; the body is externally owned (see Body).
// While an atom is a molecule member it has no individual body:
// its position is the aggregate body plus a recorded offset.
type Atom struct {
	ID             AtomID `json:"id"`
	Protons        int    `json:"protons"`
	Neutrons       int    `json:"neutrons"`
	Electrons      int    `json:"electrons"`
	MoleculeMember bool   `json:"molecule_member"`

	body Body
}

// Element looks up the atom's element by proton count.
func (a *Atom) Element() (Element, bool) {
	return ElementByNumber(a.Protons)
}

// Symbol returns the element symbol, or "?" for an unknown element.
func (a *Atom) Symbol() string {
	if e, ok := a.Element(); ok {
		return e.Symbol
	}
	return "?"
}

// Mass returns the nucleon count as the atom's mass in engine units.
// An empty nucleus still weighs one unit so bodies stay integrable.
func (a *Atom) Mass() float64 {
	m := float64(a.Protons + a.Neutrons)
	if m < 1 {
		m = 1
	}
	return m
}

// Body returns the atom's physical body, nil while the atom is a
// molecule member.
func (a *Atom) Body() Body {
	return a.body
}
