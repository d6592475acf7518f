package chem

import (
	"sort"
	"time"
)

// World owns every piece of mutable simulation state: the atom arena,
// the live bond pool, materialized molecules, the energy model and the
// in-flight reaction. All mutation is funneled through its methods and
// the single Step path; the engine is single-threaded by design and
// callers must serialize access themselves.
type World struct {
	cfg    Config
	log    Logger
	events *EventCenter

	tick       uint64
	nextAtomID AtomID

	atoms     map[AtomID]*Atom
	bonds     map[BondID]*Bond
	molecules map[MoleculeID]*Molecule

	forming  map[BondID]*formingBond
	cooldown map[BondID]uint64 // earliest tick the pair may be re-evaluated

	energy        EnergyModel
	discovered    []string
	discoveredSet map[string]struct{}

	// reaction is the single in-flight complex reaction; non-nil acts
	// as the reaction lock.
	reaction      *reactionRun
	autoReactions bool

	bondsDirty bool
	newBody    BodyFactory
}

// NewWorld creates a world with the given config. The config should
// be validated by the caller; NewWorld trusts it.
func NewWorld(cfg Config) *World {
	return &World{
		cfg:           cfg,
		log:           NewNoOpLogger(),
		atoms:         make(map[AtomID]*Atom),
		bonds:         make(map[BondID]*Bond),
		molecules:     make(map[MoleculeID]*Molecule),
		forming:       make(map[BondID]*formingBond),
		cooldown:      make(map[BondID]uint64),
		energy:        NewEnergyModel(&cfg),
		discoveredSet: make(map[string]struct{}),
		autoReactions: cfg.Mode.AutoReactions,
		newBody: func(pos Vec3, mass float64) Body {
			return NewKinematicBody(pos, mass)
		},
	}
}

// SetLogger replaces the world's logger.
func (w *World) SetLogger(log Logger) {
	if log != nil {
		w.log = log
	}
}

// SetEventCenter attaches an event center; nil detaches it.
func (w *World) SetEventCenter(events *EventCenter) {
	w.events = events
}

// SetBodyFactory installs the physics collaborator's body constructor.
func (w *World) SetBodyFactory(factory BodyFactory) {
	if factory != nil {
		w.newBody = factory
	}
}

func (w *World) emit(event Event) {
	if w.events == nil {
		return
	}
	event.Tick = w.tick
	event.Timestamp = time.Now().Unix()
	// Event workers consume payloads off the engine goroutine; never
	// hand them pointers into live world state.
	if event.Molecule != nil {
		event.Molecule = event.Molecule.clone()
	}
	if event.Bond != nil {
		b := *event.Bond
		event.Bond = &b
	}
	w.events.Publish(event)
}

// Tick returns the current simulation tick.
func (w *World) Tick() uint64 {
	return w.tick
}

// Step advances the simulation by one tick. This is the only place
// where the per-tick pipeline runs: heat decay, velocity limiting,
// gradual bond formation, bond stress, eligibility scanning, molecule
// identification and the reaction orchestrator, in that order.
func (w *World) Step() {
	w.tick++

	w.energy.Decay(w.cfg.Mode.DecayRate)
	w.limitVelocities()
	w.advanceForming()
	w.stressCheck()

	// The lock skips ordinary scanning while a multi-step reaction is
	// repositioning atoms, preventing reentrant mutation.
	if w.reaction == nil {
		w.scanEligiblePairs()
	}

	if w.bondsDirty {
		w.identify()
		w.bondsDirty = false
	}

	if w.reaction != nil {
		w.advanceReaction()
	} else {
		w.maybeStartReaction()
	}
}

// --- Atom commands ---

// SpawnAtom adds a new atom with a fresh body at the given position.
// Unknown elements are allowed; they simply never bond.
func (w *World) SpawnAtom(protons, neutrons, electrons int, pos Vec3) *Atom {
	w.nextAtomID++
	a := &Atom{
		ID:        w.nextAtomID,
		Protons:   protons,
		Neutrons:  neutrons,
		Electrons: electrons,
	}
	a.body = w.newBody(pos, a.Mass())
	w.atoms[a.ID] = a
	return a
}

// DeleteAtom removes an atom, its bonds, any gradual formation it is
// part of, and dissolves its molecule if it was a member. Deferred
// work referencing the atom is invalidated here so nothing acts on a
// stale id later.
func (w *World) DeleteAtom(id AtomID) error {
	a, ok := w.atoms[id]
	if !ok {
		return ErrStaleReference
	}

	for _, b := range w.bondsOf(id) {
		w.breakBond(b)
	}
	for pair, fb := range w.forming {
		if fb.a == id || fb.b == id {
			delete(w.forming, pair)
		}
	}
	if a.MoleculeMember {
		if m := w.moleculeOf(id); m != nil {
			w.dissolveMolecule(m, true, id)
		}
	}
	if w.reaction != nil && w.reaction.references(id) {
		w.abortReaction("participant atom deleted")
	}

	delete(w.atoms, id)
	w.bondsDirty = true
	return nil
}

// SetComposition edits an atom's proton/neutron/electron counts.
// Changing the proton count changes the element identity, so any
// existing bonds and molecule membership are dropped first.
func (w *World) SetComposition(id AtomID, protons, neutrons, electrons int) error {
	a, ok := w.atoms[id]
	if !ok {
		return ErrStaleReference
	}
	if protons != a.Protons {
		for _, b := range w.bondsOf(id) {
			w.breakBond(b)
		}
		if a.MoleculeMember {
			if m := w.moleculeOf(id); m != nil {
				w.dissolveMolecule(m, true)
			}
		}
	}
	a.Protons = protons
	a.Neutrons = neutrons
	a.Electrons = electrons
	if a.body != nil {
		a.body.SetMass(a.Mass())
	}
	return nil
}

// --- Bond commands ---

// CreateManualBond creates a bond on user request, bypassing the
// distance/attraction path. Valence and duplicate checks still apply.
func (w *World) CreateManualBond(a, b AtomID) (*Bond, error) {
	atomA, okA := w.atoms[a]
	atomB, okB := w.atoms[b]
	if !okA || !okB || a == b {
		return nil, ErrStaleReference
	}
	if atomA.MoleculeMember || atomB.MoleculeMember {
		return nil, ErrStaleReference
	}
	return w.createBond(atomA, atomB)
}

// DeleteBond removes a bond by id. If the bond is internal to a
// molecule, the molecule releases its members back to the free pool
// (keeping the other internal bonds) pending re-identification.
func (w *World) DeleteBond(id BondID) error {
	if b, ok := w.bonds[id]; ok {
		w.breakBond(b)
		return nil
	}
	for _, m := range w.molecules {
		for _, b := range m.Bonds {
			if b.ID == id {
				w.dissolveMoleculeExceptBond(m, id)
				return nil
			}
		}
	}
	return ErrStaleReference
}

// BreakMolecule dissolves a molecule: members return to the free
// pool and the internal bonds are discarded.
func (w *World) BreakMolecule(id MoleculeID) error {
	m, ok := w.molecules[id]
	if !ok {
		return ErrStaleReference
	}
	w.dissolveMolecule(m, false)
	return nil
}

// --- Energy commands ---

// AddEnergy injects heat (clamped to the configured max) and nudges
// free-atom velocities proportionally. Returns the amount absorbed.
func (w *World) AddEnergy(amount float64) float64 {
	absorbed := w.energy.Add(amount)
	if absorbed > 0 {
		factor := 1 + absorbed*w.cfg.VelocityNudge
		for _, a := range w.atoms {
			if a.MoleculeMember || a.body == nil {
				continue
			}
			a.body.SetVelocity(a.body.Velocity().Scale(factor))
		}
		w.emit(Event{Kind: EventEnergyAdded, Amount: absorbed})
	}
	return absorbed
}

// ResetEnergy drops transient heat to zero.
func (w *World) ResetEnergy() {
	w.energy.Reset()
}

// SetMode swaps the active mode configuration. The mode is consumed
// uniformly by the tick pipeline; it never branches algorithm logic.
func (w *World) SetMode(mode ModeConfig) error {
	verr := &ValidationError{}
	validateMode(mode, verr)
	if verr.HasIssues() {
		return verr
	}
	w.cfg.Mode = mode
	w.autoReactions = mode.AutoReactions
	return nil
}

// ToggleAutoReactions flips automatic reaction scanning and returns
// the new state.
func (w *World) ToggleAutoReactions() bool {
	w.autoReactions = !w.autoReactions
	return w.autoReactions
}

// --- Queries ---

// AtomStatus is the query view of a free atom.
type AtomStatus struct {
	Atom      Atom    `json:"atom"`
	Position  Vec3    `json:"position"`
	Velocity  Vec3    `json:"velocity"`
	BondCount int     `json:"bond_count"`
	Element   string  `json:"element"`
	Mass      float64 `json:"mass"`
}

// FreeAtoms returns the free (non-member) atoms sorted by id.
func (w *World) FreeAtoms() []AtomStatus {
	out := make([]AtomStatus, 0, len(w.atoms))
	for _, a := range w.sortedFreeAtoms() {
		out = append(out, AtomStatus{
			Atom:      *a,
			Position:  a.body.Position(),
			Velocity:  a.body.Velocity(),
			BondCount: w.liveBondCount(a.ID),
			Element:   a.Symbol(),
			Mass:      a.Mass(),
		})
	}
	return out
}

// BondStatus is the query view of a live bond, including the live
// stress ratio (distance over break threshold).
type BondStatus struct {
	Bond        Bond    `json:"bond"`
	Distance    float64 `json:"distance"`
	StressRatio float64 `json:"stress_ratio"`
}

// Bonds returns every live bond with its stress ratio, sorted by id.
func (w *World) Bonds() []BondStatus {
	out := make([]BondStatus, 0, len(w.bonds))
	for _, b := range w.bonds {
		status := BondStatus{Bond: *b}
		if d, ok := w.bondDistance(b); ok {
			status.Distance = d
			status.StressRatio = d / b.BreakLength(&w.cfg)
		}
		out = append(out, status)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Bond.ID < out[j].Bond.ID })
	return out
}

// Molecules returns the current molecules sorted by id.
func (w *World) Molecules() []Molecule {
	out := make([]Molecule, 0, len(w.molecules))
	for _, m := range w.molecules {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Molecule retrieves a single molecule by id.
func (w *World) Molecule(id MoleculeID) (Molecule, bool) {
	m, ok := w.molecules[id]
	if !ok {
		return Molecule{}, false
	}
	return *m, true
}

// Discovered returns the ordered, duplicate-free list of molecule
// names discovered so far.
func (w *World) Discovered() []string {
	out := make([]string, len(w.discovered))
	copy(out, w.discovered)
	return out
}

// BondCount reports the number of live bonds on an atom, counting
// in-flight gradual formations as reserved.
func (w *World) BondCount(id AtomID) int {
	return w.bondCount(id)
}

// Heat returns the current transient heat energy.
func (w *World) Heat() float64 {
	return w.energy.Heat()
}

// SystemEnergy derives the full system energy: heat plus the scaled
// kinetic energy of all free atoms and molecules.
func (w *World) SystemEnergy() float64 {
	return w.energy.SystemEnergy(w.kineticSum())
}

// Temperature returns the display temperature.
func (w *World) Temperature() float64 {
	return w.energy.Temperature()
}

// ReactionInFlight reports whether the reaction lock is held.
func (w *World) ReactionInFlight() bool {
	return w.reaction != nil
}

// AutoReactionsEnabled reports whether automatic reactions are on.
func (w *World) AutoReactionsEnabled() bool {
	return w.autoReactions
}

// Config returns a copy of the active configuration.
func (w *World) Config() Config {
	return w.cfg
}

// --- Internal helpers ---

func (w *World) sortedFreeAtoms() []*Atom {
	out := make([]*Atom, 0, len(w.atoms))
	for _, a := range w.atoms {
		if !a.MoleculeMember && a.body != nil {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// bondsOf returns the live bonds touching an atom.
func (w *World) bondsOf(id AtomID) []*Bond {
	var out []*Bond
	for _, b := range w.bonds {
		if b.Has(id) {
			out = append(out, b)
		}
	}
	return out
}

// liveBondCount counts only materialized bonds.
func (w *World) liveBondCount(id AtomID) int {
	count := 0
	for _, b := range w.bonds {
		if b.Has(id) {
			count++
		}
	}
	return count
}

// bondCount counts live bonds plus forming reservations, so valence
// cannot be overbooked while a bond is still animating in.
func (w *World) bondCount(id AtomID) int {
	count := w.liveBondCount(id)
	for _, fb := range w.forming {
		if fb.a == id || fb.b == id {
			count++
		}
	}
	return count
}

// moleculeOf finds the molecule owning an atom, nil if none.
func (w *World) moleculeOf(id AtomID) *Molecule {
	for _, m := range w.molecules {
		if m.HasMember(id) {
			return m
		}
	}
	return nil
}

// bondDistance measures the live distance of a bond. Returns false
// when either endpoint is gone or has no free body.
func (w *World) bondDistance(b *Bond) (float64, bool) {
	atomA, okA := w.atoms[b.A]
	atomB, okB := w.atoms[b.B]
	if !okA || !okB || atomA.body == nil || atomB.body == nil {
		return 0, false
	}
	return Distance(atomA.body.Position(), atomB.body.Position()), true
}

// kineticSum totals ½mv² over all free atoms and molecules.
func (w *World) kineticSum() float64 {
	total := 0.0
	for _, a := range w.atoms {
		if !a.MoleculeMember && a.body != nil {
			total += KineticEnergy(a.body)
		}
	}
	for _, m := range w.molecules {
		total += KineticEnergy(m.body)
	}
	return total
}

// limitVelocities clamps every free body to the mode's max velocity
// and applies damping. Bounds numerical runaway from attraction.
func (w *World) limitVelocities() {
	maxV := w.cfg.Mode.MaxVelocity
	damping := w.cfg.Mode.Damping
	clamp := func(b Body) {
		v := b.Velocity().Scale(damping)
		if speed := v.Length(); speed > maxV {
			v = v.Normalized().Scale(maxV)
		}
		b.SetVelocity(v)
	}
	for _, a := range w.atoms {
		if !a.MoleculeMember && a.body != nil {
			clamp(a.body)
		}
	}
	for _, m := range w.molecules {
		clamp(m.body)
	}
}
