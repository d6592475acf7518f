package chem

import "sort"

// ReactionPhase is the explicit state of the in-flight reaction.
// The orchestrator advances exactly one phase transition per tick,
// so reaction progress interleaves deterministically with the rest
// of the pipeline instead of depending on wall-clock timers.
type ReactionPhase int

const (
	PhaseStaging ReactionPhase = iota
	PhasePositioning
	PhaseBonding
	PhaseIdentifying
	PhaseDone
)

func (p ReactionPhase) String() string {
	switch p {
	case PhaseStaging:
		return "staging"
	case PhasePositioning:
		return "positioning"
	case PhaseBonding:
		return "bonding"
	case PhaseIdentifying:
		return "identifying"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// reactionRun is the payload of one complex reaction moving through
// the phase machine. While non-nil on the World it acts as the
// reaction lock.
type reactionRun struct {
	name  string
	cost  float64
	phase ReactionPhase

	// Staged reactants; molecules are dissolved during Staging.
	molecules []MoleculeID
	atoms     []AtomID

	// Product plan: compositions fixed at stage time, concrete layout
	// computed during Staging once reactants are dissolved.
	productComps []Composition
	targets      map[AtomID]Vec3
	starts       map[AtomID]Vec3
	bonds        [][2]AtomID

	elapsed int
}

func (r *reactionRun) references(id AtomID) bool {
	for _, a := range r.atoms {
		if a == id {
			return true
		}
	}
	return false
}

// StoichReaction is one known molecule+molecule reaction: required
// reactant molecules by display name, the product compositions, and
// a fixed heat cost.
type StoichReaction struct {
	Name      string
	Reactants map[string]int
	Products  []Composition
	Cost      float64
}

// stoichReactions is the fixed molecule+molecule reaction table,
// tried in order.
var stoichReactions = []StoichReaction{
	{
		Name:      "2H₂ + O₂ → 2H₂O",
		Reactants: map[string]int{"Hydrogen Gas (H₂)": 2, "Oxygen Gas (O₂)": 1},
		Products:  []Composition{{8: 1, 1: 2}, {8: 1, 1: 2}},
		Cost:      20,
	},
	{
		Name:      "N₂ + 3H₂ → 2NH₃",
		Reactants: map[string]int{"Nitrogen Gas (N₂)": 1, "Hydrogen Gas (H₂)": 3},
		Products:  []Composition{{7: 1, 1: 3}, {7: 1, 1: 3}},
		Cost:      30,
	},
	{
		Name:      "2CO + O₂ → 2CO₂",
		Reactants: map[string]int{"Carbon Monoxide (CO)": 2, "Oxygen Gas (O₂)": 1},
		Products:  []Composition{{6: 1, 8: 2}, {6: 1, 8: 2}},
		Cost:      15,
	},
}

// maxClusterAtoms bounds the generic stability heuristic.
const maxClusterAtoms = 6

// productSpacing separates the centers of multiple reaction products.
const productSpacing = 4.0

// maybeStartReaction is the periodic reaction check. It only runs
// when the lock is free, auto-reactions are on, the heat exceeds the
// threshold and the interval tick comes up. Attempts run in priority
// order; finding nothing is a silent no-op.
func (w *World) maybeStartReaction() {
	if !w.autoReactions || w.reaction != nil {
		return
	}
	if w.energy.Heat() <= w.cfg.ReactionThreshold {
		return
	}
	if w.cfg.ReactionInterval > 1 && w.tick%uint64(w.cfg.ReactionInterval) != 0 {
		return
	}
	w.tryStartReaction()
}

// TriggerReaction attempts to start a complex reaction immediately.
// Returns ErrReactionInFlight while the lock is held, and
// ErrInsufficientEnergy when no candidate could be afforded or found.
func (w *World) TriggerReaction() error {
	if w.reaction != nil {
		return ErrReactionInFlight
	}
	if !w.tryStartReaction() {
		return ErrInsufficientEnergy
	}
	return nil
}

func (w *World) tryStartReaction() bool {
	if w.tryMoleculeReaction() {
		return true
	}
	if w.tryAtomMoleculeReaction() {
		return true
	}
	return w.tryClusterReaction()
}

// tryMoleculeReaction matches the stoichiometric table against the
// current molecules: all required reactants must sit within the
// proximity radius of the anchor (the first matching molecule) and
// the system energy must cover the fixed cost.
func (w *World) tryMoleculeReaction() bool {
	systemEnergy := w.SystemEnergy()
	molecules := w.Molecules()

	for _, reaction := range stoichReactions {
		if systemEnergy < reaction.Cost {
			continue
		}
		staged := w.matchReactants(molecules, reaction.Reactants)
		if staged == nil {
			continue
		}
		w.stageReaction(reaction.Name, reaction.Cost, staged, nil, reaction.Products)
		return true
	}
	return false
}

// matchReactants picks molecules satisfying the required name counts,
// all within proximity of the first pick. Returns nil when the
// requirement cannot be met. The anchor is always the first
// name-matching molecule in id order: a complete reactant set
// clustered around a later molecule is not matched on this attempt
// and has to wait for drift to bring it within range of the anchor.
func (w *World) matchReactants(molecules []Molecule, required map[string]int) []MoleculeID {
	var anchor *Molecule
	need := make(map[string]int, len(required))
	for name, count := range required {
		need[name] = count
	}

	var staged []MoleculeID
	for i := range molecules {
		m := &molecules[i]
		if need[m.Name] <= 0 {
			continue
		}
		if anchor == nil {
			anchor = m
		} else if Distance(anchor.body.Position(), m.body.Position()) > w.cfg.ProximityRadius {
			continue
		}
		need[m.Name]--
		staged = append(staged, m.ID)
	}
	for _, remaining := range need {
		if remaining > 0 {
			return nil
		}
	}
	return staged
}

// tryAtomMoleculeReaction combines one free atom with one molecule
// when the merged composition matches a known stable compound. The
// cost is the sum of activation energies of the bonds that will form.
func (w *World) tryAtomMoleculeReaction() bool {
	systemEnergy := w.SystemEnergy()

	for _, a := range w.sortedFreeAtoms() {
		if w.bondCount(a.ID) > 0 {
			continue
		}
		for _, m := range w.Molecules() {
			if Distance(a.body.Position(), m.body.Position()) > w.cfg.ProximityRadius {
				continue
			}
			memberAtoms := w.resolveAtoms(m.Members)
			if memberAtoms == nil {
				continue
			}
			merged := CompositionOf(memberAtoms).Add(CompositionOf([]*Atom{a}))
			name, _, _, known := LookupCompound(merged)
			if !known {
				continue
			}
			all := append(memberAtoms, a)
			cost := starBondCost(all)
			if cost < 0 || systemEnergy < cost {
				continue
			}
			w.stageReaction("combination → "+name, cost, []MoleculeID{m.ID}, []AtomID{a.ID}, []Composition{merged})
			return true
		}
	}
	return false
}

// tryClusterReaction tests free 3- then 2-atom proximity clusters
// against the stability predicate: a known composition, or the
// generic valence-balance heuristic.
func (w *World) tryClusterReaction() bool {
	systemEnergy := w.SystemEnergy()
	atoms := w.sortedFreeAtoms()

	unbonded := atoms[:0:0]
	for _, a := range atoms {
		if w.bondCount(a.ID) == 0 {
			unbonded = append(unbonded, a)
		}
	}

	tryCluster := func(cluster []*Atom) bool {
		if !clusterStable(cluster) {
			return false
		}
		cost := starBondCost(cluster)
		if cost < 0 || systemEnergy < cost {
			return false
		}
		ids := make([]AtomID, len(cluster))
		for i, a := range cluster {
			ids[i] = a.ID
		}
		comp := CompositionOf(cluster)
		name, _, _, known := LookupCompound(comp)
		if !known {
			name = Formula(comp)
		}
		w.stageReaction("cluster → "+name, cost, nil, ids, []Composition{comp})
		return true
	}

	for i := 0; i < len(unbonded); i++ {
		for j := i + 1; j < len(unbonded); j++ {
			a, b := unbonded[i], unbonded[j]
			if Distance(a.body.Position(), b.body.Position()) > w.cfg.ProximityRadius {
				continue
			}
			for k := j + 1; k < len(unbonded); k++ {
				c := unbonded[k]
				if Distance(a.body.Position(), c.body.Position()) > w.cfg.ProximityRadius {
					continue
				}
				if tryCluster([]*Atom{a, b, c}) {
					return true
				}
			}
			if tryCluster([]*Atom{a, b}) {
				return true
			}
		}
	}
	return false
}

// clusterStable is the stability predicate for free clusters: known
// stoichiometry, or the valence-balance heuristic (the implied bond
// count must fit within the possible pairs of the cluster).
func clusterStable(cluster []*Atom) bool {
	if len(cluster) < 2 || len(cluster) > maxClusterAtoms {
		return false
	}
	comp := CompositionOf(cluster)
	if _, _, _, known := LookupCompound(comp); known {
		return true
	}
	totalValence := 0
	for _, a := range cluster {
		e, ok := a.Element()
		if !ok || e.MaxBonds == 0 {
			return false
		}
		totalValence += e.ValenceElectrons
	}
	n := len(cluster)
	maxPairs := n * (n - 1) / 2
	return totalValence/2 <= maxPairs
}

// centralForProduct restricts the central-atom choice to members whose
// valence can carry a bond to every other product atom, so the planned
// star never overbooks the hub. Falls back to the unrestricted pick
// when no member qualifies.
func centralForProduct(product []*Atom) *Atom {
	needed := len(product) - 1
	capable := make([]*Atom, 0, len(product))
	for _, a := range product {
		if e, ok := a.Element(); ok && e.MaxBonds >= needed {
			capable = append(capable, a)
		}
	}
	if len(capable) == 0 {
		return FindOptimalCentralAtom(product)
	}
	return FindOptimalCentralAtom(capable)
}

// starBondCost sums activation energies for a star bonding around the
// central atom. Returns -1 when the cluster cannot bond.
func starBondCost(cluster []*Atom) float64 {
	central := centralForProduct(cluster)
	if central == nil {
		return -1
	}
	ec, ok := central.Element()
	if !ok {
		return -1
	}
	total := 0.0
	for _, a := range cluster {
		if a.ID == central.ID {
			continue
		}
		ea, ok := a.Element()
		if !ok {
			return -1
		}
		total += ActivationEnergy(ec, ea)
	}
	return total
}

// stageReaction takes the reaction lock with a freshly planned run.
// The actual staging work happens on the next orchestrator advance.
func (w *World) stageReaction(name string, cost float64, molecules []MoleculeID, atoms []AtomID, products []Composition) {
	w.reaction = &reactionRun{
		name:         name,
		cost:         cost,
		phase:        PhaseStaging,
		molecules:    molecules,
		atoms:        atoms,
		productComps: products,
	}
	w.log.Infof("reaction staged: %s (cost %.1f)", name, cost)
}

// advanceReaction advances the in-flight reaction one phase per tick.
// Every phase re-validates its referenced atoms before acting; a
// stale reference aborts the reaction and releases the lock.
func (w *World) advanceReaction() {
	r := w.reaction
	switch r.phase {
	case PhaseStaging:
		w.stagePhase(r)
	case PhasePositioning:
		w.positionPhase(r)
	case PhaseBonding:
		w.bondPhase(r)
	case PhaseIdentifying:
		w.identifyPhase(r)
	}
}

// stagePhase dissolves the reactant molecules into the free pool,
// partitions all participating atoms into the product compositions
// and computes deterministic target positions for each product's
// geometry around the reaction center.
func (w *World) stagePhase(r *reactionRun) {
	// Re-validate staged reactants.
	products := r.productComps
	allAtoms := make([]AtomID, 0, len(r.atoms))
	allAtoms = append(allAtoms, r.atoms...)
	for _, id := range r.atoms {
		a, ok := w.atoms[id]
		if !ok || a.MoleculeMember || a.body == nil {
			w.abortReaction("staged atom no longer free")
			return
		}
	}
	for _, mid := range r.molecules {
		m, ok := w.molecules[mid]
		if !ok {
			w.abortReaction("staged molecule vanished")
			return
		}
		allAtoms = append(allAtoms, m.Members...)
		w.dissolveMolecule(m, false)
	}
	r.atoms = allAtoms
	r.molecules = nil

	pool := w.resolveAtoms(allAtoms)
	if pool == nil {
		w.abortReaction("staged atom vanished during dissolve")
		return
	}

	center := Vec3{}
	for _, a := range pool {
		center = center.Add(a.body.Position())
	}
	center = center.Scale(1 / float64(len(pool)))

	r.targets = make(map[AtomID]Vec3, len(pool))
	r.starts = make(map[AtomID]Vec3, len(pool))
	r.bonds = nil

	remaining := append([]*Atom(nil), pool...)
	for i, comp := range products {
		product, rest := takeComposition(remaining, comp)
		if product == nil {
			w.abortReaction("reactants no longer satisfy product stoichiometry")
			return
		}
		remaining = rest

		productCenter := center.Add(Vec3{X: (float64(i) - float64(len(products)-1)/2) * productSpacing})
		w.planProduct(r, product, comp, productCenter)
	}

	for _, a := range pool {
		r.starts[a.ID] = a.body.Position()
	}

	r.phase = PhasePositioning
	r.elapsed = 0
	w.emit(Event{Kind: EventReactionStarted, Reaction: r.name})
	w.log.Infof("reaction started: %s", r.name)
}

// planProduct lays one product's atoms out on its geometry template
// around productCenter and records the star bonds to create.
func (w *World) planProduct(r *reactionRun, product []*Atom, comp Composition, productCenter Vec3) {
	central := centralForProduct(product)
	_, _, geometry, known := LookupCompound(comp)
	if !known {
		geometry = GeometryComplex
		if e, ok := central.Element(); ok {
			geometry = DetermineGeometry(e, len(product)-1)
		}
	}

	bondLength := 1.0
	if ec, ok := central.Element(); ok {
		lengths := 0.0
		count := 0
		for _, a := range product {
			if a.ID == central.ID {
				continue
			}
			if ea, ok := a.Element(); ok {
				lengths += (ec.AtomicRadius + ea.AtomicRadius) * w.cfg.BondLengthFactor
				count++
			}
		}
		if count > 0 {
			bondLength = lengths / float64(count)
		}
	}

	r.targets[central.ID] = productCenter
	peripheral := make([]*Atom, 0, len(product)-1)
	for _, a := range product {
		if a.ID != central.ID {
			peripheral = append(peripheral, a)
		}
	}
	positions := MolecularPositions(len(peripheral), geometry, bondLength)
	for i, a := range peripheral {
		r.targets[a.ID] = productCenter.Add(positions[i])
		r.bonds = append(r.bonds, [2]AtomID{central.ID, a.ID})
	}
}

// takeComposition pulls atoms matching comp out of the pool, lowest
// id first per element. Returns nil when the pool cannot satisfy it.
func takeComposition(pool []*Atom, comp Composition) (product, rest []*Atom) {
	need := make(Composition, len(comp))
	for z, n := range comp {
		need[z] = n
	}
	sorted := append([]*Atom(nil), pool...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	for _, a := range sorted {
		if need[a.Protons] > 0 {
			need[a.Protons]--
			product = append(product, a)
		} else {
			rest = append(rest, a)
		}
	}
	for _, n := range need {
		if n > 0 {
			return nil, pool
		}
	}
	return product, rest
}

// positionPhase moves every participant toward its target along an
// eased curve over the configured tick count.
func (w *World) positionPhase(r *reactionRun) {
	r.elapsed++
	progress := easeInOut(float64(r.elapsed) / float64(w.cfg.PositioningTicks))

	for id, target := range r.targets {
		a, ok := w.atoms[id]
		if !ok || a.body == nil {
			w.abortReaction("participant atom deleted mid-positioning")
			return
		}
		a.body.SetPosition(r.starts[id].Lerp(target, progress))
	}

	if r.elapsed >= w.cfg.PositioningTicks {
		r.phase = PhaseBonding
	}
}

// bondPhase creates the planned bonds and deducts the reaction cost
// from the transient heat, floored at zero.
func (w *World) bondPhase(r *reactionRun) {
	for _, pair := range r.bonds {
		a, okA := w.atoms[pair[0]]
		b, okB := w.atoms[pair[1]]
		if !okA || !okB {
			w.abortReaction("participant atom deleted mid-bonding")
			return
		}
		if _, err := w.createBond(a, b); err != nil && err != ErrDuplicateBond {
			w.log.Warnf("reaction bond %s failed: %v", PairID(a.ID, b.ID), err)
		}
	}
	w.energy.Consume(r.cost)
	r.phase = PhaseIdentifying
}

// identifyPhase re-runs molecule identification over the new bond
// set, completing the reaction and releasing the lock.
func (w *World) identifyPhase(r *reactionRun) {
	w.identify()
	w.bondsDirty = false
	r.phase = PhaseDone
	w.reaction = nil
	w.emit(Event{Kind: EventReactionCompleted, Reaction: r.name})
	w.log.Infof("reaction completed: %s", r.name)
}

// abortReaction releases the lock without applying further effects.
// Stale references are treated as silent cancellation.
func (w *World) abortReaction(reason string) {
	if w.reaction == nil {
		return
	}
	w.log.Debugf("reaction aborted (%s): %s", w.reaction.name, reason)
	w.reaction = nil
}

// resolveAtoms maps ids to live atoms, nil if any are missing.
func (w *World) resolveAtoms(ids []AtomID) []*Atom {
	out := make([]*Atom, 0, len(ids))
	for _, id := range ids {
		a, ok := w.atoms[id]
		if !ok {
			return nil
		}
		out = append(out, a)
	}
	return out
}
