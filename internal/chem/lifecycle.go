package chem

// formingBond is a gradual bond formation in flight. Per pair, the
// lifecycle is Unbonded -> Forming -> Bonded -> (broken) -> Unbonded;
// this struct is the Forming state's payload.
type formingBond struct {
	a, b     AtomID
	elapsed  int
	duration int
	startA   Vec3
	startB   Vec3
}

// easeInOut is the smoothstep progress curve used for bond formation.
func easeInOut(t float64) float64 {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return t * t * (3 - 2*t)
}

// createBond materializes a bond for a free atom pair. Idempotent on
// the unordered pair: an existing bond is reported as ErrDuplicateBond
// and nothing changes. Valence is enforced against live bonds plus
// forming reservations, minus the reservation this pair itself holds.
func (w *World) createBond(a, b *Atom) (*Bond, error) {
	pair := PairID(a.ID, b.ID)
	if _, exists := w.bonds[pair]; exists {
		return nil, ErrDuplicateBond
	}
	ea, okA := a.Element()
	eb, okB := b.Element()
	if !okA || !okB {
		return nil, ErrUnknownElement
	}

	countA, countB := w.bondCount(a.ID), w.bondCount(b.ID)
	if _, reserved := w.forming[pair]; reserved {
		countA--
		countB--
	}
	if countA >= ea.MaxBonds || countB >= eb.MaxBonds {
		return nil, ErrValenceExceeded
	}

	bond := NewBond(a, b, ea, eb, &w.cfg)
	w.bonds[pair] = &bond
	delete(w.forming, pair)
	w.bondsDirty = true

	w.log.Debugf("bond created: %s (%s-%s, %s)", pair, a.Symbol(), b.Symbol(), bond.Type)
	w.emit(Event{Kind: EventBondCreated, Bond: &bond})
	return &bond, nil
}

// breakBond removes a live bond from the pool.
func (w *World) breakBond(b *Bond) {
	delete(w.bonds, b.ID)
	w.bondsDirty = true
	w.log.Debugf("bond broken: %s", b.ID)
	w.emit(Event{Kind: EventBondBroken, Bond: b})
}

// startForming transitions a pair from Unbonded to Forming.
func (w *World) startForming(a, b *Atom) {
	pair := PairID(a.ID, b.ID)
	w.forming[pair] = &formingBond{
		a:        a.ID,
		b:        b.ID,
		duration: w.cfg.FormingTicks,
		startA:   a.body.Position(),
		startB:   b.body.Position(),
	}
}

// advanceForming moves every forming pair one tick along its ease-in-
// out attraction curve, materializing the bond on completion. A pair
// referencing a deleted or consumed atom is silently cancelled; that
// is the only way an in-flight formation stops early.
func (w *World) advanceForming() {
	for pair, fb := range w.forming {
		atomA, okA := w.atoms[fb.a]
		atomB, okB := w.atoms[fb.b]
		if !okA || !okB || atomA.MoleculeMember || atomB.MoleculeMember {
			delete(w.forming, pair)
			continue
		}

		fb.elapsed++
		progress := easeInOut(float64(fb.elapsed) / float64(fb.duration))

		// Pull both atoms toward their ideal separation around the
		// midpoint of where they started.
		ea, okEA := atomA.Element()
		eb, okEB := atomB.Element()
		if !okEA || !okEB {
			delete(w.forming, pair)
			continue
		}
		ideal := (ea.AtomicRadius + eb.AtomicRadius) * w.cfg.BondLengthFactor
		mid := fb.startA.Add(fb.startB).Scale(0.5)
		dir := fb.startB.Sub(fb.startA).Normalized()
		if dir == (Vec3{}) {
			dir = Vec3{X: 1}
		}
		targetA := mid.Sub(dir.Scale(ideal / 2))
		targetB := mid.Add(dir.Scale(ideal / 2))
		atomA.body.SetPosition(fb.startA.Lerp(targetA, progress))
		atomB.body.SetPosition(fb.startB.Lerp(targetB, progress))

		if fb.elapsed >= fb.duration {
			if _, err := w.createBond(atomA, atomB); err != nil {
				// Conditions changed underneath the formation; drop it.
				delete(w.forming, pair)
				w.log.Debugf("forming cancelled for %s: %v", pair, err)
			}
		}
	}
}

// stressCheck breaks every live bond stretched beyond its break
// length, and drops bonds whose endpoints vanished.
func (w *World) stressCheck() {
	for _, b := range w.bonds {
		d, ok := w.bondDistance(b)
		if !ok {
			delete(w.bonds, b.ID)
			w.bondsDirty = true
			continue
		}
		if d > b.BreakLength(&w.cfg) {
			w.breakBond(b)
		}
	}
}

// scanEligiblePairs runs the per-tick bond formation scan over free
// atoms. A per-pair cooldown bounds the per-tick cost and prevents
// oscillation: any pair that reaches eligibility evaluation, pass or
// fail, is not looked at again until the window expires.
func (w *World) scanEligiblePairs() {
	atoms := w.sortedFreeAtoms()
	systemEnergy := w.SystemEnergy()

	for i := 0; i < len(atoms); i++ {
		for j := i + 1; j < len(atoms); j++ {
			a, b := atoms[i], atoms[j]
			pair := PairID(a.ID, b.ID)

			if _, bonded := w.bonds[pair]; bonded {
				continue
			}
			if _, inFlight := w.forming[pair]; inFlight {
				continue
			}
			if until, cooling := w.cooldown[pair]; cooling {
				if w.tick < until {
					continue
				}
				delete(w.cooldown, pair)
			}
			if Distance(a.body.Position(), b.body.Position()) > w.cfg.BondFormationDistance {
				continue
			}

			// Throttle, not chemistry: every evaluated pair cools down.
			w.cooldown[pair] = w.tick + uint64(w.cfg.CooldownTicks)

			if w.betterPartnerNearby(a, b) {
				continue
			}
			if err := CanFormBond(a, b, w.bondCount(a.ID), w.bondCount(b.ID), systemEnergy); err != nil {
				continue
			}
			w.startForming(a, b)
		}
	}
}
