package chem

import "math"

// Geometry is a VSEPR molecular geometry tag.
type Geometry string

const (
	GeometryLinear              Geometry = "linear"
	GeometryBent                Geometry = "bent"
	GeometryTrigonalPlanar      Geometry = "trigonal_planar"
	GeometryTetrahedral         Geometry = "tetrahedral"
	GeometryTrigonalPyramidal   Geometry = "trigonal_pyramidal"
	GeometryTrigonalBipyramidal Geometry = "trigonal_bipyramidal"
	GeometrySeesaw              Geometry = "seesaw"
	GeometryTShaped             Geometry = "T_shaped"
	GeometryOctahedral          Geometry = "octahedral"
	GeometrySquarePyramidal     Geometry = "square_pyramidal"
	GeometrySquarePlanar        Geometry = "square_planar"
	GeometryComplex             Geometry = "complex"
)

// vseprTable maps (total electron pairs, lone pairs) to a geometry.
var vseprTable = map[[2]int]Geometry{
	{2, 0}: GeometryLinear,
	{3, 0}: GeometryTrigonalPlanar,
	{3, 1}: GeometryBent,
	{4, 0}: GeometryTetrahedral,
	{4, 1}: GeometryTrigonalPyramidal,
	{4, 2}: GeometryBent,
	{5, 0}: GeometryTrigonalBipyramidal,
	{5, 1}: GeometrySeesaw,
	{5, 2}: GeometryTShaped,
	{5, 3}: GeometryLinear,
	{6, 0}: GeometryOctahedral,
	{6, 1}: GeometrySquarePyramidal,
	{6, 2}: GeometrySquarePlanar,
}

// DetermineGeometry classifies the arrangement around a central atom
// from its element and bonded-neighbor count using the VSEPR pair
// table. Combinations outside the table classify as complex.
func DetermineGeometry(central Element, bondsAtCenter int) Geometry {
	lonePairs := (central.ValenceElectrons - 2*bondsAtCenter) / 2
	if lonePairs < 0 {
		lonePairs = 0
	}
	totalPairs := bondsAtCenter + lonePairs
	if g, ok := vseprTable[[2]int{totalPairs, lonePairs}]; ok {
		return g
	}
	return GeometryComplex
}

// bent half-angle: 104.5° total angle between the two bonds.
const bentHalfAngle = 104.5 / 2 * math.Pi / 180

// tetraDirs are the four unit-cube diagonal directions, normalized.
var tetraDirs = [][3]float64{
	{1, 1, 1}, {1, -1, -1}, {-1, 1, -1}, {-1, -1, 1},
}

// MolecularPositions returns offsets for n peripheral atoms around a
// central atom at the origin, scaled by bondLength. Geometries without
// a fixed template fall back to an evenly spaced circle.
func MolecularPositions(n int, g Geometry, bondLength float64) []Vec3 {
	switch g {
	case GeometryLinear:
		if n == 1 {
			return []Vec3{{X: bondLength}}
		}
		if n == 2 {
			return []Vec3{{X: bondLength}, {X: -bondLength}}
		}
	case GeometryBent:
		if n == 2 {
			s, c := math.Sin(bentHalfAngle), math.Cos(bentHalfAngle)
			return []Vec3{
				{X: s * bondLength, Y: -c * bondLength},
				{X: -s * bondLength, Y: -c * bondLength},
			}
		}
	case GeometryTrigonalPlanar, GeometryTrigonalPyramidal:
		if n == 3 {
			out := make([]Vec3, 3)
			drop := 0.0
			if g == GeometryTrigonalPyramidal {
				// pyramid: push the plane below the central atom
				drop = -0.35 * bondLength
			}
			for i := range out {
				angle := 2 * math.Pi * float64(i) / 3
				out[i] = Vec3{
					X: math.Cos(angle) * bondLength,
					Y: drop,
					Z: math.Sin(angle) * bondLength,
				}
				if g == GeometryTrigonalPyramidal {
					out[i] = out[i].Normalized().Scale(bondLength)
				}
			}
			return out
		}
	case GeometryTetrahedral:
		if n == 4 {
			out := make([]Vec3, 4)
			for i, d := range tetraDirs {
				out[i] = Vec3{X: d[0], Y: d[1], Z: d[2]}.Normalized().Scale(bondLength)
			}
			return out
		}
	case GeometryTrigonalBipyramidal:
		if n == 5 {
			out := make([]Vec3, 0, 5)
			for i := 0; i < 3; i++ {
				angle := 2 * math.Pi * float64(i) / 3
				out = append(out, Vec3{X: math.Cos(angle) * bondLength, Z: math.Sin(angle) * bondLength})
			}
			out = append(out, Vec3{Y: bondLength}, Vec3{Y: -bondLength})
			return out
		}
	case GeometryOctahedral:
		if n == 6 {
			return []Vec3{
				{X: bondLength}, {X: -bondLength},
				{Y: bondLength}, {Y: -bondLength},
				{Z: bondLength}, {Z: -bondLength},
			}
		}
	case GeometrySquarePlanar:
		if n == 4 {
			return []Vec3{
				{X: bondLength}, {X: -bondLength},
				{Z: bondLength}, {Z: -bondLength},
			}
		}
	}
	return circlePositions(n, bondLength)
}

// circlePositions spaces n atoms evenly on a circle around the origin.
func circlePositions(n int, bondLength float64) []Vec3 {
	out := make([]Vec3, n)
	for i := range out {
		angle := 2 * math.Pi * float64(i) / float64(n)
		out[i] = Vec3{
			X: math.Cos(angle) * bondLength,
			Z: math.Sin(angle) * bondLength,
		}
	}
	return out
}

// FindOptimalCentralAtom picks the atom that maximizes
// maxBonds − electronegativity across the candidates. Ties resolve to
// the first-encountered candidate in slice order; atoms without a
// catalog entry are never chosen over known ones.
func FindOptimalCentralAtom(atoms []*Atom) *Atom {
	var best *Atom
	bestScore := math.Inf(-1)
	for _, a := range atoms {
		e, ok := a.Element()
		if !ok {
			continue
		}
		score := float64(e.MaxBonds) - e.Electronegativity
		if score > bestScore {
			best = a
			bestScore = score
		}
	}
	if best == nil && len(atoms) > 0 {
		best = atoms[0]
	}
	return best
}
