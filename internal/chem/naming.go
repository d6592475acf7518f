package chem

import (
	"sort"
	"strconv"
	"strings"
)

// Composition counts atoms per atomic number.
type Composition map[int]int

// CompositionOf tallies a set of atoms by element.
func CompositionOf(atoms []*Atom) Composition {
	comp := make(Composition)
	for _, a := range atoms {
		comp[a.Protons]++
	}
	return comp
}

// Equal reports whether two compositions describe the same atom multiset.
func (c Composition) Equal(o Composition) bool {
	if len(c) != len(o) {
		return false
	}
	for z, n := range c {
		if o[z] != n {
			return false
		}
	}
	return true
}

// TotalAtoms returns the total atom count of the composition.
func (c Composition) TotalAtoms() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Add returns the union composition of c and o.
func (c Composition) Add(o Composition) Composition {
	out := make(Composition, len(c)+len(o))
	for z, n := range c {
		out[z] = n
	}
	for z, n := range o {
		out[z] += n
	}
	return out
}

// knownCompound is one entry in the fixed classification table.
type knownCompound struct {
	comp     Composition
	name     string
	formula  string
	geometry Geometry
}

// knownCompounds is matched first, in order, before systematic naming
// kicks in. Display names carry the formula in parentheses.
var knownCompounds = []knownCompound{
	{Composition{8: 1, 1: 2}, "Water (H₂O)", "H₂O", GeometryBent},
	{Composition{6: 1, 8: 2}, "Carbon Dioxide (CO₂)", "CO₂", GeometryLinear},
	{Composition{6: 1, 1: 4}, "Methane (CH₄)", "CH₄", GeometryTetrahedral},
	{Composition{7: 1, 1: 3}, "Ammonia (NH₃)", "NH₃", GeometryTrigonalPyramidal},
	{Composition{1: 1, 17: 1}, "Hydrogen Chloride (HCl)", "HCl", GeometryLinear},
	{Composition{1: 1, 9: 1}, "Hydrogen Fluoride (HF)", "HF", GeometryLinear},
	{Composition{11: 1, 17: 1}, "Sodium Chloride (NaCl)", "NaCl", GeometryLinear},
	{Composition{6: 1, 8: 1}, "Carbon Monoxide (CO)", "CO", GeometryLinear},
	{Composition{8: 3}, "Ozone (O₃)", "O₃", GeometryBent},
	{Composition{1: 2, 8: 2}, "Hydrogen Peroxide (H₂O₂)", "H₂O₂", GeometryComplex},
	{Composition{1: 2, 16: 1}, "Hydrogen Sulfide (H₂S)", "H₂S", GeometryBent},
	{Composition{1: 2}, "Hydrogen Gas (H₂)", "H₂", GeometryLinear},
	{Composition{8: 2}, "Oxygen Gas (O₂)", "O₂", GeometryLinear},
	{Composition{7: 2}, "Nitrogen Gas (N₂)", "N₂", GeometryLinear},
	{Composition{9: 2}, "Fluorine Gas (F₂)", "F₂", GeometryLinear},
	{Composition{17: 2}, "Chlorine Gas (Cl₂)", "Cl₂", GeometryLinear},
}

// LookupCompound matches a composition against the known table.
func LookupCompound(comp Composition) (name, formula string, geometry Geometry, ok bool) {
	for _, k := range knownCompounds {
		if k.comp.Equal(comp) {
			return k.name, k.formula, k.geometry, true
		}
	}
	return "", "", "", false
}

var countPrefixes = []string{
	"", "mono", "di", "tri", "tetra", "penta", "hexa", "hepta", "octa", "nona", "deca",
}

var subscriptDigits = map[rune]rune{
	'0': '₀', '1': '₁', '2': '₂', '3': '₃', '4': '₄',
	'5': '₅', '6': '₆', '7': '₇', '8': '₈', '9': '₉',
}

func subscript(n int) string {
	var sb strings.Builder
	for _, r := range strconv.Itoa(n) {
		if sub, ok := subscriptDigits[r]; ok {
			sb.WriteRune(sub)
		}
	}
	return sb.String()
}

// SystematicName generates a fallback name for a composition with no
// table entry: element parts ordered by ascending electronegativity,
// each with a multiplicative count prefix. Unknown elements sort last.
func SystematicName(comp Composition) string {
	type part struct {
		z     int
		count int
		chi   float64
		name  string
	}
	parts := make([]part, 0, len(comp))
	for z, count := range comp {
		p := part{z: z, count: count, chi: 99, name: "element"}
		if e, ok := ElementByNumber(z); ok {
			p.chi = e.Electronegativity
			p.name = strings.ToLower(e.Name)
		}
		parts = append(parts, p)
	}
	sort.Slice(parts, func(i, j int) bool {
		if parts[i].chi != parts[j].chi {
			return parts[i].chi < parts[j].chi
		}
		return parts[i].z < parts[j].z
	})
	words := make([]string, 0, len(parts))
	for _, p := range parts {
		prefix := "poly"
		if p.count < len(countPrefixes) {
			prefix = countPrefixes[p.count]
		}
		word := prefix + p.name
		words = append(words, strings.ToUpper(word[:1])+word[1:])
	}
	return strings.Join(words, " ")
}

// Formula generates the chemical formula for a composition: elements
// ordered by atomic number, counts above one rendered as Unicode
// subscripts. Unknown elements render as "?".
func Formula(comp Composition) string {
	zs := make([]int, 0, len(comp))
	for z := range comp {
		zs = append(zs, z)
	}
	sort.Ints(zs)
	var sb strings.Builder
	for _, z := range zs {
		symbol := "?"
		if e, ok := ElementByNumber(z); ok {
			symbol = e.Symbol
		}
		sb.WriteString(symbol)
		if comp[z] > 1 {
			sb.WriteString(subscript(comp[z]))
		}
	}
	return sb.String()
}

// ClassifyComposition resolves the display name, formula and geometry
// tag for a component. Table entries win; anything else gets a
// systematic name with the generated formula appended.
func ClassifyComposition(comp Composition, fallbackGeometry Geometry) (name, formula string, geometry Geometry) {
	if n, f, g, ok := LookupCompound(comp); ok {
		return n, f, g
	}
	formula = Formula(comp)
	name = SystematicName(comp) + " (" + formula + ")"
	return name, formula, fallbackGeometry
}
