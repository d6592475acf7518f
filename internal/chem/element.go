package chem

// Element holds the static chemical constants for one element.
// Instances come from the built-in catalog and are never mutated.
type Element struct {
	AtomicNumber      int
	Symbol            string
	Name              string
	ValenceElectrons  int
	MaxBonds          int
	Electronegativity float64
	AtomicRadius      float64
	IonizationEnergy  float64
	ElectronAffinity  float64
	OxidationStates   []int
}

// elementCatalog covers the first 18 elements. Values are illustrative
// heuristics in engine units, not validated thermodynamic data.
var elementCatalog = map[int]Element{
	1:  {1, "H", "Hydrogen", 1, 1, 2.20, 0.53, 13.6, 0.75, []int{1, -1}},
	2:  {2, "He", "Helium", 2, 0, 0, 0.31, 24.6, 0, []int{0}},
	3:  {3, "Li", "Lithium", 1, 1, 0.98, 1.67, 5.4, 0.62, []int{1}},
	4:  {4, "Be", "Beryllium", 2, 2, 1.57, 1.12, 9.3, 0, []int{2}},
	5:  {5, "B", "Boron", 3, 3, 2.04, 0.87, 8.3, 0.28, []int{3}},
	6:  {6, "C", "Carbon", 4, 4, 2.55, 0.67, 11.3, 1.26, []int{4, 2, -4}},
	7:  {7, "N", "Nitrogen", 5, 3, 3.04, 0.56, 14.5, 0, []int{-3, 3, 5}},
	8:  {8, "O", "Oxygen", 6, 2, 3.44, 0.48, 13.6, 1.46, []int{-2}},
	9:  {9, "F", "Fluorine", 7, 1, 3.98, 0.42, 17.4, 3.40, []int{-1}},
	10: {10, "Ne", "Neon", 8, 0, 0, 0.38, 21.6, 0, []int{0}},
	11: {11, "Na", "Sodium", 1, 1, 0.93, 1.90, 5.1, 0.55, []int{1}},
	12: {12, "Mg", "Magnesium", 2, 2, 1.31, 1.45, 7.6, 0, []int{2}},
	13: {13, "Al", "Aluminium", 3, 3, 1.61, 1.18, 6.0, 0.43, []int{3}},
	14: {14, "Si", "Silicon", 4, 4, 1.90, 1.11, 8.2, 1.39, []int{4, -4}},
	15: {15, "P", "Phosphorus", 5, 3, 2.19, 0.98, 10.5, 0.75, []int{-3, 3, 5}},
	16: {16, "S", "Sulfur", 6, 2, 2.58, 0.88, 10.4, 2.08, []int{-2, 4, 6}},
	17: {17, "Cl", "Chlorine", 7, 1, 3.16, 0.79, 13.0, 3.61, []int{-1}},
	18: {18, "Ar", "Argon", 8, 0, 0, 0.71, 15.8, 0, []int{0}},
}

// ElementByNumber retrieves an element by atomic number.
// Returns the element and a boolean indicating if it was found.
// An unknown atomic number is a valid outcome: every dependent
// computation treats it as "no bonding possible".
func ElementByNumber(z int) (Element, bool) {
	e, ok := elementCatalog[z]
	return e, ok
}

// ElementBySymbol retrieves an element by its symbol (e.g. "He").
func ElementBySymbol(symbol string) (Element, bool) {
	for _, e := range elementCatalog {
		if e.Symbol == symbol {
			return e, true
		}
	}
	return Element{}, false
}

// IsMetal reports whether the element is one of the catalog metals.
func (e Element) IsMetal() bool {
	switch e.AtomicNumber {
	case 3, 4, 11, 12, 13:
		return true
	}
	return false
}
