package chem

import (
	"math"
	"testing"
)

func TestDetermineGeometry(t *testing.T) {
	tests := []struct {
		symbol string
		bonds  int
		want   Geometry
	}{
		{"Be", 2, GeometryLinear},
		{"C", 4, GeometryTetrahedral},
		{"O", 2, GeometryBent},
		{"S", 2, GeometryBent},
		{"P", 3, GeometryTrigonalPlanar},
		{"B", 3, GeometryTrigonalPlanar},
		// One bonded neighbor never appears in the pair table.
		{"H", 1, GeometryComplex},
	}
	for _, tt := range tests {
		e, ok := ElementBySymbol(tt.symbol)
		if !ok {
			t.Fatalf("unknown element %s", tt.symbol)
		}
		if got := DetermineGeometry(e, tt.bonds); got != tt.want {
			t.Errorf("DetermineGeometry(%s, %d): expected %s, got %s", tt.symbol, tt.bonds, tt.want, got)
		}
	}
}

func TestMolecularPositions_Linear(t *testing.T) {
	positions := MolecularPositions(2, GeometryLinear, 1.5)
	if len(positions) != 2 {
		t.Fatalf("Expected 2 positions, got %d", len(positions))
	}
	if positions[0].Add(positions[1]).Length() > 1e-9 {
		t.Error("Expected linear positions to be symmetric about the origin")
	}
	for i, p := range positions {
		if math.Abs(p.Length()-1.5) > 1e-9 {
			t.Errorf("Position %d: expected bond length 1.5, got %f", i, p.Length())
		}
	}
}

func TestMolecularPositions_BentAngle(t *testing.T) {
	positions := MolecularPositions(2, GeometryBent, 1)
	if len(positions) != 2 {
		t.Fatalf("Expected 2 positions, got %d", len(positions))
	}
	cos := positions[0].X*positions[1].X + positions[0].Y*positions[1].Y + positions[0].Z*positions[1].Z
	angle := math.Acos(cos) * 180 / math.Pi
	if math.Abs(angle-104.5) > 0.1 {
		t.Errorf("Expected bond angle 104.5 degrees, got %f", angle)
	}
}

func TestMolecularPositions_Tetrahedral(t *testing.T) {
	positions := MolecularPositions(4, GeometryTetrahedral, 2)
	if len(positions) != 4 {
		t.Fatalf("Expected 4 positions, got %d", len(positions))
	}
	for i, p := range positions {
		if math.Abs(p.Length()-2) > 1e-9 {
			t.Errorf("Position %d: expected bond length 2, got %f", i, p.Length())
		}
	}
}

func TestMolecularPositions_FallbackCircle(t *testing.T) {
	// A count the template cannot serve falls back to an even circle.
	positions := MolecularPositions(5, GeometryBent, 1)
	if len(positions) != 5 {
		t.Fatalf("Expected 5 positions, got %d", len(positions))
	}
	for i, p := range positions {
		if math.Abs(p.Length()-1) > 1e-9 {
			t.Errorf("Position %d: expected radius 1, got %f", i, p.Length())
		}
	}
}

func TestFindOptimalCentralAtom(t *testing.T) {
	c := &Atom{ID: 1, Protons: 6}
	o := &Atom{ID: 2, Protons: 8}
	h := &Atom{ID: 3, Protons: 1}

	// Carbon maximizes maxBonds - electronegativity.
	if got := FindOptimalCentralAtom([]*Atom{h, o, c}); got != c {
		t.Errorf("Expected carbon as central atom, got %v", got)
	}

	if got := FindOptimalCentralAtom(nil); got != nil {
		t.Errorf("Expected nil for empty candidate list, got %v", got)
	}

	// Unknown elements are only chosen when nothing else exists.
	unknown := &Atom{ID: 4, Protons: 99}
	if got := FindOptimalCentralAtom([]*Atom{unknown, h}); got != h {
		t.Error("Expected known element to win over unknown")
	}
	if got := FindOptimalCentralAtom([]*Atom{unknown}); got != unknown {
		t.Error("Expected lone unknown atom as last-resort central")
	}
}
