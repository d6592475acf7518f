package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/pkg/profile"

	"github.com/daniacca/bondsim/internal/chem"
)

// seedAtom is one entry of the TOML seed file.
type seedAtom struct {
	Protons   int       `toml:"protons"`
	Neutrons  int       `toml:"neutrons"`
	Electrons int       `toml:"electrons"`
	Position  chem.Vec3 `toml:"position"`
}

// seedBond pairs two seed atoms by their index in the atoms list.
type seedBond struct {
	A int `toml:"a"`
	B int `toml:"b"`
}

type seedFile struct {
	Atoms []seedAtom `toml:"atoms"`
	Bonds []seedBond `toml:"bonds"`
}

func main() {
	var (
		configFile  = flag.String("config", "", "path to TOML engine config file (optional)")
		seedPath    = flag.String("seed", "", "path to TOML seed file with initial atoms (required)")
		ticks       = flag.Int("ticks", 200, "number of ticks to run")
		energy      = flag.Float64("energy", 0, "heat injected before the run")
		snapshotOut = flag.String("snapshot-out", "", "optional path to write the final snapshot as JSON")
		profileMode = flag.String("profile", "", "enable profiling: cpu or mem")
	)
	flag.Parse()

	if *seedPath == "" {
		fmt.Fprintf(os.Stderr, "error: --seed is required\n")
		flag.Usage()
		os.Exit(1)
	}

	switch *profileMode {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath(".")).Stop()
	default:
		fmt.Fprintf(os.Stderr, "error: unknown profile mode %q (want cpu or mem)\n", *profileMode)
		os.Exit(1)
	}

	cfg := chem.DefaultConfig()
	if *configFile != "" {
		if _, err := toml.DecodeFile(*configFile, &cfg); err != nil {
			fmt.Fprintf(os.Stderr, "error loading engine config: %v\n", err)
			os.Exit(1)
		}
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "error validating engine config: %v\n", err)
			os.Exit(1)
		}
	}

	world := chem.NewWorld(cfg)

	if err := loadSeed(world, *seedPath); err != nil {
		fmt.Fprintf(os.Stderr, "error loading seed: %v\n", err)
		os.Exit(1)
	}

	if *energy > 0 {
		world.AddEnergy(*energy)
	}

	for i := 0; i < *ticks; i++ {
		world.Step()
	}

	printSummary(world, *ticks)

	if *snapshotOut != "" {
		data, err := chem.EncodeSnapshotJSON(world.Snapshot())
		if err != nil {
			fmt.Fprintf(os.Stderr, "error encoding snapshot: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*snapshotOut, data, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "error writing snapshot: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Snapshot written to %s\n", *snapshotOut)
	}
}

// loadSeed spawns the seed atoms and creates any listed bonds. Bond
// entries reference atoms by their position in the atoms list.
func loadSeed(world *chem.World, path string) error {
	var seed seedFile
	if _, err := toml.DecodeFile(path, &seed); err != nil {
		return fmt.Errorf("parsing seed TOML: %w", err)
	}
	if len(seed.Atoms) == 0 {
		return fmt.Errorf("seed file has no atoms")
	}

	ids := make([]chem.AtomID, len(seed.Atoms))
	for i, sa := range seed.Atoms {
		a := world.SpawnAtom(sa.Protons, sa.Neutrons, sa.Electrons, sa.Position)
		ids[i] = a.ID
	}

	for _, sb := range seed.Bonds {
		if sb.A < 0 || sb.A >= len(ids) || sb.B < 0 || sb.B >= len(ids) {
			return fmt.Errorf("bond references atom index out of range: %d-%d", sb.A, sb.B)
		}
		if _, err := world.CreateManualBond(ids[sb.A], ids[sb.B]); err != nil {
			return fmt.Errorf("creating seed bond %d-%d: %w", sb.A, sb.B, err)
		}
	}
	return nil
}

func printSummary(world *chem.World, ticks int) {
	molecules := world.Molecules()

	counts := make(map[string]int)
	for _, m := range molecules {
		counts[m.Name]++
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("Simulation finished (ticks=%d)\n", ticks)
	fmt.Printf("Free atoms: %d\n", len(world.FreeAtoms()))
	fmt.Printf("Heat: %.2f  Temperature: %.2f\n", world.Heat(), world.Temperature())
	fmt.Println("Molecule counts:")
	for _, name := range names {
		fmt.Printf("  %s: %d\n", name, counts[name])
	}
	fmt.Println("Discovered compounds:")
	for _, name := range world.Discovered() {
		fmt.Printf("  %s\n", name)
	}
}
