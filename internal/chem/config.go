package chem

// ModeConfig is the tunable simulation mode consumed uniformly by the
// engine. Switching mode never branches core algorithm logic, it only
// changes coefficients.
type ModeConfig struct {
	Name          string  `json:"name" toml:"name"`
	Damping       float64 `json:"damping" toml:"damping"`
	DecayRate     float64 `json:"decay_rate" toml:"decay_rate"`
	MaxVelocity   float64 `json:"max_velocity" toml:"max_velocity"`
	AutoReactions bool    `json:"auto_reactions" toml:"auto_reactions"`
}

// PreferenceRule rejects a candidate bond pair when a chemically
// better partner is available nearby. Rules are hand-tuned heuristics
// keyed by element pair, not derivable chemistry; they live in config
// so experiments can tune or drop them.
type PreferenceRule struct {
	PairA  int     `json:"pair_a" toml:"pair_a"`   // atomic number of one candidate atom
	PairB  int     `json:"pair_b" toml:"pair_b"`   // atomic number of the other
	Better int     `json:"better" toml:"better"`   // atomic number of the preferred partner
	Radius float64 `json:"radius" toml:"radius"`   // look-around radius, 0 = Config.PreferenceRadius
}

// Matches reports whether the rule applies to the unordered pair (za, zb).
func (r PreferenceRule) Matches(za, zb int) bool {
	return (r.PairA == za && r.PairB == zb) || (r.PairA == zb && r.PairB == za)
}

// Config holds every tunable the engine consumes. Numeric thresholds
// here are configuration, not settled chemistry.
type Config struct {
	// Bond lifecycle
	BondFormationDistance float64 `json:"bond_formation_distance" toml:"bond_formation_distance"`
	BondLengthFactor      float64 `json:"bond_length_factor" toml:"bond_length_factor"`
	BreakFactor           float64 `json:"break_factor" toml:"break_factor"`
	FormingTicks          int     `json:"forming_ticks" toml:"forming_ticks"`
	CooldownTicks         int     `json:"cooldown_ticks" toml:"cooldown_ticks"`

	// Bond preference heuristics
	PreferenceRadius float64          `json:"preference_radius" toml:"preference_radius"`
	PreferenceRules  []PreferenceRule `json:"preference_rules" toml:"preference_rules"`

	// Energy model
	MaxHeatEnergy          float64 `json:"max_heat_energy" toml:"max_heat_energy"`
	HeatEpsilon            float64 `json:"heat_epsilon" toml:"heat_epsilon"`
	KineticScale           float64 `json:"kinetic_scale" toml:"kinetic_scale"`
	VelocityNudge          float64 `json:"velocity_nudge" toml:"velocity_nudge"`
	BaseTemperature        float64 `json:"base_temperature" toml:"base_temperature"`
	TemperatureCoefficient float64 `json:"temperature_coefficient" toml:"temperature_coefficient"`

	// Molecule aggregation
	AggregateMassScale float64 `json:"aggregate_mass_scale" toml:"aggregate_mass_scale"`

	// Reaction orchestrator
	ReactionThreshold float64 `json:"reaction_threshold" toml:"reaction_threshold"`
	ReactionInterval  int     `json:"reaction_interval" toml:"reaction_interval"`
	ProximityRadius   float64 `json:"proximity_radius" toml:"proximity_radius"`
	PositioningTicks  int     `json:"positioning_ticks" toml:"positioning_ticks"`

	Mode ModeConfig `json:"mode" toml:"mode"`
}

// DefaultConfig returns the engine defaults. Preference rules bias
// hydrogen away from a second hydrogen whenever an atom that wants it
// more sits within the look-around radius.
func DefaultConfig() Config {
	return Config{
		BondFormationDistance: 2.5,
		BondLengthFactor:      1.2,
		BreakFactor:           1.8,
		FormingTicks:          30,
		CooldownTicks:         20,

		PreferenceRadius: 5,
		PreferenceRules: []PreferenceRule{
			{PairA: 1, PairB: 1, Better: 8},
			{PairA: 1, PairB: 1, Better: 7},
			{PairA: 1, PairB: 1, Better: 17},
		},

		MaxHeatEnergy:          100,
		HeatEpsilon:            0.01,
		KineticScale:           0.1,
		VelocityNudge:          0.05,
		BaseTemperature:        293.15,
		TemperatureCoefficient: 2.5,

		AggregateMassScale: 1.0,

		ReactionThreshold: 10,
		ReactionInterval:  30,
		ProximityRadius:   8,
		PositioningTicks:  15,

		Mode: ModeConfig{
			Name:          "normal",
			Damping:       0.995,
			DecayRate:     0.98,
			MaxVelocity:   15,
			AutoReactions: true,
		},
	}
}
