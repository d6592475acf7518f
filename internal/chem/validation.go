package chem

import (
	"fmt"
	"strings"
)

// ValidationError collects multiple validation issues
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "invalid config: unknown validation error"
	}
	if len(e.Issues) == 1 {
		return e.Issues[0]
	}
	return "config validation errors: " + strings.Join(e.Issues, "; ")
}

func (e *ValidationError) Add(issue string) {
	e.Issues = append(e.Issues, issue)
}

func (e *ValidationError) HasIssues() bool {
	return len(e.Issues) > 0
}

// Validate performs comprehensive validation of a Config.
// Returns a *ValidationError listing every issue, or nil.
func (c Config) Validate() error {
	err := &ValidationError{}

	if c.BondFormationDistance <= 0 {
		err.Add("bond_formation_distance must be positive")
	}
	if c.BondLengthFactor <= 0 {
		err.Add("bond_length_factor must be positive")
	}
	if c.BreakFactor <= 1 {
		err.Add("break_factor must be greater than 1")
	}
	if c.FormingTicks <= 0 {
		err.Add("forming_ticks must be positive")
	}
	if c.CooldownTicks < 0 {
		err.Add("cooldown_ticks cannot be negative")
	}
	if c.PreferenceRadius <= 0 {
		err.Add("preference_radius must be positive")
	}
	for i, rule := range c.PreferenceRules {
		prefix := fmt.Sprintf("preference rule at index %d", i)
		if rule.PairA <= 0 || rule.PairB <= 0 {
			err.Add(prefix + ": pair atomic numbers must be positive")
		}
		if rule.Better <= 0 {
			err.Add(prefix + ": better atomic number must be positive")
		}
		if rule.Radius < 0 {
			err.Add(prefix + ": radius cannot be negative")
		}
	}
	if c.MaxHeatEnergy <= 0 {
		err.Add("max_heat_energy must be positive")
	}
	if c.HeatEpsilon < 0 {
		err.Add("heat_epsilon cannot be negative")
	}
	if c.KineticScale < 0 {
		err.Add("kinetic_scale cannot be negative")
	}
	if c.AggregateMassScale <= 0 {
		err.Add("aggregate_mass_scale must be positive")
	}
	if c.ReactionThreshold < 0 {
		err.Add("reaction_threshold cannot be negative")
	}
	if c.ReactionInterval <= 0 {
		err.Add("reaction_interval must be positive")
	}
	if c.ProximityRadius <= 0 {
		err.Add("proximity_radius must be positive")
	}
	if c.PositioningTicks <= 0 {
		err.Add("positioning_ticks must be positive")
	}
	validateMode(c.Mode, err)

	if err.HasIssues() {
		return err
	}
	return nil
}

func validateMode(m ModeConfig, err *ValidationError) {
	if m.Damping <= 0 || m.Damping > 1 {
		err.Add("mode damping must be in (0, 1]")
	}
	if m.DecayRate < 0 || m.DecayRate >= 1 {
		err.Add("mode decay_rate must be in [0, 1)")
	}
	if m.MaxVelocity <= 0 {
		err.Add("mode max_velocity must be positive")
	}
}
