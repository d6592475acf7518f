package chem

import (
	"strings"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("Expected default config to validate, got %v", err)
	}
}

func TestConfigValidate_CollectsIssues(t *testing.T) {
	var cfg Config
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Expected validation errors for zero config")
	}
	verr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("Expected *ValidationError, got %T", err)
	}
	if len(verr.Issues) < 5 {
		t.Errorf("Expected multiple issues, got %d", len(verr.Issues))
	}
	msg := err.Error()
	for _, want := range []string{"bond_formation_distance", "max_heat_energy", "mode max_velocity"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Expected error message to mention %q, got %q", want, msg)
		}
	}
}

func TestConfigValidate_PreferenceRules(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PreferenceRules = append(cfg.PreferenceRules, PreferenceRule{PairA: 0, PairB: 1, Better: -1, Radius: -2})
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Expected validation error for malformed rule")
	}
	if !strings.Contains(err.Error(), "preference rule at index 3") {
		t.Errorf("Expected rule index in message, got %q", err.Error())
	}
}

func TestPreferenceRule_Matches(t *testing.T) {
	rule := PreferenceRule{PairA: 1, PairB: 8, Better: 7}
	if !rule.Matches(1, 8) || !rule.Matches(8, 1) {
		t.Error("Expected rule to match the unordered pair")
	}
	if rule.Matches(1, 1) {
		t.Error("Expected rule not to match a different pair")
	}
}

func TestWorld_SetMode(t *testing.T) {
	w := NewWorld(DefaultConfig())

	calm := ModeConfig{Name: "calm", Damping: 0.9, DecayRate: 0.95, MaxVelocity: 5, AutoReactions: false}
	if err := w.SetMode(calm); err != nil {
		t.Fatalf("Expected mode swap to succeed, got %v", err)
	}
	if w.Config().Mode.Name != "calm" {
		t.Errorf("Expected mode 'calm', got %q", w.Config().Mode.Name)
	}
	if w.AutoReactionsEnabled() {
		t.Error("Expected auto reactions off after mode swap")
	}

	bad := ModeConfig{Name: "bad", Damping: 2, DecayRate: 1.5, MaxVelocity: 0}
	if err := w.SetMode(bad); err == nil {
		t.Error("Expected invalid mode to be rejected")
	}
	if w.Config().Mode.Name != "calm" {
		t.Error("Expected rejected mode to leave the active mode untouched")
	}
}

func TestWorld_ToggleAutoReactions(t *testing.T) {
	w := NewWorld(DefaultConfig())
	initial := w.AutoReactionsEnabled()
	if got := w.ToggleAutoReactions(); got == initial {
		t.Error("Expected toggle to flip the state")
	}
	if got := w.ToggleAutoReactions(); got != initial {
		t.Error("Expected second toggle to restore the state")
	}
}
