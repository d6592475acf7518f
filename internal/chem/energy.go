package chem

// EnergyModel tracks the transient heat scalar. The derived system
// energy additionally folds in the kinetic energy of the free bodies,
// which the owning World supplies since only it can enumerate them.
type EnergyModel struct {
	heat         float64
	maxHeat      float64
	epsilon      float64
	kineticScale float64
	baseTemp     float64
	tempCoeff    float64
}

// NewEnergyModel builds the model from the engine config.
func NewEnergyModel(cfg *Config) EnergyModel {
	return EnergyModel{
		maxHeat:      cfg.MaxHeatEnergy,
		epsilon:      cfg.HeatEpsilon,
		kineticScale: cfg.KineticScale,
		baseTemp:     cfg.BaseTemperature,
		tempCoeff:    cfg.TemperatureCoefficient,
	}
}

// Heat returns the current transient heat energy, always >= 0.
func (m *EnergyModel) Heat() float64 {
	return m.heat
}

// Add injects heat, clamped to the configured maximum. Returns the
// amount actually absorbed.
func (m *EnergyModel) Add(amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	before := m.heat
	m.heat += amount
	if m.heat > m.maxHeat {
		m.heat = m.maxHeat
	}
	return m.heat - before
}

// Decay applies one tick of multiplicative decay and snaps tiny
// residues to zero so the heat settles instead of trailing forever.
func (m *EnergyModel) Decay(rate float64) {
	m.heat *= rate
	if m.heat < m.epsilon {
		m.heat = 0
	}
}

// Consume deducts a reaction or bonding cost, floored at zero.
func (m *EnergyModel) Consume(amount float64) {
	m.heat -= amount
	if m.heat < 0 {
		m.heat = 0
	}
}

// Reset drops the transient heat to zero.
func (m *EnergyModel) Reset() {
	m.heat = 0
}

// SystemEnergy derives the total energy available for bonding from
// the heat plus the scaled kinetic energy of the free bodies.
func (m *EnergyModel) SystemEnergy(kinetic float64) float64 {
	return m.heat + kinetic*m.kineticScale
}

// Temperature is a display-only derived value.
func (m *EnergyModel) Temperature() float64 {
	return m.baseTemp + m.heat*m.tempCoeff
}
