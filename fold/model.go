package fold

// Model holds the immutable model settings that every folding call depends
// on. A Model value is threaded explicitly through the program instead of
// living in mutable package state, so two records can never observe each
// other's settings.
type Model struct {
	// Temperature in degree Celsius used to derive free energies.
	Temperature float64
	// Dangles selects the dangling end treatment (0..3). The partition
	// function only supports even settings; odd settings are handled by the
	// caller via a reference energy (see RescaleBoltzmann).
	Dangles int
	// Circular marks the sequence as circular RNA.
	Circular bool
	// NoLonelyPairs penalizes isolated base pairs.
	NoLonelyPairs bool
	// GQuad enables G-quadruplex support in the model. It selects the
	// sequence-aware MEA variant downstream.
	GQuad bool
	// ComputeBPP controls base pair probability computation:
	// 0 none, 1 pair probabilities, 2 additionally stack probabilities.
	ComputeBPP int
}

// DefaultModel returns the model settings used when the caller does not
// override anything.
func DefaultModel() Model {
	return Model{
		Temperature: 37.0,
		Dangles:     2,
		ComputeBPP:  1,
	}
}

const (
	// celsiusToKelvin converts the model temperature for thermodynamics.
	celsiusToKelvin = 273.15
	// gasConstant is R in kcal/(mol*K).
	gasConstant = 1.9872e-3
)

// RT returns the thermal energy of the model in kcal/mol.
func (md Model) RT() float64 {
	return gasConstant * (md.Temperature + celsiusToKelvin)
}

// EnergyInfeasible is the reserved sentinel energy reported when hard
// constraints leave an empty solution set.
const EnergyInfeasible = 1e5
