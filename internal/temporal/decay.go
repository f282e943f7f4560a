package temporal

import "math"

type DecayMethod string

const (
	DecayExponential DecayMethod = "exponential"
	DecayLinear      DecayMethod = "linear"
	DecayHyperbolic  DecayMethod = "hyperbolic"
)

// Decay maps information age in days to a multiplier in [0,1], with
// age 0 always mapping to 1.
type Decay struct {
	HalfLifeDays float64
	MaxAgeDays   float64
	Alpha        float64
}

func NewDecay() *Decay {
	return &Decay{
		HalfLifeDays: 90,
		MaxAgeDays:   365,
		Alpha:        0.01,
	}
}

// Exponential computes 0.5^(age/halfLife).
func (d *Decay) Exponential(ageDays float64) float64 {
	if d.HalfLifeDays <= 0 {
		return 0
	}
	lambda := math.Ln2 / d.HalfLifeDays
	return math.Exp(-lambda * math.Max(ageDays, 0))
}

// Linear computes max(0, 1 - age/maxAge).
func (d *Decay) Linear(ageDays float64) float64 {
	if d.MaxAgeDays <= 0 {
		return 0
	}
	return math.Max(0, 1-ageDays/d.MaxAgeDays)
}

// Hyperbolic computes 1 / (1 + alpha*age).
func (d *Decay) Hyperbolic(ageDays float64) float64 {
	return 1 / (1 + d.Alpha*math.Max(ageDays, 0))
}

func (d *Decay) Factor(ageDays float64, method DecayMethod) float64 {
	switch method {
	case DecayLinear:
		return d.Linear(ageDays)
	case DecayHyperbolic:
		return d.Hyperbolic(ageDays)
	default:
		return d.Exponential(ageDays)
	}
}

func (d *Decay) WeightedScore(base, ageDays float64, method DecayMethod) float64 {
	return base * d.Factor(ageDays, method)
}
