package layout

import (
	"math"

	"github.com/matzehuels/forcegraph/pkg/errors"
)

// Default simulation parameters.
const (
	DefaultAlphaMin      = 0.001
	DefaultAlphaDecay    = 0.0228
	DefaultVelocityDecay = 0.4
	DefaultLinkDistance  = 30.0
)

// Params configures a simulation. The zero value is not usable; start from
// [DefaultParams].
type Params struct {
	// AlphaMin is the temperature at which the cooling schedule ends.
	AlphaMin float64 `toml:"alpha_min" json:"alpha_min"`

	// AlphaDecay is the fraction of the distance to AlphaTarget that alpha
	// covers each tick.
	AlphaDecay float64 `toml:"alpha_decay" json:"alpha_decay"`

	// AlphaTarget is the temperature alpha decays toward. Default 0.
	AlphaTarget float64 `toml:"alpha_target" json:"alpha_target"`

	// VelocityDecay is the fraction of velocity lost each tick.
	VelocityDecay float64 `toml:"velocity_decay" json:"velocity_decay"`

	// LinkDistance is the rest length of every edge spring.
	LinkDistance float64 `toml:"link_distance" json:"link_distance"`

	// LinkIterations is how many times per tick the link constraint is
	// applied. Default 1.
	LinkIterations int `toml:"link_iterations" json:"link_iterations"`

	// Charge enables many-body repulsion when non-nil.
	Charge *Charge `toml:"charge" json:"charge,omitempty"`

	// Center enables the centering force when non-nil.
	Center *Center `toml:"center" json:"center,omitempty"`
}

// Charge is a many-body force between every pair of nodes. Negative
// strength repels.
type Charge struct {
	Strength float64 `toml:"strength" json:"strength"`

	// DistanceMin bounds the force for nearly coincident nodes.
	DistanceMin float64 `toml:"distance_min" json:"distance_min"`

	// DistanceMax ignores pairs farther apart. Zero means unbounded.
	DistanceMax float64 `toml:"distance_max" json:"distance_max"`
}

// Center shifts all nodes each tick so their mean moves toward (X, Y).
type Center struct {
	X        float64 `toml:"x" json:"x"`
	Y        float64 `toml:"y" json:"y"`
	Strength float64 `toml:"strength" json:"strength"`
}

// DefaultParams returns the link-only configuration.
func DefaultParams() Params {
	return Params{
		AlphaMin:       DefaultAlphaMin,
		AlphaDecay:     DefaultAlphaDecay,
		VelocityDecay:  DefaultVelocityDecay,
		LinkDistance:   DefaultLinkDistance,
		LinkIterations: 1,
	}
}

// DefaultCharge returns the repulsion settings used when charge is switched
// on without explicit values.
func DefaultCharge() *Charge {
	return &Charge{Strength: -80, DistanceMin: 6}
}

// CenterAt returns a full-strength centering force at (x, y).
func CenterAt(x, y float64) *Center {
	return &Center{X: x, Y: y, Strength: 1}
}

// Validate checks that p describes a runnable simulation.
func (p Params) Validate() error {
	if _, err := Iterations(p.AlphaMin, p.AlphaDecay); err != nil {
		return err
	}
	if !finite(p.AlphaTarget) || p.AlphaTarget < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "alpha target must be a non-negative number, got %v", p.AlphaTarget)
	}
	if !finite(p.VelocityDecay) || p.VelocityDecay < 0 || p.VelocityDecay > 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "velocity decay must be in [0,1], got %v", p.VelocityDecay)
	}
	if !finite(p.LinkDistance) || p.LinkDistance < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "link distance must be a non-negative number, got %v", p.LinkDistance)
	}
	if p.LinkIterations < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "link iterations must be at least 1, got %d", p.LinkIterations)
	}
	if c := p.Charge; c != nil {
		if !finite(c.Strength) || !finite(c.DistanceMin) || !finite(c.DistanceMax) {
			return errors.New(errors.ErrCodeInvalidConfig, "charge values must be finite")
		}
		if c.DistanceMin < 0 || c.DistanceMax < 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "charge distances must be non-negative")
		}
		if c.DistanceMax > 0 && c.DistanceMax <= c.DistanceMin {
			return errors.New(errors.ErrCodeInvalidConfig, "charge distance max %v must exceed distance min %v", c.DistanceMax, c.DistanceMin)
		}
	}
	if c := p.Center; c != nil && (!finite(c.X) || !finite(c.Y) || !finite(c.Strength)) {
		return errors.New(errors.ErrCodeInvalidConfig, "center values must be finite")
	}
	return nil
}

// MaxIterations caps the tick count of a cooling schedule.
const MaxIterations = 1_000_000

// Iterations returns the fixed tick count of the cooling schedule,
// ceil(log(alphaMin)/log(1-alphaDecay)). Both arguments must lie strictly
// between 0 and 1, and the count may not exceed [MaxIterations]. A decay
// too small to move 1-alphaDecay off 1.0 is rejected with it.
func Iterations(alphaMin, alphaDecay float64) (int, error) {
	if !(alphaMin > 0 && alphaMin < 1) {
		return 0, errors.New(errors.ErrCodeInvalidConfig, "alpha min must be in (0,1), got %v", alphaMin)
	}
	if !(alphaDecay > 0 && alphaDecay < 1) {
		return 0, errors.New(errors.ErrCodeInvalidConfig, "alpha decay must be in (0,1), got %v", alphaDecay)
	}
	n := math.Ceil(math.Log(alphaMin) / math.Log(1-alphaDecay))
	if !finite(n) || n > MaxIterations {
		return 0, errors.New(errors.ErrCodeInvalidConfig, "alpha min %v and decay %v need more than %d ticks", alphaMin, alphaDecay, MaxIterations)
	}
	return int(n), nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
