package influence

import "fmt"

// Config holds the tunable parameters of the inference loop.
type Config struct {
	// Damping blends each message update with the previous value:
	// new = (1-Damping)*update + Damping*old. Higher values smooth
	// oscillation at the cost of slower convergence.
	Damping float64

	// MaxIterations caps the inference loop. Reaching the cap is not an
	// error; the model reports it through Converged.
	MaxIterations int

	// Patience is the number of consecutive convergence checks with an
	// unchanged exemplar assignment required before the loop stops.
	Patience int

	// SelfAffinity weighs a node's case for being its own exemplar. Larger
	// values make nodes harder to influence.
	SelfAffinity float64
}

// DefaultConfig returns the default engine parameters.
func DefaultConfig() Config {
	return Config{
		Damping:       0.5,
		MaxIterations: 1000,
		Patience:      3,
		SelfAffinity:  1.0,
	}
}

// Validate reports whether the parameters are usable.
func (c Config) Validate() error {
	if c.Damping < 0 || c.Damping >= 1 {
		return fmt.Errorf("%w: damping must be in [0,1), got %v", ErrConfiguration, c.Damping)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("%w: max iterations must be positive, got %d", ErrConfiguration, c.MaxIterations)
	}
	if c.Patience <= 0 {
		return fmt.Errorf("%w: patience must be positive, got %d", ErrConfiguration, c.Patience)
	}
	if c.SelfAffinity <= 0 {
		return fmt.Errorf("%w: self affinity must be positive, got %v", ErrConfiguration, c.SelfAffinity)
	}
	return nil
}
