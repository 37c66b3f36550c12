package dpm

import (
	"fmt"
	"math"

	"bitbucket.org/Davydov/phydpm/optimize"
)

// Initial partitions.
const (
	// InitSingletons puts every element into its own cluster.
	InitSingletons = "singletons"
	// InitSingle puts all the elements into one cluster.
	InitSingle = "single"
)

// Concentration priors.
const (
	// PriorGamma is the gamma prior with AlphaShape and AlphaScale.
	PriorGamma = "gamma"
	// PriorExponential is the exponential prior with mean
	// AlphaScale.
	PriorExponential = "exponential"
)

// Config holds the sampler settings.
type Config struct {
	// Alpha is the Dirichlet process concentration.
	Alpha float64
	// Budget is the maximum number of terms of cluster
	// polynomials.
	Budget int
	// MotifLength is the number of columns per element.
	MotifLength int
	// Iterations is the number of sweeps.
	Iterations int
	// Seed initializes the random generator.
	Seed int64
	// Init is the initial partition.
	Init string
	// Pseudocounts are the Dirichlet prior parameters of the symbol
	// distribution of a motif position. Nil means one per symbol.
	Pseudocounts []float64
	// SampleAlpha enables Metropolis-Hastings updates of Alpha.
	SampleAlpha bool
	AlphaPrior  string
	AlphaShape  float64
	AlphaScale  float64
	// Workers limits the number of goroutines computing column
	// polynomials; <= 0 means all the processors.
	Workers int
}

// DefaultConfig returns the default settings.
func DefaultConfig() Config {
	return Config{
		Alpha:       1,
		Budget:      100,
		MotifLength: 10,
		Iterations:  100,
		Seed:        1,
		Init:        InitSingletons,
		AlphaPrior:  PriorGamma,
		AlphaShape:  1,
		AlphaScale:  1,
	}
}

// ConfigError is an invalid sampler setting.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid sampling configuration: %s %s", e.Field, e.Reason)
}

func configError(field, format string, args ...interface{}) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// pseudocounts returns the prior parameters for the alphabet.
func (c *Config) pseudocounts(alphabet int) []float64 {
	if c.Pseudocounts != nil {
		return c.Pseudocounts
	}
	pc := make([]float64, alphabet)
	for i := range pc {
		pc[i] = 1
	}
	return pc
}

// Validate checks the settings for data with the given alphabet size
// and the shortest alignment width.
func (c *Config) Validate(alphabet, width int) error {
	switch {
	case !(c.Alpha > 0):
		return configError("alpha", "should be positive, got %v", c.Alpha)
	case c.Budget < 1:
		return configError("budget", "should be at least 1, got %d", c.Budget)
	case c.MotifLength < 1:
		return configError("motif length", "should be at least 1, got %d", c.MotifLength)
	case c.MotifLength > width:
		return configError("motif length", "%d exceeds alignment width %d", c.MotifLength, width)
	case c.Iterations < 0:
		return configError("iterations", "should be non-negative, got %d", c.Iterations)
	case c.Init != InitSingletons && c.Init != InitSingle:
		return configError("init", "should be %s or %s, got %q", InitSingletons, InitSingle, c.Init)
	}
	if c.Pseudocounts != nil {
		if len(c.Pseudocounts) != alphabet {
			return configError("pseudocounts", "expected %d values, got %d", alphabet, len(c.Pseudocounts))
		}
		for _, a := range c.Pseudocounts {
			if !(a > 0) {
				return configError("pseudocounts", "should be positive, got %v", c.Pseudocounts)
			}
		}
	}
	if c.SampleAlpha {
		switch {
		case c.AlphaPrior != PriorGamma && c.AlphaPrior != PriorExponential:
			return configError("alpha prior", "should be %s or %s, got %q", PriorGamma, PriorExponential, c.AlphaPrior)
		case !(c.AlphaScale > 0):
			return configError("alpha prior", "scale should be positive, got %v", c.AlphaScale)
		case c.AlphaPrior == PriorGamma && !(c.AlphaShape > 0):
			return configError("alpha prior", "shape should be positive, got %v", c.AlphaShape)
		}
	}
	return nil
}

// alphaPrior returns the log-prior of the concentration and the
// proposal width, half of the prior mean but at least 0.1.
func (c *Config) alphaPrior() (func(float64) float64, float64) {
	if c.AlphaPrior == PriorExponential {
		return optimize.ExponentialPrior(1/c.AlphaScale, false), math.Max(0.1, c.AlphaScale/2)
	}
	return optimize.GammaPrior(c.AlphaShape, c.AlphaScale, false), math.Max(0.1, c.AlphaShape*c.AlphaScale/2)
}
