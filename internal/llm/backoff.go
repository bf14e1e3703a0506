package llm

import (
	"math"
	"math/rand"
	"time"
)

// Policy is an exponential backoff schedule.
type Policy struct {
	Initial    time.Duration `yaml:"initial"`
	Max        time.Duration `yaml:"max"`
	Multiplier float64       `yaml:"multiplier"`
	// Jitter is a fraction in [0,1]; the delay varies by ±Jitter of itself.
	Jitter float64 `yaml:"jitter"`
}

// DefaultPolicy doubles from one second up to eight: 1s, 2s, 4s, 8s.
func DefaultPolicy() Policy {
	return Policy{
		Initial:    time.Second,
		Max:        8 * time.Second,
		Multiplier: 2,
		Jitter:     0.2,
	}
}

// Delay returns the wait before retry number attempt (0-based).
func (p Policy) Delay(attempt int) time.Duration {
	return p.delay(attempt, rand.Float64)
}

func (p Policy) delay(attempt int, random func() float64) time.Duration {
	if p.Initial <= 0 {
		return 0
	}
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	d := float64(p.Initial) * math.Pow(mult, float64(attempt))
	if p.Max > 0 && d > float64(p.Max) {
		d = float64(p.Max)
	}
	if j := math.Min(math.Max(p.Jitter, 0), 1); j > 0 {
		d += d * j * (2*random() - 1)
	}
	return time.Duration(d)
}
