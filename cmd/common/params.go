package common

import (
	"time"

	"github.com/GiGurra/boa/pkg/boa"
)

// DefaultParamEnricher derives flag names, short flags and bool defaults from
// the Params struct fields of every command.
func DefaultParamEnricher() boa.ParamEnricher {
	return boa.ParamEnricherCombine(
		boa.ParamEnricherBool,
		boa.ParamEnricherName,
		boa.ParamEnricherShort,
	)
}

// Millis converts a millisecond flag value. Non-positive values give 0 so
// callers fall back to their defaults.
func Millis(ms int) time.Duration {
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}
