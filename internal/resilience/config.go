package resilience

import (
	"time"
)

// FromCircuitConfig converts config values to a CircuitBreakerConfig. A
// non-positive failureThreshold yields a zero threshold, which disables the
// breaker; a non-positive reset keeps the default.
func FromCircuitConfig(failureThreshold, resetTimeoutSecs int) CircuitBreakerConfig {
	cfg := DefaultCircuitBreakerConfig()
	cfg.FailureThreshold = 0
	if failureThreshold > 0 {
		cfg.FailureThreshold = failureThreshold
	}
	if resetTimeoutSecs > 0 {
		cfg.ResetTimeout = time.Duration(resetTimeoutSecs) * time.Second
	}
	return cfg
}
