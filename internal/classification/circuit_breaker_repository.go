package classification

import (
	"context"

	"riskgrade/internal/config"
	"riskgrade/pkg/circuitbreaker"
	"riskgrade/pkg/threshold"
)

// CircuitBreakerRepository shields rule loading from a flapping store.
// While the breaker is open, reloads fail fast and the service keeps
// its last good rule set.
type CircuitBreakerRepository struct {
	inner Repository
	cb    *circuitbreaker.Wrapper
}

func NewCircuitBreakerRepository(inner Repository, cfg config.CircuitBreakerConfig) *CircuitBreakerRepository {
	cbConfig := circuitbreaker.DefaultConfig("classification-rules")

	if cfg.MaxRequests > 0 {
		cbConfig.MaxRequests = cfg.MaxRequests
	}
	if cfg.Interval > 0 {
		cbConfig.Interval = cfg.Interval
	}
	if cfg.Timeout > 0 {
		cbConfig.Timeout = cfg.Timeout
	}

	return &CircuitBreakerRepository{
		inner: inner,
		cb:    circuitbreaker.NewWrapper(cbConfig),
	}
}

func (r *CircuitBreakerRepository) GetRuleSet(ctx context.Context) (*threshold.RuleSet, error) {
	result, err := r.cb.Execute(ctx, func() (interface{}, error) {
		return r.inner.GetRuleSet(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.(*threshold.RuleSet), nil
}
