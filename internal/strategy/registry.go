package strategy

import (
	"slices"
	"sync"

	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// Registry maps strategy IDs to factories.
type Registry interface {
	Register(id StrategyID, factory Factory) error
	Build(id StrategyID, params Parameters, ctx BuildContext) (Policy, error)
	List() []StrategyID
	Remove(id StrategyID) error
}

type RegistryV1 struct {
	factories map[StrategyID]Factory
	mu        sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() Registry {
	return &RegistryV1{
		factories: make(map[StrategyID]Factory),
		mu:        sync.RWMutex{},
	}
}

// NewDefaultRegistry creates a registry with every built-in strategy.
func NewDefaultRegistry() Registry {
	registry := NewRegistry()

	builtins := map[StrategyID]Factory{
		StrategyBuyHold:           NewBuyHold,
		StrategySmaCrossover:      NewSmaCrossover,
		StrategyRSI:               NewRSI,
		StrategyMACD:              NewMACD,
		StrategyBollingerBands:    NewBollingerBands,
		StrategyMonthlySeasonal:   NewMonthlySeasonal,
		StrategyMomentumBreakout:  NewMomentumBreakout,
		StrategyPairMeanReversion: NewPairMeanReversion,
		StrategyRatioTrading:      NewRatioTrading,
	}

	for id, factory := range builtins {
		// ids are unique so registration cannot fail
		_ = registry.Register(id, factory)
	}

	return registry
}

func (r *RegistryV1) Register(id StrategyID, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[id]; exists {
		return errors.Newf(errors.ErrCodeStrategyConfigError, "strategy %s already registered", id)
	}

	r.factories[id] = factory

	return nil
}

// Build validates the parameters and builds the policy.
func (r *RegistryV1) Build(id StrategyID, params Parameters, ctx BuildContext) (Policy, error) {
	r.mu.RLock()
	factory, exists := r.factories[id]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.Newf(errors.ErrCodeUnsupportedStrategy, "strategy %s not found", id)
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}

	return factory(params, ctx)
}

// List returns the registered IDs in sorted order.
func (r *RegistryV1) List() []StrategyID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]StrategyID, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	return ids
}

func (r *RegistryV1) Remove(id StrategyID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[id]; !exists {
		return errors.Newf(errors.ErrCodeUnsupportedStrategy, "strategy %s not found", id)
	}

	delete(r.factories, id)

	return nil
}
