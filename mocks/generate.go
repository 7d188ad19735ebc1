package mocks

//go:generate mockgen -destination=./mock_provider.go -package=mocks github.com/rxtech-lab/argo-backtest/pkg/marketdata/provider Provider
//go:generate mockgen -destination=./mock_policy.go -package=mocks github.com/rxtech-lab/argo-backtest/internal/strategy Policy
//go:generate mockgen -destination=./mock_analytics_provider.go -package=mocks github.com/rxtech-lab/argo-backtest/internal/pair AnalyticsProvider
//go:generate mockgen -destination=./mock_profile_store.go -package=mocks github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1/commission_fee ProfileStore
