package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PendingTokensFunc reports how many login tokens are waiting in the store,
// split into still redeemable (active) and past expiry (expired).
type PendingTokensFunc func(ctx context.Context) (active, expired int64, err error)

// RegisterPendingTokensGauge exposes <namespace>_login_tokens_pending with a
// state label of "active" or "expired". The callback runs on every scrape; when
// it fails the observation is skipped for that scrape.
func RegisterPendingTokensGauge(
	meterProvider metric.MeterProvider,
	namespace string,
	pending PendingTokensFunc,
) (metric.Registration, error) {
	meter := meterProvider.Meter(namespace)

	gauge, err := meter.Int64ObservableGauge(
		fmt.Sprintf("%s_login_tokens_pending", namespace),
		metric.WithDescription("Login tokens currently held by the token store"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create pending tokens gauge: %w", err)
	}

	registration, err := meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		active, expired, err := pending(ctx)
		if err != nil {
			return nil
		}
		o.ObserveInt64(gauge, active, metric.WithAttributes(attribute.String("state", "active")))
		o.ObserveInt64(gauge, expired, metric.WithAttributes(attribute.String("state", "expired")))
		return nil
	}, gauge)
	if err != nil {
		return nil, fmt.Errorf("failed to register pending tokens callback: %w", err)
	}

	return registration, nil
}
