package usecase

import (
	"context"
	"time"

	"github.com/allisson/autologin/internal/autologin/domain"
	"github.com/allisson/autologin/internal/metrics"
)

const metricsDomain = "autologin"

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// tokenIssuerWithMetrics decorates TokenIssuer with metrics instrumentation.
type tokenIssuerWithMetrics struct {
	next    TokenIssuer
	metrics metrics.BusinessMetrics
}

// NewTokenIssuerWithMetrics wraps a TokenIssuer with metrics recording.
func NewTokenIssuerWithMetrics(issuer TokenIssuer, m metrics.BusinessMetrics) TokenIssuer {
	return &tokenIssuerWithMetrics{next: issuer, metrics: m}
}

func (t *tokenIssuerWithMetrics) Issue(
	ctx context.Context,
	input *domain.IssueTokenInput,
) (*domain.IssueTokenOutput, error) {
	start := time.Now()
	output, err := t.next.Issue(ctx, input)

	status := statusOf(err)
	t.metrics.RecordOperation(ctx, metricsDomain, "token_issue", status)
	t.metrics.RecordDuration(ctx, metricsDomain, "token_issue", time.Since(start), status)

	return output, err
}

// tokenValidatorWithMetrics decorates TokenValidator. An invalid token is a
// successful validation; only store failures count as errors.
type tokenValidatorWithMetrics struct {
	next    TokenValidator
	metrics metrics.BusinessMetrics
}

// NewTokenValidatorWithMetrics wraps a TokenValidator with metrics recording.
func NewTokenValidatorWithMetrics(validator TokenValidator, m metrics.BusinessMetrics) TokenValidator {
	return &tokenValidatorWithMetrics{next: validator, metrics: m}
}

func (t *tokenValidatorWithMetrics) Validate(
	ctx context.Context,
	plainToken string,
) (*domain.ValidationResult, error) {
	start := time.Now()
	result, err := t.next.Validate(ctx, plainToken)

	status := statusOf(err)
	t.metrics.RecordOperation(ctx, metricsDomain, "token_validate", status)
	t.metrics.RecordDuration(ctx, metricsDomain, "token_validate", time.Since(start), status)

	return result, err
}

// sessionRedeemerWithMetrics decorates SessionRedeemer with metrics instrumentation.
type sessionRedeemerWithMetrics struct {
	next    SessionRedeemer
	metrics metrics.BusinessMetrics
}

// NewSessionRedeemerWithMetrics wraps a SessionRedeemer with metrics recording.
func NewSessionRedeemerWithMetrics(redeemer SessionRedeemer, m metrics.BusinessMetrics) SessionRedeemer {
	return &sessionRedeemerWithMetrics{next: redeemer, metrics: m}
}

func (s *sessionRedeemerWithMetrics) Redeem(
	ctx context.Context,
	input *domain.RedeemInput,
) (*domain.RedeemOutput, error) {
	start := time.Now()
	output, err := s.next.Redeem(ctx, input)

	status := statusOf(err)
	s.metrics.RecordOperation(ctx, metricsDomain, "token_redeem", status)
	s.metrics.RecordDuration(ctx, metricsDomain, "token_redeem", time.Since(start), status)
	s.metrics.RecordRedemption(ctx, string(domain.OutcomeOf(err)))

	return output, err
}

// expiryReaperWithMetrics decorates ExpiryReaper with metrics instrumentation.
type expiryReaperWithMetrics struct {
	next    ExpiryReaper
	metrics metrics.BusinessMetrics
}

// NewExpiryReaperWithMetrics wraps an ExpiryReaper with metrics recording.
func NewExpiryReaperWithMetrics(reaper ExpiryReaper, m metrics.BusinessMetrics) ExpiryReaper {
	return &expiryReaperWithMetrics{next: reaper, metrics: m}
}

func (e *expiryReaperWithMetrics) Sweep(ctx context.Context) (int64, error) {
	start := time.Now()
	count, err := e.next.Sweep(ctx)

	status := statusOf(err)
	e.metrics.RecordOperation(ctx, metricsDomain, "token_sweep", status)
	e.metrics.RecordDuration(ctx, metricsDomain, "token_sweep", time.Since(start), status)

	return count, err
}

func (e *expiryReaperWithMetrics) CountExpired(ctx context.Context) (int64, error) {
	start := time.Now()
	count, err := e.next.CountExpired(ctx)

	status := statusOf(err)
	e.metrics.RecordOperation(ctx, metricsDomain, "token_count_expired", status)
	e.metrics.RecordDuration(ctx, metricsDomain, "token_count_expired", time.Since(start), status)

	return count, err
}

func (e *expiryReaperWithMetrics) Stats(ctx context.Context) (*domain.TokenStats, error) {
	start := time.Now()
	stats, err := e.next.Stats(ctx)

	status := statusOf(err)
	e.metrics.RecordOperation(ctx, metricsDomain, "token_stats", status)
	e.metrics.RecordDuration(ctx, metricsDomain, "token_stats", time.Since(start), status)

	return stats, err
}
