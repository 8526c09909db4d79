// Package observability provides a metrics extension for Premium that records
// lifecycle event counts via go-utils MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/xraph/premium/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin             = (*MetricsExtension)(nil)
	_ plugin.OnInit             = (*MetricsExtension)(nil)
	_ plugin.OnUpgraded         = (*MetricsExtension)(nil)
	_ plugin.OnDowngraded       = (*MetricsExtension)(nil)
	_ plugin.OnExpired          = (*MetricsExtension)(nil)
	_ plugin.OnCodeRedeemed     = (*MetricsExtension)(nil)
	_ plugin.OnGiftCodeCreated  = (*MetricsExtension)(nil)
	_ plugin.OnGiftCodeDisabled = (*MetricsExtension)(nil)
	_ plugin.OnSweepCompleted   = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Premium plugin to automatically track entitlement metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Tier metrics
	UserUpgraded   Counter
	UserDowngraded Counter
	UserExpired    Counter

	// Gift code metrics
	CodeCreated  Counter
	CodeRedeemed Counter
	CodeDisabled Counter

	// Sweep metrics
	SweepDemotions Histogram
	SweepLatency   Histogram
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Tier metrics
		UserUpgraded:   factory.Counter("premium.user.upgraded"),
		UserDowngraded: factory.Counter("premium.user.downgraded"),
		UserExpired:    factory.Counter("premium.user.expired"),

		// Gift code metrics
		CodeCreated:  factory.Counter("premium.giftcode.created"),
		CodeRedeemed: factory.Counter("premium.giftcode.redeemed"),
		CodeDisabled: factory.Counter("premium.giftcode.disabled"),

		// Sweep metrics
		SweepDemotions: factory.Histogram("premium.sweep.demotions"),
		SweepLatency:   factory.Histogram("premium.sweep.latency_ms"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Tier lifecycle hooks
// ──────────────────────────────────────────────────

// OnUpgraded implements plugin.OnUpgraded.
func (m *MetricsExtension) OnUpgraded(_ context.Context, _, _, _ string) error {
	m.UserUpgraded.Inc()
	return nil
}

// OnDowngraded implements plugin.OnDowngraded.
func (m *MetricsExtension) OnDowngraded(_ context.Context, _, _, _ string) error {
	m.UserDowngraded.Inc()
	return nil
}

// OnExpired implements plugin.OnExpired.
func (m *MetricsExtension) OnExpired(_ context.Context, _, _ string) error {
	m.UserExpired.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Gift code lifecycle hooks
// ──────────────────────────────────────────────────

// OnGiftCodeCreated implements plugin.OnGiftCodeCreated.
func (m *MetricsExtension) OnGiftCodeCreated(_ context.Context, _, _ string) error {
	m.CodeCreated.Inc()
	return nil
}

// OnCodeRedeemed implements plugin.OnCodeRedeemed.
func (m *MetricsExtension) OnCodeRedeemed(_ context.Context, _, _, _ string, _ *time.Time) error {
	m.CodeRedeemed.Inc()
	return nil
}

// OnGiftCodeDisabled implements plugin.OnGiftCodeDisabled.
func (m *MetricsExtension) OnGiftCodeDisabled(_ context.Context, _ string) error {
	m.CodeDisabled.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Sweep lifecycle hooks
// ──────────────────────────────────────────────────

// OnSweepCompleted implements plugin.OnSweepCompleted.
func (m *MetricsExtension) OnSweepCompleted(_ context.Context, demoted int, elapsed time.Duration) error {
	m.SweepDemotions.Observe(float64(demoted))
	m.SweepLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}
