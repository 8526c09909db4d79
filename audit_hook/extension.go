// Package audithook bridges Premium lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import
// Chronicle directly. Callers inject a RecorderFunc adapter that bridges
// to Chronicle at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/premium/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin             = (*Extension)(nil)
	_ plugin.OnUpgraded         = (*Extension)(nil)
	_ plugin.OnDowngraded       = (*Extension)(nil)
	_ plugin.OnExpired          = (*Extension)(nil)
	_ plugin.OnCodeRedeemed     = (*Extension)(nil)
	_ plugin.OnGiftCodeCreated  = (*Extension)(nil)
	_ plugin.OnGiftCodeDisabled = (*Extension)(nil)
	_ plugin.OnSweepCompleted   = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// This matches chronicle.Emitter but is defined locally so that the
// audit_hook package does not import Chronicle directly — callers inject
// the concrete *chronicle.Chronicle at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
// It mirrors chronicle/audit.Event but avoids a module dependency.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Premium lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Tier lifecycle hooks
// ──────────────────────────────────────────────────

// OnUpgraded implements plugin.OnUpgraded.
func (e *Extension) OnUpgraded(ctx context.Context, userID, oldTier, newTier string) error {
	return e.record(ctx, ActionUserUpgraded, SeverityInfo, OutcomeSuccess,
		ResourceUser, userID, CategoryEntitlement, nil,
		"user_id", userID,
		"old_tier", oldTier,
		"new_tier", newTier,
	)
}

// OnDowngraded implements plugin.OnDowngraded.
func (e *Extension) OnDowngraded(ctx context.Context, userID, oldTier, newTier string) error {
	return e.record(ctx, ActionUserDowngraded, SeverityInfo, OutcomeSuccess,
		ResourceUser, userID, CategoryEntitlement, nil,
		"user_id", userID,
		"old_tier", oldTier,
		"new_tier", newTier,
	)
}

// OnExpired implements plugin.OnExpired.
func (e *Extension) OnExpired(ctx context.Context, userID, tier string) error {
	return e.record(ctx, ActionUserExpired, SeverityWarning, OutcomeSuccess,
		ResourceUser, userID, CategoryEntitlement, nil,
		"user_id", userID,
		"tier", tier,
	)
}

// ──────────────────────────────────────────────────
// Gift code lifecycle hooks
// ──────────────────────────────────────────────────

// OnGiftCodeCreated implements plugin.OnGiftCodeCreated.
func (e *Extension) OnGiftCodeCreated(ctx context.Context, code, tier string) error {
	return e.record(ctx, ActionCodeCreated, SeverityInfo, OutcomeSuccess,
		ResourceGiftCode, code, CategoryPromotion, nil,
		"code", code,
		"tier", tier,
	)
}

// OnCodeRedeemed implements plugin.OnCodeRedeemed.
func (e *Extension) OnCodeRedeemed(ctx context.Context, userID, code, tier string, expiresAt *time.Time) error {
	kvPairs := []any{
		"user_id", userID,
		"code", code,
		"tier", tier,
	}
	if expiresAt != nil {
		kvPairs = append(kvPairs, "expires_at", expiresAt.Format(time.RFC3339))
	}
	return e.record(ctx, ActionCodeRedeemed, SeverityInfo, OutcomeSuccess,
		ResourceGiftCode, code, CategoryPromotion, nil,
		kvPairs...,
	)
}

// OnGiftCodeDisabled implements plugin.OnGiftCodeDisabled.
func (e *Extension) OnGiftCodeDisabled(ctx context.Context, code string) error {
	return e.record(ctx, ActionCodeDisabled, SeverityWarning, OutcomeSuccess,
		ResourceGiftCode, code, CategoryPromotion, nil,
		"code", code,
	)
}

// ──────────────────────────────────────────────────
// Sweep lifecycle hooks
// ──────────────────────────────────────────────────

// OnSweepCompleted implements plugin.OnSweepCompleted.
func (e *Extension) OnSweepCompleted(ctx context.Context, demoted int, elapsed time.Duration) error {
	// Empty sweeps are not worth an audit entry.
	if demoted == 0 {
		return nil
	}
	return e.record(ctx, ActionSweepCompleted, SeverityInfo, OutcomeSuccess,
		ResourceSweep, "", CategoryMaintenance, nil,
		"demoted", demoted,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
