package audithook

// Action constants for audit events.
const (
	// Tier actions
	ActionUserUpgraded   = "user.upgraded"
	ActionUserDowngraded = "user.downgraded"
	ActionUserExpired    = "user.expired"
	ActionUserRemoved    = "user.removed"

	// Gift code actions
	ActionCodeCreated  = "giftcode.created"
	ActionCodeRedeemed = "giftcode.redeemed"
	ActionCodeDisabled = "giftcode.disabled"

	// Sweep actions
	ActionSweepCompleted = "sweep.completed"
)

// Resource constants for audit events.
const (
	ResourceUser     = "user"
	ResourceGiftCode = "gift_code"
	ResourceSweep    = "sweep"
)

// Category constants for audit events.
const (
	CategoryEntitlement = "entitlement"
	CategoryPromotion   = "promotion"
	CategoryMaintenance = "maintenance"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
