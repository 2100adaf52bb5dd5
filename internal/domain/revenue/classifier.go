package revenue

import (
	"github.com/billing/backend/internal/domain/invoice"
)

// ChangeKind names the effect an invoice update has on its period's
// aggregate row
type ChangeKind string

const (
	// ChangeInsert applies when no aggregate row exists for the period yet.
	// It takes precedence over every other classification.
	ChangeInsert ChangeKind = "INSERT"
	// ChangeEligibleToIneligible applies when a counted invoice stops
	// counting toward revenue
	ChangeEligibleToIneligible ChangeKind = "ELIGIBLE_TO_INELIGIBLE"
	// ChangeIneligibleToEligible applies when an uncounted invoice starts
	// counting toward revenue
	ChangeIneligibleToEligible ChangeKind = "INELIGIBLE_TO_ELIGIBLE"
	// ChangeAmount applies when an eligible invoice's amount changes while
	// its status stays the same
	ChangeAmount ChangeKind = "AMOUNT_CHANGE"
	// ChangeStatus applies when an eligible invoice moves between pending
	// and paid with its amount unchanged
	ChangeStatus ChangeKind = "STATUS_CHANGE"
	// ChangeNone applies to every other update; no mutation is performed
	ChangeNone ChangeKind = "NONE"
)

// ClassifyUpdate names the delta operation an invoice update requires,
// given its previous and current snapshot and the existing aggregate row
// for the period (nil when absent). The rules are checked in priority
// order; the first match wins.
func ClassifyUpdate(previous, current invoice.Snapshot, existing *MonthlyRevenue) ChangeKind {
	if existing == nil {
		return ChangeInsert
	}

	prevEligible := previous.Status.IsEligible()
	currEligible := current.Status.IsEligible()

	switch {
	case prevEligible && !currEligible:
		return ChangeEligibleToIneligible
	case !prevEligible && currEligible:
		return ChangeIneligibleToEligible
	case prevEligible && currEligible &&
		previous.AmountCents != current.AmountCents &&
		previous.Status == current.Status:
		return ChangeAmount
	case prevEligible && currEligible &&
		previous.Status != current.Status &&
		previous.AmountCents == current.AmountCents:
		return ChangeStatus
	default:
		return ChangeNone
	}
}
