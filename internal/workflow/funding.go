package workflow

import (
	"strings"
	"time"
)

// GoalStatus is the lifecycle state of a fundraising campaign or payment request.
type GoalStatus string

// Goal states.
const (
	GoalOpen   GoalStatus = "open"
	GoalClosed GoalStatus = "closed"
)

// CloseGoal applies the only goal transition, open to closed.
func CloseGoal(current GoalStatus) (GoalStatus, error) {
	if current != GoalOpen {
		return current, Invalidf("only open entries can be closed")
	}
	return GoalClosed, nil
}

// RequireGoalOpen gates every mutation of a goal and its submissions.
func RequireGoalOpen(status GoalStatus) error {
	if status != GoalOpen {
		return Invalidf("this entry is closed")
	}
	return nil
}

// SubmissionStatus is the review state of a contribution or payment report.
type SubmissionStatus string

// Submission states.
const (
	SubmissionSubmitted SubmissionStatus = "submitted"
	SubmissionConfirmed SubmissionStatus = "confirmed"
	SubmissionRejected  SubmissionStatus = "rejected"
)

// Valid reports whether s is a known submission state.
func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionSubmitted, SubmissionConfirmed, SubmissionRejected:
		return true
	}
	return false
}

// Review decides a submission status change. It returns the confirmedBy value to persist:
// the actor id for confirmed, nil otherwise. Repeated or reversed reviews are accepted and
// overwrite the previous outcome.
func Review(actor Actor, goalStatus GoalStatus, target SubmissionStatus) (*uint64, error) {
	if err := RequireGlobalAdmin(actor); err != nil {
		return nil, err
	}
	if !target.Valid() {
		return nil, Invalidf("unknown status %q", target)
	}
	if err := RequireGoalOpen(goalStatus); err != nil {
		return nil, err
	}
	if target != SubmissionConfirmed {
		return nil, nil
	}
	id := actor.ID
	return &id, nil
}

// RequireCanDeleteSubmission gates deletion to the submitter or a global admin while the goal is open.
func RequireCanDeleteSubmission(actor Actor, submitterID uint64, goalStatus GoalStatus) error {
	if err := RequireOwnerOrGlobalAdmin(actor, submitterID); err != nil {
		return err
	}
	return RequireGoalOpen(goalStatus)
}

// PaymentMethod is how a contribution or payment was made.
type PaymentMethod string

// Payment methods.
const (
	PaymentCash         PaymentMethod = "cash"
	PaymentWireTransfer PaymentMethod = "wire_transfer"
)

// ValidatePayment checks the method and the wire transfer details it requires.
func ValidatePayment(method PaymentMethod, reference string, paidAt *time.Time) error {
	switch method {
	case PaymentCash:
		return nil
	case PaymentWireTransfer:
		if strings.TrimSpace(reference) == "" {
			return Invalidf("wire transfers require a reference")
		}
		if paidAt == nil || paidAt.IsZero() {
			return Invalidf("wire transfers require a transfer date")
		}
		return nil
	default:
		return Invalidf("unknown payment method %q", method)
	}
}
