package apiutil

import (
	"github.com/streethall/hoa/internal/service"
	"github.com/streethall/hoa/internal/workflow"
)

// SubmissionRequest is the JSON body of a contribution or payment report.
type SubmissionRequest struct {
	GroupID   uint64   `json:"group_id"`
	Amount    *float64 `json:"amount"`
	Method    *string  `json:"method"`
	Reference *string  `json:"reference"`
	PaidAt    *string  `json:"paid_at"`
	Note      *string  `json:"note"`
}

// Input converts the body for a new submission.
func (r SubmissionRequest) Input() (service.SubmissionInput, error) {
	in := service.SubmissionInput{GroupID: r.GroupID}
	if r.Amount != nil {
		in.Amount = *r.Amount
	}
	if r.Method != nil {
		in.Method = workflow.PaymentMethod(*r.Method)
	}
	if r.Reference != nil {
		in.Reference = *r.Reference
	}
	if r.Note != nil {
		in.Note = *r.Note
	}
	if r.PaidAt != nil {
		paidAt, errTime := ParseTime(*r.PaidAt)
		if errTime != nil {
			return in, errTime
		}
		in.PaidAt = paidAt
	}
	return in, nil
}

// Patch converts the body for a submission update.
func (r SubmissionRequest) Patch() (service.SubmissionPatch, error) {
	patch := service.SubmissionPatch{Amount: r.Amount, Reference: r.Reference, Note: r.Note}
	if r.Method != nil {
		method := workflow.PaymentMethod(*r.Method)
		patch.Method = &method
	}
	if r.PaidAt != nil {
		paidAt, errTime := ParseTime(*r.PaidAt)
		if errTime != nil {
			return patch, errTime
		}
		patch.PaidAt = paidAt
	}
	return patch, nil
}

// GoalRequest is the JSON body of a campaign or payment request.
type GoalRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	GoalAmount  *float64 `json:"goal_amount"`
	DueDate     *string  `json:"due_date"`
}

// Input converts the body for a new goal.
func (r GoalRequest) Input() (service.GoalInput, error) {
	in := service.GoalInput{}
	if r.Title != nil {
		in.Title = *r.Title
	}
	if r.Description != nil {
		in.Description = *r.Description
	}
	if r.GoalAmount != nil {
		in.GoalAmount = *r.GoalAmount
	}
	if r.DueDate != nil {
		due, errTime := ParseTime(*r.DueDate)
		if errTime != nil {
			return in, errTime
		}
		in.DueDate = due
	}
	return in, nil
}

// Patch converts the body for a goal update. An empty due_date clears it.
func (r GoalRequest) Patch() (service.GoalPatch, error) {
	patch := service.GoalPatch{Title: r.Title, Description: r.Description, GoalAmount: r.GoalAmount}
	if r.DueDate != nil {
		due, errTime := ParseTime(*r.DueDate)
		if errTime != nil {
			return patch, errTime
		}
		if due == nil {
			patch.ClearDue = true
		}
		patch.DueDate = due
	}
	return patch, nil
}
