package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/streethall/hoa/internal/activity"
	"github.com/streethall/hoa/internal/models"
	"github.com/streethall/hoa/internal/workflow"
	"gorm.io/gorm"
)

// FundingKind describes one funded-goal workflow: its entity names and the parent column
// that links submissions to the goal.
type FundingKind struct {
	Label            string
	Entity           string
	SubmissionEntity string
	ParentColumn     string
}

// Funded-goal workflows.
var (
	CampaignKind = FundingKind{
		Label:            "campaign",
		Entity:           activity.EntityCampaign,
		SubmissionEntity: activity.EntityContribution,
		ParentColumn:     "campaign_id",
	}
	PaymentRequestKind = FundingKind{
		Label:            "payment request",
		Entity:           activity.EntityPaymentRequest,
		SubmissionEntity: activity.EntityPaymentReport,
		ParentColumn:     "payment_request_id",
	}
)

// GoalRecord is satisfied by pointers to goal models.
type GoalRecord[G any] interface {
	*G
	Goal() *models.FundingGoal
	Key() uint64
}

// SubmissionRecord is satisfied by pointers to submission models.
type SubmissionRecord[S any] interface {
	*S
	Submission() *models.FundingSubmission
	Key() uint64
	ParentKey() uint64
	SetParentKey(id uint64)
}

// FundingService runs the open/closed goal lifecycle and the submitted/confirmed/rejected
// review of the submissions made against it.
type FundingService[G, S any, GP GoalRecord[G], SP SubmissionRecord[S]] struct {
	db   *gorm.DB
	rec  *activity.Recorder
	kind FundingKind
}

// CampaignService handles fundraising campaigns and their contributions.
type CampaignService = FundingService[models.FundraisingCampaign, models.Contribution, *models.FundraisingCampaign, *models.Contribution]

// PaymentRequestService handles payment requests and their payment reports.
type PaymentRequestService = FundingService[models.PaymentRequest, models.PaymentReport, *models.PaymentRequest, *models.PaymentReport]

// NewCampaignService constructs a CampaignService.
func NewCampaignService(db *gorm.DB, rec *activity.Recorder) *CampaignService {
	return &CampaignService{db: db, rec: rec, kind: CampaignKind}
}

// NewPaymentRequestService constructs a PaymentRequestService.
func NewPaymentRequestService(db *gorm.DB, rec *activity.Recorder) *PaymentRequestService {
	return &PaymentRequestService{db: db, rec: rec, kind: PaymentRequestKind}
}

// Kind returns the workflow descriptor.
func (s *FundingService[G, S, GP, SP]) Kind() FundingKind { return s.kind }

// GoalInput is the create payload.
type GoalInput struct {
	Title       string
	Description string
	GoalAmount  float64
	DueDate     *time.Time
}

// GoalPatch carries optional goal changes.
type GoalPatch struct {
	Title       *string
	Description *string
	GoalAmount  *float64
	DueDate     *time.Time
	ClearDue    bool
}

// SubmissionInput is the payload of a contribution or payment report.
type SubmissionInput struct {
	GroupID   uint64
	Amount    float64
	Method    workflow.PaymentMethod
	Reference string
	PaidAt    *time.Time
	Note      string
}

// SubmissionPatch carries optional submission changes.
type SubmissionPatch struct {
	Amount    *float64
	Method    *workflow.PaymentMethod
	Reference *string
	PaidAt    *time.Time
	Note      *string
}

// Create opens a new goal and snapshots the per-group share.
func (s *FundingService[G, S, GP, SP]) Create(ctx context.Context, actor workflow.Actor, in GoalInput) (*G, error) {
	if err := workflow.RequireGlobalAdmin(actor); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, workflow.Invalidf("missing title")
	}
	if in.GoalAmount <= 0 {
		return nil, workflow.Invalidf("goal amount must be positive")
	}
	item := new(G)
	errTx := inTx(ctx, s.db, s.rec, func(sc *scope) error {
		groups, errCount := activeGroupCount(sc.tx)
		if errCount != nil {
			return errCount
		}
		goal := GP(item).Goal()
		goal.Title = title
		goal.Description = strings.TrimSpace(in.Description)
		goal.GoalAmount = in.GoalAmount
		goal.Amount = workflow.PerGroupShare(in.GoalAmount, groups)
		goal.Status = string(workflow.GoalOpen)
		goal.DueDate = in.DueDate
		goal.CreatedBy = actor.ID
		if errCreate := sc.tx.Create(item).Error; errCreate != nil {
			return fmt.Errorf("create %s: %w", s.kind.Label, errCreate)
		}
		return sc.record(activity.Entry{
			ActorID:    actor.ID,
			EntityType: s.kind.Entity,
			EntityID:   GP(item).Key(),
			Action:     "create",
			Details:    map[string]any{"goal_amount": goal.GoalAmount, "amount": goal.Amount, "active_groups": groups},
		})
	})
	if errTx != nil {
		return nil, errTx
	}
	return item, nil
}

// Update edits an open goal. Changing the goal amount recomputes the per-group share.
func (s *FundingService[G, S, GP, SP]) Update(ctx context.Context, actor workflow.Actor, id uint64, p GoalPatch) (*G, error) {
	if err := workflow.RequireGlobalAdmin(actor); err != nil {
		return nil, err
	}
	item := new(G)
	errTx := inTx(ctx, s.db, s.rec, func(sc *scope) error {
		if errFind := sc.tx.First(item, id).Error; errFind != nil {
			return lookupErr(errFind, s.kind.Label)
		}
		goal := GP(item).Goal()
		if errOpen := workflow.RequireGoalOpen(workflow.GoalStatus(goal.Status)); errOpen != nil {
			return errOpen
		}
		updates := map[string]any{}
		if p.Title != nil {
			title := strings.TrimSpace(*p.Title)
			if title == "" {
				return workflow.Invalidf("missing title")
			}
			updates["title"] = title
		}
		if p.Description != nil {
			updates["description"] = strings.TrimSpace(*p.Description)
		}
		switch {
		case p.ClearDue:
			updates["due_date"] = nil
		case p.DueDate != nil:
			updates["due_date"] = p.DueDate.UTC()
		}
		if p.GoalAmount != nil {
			if *p.GoalAmount <= 0 {
				return workflow.Invalidf("goal amount must be positive")
			}
			groups, errCount := activeGroupCount(sc.tx)
			if errCount != nil {
				return errCount
			}
			updates["goal_amount"] = *p.GoalAmount
			updates["amount"] = workflow.PerGroupShare(*p.GoalAmount, groups)
		}
		if len(updates) == 0 {
			return workflow.Invalidf("no fields to update")
		}
		if errUpdate := sc.tx.Model(item).Updates(updates).Error; errUpdate != nil {
			return fmt.Errorf("update %s: %w", s.kind.Label, errUpdate)
		}
		if errReload := sc.tx.First(item, id).Error; errReload != nil {
			return fmt.Errorf("reload %s: %w", s.kind.Label, errReload)
		}
		return sc.record(activity.Entry{ActorID: actor.ID, EntityType: s.kind.Entity, EntityID: id, Action: "update"})
	})
	if errTx != nil {
		return nil, errTx
	}
	return item, nil
}

// Close moves an open goal to closed. There is no way back.
func (s *FundingService[G, S, GP, SP]) Close(ctx context.Context, actor workflow.Actor, id uint64) (*G, error) {
	if err := workflow.RequireGlobalAdmin(actor); err != nil {
		return nil, err
	}
	item := new(G)
	errTx := inTx(ctx, s.db, s.rec, func(sc *scope) error {
		if errFind := sc.tx.First(item, id).Error; errFind != nil {
			return lookupErr(errFind, s.kind.Label)
		}
		next, errClose := workflow.CloseGoal(workflow.GoalStatus(GP(item).Goal().Status))
		if errClose != nil {
			return errClose
		}
		now := time.Now().UTC()
		if errUpdate := sc.tx.Model(item).Updates(map[string]any{"status": string(next), "closed_at": now}).Error; errUpdate != nil {
			return fmt.Errorf("close %s: %w", s.kind.Label, errUpdate)
		}
		GP(item).Goal().Status = string(next)
		GP(item).Goal().ClosedAt = &now
		return sc.record(activity.Entry{ActorID: actor.ID, EntityType: s.kind.Entity, EntityID: id, Action: "close"})
	})
	if errTx != nil {
		return nil, errTx
	}
	return item, nil
}

// Delete removes a goal together with its submissions.
func (s *FundingService[G, S, GP, SP]) Delete(ctx context.Context, actor workflow.Actor, id uint64) error {
	if err := workflow.RequireGlobalAdmin(actor); err != nil {
		return err
	}
	return inTx(ctx, s.db, s.rec, func(sc *scope) error {
		item := new(G)
		if errFind := sc.tx.First(item, id).Error; errFind != nil {
			return lookupErr(errFind, s.kind.Label)
		}
		if errDelete := sc.tx.Where(s.kind.ParentColumn+" = ?", id).Delete(new(S)).Error; errDelete != nil {
			return fmt.Errorf("delete submissions: %w", errDelete)
		}
		if errDelete := sc.tx.Delete(item).Error; errDelete != nil {
			return fmt.Errorf("delete %s: %w", s.kind.Label, errDelete)
		}
		return sc.record(activity.Entry{ActorID: actor.ID, EntityType: s.kind.Entity, EntityID: id, Action: "delete"})
	})
}

// Get returns one goal.
func (s *FundingService[G, S, GP, SP]) Get(ctx context.Context, actor workflow.Actor, id uint64) (*G, error) {
	if err := workflow.RequireActor(actor); err != nil {
		return nil, err
	}
	item := new(G)
	if errFind := s.db.WithContext(ctx).First(item, id).Error; errFind != nil {
		return nil, lookupErr(errFind, s.kind.Label)
	}
	return item, nil
}

// List returns goals, newest first, optionally filtered by status.
func (s *FundingService[G, S, GP, SP]) List(ctx context.Context, actor workflow.Actor, status string) ([]G, error) {
	if err := workflow.RequireActor(actor); err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx).Model(new(G))
	switch workflow.GoalStatus(status) {
	case "":
	case workflow.GoalOpen, workflow.GoalClosed:
		q = q.Where("status = ?", status)
	default:
		return nil, workflow.Invalidf("unknown status %q", status)
	}
	var items []G
	if errFind := q.Order("created_at DESC, id DESC").Find(&items).Error; errFind != nil {
		return nil, fmt.Errorf("list %s: %w", s.kind.Label, errFind)
	}
	return items, nil
}

// loadGoal loads a goal of this kind.
func (s *FundingService[G, S, GP, SP]) loadGoal(tx *gorm.DB, id uint64) (*G, error) {
	item := new(G)
	if errFind := tx.First(item, id).Error; errFind != nil {
		return nil, lookupErr(errFind, s.kind.Label)
	}
	return item, nil
}

// Submit records a group's payment as submitted. The actor must belong to the group and the goal must be open.
func (s *FundingService[G, S, GP, SP]) Submit(ctx context.Context, actor workflow.Actor, goalID uint64, in SubmissionInput) (*S, error) {
	if err := workflow.RequireActor(actor); err != nil {
		return nil, err
	}
	sub := new(S)
	errTx := inTx(ctx, s.db, s.rec, func(sc *scope) error {
		goal, errGoal := s.loadGoal(sc.tx, goalID)
		if errGoal != nil {
			return errGoal
		}
		if errMember := requireMemberOf(sc.tx, actor, in.GroupID); errMember != nil {
			return errMember
		}
		if errOpen := workflow.RequireGoalOpen(workflow.GoalStatus(GP(goal).Goal().Status)); errOpen != nil {
			return errOpen
		}
		if in.Amount <= 0 {
			return workflow.Invalidf("amount must be positive")
		}
		if errPay := workflow.ValidatePayment(in.Method, in.Reference, in.PaidAt); errPay != nil {
			return errPay
		}
		SP(sub).SetParentKey(goalID)
		fields := SP(sub).Submission()
		fields.GroupID = in.GroupID
		fields.SubmittedBy = actor.ID
		fields.Amount = in.Amount
		fields.Method = string(in.Method)
		fields.Reference = strings.TrimSpace(in.Reference)
		fields.PaidAt = in.PaidAt
		fields.Note = strings.TrimSpace(in.Note)
		fields.Status = string(workflow.SubmissionSubmitted)
		if errCreate := sc.tx.Create(sub).Error; errCreate != nil {
			return fmt.Errorf("create %s: %w", s.kind.SubmissionEntity, errCreate)
		}
		return sc.record(activity.Entry{
			ActorID:    actor.ID,
			EntityType: s.kind.SubmissionEntity,
			EntityID:   SP(sub).Key(),
			Action:     "submit",
			Details:    map[string]any{s.kind.ParentColumn: goalID, "group_id": in.GroupID, "amount": in.Amount, "method": string(in.Method)},
		})
	})
	if errTx != nil {
		return nil, errTx
	}
	return sub, nil
}

// UpdateSubmission lets the submitter or a global admin correct a submission while the goal is open.
// Residents editing a confirmed or rejected submission return it to submitted.
func (s *FundingService[G, S, GP, SP]) UpdateSubmission(ctx context.Context, actor workflow.Actor, goalID, subID uint64, p SubmissionPatch) (*S, error) {
	sub := new(S)
	errTx := inTx(ctx, s.db, s.rec, func(sc *scope) error {
		goal, errLoad := s.loadSubmission(sc.tx, goalID, subID, sub)
		if errLoad != nil {
			return errLoad
		}
		fields := SP(sub).Submission()
		if errGuard := workflow.RequireCanDeleteSubmission(actor, fields.SubmittedBy, workflow.GoalStatus(GP(goal).Goal().Status)); errGuard != nil {
			return errGuard
		}
		updates := map[string]any{}
		if p.Amount != nil {
			if *p.Amount <= 0 {
				return workflow.Invalidf("amount must be positive")
			}
			updates["amount"] = *p.Amount
		}
		method := workflow.PaymentMethod(fields.Method)
		if p.Method != nil {
			method = *p.Method
			updates["method"] = string(method)
		}
		reference := fields.Reference
		if p.Reference != nil {
			reference = strings.TrimSpace(*p.Reference)
			updates["reference"] = reference
		}
		paidAt := fields.PaidAt
		if p.PaidAt != nil {
			paidAt = p.PaidAt
			updates["paid_at"] = p.PaidAt.UTC()
		}
		if p.Note != nil {
			updates["note"] = strings.TrimSpace(*p.Note)
		}
		if len(updates) == 0 {
			return workflow.Invalidf("no fields to update")
		}
		if errPay := workflow.ValidatePayment(method, reference, paidAt); errPay != nil {
			return errPay
		}
		// A resident edit of a reviewed submission sends it back for review.
		if !actor.IsGlobalAdmin() && fields.Status != string(workflow.SubmissionSubmitted) {
			updates["status"] = string(workflow.SubmissionSubmitted)
			updates["confirmed_by"] = nil
			updates["reviewed_at"] = nil
		}
		if errUpdate := sc.tx.Model(sub).Updates(updates).Error; errUpdate != nil {
			return fmt.Errorf("update %s: %w", s.kind.SubmissionEntity, errUpdate)
		}
		if errReload := sc.tx.First(sub, subID).Error; errReload != nil {
			return fmt.Errorf("reload %s: %w", s.kind.SubmissionEntity, errReload)
		}
		return sc.record(activity.Entry{ActorID: actor.ID, EntityType: s.kind.SubmissionEntity, EntityID: subID, Action: "update"})
	})
	if errTx != nil {
		return nil, errTx
	}
	return sub, nil
}

// SetSubmissionStatus reviews a submission. Confirming records the reviewer; other statuses clear it.
func (s *FundingService[G, S, GP, SP]) SetSubmissionStatus(ctx context.Context, actor workflow.Actor, goalID, subID uint64, status workflow.SubmissionStatus) (*S, error) {
	if err := workflow.RequireGlobalAdmin(actor); err != nil {
		return nil, err
	}
	sub := new(S)
	errTx := inTx(ctx, s.db, s.rec, func(sc *scope) error {
		goal, errLoad := s.loadSubmission(sc.tx, goalID, subID, sub)
		if errLoad != nil {
			return errLoad
		}
		confirmedBy, errReview := workflow.Review(actor, workflow.GoalStatus(GP(goal).Goal().Status), status)
		if errReview != nil {
			return errReview
		}
		now := time.Now().UTC()
		updates := map[string]any{
			"status":       string(status),
			"confirmed_by": nil,
			"reviewed_at":  now,
		}
		if confirmedBy != nil {
			updates["confirmed_by"] = *confirmedBy
		}
		if errUpdate := sc.tx.Model(sub).Updates(updates).Error; errUpdate != nil {
			return fmt.Errorf("review %s: %w", s.kind.SubmissionEntity, errUpdate)
		}
		fields := SP(sub).Submission()
		fields.Status = string(status)
		fields.ConfirmedBy = confirmedBy
		fields.ReviewedAt = &now
		return sc.record(activity.Entry{
			ActorID:    actor.ID,
			EntityType: s.kind.SubmissionEntity,
			EntityID:   subID,
			Action:     string(status),
			Details:    map[string]any{s.kind.ParentColumn: goalID},
		})
	})
	if errTx != nil {
		return nil, errTx
	}
	return sub, nil
}

// DeleteSubmission removes a submission. Only its submitter or a global admin, and only while the goal is open.
func (s *FundingService[G, S, GP, SP]) DeleteSubmission(ctx context.Context, actor workflow.Actor, goalID, subID uint64) error {
	if err := workflow.RequireActor(actor); err != nil {
		return err
	}
	return inTx(ctx, s.db, s.rec, func(sc *scope) error {
		sub := new(S)
		goal, errLoad := s.loadSubmission(sc.tx, goalID, subID, sub)
		if errLoad != nil {
			return errLoad
		}
		submitter := SP(sub).Submission().SubmittedBy
		if errGuard := workflow.RequireCanDeleteSubmission(actor, submitter, workflow.GoalStatus(GP(goal).Goal().Status)); errGuard != nil {
			return errGuard
		}
		if errDelete := sc.tx.Delete(sub).Error; errDelete != nil {
			return fmt.Errorf("delete %s: %w", s.kind.SubmissionEntity, errDelete)
		}
		return sc.record(activity.Entry{ActorID: actor.ID, EntityType: s.kind.SubmissionEntity, EntityID: subID, Action: "delete"})
	})
}

func (s *FundingService[G, S, GP, SP]) loadSubmission(tx *gorm.DB, goalID, subID uint64, sub *S) (*G, error) {
	goal, errGoal := s.loadGoal(tx, goalID)
	if errGoal != nil {
		return nil, errGoal
	}
	if errFind := tx.Where(s.kind.ParentColumn+" = ?", goalID).First(sub, subID).Error; errFind != nil {
		return nil, lookupErr(errFind, strings.ReplaceAll(s.kind.SubmissionEntity, "_", " "))
	}
	return goal, nil
}

// SubmissionFilter narrows Submissions.
type SubmissionFilter struct {
	GroupID uint64
	Status  string
}

// Submissions lists the submissions of a goal. Global admins see all; residents see those
// of the groups they belong to.
func (s *FundingService[G, S, GP, SP]) Submissions(ctx context.Context, actor workflow.Actor, goalID uint64, f SubmissionFilter) ([]S, error) {
	if err := workflow.RequireActor(actor); err != nil {
		return nil, err
	}
	conn := s.db.WithContext(ctx)
	if _, errGoal := s.loadGoal(conn, goalID); errGoal != nil {
		return nil, errGoal
	}
	q := conn.Model(new(S)).Where(s.kind.ParentColumn+" = ?", goalID)
	if !actor.IsGlobalAdmin() {
		groupIDs, errIDs := memberGroupIDs(conn, actor.ID)
		if errIDs != nil {
			return nil, errIDs
		}
		if len(groupIDs) == 0 {
			return []S{}, nil
		}
		q = q.Where("group_id IN ?", groupIDs)
	}
	if f.GroupID != 0 {
		q = q.Where("group_id = ?", f.GroupID)
	}
	if f.Status != "" {
		if !workflow.SubmissionStatus(f.Status).Valid() {
			return nil, workflow.Invalidf("unknown status %q", f.Status)
		}
		q = q.Where("status = ?", f.Status)
	}
	var rows []S
	if errFind := q.Order("created_at DESC, id DESC").Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("list %s: %w", s.kind.SubmissionEntity, errFind)
	}
	return rows, nil
}

// Progress summarizes collection toward a goal.
type Progress struct {
	ID                 uint64  `json:"id"`
	Status             string  `json:"status"`
	GoalAmount         float64 `json:"goal_amount"`
	Amount             float64 `json:"amount"`
	ActiveGroups       int64   `json:"active_groups"`
	ContributingGroups int64   `json:"contributing_groups"`
	GroupPercent       int     `json:"group_percent"`
	ConfirmedTotal     float64 `json:"confirmed_total"`
	PendingTotal       float64 `json:"pending_total"`
	CollectedPercent   int     `json:"collected_percent"`
}

// Progress computes participation and collected totals for a goal. Rejected submissions are ignored.
func (s *FundingService[G, S, GP, SP]) Progress(ctx context.Context, actor workflow.Actor, goalID uint64) (*Progress, error) {
	goal, errGet := s.Get(ctx, actor, goalID)
	if errGet != nil {
		return nil, errGet
	}
	return s.progressOf(s.db.WithContext(ctx), goal)
}

func (s *FundingService[G, S, GP, SP]) progressOf(conn *gorm.DB, item *G) (*Progress, error) {
	goal := GP(item).Goal()
	id := GP(item).Key()
	active, errActive := activeGroupCount(conn)
	if errActive != nil {
		return nil, errActive
	}
	var contributing int64
	errCount := conn.Model(new(S)).
		Where(s.kind.ParentColumn+" = ? AND status <> ?", id, string(workflow.SubmissionRejected)).
		Distinct("group_id").
		Count(&contributing).Error
	if errCount != nil {
		return nil, fmt.Errorf("count contributing groups: %w", errCount)
	}
	type sumRow struct {
		Status string
		Amount float64
	}
	var rows []sumRow
	errSum := conn.Model(new(S)).
		Select("status, amount").
		Where(s.kind.ParentColumn+" = ?", id).
		Scan(&rows).Error
	if errSum != nil {
		return nil, fmt.Errorf("sum %s: %w", s.kind.SubmissionEntity, errSum)
	}
	var confirmed, pending []float64
	for _, row := range rows {
		switch workflow.SubmissionStatus(row.Status) {
		case workflow.SubmissionConfirmed:
			confirmed = append(confirmed, row.Amount)
		case workflow.SubmissionSubmitted:
			pending = append(pending, row.Amount)
		}
	}
	confirmedTotal := workflow.SumAmounts(confirmed...)
	return &Progress{
		ID:                 id,
		Status:             goal.Status,
		GoalAmount:         goal.GoalAmount,
		Amount:             goal.Amount,
		ActiveGroups:       active,
		ContributingGroups: contributing,
		GroupPercent:       workflow.Percent(contributing, active),
		ConfirmedTotal:     confirmedTotal,
		PendingTotal:       workflow.SumAmounts(pending...),
		CollectedPercent:   workflow.AmountPercent(confirmedTotal, goal.GoalAmount),
	}, nil
}
