// Package service implements the workflow operations on top of the relational store.
// Every operation takes the acting user explicitly and consults an entitlement guard
// and the relevant lifecycle rule before touching data.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/streethall/hoa/internal/activity"
	"github.com/streethall/hoa/internal/models"
	"github.com/streethall/hoa/internal/workflow"
	"gorm.io/gorm"
)

// Services bundles every workflow service.
type Services struct {
	Users           *UserService
	Groups          *GroupService
	Polls           *PollService
	Campaigns       *CampaignService
	PaymentRequests *PaymentRequestService
	Events          *EventService
	Posts           *PostService
	Dashboard       *DashboardService
}

// New wires all services to db. A nil recorder records without publishing.
func New(db *gorm.DB, recorder *activity.Recorder) *Services {
	if recorder == nil {
		recorder = activity.NewRecorder(nil)
	}
	s := &Services{
		Users:           NewUserService(db, recorder),
		Groups:          NewGroupService(db, recorder),
		Polls:           NewPollService(db, recorder),
		Campaigns:       NewCampaignService(db, recorder),
		PaymentRequests: NewPaymentRequestService(db, recorder),
		Events:          NewEventService(db, recorder),
		Posts:           NewPostService(db, recorder),
	}
	s.Dashboard = NewDashboardService(db, s)
	return s
}

// scope is one unit of work: a transaction plus the activity entries it produced.
type scope struct {
	ctx     context.Context
	tx      *gorm.DB
	rec     *activity.Recorder
	entries []activity.Entry
}

func (s *scope) record(entry activity.Entry) error {
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}
	if errRecord := s.rec.Record(s.ctx, s.tx, entry); errRecord != nil {
		return errRecord
	}
	s.entries = append(s.entries, entry)
	return nil
}

// inTx runs fn in a transaction and publishes its activity after commit.
func inTx(ctx context.Context, db *gorm.DB, rec *activity.Recorder, fn func(s *scope) error) error {
	sc := &scope{ctx: ctx, rec: rec}
	errTx := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sc.tx = tx
		return fn(sc)
	})
	if errTx != nil {
		return errTx
	}
	rec.Publish(ctx, sc.entries...)
	return nil
}

// lookupErr maps a missing row to KindNotFound and wraps anything else.
func lookupErr(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return workflow.NotFoundf("%s not found", what)
	}
	if _, ok := workflow.KindOf(err); ok {
		return err
	}
	return fmt.Errorf("load %s: %w", what, err)
}

// activeGroupCount counts distinct groups that have at least one active membership.
func activeGroupCount(tx *gorm.DB) (int64, error) {
	var n int64
	errCount := tx.Model(&models.GroupMembership{}).
		Where("status = ?", string(workflow.MembershipActive)).
		Distinct("group_id").
		Count(&n).Error
	if errCount != nil {
		return 0, fmt.Errorf("count active groups: %w", errCount)
	}
	return n, nil
}

// loadGroupRef returns nil when the group does not exist.
func loadGroupRef(tx *gorm.DB, groupID uint64) (*workflow.GroupRef, error) {
	var group models.Group
	errFind := tx.Select("id", "admin_user_id").First(&group, groupID).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if errFind != nil {
		return nil, fmt.Errorf("load group: %w", errFind)
	}
	return &workflow.GroupRef{ID: group.ID, AdminUserID: group.AdminUserID}, nil
}

// isGroupMember reports whether any membership row exists for (group, user), whatever its status.
func isGroupMember(tx *gorm.DB, groupID, userID uint64) (bool, error) {
	var n int64
	errCount := tx.Model(&models.GroupMembership{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&n).Error
	if errCount != nil {
		return false, fmt.Errorf("check membership: %w", errCount)
	}
	return n > 0, nil
}

// requireMemberOf loads the group and applies RequireGroupMember.
func requireMemberOf(tx *gorm.DB, actor workflow.Actor, groupID uint64) error {
	if err := workflow.RequireActor(actor); err != nil {
		return err
	}
	ref, errRef := loadGroupRef(tx, groupID)
	if errRef != nil {
		return errRef
	}
	member := false
	if ref != nil {
		var errMember error
		if member, errMember = isGroupMember(tx, groupID, actor.ID); errMember != nil {
			return errMember
		}
	}
	return workflow.RequireGroupMember(actor, ref, member)
}

// memberGroupIDs lists the groups the user belongs to.
func memberGroupIDs(tx *gorm.DB, userID uint64) ([]uint64, error) {
	var ids []uint64
	errPluck := tx.Model(&models.GroupMembership{}).
		Where("user_id = ?", userID).
		Order("group_id ASC").
		Pluck("group_id", &ids).Error
	if errPluck != nil {
		return nil, fmt.Errorf("list member groups: %w", errPluck)
	}
	return ids, nil
}
