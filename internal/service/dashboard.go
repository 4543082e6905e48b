package service

import (
	"context"
	"fmt"

	"github.com/streethall/hoa/internal/models"
	"github.com/streethall/hoa/internal/workflow"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// DashboardService aggregates the open work of the association.
type DashboardService struct {
	db  *gorm.DB
	svc *Services
}

// NewDashboardService constructs a DashboardService over the other services.
func NewDashboardService(db *gorm.DB, svc *Services) *DashboardService {
	return &DashboardService{db: db, svc: svc}
}

// GoalSummary is an open campaign or payment request with its progress.
type GoalSummary struct {
	Title    string    `json:"title"`
	DueDate  *string   `json:"due_date,omitempty"`
	Progress *Progress `json:"progress"`
}

// PollSummary is an active poll with its participation.
type PollSummary struct {
	ID            uint64 `json:"id"`
	Title         string `json:"title"`
	TotalVotes    int64  `json:"total_votes"`
	Participation int    `json:"participation"`
}

// Dashboard is the overview shown to admins and residents.
type Dashboard struct {
	ActiveGroups    int64         `json:"active_groups"`
	TotalGroups     int64         `json:"total_groups"`
	TotalUsers      int64         `json:"total_users"`
	Campaigns       []GoalSummary `json:"campaigns"`
	PaymentRequests []GoalSummary `json:"payment_requests"`
	ActivePolls     []PollSummary `json:"active_polls"`
	UpcomingEvents  int64         `json:"upcoming_events"`
}

// Overview computes the dashboard. Each section runs in its own goroutine.
func (d *DashboardService) Overview(ctx context.Context, actor workflow.Actor) (*Dashboard, error) {
	if err := workflow.RequireActor(actor); err != nil {
		return nil, err
	}
	out := &Dashboard{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		conn := d.db.WithContext(gctx)
		active, errActive := activeGroupCount(conn)
		if errActive != nil {
			return errActive
		}
		out.ActiveGroups = active
		if errCount := conn.Model(&models.Group{}).Count(&out.TotalGroups).Error; errCount != nil {
			return fmt.Errorf("count groups: %w", errCount)
		}
		if errCount := conn.Model(&models.User{}).Where("status = ?", string(workflow.UserActive)).Count(&out.TotalUsers).Error; errCount != nil {
			return fmt.Errorf("count users: %w", errCount)
		}
		return nil
	})
	g.Go(func() error {
		campaigns, errList := d.svc.Campaigns.List(gctx, actor, string(workflow.GoalOpen))
		if errList != nil {
			return errList
		}
		for i := range campaigns {
			summary, errSummary := goalSummary(d.svc.Campaigns, d.db.WithContext(gctx), &campaigns[i])
			if errSummary != nil {
				return errSummary
			}
			out.Campaigns = append(out.Campaigns, summary)
		}
		return nil
	})
	g.Go(func() error {
		requests, errList := d.svc.PaymentRequests.List(gctx, actor, string(workflow.GoalOpen))
		if errList != nil {
			return errList
		}
		for i := range requests {
			summary, errSummary := goalSummary(d.svc.PaymentRequests, d.db.WithContext(gctx), &requests[i])
			if errSummary != nil {
				return errSummary
			}
			out.PaymentRequests = append(out.PaymentRequests, summary)
		}
		return nil
	})
	g.Go(func() error {
		polls, errList := d.svc.Polls.List(gctx, actor, string(workflow.PollActive))
		if errList != nil {
			return errList
		}
		for _, poll := range polls {
			results, errResults := d.svc.Polls.Results(gctx, actor, poll.ID)
			if errResults != nil {
				return errResults
			}
			out.ActivePolls = append(out.ActivePolls, PollSummary{
				ID:            poll.ID,
				Title:         poll.Title,
				TotalVotes:    results.TotalVotes,
				Participation: results.Participation,
			})
		}
		return nil
	})
	g.Go(func() error {
		events, errList := d.svc.Events.List(gctx, actor, true)
		if errList != nil {
			return errList
		}
		out.UpcomingEvents = int64(len(events))
		return nil
	})
	if errWait := g.Wait(); errWait != nil {
		return nil, errWait
	}
	return out, nil
}

func goalSummary[G, S any, GP GoalRecord[G], SP SubmissionRecord[S]](svc *FundingService[G, S, GP, SP], conn *gorm.DB, item *G) (GoalSummary, error) {
	progress, errProgress := svc.progressOf(conn, item)
	if errProgress != nil {
		return GoalSummary{}, errProgress
	}
	goal := GP(item).Goal()
	summary := GoalSummary{Title: goal.Title, Progress: progress}
	if goal.DueDate != nil {
		due := goal.DueDate.Format("2006-01-02")
		summary.DueDate = &due
	}
	return summary, nil
}
