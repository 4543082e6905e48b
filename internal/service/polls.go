package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/streethall/hoa/internal/activity"
	"github.com/streethall/hoa/internal/models"
	"github.com/streethall/hoa/internal/workflow"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PollService runs the poll lifecycle and group voting.
type PollService struct {
	db  *gorm.DB
	rec *activity.Recorder
}

// NewPollService constructs a PollService.
func NewPollService(db *gorm.DB, rec *activity.Recorder) *PollService {
	return &PollService{db: db, rec: rec}
}

// OptionInput describes one poll option.
type OptionInput struct {
	Label       string
	Description string
	Amount      *float64
}

// PollInput is the create payload.
type PollInput struct {
	Title       string
	Description string
	ClosesAt    *time.Time
	Options     []OptionInput
}

// PollPatch carries optional poll changes.
type PollPatch struct {
	Title       *string
	Description *string
	ClosesAt    *time.Time
}

// OptionPatch carries optional option changes.
type OptionPatch struct {
	Label       *string
	Description *string
	Amount      *float64
	ClearAmount bool
	Position    *int
}

// Create adds a draft poll with its options.
func (s *PollService) Create(ctx context.Context, actor workflow.Actor, in PollInput) (*models.Poll, error) {
	if err := workflow.RequireGlobalAdmin(actor); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, workflow.Invalidf("missing title")
	}
	poll := models.Poll{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Status:      string(workflow.PollDraft),
		ClosesAt:    in.ClosesAt,
		CreatedBy:   actor.ID,
	}
	for i, opt := range in.Options {
		option, errOption := newOption(opt, i)
		if errOption != nil {
			return nil, errOption
		}
		poll.Options = append(poll.Options, option)
	}
	errTx := inTx(ctx, s.db, s.rec, func(sc *scope) error {
		if errCreate := sc.tx.Create(&poll).Error; errCreate != nil {
			return fmt.Errorf("create poll: %w", errCreate)
		}
		return sc.record(activity.Entry{ActorID: actor.ID, EntityType: activity.EntityPoll, EntityID: poll.ID, Action: "create"})
	})
	if errTx != nil {
		return nil, errTx
	}
	return &poll, nil
}

func newOption(in OptionInput, position int) (models.PollOption, error) {
	label := strings.TrimSpace(in.Label)
	if label == "" {
		return models.PollOption{}, workflow.Invalidf("option label is required")
	}
	if in.Amount != nil && *in.Amount < 0 {
		return models.PollOption{}, workflow.Invalidf("option amount must not be negative")
	}
	return models.PollOption{
		Label:       label,
		Description: strings.TrimSpace(in.Description),
		Amount:      in.Amount,
		Position:    position,
	}, nil
}

// Update edits title, description and closing date of a draft poll.
func (s *PollService) Update(ctx context.Context, actor workflow.Actor, id uint64, p PollPatch) (*models.Poll, error) {
	if err := workflow.RequireGlobalAdmin(actor); err != nil {
		return nil, err
	}
	var poll models.Poll
	errTx := inTx(ctx, s.db, s.rec, func(sc *scope) error {
		if errFind := sc.tx.First(&poll, id).Error; errFind != nil {
			return lookupErr(errFind, "poll")
		}
		if errDraft := workflow.RequirePollEditable(workflow.PollStatus(poll.Status)); errDraft != nil {
			return errDraft
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
		if p.ClosesAt != nil {
			updates["closes_at"] = p.ClosesAt.UTC()
		}
		if len(updates) == 0 {
			return workflow.Invalidf("no fields to update")
		}
		if errUpdate := sc.tx.Model(&poll).Updates(updates).Error; errUpdate != nil {
			return fmt.Errorf("update poll: %w", errUpdate)
		}
		return sc.record(activity.Entry{ActorID: actor.ID, EntityType: activity.EntityPoll, EntityID: id, Action: "update"})
	})
	if errTx != nil {
		return nil, errTx
	}
	return s.load(ctx, id)
}

// Delete removes a poll with its options and votes.
func (s *PollService) Delete(ctx context.Context, actor workflow.Actor, id uint64) error {
	if err := workflow.RequireGlobalAdmin(actor); err != nil {
		return err
	}
	return inTx(ctx, s.db, s.rec, func(sc *scope) error {
		var poll models.Poll
		if errFind := sc.tx.Select("id").First(&poll, id).Error; errFind != nil {
			return lookupErr(errFind, "poll")
		}
		if errDelete := sc.tx.Where("poll_id = ?", id).Delete(&models.Vote{}).Error; errDelete != nil {
			return fmt.Errorf("delete votes: %w", errDelete)
		}
		if errDelete := sc.tx.Where("poll_id = ?", id).Delete(&models.PollOption{}).Error; errDelete != nil {
			return fmt.Errorf("delete options: %w", errDelete)
		}
		if errDelete := sc.tx.Delete(&models.Poll{}, id).Error; errDelete != nil {
			return fmt.Errorf("delete poll: %w", errDelete)
		}
		return sc.record(activity.Entry{ActorID: actor.ID, EntityType: activity.EntityPoll, EntityID: id, Action: "delete"})
	})
}

// Get returns a poll with ordered options. Drafts are visible to global admins only.
func (s *PollService) Get(ctx context.Context, actor workflow.Actor, id uint64) (*models.Poll, error) {
	if err := workflow.RequireActor(actor); err != nil {
		return nil, err
	}
	poll, errLoad := s.load(ctx, id)
	if errLoad != nil {
		return nil, errLoad
	}
	if poll.Status == string(workflow.PollDraft) && !actor.IsGlobalAdmin() {
		return nil, workflow.NotFoundf("poll not found")
	}
	return poll, nil
}

func (s *PollService) load(ctx context.Context, id uint64) (*models.Poll, error) {
	var poll models.Poll
	errFind := s.db.WithContext(ctx).
		Preload("Options", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC, id ASC") }).
		First(&poll, id).Error
	if errFind != nil {
		return nil, lookupErr(errFind, "poll")
	}
	return &poll, nil
}

// List returns polls, newest first. Residents never see drafts.
func (s *PollService) List(ctx context.Context, actor workflow.Actor, status string) ([]models.Poll, error) {
	if err := workflow.RequireActor(actor); err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx).Model(&models.Poll{})
	if status != "" {
		if !workflow.PollStatus(status).Valid() {
			return nil, workflow.Invalidf("unknown poll status %q", status)
		}
		q = q.Where("status = ?", status)
	}
	if !actor.IsGlobalAdmin() {
		q = q.Where("status <> ?", string(workflow.PollDraft))
	}
	var polls []models.Poll
	errFind := q.Preload("Options", func(tx *gorm.DB) *gorm.DB { return tx.Order("position ASC, id ASC") }).
		Order("created_at DESC, id DESC").
		Find(&polls).Error
	if errFind != nil {
		return nil, fmt.Errorf("list polls: %w", errFind)
	}
	return polls, nil
}

// AddOption appends an option to a draft poll.
func (s *PollService) AddOption(ctx context.Context, actor workflow.Actor, pollID uint64, in OptionInput) (*models.PollOption, error) {
	if err := workflow.RequireGlobalAdmin(actor); err != nil {
		return nil, err
	}
	var option models.PollOption
	errTx := inTx(ctx, s.db, s.rec, func(sc *scope) error {
		if errDraft := requireDraftPoll(sc.tx, pollID); errDraft != nil {
			return errDraft
		}
		var maxPos *int
		if errMax := sc.tx.Model(&models.PollOption{}).Where("poll_id = ?", pollID).
			Select("MAX(position)").Scan(&maxPos).Error; errMax != nil {
			return fmt.Errorf("load option positions: %w", errMax)
		}
		next := 0
		if maxPos != nil {
			next = *maxPos + 1
		}
		var errOption error
		if option, errOption = newOption(in, next); errOption != nil {
			return errOption
		}
		option.PollID = pollID
		if errCreate := sc.tx.Create(&option).Error; errCreate != nil {
			return fmt.Errorf("create option: %w", errCreate)
		}
		return sc.record(activity.Entry{
			ActorID:    actor.ID,
			EntityType: activity.EntityPoll,
			EntityID:   pollID,
			Action:     "add_option",
			Details:    map[string]any{"option_id": option.ID},
		})
	})
	if errTx != nil {
		return nil, errTx
	}
	return &option, nil
}

// UpdateOption edits an option of a draft poll.
func (s *PollService) UpdateOption(ctx context.Context, actor workflow.Actor, pollID, optionID uint64, p OptionPatch) (*models.PollOption, error) {
	if err := workflow.RequireGlobalAdmin(actor); err != nil {
		return nil, err
	}
	var option models.PollOption
	errTx := inTx(ctx, s.db, s.rec, func(sc *scope) error {
		if errDraft := requireDraftPoll(sc.tx, pollID); errDraft != nil {
			return errDraft
		}
		if errFind := sc.tx.Where("poll_id = ?", pollID).First(&option, optionID).Error; errFind != nil {
			return lookupErr(errFind, "option")
		}
		updates := map[string]any{}
		if p.Label != nil {
			label := strings.TrimSpace(*p.Label)
			if label == "" {
				return workflow.Invalidf("option label is required")
			}
			updates["label"] = label
		}
		if p.Description != nil {
			updates["description"] = strings.TrimSpace(*p.Description)
		}
		switch {
		case p.ClearAmount:
			updates["amount"] = nil
		case p.Amount != nil:
			if *p.Amount < 0 {
				return workflow.Invalidf("option amount must not be negative")
			}
			updates["amount"] = *p.Amount
		}
		if p.Position != nil {
			updates["position"] = *p.Position
		}
		if len(updates) == 0 {
			return workflow.Invalidf("no fields to update")
		}
		if errUpdate := sc.tx.Model(&option).Updates(updates).Error; errUpdate != nil {
			return fmt.Errorf("update option: %w", errUpdate)
		}
		if errReload := sc.tx.First(&option, optionID).Error; errReload != nil {
			return fmt.Errorf("reload option: %w", errReload)
		}
		return sc.record(activity.Entry{
			ActorID:    actor.ID,
			EntityType: activity.EntityPoll,
			EntityID:   pollID,
			Action:     "update_option",
			Details:    map[string]any{"option_id": optionID},
		})
	})
	if errTx != nil {
		return nil, errTx
	}
	return &option, nil
}

// RemoveOption deletes an option of a draft poll.
func (s *PollService) RemoveOption(ctx context.Context, actor workflow.Actor, pollID, optionID uint64) error {
	if err := workflow.RequireGlobalAdmin(actor); err != nil {
		return err
	}
	return inTx(ctx, s.db, s.rec, func(sc *scope) error {
		if errDraft := requireDraftPoll(sc.tx, pollID); errDraft != nil {
			return errDraft
		}
		res := sc.tx.Where("poll_id = ? AND id = ?", pollID, optionID).Delete(&models.PollOption{})
		if res.Error != nil {
			return fmt.Errorf("delete option: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return workflow.NotFoundf("option not found")
		}
		return sc.record(activity.Entry{
			ActorID:    actor.ID,
			EntityType: activity.EntityPoll,
			EntityID:   pollID,
			Action:     "remove_option",
			Details:    map[string]any{"option_id": optionID},
		})
	})
}

func requireDraftPoll(tx *gorm.DB, pollID uint64) error {
	var poll models.Poll
	if errFind := tx.Select("id", "status").First(&poll, pollID).Error; errFind != nil {
		return lookupErr(errFind, "poll")
	}
	return workflow.RequirePollDraft(workflow.PollStatus(poll.Status))
}

// Transition applies a lifecycle action. Reset deletes the poll's votes in the same transaction.
func (s *PollService) Transition(ctx context.Context, actor workflow.Actor, id uint64, action workflow.PollAction) (*models.Poll, error) {
	if err := workflow.RequireGlobalAdmin(actor); err != nil {
		return nil, err
	}
	errTx := inTx(ctx, s.db, s.rec, func(sc *scope) error {
		var poll models.Poll
		if errFind := sc.tx.First(&poll, id).Error; errFind != nil {
			return lookupErr(errFind, "poll")
		}
		next, errNext := workflow.NextPollStatus(workflow.PollStatus(poll.Status), action)
		if errNext != nil {
			return errNext
		}
		if next == workflow.PollActive {
			var options int64
			if errCount := sc.tx.Model(&models.PollOption{}).Where("poll_id = ?", id).Count(&options).Error; errCount != nil {
				return fmt.Errorf("count options: %w", errCount)
			}
			if options == 0 {
				return workflow.Invalidf("a poll needs at least one option to accept votes")
			}
		}
		details := map[string]any{"from": poll.Status, "to": string(next)}
		if action.ClearsVotes() {
			res := sc.tx.Where("poll_id = ?", id).Delete(&models.Vote{})
			if res.Error != nil {
				return fmt.Errorf("clear votes: %w", res.Error)
			}
			details["votes_deleted"] = res.RowsAffected
		}
		if errUpdate := sc.tx.Model(&poll).Update("status", string(next)).Error; errUpdate != nil {
			return fmt.Errorf("update poll status: %w", errUpdate)
		}
		return sc.record(activity.Entry{
			ActorID:    actor.ID,
			EntityType: activity.EntityPoll,
			EntityID:   id,
			Action:     string(action),
			Details:    details,
		})
	})
	if errTx != nil {
		return nil, errTx
	}
	return s.load(ctx, id)
}

// CastVote records the group's choice, replacing any earlier vote of that group.
func (s *PollService) CastVote(ctx context.Context, actor workflow.Actor, pollID, groupID, optionID uint64) (*models.Vote, error) {
	var vote models.Vote
	errTx := inTx(ctx, s.db, s.rec, func(sc *scope) error {
		var poll models.Poll
		if errFind := sc.tx.Select("id", "status").First(&poll, pollID).Error; errFind != nil {
			return lookupErr(errFind, "poll")
		}
		if errMember := requireMemberOf(sc.tx, actor, groupID); errMember != nil {
			return errMember
		}
		if errActive := workflow.RequirePollActive(workflow.PollStatus(poll.Status)); errActive != nil {
			return errActive
		}
		var option models.PollOption
		errOption := sc.tx.Select("id").Where("poll_id = ?", pollID).First(&option, optionID).Error
		if errors.Is(errOption, gorm.ErrRecordNotFound) {
			return workflow.Invalidf("option does not belong to this poll")
		}
		if errOption != nil {
			return fmt.Errorf("load option: %w", errOption)
		}
		vote = models.Vote{PollID: pollID, GroupID: groupID, OptionID: optionID, UserID: actor.ID}
		errUpsert := sc.tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "poll_id"}, {Name: "group_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"option_id", "user_id", "updated_at"}),
		}).Create(&vote).Error
		if errUpsert != nil {
			return fmt.Errorf("cast vote: %w", errUpsert)
		}
		if errReload := sc.tx.Where("poll_id = ? AND group_id = ?", pollID, groupID).First(&vote).Error; errReload != nil {
			return fmt.Errorf("reload vote: %w", errReload)
		}
		return sc.record(activity.Entry{
			ActorID:    actor.ID,
			EntityType: activity.EntityVote,
			EntityID:   vote.ID,
			Action:     "cast",
			Details:    map[string]any{"poll_id": pollID, "group_id": groupID, "option_id": optionID},
		})
	})
	if errTx != nil {
		return nil, errTx
	}
	return &vote, nil
}

// GroupVote returns the group's current vote, or nil when it has not voted.
// Drafts are hidden from residents the same way Get hides them.
func (s *PollService) GroupVote(ctx context.Context, actor workflow.Actor, pollID, groupID uint64) (*models.Vote, error) {
	if err := workflow.RequireActor(actor); err != nil {
		return nil, err
	}
	conn := s.db.WithContext(ctx)
	var poll models.Poll
	if errFind := conn.Select("id", "status").First(&poll, pollID).Error; errFind != nil {
		return nil, lookupErr(errFind, "poll")
	}
	if poll.Status == string(workflow.PollDraft) && !actor.IsGlobalAdmin() {
		return nil, workflow.NotFoundf("poll not found")
	}
	if !actor.IsGlobalAdmin() {
		if errMember := requireMemberOf(conn, actor, groupID); errMember != nil {
			return nil, errMember
		}
	}
	var votes []models.Vote
	if errFind := conn.Where("poll_id = ? AND group_id = ?", pollID, groupID).Limit(1).Find(&votes).Error; errFind != nil {
		return nil, fmt.Errorf("load vote: %w", errFind)
	}
	if len(votes) == 0 {
		return nil, nil
	}
	return &votes[0], nil
}

// OptionResult is the tally of one option.
type OptionResult struct {
	OptionID uint64   `json:"option_id"`
	Label    string   `json:"label"`
	Amount   *float64 `json:"amount,omitempty"`
	Votes    int64    `json:"votes"`
	Percent  int      `json:"percent"`
}

// PollResults summarizes the votes of a poll.
type PollResults struct {
	PollID        uint64         `json:"poll_id"`
	Status        string         `json:"status"`
	Options       []OptionResult `json:"options"`
	TotalVotes    int64          `json:"total_votes"`
	ActiveGroups  int64          `json:"active_groups"`
	Participation int            `json:"participation"`
}

// Results tallies votes per option; participation is votes over groups with an active member.
func (s *PollService) Results(ctx context.Context, actor workflow.Actor, pollID uint64) (*PollResults, error) {
	poll, errGet := s.Get(ctx, actor, pollID)
	if errGet != nil {
		return nil, errGet
	}
	conn := s.db.WithContext(ctx)
	type countRow struct {
		OptionID uint64
		N        int64
	}
	var counts []countRow
	errCount := conn.Model(&models.Vote{}).
		Select("option_id, COUNT(*) AS n").
		Where("poll_id = ?", pollID).
		Group("option_id").
		Scan(&counts).Error
	if errCount != nil {
		return nil, fmt.Errorf("count votes: %w", errCount)
	}
	byOption := make(map[uint64]int64, len(counts))
	var total int64
	for _, row := range counts {
		byOption[row.OptionID] = row.N
		total += row.N
	}
	active, errActive := activeGroupCount(conn)
	if errActive != nil {
		return nil, errActive
	}
	out := &PollResults{
		PollID:        poll.ID,
		Status:        poll.Status,
		Options:       make([]OptionResult, 0, len(poll.Options)),
		TotalVotes:    total,
		ActiveGroups:  active,
		Participation: workflow.Percent(total, active),
	}
	for _, opt := range poll.Options {
		n := byOption[opt.ID]
		out.Options = append(out.Options, OptionResult{
			OptionID: opt.ID,
			Label:    opt.Label,
			Amount:   opt.Amount,
			Votes:    n,
			Percent:  workflow.Percent(n, total),
		})
	}
	return out, nil
}
