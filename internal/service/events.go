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

// EventService manages the neighborhood calendar.
type EventService struct {
	db  *gorm.DB
	rec *activity.Recorder
	now func() time.Time
}

// NewEventService constructs an EventService.
func NewEventService(db *gorm.DB, rec *activity.Recorder) *EventService {
	return &EventService{db: db, rec: rec, now: time.Now}
}

// EventInput is the create payload.
type EventInput struct {
	Title       string
	Description string
	Location    string
	StartsAt    time.Time
	EndsAt      *time.Time
}

// EventPatch carries optional event changes.
type EventPatch struct {
	Title       *string
	Description *string
	Location    *string
	StartsAt    *time.Time
	EndsAt      *time.Time
	ClearEnd    bool
}

// Create schedules an event.
func (s *EventService) Create(ctx context.Context, actor workflow.Actor, in EventInput) (*models.Event, error) {
	if err := workflow.RequireGlobalAdmin(actor); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, workflow.Invalidf("missing title")
	}
	if err := workflow.ValidateSchedule(in.StartsAt, in.EndsAt); err != nil {
		return nil, err
	}
	event := models.Event{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Location:    strings.TrimSpace(in.Location),
		StartsAt:    in.StartsAt.UTC(),
		EndsAt:      utcPtr(in.EndsAt),
		CreatedBy:   actor.ID,
	}
	errTx := inTx(ctx, s.db, s.rec, func(sc *scope) error {
		if errCreate := sc.tx.Create(&event).Error; errCreate != nil {
			return fmt.Errorf("create event: %w", errCreate)
		}
		return sc.record(activity.Entry{ActorID: actor.ID, EntityType: activity.EntityEvent, EntityID: event.ID, Action: "create"})
	})
	if errTx != nil {
		return nil, errTx
	}
	return &event, nil
}

// Update edits an event, re-checking the schedule against the merged values.
func (s *EventService) Update(ctx context.Context, actor workflow.Actor, id uint64, p EventPatch) (*models.Event, error) {
	if err := workflow.RequireGlobalAdmin(actor); err != nil {
		return nil, err
	}
	var event models.Event
	errTx := inTx(ctx, s.db, s.rec, func(sc *scope) error {
		if errFind := sc.tx.First(&event, id).Error; errFind != nil {
			return lookupErr(errFind, "event")
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
		if p.Location != nil {
			updates["location"] = strings.TrimSpace(*p.Location)
		}
		start := event.StartsAt
		if p.StartsAt != nil {
			start = p.StartsAt.UTC()
			updates["starts_at"] = start
		}
		end := event.EndsAt
		switch {
		case p.ClearEnd:
			end = nil
			updates["ends_at"] = nil
		case p.EndsAt != nil:
			end = utcPtr(p.EndsAt)
			updates["ends_at"] = *end
		}
		if len(updates) == 0 {
			return workflow.Invalidf("no fields to update")
		}
		if errSchedule := workflow.ValidateSchedule(start, end); errSchedule != nil {
			return errSchedule
		}
		if errUpdate := sc.tx.Model(&event).Updates(updates).Error; errUpdate != nil {
			return fmt.Errorf("update event: %w", errUpdate)
		}
		if errReload := sc.tx.First(&event, id).Error; errReload != nil {
			return fmt.Errorf("reload event: %w", errReload)
		}
		return sc.record(activity.Entry{ActorID: actor.ID, EntityType: activity.EntityEvent, EntityID: id, Action: "update"})
	})
	if errTx != nil {
		return nil, errTx
	}
	return &event, nil
}

// Delete removes an event.
func (s *EventService) Delete(ctx context.Context, actor workflow.Actor, id uint64) error {
	if err := workflow.RequireGlobalAdmin(actor); err != nil {
		return err
	}
	return inTx(ctx, s.db, s.rec, func(sc *scope) error {
		res := sc.tx.Delete(&models.Event{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete event: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return workflow.NotFoundf("event not found")
		}
		return sc.record(activity.Entry{ActorID: actor.ID, EntityType: activity.EntityEvent, EntityID: id, Action: "delete"})
	})
}

// Get returns one event.
func (s *EventService) Get(ctx context.Context, actor workflow.Actor, id uint64) (*models.Event, error) {
	if err := workflow.RequireActor(actor); err != nil {
		return nil, err
	}
	var event models.Event
	if errFind := s.db.WithContext(ctx).First(&event, id).Error; errFind != nil {
		return nil, lookupErr(errFind, "event")
	}
	return &event, nil
}

// List returns events by start time. With upcoming set, events that already ended are skipped.
func (s *EventService) List(ctx context.Context, actor workflow.Actor, upcoming bool) ([]models.Event, error) {
	if err := workflow.RequireActor(actor); err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx).Model(&models.Event{})
	if upcoming {
		now := s.now().UTC()
		q = q.Where("starts_at >= ? OR (ends_at IS NOT NULL AND ends_at >= ?)", now, now)
	}
	var events []models.Event
	if errFind := q.Order("starts_at ASC, id ASC").Find(&events).Error; errFind != nil {
		return nil, fmt.Errorf("list events: %w", errFind)
	}
	return events, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
