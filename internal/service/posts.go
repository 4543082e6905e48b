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

// PostService manages announcements.
type PostService struct {
	db  *gorm.DB
	rec *activity.Recorder
	now func() time.Time
}

// NewPostService constructs a PostService.
func NewPostService(db *gorm.DB, rec *activity.Recorder) *PostService {
	return &PostService{db: db, rec: rec, now: time.Now}
}

// PostInput is the create payload.
type PostInput struct {
	Title string
	Body  string
}

// PostPatch carries optional post changes.
type PostPatch struct {
	Title *string
	Body  *string
}

// Create writes a draft post.
func (s *PostService) Create(ctx context.Context, actor workflow.Actor, in PostInput) (*models.Post, error) {
	if err := workflow.RequireGlobalAdmin(actor); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	body := strings.TrimSpace(in.Body)
	if title == "" || body == "" {
		return nil, workflow.Invalidf("title and body are required")
	}
	post := models.Post{Title: title, Body: body, Status: string(workflow.PostDraft), AuthorID: actor.ID}
	errTx := inTx(ctx, s.db, s.rec, func(sc *scope) error {
		if errCreate := sc.tx.Create(&post).Error; errCreate != nil {
			return fmt.Errorf("create post: %w", errCreate)
		}
		return sc.record(activity.Entry{ActorID: actor.ID, EntityType: activity.EntityPost, EntityID: post.ID, Action: "create"})
	})
	if errTx != nil {
		return nil, errTx
	}
	return &post, nil
}

// Update edits a post in any state.
func (s *PostService) Update(ctx context.Context, actor workflow.Actor, id uint64, p PostPatch) (*models.Post, error) {
	if err := workflow.RequireGlobalAdmin(actor); err != nil {
		return nil, err
	}
	updates := map[string]any{}
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return nil, workflow.Invalidf("missing title")
		}
		updates["title"] = title
	}
	if p.Body != nil {
		body := strings.TrimSpace(*p.Body)
		if body == "" {
			return nil, workflow.Invalidf("missing body")
		}
		updates["body"] = body
	}
	if len(updates) == 0 {
		return nil, workflow.Invalidf("no fields to update")
	}
	var post models.Post
	errTx := inTx(ctx, s.db, s.rec, func(sc *scope) error {
		if errFind := sc.tx.First(&post, id).Error; errFind != nil {
			return lookupErr(errFind, "post")
		}
		if errUpdate := sc.tx.Model(&post).Updates(updates).Error; errUpdate != nil {
			return fmt.Errorf("update post: %w", errUpdate)
		}
		if errReload := sc.tx.First(&post, id).Error; errReload != nil {
			return fmt.Errorf("reload post: %w", errReload)
		}
		return sc.record(activity.Entry{ActorID: actor.ID, EntityType: activity.EntityPost, EntityID: id, Action: "update"})
	})
	if errTx != nil {
		return nil, errTx
	}
	return &post, nil
}

// Delete removes a post.
func (s *PostService) Delete(ctx context.Context, actor workflow.Actor, id uint64) error {
	if err := workflow.RequireGlobalAdmin(actor); err != nil {
		return err
	}
	return inTx(ctx, s.db, s.rec, func(sc *scope) error {
		res := sc.tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete post: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return workflow.NotFoundf("post not found")
		}
		return sc.record(activity.Entry{ActorID: actor.ID, EntityType: activity.EntityPost, EntityID: id, Action: "delete"})
	})
}

// Publish makes a draft visible and stamps publishedAt.
func (s *PostService) Publish(ctx context.Context, actor workflow.Actor, id uint64) (*models.Post, error) {
	return s.transition(ctx, actor, id, workflow.PostPublish)
}

// Unpublish returns a post to draft and clears publishedAt.
func (s *PostService) Unpublish(ctx context.Context, actor workflow.Actor, id uint64) (*models.Post, error) {
	return s.transition(ctx, actor, id, workflow.PostUnpublish)
}

func (s *PostService) transition(ctx context.Context, actor workflow.Actor, id uint64, action workflow.PostAction) (*models.Post, error) {
	if err := workflow.RequireGlobalAdmin(actor); err != nil {
		return nil, err
	}
	var post models.Post
	errTx := inTx(ctx, s.db, s.rec, func(sc *scope) error {
		if errFind := sc.tx.First(&post, id).Error; errFind != nil {
			return lookupErr(errFind, "post")
		}
		next, publishedAt, errNext := workflow.NextPostState(workflow.PostStatus(post.Status), action, s.now())
		if errNext != nil {
			return errNext
		}
		updates := map[string]any{"status": string(next), "published_at": publishedAt}
		if errUpdate := sc.tx.Model(&post).Updates(updates).Error; errUpdate != nil {
			return fmt.Errorf("%s post: %w", action, errUpdate)
		}
		post.Status = string(next)
		post.PublishedAt = publishedAt
		return sc.record(activity.Entry{ActorID: actor.ID, EntityType: activity.EntityPost, EntityID: id, Action: string(action)})
	})
	if errTx != nil {
		return nil, errTx
	}
	return &post, nil
}

// Get returns a post. Drafts are visible to global admins only.
func (s *PostService) Get(ctx context.Context, actor workflow.Actor, id uint64) (*models.Post, error) {
	if err := workflow.RequireActor(actor); err != nil {
		return nil, err
	}
	var post models.Post
	if errFind := s.db.WithContext(ctx).First(&post, id).Error; errFind != nil {
		return nil, lookupErr(errFind, "post")
	}
	if post.Status != string(workflow.PostPublished) && !actor.IsGlobalAdmin() {
		return nil, workflow.NotFoundf("post not found")
	}
	return &post, nil
}

// List returns published posts, newest first. Global admins also see drafts.
func (s *PostService) List(ctx context.Context, actor workflow.Actor) ([]models.Post, error) {
	if err := workflow.RequireActor(actor); err != nil {
		return nil, err
	}
	q := s.db.WithContext(ctx).Model(&models.Post{})
	if !actor.IsGlobalAdmin() {
		q = q.Where("status = ?", string(workflow.PostPublished))
	}
	var posts []models.Post
	if errFind := q.Order("published_at DESC, created_at DESC, id DESC").Find(&posts).Error; errFind != nil {
		return nil, fmt.Errorf("list posts: %w", errFind)
	}
	return posts, nil
}
