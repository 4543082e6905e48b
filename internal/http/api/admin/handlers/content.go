package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/streethall/hoa/internal/http/api/apiutil"
	"github.com/streethall/hoa/internal/service"
)

// EventHandler manages community events.
type EventHandler struct {
	events *service.EventService
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(events *service.EventService) *EventHandler {
	return &EventHandler{events: events}
}

type eventRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Location    *string `json:"location"`
	StartsAt    *string `json:"starts_at"`
	EndsAt      *string `json:"ends_at"`
}

// Create schedules an event.
func (h *EventHandler) Create(c *gin.Context) {
	var body eventRequest
	if !apiutil.BindJSON(c, &body) {
		return
	}
	in := service.EventInput{}
	if body.Title != nil {
		in.Title = *body.Title
	}
	if body.Description != nil {
		in.Description = *body.Description
	}
	if body.Location != nil {
		in.Location = *body.Location
	}
	if body.StartsAt == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing starts_at"})
		return
	}
	startsAt, errStart := apiutil.ParseTime(*body.StartsAt)
	if errStart != nil {
		apiutil.WriteError(c, errStart)
		return
	}
	if startsAt == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing starts_at"})
		return
	}
	in.StartsAt = *startsAt
	if body.EndsAt != nil {
		endsAt, errEnd := apiutil.ParseTime(*body.EndsAt)
		if errEnd != nil {
			apiutil.WriteError(c, errEnd)
			return
		}
		in.EndsAt = endsAt
	}
	event, errCreate := h.events.Create(c.Request.Context(), apiutil.Actor(c), in)
	if errCreate != nil {
		apiutil.WriteError(c, errCreate)
		return
	}
	c.JSON(http.StatusCreated, apiutil.EventView(event))
}

// List returns all events; ?upcoming=true skips finished ones.
func (h *EventHandler) List(c *gin.Context) {
	rows, errList := h.events.List(c.Request.Context(), apiutil.Actor(c), c.Query("upcoming") == "true")
	if errList != nil {
		apiutil.WriteError(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": apiutil.Views(rows, apiutil.EventView)})
}

// Update edits an event. An empty ends_at clears the end time.
func (h *EventHandler) Update(c *gin.Context) {
	id, ok := apiutil.ParseID(c, "id")
	if !ok {
		return
	}
	var body eventRequest
	if !apiutil.BindJSON(c, &body) {
		return
	}
	patch := service.EventPatch{Title: body.Title, Description: body.Description, Location: body.Location}
	if body.StartsAt != nil {
		startsAt, errStart := apiutil.ParseTime(*body.StartsAt)
		if errStart != nil {
			apiutil.WriteError(c, errStart)
			return
		}
		patch.StartsAt = startsAt
	}
	if body.EndsAt != nil {
		endsAt, errEnd := apiutil.ParseTime(*body.EndsAt)
		if errEnd != nil {
			apiutil.WriteError(c, errEnd)
			return
		}
		patch.EndsAt = endsAt
		patch.ClearEnd = endsAt == nil
	}
	event, errUpdate := h.events.Update(c.Request.Context(), apiutil.Actor(c), id, patch)
	if errUpdate != nil {
		apiutil.WriteError(c, errUpdate)
		return
	}
	c.JSON(http.StatusOK, apiutil.EventView(event))
}

// Delete removes an event.
func (h *EventHandler) Delete(c *gin.Context) {
	id, ok := apiutil.ParseID(c, "id")
	if !ok {
		return
	}
	if errDelete := h.events.Delete(c.Request.Context(), apiutil.Actor(c), id); errDelete != nil {
		apiutil.WriteError(c, errDelete)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// PostHandler manages announcements.
type PostHandler struct {
	posts *service.PostService
}

// NewPostHandler constructs a PostHandler.
func NewPostHandler(posts *service.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

type postRequest struct {
	Title *string `json:"title"`
	Body  *string `json:"body"`
}

// Create writes a draft post.
func (h *PostHandler) Create(c *gin.Context) {
	var body postRequest
	if !apiutil.BindJSON(c, &body) {
		return
	}
	in := service.PostInput{}
	if body.Title != nil {
		in.Title = *body.Title
	}
	if body.Body != nil {
		in.Body = *body.Body
	}
	post, errCreate := h.posts.Create(c.Request.Context(), apiutil.Actor(c), in)
	if errCreate != nil {
		apiutil.WriteError(c, errCreate)
		return
	}
	c.JSON(http.StatusCreated, apiutil.PostView(post))
}

// List returns drafts and published posts.
func (h *PostHandler) List(c *gin.Context) {
	rows, errList := h.posts.List(c.Request.Context(), apiutil.Actor(c))
	if errList != nil {
		apiutil.WriteError(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": apiutil.Views(rows, apiutil.PostView)})
}

// Get returns one post, drafts included.
func (h *PostHandler) Get(c *gin.Context) {
	id, ok := apiutil.ParseID(c, "id")
	if !ok {
		return
	}
	post, errGet := h.posts.Get(c.Request.Context(), apiutil.Actor(c), id)
	if errGet != nil {
		apiutil.WriteError(c, errGet)
		return
	}
	c.JSON(http.StatusOK, apiutil.PostView(post))
}

// Update edits a post.
func (h *PostHandler) Update(c *gin.Context) {
	id, ok := apiutil.ParseID(c, "id")
	if !ok {
		return
	}
	var body postRequest
	if !apiutil.BindJSON(c, &body) {
		return
	}
	post, errUpdate := h.posts.Update(c.Request.Context(), apiutil.Actor(c), id, service.PostPatch{Title: body.Title, Body: body.Body})
	if errUpdate != nil {
		apiutil.WriteError(c, errUpdate)
		return
	}
	c.JSON(http.StatusOK, apiutil.PostView(post))
}

// Delete removes a post.
func (h *PostHandler) Delete(c *gin.Context) {
	id, ok := apiutil.ParseID(c, "id")
	if !ok {
		return
	}
	if errDelete := h.posts.Delete(c.Request.Context(), apiutil.Actor(c), id); errDelete != nil {
		apiutil.WriteError(c, errDelete)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Publish makes a draft visible to residents.
func (h *PostHandler) Publish(c *gin.Context) {
	id, ok := apiutil.ParseID(c, "id")
	if !ok {
		return
	}
	post, errPublish := h.posts.Publish(c.Request.Context(), apiutil.Actor(c), id)
	if errPublish != nil {
		apiutil.WriteError(c, errPublish)
		return
	}
	c.JSON(http.StatusOK, apiutil.PostView(post))
}

// Unpublish returns a post to draft.
func (h *PostHandler) Unpublish(c *gin.Context) {
	id, ok := apiutil.ParseID(c, "id")
	if !ok {
		return
	}
	post, errUnpublish := h.posts.Unpublish(c.Request.Context(), apiutil.Actor(c), id)
	if errUnpublish != nil {
		apiutil.WriteError(c, errUnpublish)
		return
	}
	c.JSON(http.StatusOK, apiutil.PostView(post))
}
