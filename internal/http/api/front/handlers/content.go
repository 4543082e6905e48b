package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/streethall/hoa/internal/http/api/apiutil"
	"github.com/streethall/hoa/internal/service"
)

// ContentHandler serves events and published posts.
type ContentHandler struct {
	events *service.EventService
	posts  *service.PostService
}

// NewContentHandler constructs a ContentHandler.
func NewContentHandler(events *service.EventService, posts *service.PostService) *ContentHandler {
	return &ContentHandler{events: events, posts: posts}
}

// ListEvents returns events; ?upcoming=true skips finished ones.
func (h *ContentHandler) ListEvents(c *gin.Context) {
	events, errList := h.events.List(c.Request.Context(), apiutil.Actor(c), c.Query("upcoming") == "true")
	if errList != nil {
		apiutil.WriteError(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": apiutil.Views(events, apiutil.EventView)})
}

// GetEvent returns one event.
func (h *ContentHandler) GetEvent(c *gin.Context) {
	id, ok := apiutil.ParseID(c, "id")
	if !ok {
		return
	}
	event, errGet := h.events.Get(c.Request.Context(), apiutil.Actor(c), id)
	if errGet != nil {
		apiutil.WriteError(c, errGet)
		return
	}
	c.JSON(http.StatusOK, apiutil.EventView(event))
}

// ListPosts returns published posts.
func (h *ContentHandler) ListPosts(c *gin.Context) {
	posts, errList := h.posts.List(c.Request.Context(), apiutil.Actor(c))
	if errList != nil {
		apiutil.WriteError(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": apiutil.Views(posts, apiutil.PostView)})
}

// GetPost returns one published post.
func (h *ContentHandler) GetPost(c *gin.Context) {
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
