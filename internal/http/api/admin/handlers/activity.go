package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/streethall/hoa/internal/activity"
	"github.com/streethall/hoa/internal/http/api/apiutil"
	"gorm.io/gorm"
)

// ActivitySubscriber streams committed activity entries.
type ActivitySubscriber interface {
	Subscribe(ctx context.Context) (<-chan activity.Entry, func() error)
}

// ActivityHandler exposes the activity log.
type ActivityHandler struct {
	db  *gorm.DB
	sub ActivitySubscriber
}

// NewActivityHandler constructs an ActivityHandler. sub may be nil when no broker is configured.
func NewActivityHandler(db *gorm.DB, sub ActivitySubscriber) *ActivityHandler {
	return &ActivityHandler{db: db, sub: sub}
}

// List returns recent entries filtered by ?entity_type, ?entity_id and ?limit.
func (h *ActivityHandler) List(c *gin.Context) {
	q := activity.Query{EntityType: strings.TrimSpace(c.Query("entity_type"))}
	if raw := strings.TrimSpace(c.Query("entity_id")); raw != "" {
		id, errParse := strconv.ParseUint(raw, 10, 64)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entity_id"})
			return
		}
		q.EntityID = id
	}
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		limit, errParse := strconv.Atoi(raw)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		q.Limit = limit
	}
	rows, errList := activity.List(c.Request.Context(), h.db, q)
	if errList != nil {
		apiutil.WriteError(c, errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activity": apiutil.Views(rows, apiutil.ActivityView)})
}

// Stream relays live entries as server-sent events until the client disconnects.
func (h *ActivityHandler) Stream(c *gin.Context) {
	if h.sub == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "activity stream unavailable"})
		return
	}
	ctx := c.Request.Context()
	entries, closeSub := h.sub.Subscribe(ctx)
	defer func() {
		_ = closeSub()
	}()

	// The server write timeout would otherwise cut long-lived streams.
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case entry, ok := <-entries:
			if !ok {
				return false
			}
			c.SSEvent("activity", entry)
			return true
		}
	})
}
