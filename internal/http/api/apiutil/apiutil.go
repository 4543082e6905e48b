// Package apiutil holds helpers shared by the front and admin APIs.
package apiutil

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/streethall/hoa/internal/workflow"
)

const actorKey = "actor"

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "requestID"

// SetActor stores the authenticated actor on the request.
func SetActor(c *gin.Context, actor workflow.Actor) {
	c.Set(actorKey, actor)
	c.Set("userID", actor.ID)
}

// Actor returns the authenticated actor, or the zero actor.
func Actor(c *gin.Context) workflow.Actor {
	val, exists := c.Get(actorKey)
	if !exists {
		return workflow.Actor{}
	}
	actor, _ := val.(workflow.Actor)
	return actor
}

// ParseID reads a positive integer path parameter. It writes a 400 response and returns
// false when the value is not usable.
func ParseID(c *gin.Context, name string) (uint64, bool) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param(name)), 10, 64)
	if errParse != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// BindJSON decodes the request body. It writes a 400 response and returns false on failure.
func BindJSON(c *gin.Context, dst any) bool {
	if errBind := c.ShouldBindJSON(dst); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return false
	}
	return true
}

// StatusFor maps a workflow kind to its HTTP status.
func StatusFor(kind workflow.Kind) int {
	switch kind {
	case workflow.KindUnauthorized:
		return http.StatusUnauthorized
	case workflow.KindForbidden:
		return http.StatusForbidden
	case workflow.KindNotFound:
		return http.StatusNotFound
	case workflow.KindInvalid:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err as {"error": message}. Workflow errors keep their message;
// anything else is logged and reported as an internal error.
func WriteError(c *gin.Context, err error) {
	if kind, ok := workflow.KindOf(err); ok {
		c.AbortWithStatusJSON(StatusFor(kind), gin.H{"error": err.Error()})
		return
	}
	log.WithError(err).WithFields(log.Fields{
		"request_id": c.GetString(RequestIDKey),
		"method":     c.Request.Method,
		"path":       c.FullPath(),
	}).Error("request failed")
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// ParseTime accepts RFC 3339 timestamps and plain dates. Empty input yields nil.
func ParseTime(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, errParse := time.Parse(time.RFC3339, raw); errParse == nil {
		u := t.UTC()
		return &u, nil
	}
	t, errParse := time.Parse("2006-01-02", raw)
	if errParse != nil {
		return nil, workflow.Invalidf("invalid time %q", raw)
	}
	return &t, nil
}
