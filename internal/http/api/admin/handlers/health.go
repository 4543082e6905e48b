package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Pinger is satisfied by the optional Redis client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves health check endpoints.
type HealthHandler struct {
	db    *gorm.DB
	redis Pinger
}

// NewHealthHandler constructs a HealthHandler. redis may be nil.
func NewHealthHandler(db *gorm.DB, redis Pinger) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

// Healthz checks database and broker connectivity.
func (h *HealthHandler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	sqlDB, err := h.db.DB()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "database": false})
		return
	}
	if errPing := sqlDB.PingContext(ctx); errPing != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "database": false})
		return
	}
	resp := gin.H{"ok": true, "database": true}
	if h.redis != nil {
		if errPing := h.redis.Ping(ctx); errPing != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "database": true, "redis": false})
			return
		}
		resp["redis"] = true
	}
	c.JSON(http.StatusOK, resp)
}
