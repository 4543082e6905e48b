package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/streethall/hoa/internal/http/api/apiutil"
	"github.com/streethall/hoa/internal/settings"
	"gorm.io/gorm"
)

// SettingsHandler reads and writes runtime settings.
type SettingsHandler struct {
	db *gorm.DB
}

// NewSettingsHandler constructs a SettingsHandler.
func NewSettingsHandler(db *gorm.DB) *SettingsHandler {
	return &SettingsHandler{db: db}
}

// Get returns every setting with defaults filled in.
func (h *SettingsHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"settings":   settings.All(),
		"updated_at": settings.UpdatedAt(),
	})
}

// Update stores the given keys and refreshes the in-memory snapshot.
func (h *SettingsHandler) Update(c *gin.Context) {
	var body map[string]json.RawMessage
	if !apiutil.BindJSON(c, &body) {
		return
	}
	if len(body) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no settings"})
		return
	}
	for key := range body {
		if !settings.Known(key) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown setting " + key})
			return
		}
	}
	if errSave := settings.Save(c.Request.Context(), h.db, apiutil.Actor(c).ID, body); errSave != nil {
		apiutil.WriteError(c, errSave)
		return
	}
	h.Get(c)
}
