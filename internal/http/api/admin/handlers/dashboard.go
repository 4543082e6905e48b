package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/streethall/hoa/internal/http/api/apiutil"
	"github.com/streethall/hoa/internal/service"
)

// DashboardHandler serves the admin overview.
type DashboardHandler struct {
	dashboard *service.DashboardService
}

// NewDashboardHandler constructs a DashboardHandler.
func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Overview returns group counts, open goals with progress and active polls.
func (h *DashboardHandler) Overview(c *gin.Context) {
	overview, errOverview := h.dashboard.Overview(c.Request.Context(), apiutil.Actor(c))
	if errOverview != nil {
		apiutil.WriteError(c, errOverview)
		return
	}
	c.JSON(http.StatusOK, overview)
}
