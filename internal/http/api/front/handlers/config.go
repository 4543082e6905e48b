package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/streethall/hoa/internal/settings"
)

// publicConfigResponse is the response payload for public config.
type publicConfigResponse struct {
	SiteName          string `json:"site_name"`
	Currency          string `json:"currency"`
	AllowRegistration bool   `json:"allow_registration"`
}

// GetPublicConfig returns the settings the front end needs before sign-in.
func GetPublicConfig(c *gin.Context) {
	c.JSON(http.StatusOK, publicConfigResponse{
		SiteName:          settings.SiteName(),
		Currency:          settings.Currency(),
		AllowRegistration: settings.AllowRegistration(),
	})
}
