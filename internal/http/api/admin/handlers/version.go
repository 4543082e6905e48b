package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/streethall/hoa/internal/buildinfo"
)

// VersionResponse describes the running build.
type VersionResponse struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
}

// GetVersion returns build metadata.
func GetVersion(c *gin.Context) {
	c.JSON(http.StatusOK, VersionResponse{
		Version:   buildinfo.Version,
		Commit:    buildinfo.Commit,
		BuildDate: buildinfo.BuildDate,
	})
}
