package admin

import (
	"github.com/gin-gonic/gin"
	"github.com/streethall/hoa/internal/config"
	"github.com/streethall/hoa/internal/http/api/admin/handlers"
	"github.com/streethall/hoa/internal/http/middleware"
	"github.com/streethall/hoa/internal/service"
	"gorm.io/gorm"
)

// Deps carries the collaborators the admin surface needs beyond the services.
type Deps struct {
	DB       *gorm.DB
	Services *service.Services
	JWT      config.JWTConfig
	// Activity streams live entries; nil disables the stream endpoint.
	Activity handlers.ActivitySubscriber
	// Redis is pinged by the health check when set.
	Redis handlers.Pinger
}

// RegisterAdminRoutes registers the management routes under /v0/admin.
func RegisterAdminRoutes(r *gin.Engine, deps Deps) {
	if r == nil || deps.DB == nil || deps.Services == nil {
		return
	}
	svc := deps.Services

	root := r.Group("/v0/admin")
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Redis)
	root.GET("/healthz", healthHandler.Healthz)
	root.GET("/version", handlers.GetVersion)

	authed := root.Group("")
	authed.Use(middleware.UserAuth(svc.Users, deps.JWT), middleware.RequireAdmin())

	userHandler := handlers.NewUserHandler(svc.Users)
	authed.GET("/users", userHandler.List)
	authed.GET("/users/:id", userHandler.Get)
	authed.PUT("/users/:id", userHandler.Update)
	authed.PUT("/users/:id/role", userHandler.SetRole)
	authed.PUT("/users/:id/status", userHandler.SetStatus)

	groupHandler := handlers.NewGroupHandler(svc.Groups)
	authed.POST("/groups", groupHandler.Create)
	authed.GET("/groups", groupHandler.List)
	authed.GET("/groups/:id", groupHandler.Get)
	authed.PUT("/groups/:id", groupHandler.Update)
	authed.DELETE("/groups/:id", groupHandler.Delete)
	authed.GET("/groups/:id/members", groupHandler.Members)
	authed.POST("/groups/:id/members", groupHandler.AddMember)
	authed.PUT("/groups/:id/members/:userId", groupHandler.SetMemberStatus)
	authed.DELETE("/groups/:id/members/:userId", groupHandler.RemoveMember)

	pollHandler := handlers.NewPollHandler(svc.Polls)
	authed.POST("/polls", pollHandler.Create)
	authed.GET("/polls", pollHandler.List)
	authed.GET("/polls/:id", pollHandler.Get)
	authed.PUT("/polls/:id", pollHandler.Update)
	authed.DELETE("/polls/:id", pollHandler.Delete)
	authed.POST("/polls/:id/options", pollHandler.AddOption)
	authed.PUT("/polls/:id/options/:optionId", pollHandler.UpdateOption)
	authed.DELETE("/polls/:id/options/:optionId", pollHandler.RemoveOption)
	authed.POST("/polls/:id/transition", pollHandler.Transition)
	authed.GET("/polls/:id/results", pollHandler.Results)

	registerFunding(authed, "/campaigns", "contributions", handlers.NewFundingHandler(svc.Campaigns))
	registerFunding(authed, "/payment-requests", "reports", handlers.NewFundingHandler(svc.PaymentRequests))

	eventHandler := handlers.NewEventHandler(svc.Events)
	authed.POST("/events", eventHandler.Create)
	authed.GET("/events", eventHandler.List)
	authed.PUT("/events/:id", eventHandler.Update)
	authed.DELETE("/events/:id", eventHandler.Delete)

	postHandler := handlers.NewPostHandler(svc.Posts)
	authed.POST("/posts", postHandler.Create)
	authed.GET("/posts", postHandler.List)
	authed.GET("/posts/:id", postHandler.Get)
	authed.PUT("/posts/:id", postHandler.Update)
	authed.DELETE("/posts/:id", postHandler.Delete)
	authed.POST("/posts/:id/publish", postHandler.Publish)
	authed.POST("/posts/:id/unpublish", postHandler.Unpublish)

	settingsHandler := handlers.NewSettingsHandler(deps.DB)
	authed.GET("/settings", settingsHandler.Get)
	authed.PUT("/settings", settingsHandler.Update)

	activityHandler := handlers.NewActivityHandler(deps.DB, deps.Activity)
	authed.GET("/activity", activityHandler.List)
	authed.GET("/activity/stream", activityHandler.Stream)

	dashboardHandler := handlers.NewDashboardHandler(svc.Dashboard)
	authed.GET("/dashboard", dashboardHandler.Overview)
}

type fundingRoutes interface {
	Create(c *gin.Context)
	List(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Close(c *gin.Context)
	Delete(c *gin.Context)
	Progress(c *gin.Context)
	Submissions(c *gin.Context)
	SetSubmissionStatus(c *gin.Context)
	DeleteSubmission(c *gin.Context)
}

func registerFunding(g *gin.RouterGroup, base, sub string, h fundingRoutes) {
	g.POST(base, h.Create)
	g.GET(base, h.List)
	g.GET(base+"/:id", h.Get)
	g.PUT(base+"/:id", h.Update)
	g.POST(base+"/:id/close", h.Close)
	g.DELETE(base+"/:id", h.Delete)
	g.GET(base+"/:id/progress", h.Progress)
	g.GET(base+"/:id/"+sub, h.Submissions)
	g.PUT(base+"/:id/"+sub+"/:subId/status", h.SetSubmissionStatus)
	g.DELETE(base+"/:id/"+sub+"/:subId", h.DeleteSubmission)
}
