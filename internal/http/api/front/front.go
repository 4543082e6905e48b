package front

import (
	"github.com/gin-gonic/gin"
	"github.com/streethall/hoa/internal/config"
	"github.com/streethall/hoa/internal/http/api/front/handlers"
	"github.com/streethall/hoa/internal/http/middleware"
	"github.com/streethall/hoa/internal/service"
)

// RegisterFrontRoutes registers public and authenticated resident routes.
func RegisterFrontRoutes(r *gin.Engine, svc *service.Services, jwtCfg config.JWTConfig) {
	if r == nil || svc == nil {
		return
	}

	front := r.Group("/v0/front")

	authHandler := handlers.NewAuthHandler(svc.Users, jwtCfg)
	front.POST("/register", authHandler.Register)
	front.POST("/login", authHandler.Login)
	front.POST("/login/totp", authHandler.LoginTOTP)
	front.GET("/config", handlers.GetPublicConfig)

	authed := front.Group("")
	authed.Use(middleware.UserAuth(svc.Users, jwtCfg))

	profileHandler := handlers.NewProfileHandler(svc.Users, svc.Groups)
	authed.GET("/profile", profileHandler.Get)
	authed.PUT("/profile", profileHandler.Update)
	authed.PUT("/profile/password", profileHandler.ChangePassword)

	mfaHandler := handlers.NewMFAHandler(svc.Users)
	authed.GET("/mfa/status", mfaHandler.Status)
	authed.POST("/mfa/totp/prepare", mfaHandler.PrepareTOTP)
	authed.POST("/mfa/totp/confirm", mfaHandler.ConfirmTOTP)
	authed.POST("/mfa/totp/disable", mfaHandler.DisableTOTP)

	groupHandler := handlers.NewGroupHandler(svc.Groups)
	authed.GET("/groups", groupHandler.List)
	authed.GET("/groups/:id", groupHandler.Get)
	authed.GET("/groups/:id/members", groupHandler.Members)
	authed.POST("/groups/:id/members", groupHandler.AddMember)
	authed.PUT("/groups/:id/members/:userId", groupHandler.SetMemberStatus)
	authed.DELETE("/groups/:id/members/:userId", groupHandler.RemoveMember)

	pollHandler := handlers.NewPollHandler(svc.Polls)
	authed.GET("/polls", pollHandler.List)
	authed.GET("/polls/:id", pollHandler.Get)
	authed.GET("/polls/:id/results", pollHandler.Results)
	authed.POST("/polls/:id/votes", pollHandler.Vote)
	authed.GET("/polls/:id/votes/:groupId", pollHandler.GroupVote)

	registerFunding(authed, "/campaigns", "contributions", handlers.NewFundingHandler(svc.Campaigns))
	registerFunding(authed, "/payment-requests", "reports", handlers.NewFundingHandler(svc.PaymentRequests))

	contentHandler := handlers.NewContentHandler(svc.Events, svc.Posts)
	authed.GET("/events", contentHandler.ListEvents)
	authed.GET("/events/:id", contentHandler.GetEvent)
	authed.GET("/posts", contentHandler.ListPosts)
	authed.GET("/posts/:id", contentHandler.GetPost)

	dashboardHandler := handlers.NewDashboardHandler(svc.Dashboard)
	authed.GET("/dashboard", dashboardHandler.Overview)
}

// fundingRoutes is the handler surface shared by campaigns and payment requests.
type fundingRoutes interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	Progress(c *gin.Context)
	Submissions(c *gin.Context)
	Submit(c *gin.Context)
	UpdateSubmission(c *gin.Context)
	DeleteSubmission(c *gin.Context)
}

func registerFunding(g *gin.RouterGroup, base, sub string, h fundingRoutes) {
	g.GET(base, h.List)
	g.GET(base+"/:id", h.Get)
	g.GET(base+"/:id/progress", h.Progress)
	g.GET(base+"/:id/"+sub, h.Submissions)
	g.POST(base+"/:id/"+sub, h.Submit)
	g.PUT(base+"/:id/"+sub+"/:subId", h.UpdateSubmission)
	g.DELETE(base+"/:id/"+sub+"/:subId", h.DeleteSubmission)
}
