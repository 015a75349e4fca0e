package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/miglee/miglee-backend/config"
	"github.com/miglee/miglee-backend/internal/admin"
	"github.com/miglee/miglee-backend/internal/auditlog"
	"github.com/miglee/miglee-backend/internal/auth"
	"github.com/miglee/miglee-backend/internal/checkin"
	"github.com/miglee/miglee-backend/internal/comment"
	"github.com/miglee/miglee-backend/internal/export"
	"github.com/miglee/miglee-backend/internal/favorite"
	"github.com/miglee/miglee-backend/internal/guard"
	"github.com/miglee/miglee-backend/internal/intent"
	"github.com/miglee/miglee-backend/internal/invitelink"
	"github.com/miglee/miglee-backend/internal/membership"
	"github.com/miglee/miglee-backend/internal/notification"
	"github.com/miglee/miglee-backend/internal/report"
	"github.com/miglee/miglee-backend/middleware"
)

// Handlers bundles every module handler for route registration.
type Handlers struct {
	Auth         *auth.Handler
	Intent       *intent.Handler
	Membership   *membership.Handler
	InviteLink   *invitelink.Handler
	Checkin      *checkin.Handler
	Comment      *comment.Handler
	Favorite     *favorite.Handler
	Notification *notification.Handler
	Report       *report.Handler
	Admin        *admin.Handler
	Export       *export.Handler
	AuditLog     *auditlog.Handler
}

// SetupRoutes registers the whole API surface under /api/v1.
func SetupRoutes(r *gin.Engine, cfg *config.Config, authSvc auth.Service, h *Handlers) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	v1.Use(middleware.AuditMiddleware())

	// Auth: login/register are rate limited harder than the rest of the API
	authGroup := v1.Group("/auth")
	authGroup.Use(middleware.RateLimiter(10, time.Minute))
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)
	}

	// Public reads: anonymous browsing allowed, actor resolved when present
	public := v1.Group("")
	public.Use(middleware.OptionalAuth(cfg, authSvc))
	{
		public.GET("/intents", h.Intent.ListIntents)
		public.GET("/intents/:id", h.Intent.GetIntent)
	}

	// Everything below requires a valid access token
	authed := v1.Group("")
	authed.Use(middleware.AuthMiddleware(cfg, authSvc))
	{
		authed.POST("/auth/logout", h.Auth.Logout)
		authed.GET("/auth/me", h.Auth.Me)

		authed.POST("/intents", h.Intent.CreateIntent)
		authed.GET("/intents/mine", h.Intent.ListOwnIntents)
		authed.PUT("/intents/:id", h.Intent.UpdateIntent)
		authed.POST("/intents/:id/cancel", h.Intent.CancelIntent)
		authed.DELETE("/intents/:id", h.Intent.DeleteIntent)

		authed.POST("/intents/:id/join", h.Membership.Join)
		authed.POST("/intents/:id/leave", h.Membership.Leave)
		authed.GET("/intents/:id/members", h.Membership.ListMembers)
		authed.POST("/intents/:id/members/:userId/approve", h.Membership.Approve)
		authed.POST("/intents/:id/members/:userId/reject", h.Membership.Reject)
		authed.POST("/intents/:id/members/:userId/kick", h.Membership.Kick)
		authed.POST("/intents/:id/members/:userId/ban", h.Membership.Ban)
		authed.POST("/intents/:id/members/:userId/invite", h.Membership.Invite)
		authed.PATCH("/intents/:id/members/:userId/moderator", h.Membership.SetModerator)

		authed.POST("/intents/:id/invite-links", h.InviteLink.CreateLink)
		authed.GET("/intents/:id/invite-links", h.InviteLink.ListLinks)
		authed.POST("/intents/:id/invite-links/:token/revoke", h.InviteLink.RevokeLink)
		authed.POST("/invite-links/:token/redeem", middleware.RateLimiter(30, time.Minute), h.InviteLink.Redeem)

		authed.GET("/intents/:id/checkin/token", h.Checkin.GetEventToken)
		authed.POST("/intents/:id/checkin/token/rotate", h.Checkin.RotateEventToken)
		authed.GET("/intents/:id/checkin/my-token", h.Checkin.GetPersonalToken)
		authed.POST("/intents/:id/checkin/my-token/rotate", h.Checkin.RotatePersonalToken)
		authed.POST("/intents/:id/checkin/event-qr", h.Checkin.CheckInByEventQr)
		authed.POST("/intents/:id/checkin/self", h.Checkin.SelfCheckIn)
		authed.POST("/intents/:id/checkin/members/:userId", h.Checkin.PanelCheckIn)
		authed.POST("/checkin/user-qr", h.Checkin.CheckInByUserQr)

		authed.POST("/intents/:id/comments", h.Comment.CreateComment)
		authed.GET("/intents/:id/comments", h.Comment.ListComments)
		authed.PUT("/comments/:commentId", h.Comment.UpdateComment)
		authed.DELETE("/comments/:commentId", h.Comment.DeleteComment)

		authed.POST("/intents/:id/favorite", h.Favorite.Toggle)
		authed.GET("/me/favorites", h.Favorite.ListOwn)

		authed.GET("/me/notifications", h.Notification.List)
		authed.POST("/me/notifications/:id/read", h.Notification.MarkRead)
		authed.POST("/me/notifications/read-all", h.Notification.MarkAllRead)
		authed.POST("/me/devices", h.Notification.RegisterDevice)
		authed.DELETE("/me/devices", h.Notification.UnregisterDevice)

		authed.POST("/reports", h.Report.CreateReport)
	}

	// Admin surface
	adminGroup := v1.Group("/admin")
	adminGroup.Use(middleware.AuthMiddleware(cfg, authSvc), middleware.RBACMiddleware(guard.RoleAdmin))
	{
		adminGroup.PUT("/intents/:id", h.Admin.UpdateIntent)
		adminGroup.POST("/intents/bulk-update", h.Admin.BulkUpdateIntents)
		adminGroup.POST("/intents/:id/owner", h.Admin.ChangeIntentOwner)
		adminGroup.POST("/users/:id/ban", h.Admin.BanUser)
		adminGroup.POST("/users/:id/unban", h.Admin.UnbanUser)

		adminGroup.GET("/reports", h.Report.ListReports)
		adminGroup.POST("/reports/:id/review", h.Report.ReviewReport)

		adminGroup.GET("/exports/intents", h.Export.IntentsReport)
		adminGroup.GET("/exports/intents/:id/members", h.Export.MembersReport)

		adminGroup.GET("/audit-logs", h.AuditLog.GetAuditLogs)
		adminGroup.GET("/audit-logs/:id", h.AuditLog.GetAuditLogByID)
	}
}
