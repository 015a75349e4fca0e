package main

import (
	"context"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/miglee/miglee-backend/config"
	"github.com/miglee/miglee-backend/database"
	_ "github.com/miglee/miglee-backend/docs"
	"github.com/miglee/miglee-backend/internal/admin"
	"github.com/miglee/miglee-backend/internal/auditlog"
	"github.com/miglee/miglee-backend/internal/auth"
	"github.com/miglee/miglee-backend/internal/checkin"
	"github.com/miglee/miglee-backend/internal/comment"
	"github.com/miglee/miglee-backend/internal/export"
	"github.com/miglee/miglee-backend/internal/favorite"
	"github.com/miglee/miglee-backend/internal/intent"
	"github.com/miglee/miglee-backend/internal/invitelink"
	"github.com/miglee/miglee-backend/internal/membership"
	"github.com/miglee/miglee-backend/internal/notification"
	"github.com/miglee/miglee-backend/internal/report"
	"github.com/miglee/miglee-backend/routes"
	"github.com/miglee/miglee-backend/utils"
)

// @title Miglee API
// @version 1.0
// @description Event coordination backend: intents, membership, invites, check-in.
// @BasePath /api/v1
func main() {
	cfg := config.Load()

	db := database.Connect(cfg)

	if err := db.AutoMigrate(
		&auth.User{},
		&intent.Intent{},
		&membership.Member{},
		&invitelink.InviteLink{},
		&checkin.Token{},
		&comment.Comment{},
		&favorite.Favorite{},
		&notification.Notification{},
		&notification.FCMDeviceToken{},
		&report.Report{},
		&auditlog.AuditLog{},
	); err != nil {
		log.Fatalf("❌ Auto-migration failed: %v", err)
	}
	log.Println("✅ Database migrated")

	if err := utils.InitRedis(cfg); err != nil {
		log.Printf("⚠️ Redis unavailable, caching disabled: %v", err)
	}
	utils.InitializeKafka(cfg)
	if err := utils.InitFirebase(); err != nil {
		log.Printf("⚠️ Push notifications disabled: %v", err)
	}

	if err := auth.SeedAdminUser(db, cfg); err != nil {
		log.Printf("⚠️ Admin seed failed: %v", err)
	}

	// Repositories
	userRepo := auth.NewRepository(db)
	intentRepo := intent.NewRepository(db)
	memberRepo := membership.NewRepository(db)
	inviteRepo := invitelink.NewRepository(db)
	checkinRepo := checkin.NewRepository(db)
	commentRepo := comment.NewRepository(db)
	favoriteRepo := favorite.NewRepository(db)
	notificationRepo := notification.NewRepository(db)
	reportRepo := report.NewRepository(db)
	auditRepo := auditlog.NewRepository(db)
	exportRepo := export.NewRepository(db)

	// Services
	auditSvc := auditlog.NewService(auditRepo)
	authSvc := auth.NewService(userRepo, cfg)
	intentSvc := intent.NewService(intentRepo, auditSvc)
	memberSvc := membership.NewService(memberRepo, intentRepo, auditSvc)
	intentSvc.Members = memberSvc
	inviteSvc := invitelink.NewService(inviteRepo, memberSvc, intentRepo, auditSvc)
	checkinSvc := checkin.NewService(checkinRepo, memberSvc, auditSvc)
	commentSvc := comment.NewService(commentRepo, memberSvc, auditSvc)
	favoriteSvc := favorite.NewService(favoriteRepo, intentSvc)
	notificationSvc := notification.NewService(notificationRepo, userRepo, cfg)
	reportSvc := report.NewService(reportRepo, auditSvc)
	adminSvc := admin.NewService(intentSvc, memberSvc, userRepo, auditSvc)
	exportSvc := export.NewService(exportRepo, auditSvc)

	// Notification fan-out runs for the life of the process
	notification.StartKafkaConsumer(context.Background(), notificationSvc)

	handlers := &routes.Handlers{
		Auth:         auth.NewHandler(authSvc),
		Intent:       intent.NewHandler(intentSvc),
		Membership:   membership.NewHandler(memberSvc),
		InviteLink:   invitelink.NewHandler(inviteSvc),
		Checkin:      checkin.NewHandler(checkinSvc),
		Comment:      comment.NewHandler(commentSvc),
		Favorite:     favorite.NewHandler(favoriteSvc),
		Notification: notification.NewHandler(notificationSvc),
		Report:       report.NewHandler(reportSvc),
		Admin:        admin.NewHandler(adminSvc),
		Export:       export.NewHandler(exportSvc),
		AuditLog:     auditlog.NewHandler(auditSvc),
	}

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: false,
	}))

	routes.SetupRoutes(r, cfg, authSvc, handlers)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}
	log.Printf("🚀 Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("❌ Server failed: %v", err)
	}
}
