package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/miglee/miglee-backend/config"
	"github.com/miglee/miglee-backend/internal/guard"
	"github.com/miglee/miglee-backend/utils"
)

type Service interface {
	Register(req RegisterRequest) (*User, error)
	Login(req LoginRequest) (*TokenPair, *User, error)
	Refresh(refreshToken string) (string, error)
	Logout(userID uint) error
	GetUserByID(userID uint) (*User, error)
}

type service struct {
	repo          Repository
	accessSecret  string
	refreshSecret string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewService(r Repository, cfg *config.Config) Service {
	return &service{
		repo:          r,
		accessSecret:  cfg.JWTAccessSecret,
		refreshSecret: cfg.JWTRefreshSecret,
		accessTTL:     time.Duration(cfg.JWTAccessTTLHours) * time.Hour,
		refreshTTL:    time.Duration(cfg.JWTRefreshTTLHours) * time.Hour,
	}
}

func (s *service) Register(req RegisterRequest) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.repo.FindByEmail(email); err == nil {
		return nil, errors.New("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &User{
		FullName:     req.FullName,
		Email:        email,
		PasswordHash: string(hash),
		Role:         guard.RoleUser,
		Status:       StatusActive,
	}

	if err := s.repo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *service) Login(req LoginRequest) (*TokenPair, *User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.repo.FindByEmail(email)
	if err != nil {
		return nil, nil, errors.New("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, nil, errors.New("invalid credentials")
	}

	if user.Status == StatusBanned {
		return nil, nil, guard.Forbidden("account is banned")
	}

	access, err := s.signToken(user, s.accessSecret, s.accessTTL)
	if err != nil {
		return nil, nil, err
	}
	refresh, err := s.signToken(user, s.refreshSecret, s.refreshTTL)
	if err != nil {
		return nil, nil, err
	}

	// Refresh tokens are single-active per user; the stored copy is the one
	// accepted on refresh.
	utils.CacheSet(context.Background(), refreshKey(user.ID), refresh, s.refreshTTL)

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, user, nil
}

func (s *service) Refresh(refreshToken string) (string, error) {
	token, err := jwt.Parse(refreshToken, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.refreshSecret), nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid refresh token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid refresh token claims")
	}
	userIDFloat, ok := claims["user_id"].(float64)
	if !ok {
		return "", errors.New("user_id missing in refresh token")
	}
	userID := uint(userIDFloat)

	stored := utils.CacheGet(context.Background(), refreshKey(userID))
	if stored != "" && stored != refreshToken {
		return "", errors.New("refresh token superseded")
	}

	user, err := s.repo.FindByID(userID)
	if err != nil {
		return "", errors.New("user not found")
	}
	if user.Status == StatusBanned {
		return "", guard.Forbidden("account is banned")
	}

	return s.signToken(user, s.accessSecret, s.accessTTL)
}

func (s *service) Logout(userID uint) error {
	utils.CacheDel(context.Background(), refreshKey(userID))
	return nil
}

func (s *service) GetUserByID(userID uint) (*User, error) {
	return s.repo.FindByID(userID)
}

func (s *service) signToken(user *User, secret string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"role":    user.Role,
		"exp":     time.Now().Add(ttl).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func refreshKey(userID uint) string {
	return fmt.Sprintf("auth:refresh:%d", userID)
}

// SeedAdminUser ensures the platform admin account exists on startup.
func SeedAdminUser(db *gorm.DB, cfg *config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		log.Println("⚠️ ADMIN_EMAIL/ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}

	var existing User
	err := db.Where("email = ?", cfg.AdminEmail).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := &User{
		FullName:     "Platform Admin",
		Email:        cfg.AdminEmail,
		PasswordHash: string(hash),
		Role:         guard.RoleAdmin,
		Status:       StatusActive,
	}
	if err := db.Create(admin).Error; err != nil {
		return err
	}
	log.Printf("✅ Seeded admin user %s", cfg.AdminEmail)
	return nil
}
