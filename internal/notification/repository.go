package notification

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	Create(n *Notification) error
	ListForUser(userID uint, unreadOnly bool, limit, offset int) ([]Notification, int64, error)
	MarkRead(userID, notificationID uint) error
	MarkAllRead(userID uint) error

	UpsertDeviceToken(t *FCMDeviceToken) error
	DeleteDeviceToken(userID uint, token string) error
	ListDeviceTokens(userID uint) ([]FCMDeviceToken, error)
	DeleteStaleToken(token string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(n *Notification) error {
	return r.db.Create(n).Error
}

func (r *repository) ListForUser(userID uint, unreadOnly bool, limit, offset int) ([]Notification, int64, error) {
	var notifications []Notification
	var total int64

	q := r.db.Model(&Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&notifications).Error
	return notifications, total, err
}

func (r *repository) MarkRead(userID, notificationID uint) error {
	return r.db.Model(&Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true).Error
}

func (r *repository) MarkAllRead(userID uint) error {
	return r.db.Model(&Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
}

// UpsertDeviceToken re-binds a token to its latest user; a device that logs
// into a second account must stop receiving the first account's pushes.
func (r *repository) UpsertDeviceToken(t *FCMDeviceToken) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "platform", "updated_at"}),
	}).Create(t).Error
}

func (r *repository) DeleteDeviceToken(userID uint, token string) error {
	return r.db.Where("user_id = ? AND token = ?", userID, token).Delete(&FCMDeviceToken{}).Error
}

func (r *repository) ListDeviceTokens(userID uint) ([]FCMDeviceToken, error) {
	var tokens []FCMDeviceToken
	err := r.db.Where("user_id = ?", userID).Find(&tokens).Error
	return tokens, err
}

// DeleteStaleToken drops a token FCM reported as unregistered.
func (r *repository) DeleteStaleToken(token string) error {
	return r.db.Where("token = ?", token).Delete(&FCMDeviceToken{}).Error
}
