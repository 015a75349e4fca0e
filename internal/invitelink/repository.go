package invitelink

import (
	"gorm.io/gorm"
)

type Repository interface {
	Create(l *InviteLink) error
	FindByToken(token string) (*InviteLink, error)
	Update(l *InviteLink) error
	ListByIntent(intentID uint) ([]InviteLink, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(l *InviteLink) error {
	return r.db.Create(l).Error
}

func (r *repository) FindByToken(token string) (*InviteLink, error) {
	var l InviteLink
	if err := r.db.Where("token = ?", token).First(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repository) Update(l *InviteLink) error {
	return r.db.Save(l).Error
}

func (r *repository) ListByIntent(intentID uint) ([]InviteLink, error) {
	var links []InviteLink
	err := r.db.
		Where("intent_id = ?", intentID).
		Order("created_at DESC").
		Find(&links).Error
	return links, err
}
