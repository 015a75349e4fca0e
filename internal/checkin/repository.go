package checkin

import (
	"gorm.io/gorm"
)

type Repository interface {
	FindEventToken(intentID uint) (*Token, error)
	FindPersonalToken(intentID, userID uint) (*Token, error)
	FindByValue(value string) (*Token, error)
	Create(t *Token) error
	Update(t *Token) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindEventToken(intentID uint) (*Token, error) {
	var t Token
	err := r.db.
		Where("intent_id = ? AND scope = ?", intentID, ScopeEvent).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repository) FindPersonalToken(intentID, userID uint) (*Token, error) {
	var t Token
	err := r.db.
		Where("intent_id = ? AND user_id = ? AND scope = ?", intentID, userID, ScopePersonal).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repository) FindByValue(value string) (*Token, error) {
	var t Token
	if err := r.db.Where("value = ?", value).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repository) Create(t *Token) error {
	return r.db.Create(t).Error
}

func (r *repository) Update(t *Token) error {
	return r.db.Save(t).Error
}
