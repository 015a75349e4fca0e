package favorite

import (
	"gorm.io/gorm"

	"github.com/miglee/miglee-backend/internal/intent"
)

type Repository interface {
	Find(userID, intentID uint) (*Favorite, error)
	Create(f *Favorite) error
	Delete(userID, intentID uint) error
	ListIntentsForUser(userID uint) ([]intent.Intent, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Find(userID, intentID uint) (*Favorite, error) {
	var f Favorite
	err := r.db.Where("user_id = ? AND intent_id = ?", userID, intentID).First(&f).Error
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *repository) Create(f *Favorite) error {
	return r.db.Create(f).Error
}

func (r *repository) Delete(userID, intentID uint) error {
	return r.db.Where("user_id = ? AND intent_id = ?", userID, intentID).Delete(&Favorite{}).Error
}

// ListIntentsForUser joins favorites against live intents so soft-deleted
// events drop out of the list automatically.
func (r *repository) ListIntentsForUser(userID uint) ([]intent.Intent, error) {
	var intents []intent.Intent
	err := r.db.
		Table("intents").
		Joins("JOIN favorites ON favorites.intent_id = intents.id").
		Where("favorites.user_id = ? AND intents.deleted_at IS NULL", userID).
		Order("intents.start_at ASC").
		Scan(&intents).Error
	return intents, err
}
