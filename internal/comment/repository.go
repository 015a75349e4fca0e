package comment

import (
	"gorm.io/gorm"
)

type Repository interface {
	Create(c *Comment) error
	GetByID(id uint) (*Comment, error)
	Update(c *Comment) error
	Delete(c *Comment) error
	ListByIntent(intentID uint, limit, offset int) ([]Comment, int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(c *Comment) error {
	return r.db.Create(c).Error
}

func (r *repository) GetByID(id uint) (*Comment, error) {
	var c Comment
	if err := r.db.First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) Update(c *Comment) error {
	return r.db.Save(c).Error
}

// Delete soft-deletes via gorm.DeletedAt.
func (r *repository) Delete(c *Comment) error {
	return r.db.Delete(c).Error
}

func (r *repository) ListByIntent(intentID uint, limit, offset int) ([]Comment, int64, error) {
	var comments []Comment
	var total int64

	q := r.db.Model(&Comment{}).Where("intent_id = ?", intentID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.
		Table("comments").
		Select("comments.*, users.full_name AS author_name").
		Joins("LEFT JOIN users ON users.id = comments.author_id").
		Where("comments.intent_id = ? AND comments.deleted_at IS NULL", intentID).
		Order("comments.created_at ASC").
		Limit(limit).Offset(offset).
		Scan(&comments).Error
	return comments, total, err
}
