package report

import (
	"gorm.io/gorm"
)

type Repository interface {
	Create(r *Report) error
	GetByID(id uint) (*Report, error)
	Update(r *Report) error
	List(status, entityType string, limit, offset int) ([]Report, int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(rep *Report) error {
	return r.db.Create(rep).Error
}

func (r *repository) GetByID(id uint) (*Report, error) {
	var rep Report
	if err := r.db.First(&rep, id).Error; err != nil {
		return nil, err
	}
	return &rep, nil
}

func (r *repository) Update(rep *Report) error {
	return r.db.Save(rep).Error
}

func (r *repository) List(status, entityType string, limit, offset int) ([]Report, int64, error) {
	var reports []Report
	var total int64

	q := r.db.Model(&Report{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if entityType != "" {
		q = q.Where("entity_type = ?", entityType)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&reports).Error
	return reports, total, err
}
