package intent

import (
	"gorm.io/gorm"
)

type Repository interface {
	Create(i *Intent) error
	GetByID(id uint) (*Intent, error)
	Update(i *Intent) error
	SoftDelete(id uint) error
	ListPublic(limit, offset int, search string) ([]Intent, error)
	ListByOwner(ownerID uint) ([]Intent, error)
	CountJoinedMembers(intentID uint) (int, error)
	MemberRoleAndStatus(intentID, userID uint) (role string, status string, err error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(i *Intent) error {
	return r.db.Create(i).Error
}

func (r *repository) GetByID(id uint) (*Intent, error) {
	var i Intent
	if err := r.db.First(&i, id).Error; err != nil {
		return nil, err
	}

	count, err := r.CountJoinedMembers(i.ID)
	if err != nil {
		return nil, err
	}
	i.MemberCount = count
	return &i, nil
}

func (r *repository) Update(i *Intent) error {
	return r.db.Save(i).Error
}

func (r *repository) SoftDelete(id uint) error {
	return r.db.Delete(&Intent{}, id).Error
}

func (r *repository) ListPublic(limit, offset int, search string) ([]Intent, error) {
	var intents []Intent

	query := r.db.Where("visibility = ? AND canceled_at IS NULL", VisibilityPublic)
	if search != "" {
		ilike := "%" + search + "%"
		query = query.Where("title ILIKE ? OR description ILIKE ?", ilike, ilike)
	}

	err := query.
		Order("start_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&intents).Error
	if err != nil {
		return nil, err
	}

	for i := range intents {
		count, _ := r.CountJoinedMembers(intents[i].ID)
		intents[i].MemberCount = count
	}
	return intents, nil
}

func (r *repository) ListByOwner(ownerID uint) ([]Intent, error) {
	var intents []Intent
	err := r.db.
		Where("owner_id = ?", ownerID).
		Order("start_at ASC").
		Find(&intents).Error
	return intents, err
}

func (r *repository) CountJoinedMembers(intentID uint) (int, error) {
	var count int64
	err := r.db.Table("members").
		Where("intent_id = ? AND status = ?", intentID, "JOINED").
		Count(&count).Error
	return int(count), err
}

// MemberRoleAndStatus reads the caller's membership row without importing the
// membership package. Empty strings mean no row exists.
func (r *repository) MemberRoleAndStatus(intentID, userID uint) (string, string, error) {
	var row struct {
		Role   string
		Status string
	}
	err := r.db.Table("members").
		Select("role, status").
		Where("intent_id = ? AND user_id = ?", intentID, userID).
		Scan(&row).Error
	if err != nil {
		return "", "", err
	}
	return row.Role, row.Status, nil
}
