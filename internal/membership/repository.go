package membership

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	Find(intentID, userID uint) (*Member, error)
	Create(m *Member) error
	Update(m *Member) error
	Upsert(m *Member) error
	ListByIntent(intentID uint, status string) ([]MemberResponse, error)
	CountJoined(intentID uint) (int, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Find(intentID, userID uint) (*Member, error) {
	var m Member
	err := r.db.
		Where("intent_id = ? AND user_id = ?", intentID, userID).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repository) Create(m *Member) error {
	return r.db.Create(m).Error
}

func (r *repository) Update(m *Member) error {
	return r.db.Save(m).Error
}

// Upsert creates the row or overwrites status/role/joined_at/left_at on
// conflict of the composite key.
func (r *repository) Upsert(m *Member) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "intent_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "role", "joined_at", "left_at", "updated_at",
		}),
	}).Create(m).Error
}

func (r *repository) ListByIntent(intentID uint, status string) ([]MemberResponse, error) {
	var members []MemberResponse

	query := r.db.Table("members m").
		Select("m.*, u.full_name").
		Joins("LEFT JOIN users u ON u.id = m.user_id").
		Where("m.intent_id = ?", intentID)

	if status != "" {
		query = query.Where("m.status = ?", status)
	}

	err := query.Order("m.created_at ASC").Scan(&members).Error
	return members, err
}

func (r *repository) CountJoined(intentID uint) (int, error) {
	var count int64
	err := r.db.Model(&Member{}).
		Where("intent_id = ? AND status = ?", intentID, StatusJoined).
		Count(&count).Error
	return int(count), err
}
