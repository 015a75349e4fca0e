package export

import (
	"time"

	"gorm.io/gorm"
)

// IntentRow is one line of the intents report.
type IntentRow struct {
	ID          uint
	Title       string
	OwnerEmail  string
	Visibility  string
	JoinMode    string
	StartAt     time.Time
	MemberCount int
	CheckedIn   int
	Canceled    bool
}

// MemberRow is one line of the per-intent members / attendance report.
type MemberRow struct {
	UserID        uint
	FullName      string
	Email         string
	Status        string
	Role          string
	IsCheckedIn   bool
	CheckedInAt   *time.Time
	CheckInMethod string
	JoinedAt      *time.Time
}

type Repository interface {
	IntentRows(from, to *time.Time) ([]IntentRow, error)
	MemberRows(intentID uint) ([]MemberRow, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) IntentRows(from, to *time.Time) ([]IntentRow, error) {
	var rows []IntentRow

	q := r.db.
		Table("intents").
		Select(`intents.id,
			intents.title,
			users.email AS owner_email,
			intents.visibility,
			intents.join_mode,
			intents.start_at,
			intents.canceled_at IS NOT NULL AS canceled,
			COUNT(members.user_id) FILTER (WHERE members.status = 'JOINED') AS member_count,
			COUNT(members.user_id) FILTER (WHERE members.is_checked_in) AS checked_in`).
		Joins("LEFT JOIN users ON users.id = intents.owner_id").
		Joins("LEFT JOIN members ON members.intent_id = intents.id").
		Where("intents.deleted_at IS NULL").
		Group("intents.id, users.email").
		Order("intents.start_at DESC")

	if from != nil {
		q = q.Where("intents.start_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("intents.start_at <= ?", *to)
	}

	err := q.Scan(&rows).Error
	return rows, err
}

func (r *repository) MemberRows(intentID uint) ([]MemberRow, error) {
	var rows []MemberRow
	err := r.db.
		Table("members").
		Select(`members.user_id,
			users.full_name,
			users.email,
			members.status,
			members.role,
			members.is_checked_in,
			members.checked_in_at,
			members.check_in_method,
			members.joined_at`).
		Joins("LEFT JOIN users ON users.id = members.user_id").
		Where("members.intent_id = ?", intentID).
		Order("members.created_at ASC").
		Scan(&rows).Error
	return rows, err
}
