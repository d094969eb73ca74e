package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Student is one roster entry. Roll numbers are unique per owner.
type Student struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_students_owner_roll,priority:1" json:"user_id"`
	Name        string     `gorm:"type:text;not null" json:"name"`
	RollNumber  string     `gorm:"type:text;not null;uniqueIndex:idx_students_owner_roll,priority:2" json:"roll_number"`
	Class       string     `gorm:"column:class;type:text;not null;index" json:"class"`
	Email       *string    `gorm:"type:text" json:"email,omitempty"`
	Phone       *string    `gorm:"type:text" json:"phone,omitempty"`
	Address     *string    `gorm:"type:text" json:"address,omitempty"`
	DateOfBirth *time.Time `gorm:"type:date" json:"date_of_birth,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *Student) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID, err = uuid.NewV7()
	}
	return
}
