package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateStudentRequest struct {
	Name        string  `json:"name" binding:"notblank"`
	RollNumber  string  `json:"roll_number" binding:"notblank"`
	Class       string  `json:"class" binding:"notblank"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	Address     *string `json:"address"`
	DateOfBirth *string `json:"date_of_birth"`
}

// UpdateStudentRequest is a partial replace: nil fields are left untouched,
// an empty optional field clears it.
type UpdateStudentRequest struct {
	Name        *string `json:"name"`
	RollNumber  *string `json:"roll_number"`
	Class       *string `json:"class"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	Address     *string `json:"address"`
	DateOfBirth *string `json:"date_of_birth"`
}

type SearchStudentRequest struct {
	Query string `form:"q"`
}

type StudentResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string `json:"name"`
	RollNumber  string `json:"roll_number"`
	Class       string `json:"class"`
	Email       *string `json:"email,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Address     *string `json:"address,omitempty"`
	DateOfBirth *string `json:"date_of_birth,omitempty"`
	UserID      uuid.UUID `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type DeleteStudentResponse struct {
	ID uuid.UUID `json:"id"`
}
