package model

import "time"

// Student is a roster record as returned by the backend. Optional fields are
// nil when absent.
type Student struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	RollNumber  string    `json:"roll_number"`
	Class       string    `json:"class"`
	Email       *string   `json:"email,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
	Address     *string   `json:"address,omitempty"`
	DateOfBirth *string   `json:"date_of_birth,omitempty"`
	UserID      string    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewStudent is the insert payload. Server-assigned fields are absent.
type NewStudent struct {
	Name        string  `json:"name"`
	RollNumber  string  `json:"roll_number"`
	Class       string  `json:"class"`
	Email       *string `json:"email,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Address     *string `json:"address,omitempty"`
	DateOfBirth *string `json:"date_of_birth,omitempty"`
}

// StudentPatch is a partial update: nil fields are left unchanged.
type StudentPatch struct {
	Name        *string `json:"name,omitempty"`
	RollNumber  *string `json:"roll_number,omitempty"`
	Class       *string `json:"class,omitempty"`
	Email       *string `json:"email,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Address     *string `json:"address,omitempty"`
	DateOfBirth *string `json:"date_of_birth,omitempty"`
}

// Optional turns a form value into an optional field: empty means absent.
func Optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Value dereferences an optional field, yielding "" when absent.
func Value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
