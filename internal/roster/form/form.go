// Package form holds the create/edit form values and their pre-submit checks.
package form

import (
	"anoa.com/studentroster/internal/roster/model"
	"anoa.com/studentroster/pkg/validator"
)

const msgRollNumberTaken = "This roll number is already taken"

var validate = validator.New()

// Input is the raw form as posted by the browser. Empty optional fields mean
// absent.
type Input struct {
	Name        string `form:"name" validate:"notblank"`
	RollNumber  string `form:"roll_number" validate:"notblank"`
	Class       string `form:"class" validate:"notblank"`
	Email       string `form:"email" validate:"omitempty,roster_email"`
	Phone       string `form:"phone"`
	Address     string `form:"address"`
	DateOfBirth string `form:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
}

// Errors maps a field name (as posted) to its message.
type Errors map[string]string

func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// Validate runs every check and reports all violations together. loaded is
// the current record set; the record with editingID is ignored by the
// roll number check. Use an empty editingID when creating.
func Validate(in Input, loaded []model.Student, editingID string) Errors {
	errs := Errors{}

	if err := validate.Struct(in); err != nil {
		for field, msg := range validator.FieldMessages(err) {
			errs[field] = msg
		}
	}

	if !errs.Has("roll_number") && rollNumberTaken(in.RollNumber, loaded, editingID) {
		errs["roll_number"] = msgRollNumberTaken
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func rollNumberTaken(rollNumber string, loaded []model.Student, editingID string) bool {
	for _, s := range loaded {
		if s.ID != editingID && s.RollNumber == rollNumber {
			return true
		}
	}
	return false
}

// FromStudent pre-fills the edit form.
func FromStudent(s model.Student) Input {
	return Input{
		Name:        s.Name,
		RollNumber:  s.RollNumber,
		Class:       s.Class,
		Email:       model.Value(s.Email),
		Phone:       model.Value(s.Phone),
		Address:     model.Value(s.Address),
		DateOfBirth: model.Value(s.DateOfBirth),
	}
}

func (in Input) NewStudent() model.NewStudent {
	return model.NewStudent{
		Name:        in.Name,
		RollNumber:  in.RollNumber,
		Class:       in.Class,
		Email:       model.Optional(in.Email),
		Phone:       model.Optional(in.Phone),
		Address:     model.Optional(in.Address),
		DateOfBirth: model.Optional(in.DateOfBirth),
	}
}

// Patch holds only the fields that differ from current. A cleared optional
// field is sent as an empty string so the backend removes it.
func (in Input) Patch(current model.Student) model.StudentPatch {
	var p model.StudentPatch
	changed := func(next, prev string) *string {
		if next == prev {
			return nil
		}
		return &next
	}
	p.Name = changed(in.Name, current.Name)
	p.RollNumber = changed(in.RollNumber, current.RollNumber)
	p.Class = changed(in.Class, current.Class)
	p.Email = changed(in.Email, model.Value(current.Email))
	p.Phone = changed(in.Phone, model.Value(current.Phone))
	p.Address = changed(in.Address, model.Value(current.Address))
	p.DateOfBirth = changed(in.DateOfBirth, model.Value(current.DateOfBirth))
	return p
}
