package student

import (
	"strings"

	"anoa.com/studentroster/internal/entity"
	"anoa.com/studentroster/internal/modules/student/dto"
)

func buildStudentResponse(student *entity.Student) dto.StudentResponse {
	resp := dto.StudentResponse{
		ID:         student.ID,
		Name:       student.Name,
		RollNumber: student.RollNumber,
		Class:      student.Class,
		Email:      student.Email,
		Phone:      student.Phone,
		Address:    student.Address,
		UserID:     student.UserID,
		CreatedAt:  student.CreatedAt,
		UpdatedAt:  student.UpdatedAt,
	}
	if student.DateOfBirth != nil {
		dob := student.DateOfBirth.UTC().Format(dateLayout)
		resp.DateOfBirth = &dob
	}
	return resp
}

func buildStudentResponses(students []*entity.Student) []dto.StudentResponse {
	responses := make([]dto.StudentResponse, 0, len(students))
	for _, s := range students {
		responses = append(responses, buildStudentResponse(s))
	}
	return responses
}

// normalizeOptional maps an empty optional value to absent.
func normalizeOptional(value *string) *string {
	if value == nil || *value == "" {
		return nil
	}
	v := *value
	return &v
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
