package student

import (
	"context"
	"net/http"
	"time"

	"anoa.com/studentroster/internal/entity"
	search "anoa.com/studentroster/internal/modules/search/service"
	"anoa.com/studentroster/internal/modules/student/dto"
	"anoa.com/studentroster/internal/modules/student/repository"
	"anoa.com/studentroster/pkg/apperror"
	"anoa.com/studentroster/pkg/validator"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	dateLayout  = "2006-01-02"
	searchLimit = 100
)

type Service interface {
	ListStudents(ctx context.Context, userID uuid.UUID) ([]dto.StudentResponse, error)
	SearchStudents(ctx context.Context, userID uuid.UUID, query string) ([]dto.StudentResponse, error)
	GetStudent(ctx context.Context, userID, id uuid.UUID) (*dto.StudentResponse, error)
	CreateStudent(ctx context.Context, userID uuid.UUID, req dto.CreateStudentRequest) (*dto.StudentResponse, error)
	UpdateStudent(ctx context.Context, userID, id uuid.UUID, req dto.UpdateStudentRequest) (*dto.StudentResponse, error)
	DeleteStudent(ctx context.Context, userID, id uuid.UUID) error
}

type service struct {
	repo  repository.StudentRepository
	index search.StudentIndex
}

// NewService wires the roster service. index may be nil, in which case
// search falls back to a database substring match.
func NewService(repo repository.StudentRepository, index search.StudentIndex) Service {
	return &service{repo: repo, index: index}
}

func (s *service) ListStudents(ctx context.Context, userID uuid.UUID) ([]dto.StudentResponse, error) {
	students, err := s.repo.FindAll(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	return buildStudentResponses(students), nil
}

func (s *service) SearchStudents(ctx context.Context, userID uuid.UUID, query string) ([]dto.StudentResponse, error) {
	if s.index == nil || query == "" {
		students, err := s.repo.FindAll(ctx, userID, query)
		if err != nil {
			return nil, err
		}
		return buildStudentResponses(students), nil
	}

	ids, err := s.index.SearchStudents(userID, query, searchLimit)
	if err != nil {
		return nil, err
	}
	students, err := s.repo.FindByIDs(ctx, userID, ids)
	if err != nil {
		return nil, err
	}
	return buildStudentResponses(students), nil
}

func (s *service) GetStudent(ctx context.Context, userID, id uuid.UUID) (*dto.StudentResponse, error) {
	student, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	resp := buildStudentResponse(student)
	return &resp, nil
}

func (s *service) CreateStudent(ctx context.Context, userID uuid.UUID, req dto.CreateStudentRequest) (*dto.StudentResponse, error) {
	student := &entity.Student{
		UserID:     userID,
		Name:       req.Name,
		RollNumber: req.RollNumber,
		Class:      req.Class,
		Email:      normalizeOptional(req.Email),
		Phone:      normalizeOptional(req.Phone),
		Address:    normalizeOptional(req.Address),
	}

	if err := validateEmail(student.Email); err != nil {
		return nil, err
	}

	dob, err := parseDate(req.DateOfBirth)
	if err != nil {
		return nil, err
	}
	student.DateOfBirth = dob

	if err := s.ensureRollNumberFree(ctx, userID, student.RollNumber, uuid.Nil); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, student); err != nil {
		return nil, err
	}

	s.indexAsync(student)

	resp := buildStudentResponse(student)
	return &resp, nil
}

func (s *service) UpdateStudent(ctx context.Context, userID, id uuid.UUID, req dto.UpdateStudentRequest) (*dto.StudentResponse, error) {
	student, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	fields, err := s.buildUpdateFields(ctx, student, req)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, student, fields); err != nil {
		return nil, err
	}

	if len(fields) > 0 {
		s.indexAsync(student)
	}

	resp := buildStudentResponse(student)
	return &resp, nil
}

func (s *service) DeleteStudent(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}

	if s.index != nil {
		go func() {
			if err := s.index.DeleteStudent(id.String()); err != nil {
				logrus.WithError(err).WithField("student_id", id).Warn("failed to remove student from index")
			}
		}()
	}
	return nil
}

func (s *service) buildUpdateFields(ctx context.Context, student *entity.Student, req dto.UpdateStudentRequest) (map[string]any, error) {
	fields := map[string]any{}

	required := []struct {
		column, label string
		value         *string
	}{
		{"name", "Name", req.Name},
		{"roll_number", "Roll number", req.RollNumber},
		{"class", "Class", req.Class},
	}
	for _, f := range required {
		if f.value == nil {
			continue
		}
		if isBlank(*f.value) {
			return nil, apperror.New(http.StatusBadRequest, f.label+" is required", apperror.ErrInvalidInput)
		}
		fields[f.column] = *f.value
	}

	if req.RollNumber != nil && *req.RollNumber != student.RollNumber {
		if err := s.ensureRollNumberFree(ctx, student.UserID, *req.RollNumber, student.ID); err != nil {
			return nil, err
		}
	}

	if req.Email != nil {
		email := normalizeOptional(req.Email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		fields["email"] = email
	}
	if req.Phone != nil {
		fields["phone"] = normalizeOptional(req.Phone)
	}
	if req.Address != nil {
		fields["address"] = normalizeOptional(req.Address)
	}
	if req.DateOfBirth != nil {
		dob, err := parseDate(req.DateOfBirth)
		if err != nil {
			return nil, err
		}
		fields["date_of_birth"] = dob
	}

	return fields, nil
}

func (s *service) ensureRollNumberFree(ctx context.Context, userID uuid.UUID, rollNumber string, excludeID uuid.UUID) error {
	taken, err := s.repo.RollNumberTaken(ctx, userID, rollNumber, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return apperror.New(http.StatusConflict, "roll number already exists", apperror.ErrConflict)
	}
	return nil
}

func (s *service) indexAsync(student *entity.Student) {
	if s.index == nil {
		return
	}
	snapshot := *student
	go func() {
		if err := s.index.IndexStudent(&snapshot); err != nil {
			logrus.WithError(err).WithField("student_id", snapshot.ID).Warn("failed to index student")
		}
	}()
}

func validateEmail(email *string) error {
	if email != nil && !validator.IsEmail(*email) {
		return apperror.New(http.StatusBadRequest, "Invalid email format", apperror.ErrInvalidInput)
	}
	return nil
}

func parseDate(value *string) (*time.Time, error) {
	value = normalizeOptional(value)
	if value == nil {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *value)
	if err != nil {
		return nil, apperror.New(http.StatusBadRequest, "Date of birth must be a date (YYYY-MM-DD)", apperror.ErrInvalidInput)
	}
	return &t, nil
}
