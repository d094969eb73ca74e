package repository

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"anoa.com/studentroster/internal/entity"
	"anoa.com/studentroster/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StudentRepository reads and writes roster entries. Every query is scoped
// to the owning user.
type StudentRepository interface {
	Create(ctx context.Context, student *entity.Student) error
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*entity.Student, error)
	FindAll(ctx context.Context, ownerID uuid.UUID, search string) ([]*entity.Student, error)
	FindByIDs(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) ([]*entity.Student, error)
	RollNumberTaken(ctx context.Context, ownerID uuid.UUID, rollNumber string, excludeID uuid.UUID) (bool, error)
	Update(ctx context.Context, student *entity.Student, fields map[string]any) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

// likeEscaper makes user input match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

type studentRepository struct {
	db *gorm.DB
}

func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) Create(ctx context.Context, student *entity.Student) error {
	return translate(r.db.WithContext(ctx).Create(student).Error)
}

func (r *studentRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*entity.Student, error) {
	var student entity.Student
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		First(&student).Error; err != nil {
		return nil, translate(err)
	}
	return &student, nil
}

func (r *studentRepository) FindAll(ctx context.Context, ownerID uuid.UUID, search string) ([]*entity.Student, error) {
	students := []*entity.Student{}
	query := r.db.WithContext(ctx).Where("user_id = ?", ownerID)

	if search = strings.TrimSpace(search); search != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
		query = query.Where(
			`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(roll_number) LIKE ? ESCAPE '\' OR LOWER(COALESCE(email, '')) LIKE ? ESCAPE '\'`,
			pattern, pattern, pattern,
		)
	}

	if err := query.Order("created_at DESC").Order("id DESC").Find(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}

func (r *studentRepository) FindByIDs(ctx context.Context, ownerID uuid.UUID, ids []uuid.UUID) ([]*entity.Student, error) {
	if len(ids) == 0 {
		return []*entity.Student{}, nil
	}

	var students []*entity.Student
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", ownerID, ids).
		Find(&students).Error; err != nil {
		return nil, err
	}

	// Reorder to match the ranking of ids
	byID := make(map[uuid.UUID]*entity.Student, len(students))
	for _, s := range students {
		byID[s.ID] = s
	}
	ordered := make([]*entity.Student, 0, len(ids))
	for _, id := range ids {
		if s, ok := byID[id]; ok {
			ordered = append(ordered, s)
		}
	}
	return ordered, nil
}

func (r *studentRepository) RollNumberTaken(ctx context.Context, ownerID uuid.UUID, rollNumber string, excludeID uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).
		Model(&entity.Student{}).
		Where("user_id = ? AND roll_number = ?", ownerID, rollNumber)
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *studentRepository) Update(ctx context.Context, student *entity.Student, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Model(student).
		Where("user_id = ?", student.UserID).
		Updates(fields).Error
	if err != nil {
		return translate(err)
	}
	return translate(r.db.WithContext(ctx).First(student, "id = ?", student.ID).Error)
}

func (r *studentRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		Delete(&entity.Student{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperror.New(http.StatusNotFound, "student not found", apperror.ErrNotFound)
	}
	return nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperror.New(http.StatusNotFound, "student not found", apperror.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperror.New(http.StatusConflict, "roll number already exists", apperror.ErrConflict)
	default:
		return err
	}
}
