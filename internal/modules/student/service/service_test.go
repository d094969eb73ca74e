package student

import (
	"context"
	"errors"
	"testing"

	"anoa.com/studentroster/internal/bootstrap"
	"anoa.com/studentroster/internal/entity"
	"anoa.com/studentroster/internal/modules/student/dto"
	"anoa.com/studentroster/internal/modules/student/repository"
	"anoa.com/studentroster/pkg/apperror"
	"anoa.com/studentroster/pkg/database"
	"github.com/google/uuid"
)

func newTestService(t *testing.T) (Service, uuid.UUID) {
	t.Helper()
	db, err := database.OpenMemory()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := bootstrap.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	owner := entity.User{Email: "owner@school.edu", PasswordHash: "x"}
	if err := db.Create(&owner).Error; err != nil {
		t.Fatalf("create owner: %v", err)
	}
	return NewService(repository.NewStudentRepository(db), nil), owner.ID
}

func ptr(s string) *string { return &s }

func TestCreateStudentRoundTrip(t *testing.T) {
	svc, owner := newTestService(t)
	ctx := context.Background()

	req := dto.CreateStudentRequest{
		Name:        "Ann Lee",
		RollNumber:  "001",
		Class:       "10B",
		Email:       ptr("ann@school.edu"),
		Address:     ptr("12 Main St"),
		DateOfBirth: ptr("2010-05-01"),
	}
	got, err := svc.CreateStudent(ctx, owner, req)
	if err != nil {
		t.Fatalf("CreateStudent: %v", err)
	}

	if got.ID == uuid.Nil || got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Fatalf("server fields not assigned: %+v", got)
	}
	if got.UserID != owner {
		t.Fatalf("owner = %v, want %v", got.UserID, owner)
	}
	if got.Name != req.Name || got.RollNumber != req.RollNumber || got.Class != req.Class {
		t.Fatalf("required fields changed: %+v", got)
	}
	if *got.Email != "ann@school.edu" || *got.Address != "12 Main St" || *got.DateOfBirth != "2010-05-01" {
		t.Fatalf("optional fields changed: %+v", got)
	}
	if got.Phone != nil {
		t.Fatalf("absent phone must stay absent, got %q", *got.Phone)
	}

	listed, err := svc.ListStudents(ctx, owner)
	if err != nil || len(listed) != 1 {
		t.Fatalf("ListStudents = %v, %v", listed, err)
	}
	if listed[0].DateOfBirth == nil || *listed[0].DateOfBirth != "2010-05-01" {
		t.Fatalf("date did not survive storage: %+v", listed[0])
	}
}

func TestCreateStudentRejectsDuplicateRollNumber(t *testing.T) {
	svc, owner := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateStudent(ctx, owner, dto.CreateStudentRequest{Name: "Ann", RollNumber: "001", Class: "10B"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := svc.CreateStudent(ctx, owner, dto.CreateStudentRequest{Name: "Bob", RollNumber: "001", Class: "10A"})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("want conflict, got %v", err)
	}

	// another owner may reuse the roll number
	if _, err := svc.CreateStudent(ctx, uuid.New(), dto.CreateStudentRequest{Name: "Cy", RollNumber: "001", Class: "9C"}); err != nil {
		t.Fatalf("other owner create: %v", err)
	}
}

func TestCreateStudentValidatesOptionalFields(t *testing.T) {
	svc, owner := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateStudent(ctx, owner, dto.CreateStudentRequest{Name: "Ann", RollNumber: "1", Class: "1", Email: ptr("not-an-email")})
	if !errors.Is(err, apperror.ErrInvalidInput) || err.Error() != "Invalid email format" {
		t.Fatalf("want invalid email, got %v", err)
	}

	_, err = svc.CreateStudent(ctx, owner, dto.CreateStudentRequest{Name: "Ann", RollNumber: "1", Class: "1", DateOfBirth: ptr("01/05/2010")})
	if !errors.Is(err, apperror.ErrInvalidInput) {
		t.Fatalf("want invalid date, got %v", err)
	}

	got, err := svc.CreateStudent(ctx, owner, dto.CreateStudentRequest{Name: "Ann", RollNumber: "1", Class: "1", Email: ptr(""), DateOfBirth: ptr("")})
	if err != nil {
		t.Fatalf("empty optionals must be accepted: %v", err)
	}
	if got.Email != nil || got.DateOfBirth != nil {
		t.Fatalf("empty optionals must be stored as absent: %+v", got)
	}
}

func TestUpdateStudentIsPartial(t *testing.T) {
	svc, owner := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateStudent(ctx, owner, dto.CreateStudentRequest{
		Name: "Ann", RollNumber: "001", Class: "10B", Email: ptr("ann@school.edu"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.UpdateStudent(ctx, owner, created.ID, dto.UpdateStudentRequest{Phone: ptr("555-0100")})
	if err != nil {
		t.Fatalf("UpdateStudent: %v", err)
	}
	if updated.Phone == nil || *updated.Phone != "555-0100" {
		t.Fatalf("phone not applied: %+v", updated)
	}
	if updated.Name != "Ann" || updated.RollNumber != "001" || updated.Class != "10B" || *updated.Email != "ann@school.edu" {
		t.Fatalf("untouched fields changed: %+v", updated)
	}
	if updated.ID != created.ID || !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("identity changed: %+v", updated)
	}

	cleared, err := svc.UpdateStudent(ctx, owner, created.ID, dto.UpdateStudentRequest{Email: ptr("")})
	if err != nil {
		t.Fatalf("clear email: %v", err)
	}
	if cleared.Email != nil {
		t.Fatalf("email must be cleared, got %q", *cleared.Email)
	}
}

func TestUpdateStudentRollNumberRules(t *testing.T) {
	svc, owner := newTestService(t)
	ctx := context.Background()

	ann, _ := svc.CreateStudent(ctx, owner, dto.CreateStudentRequest{Name: "Ann", RollNumber: "001", Class: "10B"})
	if _, err := svc.CreateStudent(ctx, owner, dto.CreateStudentRequest{Name: "Bob", RollNumber: "002", Class: "10A"}); err != nil {
		t.Fatalf("create bob: %v", err)
	}

	if _, err := svc.UpdateStudent(ctx, owner, ann.ID, dto.UpdateStudentRequest{RollNumber: ptr("001"), Name: ptr("Ann B")}); err != nil {
		t.Fatalf("keeping own roll number must succeed: %v", err)
	}
	if _, err := svc.UpdateStudent(ctx, owner, ann.ID, dto.UpdateStudentRequest{RollNumber: ptr("002")}); !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("want conflict, got %v", err)
	}
	if _, err := svc.UpdateStudent(ctx, owner, ann.ID, dto.UpdateStudentRequest{Name: ptr("   ")}); !errors.Is(err, apperror.ErrInvalidInput) {
		t.Fatalf("blank name must be rejected, got %v", err)
	}
}

func TestOwnershipScoping(t *testing.T) {
	svc, owner := newTestService(t)
	ctx := context.Background()
	stranger := uuid.New()

	ann, _ := svc.CreateStudent(ctx, owner, dto.CreateStudentRequest{Name: "Ann", RollNumber: "001", Class: "10B"})

	if _, err := svc.GetStudent(ctx, stranger, ann.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("stranger get: want not found, got %v", err)
	}
	if _, err := svc.UpdateStudent(ctx, stranger, ann.ID, dto.UpdateStudentRequest{Name: ptr("X")}); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("stranger update: want not found, got %v", err)
	}
	if err := svc.DeleteStudent(ctx, stranger, ann.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("stranger delete: want not found, got %v", err)
	}
	if list, _ := svc.ListStudents(ctx, stranger); len(list) != 0 {
		t.Fatalf("stranger sees %d records", len(list))
	}
}

func TestDeleteStudentRemovesOnlyTarget(t *testing.T) {
	svc, owner := newTestService(t)
	ctx := context.Background()

	ann, _ := svc.CreateStudent(ctx, owner, dto.CreateStudentRequest{Name: "Ann", RollNumber: "001", Class: "10B"})
	bob, _ := svc.CreateStudent(ctx, owner, dto.CreateStudentRequest{Name: "Bob", RollNumber: "002", Class: "10A"})

	if err := svc.DeleteStudent(ctx, owner, ann.ID); err != nil {
		t.Fatalf("DeleteStudent: %v", err)
	}
	list, err := svc.ListStudents(ctx, owner)
	if err != nil || len(list) != 1 || list[0].ID != bob.ID {
		t.Fatalf("after delete: %v, %v", list, err)
	}
	if err := svc.DeleteStudent(ctx, owner, ann.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("second delete: want not found, got %v", err)
	}
}

func TestSearchStudentsFallsBackToDatabase(t *testing.T) {
	svc, owner := newTestService(t)
	ctx := context.Background()

	svc.CreateStudent(ctx, owner, dto.CreateStudentRequest{Name: "Ann Lee", RollNumber: "001", Class: "10B"})
	svc.CreateStudent(ctx, owner, dto.CreateStudentRequest{Name: "Bob", RollNumber: "002", Class: "10A", Email: ptr("bob.LEE@school.edu")})
	svc.CreateStudent(ctx, owner, dto.CreateStudentRequest{Name: "Cy", RollNumber: "003", Class: "10A"})

	got, err := svc.SearchStudents(ctx, owner, "lee")
	if err != nil {
		t.Fatalf("SearchStudents: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 matches, got %d: %+v", len(got), got)
	}
}
