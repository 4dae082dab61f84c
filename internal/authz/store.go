package authz

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"schoolhub/internal/model"
)

// Store is the persistence surface the resolver and guard depend on.
// The gorm implementation below is used in production; tests substitute an
// in-memory fake.
type Store interface {
	// ActiveRoles returns the active role assignments of a principal,
	// ordered highest priority first. An empty slice is a valid result.
	ActiveRoles(ctx context.Context, userID uint) ([]model.RoleAssignment, error)

	// SchoolByID returns an active school or ErrNotFound.
	SchoolByID(ctx context.Context, id uint) (*model.School, error)

	// ParentProfileByUser returns the principal's parent profile or ErrNotFound.
	ParentProfileByUser(ctx context.Context, userID uint) (*model.ParentProfile, error)

	// CreateParentProfile inserts a parent profile (signup only).
	CreateParentProfile(ctx context.Context, p *model.ParentProfile) error

	// TeacherProfileByUser returns the principal's teacher profile within a
	// school, or ErrNotFound.
	TeacherProfileByUser(ctx context.Context, userID, schoolID uint) (*model.TeacherProfile, error)

	// StudentByEmail returns the active student record matching an email,
	// or ErrNotFound.
	StudentByEmail(ctx context.Context, email string) (*model.Student, error)

	// LinkedStudents returns the students a parent is linked to through
	// verified links, possibly spanning several schools.
	LinkedStudents(ctx context.Context, parentProfileID uint) ([]model.Student, error)

	// VerifiedStudentIDs returns the ids of students the parent may read.
	VerifiedStudentIDs(ctx context.Context, parentProfileID uint) ([]uint, error)
}

type gormStore struct {
	db *gorm.DB
}

// NewStore returns the gorm-backed Store.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) ActiveRoles(ctx context.Context, userID uint) ([]model.RoleAssignment, error) {
	var assignments []model.RoleAssignment
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND active = ?", userID, true).
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	SortByPriority(assignments)
	return assignments, nil
}

func (s *gormStore) SchoolByID(ctx context.Context, id uint) (*model.School, error) {
	var school model.School
	err := s.db.WithContext(ctx).
		Where("id = ? AND active = ?", id, true).
		First(&school).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &school, nil
}

func (s *gormStore) ParentProfileByUser(ctx context.Context, userID uint) (*model.ParentProfile, error) {
	var profile model.ParentProfile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *gormStore) CreateParentProfile(ctx context.Context, p *model.ParentProfile) error {
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *gormStore) TeacherProfileByUser(ctx context.Context, userID, schoolID uint) (*model.TeacherProfile, error) {
	var profile model.TeacherProfile
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND school_id = ? AND active = ?", userID, schoolID, true).
		First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *gormStore) StudentByEmail(ctx context.Context, email string) (*model.Student, error) {
	var student model.Student
	err := s.db.WithContext(ctx).
		Where("email = ? AND active = ?", email, true).
		First(&student).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (s *gormStore) LinkedStudents(ctx context.Context, parentProfileID uint) ([]model.Student, error) {
	var students []model.Student
	err := s.db.WithContext(ctx).
		Joins("JOIN parent_student_links ON parent_student_links.student_id = students.id").
		Where("parent_student_links.parent_profile_id = ? AND parent_student_links.status = ?",
			parentProfileID, model.LinkStatusVerified).
		Find(&students).Error
	if err != nil {
		return nil, err
	}
	return students, nil
}

func (s *gormStore) VerifiedStudentIDs(ctx context.Context, parentProfileID uint) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).
		Model(&model.ParentStudentLink{}).
		Where("parent_profile_id = ? AND status = ?", parentProfileID, model.LinkStatusVerified).
		Pluck("student_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
