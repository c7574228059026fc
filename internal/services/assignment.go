package services

import (
	"context"
	"errors"

	"github.com/iaejovem/backend/internal/models"
	"github.com/iaejovem/backend/pkg/logger"
	"gorm.io/gorm"
)

// AssignmentService manages which teacher follows which student.
type AssignmentService struct {
	db *gorm.DB
}

func NewAssignmentService(db *gorm.DB) *AssignmentService {
	return &AssignmentService{db: db}
}

type BulkAssignInput struct {
	AdminID    uint
	StudentIDs []uint
	TeacherID  uint
}

// BulkAssignTeacher moves every listed student to TeacherID, replacing any
// previous assignment. Each student is reassigned in its own transaction.
func (s *AssignmentService) BulkAssignTeacher(ctx context.Context, in BulkAssignInput) (*BatchResult, error) {
	if len(in.StudentIDs) == 0 {
		return nil, validationError("no students selected")
	}

	db := s.db.WithContext(ctx)
	if _, err := findUserWithRole(db, in.TeacherID, models.RoleTeacher); err != nil {
		return nil, err
	}

	result := runBatch(in.StudentIDs, func(studentID uint) error {
		return db.Transaction(func(tx *gorm.DB) error {
			if _, err := findStudent(tx, studentID); err != nil {
				return err
			}
			if err := tx.Where("student_id = ?", studentID).Delete(&models.Assignment{}).Error; err != nil {
				return err
			}
			return tx.Create(&models.Assignment{TeacherID: in.TeacherID, StudentID: studentID}).Error
		})
	})

	logger.Info().
		Uint("admin_id", in.AdminID).
		Uint("teacher_id", in.TeacherID).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Msg("students reassigned")
	return result, nil
}

// TeacherFor returns the teacher assigned to studentID, or nil when the
// student has none.
func (s *AssignmentService) TeacherFor(ctx context.Context, studentID uint) (*models.User, error) {
	var assignment models.Assignment
	err := s.db.WithContext(ctx).
		Preload("Teacher").
		Where("student_id = ?", studentID).
		Order("id").
		First(&assignment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return assignment.Teacher, nil
}

// StudentsOf lists the students followed by teacherID.
func (s *AssignmentService) StudentsOf(ctx context.Context, teacherID uint) ([]models.User, error) {
	var students []models.User
	err := s.db.WithContext(ctx).
		Joins("JOIN assignments ON assignments.student_id = users.id").
		Where("assignments.teacher_id = ?", teacherID).
		Order("users.name").
		Find(&students).Error
	return students, err
}
