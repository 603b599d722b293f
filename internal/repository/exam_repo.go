package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/educasol/educasol-api/internal/models"
)

// ExamFilter narrows exam queries.
type ExamFilter struct {
	EducatorID *uint
	SchoolID   *uint
	Status     *string
}

// ExamRepository defines data operations for exams.
type ExamRepository interface {
	List(ctx context.Context, filter ExamFilter) ([]models.Exam, error)
	GetByID(ctx context.Context, id uint) (models.Exam, error)
	Create(ctx context.Context, exam *models.Exam) error
	Update(ctx context.Context, exam *models.Exam) error
	Delete(ctx context.Context, id uint) error
	CountSubmissions(ctx context.Context, examID uint) (int64, error)
}

type examRepository struct {
	db *gorm.DB
}

// NewExamRepository instantiates the repository.
func NewExamRepository(db *gorm.DB) ExamRepository {
	return &examRepository{db: db}
}

func (r *examRepository) List(ctx context.Context, filter ExamFilter) ([]models.Exam, error) {
	query := r.db.WithContext(ctx).Model(&models.Exam{})

	if filter.EducatorID != nil {
		query = query.Where("educator_id = ?", *filter.EducatorID)
	}

	if filter.SchoolID != nil {
		query = query.Where("school_id = ?", *filter.SchoolID)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var exams []models.Exam
	if err := query.Order("created_at DESC").Find(&exams).Error; err != nil {
		return nil, err
	}

	return exams, nil
}

func (r *examRepository) GetByID(ctx context.Context, id uint) (models.Exam, error) {
	var exam models.Exam
	if err := r.db.WithContext(ctx).First(&exam, id).Error; err != nil {
		return models.Exam{}, err
	}

	return exam, nil
}

func (r *examRepository) Create(ctx context.Context, exam *models.Exam) error {
	return r.db.WithContext(ctx).Create(exam).Error
}

func (r *examRepository) Update(ctx context.Context, exam *models.Exam) error {
	return r.db.WithContext(ctx).Save(exam).Error
}

func (r *examRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Exam{}, id).Error
}

func (r *examRepository) CountSubmissions(ctx context.Context, examID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Submission{}).Where("exam_id = ?", examID).Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}
