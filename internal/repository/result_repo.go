package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/educasol/educasol-api/internal/models"
)

// ResultRepository defines data operations for grading results.
type ResultRepository interface {
	GetBySubmissionID(ctx context.Context, submissionID uint) (models.GradingResult, error)
	GetByVerificationToken(ctx context.Context, token string) (models.GradingResult, error)
	Create(ctx context.Context, result *models.GradingResult) error
	Update(ctx context.Context, result *models.GradingResult) error
}

type resultRepository struct {
	db *gorm.DB
}

// NewResultRepository instantiates the repository.
func NewResultRepository(db *gorm.DB) ResultRepository {
	return &resultRepository{db: db}
}

func (r *resultRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.GradingResult{}).
		Preload("Submission").
		Preload("Submission.Exam")
}

func (r *resultRepository) GetBySubmissionID(ctx context.Context, submissionID uint) (models.GradingResult, error) {
	var result models.GradingResult
	if err := r.baseQuery(ctx).Where("submission_id = ?", submissionID).First(&result).Error; err != nil {
		return models.GradingResult{}, err
	}

	return result, nil
}

func (r *resultRepository) GetByVerificationToken(ctx context.Context, token string) (models.GradingResult, error) {
	var result models.GradingResult
	if err := r.baseQuery(ctx).Where("verification_token = ?", token).First(&result).Error; err != nil {
		return models.GradingResult{}, err
	}

	return result, nil
}

func (r *resultRepository) Create(ctx context.Context, result *models.GradingResult) error {
	return r.db.WithContext(ctx).Create(result).Error
}

func (r *resultRepository) Update(ctx context.Context, result *models.GradingResult) error {
	return r.db.WithContext(ctx).Save(result).Error
}
