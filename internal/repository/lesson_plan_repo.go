package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/educasol/educasol-api/internal/models"
)

// LessonPlanRepository defines data operations for lesson plans.
type LessonPlanRepository interface {
	ListByEducator(ctx context.Context, educatorID uint) ([]models.LessonPlan, error)
	GetByID(ctx context.Context, id uint) (models.LessonPlan, error)
	Create(ctx context.Context, plan *models.LessonPlan) error
	Update(ctx context.Context, plan *models.LessonPlan) error
	Delete(ctx context.Context, id uint) error
}

type lessonPlanRepository struct {
	db *gorm.DB
}

// NewLessonPlanRepository instantiates the repository.
func NewLessonPlanRepository(db *gorm.DB) LessonPlanRepository {
	return &lessonPlanRepository{db: db}
}

func (r *lessonPlanRepository) ListByEducator(ctx context.Context, educatorID uint) ([]models.LessonPlan, error) {
	var plans []models.LessonPlan
	err := r.db.WithContext(ctx).
		Where("educator_id = ?", educatorID).
		Order("created_at DESC").
		Find(&plans).Error
	if err != nil {
		return nil, err
	}

	return plans, nil
}

func (r *lessonPlanRepository) GetByID(ctx context.Context, id uint) (models.LessonPlan, error) {
	var plan models.LessonPlan
	if err := r.db.WithContext(ctx).First(&plan, id).Error; err != nil {
		return models.LessonPlan{}, err
	}

	return plan, nil
}

func (r *lessonPlanRepository) Create(ctx context.Context, plan *models.LessonPlan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

func (r *lessonPlanRepository) Update(ctx context.Context, plan *models.LessonPlan) error {
	return r.db.WithContext(ctx).Save(plan).Error
}

func (r *lessonPlanRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.LessonPlan{}, id).Error
}
