package service

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/educasol/educasol-api/internal/dto"
	"github.com/educasol/educasol-api/internal/models"
	"github.com/educasol/educasol-api/internal/repository"
	"github.com/educasol/educasol-api/pkg/ai"
)

type stubLessonPlanRepo struct {
	plans  map[uint]models.LessonPlan
	nextID uint
}

func newStubLessonPlanRepo() *stubLessonPlanRepo {
	return &stubLessonPlanRepo{plans: map[uint]models.LessonPlan{}, nextID: 1}
}

func (r *stubLessonPlanRepo) ListByEducator(_ context.Context, educatorID uint) ([]models.LessonPlan, error) {
	var plans []models.LessonPlan
	for _, plan := range r.plans {
		if plan.EducatorID == educatorID {
			plans = append(plans, plan)
		}
	}
	return plans, nil
}

func (r *stubLessonPlanRepo) GetByID(_ context.Context, id uint) (models.LessonPlan, error) {
	plan, ok := r.plans[id]
	if !ok {
		return models.LessonPlan{}, gorm.ErrRecordNotFound
	}
	return plan, nil
}

func (r *stubLessonPlanRepo) Create(_ context.Context, plan *models.LessonPlan) error {
	plan.ID = r.nextID
	r.nextID++
	r.plans[plan.ID] = *plan
	return nil
}

func (r *stubLessonPlanRepo) Update(_ context.Context, plan *models.LessonPlan) error {
	r.plans[plan.ID] = *plan
	return nil
}

func (r *stubLessonPlanRepo) Delete(_ context.Context, id uint) error {
	delete(r.plans, id)
	return nil
}

type stubComposer struct {
	content string
	err     error
	inputs  []ai.LessonInput
}

func (c *stubComposer) GradeExam(_ context.Context, _ ai.GradeInput) (ai.GradeOutput, error) {
	return ai.GradeOutput{}, errors.New("not implemented")
}

func (c *stubComposer) ComposeLesson(_ context.Context, input ai.LessonInput) (ai.LessonOutput, error) {
	c.inputs = append(c.inputs, input)
	if c.err != nil {
		return ai.LessonOutput{}, c.err
	}
	return ai.LessonOutput{Content: c.content}, nil
}

func newLessonPlanService(repo repository.LessonPlanRepository, composer ai.Grader) LessonPlanService {
	guard := NewAccessGuard(&recordingAudit{}, zerolog.Nop())
	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewLessonPlanService(repo, composer, guard, validate, zerolog.Nop())
}

func TestLessonPlanGenerateStoresSanitizedDraft(t *testing.T) {
	repo := newStubLessonPlanRepo()
	composer := &stubComposer{content: "<h1>Fractions</h1><script>alert(1)</script><p>Warm up with halves.</p>"}
	planService := newLessonPlanService(repo, composer)

	plan, err := planService.Generate(context.Background(), educatorActor(), dto.LessonPlanGenerateRequest{
		Topic:      "  Fractions  ",
		Subject:    "mathematics",
		GradeLevel: "5",
	})
	require.NoError(t, err)
	require.Equal(t, "Fractions", plan.Topic)
	require.Equal(t, models.LessonPlanStatusDraft, plan.Status)
	require.Contains(t, plan.Content, "Warm up with halves.")
	require.NotContains(t, plan.Content, "<script>")

	require.Len(t, composer.inputs, 1)
	require.Equal(t, "Fractions", composer.inputs[0].Topic)
}

func TestLessonPlanGenerateValidatesTopic(t *testing.T) {
	repo := newStubLessonPlanRepo()
	composer := &stubComposer{content: "draft"}
	planService := newLessonPlanService(repo, composer)

	_, err := planService.Generate(context.Background(), educatorActor(), dto.LessonPlanGenerateRequest{Topic: "ab"})
	require.Error(t, err)
	require.Empty(t, composer.inputs)
}

func TestLessonPlanGenerateComposerFailure(t *testing.T) {
	repo := newStubLessonPlanRepo()
	composer := &stubComposer{err: errors.New("model unavailable")}
	planService := newLessonPlanService(repo, composer)

	_, err := planService.Generate(context.Background(), educatorActor(), dto.LessonPlanGenerateRequest{Topic: "Fractions"})
	require.Error(t, err)
	require.Empty(t, repo.plans)
}

func TestLessonPlanUpdateSanitizesContent(t *testing.T) {
	repo := newStubLessonPlanRepo()
	composer := &stubComposer{content: "draft"}
	planService := newLessonPlanService(repo, composer)

	plan, err := planService.Generate(context.Background(), educatorActor(), dto.LessonPlanGenerateRequest{Topic: "Fractions"})
	require.NoError(t, err)

	content := `<p>Revised plan</p><img src="x" onerror="alert(1)">`
	status := models.LessonPlanStatusReady
	updated, err := planService.Update(context.Background(), educatorActor(), plan.ID, dto.LessonPlanUpdateRequest{
		Content: &content,
		Status:  &status,
	})
	require.NoError(t, err)
	require.Contains(t, updated.Content, "Revised plan")
	require.NotContains(t, updated.Content, "onerror")
	require.Equal(t, models.LessonPlanStatusReady, updated.Status)
}

func TestLessonPlanGetDeniesOtherEducator(t *testing.T) {
	repo := newStubLessonPlanRepo()
	composer := &stubComposer{content: "draft"}
	planService := newLessonPlanService(repo, composer)

	plan, err := planService.Generate(context.Background(), educatorActor(), dto.LessonPlanGenerateRequest{Topic: "Fractions"})
	require.NoError(t, err)

	_, err = planService.Get(context.Background(), Actor{ID: 2, Role: models.RoleEducator}, plan.ID)
	require.ErrorIs(t, err, ErrAccessDenied)
}

func TestLessonPlanDeleteUnknownID(t *testing.T) {
	repo := newStubLessonPlanRepo()
	planService := newLessonPlanService(repo, &stubComposer{content: "draft"})

	err := planService.Delete(context.Background(), educatorActor(), 42)
	require.ErrorIs(t, err, ErrLessonPlanNotFound)
}
