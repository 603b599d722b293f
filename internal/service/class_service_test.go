package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/educasol/educasol-api/internal/dto"
	"github.com/educasol/educasol-api/internal/models"
	"github.com/educasol/educasol-api/internal/repository"
)

type stubClassRepo struct {
	classes map[uint]models.Class
	nextID  uint
	deletes []uint
}

func newStubClassRepo() *stubClassRepo {
	return &stubClassRepo{classes: map[uint]models.Class{}, nextID: 1}
}

func (r *stubClassRepo) ListByEducator(_ context.Context, educatorID uint) ([]models.Class, error) {
	var classes []models.Class
	for _, class := range r.classes {
		if class.EducatorID == educatorID {
			classes = append(classes, class)
		}
	}
	return classes, nil
}

func (r *stubClassRepo) GetByID(_ context.Context, id uint) (models.Class, error) {
	class, ok := r.classes[id]
	if !ok {
		return models.Class{}, gorm.ErrRecordNotFound
	}
	return class, nil
}

func (r *stubClassRepo) Create(_ context.Context, class *models.Class) error {
	class.ID = r.nextID
	r.nextID++
	r.classes[class.ID] = *class
	return nil
}

func (r *stubClassRepo) Update(_ context.Context, class *models.Class) error {
	r.classes[class.ID] = *class
	return nil
}

func (r *stubClassRepo) Delete(_ context.Context, id uint) error {
	r.deletes = append(r.deletes, id)
	delete(r.classes, id)
	return nil
}

func newClassService(repo repository.ClassRepository, audit AuditRecorder) ClassService {
	guard := NewAccessGuard(audit, zerolog.Nop())
	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewClassService(repo, guard, validate, zerolog.Nop())
}

func TestClassCreateCleansRoster(t *testing.T) {
	repo := newStubClassRepo()
	classService := newClassService(repo, &recordingAudit{})

	created, err := classService.Create(context.Background(), educatorActor(), dto.ClassCreateRequest{
		Name:       "  7B  ",
		Subject:    "mathematics",
		GradeLevel: "7",
		Roster:     []string{" alice ", "", "bob"},
	})
	require.NoError(t, err)
	require.Equal(t, "7B", created.Name)
	require.Equal(t, []string{"alice", "bob"}, created.Roster)
	require.Equal(t, uint(1), created.EducatorID)
}

func TestClassCreateRequiresName(t *testing.T) {
	repo := newStubClassRepo()
	classService := newClassService(repo, &recordingAudit{})

	_, err := classService.Create(context.Background(), educatorActor(), dto.ClassCreateRequest{})
	require.Error(t, err)
	var validationErrs validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrs)
	require.Empty(t, repo.classes)
}

func TestClassUpdateAppliesPartialFields(t *testing.T) {
	repo := newStubClassRepo()
	classService := newClassService(repo, &recordingAudit{})

	created, err := classService.Create(context.Background(), educatorActor(), dto.ClassCreateRequest{
		Name:   "7B",
		Roster: []string{"alice"},
	})
	require.NoError(t, err)

	subject := "physics"
	roster := []string{"alice", "carol"}
	updated, err := classService.Update(context.Background(), educatorActor(), created.ID, dto.ClassUpdateRequest{
		Subject: &subject,
		Roster:  &roster,
	})
	require.NoError(t, err)
	require.Equal(t, "7B", updated.Name)
	require.Equal(t, "physics", updated.Subject)
	require.Equal(t, []string{"alice", "carol"}, updated.Roster)
}

func TestClassGetDeniesOtherEducator(t *testing.T) {
	repo := newStubClassRepo()
	audit := &recordingAudit{}
	classService := newClassService(repo, audit)

	created, err := classService.Create(context.Background(), educatorActor(), dto.ClassCreateRequest{Name: "7B"})
	require.NoError(t, err)

	_, err = classService.Get(context.Background(), Actor{ID: 2, Role: models.RoleEducator}, created.ID)
	require.ErrorIs(t, err, ErrAccessDenied)
	require.Len(t, audit.events, 1)
	require.Equal(t, "access.denied", audit.events[0].Action)
}

func TestClassGetUnknownID(t *testing.T) {
	repo := newStubClassRepo()
	classService := newClassService(repo, &recordingAudit{})

	_, err := classService.Get(context.Background(), educatorActor(), 99)
	require.ErrorIs(t, err, ErrClassNotFound)
}

func TestClassDeleteRemovesOwnedClass(t *testing.T) {
	repo := newStubClassRepo()
	classService := newClassService(repo, &recordingAudit{})

	created, err := classService.Create(context.Background(), educatorActor(), dto.ClassCreateRequest{Name: "7B"})
	require.NoError(t, err)

	require.NoError(t, classService.Delete(context.Background(), educatorActor(), created.ID))
	require.Equal(t, []uint{created.ID}, repo.deletes)

	listed, err := classService.List(context.Background(), educatorActor())
	require.NoError(t, err)
	require.Empty(t, listed)
}
