package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/educasol/educasol-api/internal/dto"
	"github.com/educasol/educasol-api/internal/models"
	"github.com/educasol/educasol-api/internal/repository"
)

var (
	// ErrSubmissionNotFound indicates the requested submission does not exist.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrInvalidFile indicates the uploaded file failed validation.
	ErrInvalidFile = errors.New("invalid file")
	// ErrExamNotPublished blocks uploads to exams that are not accepting work.
	ErrExamNotPublished = errors.New("exam is not published")
)

const statsCacheKeyPrefix = "educasol:stats:educator:"

// SubmissionService defines submission upload and listing behaviour.
type SubmissionService interface {
	Upload(ctx context.Context, actor Actor, req dto.SubmissionCreateRequest, file *multipart.FileHeader) (dto.SubmissionResponse, error)
	List(ctx context.Context, actor Actor, filters dto.SubmissionFilters) ([]dto.SubmissionResponse, error)
	Get(ctx context.Context, actor Actor, id uint) (dto.SubmissionResponse, error)
	Delete(ctx context.Context, actor Actor, id uint) error
	Stats(ctx context.Context, actor Actor) (dto.SubmissionStatsResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	exams       repository.ExamRepository
	storage     FileStorage
	broadcaster SubmissionBroadcaster
	guard       *AccessGuard
	audit       AuditRecorder
	cache       *redis.Client
	cacheTTL    time.Duration
	maxBytes    int64
	validate    *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// SubmissionServiceDeps bundles the collaborators of the submission service.
type SubmissionServiceDeps struct {
	Submissions repository.SubmissionRepository
	Exams       repository.ExamRepository
	Storage     FileStorage
	Broadcaster SubmissionBroadcaster
	Guard       *AccessGuard
	Audit       AuditRecorder
	Cache       *redis.Client
	CacheTTL    time.Duration
	MaxBytes    int64
	Validate    *validator.Validate
	Logger      zerolog.Logger
}

// NewSubmissionService constructs the submission service.
func NewSubmissionService(deps SubmissionServiceDeps) SubmissionService {
	return &submissionService{
		submissions: deps.Submissions,
		exams:       deps.Exams,
		storage:     deps.Storage,
		broadcaster: deps.Broadcaster,
		guard:       deps.Guard,
		audit:       deps.Audit,
		cache:       deps.Cache,
		cacheTTL:    deps.CacheTTL,
		maxBytes:    deps.MaxBytes,
		validate:    deps.Validate,
		logger:      deps.Logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

func (s *submissionService) Upload(ctx context.Context, actor Actor, req dto.SubmissionCreateRequest, fileHeader *multipart.FileHeader) (dto.SubmissionResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return dto.SubmissionResponse{}, err
	}
	if fileHeader == nil {
		return dto.SubmissionResponse{}, fmt.Errorf("%w: file is required", ErrInvalidFile)
	}

	exam, err := s.exams.GetByID(ctx, req.ExamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrExamNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	decision := CheckSubmissionCreate(SubmissionAccessContext{Actor: actor, ExamEducatorID: exam.EducatorID, ExamSchoolID: exam.SchoolID})
	examID := exam.ID
	if err := s.guard.Enforce(ctx, actor, decision, "submission.create", "exam", &examID); err != nil {
		return dto.SubmissionResponse{}, err
	}

	if exam.Status != models.ExamStatusPublished {
		return dto.SubmissionResponse{}, ErrExamNotPublished
	}

	file, err := fileHeader.Open()
	if err != nil {
		return dto.SubmissionResponse{}, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	detected, err := mimetype.DetectReader(file)
	if err != nil {
		return dto.SubmissionResponse{}, fmt.Errorf("detect file type: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return dto.SubmissionResponse{}, fmt.Errorf("rewind upload: %w", err)
	}

	validation := ValidateFile(detected.String(), fileHeader.Size, s.maxBytes)
	if !validation.Valid {
		return dto.SubmissionResponse{}, fmt.Errorf("%w: %s", ErrInvalidFile, strings.Join(validation.Errors, "; "))
	}

	objectName := fmt.Sprintf("exams/%d/%d-%s", exam.ID, s.now().UnixNano(), fileHeader.Filename)
	fileURL, storagePath, err := s.storage.Upload(ctx, objectName, file)
	if err != nil {
		s.logger.Error().Err(err).Uint("exam_id", exam.ID).Msg("file upload failed")
		return dto.SubmissionResponse{}, fmt.Errorf("upload file: %w", err)
	}

	submission := models.Submission{
		ExamID:            exam.ID,
		StudentIdentifier: strings.TrimSpace(req.StudentIdentifier),
		FileURL:           fileURL,
		StoragePath:       storagePath,
		FileType:          validation.FileType,
		FileSize:          fileHeader.Size,
		Status:            models.SubmissionStatusUploaded,
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist submission, cleaning up stored file")
		if cleanupErr := s.storage.Delete(ctx, storagePath); cleanupErr != nil {
			s.logger.Warn().Err(cleanupErr).Str("path", storagePath).Msg("orphaned file cleanup failed")
		}
		return dto.SubmissionResponse{}, err
	}

	submission.Exam = exam
	response := dto.NewSubmissionResponse(submission)

	s.publishEvent(ctx, EventInsert, response)
	s.invalidateStats(ctx, actor.ID)
	s.recordAudit(ctx, actor, "submission.created", submission.ID, map[string]interface{}{"exam_id": exam.ID})
	s.logger.Info().Uint("submission_id", submission.ID).Uint("exam_id", exam.ID).Msg("submission uploaded")

	return response, nil
}

func (s *submissionService) List(ctx context.Context, actor Actor, filters dto.SubmissionFilters) ([]dto.SubmissionResponse, error) {
	if err := s.validate.Struct(filters); err != nil {
		return nil, err
	}

	submissions, err := s.submissions.ListByEducator(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(FilterSubmissions(submissions, filters)), nil
}

func (s *submissionService) Get(ctx context.Context, actor Actor, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.getOwned(ctx, actor, id, "submission.view")
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) Delete(ctx context.Context, actor Actor, id uint) error {
	submission, err := s.getOwned(ctx, actor, id, "submission.delete")
	if err != nil {
		return err
	}

	if err := s.submissions.Delete(ctx, submission.ID); err != nil {
		return err
	}

	if submission.StoragePath != "" {
		if err := s.storage.Delete(ctx, submission.StoragePath); err != nil {
			s.logger.Warn().Err(err).Str("path", submission.StoragePath).Msg("stored file cleanup failed")
		}
	}

	s.invalidateStats(ctx, actor.ID)
	s.recordAudit(ctx, actor, "submission.deleted", submission.ID, map[string]interface{}{"exam_id": submission.ExamID})

	return nil
}

func (s *submissionService) Stats(ctx context.Context, actor Actor) (dto.SubmissionStatsResponse, error) {
	cacheKey := fmt.Sprintf("%s%d", statsCacheKeyPrefix, actor.ID)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var response dto.SubmissionStatsResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				response.CacheHit = true
				return response, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("stats cache read failed")
		}
	}

	submissions, err := s.submissions.ListByEducator(ctx, actor.ID)
	if err != nil {
		return dto.SubmissionStatsResponse{}, err
	}

	response := dto.SubmissionStatsResponse{
		Stats:       AggregateStats(submissions),
		GeneratedAt: s.now().UTC(),
	}

	if s.cache != nil {
		if payload, marshalErr := json.Marshal(response); marshalErr == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("stats cache write failed")
			}
		}
	}

	return response, nil
}

func (s *submissionService) getOwned(ctx context.Context, actor Actor, id uint, action string) (models.Submission, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Submission{}, ErrSubmissionNotFound
		}
		return models.Submission{}, err
	}

	decision := CheckSubmissionView(SubmissionAccessContext{Actor: actor, ExamEducatorID: submission.Exam.EducatorID, ExamSchoolID: submission.Exam.SchoolID})
	submissionID := submission.ID
	if err := s.guard.Enforce(ctx, actor, decision, action, "submission", &submissionID); err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (s *submissionService) publishEvent(ctx context.Context, eventType string, submission dto.SubmissionResponse) {
	if s.broadcaster == nil {
		return
	}
	if err := s.broadcaster.Publish(ctx, SubmissionEvent{
		Type:       eventType,
		ExamID:     submission.ExamID,
		Submission: submission,
		OccurredAt: s.now().UTC(),
	}); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Msg("failed to publish submission event")
	}
}

func (s *submissionService) invalidateStats(ctx context.Context, educatorID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, fmt.Sprintf("%s%d", statsCacheKeyPrefix, educatorID)).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("stats cache invalidation failed")
	}
}

func (s *submissionService) recordAudit(ctx context.Context, actor Actor, action string, submissionID uint, metadata map[string]interface{}) {
	if s.audit == nil {
		return
	}
	id := submissionID
	if err := s.audit.Record(ctx, AuditEvent{
		Actor:      actor,
		Action:     action,
		EntityType: "submission",
		EntityID:   &id,
		Metadata:   metadata,
	}); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to record audit entry")
	}
}
