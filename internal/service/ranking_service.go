package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/pointku-api/internal/dto"
	"github.com/noah-isme/pointku-api/internal/models"
	"github.com/noah-isme/pointku-api/internal/repository"
	appErrors "github.com/noah-isme/pointku-api/pkg/errors"
	"github.com/noah-isme/pointku-api/pkg/jobs"
)

const (
	rankingCachePattern = "ranking:*"
	rankingRefreshJob   = "ranking.refresh"
	defaultRankingLimit = 5
)

type rankingRepository interface {
	Ranking(ctx context.Context, filter models.RankingFilter) ([]models.RankingEntry, error)
	Standing(ctx context.Context, studentID string) (*models.StudentStanding, error)
}

// RankingServiceConfig tunes the leaderboard and its refresh workers.
type RankingServiceConfig struct {
	DefaultLimit  int
	CacheTTL      time.Duration
	Workers       int
	MaxRetries    int
	RetryDelay    time.Duration
	InlineTimeout time.Duration
}

// RankingService serves the student leaderboard from cache and drops cached
// leaderboards whenever the ledger commits a change.
type RankingService struct {
	repo      rankingRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       RankingServiceConfig
	queue     *jobs.Queue
}

// NewRankingService constructs the service together with its refresh queue.
func NewRankingService(repo rankingRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger, cfg RankingServiceConfig) *RankingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = defaultRankingLimit
	}
	if cfg.InlineTimeout <= 0 {
		cfg.InlineTimeout = 2 * time.Second
	}
	svc := &RankingService{repo: repo, cache: cache, validator: validate, logger: logger, cfg: cfg}
	svc.queue = jobs.NewQueue("ranking-refresh", svc.handleJob, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return svc
}

// Start launches the refresh workers.
func (s *RankingService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the refresh workers.
func (s *RankingService) Stop() {
	s.queue.Stop()
}

// Ranking returns the top students for the requested scope, ranked by points then name.
func (s *RankingService) Ranking(ctx context.Context, viewer models.Viewer, query dto.RankingQuery) ([]models.RankingEntry, error) {
	if viewer == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid ranking query")
	}
	filter := models.RankingFilter{KelasID: query.KelasID, RombelID: query.RombelID, Limit: query.Limit}
	if filter.Limit == 0 {
		filter.Limit = s.cfg.DefaultLimit
	}

	key := rankingCacheKey(filter)
	var cached []models.RankingEntry
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	entries, err := s.repo.Ranking(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ranking")
	}
	s.cache.Set(ctx, key, entries, s.cfg.CacheTTL)
	return entries, nil
}

// Standing returns one student's total. Students may only look up themselves.
func (s *RankingService) Standing(ctx context.Context, viewer models.Viewer, studentID string) (*models.StudentStanding, error) {
	switch v := viewer.(type) {
	case models.AdminViewer, models.TeacherViewer:
	case models.StudentViewer:
		if v.UserID != studentID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "students may only view their own points")
		}
	default:
		return nil, appErrors.ErrUnauthorized
	}

	standing, err := s.repo.Standing(ctx, studentID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student points")
	}
	return standing, nil
}

// Invalidate drops every cached leaderboard.
func (s *RankingService) Invalidate(ctx context.Context) error {
	return s.cache.Invalidate(ctx, rankingCachePattern)
}

// PointsChanged schedules a cache drop after a committed ledger write. When the
// queue cannot take the job the cache is dropped inline instead.
func (s *RankingService) PointsChanged(studentIDs ...string) {
	if !s.cache.Enabled() {
		return
	}
	err := s.queue.TryEnqueue(jobs.Job{Type: rankingRefreshJob, Payload: studentIDs})
	if err == nil {
		return
	}
	s.logger.Warn("ranking refresh not queued, invalidating inline", zap.Strings("student_ids", studentIDs), zap.Error(err))

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.InlineTimeout)
	defer cancel()
	if err := s.Invalidate(ctx); err != nil {
		s.logger.Warn("inline ranking invalidation failed", zap.Strings("student_ids", studentIDs), zap.Error(err))
	}
}

func (s *RankingService) handleJob(ctx context.Context, job jobs.Job) error {
	if job.Type != rankingRefreshJob {
		return fmt.Errorf("unexpected job type %q", job.Type)
	}
	return s.Invalidate(ctx)
}

func rankingCacheKey(filter models.RankingFilter) string {
	return fmt.Sprintf("ranking:%s:%s:%d", filter.KelasID, filter.RombelID, filter.Limit)
}
