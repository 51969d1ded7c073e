package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/pointku-api/internal/dto"
	"github.com/noah-isme/pointku-api/internal/models"
	"github.com/noah-isme/pointku-api/internal/repository"
	"github.com/noah-isme/pointku-api/pkg/database"
	appErrors "github.com/noah-isme/pointku-api/pkg/errors"
	"github.com/noah-isme/pointku-api/pkg/middleware/requestid"
)

type pointLedgerStore interface {
	List(ctx context.Context, filter models.PointHistoryFilter) ([]models.PointHistoryDetail, error)
	FindByID(ctx context.Context, id string) (*models.PointHistoryDetail, error)
	WithinTx(ctx context.Context, fn func(repository.PointLedgerTx) error) error
}

// LedgerObserver is told which students' totals changed after a ledger write commits.
type LedgerObserver interface {
	PointsChanged(studentIDs ...string)
}

const (
	outcomeCommitted = "committed"
	outcomeRejected  = "rejected"
	outcomeFailed    = "failed"

	defaultMaxQueryLimit = 500
)

// PointLedgerService awards, amends and revokes points. Every write runs as one
// transaction that touches both the history log and the affected students'
// cached totals, so users.points always equals the sum of that student's entries.
type PointLedgerService struct {
	store     pointLedgerStore
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	observer  LedgerObserver
	maxLimit  int
	now       func() time.Time
}

// NewPointLedgerService constructs the service. metrics and observer may be nil.
func NewPointLedgerService(store pointLedgerStore, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService, observer LedgerObserver) *PointLedgerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PointLedgerService{
		store:     store,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
		observer:  observer,
		maxLimit:  defaultMaxQueryLimit,
		now:       time.Now,
	}
}

// WithMaxQueryLimit sets the largest limit List accepts. Non-positive values keep the default.
func (s *PointLedgerService) WithMaxQueryLimit(limit int) *PointLedgerService {
	if limit > 0 {
		s.maxLimit = limit
	}
	return s
}

// Award records a new entry and adds its points to the student's total.
func (s *PointLedgerService) Award(ctx context.Context, viewer models.Viewer, req dto.AwardPointsRequest) (*models.PointHistoryEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid point award payload")
	}
	issuerID, err := awardingIssuer(viewer, strings.TrimSpace(req.IssuerID))
	if err != nil {
		return nil, err
	}
	eventDate := models.NewDate(s.now().UTC())
	if req.Date != "" {
		if eventDate, err = models.ParseDate(req.Date); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "date must be YYYY-MM-DD")
		}
	}

	entry := &models.PointHistoryEntry{
		ID:        newEntryID(),
		StudentID: strings.TrimSpace(req.StudentID),
		IssuerID:  issuerID,
		Points:    req.Points,
		Reason:    strings.TrimSpace(req.Reason),
		EventDate: eventDate,
		CreatedAt: s.now().UTC(),
	}

	err = s.run(ctx, OpAward, func(tx repository.PointLedgerTx) error {
		if err := requireStudent(ctx, tx, entry.StudentID); err != nil {
			return err
		}
		if err := requireIssuer(ctx, tx, entry.IssuerID); err != nil {
			return err
		}
		if err := tx.InsertEntry(ctx, entry); err != nil {
			return err
		}
		return tx.AdjustPoints(ctx, entry.StudentID, entry.Points)
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, OpAward, entry, entry.Points, entry.StudentID)
	return entry, nil
}

// Amend rewrites an entry and rebalances the totals of the student(s) involved.
func (s *PointLedgerService) Amend(ctx context.Context, viewer models.Viewer, id string, req dto.AmendPointsRequest) (*models.PointHistoryEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid point amendment payload")
	}
	if strings.TrimSpace(id) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "point history id is required")
	}
	if err := requireWriter(viewer); err != nil {
		return nil, err
	}
	var newDate *models.Date
	if req.Date != "" {
		parsed, err := models.ParseDate(req.Date)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "date must be YYYY-MM-DD")
		}
		newDate = &parsed
	}
	newStudentID := strings.TrimSpace(req.StudentID)
	newIssuerID := strings.TrimSpace(req.IssuerID)

	var previous, updated models.PointHistoryEntry
	err := s.run(ctx, OpAmend, func(tx repository.PointLedgerTx) error {
		current, err := tx.LockEntry(ctx, id)
		if err != nil {
			return err
		}
		if err := authorizeEntryWrite(viewer, current); err != nil {
			return err
		}

		next := *current
		next.Points = req.Points
		next.Reason = strings.TrimSpace(req.Reason)
		if newDate != nil {
			next.EventDate = *newDate
		}
		if newStudentID != "" && newStudentID != current.StudentID {
			if err := requireStudent(ctx, tx, newStudentID); err != nil {
				return err
			}
			next.StudentID = newStudentID
		}
		if newIssuerID != "" && newIssuerID != current.IssuerID {
			if _, isAdmin := viewer.(models.AdminViewer); !isAdmin {
				return appErrors.Clone(appErrors.ErrForbidden, "only administrators may reassign the issuer")
			}
			if err := requireIssuer(ctx, tx, newIssuerID); err != nil {
				return err
			}
			next.IssuerID = newIssuerID
		}

		if err := tx.UpdateEntry(ctx, &next); err != nil {
			return err
		}
		for _, adj := range rebalance(*current, next) {
			if err := tx.AdjustPoints(ctx, adj.studentID, adj.delta); err != nil {
				return err
			}
		}
		previous, updated = *current, next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, OpAmend, &updated, updated.Points-previous.Points, previous.StudentID, updated.StudentID)
	return &updated, nil
}

// Revoke deletes an entry and removes its points from the student's total.
func (s *PointLedgerService) Revoke(ctx context.Context, viewer models.Viewer, id string) (*models.PointHistoryEntry, error) {
	if strings.TrimSpace(id) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "point history id is required")
	}
	if err := requireWriter(viewer); err != nil {
		return nil, err
	}

	var revoked models.PointHistoryEntry
	err := s.run(ctx, OpRevoke, func(tx repository.PointLedgerTx) error {
		current, err := tx.LockEntry(ctx, id)
		if err != nil {
			return err
		}
		if err := authorizeEntryWrite(viewer, current); err != nil {
			return err
		}
		if err := tx.DeleteEntry(ctx, current.ID); err != nil {
			return err
		}
		if err := tx.AdjustPoints(ctx, current.StudentID, -current.Points); err != nil {
			return err
		}
		revoked = *current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, OpRevoke, &revoked, -revoked.Points, revoked.StudentID)
	return &revoked, nil
}

// List returns history entries ordered by event date then creation time, newest first.
// Students only ever see their own entries. A zero limit returns every matching entry.
func (s *PointLedgerService) List(ctx context.Context, viewer models.Viewer, query dto.PointHistoryQuery) ([]models.PointHistoryDetail, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid point history query")
	}
	if query.Limit > s.maxLimit {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("limit must not exceed %d", s.maxLimit))
	}
	filter := models.PointHistoryFilter{
		StudentID: query.StudentID,
		IssuerID:  query.IssuerID,
		RombelID:  query.RombelID,
		KelasID:   query.KelasID,
		Limit:     query.Limit,
	}
	var err error
	if filter.DateFrom, err = optionalDate(firstNonEmpty(query.Date, query.DateFrom)); err != nil {
		return nil, err
	}
	if filter.DateTo, err = optionalDate(firstNonEmpty(query.Date, query.DateTo)); err != nil {
		return nil, err
	}

	switch v := viewer.(type) {
	case models.AdminViewer, models.TeacherViewer:
	case models.StudentViewer:
		filter.StudentID = v.UserID
	default:
		return nil, appErrors.ErrUnauthorized
	}

	entries, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list point history")
	}
	return entries, nil
}

// Get returns a single entry.
func (s *PointLedgerService) Get(ctx context.Context, viewer models.Viewer, id string) (*models.PointHistoryDetail, error) {
	if viewer == nil {
		return nil, appErrors.ErrUnauthorized
	}
	entry, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrEntryNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "point history entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load point history entry")
	}
	if student, ok := viewer.(models.StudentViewer); ok && entry.StudentID != student.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "entry belongs to another student")
	}
	return entry, nil
}

func (s *PointLedgerService) run(ctx context.Context, op string, fn func(repository.PointLedgerTx) error) error {
	start := time.Now()
	err := s.translate(op, s.store.WithinTx(ctx, fn))

	outcome := outcomeCommitted
	if err != nil {
		outcome = outcomeFailed
		if appErr := appErrors.FromError(err); appErr.Status < 500 {
			outcome = outcomeRejected
		} else {
			s.logger.Error("point ledger transaction failed",
				zap.String("operation", op),
				zap.String("request_id", requestid.FromContext(ctx)),
				zap.Error(err),
			)
		}
	}
	s.metrics.ObserveLedgerOperation(op, outcome, time.Since(start))
	return err
}

func (s *PointLedgerService) translate(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *appErrors.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, repository.ErrEntryNotFound):
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "point history entry not found")
	case errors.Is(err, repository.ErrUserNotFound), database.IsForeignKeyViolation(err):
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "student or issuer not found")
	case database.IsOutOfRange(err):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "points total out of range")
	case database.IsTransient(err), errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return appErrors.WrapAs(appErrors.ErrTransactionFailed, err, "")
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to "+op+" points")
	}
}

func (s *PointLedgerService) committed(ctx context.Context, op string, entry *models.PointHistoryEntry, delta int, studentIDs ...string) {
	s.metrics.ObservePointsMoved(delta)
	s.logger.Info("point ledger updated",
		zap.String("operation", op),
		zap.String("entry_id", entry.ID),
		zap.String("student_id", entry.StudentID),
		zap.String("issuer_id", entry.IssuerID),
		zap.Int("delta", delta),
		zap.String("request_id", requestid.FromContext(ctx)),
	)
	if s.observer != nil {
		s.observer.PointsChanged(uniqueIDs(studentIDs)...)
	}
}

type adjustment struct {
	studentID string
	delta     int
}

// rebalance returns the total adjustments that move an entry from before to after.
// Reassignment yields two adjustments in ascending student id order so that
// concurrent crossing reassignments take user row locks in the same order.
func rebalance(before, after models.PointHistoryEntry) []adjustment {
	if before.StudentID == after.StudentID {
		delta := after.Points - before.Points
		if delta == 0 {
			return nil
		}
		return []adjustment{{studentID: after.StudentID, delta: delta}}
	}
	adjs := []adjustment{
		{studentID: before.StudentID, delta: -before.Points},
		{studentID: after.StudentID, delta: after.Points},
	}
	sort.Slice(adjs, func(i, j int) bool { return adjs[i].studentID < adjs[j].studentID })
	return adjs
}

// newEntryID returns a time-ordered id so that entries created in the same
// microsecond still list newest first.
func newEntryID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func awardingIssuer(viewer models.Viewer, requested string) (string, error) {
	switch v := viewer.(type) {
	case models.AdminViewer:
		if requested == "" {
			return "", appErrors.Clone(appErrors.ErrValidation, "issuer_id is required")
		}
		return requested, nil
	case models.TeacherViewer:
		if requested != "" && requested != v.UserID {
			return "", appErrors.Clone(appErrors.ErrForbidden, "teachers may only award points as themselves")
		}
		return v.UserID, nil
	case models.StudentViewer:
		return "", appErrors.Clone(appErrors.ErrForbidden, "students may not award points")
	default:
		return "", appErrors.ErrUnauthorized
	}
}

func requireWriter(viewer models.Viewer) error {
	switch viewer.(type) {
	case models.AdminViewer, models.TeacherViewer:
		return nil
	case models.StudentViewer:
		return appErrors.Clone(appErrors.ErrForbidden, "students may not modify point history")
	default:
		return appErrors.ErrUnauthorized
	}
}

func authorizeEntryWrite(viewer models.Viewer, entry *models.PointHistoryEntry) error {
	switch v := viewer.(type) {
	case models.AdminViewer:
		return nil
	case models.TeacherViewer:
		if entry.IssuerID != v.UserID {
			return appErrors.Clone(appErrors.ErrForbidden, "entry was issued by another teacher")
		}
		return nil
	default:
		return requireWriter(viewer)
	}
}

func requireStudent(ctx context.Context, tx repository.PointLedgerTx, id string) error {
	role, err := tx.UserRole(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) || (err == nil && role != models.RoleStudent) {
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return err
}

func requireIssuer(ctx context.Context, tx repository.PointLedgerTx, id string) error {
	role, err := tx.UserRole(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) || (err == nil && !role.CanIssuePoints()) {
		return appErrors.Clone(appErrors.ErrNotFound, "issuer not found")
	}
	return err
}

func optionalDate(raw string) (*models.Date, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "dates must be YYYY-MM-DD")
	}
	return &d, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
