package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"cleanstreet-be/models"
	"cleanstreet-be/policy"
	"cleanstreet-be/repository"
)

const (
	DefaultPageSize = 8
	MaxPageSize     = 100
)

// CreateIssueInput is the body of a new report. Image URLs must already be
// uploaded to the CDN.
type CreateIssueInput struct {
	Title       string           `json:"issueTitle" validate:"required,max=200"`
	Type        models.IssueType `json:"issueType" validate:"required"`
	Priority    models.Priority  `json:"priorityLevel" validate:"required"`
	Address     string           `json:"address" validate:"max=300"`
	Landmark    string           `json:"landmark" validate:"max=300"`
	Description string           `json:"description" validate:"max=2000"`
	Images      []string         `json:"images" validate:"max=4,dive,required,url"`
	Location    *models.Location `json:"location" validate:"omitempty"`
}

func (in *CreateIssueInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Address = strings.TrimSpace(in.Address)
	in.Landmark = strings.TrimSpace(in.Landmark)
	in.Description = strings.TrimSpace(in.Description)
}

// IssuePatch maps wire field names to new values, as decoded from JSON.
type IssuePatch map[string]any

// ListIssuesInput selects one page of issues. Status and Type accept "" or
// "all" for no filter.
type ListIssuesInput struct {
	Status   string
	Type     string
	Search   string
	Page     int
	PageSize int
}

type ListIssuesResult struct {
	Issues     []models.Issue `json:"issues"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalPages int            `json:"totalPages"`
}

// IssueService owns the lifecycle of issue records.
type IssueService struct {
	repo     repository.IssueRepository
	stats    StatsCache
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

func NewIssueService(repo repository.IssueRepository, stats StatsCache, logger *slog.Logger) *IssueService {
	if stats == nil {
		stats = NopStatsCache{}
	}
	return &IssueService{
		repo:     repo,
		stats:    stats,
		validate: newValidator(),
		logger:   logger.With("service", "issue"),
		now:      now,
	}
}

// now is millisecond-truncated UTC, the precision MongoDB stores.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func requireAuth(r models.Requester, action string) error {
	if !r.IsAuthenticated() {
		return models.NewUnauthenticatedError("please login to " + action)
	}
	return nil
}

// CreateIssue stores a new Pending issue reported by r.
func (s *IssueService) CreateIssue(ctx context.Context, r models.Requester, in CreateIssueInput) (*models.Issue, error) {
	if err := requireAuth(r, "submit an issue"); err != nil {
		return nil, err
	}

	in.normalize()
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}
	if !in.Type.IsValid() {
		return nil, models.NewValidationError(string(policy.FieldType), "invalid issue type")
	}
	if !in.Priority.IsValid() {
		return nil, models.NewValidationError(string(policy.FieldPriority), "invalid priority level")
	}

	ts := s.now()
	issue := &models.Issue{
		ID:          primitive.NewObjectID(),
		Title:       in.Title,
		Type:        in.Type,
		Priority:    in.Priority,
		Address:     in.Address,
		Landmark:    in.Landmark,
		Description: in.Description,
		Status:      models.Pending,
		Images:      append([]string{}, in.Images...),
		Location:    in.Location,
		ReportedBy:  r.Ref(),
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	issue.Normalize()

	if err := s.repo.Create(ctx, issue); err != nil {
		return nil, fmt.Errorf("create issue: %w", err)
	}
	s.invalidateStats(ctx)

	s.logger.InfoContext(ctx, "issue created",
		slog.String("issue_id", issue.ID.Hex()),
		slog.String("reporter_id", r.ID.Hex()),
		slog.Int("images", len(issue.Images)),
	)
	return issue, nil
}

// UpdateIssue applies patch after checking every key against the fields
// policy.EditableFields grants r. A single disallowed key rejects the whole
// patch; nothing is written on any failure.
func (s *IssueService) UpdateIssue(ctx context.Context, r models.Requester, id primitive.ObjectID, patch IssuePatch) (*models.Issue, error) {
	if err := requireAuth(r, "update an issue"); err != nil {
		return nil, err
	}
	if len(patch) == 0 {
		return nil, models.NewValidationError("", "no fields to update")
	}

	issue, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	allowed := policy.EditableFields(r, issue)
	keys := make([]string, 0, len(patch))
	for k := range patch {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !allowed.Has(policy.FieldName(k)) {
			return nil, models.NewForbiddenError(fmt.Sprintf("you are not allowed to change %s", k))
		}
	}

	update, err := buildUpdate(patch)
	if err != nil {
		return nil, err
	}
	update.UpdatedAt = s.now()

	updated, err := s.repo.Update(ctx, id, update)
	if err != nil {
		return nil, fmt.Errorf("update issue: %w", err)
	}
	if update.Status != nil && *update.Status != issue.Status {
		s.invalidateStats(ctx)
		s.logger.InfoContext(ctx, "issue status changed",
			slog.String("issue_id", id.Hex()),
			slog.String("from", string(issue.Status)),
			slog.String("to", string(*update.Status)),
			slog.String("admin_id", r.ID.Hex()),
		)
	}
	return updated, nil
}

// buildUpdate validates every patch value and converts it into an
// IssueUpdate. Keys are assumed to be editable field names.
func buildUpdate(patch IssuePatch) (models.IssueUpdate, error) {
	var u models.IssueUpdate
	for k, raw := range patch {
		field := policy.FieldName(k)
		str, ok := raw.(string)
		if !ok {
			return u, models.NewValidationError(k, "must be a string")
		}
		v := strings.TrimSpace(str)

		switch field {
		case policy.FieldTitle:
			if v == "" {
				return u, models.NewValidationError(k, "is required")
			}
			if utf8.RuneCountInString(v) > models.MaxTitleLength {
				return u, models.NewValidationError(k, fmt.Sprintf("must be at most %d characters", models.MaxTitleLength))
			}
			u.Title = &v
		case policy.FieldType:
			t := models.IssueType(v)
			if !t.IsValid() {
				return u, models.NewValidationError(k, "invalid issue type")
			}
			u.Type = &t
		case policy.FieldPriority:
			p := models.Priority(v)
			if !p.IsValid() {
				return u, models.NewValidationError(k, "invalid priority level")
			}
			u.Priority = &p
		case policy.FieldStatus:
			st := models.IssueStatus(v)
			if !st.IsValid() {
				return u, models.NewValidationError(k, "invalid status")
			}
			u.Status = &st
		case policy.FieldAddress, policy.FieldLandmark:
			if utf8.RuneCountInString(v) > models.MaxAddressLength {
				return u, models.NewValidationError(k, fmt.Sprintf("must be at most %d characters", models.MaxAddressLength))
			}
			if field == policy.FieldAddress {
				u.Address = &v
			} else {
				u.Landmark = &v
			}
		case policy.FieldDescription:
			if utf8.RuneCountInString(v) > models.MaxDescriptionLength {
				return u, models.NewValidationError(k, fmt.Sprintf("must be at most %d characters", models.MaxDescriptionLength))
			}
			u.Description = &v
		default:
			return u, models.NewValidationError(k, "unknown field")
		}
	}
	return u, nil
}

// DeleteIssue removes the issue and its thread. Only the reporter or an
// admin may do this.
func (s *IssueService) DeleteIssue(ctx context.Context, r models.Requester, id primitive.ObjectID) error {
	if err := requireAuth(r, "delete an issue"); err != nil {
		return err
	}

	issue, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !policy.CanDelete(r, issue) {
		return models.NewForbiddenError("you are not authorized to delete this issue")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateStats(ctx)

	s.logger.InfoContext(ctx, "issue deleted",
		slog.String("issue_id", id.Hex()),
		slog.String("by", r.ID.Hex()),
		slog.String("label", string(policy.Label(r, issue))),
	)
	return nil
}

func (s *IssueService) GetIssue(ctx context.Context, id primitive.ObjectID) (*models.Issue, error) {
	return s.repo.GetByID(ctx, id)
}

// ListIssues returns one page of issues matching every given filter,
// newest first. Total counts all matches.
func (s *IssueService) ListIssues(ctx context.Context, in ListIssuesInput) (*ListIssuesResult, error) {
	var f models.IssueFilter
	if v := strings.TrimSpace(in.Status); v != "" && !strings.EqualFold(v, "all") {
		f.Status = models.IssueStatus(v)
		if !f.Status.IsValid() {
			return nil, models.NewValidationError("status", "invalid status")
		}
	}
	if v := strings.TrimSpace(in.Type); v != "" && !strings.EqualFold(v, "all") {
		f.Type = models.IssueType(v)
		if !f.Type.IsValid() {
			return nil, models.NewValidationError("issueType", "invalid issue type")
		}
	}
	f.Search = strings.TrimSpace(in.Search)

	page := in.Page
	if page < 1 {
		page = 1
	}
	size := in.PageSize
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	issues, total, err := s.repo.List(ctx, f, pageSkip(page, size), size)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	for k := range issues {
		issues[k].Normalize()
	}

	return &ListIssuesResult{
		Issues:     issues,
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: int((total + int64(size) - 1) / int64(size)),
	}, nil
}

// pageSkip is (page-1)*size, saturating at math.MaxInt so absurd page
// numbers land past the end instead of wrapping.
func pageSkip(page, size int) int {
	if page-1 > math.MaxInt/size {
		return math.MaxInt
	}
	return (page - 1) * size
}

// GetMyIssues lists everything r reported, newest first.
func (s *IssueService) GetMyIssues(ctx context.Context, r models.Requester) ([]models.Issue, error) {
	if err := requireAuth(r, "view your issues"); err != nil {
		return nil, err
	}
	issues, err := s.repo.ListByReporter(ctx, r.ID)
	if err != nil {
		return nil, fmt.Errorf("list my issues: %w", err)
	}
	for k := range issues {
		issues[k].Normalize()
	}
	return issues, nil
}

// GetStats counts issues by status. TotalIssues is the sum of the three
// status counts.
func (s *IssueService) GetStats(ctx context.Context) (models.IssueStats, error) {
	cached, gen, err := s.stats.Get(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "stats cache read failed", slog.Any("error", err))
	}
	if cached != nil {
		return *cached, nil
	}

	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return models.IssueStats{}, fmt.Errorf("count issues: %w", err)
	}
	stats := models.IssueStats{
		PendingIssues:    counts[models.Pending],
		InProgressIssues: counts[models.InProgress],
		ResolvedIssues:   counts[models.Resolved],
	}
	stats.TotalIssues = stats.PendingIssues + stats.InProgressIssues + stats.ResolvedIssues

	if err := s.stats.Set(ctx, gen, stats); err != nil {
		s.logger.WarnContext(ctx, "stats cache write failed", slog.Any("error", err))
	}
	return stats, nil
}

func (s *IssueService) invalidateStats(ctx context.Context) {
	if err := s.stats.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "stats cache invalidation failed", slog.Any("error", err))
	}
}

// Ping checks the backing store.
func (s *IssueService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
