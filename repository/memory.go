package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"cleanstreet-be/models"
)

// MemoryIssueRepository keeps issues in process memory. Every read and
// write goes through Clone so callers never share slices with the store.
type MemoryIssueRepository struct {
	mu     sync.RWMutex
	issues map[primitive.ObjectID]*models.Issue
}

func NewMemoryIssueRepository() *MemoryIssueRepository {
	return &MemoryIssueRepository{issues: make(map[primitive.ObjectID]*models.Issue)}
}

func (r *MemoryIssueRepository) Create(_ context.Context, issue *models.Issue) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	if _, ok := r.issues[issue.ID]; ok {
		return fmt.Errorf("issue %s: %w", issue.ID.Hex(), models.ErrConflict)
	}
	r.issues[issue.ID] = issue.Clone()
	return nil
}

func (r *MemoryIssueRepository) GetByID(_ context.Context, id primitive.ObjectID) (*models.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	issue, ok := r.issues[id]
	if !ok {
		return nil, issueNotFound(id)
	}
	return issue.Clone(), nil
}

// mutate runs fn on the stored issue under the write lock.
func (r *MemoryIssueRepository) mutate(id primitive.ObjectID, fn func(*models.Issue) error) (*models.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	issue, ok := r.issues[id]
	if !ok {
		return nil, issueNotFound(id)
	}
	next := issue.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	r.issues[id] = next
	return next.Clone(), nil
}

func (r *MemoryIssueRepository) Update(_ context.Context, id primitive.ObjectID, u models.IssueUpdate) (*models.Issue, error) {
	return r.mutate(id, func(issue *models.Issue) error {
		u.Apply(issue)
		return nil
	})
}

func (r *MemoryIssueRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.issues[id]; !ok {
		return issueNotFound(id)
	}
	delete(r.issues, id)
	return nil
}

func (r *MemoryIssueRepository) List(_ context.Context, f models.IssueFilter, skip, limit int) ([]models.Issue, int64, error) {
	if skip < 0 {
		return nil, 0, ErrNegativeSkip
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(f.Search)
	var matched []*models.Issue
	for _, issue := range r.issues {
		if f.Status != "" && issue.Status != f.Status {
			continue
		}
		if f.Type != "" && issue.Type != f.Type {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(issue.Title), search) {
			continue
		}
		matched = append(matched, issue)
	}
	sortNewestFirst(matched)

	total := int64(len(matched))
	if skip >= len(matched) {
		return []models.Issue{}, total, nil
	}
	end := len(matched)
	if limit > 0 && limit < end-skip {
		end = skip + limit
	}
	return cloneAll(matched[skip:end]), total, nil
}

func (r *MemoryIssueRepository) ListByReporter(_ context.Context, reporterID primitive.ObjectID) ([]models.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*models.Issue
	for _, issue := range r.issues {
		if issue.ReportedBy.ID == reporterID {
			matched = append(matched, issue)
		}
	}
	sortNewestFirst(matched)
	return cloneAll(matched), nil
}

func (r *MemoryIssueRepository) CountByStatus(_ context.Context) (map[models.IssueStatus]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[models.IssueStatus]int64)
	for _, issue := range r.issues {
		counts[issue.Status]++
	}
	return counts, nil
}

func (r *MemoryIssueRepository) SetReaction(_ context.Context, id, userID primitive.ObjectID, reaction models.Reaction) (*models.Issue, error) {
	return r.mutate(id, func(issue *models.Issue) error {
		issue.SetReaction(userID, reaction)
		return nil
	})
}

func (r *MemoryIssueRepository) AppendComment(_ context.Context, id primitive.ObjectID, c models.Comment) (*models.Issue, error) {
	return r.mutate(id, func(issue *models.Issue) error {
		issue.Comments = append(issue.Comments, c)
		return nil
	})
}

func (r *MemoryIssueRepository) RemoveComment(_ context.Context, id, commentID primitive.ObjectID) (*models.Issue, error) {
	return r.mutate(id, func(issue *models.Issue) error {
		kept := make([]models.Comment, 0, len(issue.Comments))
		for _, c := range issue.Comments {
			if c.ID != commentID {
				kept = append(kept, c)
			}
		}
		if len(kept) == len(issue.Comments) {
			return commentNotFound(commentID)
		}
		issue.Comments = kept
		return nil
	})
}

func (r *MemoryIssueRepository) Ping(context.Context) error { return nil }

func sortNewestFirst(issues []*models.Issue) {
	sort.Slice(issues, func(i, j int) bool {
		if !issues[i].CreatedAt.Equal(issues[j].CreatedAt) {
			return issues[i].CreatedAt.After(issues[j].CreatedAt)
		}
		return issues[i].ID.Hex() > issues[j].ID.Hex()
	})
}

func cloneAll(issues []*models.Issue) []models.Issue {
	out := make([]models.Issue, 0, len(issues))
	for _, issue := range issues {
		out = append(out, *issue.Clone())
	}
	return out
}

// MemoryUserRepository keeps accounts in process memory.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]models.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[primitive.ObjectID]models.User)}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return fmt.Errorf("email %s: %w", user.Email, models.ErrConflict)
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, models.NewNotFoundError("user", id.Hex())
	}
	return &u, nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, models.NewNotFoundError("user", email)
}
