// Package repository persists issues and users. Each store comes in a
// MongoDB flavour for production and an in-process flavour for local runs
// and tests; both honour the same contracts.
package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"cleanstreet-be/models"
)

// IssueRepository stores issue documents. Methods that address a single
// issue return a *models.NotFoundError when the id is unknown.
type IssueRepository interface {
	Create(ctx context.Context, issue *models.Issue) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Issue, error)
	// Update writes only the non-nil fields of u and returns the stored issue.
	Update(ctx context.Context, id primitive.ObjectID, u models.IssueUpdate) (*models.Issue, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	// List returns one page of matching issues, newest first, and the total
	// number of matches. A negative skip returns ErrNegativeSkip.
	List(ctx context.Context, f models.IssueFilter, skip, limit int) ([]models.Issue, int64, error)
	ListByReporter(ctx context.Context, reporterID primitive.ObjectID) ([]models.Issue, error)
	CountByStatus(ctx context.Context) (map[models.IssueStatus]int64, error)

	// SetReaction moves userID into the set matching r (and out of the
	// other) as one atomic write.
	SetReaction(ctx context.Context, id, userID primitive.ObjectID, r models.Reaction) (*models.Issue, error)
	AppendComment(ctx context.Context, id primitive.ObjectID, c models.Comment) (*models.Issue, error)
	// RemoveComment returns a NotFoundError for the comment when the issue
	// exists but holds no comment with commentID.
	RemoveComment(ctx context.Context, id, commentID primitive.ObjectID) (*models.Issue, error)

	Ping(ctx context.Context) error
}

// UserRepository stores accounts. Create returns models.ErrConflict when the
// email is already registered.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// ErrNegativeSkip is returned by List for a skip below zero.
var ErrNegativeSkip = errors.New("negative skip")

func issueNotFound(id primitive.ObjectID) error {
	return models.NewNotFoundError("issue", id.Hex())
}

func commentNotFound(id primitive.ObjectID) error {
	return models.NewNotFoundError("comment", id.Hex())
}
