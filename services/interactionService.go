package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"cleanstreet-be/models"
	"cleanstreet-be/policy"
	"cleanstreet-be/repository"
)

// ReactionResult is the authoritative issue after a like or dislike toggle,
// plus the caller's resulting vote.
type ReactionResult struct {
	Issue        *models.Issue `json:"issue"`
	Likes        int           `json:"likes"`
	Dislikes     int           `json:"dislikes"`
	UserLiked    bool          `json:"userLiked"`
	UserDisliked bool          `json:"userDisliked"`
}

// InteractionService handles votes and comment threads on issues.
type InteractionService struct {
	repo   repository.IssueRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewInteractionService(repo repository.IssueRepository, logger *slog.Logger) *InteractionService {
	return &InteractionService{
		repo:   repo,
		logger: logger.With("service", "interaction"),
		now:    now,
	}
}

// Like toggles r's like. Liking clears a dislike.
func (s *InteractionService) Like(ctx context.Context, r models.Requester, issueID primitive.ObjectID) (*ReactionResult, error) {
	if err := requireAuth(r, "like an issue"); err != nil {
		return nil, err
	}
	return s.toggle(ctx, r, issueID, models.Liked)
}

// Dislike toggles r's dislike. Disliking clears a like.
func (s *InteractionService) Dislike(ctx context.Context, r models.Requester, issueID primitive.ObjectID) (*ReactionResult, error) {
	if err := requireAuth(r, "dislike an issue"); err != nil {
		return nil, err
	}
	return s.toggle(ctx, r, issueID, models.Disliked)
}

func (s *InteractionService) toggle(ctx context.Context, r models.Requester, issueID primitive.ObjectID, pressed models.Reaction) (*ReactionResult, error) {
	issue, err := s.repo.GetByID(ctx, issueID)
	if err != nil {
		return nil, err
	}

	next := models.NextReaction(issue.ReactionOf(r.ID), pressed)
	updated, err := s.repo.SetReaction(ctx, issueID, r.ID, next)
	if err != nil {
		return nil, fmt.Errorf("set reaction: %w", err)
	}
	updated.Normalize()

	return &ReactionResult{
		Issue:        updated,
		Likes:        len(updated.Likes),
		Dislikes:     len(updated.Dislikes),
		UserLiked:    next == models.Liked,
		UserDisliked: next == models.Disliked,
	}, nil
}

// AddComment appends a comment by r and returns the whole thread.
func (s *InteractionService) AddComment(ctx context.Context, r models.Requester, issueID primitive.ObjectID, text string) ([]models.Comment, error) {
	if err := requireAuth(r, "comment"); err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.NewValidationError("text", "comment text is required")
	}
	if utf8.RuneCountInString(text) > models.MaxCommentLength {
		return nil, models.NewValidationError("text", fmt.Sprintf("must be at most %d characters", models.MaxCommentLength))
	}

	c := models.Comment{
		ID:        primitive.NewObjectID(),
		User:      r.Ref(),
		Text:      text,
		CreatedAt: s.now(),
	}
	issue, err := s.repo.AppendComment(ctx, issueID, c)
	if err != nil {
		return nil, err
	}
	issue.Normalize()
	return issue.Comments, nil
}

// DeleteComment removes one comment. The author or an admin may do this;
// the remaining comments keep their order.
func (s *InteractionService) DeleteComment(ctx context.Context, r models.Requester, issueID, commentID primitive.ObjectID) ([]models.Comment, error) {
	if err := requireAuth(r, "delete comment"); err != nil {
		return nil, err
	}

	issue, err := s.repo.GetByID(ctx, issueID)
	if err != nil {
		return nil, err
	}
	c := issue.FindComment(commentID)
	if c == nil {
		return nil, models.NewNotFoundError("comment", commentID.Hex())
	}
	if !policy.CanDeleteComment(r, c) {
		return nil, models.NewForbiddenError("you are not authorized to delete this comment")
	}

	updated, err := s.repo.RemoveComment(ctx, issueID, commentID)
	if err != nil {
		return nil, err
	}
	if c.User.ID != r.ID {
		s.logger.InfoContext(ctx, "comment removed by admin",
			slog.String("issue_id", issueID.Hex()),
			slog.String("comment_id", commentID.Hex()),
			slog.String("admin_id", r.ID.Hex()),
		)
	}
	updated.Normalize()
	return updated.Comments, nil
}

// ListComments returns the thread oldest first.
func (s *InteractionService) ListComments(ctx context.Context, issueID primitive.ObjectID) ([]models.Comment, error) {
	issue, err := s.repo.GetByID(ctx, issueID)
	if err != nil {
		return nil, err
	}
	issue.Normalize()
	return issue.Comments, nil
}
