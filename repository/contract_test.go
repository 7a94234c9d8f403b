package repository

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"cleanstreet-be/models"
)

var baseTime = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func newIssue(reporter primitive.ObjectID, title string, status models.IssueStatus, createdAt time.Time) *models.Issue {
	issue := &models.Issue{
		ID:         primitive.NewObjectID(),
		Title:      title,
		Type:       models.Garbage,
		Priority:   models.Medium,
		Status:     status,
		ReportedBy: models.UserRef{ID: reporter, Name: "reporter"},
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
	issue.Normalize()
	return issue
}

// testIssueRepository runs the behaviour every IssueRepository must share.
func testIssueRepository(t *testing.T, newRepo func(t *testing.T) IssueRepository) {
	t.Run("create and get", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		issue := newIssue(primitive.NewObjectID(), "Overflowing bin", models.Pending, baseTime)
		issue.Location = &models.Location{Lat: 12.97, Lng: 77.59}
		require.NoError(t, repo.Create(ctx, issue))

		got, err := repo.GetByID(ctx, issue.ID)
		require.NoError(t, err)
		assert.Equal(t, issue.Title, got.Title)
		assert.Equal(t, issue.ReportedBy, got.ReportedBy)
		assert.Equal(t, *issue.Location, *got.Location)
		assert.True(t, issue.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("get unknown", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.GetByID(context.Background(), primitive.NewObjectID())
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("update writes only given fields", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		issue := newIssue(primitive.NewObjectID(), "Pothole", models.Pending, baseTime)
		issue.Address = "MG Road"
		require.NoError(t, repo.Create(ctx, issue))

		status := models.InProgress
		got, err := repo.Update(ctx, issue.ID, models.IssueUpdate{Status: &status, UpdatedAt: baseTime.Add(time.Hour)})
		require.NoError(t, err)
		assert.Equal(t, models.InProgress, got.Status)
		assert.Equal(t, "MG Road", got.Address)
		assert.Equal(t, "Pothole", got.Title)

		_, err = repo.Update(ctx, primitive.NewObjectID(), models.IssueUpdate{Status: &status})
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		issue := newIssue(primitive.NewObjectID(), "Leak", models.Pending, baseTime)
		require.NoError(t, repo.Create(ctx, issue))
		require.NoError(t, repo.Delete(ctx, issue.ID))

		_, err := repo.GetByID(ctx, issue.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, issue.ID), models.ErrNotFound)
	})

	t.Run("list filters sorts and pages", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		reporter := primitive.NewObjectID()

		for i := 0; i < 10; i++ {
			status := models.Pending
			if i%2 == 0 {
				status = models.Resolved
			}
			title := "Broken streetlight"
			if i == 4 {
				title = "Garbage near PARK gate"
			}
			require.NoError(t, repo.Create(ctx, newIssue(reporter, title, status, baseTime.Add(time.Duration(i)*time.Minute))))
		}

		page, total, err := repo.List(ctx, models.IssueFilter{Status: models.Resolved}, 0, 3)
		require.NoError(t, err)
		assert.EqualValues(t, 5, total)
		require.Len(t, page, 3)
		for k, issue := range page {
			assert.Equal(t, models.Resolved, issue.Status)
			if k > 0 {
				assert.True(t, page[k-1].CreatedAt.After(issue.CreatedAt))
			}
		}
		assert.True(t, page[0].CreatedAt.Equal(baseTime.Add(8*time.Minute)))

		rest, total, err := repo.List(ctx, models.IssueFilter{Status: models.Resolved}, 3, 3)
		require.NoError(t, err)
		assert.EqualValues(t, 5, total)
		assert.Len(t, rest, 2)

		past, total, err := repo.List(ctx, models.IssueFilter{Status: models.Resolved}, math.MaxInt32, math.MaxInt32)
		require.NoError(t, err)
		assert.EqualValues(t, 5, total)
		assert.Empty(t, past)

		_, _, err = repo.List(ctx, models.IssueFilter{}, -8, 8)
		assert.ErrorIs(t, err, ErrNegativeSkip)

		found, total, err := repo.List(ctx, models.IssueFilter{Search: "park"}, 0, 10)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, found, 1)
		assert.Equal(t, "Garbage near PARK gate", found[0].Title)

		none, total, err := repo.List(ctx, models.IssueFilter{Search: "park", Status: models.Pending}, 0, 10)
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, none)

		mine, err := repo.ListByReporter(ctx, reporter)
		require.NoError(t, err)
		assert.Len(t, mine, 10)
		assert.True(t, mine[0].CreatedAt.Equal(baseTime.Add(9*time.Minute)))

		counts, err := repo.CountByStatus(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 5, counts[models.Resolved])
		assert.EqualValues(t, 5, counts[models.Pending])
		assert.Zero(t, counts[models.InProgress])
	})

	t.Run("search treats input literally", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		require.NoError(t, repo.Create(ctx, newIssue(primitive.NewObjectID(), "Drain (blocked)", models.Pending, baseTime)))
		require.NoError(t, repo.Create(ctx, newIssue(primitive.NewObjectID(), "Drain blocked", models.Pending, baseTime)))

		found, total, err := repo.List(ctx, models.IssueFilter{Search: "(blocked"}, 0, 10)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, found, 1)
		assert.Equal(t, "Drain (blocked)", found[0].Title)
	})

	t.Run("reactions", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		a, b := primitive.NewObjectID(), primitive.NewObjectID()

		issue := newIssue(primitive.NewObjectID(), "Open manhole", models.Pending, baseTime)
		require.NoError(t, repo.Create(ctx, issue))

		got, err := repo.SetReaction(ctx, issue.ID, a, models.Liked)
		require.NoError(t, err)
		assert.Equal(t, []primitive.ObjectID{a}, got.Likes)

		got, err = repo.SetReaction(ctx, issue.ID, b, models.Liked)
		require.NoError(t, err)
		assert.ElementsMatch(t, []primitive.ObjectID{a, b}, got.Likes)

		got, err = repo.SetReaction(ctx, issue.ID, a, models.Disliked)
		require.NoError(t, err)
		assert.Equal(t, []primitive.ObjectID{b}, got.Likes)
		assert.Equal(t, []primitive.ObjectID{a}, got.Dislikes)

		got, err = repo.SetReaction(ctx, issue.ID, a, models.NoReaction)
		require.NoError(t, err)
		assert.Empty(t, got.Dislikes)
		assert.Equal(t, []primitive.ObjectID{b}, got.Likes)

		_, err = repo.SetReaction(ctx, primitive.NewObjectID(), a, models.Liked)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("comments", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		issue := newIssue(primitive.NewObjectID(), "Fallen tree", models.Pending, baseTime)
		require.NoError(t, repo.Create(ctx, issue))

		var ids []primitive.ObjectID
		for i, text := range []string{"first", "second", "third"} {
			c := models.Comment{
				ID:        primitive.NewObjectID(),
				User:      models.UserRef{ID: primitive.NewObjectID(), Name: "n"},
				Text:      text,
				CreatedAt: baseTime.Add(time.Duration(i) * time.Second),
			}
			ids = append(ids, c.ID)
			_, err := repo.AppendComment(ctx, issue.ID, c)
			require.NoError(t, err)
		}

		got, err := repo.RemoveComment(ctx, issue.ID, ids[1])
		require.NoError(t, err)
		require.Len(t, got.Comments, 2)
		assert.Equal(t, "first", got.Comments[0].Text)
		assert.Equal(t, "third", got.Comments[1].Text)

		_, err = repo.RemoveComment(ctx, issue.ID, ids[1])
		var nf *models.NotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, "comment", nf.Resource)

		_, err = repo.RemoveComment(ctx, primitive.NewObjectID(), ids[0])
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, "issue", nf.Resource)
	})
}

func testUserRepository(t *testing.T, repo UserRepository) {
	ctx := context.Background()

	user := &models.User{Name: "Asha", Email: "asha@example.com", Role: models.RoleUser, CreatedAt: baseTime}
	require.NoError(t, repo.Create(ctx, user))
	assert.False(t, user.ID.IsZero())

	got, err := repo.GetByEmail(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	got, err = repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha", got.Name)

	err = repo.Create(ctx, &models.User{Name: "Dup", Email: "asha@example.com"})
	assert.ErrorIs(t, err, models.ErrConflict)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
