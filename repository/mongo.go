package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cleanstreet-be/models"
)

const (
	IssuesCollection = "issues"
	UsersCollection  = "users"
)

type MongoIssueRepository struct {
	db   *mongo.Database
	coll *mongo.Collection
}

func NewMongoIssueRepository(db *mongo.Database) *MongoIssueRepository {
	return &MongoIssueRepository{db: db, coll: db.Collection(IssuesCollection)}
}

func (r *MongoIssueRepository) Create(ctx context.Context, issue *models.Issue) error {
	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	// $push / $addToSet fail on null, so arrays are always stored.
	issue.Normalize()

	if _, err := r.coll.InsertOne(ctx, issue); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("issue %s: %w", issue.ID.Hex(), models.ErrConflict)
		}
		return fmt.Errorf("insert issue: %w", err)
	}
	return nil
}

func (r *MongoIssueRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Issue, error) {
	var issue models.Issue
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&issue)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, issueNotFound(id)
		}
		return nil, fmt.Errorf("find issue: %w", err)
	}
	return &issue, nil
}

// findAndModify applies update to the issue matching filter and returns the
// document as it is after the write.
func (r *MongoIssueRepository) findAndModify(ctx context.Context, filter, update bson.M) (*models.Issue, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var issue models.Issue
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

func (r *MongoIssueRepository) Update(ctx context.Context, id primitive.ObjectID, u models.IssueUpdate) (*models.Issue, error) {
	set := bson.M{}
	if u.Title != nil {
		set["issueTitle"] = *u.Title
	}
	if u.Type != nil {
		set["issueType"] = *u.Type
	}
	if u.Priority != nil {
		set["priorityLevel"] = *u.Priority
	}
	if u.Address != nil {
		set["address"] = *u.Address
	}
	if u.Landmark != nil {
		set["landmark"] = *u.Landmark
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Status != nil {
		set["status"] = *u.Status
	}
	if !u.UpdatedAt.IsZero() {
		set["updatedAt"] = u.UpdatedAt
	}
	if len(set) == 0 {
		return r.GetByID(ctx, id)
	}

	issue, err := r.findAndModify(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, issueNotFound(id)
		}
		return nil, fmt.Errorf("update issue: %w", err)
	}
	return issue, nil
}

func (r *MongoIssueRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete issue: %w", err)
	}
	if res.DeletedCount == 0 {
		return issueNotFound(id)
	}
	return nil
}

func buildIssueFilter(f models.IssueFilter) bson.M {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Type != "" {
		filter["issueType"] = f.Type
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		filter["issueTitle"] = bson.M{"$regex": regexp.QuoteMeta(s), "$options": "i"}
	}
	return filter
}

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

func (r *MongoIssueRepository) List(ctx context.Context, f models.IssueFilter, skip, limit int) ([]models.Issue, int64, error) {
	if skip < 0 {
		return nil, 0, ErrNegativeSkip
	}
	filter := buildIssueFilter(f)

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count issues: %w", err)
	}

	findOptions := options.Find().
		SetSort(newestFirst).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, fmt.Errorf("find issues: %w", err)
	}
	defer cursor.Close(ctx)

	issues := []models.Issue{}
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, 0, fmt.Errorf("decode issues: %w", err)
	}
	return issues, total, nil
}

func (r *MongoIssueRepository) ListByReporter(ctx context.Context, reporterID primitive.ObjectID) ([]models.Issue, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"reportedBy._id": reporterID}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, fmt.Errorf("find issues by reporter: %w", err)
	}
	defer cursor.Close(ctx)

	issues := []models.Issue{}
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, fmt.Errorf("decode issues: %w", err)
	}
	return issues, nil
}

func (r *MongoIssueRepository) CountByStatus(ctx context.Context) (map[models.IssueStatus]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate status counts: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status models.IssueStatus `bson:"_id"`
		Count  int64              `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode status counts: %w", err)
	}

	counts := make(map[models.IssueStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *MongoIssueRepository) SetReaction(ctx context.Context, id, userID primitive.ObjectID, reaction models.Reaction) (*models.Issue, error) {
	var update bson.M
	switch reaction {
	case models.Liked:
		update = bson.M{"$addToSet": bson.M{"likes": userID}, "$pull": bson.M{"dislikes": userID}}
	case models.Disliked:
		update = bson.M{"$addToSet": bson.M{"dislikes": userID}, "$pull": bson.M{"likes": userID}}
	default:
		update = bson.M{"$pull": bson.M{"likes": userID, "dislikes": userID}}
	}

	issue, err := r.findAndModify(ctx, bson.M{"_id": id}, update)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, issueNotFound(id)
		}
		return nil, fmt.Errorf("set reaction: %w", err)
	}
	return issue, nil
}

func (r *MongoIssueRepository) AppendComment(ctx context.Context, id primitive.ObjectID, c models.Comment) (*models.Issue, error) {
	issue, err := r.findAndModify(ctx, bson.M{"_id": id}, bson.M{"$push": bson.M{"comments": c}})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, issueNotFound(id)
		}
		return nil, fmt.Errorf("append comment: %w", err)
	}
	return issue, nil
}

func (r *MongoIssueRepository) RemoveComment(ctx context.Context, id, commentID primitive.ObjectID) (*models.Issue, error) {
	issue, err := r.findAndModify(ctx,
		bson.M{"_id": id, "comments._id": commentID},
		bson.M{"$pull": bson.M{"comments": bson.M{"_id": commentID}}},
	)
	if err == nil {
		return issue, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("remove comment: %w", err)
	}

	// Tell a missing issue apart from a missing comment.
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return nil, fmt.Errorf("count issue: %w", err)
	}
	if n == 0 {
		return nil, issueNotFound(id)
	}
	return nil, commentNotFound(commentID)
}

func (r *MongoIssueRepository) Ping(ctx context.Context) error {
	return r.db.Client().Ping(ctx, nil)
}

type MongoUserRepository struct {
	coll *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{coll: db.Collection(UsersCollection)}
}

func (r *MongoUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("email %s: %w", user.Email, models.ErrConflict)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M, key string) (*models.User, error) {
	var user models.User
	if err := r.coll.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NewNotFoundError("user", key)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

func (r *MongoUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id}, id.Hex())
}

func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(email)}, email)
}
