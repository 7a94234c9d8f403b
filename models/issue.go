package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueType enum
type IssueType string

const (
	Garbage          IssueType = "Garbage"
	RoadDamage       IssueType = "Road Damage"
	WaterLeakage     IssueType = "Water Leakage"
	StreetlightIssue IssueType = "Streetlight Issue"
	DrainageProblem  IssueType = "Drainage Problem"
	OtherIssue       IssueType = "Other"
)

var issueTypes = []IssueType{Garbage, RoadDamage, WaterLeakage, StreetlightIssue, DrainageProblem, OtherIssue}

func (t IssueType) IsValid() bool {
	for _, v := range issueTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Priority enum
type Priority string

const (
	Low      Priority = "Low"
	Medium   Priority = "Medium"
	High     Priority = "High"
	Critical Priority = "Critical"
)

func (p Priority) IsValid() bool {
	switch p {
	case Low, Medium, High, Critical:
		return true
	}
	return false
}

// IssueStatus enum
type IssueStatus string

const (
	Pending    IssueStatus = "Pending"
	InProgress IssueStatus = "In Progress"
	Resolved   IssueStatus = "Resolved"
)

func (s IssueStatus) IsValid() bool {
	switch s {
	case Pending, InProgress, Resolved:
		return true
	}
	return false
}

// MaxImages is the number of photos a single report may carry.
const MaxImages = 4

// Field length limits shared by creation and update.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
	MaxAddressLength     = 300
	MaxCommentLength     = 1000
)

// Location is the map pin dropped by the reporter.
type Location struct {
	Lat float64 `bson:"lat" json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `bson:"lng" json:"lng" validate:"gte=-180,lte=180"`
}

// UserRef is a denormalised pointer to a user, stored alongside the
// records the user authored.
type UserRef struct {
	ID   primitive.ObjectID `bson:"_id" json:"_id"`
	Name string             `bson:"name" json:"name"`
}

// Comment is a single entry in an issue's discussion thread.
type Comment struct {
	ID        primitive.ObjectID `bson:"_id" json:"_id"`
	User      UserRef            `bson:"user" json:"user"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Issue represents a civic issue reported by a user
type Issue struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Title       string               `bson:"issueTitle" json:"issueTitle"`
	Type        IssueType            `bson:"issueType" json:"issueType"`
	Priority    Priority             `bson:"priorityLevel" json:"priorityLevel"`
	Address     string               `bson:"address" json:"address"`
	Landmark    string               `bson:"landmark" json:"landmark"`
	Description string               `bson:"description" json:"description"`
	Status      IssueStatus          `bson:"status" json:"status"`
	Images      []string             `bson:"images" json:"images"`
	Location    *Location            `bson:"location,omitempty" json:"location,omitempty"`
	ReportedBy  UserRef              `bson:"reportedBy" json:"reportedBy"`
	Likes       []primitive.ObjectID `bson:"likes" json:"likes"`
	Dislikes    []primitive.ObjectID `bson:"dislikes" json:"dislikes"`
	Comments    []Comment            `bson:"comments" json:"comments"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// IsReporter reports whether userID created the issue.
func (i *Issue) IsReporter(userID primitive.ObjectID) bool {
	return !userID.IsZero() && i.ReportedBy.ID == userID
}

// FindComment returns the comment with the given id, or nil.
func (i *Issue) FindComment(id primitive.ObjectID) *Comment {
	for k := range i.Comments {
		if i.Comments[k].ID == id {
			return &i.Comments[k]
		}
	}
	return nil
}

// Clone returns a deep copy so callers can mutate it without aliasing
// slices held elsewhere.
func (i *Issue) Clone() *Issue {
	c := *i
	c.Images = append([]string(nil), i.Images...)
	c.Likes = append([]primitive.ObjectID(nil), i.Likes...)
	c.Dislikes = append([]primitive.ObjectID(nil), i.Dislikes...)
	c.Comments = append([]Comment(nil), i.Comments...)
	if i.Location != nil {
		loc := *i.Location
		c.Location = &loc
	}
	c.Normalize()
	return &c
}

// Normalize replaces nil slices with empty ones so the JSON view always
// carries arrays.
func (i *Issue) Normalize() {
	if i.Images == nil {
		i.Images = []string{}
	}
	if i.Likes == nil {
		i.Likes = []primitive.ObjectID{}
	}
	if i.Dislikes == nil {
		i.Dislikes = []primitive.ObjectID{}
	}
	if i.Comments == nil {
		i.Comments = []Comment{}
	}
}

// IssueFilter narrows listIssues. Empty fields do not filter.
type IssueFilter struct {
	Status IssueStatus
	Type   IssueType
	Search string
}

// IssueUpdate carries the fields a single update writes. Nil fields are
// left untouched.
type IssueUpdate struct {
	Title       *string
	Type        *IssueType
	Priority    *Priority
	Address     *string
	Landmark    *string
	Description *string
	Status      *IssueStatus
	UpdatedAt   time.Time
}

// Apply writes the non-nil fields of u onto issue.
func (u IssueUpdate) Apply(issue *Issue) {
	if u.Title != nil {
		issue.Title = *u.Title
	}
	if u.Type != nil {
		issue.Type = *u.Type
	}
	if u.Priority != nil {
		issue.Priority = *u.Priority
	}
	if u.Address != nil {
		issue.Address = *u.Address
	}
	if u.Landmark != nil {
		issue.Landmark = *u.Landmark
	}
	if u.Description != nil {
		issue.Description = *u.Description
	}
	if u.Status != nil {
		issue.Status = *u.Status
	}
	if !u.UpdatedAt.IsZero() {
		issue.UpdatedAt = u.UpdatedAt
	}
}

// IssueStats counts issues by status.
type IssueStats struct {
	TotalIssues      int64 `json:"totalIssues"`
	PendingIssues    int64 `json:"pendingIssues"`
	InProgressIssues int64 `json:"inProgressIssues"`
	ResolvedIssues   int64 `json:"resolvedIssues"`
}
