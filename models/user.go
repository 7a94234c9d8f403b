package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// Role enum
type Role string

const (
	RoleUser      Role = "User"
	RoleVolunteer Role = "Volunteer"
	RoleAdmin     Role = "Admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleVolunteer, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name      string             `bson:"name" json:"name"`
	Username  string             `bson:"username" json:"username"`
	Email     string             `bson:"email" json:"email"`
	Phone     string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Location  string             `bson:"location,omitempty" json:"location,omitempty"`
	Role      Role               `bson:"role" json:"role"`
	Password  string             `bson:"password,omitempty" json:"-"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) HashPassword() error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

func (u *User) ComparePassword(candidate string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(candidate))
	return err == nil
}

// Ref returns the denormalised reference stored on issues and comments.
func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Name: u.Name}
}

// Requester is the identity a request acts as. It is built from the bearer
// token by the auth middleware and passed explicitly into every service call.
type Requester struct {
	ID   primitive.ObjectID
	Name string
	Role Role
}

func (r Requester) IsAuthenticated() bool {
	return !r.ID.IsZero()
}

func (r Requester) IsAdmin() bool {
	return r.Role == RoleAdmin
}

func (r Requester) Ref() UserRef {
	return UserRef{ID: r.ID, Name: r.Name}
}
