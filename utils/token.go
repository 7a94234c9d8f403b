package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"cleanstreet-be/models"
)

// JWTManager issues and validates the HS256 bearer tokens carried by every
// mutating request.
type JWTManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTManager(secret, issuer string, ttl time.Duration) *JWTManager {
	return &JWTManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

type claims struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
	Role string `json:"role,omitempty"`
}

// GenerateToken signs a token whose subject is the user's id.
func (m *JWTManager) GenerateToken(user *models.User) (string, error) {
	now := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		Name: user.Name,
		Role: string(user.Role),
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates the token and returns the identity it carries.
func (m *JWTManager) ParseToken(tokenString string) (models.Requester, error) {
	if tokenString == "" {
		return models.Requester{}, errors.New("token is empty")
	}

	var c claims
	_, err := jwt.ParseWithClaims(tokenString, &c, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return models.Requester{}, fmt.Errorf("parse token: %w", err)
	}

	id, err := primitive.ObjectIDFromHex(c.Subject)
	if err != nil {
		return models.Requester{}, fmt.Errorf("invalid subject: %w", err)
	}
	role := models.Role(c.Role)
	if !role.IsValid() {
		role = models.RoleUser
	}

	return models.Requester{ID: id, Name: c.Name, Role: role}, nil
}
