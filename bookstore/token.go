package bookstore

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "bookstore-backoffice"

type sessionClaims struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs s as an HS256 token valid for ttl.
func IssueToken(s Session, secret []byte, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("issue token: empty secret")
	}
	now := time.Now()
	claims := sessionClaims{
		Name: s.Name,
		Role: s.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatInt(s.StaffID, 10),
			ID:        s.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseToken verifies a token produced by IssueToken. Expired, tampered or
// malformed tokens yield ErrAuthFailure.
func ParseToken(token string, secret []byte) (Session, error) {
	const op = "parse session"
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Session{}, &Error{Kind: ErrAuthFailure, Op: op, Err: err}
	}

	staffID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return Session{}, &Error{Kind: ErrAuthFailure, Op: op, Err: err}
	}
	sid, err := uuid.Parse(claims.ID)
	if err != nil {
		return Session{}, &Error{Kind: ErrAuthFailure, Op: op, Err: err}
	}
	return Session{ID: sid, StaffID: staffID, Name: claims.Name, Role: claims.Role}, nil
}
