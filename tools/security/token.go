package security

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Identity is the caller's own identity as carried inside the access
// token. The client needs it to address its per-user queues and to
// filter its own typing echoes; the server remains the verifier of the
// signature, so the claims are read without validation here.
type Identity struct {
	UserID   string
	Username string
}

func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "sha256:" + hex.EncodeToString(sum[:])
}

// IdentityFromToken extracts sub/username claims from a JWT access token.
func IdentityFromToken(token string) (Identity, error) {
	if token == "" {
		return Identity{}, errors.New("empty token")
	}
	parser := jwtlib.NewParser()
	claims := jwtlib.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return Identity{}, fmt.Errorf("parse token: %w", err)
	}
	id := Identity{}
	if sub, err := claims.GetSubject(); err == nil {
		id.UserID = sub
	}
	if v, ok := claims["username"].(string); ok {
		id.Username = v
	} else if v, ok := claims["preferred_username"].(string); ok {
		id.Username = v
	}
	if id.UserID == "" && id.Username == "" {
		return Identity{}, errors.New("token carries no identity claims")
	}
	if id.Username == "" {
		id.Username = id.UserID
	}
	return id, nil
}
