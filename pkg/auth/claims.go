package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenClaims is the typed JWT the external identity provider issues.
// Roles and BranchIDs arrive as raw strings and are validated into the closed
// enums when the principal is built at the request boundary.
type AccessTokenClaims struct {
	UserID    uuid.UUID `json:"user_id"`
	Roles     []string  `json:"roles"`
	BranchIDs []string  `json:"branch_ids"`
	jwt.RegisteredClaims
}
