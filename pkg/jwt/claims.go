package jwt

import "github.com/golang-jwt/jwt/v5"

// PlayerClaims identifies a ladder player. Subject carries the player id.
type PlayerClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

type Role string

const (
	RolePlayer Role = "player"
	RoleAdmin  Role = "admin"
)
