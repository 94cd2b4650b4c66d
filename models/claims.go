package models

import "github.com/golang-jwt/jwt/v5"

type UserClaims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Admin    bool   `json:"admin,omitempty"`
	jwt.RegisteredClaims
}
