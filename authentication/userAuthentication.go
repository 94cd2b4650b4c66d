package authentication

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"doc-booking/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenTTL = 24 * time.Hour

	ctxUserID   = "userID"
	ctxUsername = "username"
	ctxAdmin    = "isAdmin"
)

var ErrInvalidToken = errors.New("invalid token")

// GenerateUserToken signs a token for the user, valid for a day.
func GenerateUserToken(key []byte, user *models.User) (string, error) {
	now := time.Now()
	claims := &models.UserClaims{
		UserID:   user.ID,
		Username: user.Username,
		Admin:    user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(key)
}

// AuthenticateUser parses a signed token and returns its claims.
func AuthenticateUser(key []byte, signed string) (*models.UserClaims, error) {
	claims := &models.UserClaims{}
	token, err := jwt.ParseWithClaims(signed, claims, func(token *jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func bearer(c *gin.Context) string {
	return strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer"))
}

func setClaims(c *gin.Context, claims *models.UserClaims) {
	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxUsername, claims.Username)
	c.Set(ctxAdmin, claims.Admin)
}

// UserAuthMiddleware rejects requests without a valid user token.
func UserAuthMiddleware(key []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearer(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User Authorization is missing"})
			return
		}
		claims, err := AuthenticateUser(key, tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// OptionalUserMiddleware identifies the caller when a valid token is sent
// and lets anonymous requests through.
func OptionalUserMiddleware(key []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := bearer(c); tokenString != "" {
			if claims, err := AuthenticateUser(key, tokenString); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

// CurrentUserID returns the authenticated user's id, or 0.
func CurrentUserID(c *gin.Context) uint {
	return c.GetUint(ctxUserID)
}
