package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

const devUserID = "00000000-0000-0000-0000-000000000001"

// Claims represents the JWT claims
type Claims struct {
	UserID    string   `json:"user_id"`
	Email     string   `json:"email"`
	Roles     []string `json:"roles"`
	TokenType string   `json:"type"`
	jwt.RegisteredClaims
}

func abortAuth(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
	c.Abort()
}

// bearerClaims validates the bearer token of the request. On failure it
// returns the error code to report.
func bearerClaims(c *gin.Context, jwtSecret string) (*Claims, string, string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, "MISSING_TOKEN", "Authorization header is required"
	}

	tokenParts := strings.Split(authHeader, " ")
	if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
		return nil, "INVALID_TOKEN_FORMAT", "Authorization header must be in format: Bearer <token>"
	}

	token, err := jwt.ParseWithClaims(tokenParts[1], &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, "INVALID_TOKEN", "Invalid or expired token"
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, "INVALID_CLAIMS", "Invalid token claims"
	}
	return claims, "", ""
}

func setUser(c *gin.Context, claims *Claims) {
	c.Set("user_id", claims.UserID)
	c.Set("user_email", claims.Email)
	c.Set("user_roles", claims.Roles)
}

// AuthMiddleware validates JWT tokens
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, code, message := bearerClaims(c, jwtSecret)
		if claims == nil {
			abortAuth(c, http.StatusUnauthorized, code, message)
			return
		}
		setUser(c, claims)
		c.Next()
	}
}

// RequireAccessToken accepts only access tokens that carry a user id.
// Storefront customers use these to post reviews.
func RequireAccessToken(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, code, message := bearerClaims(c, jwtSecret)
		if claims == nil {
			abortAuth(c, http.StatusUnauthorized, code, message)
			return
		}
		if claims.TokenType != "access" {
			abortAuth(c, http.StatusUnauthorized, "INVALID_TOKEN_TYPE", "An access token is required")
			return
		}
		if strings.TrimSpace(claims.UserID) == "" {
			abortAuth(c, http.StatusUnauthorized, "INVALID_CLAIMS", "Token has no user_id")
			return
		}
		setUser(c, claims)
		c.Next()
	}
}

// DevelopmentAuthMiddleware injects a dev admin when no token is sent.
// A bearer token, when present, is still validated.
func DevelopmentAuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") != "" {
			claims, code, message := bearerClaims(c, jwtSecret)
			if claims == nil {
				abortAuth(c, http.StatusUnauthorized, code, message)
				return
			}
			setUser(c, claims)
			c.Next()
			return
		}
		c.Set("user_id", devUserID)
		c.Set("user_email", "dev@localhost")
		c.Set("user_roles", []string{"admin"})
		c.Next()
	}
}

// RequireAnyRole middleware checks if user has any of the required roles
func RequireAnyRole(requiredRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roles, exists := c.Get("user_roles")
		if !exists {
			abortAuth(c, http.StatusForbidden, "NO_ROLES", "User roles not found")
			return
		}

		userRoles, ok := roles.([]string)
		if !ok {
			abortAuth(c, http.StatusForbidden, "INVALID_ROLES", "Invalid user roles format")
			return
		}

		for _, userRole := range userRoles {
			if userRole == "super_admin" {
				c.Next()
				return
			}
			for _, requiredRole := range requiredRoles {
				if userRole == requiredRole {
					c.Next()
					return
				}
			}
		}

		abortAuth(c, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS", fmt.Sprintf("Required one of roles: %v", requiredRoles))
	}
}

// GetUserID retrieves the authenticated user id from gin context
func GetUserID(c *gin.Context) string {
	return c.GetString("user_id")
}
