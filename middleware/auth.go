package middleware

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	apperrors "github.com/samim9090/noirman-ecommerce/errors"
	"github.com/samim9090/noirman-ecommerce/models"
)

// Gin context keys holding the authenticated caller.
const (
	UserContextKey  = "userID"
	RoleContextKey  = "role"
	EmailContextKey = "email"
	NameContextKey  = "name"
)

// RoleAdmin is the role allowed through AdminOnly.
const RoleAdmin = "admin"

// AuthConfig controls how callers are identified.
type AuthConfig struct {
	JWTSecret []byte
	// TrustGatewayHeaders accepts X-User-* headers and user_* cookies set by
	// an upstream gateway instead of a token.
	TrustGatewayHeaders bool
	// Accounts, when set, rejects callers whose account has been blocked.
	Accounts AccountStatus
}

// AccountStatus reports whether a user has been blocked by an admin.
type AccountStatus interface {
	IsBlocked(ctx context.Context, userID string) (bool, error)
}

// AuthMiddleware rejects requests without a valid identity and stores the
// caller in the gin context.
func AuthMiddleware(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.TrustGatewayHeaders {
			if who, ok := gatewayIdentity(c); ok {
				admit(c, cfg, who)
				return
			}
		}

		tokenString := bearerToken(c)
		if tokenString == "" {
			apperrors.Respond(c, apperrors.Unauthorized("Not authorized, no token"))
			return
		}

		who, err := parseToken(tokenString, cfg.JWTSecret)
		if err != nil {
			apperrors.Respond(c, apperrors.Unauthorized("Not authorized, token failed"))
			return
		}

		admit(c, cfg, who)
	}
}

func admit(c *gin.Context, cfg AuthConfig, who models.Identity) {
	if cfg.Accounts != nil {
		blocked, err := cfg.Accounts.IsBlocked(c.Request.Context(), who.UserID)
		if err != nil {
			apperrors.Respond(c, apperrors.Internal("Failed to verify account", err))
			return
		}
		if blocked {
			apperrors.Respond(c, apperrors.ErrAccountBlocked)
			return
		}
	}
	setIdentity(c, who)
	c.Next()
}

// AdminOnly must run after AuthMiddleware.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(RoleContextKey) != RoleAdmin {
			apperrors.Respond(c, apperrors.Forbidden("Not authorized as admin"))
			return
		}
		c.Next()
	}
}

// GetIdentity returns the caller stored by AuthMiddleware.
func GetIdentity(c *gin.Context) models.Identity {
	return models.Identity{
		UserID: c.GetString(UserContextKey),
		Role:   c.GetString(RoleContextKey),
		Email:  c.GetString(EmailContextKey),
		Name:   c.GetString(NameContextKey),
	}
}

func setIdentity(c *gin.Context, who models.Identity) {
	c.Set(UserContextKey, who.UserID)
	c.Set(RoleContextKey, who.Role)
	c.Set(EmailContextKey, who.Email)
	c.Set(NameContextKey, who.Name)
}

func bearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if cookie, err := c.Cookie("token"); err == nil {
		return cookie
	}
	return ""
}

func gatewayIdentity(c *gin.Context) (models.Identity, bool) {
	who := models.Identity{
		UserID: c.GetHeader("X-User-ID"),
		Role:   c.GetHeader("X-User-Role"),
		Email:  c.GetHeader("X-User-Email"),
	}
	if who.UserID == "" {
		if v, err := c.Cookie("user_id"); err == nil {
			who.UserID = v
		}
		if v, err := c.Cookie("user_role"); err == nil && who.Role == "" {
			who.Role = v
		}
		if v, err := c.Cookie("user_email"); err == nil && who.Email == "" {
			who.Email = v
		}
	}
	return who, who.UserID != ""
}

func parseToken(tokenString string, secret []byte) (models.Identity, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return models.Identity{}, err
	}
	if !token.Valid {
		return models.Identity{}, fmt.Errorf("invalid token")
	}

	who := models.Identity{
		UserID: claimString(claims, "id"),
		Role:   claimString(claims, "role"),
		Email:  claimString(claims, "email"),
		Name:   claimString(claims, "name"),
	}
	if who.UserID == "" {
		return models.Identity{}, fmt.Errorf("token has no subject")
	}
	return who, nil
}

func claimString(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}
