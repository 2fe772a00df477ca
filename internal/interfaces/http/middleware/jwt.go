package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tradeflow/backend/internal/infrastructure/auth"
	"github.com/tradeflow/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// JWTClaimsKey is the gin context key holding validated claims
const JWTClaimsKey = "jwt_claims"

const bearerPrefix = "Bearer "

// JWTConfig configures bearer-token authentication
type JWTConfig struct {
	Service     *auth.JWTService
	Revocations auth.RevocationList // optional
	Logger      *zap.Logger
}

// JWTAuth requires a valid bearer token and stores its claims in the gin
// context. A failing revocation lookup lets the request through and logs
// the failure.
func JWTAuth(cfg JWTConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		header := c.GetHeader(HeaderAuthorization)
		if !strings.HasPrefix(header, bearerPrefix) || strings.TrimSpace(header[len(bearerPrefix):]) == "" {
			abortWithError(c, dto.ErrCodeUnauthorized, "Missing bearer token")
			return
		}

		claims, err := cfg.Service.Validate(strings.TrimSpace(header[len(bearerPrefix):]))
		if err != nil {
			code, message := authErrorCode(err)
			log.Warn("Bearer token rejected",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
			abortWithError(c, code, message)
			return
		}

		if cfg.Revocations != nil && claims.ID != "" {
			revoked, err := cfg.Revocations.IsRevoked(c.Request.Context(), claims.ID)
			switch {
			case err != nil:
				log.Error("Token revocation check failed", zap.String("jti", claims.ID), zap.Error(err))
			case revoked:
				abortWithError(c, dto.ErrCodeTokenRevoked, "Token has been revoked")
				return
			}
		}

		c.Set(JWTClaimsKey, claims)
		c.Next()
	}
}

// RequireScope rejects requests whose token lacks scope. It must run after
// JWTAuth.
func RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			abortWithError(c, dto.ErrCodeUnauthorized, "Missing bearer token")
			return
		}
		if !claims.HasScope(scope) {
			abortWithError(c, dto.ErrCodeForbidden, "Token lacks scope "+scope)
			return
		}
		c.Next()
	}
}

// GetJWTClaims returns the claims stored by JWTAuth, nil when absent
func GetJWTClaims(c *gin.Context) *auth.Claims {
	v, ok := c.Get(JWTClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}

func authErrorCode(err error) (string, string) {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		return dto.ErrCodeTokenInvalid, "Token is not yet valid"
	default:
		return dto.ErrCodeTokenInvalid, "Invalid token"
	}
}
