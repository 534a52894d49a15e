package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"sales-ims/internal/accounts"
	"sales-ims/internal/logger"
	"sales-ims/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenVerifier resolves a bearer token to its subject.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// UserFinder looks a user up by id.
type UserFinder interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

const credentialsDetail = "Could not validate credentials"

// RequireAuth admits only requests whose bearer token resolves to an existing
// user. Every failure looks the same to the caller; lookup errors other than
// an unknown user are logged.
func RequireAuth(tokens TokenVerifier, users UserFinder, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			rejectUnauthenticated(c)
			return
		}

		subject, err := tokens.Verify(token)
		if err != nil {
			rejectUnauthenticated(c)
			return
		}

		id, err := strconv.ParseUint(subject, 10, 64)
		if err != nil || id == 0 {
			rejectUnauthenticated(c)
			return
		}

		user, err := users.GetByID(c.Request.Context(), uint(id))
		if err != nil && !errors.Is(err, accounts.ErrUserNotFound) {
			logger.WithContext(c.Request.Context(), log).Error("auth user lookup failed",
				zap.Uint64("user_id", id),
				zap.Error(err),
			)
			_ = c.Error(err)
		}
		if err != nil || user == nil {
			rejectUnauthenticated(c)
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func rejectUnauthenticated(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": credentialsDetail})
}
