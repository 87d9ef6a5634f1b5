package middleware

import (
	"context"
	"strings"

	"storagify/file-api/internal/apperr"
	"storagify/file-api/internal/model"
	"storagify/file-api/pkg/response"

	"github.com/gin-gonic/gin"
)

type userKey struct{}

// Authenticator verifies session tokens and loads the users they belong to
type Authenticator interface {
	VerifyToken(token string) (string, error)
	ResolveUser(userID string) (*model.User, error)
}

// WithUser returns a copy of ctx carrying u
func WithUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFromContext returns the user attached by the auth middleware
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey{}).(*model.User)
	return u, ok && u != nil
}

// NewAuthMiddleware rejects requests without a valid bearer token of an
// existing user. The resolved user is attached to the request context.
func NewAuthMiddleware(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Abort(c, apperr.New(apperr.AuthRequired, "Authorization header missing or malformed"))
			return
		}

		userID, err := a.VerifyToken(token)
		if err != nil {
			response.Abort(c, err)
			return
		}

		user, err := a.ResolveUser(userID)
		if err != nil {
			response.Abort(c, err)
			return
		}

		c.Request = c.Request.WithContext(WithUser(c.Request.Context(), user))
		c.Set("userID", user.ID)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}

	return token, true
}
