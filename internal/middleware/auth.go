package middleware

import (
	"strings"

	"property-outline-cms/internal/auth"
	"property-outline-cms/internal/domain"
	"property-outline-cms/internal/errors"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

type UserProvider interface {
	GetUserByID(id string) (*domain.User, error)
}

type Auth struct {
	UserService UserProvider
}

func (m *Auth) AuthMiddleWare() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			ctx.Error(errors.Unauthorized("Authorization is not found!", nil))
			ctx.Abort()
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		parsedToken, err := auth.VerifyJWT(token)
		if err != nil {
			ctx.Error(errors.Unauthorized("Invalid token!", err))
			ctx.Abort()
			return
		}

		userID, err := auth.UserIDFromToken(parsedToken)
		if err != nil {
			ctx.Error(errors.Unauthorized("Invalid token!", err))
			ctx.Abort()
			return
		}

		// role and active flag come from the database, not the token
		user, err := m.UserService.GetUserByID(userID)
		if err != nil {
			ctx.Error(errors.Unauthorized("Invalid user!", err))
			ctx.Abort()
			return
		}
		if !user.IsActive {
			ctx.Error(errors.Unauthorized("User is not active", nil))
			ctx.Abort()
			return
		}

		ctx.Set(principalKey, domain.Principal{ID: user.ID, Role: user.Role})
		ctx.Next()
	}
}

// RequireAdmin guards admin-only routes. Must run after AuthMiddleWare.
func (m *Auth) RequireAdmin() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		principal, ok := GetPrincipal(ctx)
		if !ok || !principal.IsAdmin() {
			ctx.Error(errors.Forbidden("Admin role required", nil))
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// GetPrincipal reads the authenticated principal set by AuthMiddleWare.
func GetPrincipal(ctx *gin.Context) (domain.Principal, bool) {
	v, exists := ctx.Get(principalKey)
	if !exists {
		return domain.Principal{}, false
	}
	principal, ok := v.(domain.Principal)
	return principal, ok
}

// SetPrincipal is used by tests to inject a caller identity.
func SetPrincipal(ctx *gin.Context, p domain.Principal) {
	ctx.Set(principalKey, p)
}
