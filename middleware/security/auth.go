package security

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	usermodel "EduChat/module/user/model"
	"EduChat/tools/errs"
)

// Context keys; downstream handlers read the principal with these.
const (
	CtxAuthKey = "authorization" // raw bearer token (string)
	CtxUserKey = "principal"     // *usermodel.User
)

// PrincipalResolver turns a bearer credential into a live account.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, token string) (*usermodel.User, error)
}

// BearerToken extracts the credential from Authorization: Bearer or the
// plain authorization header.
func BearerToken(get func(string) string) string {
	if authz := strings.TrimSpace(get("Authorization")); authz != "" {
		if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return strings.TrimSpace(authz[len("bearer "):])
		}
		return authz
	}
	return strings.TrimSpace(get("authorization"))
}

// Middleware authenticates the request and injects the principal. Missing
// or invalid credentials abort with 401; a resolvable token for a deleted
// account aborts the same way (the account is not a valid principal).
func Middleware(resolver PrincipalResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c.GetHeader)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		u, err := resolver.ResolvePrincipal(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errs.ErrTokenInvalid.Msg})
			return
		}
		c.Set(CtxAuthKey, token)
		c.Set(CtxUserKey, u)
		c.Next()
	}
}

// Principal reads the authenticated user injected by Middleware; nil when
// the route was registered without auth.
func Principal(c *gin.Context) *usermodel.User {
	v, ok := c.Get(CtxUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*usermodel.User)
	return u
}
