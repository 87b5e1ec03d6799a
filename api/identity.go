package api

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/Domenick1991/railseat/internal/domain"
	"github.com/gin-gonic/gin"
)

const (
	UserCookie  = "user_name"
	AdminCookie = "admin_name"
	userKey     = "railseat.user"
)

type UserLookup interface {
	GetByName(ctx context.Context, name string) (*domain.User, error)
}

// RequireUser resolves the caller from the user_name cookie.
func RequireUser(users UserLookup) gin.HandlerFunc {
	return identify(users, UserCookie, false)
}

// RequireAdmin resolves the caller from the admin_name cookie and rejects
// anyone who is not an administrator.
func RequireAdmin(users UserLookup) gin.HandlerFunc {
	return identify(users, AdminCookie, true)
}

func identify(users UserLookup, cookie string, admin bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		name, err := c.Cookie(cookie)
		if err != nil || name == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no session"})
			return
		}

		user, err := users.GetByName(c.Request.Context(), name)
		if err != nil {
			if !errors.Is(err, domain.ErrUserNotFound) {
				log.Printf("api: lookup user %q: %v", name, err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "user lookup failed"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
			return
		}
		if admin && !user.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin only"})
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) *domain.User {
	if v, ok := c.Get(userKey); ok {
		if user, ok := v.(*domain.User); ok {
			return user
		}
	}
	return nil
}
