package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/zornyy/photoCloud/internal/pkg/errcode"
	"github.com/zornyy/photoCloud/internal/pkg/response"
	"github.com/zornyy/photoCloud/internal/pkg/token"
	"github.com/zornyy/photoCloud/internal/repo"
)

const (
	ContextUserIDKey   = "user_id"
	ContextUsernameKey = "username"
)

// Guard verifies the bearer token and that the referenced account still
// exists. All failure modes get the same 403 so a probe cannot distinguish a
// bad signature from a vanished account. Existence lookups go through a
// short-lived cache; accounts are never hard-deleted in normal operation, so
// a briefly stale positive is harmless.
type Guard struct {
	users  *repo.UserRepo
	secret []byte
	cache  *expirable.LRU[string, struct{}]
}

func NewGuard(users *repo.UserRepo, secret []byte) *Guard {
	return &Guard{
		users:  users,
		secret: secret,
		cache:  expirable.NewLRU[string, struct{}](1024, nil, 30*time.Second),
	}
}

func (g *Guard) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			g.reject(c)
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			g.reject(c)
			return
		}
		claims, err := token.Parse(parts[1], g.secret)
		if err != nil {
			g.reject(c)
			return
		}
		if !g.accountExists(c, claims.UserID) {
			g.reject(c)
			return
		}
		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextUsernameKey, claims.Subject)
		c.Next()
	}
}

func (g *Guard) accountExists(c *gin.Context, userID string) bool {
	if _, ok := g.cache.Get(userID); ok {
		return true
	}
	if _, err := g.users.GetByID(c.Request.Context(), userID); err != nil {
		return false
	}
	g.cache.Add(userID, struct{}{})
	return true
}

func (g *Guard) reject(c *gin.Context) {
	response.Error(c, http.StatusForbidden, errcode.ErrForbidden, "could not validate credentials")
	c.Abort()
}
