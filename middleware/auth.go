package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"PPClient/tools/errs"
	"PPClient/tools/security"

	"github.com/gin-gonic/gin"
)

const CtxTokenKey = "authorization"

type Options struct {
	Header      string // default "Authorization"
	AllowBearer bool   // accept "Bearer xxx" as well as a raw token
}

func DefaultOptions() *Options {
	return &Options{Header: "Authorization", AllowBearer: true}
}

// TokenGuard rejects requests whose bearer token does not match the
// expected one. Tokens are compared by hash in constant time. An empty
// expected token disables the guard.
func TokenGuard(expected string, opts *Options) gin.HandlerFunc {
	if opts == nil {
		opts = DefaultOptions()
	}
	want := []byte(security.HashToken(expected))
	return func(c *gin.Context) {
		if expected == "" {
			c.Next()
			return
		}
		token := strings.TrimSpace(c.GetHeader(opts.Header))
		if opts.AllowBearer {
			if lower := strings.ToLower(token); strings.HasPrefix(lower, "bearer ") {
				token = strings.TrimSpace(token[len("bearer "):])
			}
		}
		got := []byte(security.HashToken(token))
		if token == "" || subtle.ConstantTimeCompare(want, got) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrRequest.WithDetail("bad token"))
			return
		}
		c.Set(CtxTokenKey, token)
		c.Next()
	}
}
