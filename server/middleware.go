package server

import (
	"strconv"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	errs "github.com/infieles/reportes/errors"
	"github.com/infieles/reportes/server/response"
)

// RequireAdmin rejects the request before any handler work unless it
// carries the admin secret.
func (s *Server) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.AdminVerifier.IsAdmin(c.Request.Header) {
			s.Log.Warn("rejected admin request from %s to %s %s", c.ClientIP(), c.Request.Method, c.Request.URL.Path)
			response.Abort(c, errs.ErrUnauthorized)
			return
		}
		c.Next()
	}
}

// keyFunc identifies the caller. ClientIP honours X-Forwarded-For only when
// the direct peer is a trusted proxy.
func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func limitRate(store ratelimit.Store, onLimit func(*gin.Context, ratelimit.Info)) gin.HandlerFunc {
	return ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler:   onLimit,
		KeyFunc:        keyFunc,
		BeforeResponse: nil,
	})
}

func quotaExceeded(c *gin.Context, info ratelimit.Info) {
	respondRateLimited(c, info, errs.ErrQuotaExceeded)
}

func createThrottled(c *gin.Context, info ratelimit.Info) {
	respondRateLimited(c, info, errs.ErrCreateThrottled)
}

func respondRateLimited(c *gin.Context, info ratelimit.Info, err error) {
	if wait := time.Until(info.ResetTime); wait > 0 {
		c.Header("Retry-After", strconv.Itoa(int(wait.Seconds()+0.5)))
	}
	response.Abort(c, err)
}
