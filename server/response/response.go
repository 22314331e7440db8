// Package response writes the API's JSON bodies. Error is the only place an
// error value becomes an HTTP response.
package response

import (
	"net/http"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	errs "github.com/infieles/reportes/errors"
	pkgerrors "github.com/pkg/errors"
)

// JSON writes data with the given status.
func JSON(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Message writes {"mensaje": message} plus any extra fields.
func Message(c *gin.Context, status int, message string, extra gin.H) {
	body := gin.H{"mensaje": message}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}

// Error maps err onto its status and writes {"error": message}. Server side
// failures are attached to the context for the access log and reported to
// Sentry.
func Error(c *gin.Context, err error) {
	status := errs.StatusCode(err)
	c.JSON(status, gin.H{"error": messageFor(err, status)})

	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
		capture(c, err)
	}
}

// Abort is Error followed by c.Abort, for middleware.
func Abort(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}

func messageFor(err error, status int) string {
	var e *errs.Error
	if !pkgerrors.As(err, &e) || status >= http.StatusInternalServerError {
		return err.Error()
	}
	return e.Message
}

func capture(c *gin.Context, err error) {
	if hub := sentrygin.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
		return
	}
	sentry.CaptureException(err)
}
