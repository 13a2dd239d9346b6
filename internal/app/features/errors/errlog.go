// internal/app/features/errors/errlog.go
package errors

import (
	"net/http"

	"github.com/campushub/groupify/internal/app/system/authz"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// ErrorLogger couples structured logging with user-facing error pages.
// Handlers call a single method instead of logging and rendering separately,
// which keeps the log message and the user message in sync.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger constructs an ErrorLogger.
func NewErrorLogger(log *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: log}
}

func (e *ErrorLogger) logIt(r *http.Request, level string, logMsg string, err error) {
	fields := []zap.Field{
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	switch level {
	case "error":
		e.log.Error(logMsg, fields...)
	default:
		e.log.Warn(logMsg, fields...)
	}
}

func renderErrorPage(w http.ResponseWriter, r *http.Request, status int, title, userMsg, backURL string) {
	role, name, _, signedIn := authz.UserCtx(r)
	w.WriteHeader(status)
	data := pageData{
		Title:      title,
		IsLoggedIn: signedIn,
		Role:       role,
		UserName:   name,
		Message:    userMsg,
		BackURL:    backURL,
	}
	templates.Render(w, r, "error_page", data)
}

// LogServerError logs err at error level and renders a 500 page with userMsg.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	e.logIt(r, "error", logMsg, err)
	renderErrorPage(w, r, http.StatusInternalServerError, "Something went wrong", userMsg, backURL)
}

// LogBadRequest logs err at warn level and renders a 400 page with userMsg.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	e.logIt(r, "warn", logMsg, err)
	renderErrorPage(w, r, http.StatusBadRequest, "Invalid request", userMsg, backURL)
}

// LogForbidden logs err at warn level and renders a 403 page with userMsg.
func (e *ErrorLogger) LogForbidden(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg, backURL string) {
	e.logIt(r, "warn", logMsg, err)
	renderErrorPage(w, r, http.StatusForbidden, "Access denied", userMsg, backURL)
}
