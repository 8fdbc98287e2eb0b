// Package sentryhelper wraps Sentry error reporting for the responder.
// Each report runs on a cloned hub so tags never leak between messages.
package sentryhelper

import (
	"time"

	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
)

// Init configures the global Sentry client. An empty dsn leaves reporting disabled.
func Init(dsn, environment, release string) error {
	if dsn == "" {
		log.Info("SENTRY_DSN not set, error reporting disabled")
		return nil
	}
	return sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		Release:          release,
		TracesSampleRate: 0.1,
	})
}

// Reporter captures errors on a base hub.
type Reporter struct {
	hub *sentry.Hub
}

// NewReporter uses hub, or the current global hub when hub is nil.
func NewReporter(hub *sentry.Hub) *Reporter {
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	return &Reporter{hub: hub}
}

// CaptureException reports err with the given tags on an isolated scope.
func (r *Reporter) CaptureException(err error, tags map[string]string) {
	if r == nil || err == nil {
		return
	}
	hub := r.hub.Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		if userID, ok := tags["user_id"]; ok {
			scope.SetUser(sentry.User{ID: userID})
		}
	})
	hub.CaptureException(err)
}

// Flush waits for buffered events before shutdown.
func Flush(timeout time.Duration) {
	sentry.Flush(timeout)
}
