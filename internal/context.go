package internal

import (
	"context"
	"time"
)

type ctxKey string

const contextSessionKey ctxKey = "session"

// Session is the authenticated caller as presented by the session provider.
// A nil *Session (or a context without one) means an anonymous request.
type Session struct {
	User *SessionUser
}

type SessionUser struct {
	ID    string
	Email string
	Name  string
	// Role is optional; when set by the session provider it short-circuits
	// role resolution.
	Role string
}

func SessionFromContext(ctx context.Context) *Session {
	if ctx == nil {
		return nil
	}
	if s, ok := ctx.Value(contextSessionKey).(*Session); ok {
		return s
	}
	return nil
}

func ContextWithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextSessionKey, s)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
