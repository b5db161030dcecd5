package httpx

import (
	"context"
	"net/http"
)

type contextKey string

const (
	subjectKey   contextKey = "subject"
	identityKey  contextKey = "identity"
	requestIDKey contextKey = "requestID"
)

// identity is installed by the access log before the handler runs, so that a
// subject authenticated further down the chain is visible once it returns.
type identity struct {
	subject string
}

func withIdentity(ctx context.Context) (context.Context, *identity) {
	id := &identity{}
	return context.WithValue(ctx, identityKey, id), id
}

// SubjectFrom retrieves the token subject from the request context.
func SubjectFrom(r *http.Request) string {
	if v, ok := r.Context().Value(subjectKey).(string); ok {
		return v
	}
	if id, ok := r.Context().Value(identityKey).(*identity); ok {
		return id.subject
	}
	return ""
}

// ContextWithSubject returns a new context carrying the token subject. The
// subject is also reported to an enclosing access log, if any.
func ContextWithSubject(ctx context.Context, subject string) context.Context {
	if id, ok := ctx.Value(identityKey).(*identity); ok {
		id.subject = subject
	}
	return context.WithValue(ctx, subjectKey, subject)
}

// RequestIDFrom retrieves the request id from the request context.
func RequestIDFrom(r *http.Request) string {
	if v, ok := r.Context().Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// ContextWithRequestID returns a new context carrying the request id.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}
