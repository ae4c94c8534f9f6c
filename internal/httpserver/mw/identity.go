package mw

import (
	"context"
	"net/http"
	"strings"
)

// Identity headers set by the upstream auth layer.
const (
	HeaderUserID    = "X-User-ID"
	HeaderSessionID = "X-Session-ID"
)

// maxIdentityLen bounds header values kept as session keys.
const maxIdentityLen = 128

type identityKey struct{}

// Identity is who a request acts for. Both fields may be empty.
type Identity struct {
	UserID    string
	SessionID string
}

// IdentityFrom returns the identity resolved by WithIdentity.
func IdentityFrom(ctx context.Context) Identity {
	id, _ := ctx.Value(identityKey{}).(Identity)
	return id
}

// WithIdentity reads the identity headers into the request context.
// Oversized or control-character values are treated as absent.
func WithIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := Identity{
			UserID:    cleanIdentity(r.Header.Get(HeaderUserID)),
			SessionID: cleanIdentity(r.Header.Get(HeaderSessionID)),
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey{}, id)))
	})
}

func cleanIdentity(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || len(v) > maxIdentityLen {
		return ""
	}
	for _, c := range v {
		if c < 0x20 || c == 0x7f {
			return ""
		}
	}
	return v
}
