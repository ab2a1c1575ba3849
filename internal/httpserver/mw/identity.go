package mw

import (
	"context"
	"net/http"
	"regexp"

	json "github.com/goccy/go-json"
)

// UserHeader carries the Telegram user id. The Mini App bridge validates
// initData upstream and forwards the id in this header.
const UserHeader = "X-Telegram-User-Id"

var userIDRe = regexp.MustCompile(`^[0-9]{1,20}$`)

type ctxKey struct{}

// Identity rejects requests without a well-formed user id and stores the id
// in the request context.
func Identity() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(UserHeader)
			if !userIDRe.MatchString(id) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error": "missing or invalid " + UserHeader,
					"code":  "unauthorized",
				})
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), id)))
		})
	}
}

func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// UserID returns the id stored by Identity, or "".
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
