package mw

import (
	"net/http"
	"net/netip"

	"github.com/MrSnakeDoc/minichannels/internal/logger"
)

// AllowOnlyCIDRS guards operational endpoints. Requests from outside the
// prefixes get 403. With no prefixes only loopback callers are allowed.
func AllowOnlyCIDRS(allowed []netip.Prefix, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	log.Debugf("AllowOnlyCIDRS: initialized with %d rules, trustProxy=%v", len(allowed), trustProxy)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			addr, ok := clientAddr(r, trustProxy)
			if !ok || !allowedAddr(addr, allowed) {
				log.Debug("AllowOnlyCIDRS: rejected",
					logger.String("ip", ClientIP(r, trustProxy)),
					logger.String("path", r.URL.Path))
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func allowedAddr(addr netip.Addr, allowed []netip.Prefix) bool {
	if len(allowed) == 0 {
		return addr.IsLoopback()
	}
	for _, p := range allowed {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
