package mw

import (
	"net"
	"net/http"
	"net/netip"

	"github.com/tomasen/realip"
)

// ClientIP returns the caller's address. Proxy headers (X-Forwarded-For,
// X-Real-IP) are honoured only when trustProxy is set.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip := realip.FromRequest(r); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func clientAddr(r *http.Request, trustProxy bool) (netip.Addr, bool) {
	addr, err := netip.ParseAddr(ClientIP(r, trustProxy))
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}
