package middleware

import (
	"net"
	"net/http"
)

// WithSubnet lets a request through only if its X-Real-IP falls inside the
// trusted CIDR. An empty or unparsable subnet denies every request.
func WithSubnet(subnet string) func(next http.Handler) http.Handler {
	_, trusted, err := net.ParseCIDR(subnet)
	if err != nil {
		trusted = nil
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !InSubnet(trusted, r.Header.Get("X-Real-IP")) {
				w.WriteHeader(http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// InSubnet reports whether addr parses as an IP inside n.
func InSubnet(n *net.IPNet, addr string) bool {
	if n == nil {
		return false
	}
	ip := net.ParseIP(addr)
	return ip != nil && n.Contains(ip)
}
