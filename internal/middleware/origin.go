package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// OriginGuard rejects state-mutating requests whose Origin header does
// not exactly match the origin this server is being addressed as. It is
// defense in depth against cross-site request forgery for the
// cookie-based session, layered in front of authentication, not a
// substitute for it.
func OriginGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isMutating(c.Request.Method) {
			c.Next()
			return
		}

		origin := c.GetHeader("Origin")
		if origin == "" {
			abortOrigin(c)
			return
		}

		parsed, err := url.Parse(origin)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			abortOrigin(c)
			return
		}

		expected := ExpectedOrigin(c.Request)
		if parsed.Scheme+"://"+parsed.Host != expected {
			abortOrigin(c)
			return
		}

		c.Next()
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// ExpectedOrigin infers the origin the client should have sent from the
// forwarded-host headers a reverse proxy sets, falling back to the Host
// header. The scheme defaults to https except for loopback hosts, where
// local development runs plain http.
func ExpectedOrigin(r *http.Request) string {
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	host = strings.TrimSpace(strings.Split(host, ",")[0])

	proto := r.Header.Get("X-Forwarded-Proto")
	if proto == "" {
		if isLoopbackHost(host) {
			proto = "http"
		} else {
			proto = "https"
		}
	}

	return proto + "://" + host
}

func isLoopbackHost(host string) bool {
	bare := host
	if h, _, err := splitHostPort(host); err == nil {
		bare = h
	}
	bare = strings.Trim(bare, "[]")
	return bare == "localhost" || bare == "127.0.0.1" || bare == "::1"
}

// splitHostPort tolerates hosts without a port, unlike net.SplitHostPort.
func splitHostPort(host string) (string, string, error) {
	idx := strings.LastIndex(host, ":")
	if idx < 0 || strings.HasSuffix(host, "]") {
		return host, "", nil
	}
	// Bracketed IPv6 with port.
	if strings.HasPrefix(host, "[") {
		end := strings.Index(host, "]")
		if end > 0 && end < idx {
			return host[1:end], host[idx+1:], nil
		}
		return host, "", nil
	}
	return host[:idx], host[idx+1:], nil
}

func abortOrigin(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
		"success": false,
		"message": "request origin not allowed",
	})
}
