package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// resolveClientIP picks the most trustworthy client address available:
// the Cloudflare header first, then the left-most X-Forwarded-For hop,
// then whatever Gin derives from the connection.
func resolveClientIP(c *gin.Context) string {
	if cf := strings.TrimSpace(c.GetHeader("CF-Connecting-IP")); cf != "" {
		if ip := net.ParseIP(cf); ip != nil {
			return ip.String()
		}
	}
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.SplitN(xff, ",", 2)[0])
		if ip := net.ParseIP(first); ip != nil {
			return ip.String()
		}
	}
	return c.ClientIP()
}

// RealIP stores the resolved client address under "real_ip" so the rate
// limiter keys on the actual caller rather than the proxy in front.
func RealIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("real_ip", resolveClientIP(c))
		c.Next()
	}
}
