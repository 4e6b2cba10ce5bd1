package middleware

import (
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
)

// IPWhitelist returns a middleware that only allows clients whose IP matches
// one of entries (plain IPs or CIDRs). An empty list allows everyone.
func IPWhitelist(entries []string) (gin.HandlerFunc, error) {
	nets := make([]*net.IPNet, 0, len(entries))
	for _, e := range entries {
		if ip := net.ParseIP(e); ip != nil {
			bits := 8 * len(ip.To4())
			if bits == 0 {
				bits = 8 * net.IPv6len
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(e)
		if err != nil {
			return nil, fmt.Errorf("ip whitelist: %q is not an IP or CIDR", e)
		}
		nets = append(nets, n)
	}
	return func(c *gin.Context) {
		if len(nets) == 0 {
			c.Next()
			return
		}
		ip := net.ParseIP(c.ClientIP())
		for _, n := range nets {
			if ip != nil && n.Contains(ip) {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
	}, nil
}
