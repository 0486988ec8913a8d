package mcpserver

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
)

// IPAuthMiddleware provides IP-based access control for the HTTP transports.
type IPAuthMiddleware struct {
	allowedIPs    []string
	allowedNets   []*net.IPNet
	enableLogging bool
}

// NewIPAuthMiddleware creates a middleware allowing the given IPs and CIDR
// blocks. Individual IPs are converted to /32 or /128 networks.
func NewIPAuthMiddleware(allowedIPs []string, enableLogging bool) (*IPAuthMiddleware, error) {
	if len(allowedIPs) == 0 {
		return nil, fmt.Errorf("no allowed IPs specified")
	}

	middleware := &IPAuthMiddleware{
		allowedIPs:    allowedIPs,
		allowedNets:   make([]*net.IPNet, 0, len(allowedIPs)),
		enableLogging: enableLogging,
	}

	for _, ipStr := range allowedIPs {
		ipStr = strings.TrimSpace(ipStr)
		if ipStr == "" {
			continue
		}

		if strings.Contains(ipStr, "/") {
			_, network, err := net.ParseCIDR(ipStr)
			if err != nil {
				return nil, fmt.Errorf("invalid CIDR block %s: %w", ipStr, err)
			}
			middleware.allowedNets = append(middleware.allowedNets, network)
			continue
		}

		ip := net.ParseIP(ipStr)
		if ip == nil {
			return nil, fmt.Errorf("invalid IP address: %s", ipStr)
		}

		cidr := ipStr + "/32"
		if ip.To4() == nil {
			cidr = ipStr + "/128"
		}
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, fmt.Errorf("failed to create CIDR for IP %s: %w", ipStr, err)
		}
		middleware.allowedNets = append(middleware.allowedNets, network)
	}

	return middleware, nil
}

// Middleware returns the HTTP middleware function.
func (m *IPAuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := extractClientIPFromRequest(r)

		if !m.IsIPAllowed(clientIP) {
			if m.enableLogging {
				log.Printf("Access denied for IP: %s (Path: %s, Method: %s, User-Agent: %s)",
					clientIP, r.URL.Path, r.Method, r.Header.Get("User-Agent"))
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			if _, err := w.Write([]byte(`{"error": {"code": -32603, "message": "Access denied: IP not authorized"}}`)); err != nil {
				log.Printf("Failed to write error response: %v", err)
			}
			return
		}

		next.ServeHTTP(w, r)
	})
}

// IsIPAllowed checks if the given IP is within an allowed network.
func (m *IPAuthMiddleware) IsIPAllowed(ipStr string) bool {
	if ipStr == "" {
		return false
	}

	clientIP := net.ParseIP(ipStr)
	if clientIP == nil {
		return false
	}

	for _, network := range m.allowedNets {
		if network.Contains(clientIP) {
			return true
		}
	}

	return false
}

// GetAllowedIPs returns the configured allowed IP addresses and ranges.
func (m *IPAuthMiddleware) GetAllowedIPs() []string {
	return m.allowedIPs
}

// LocalhostIPs contains common localhost addresses for convenience.
var LocalhostIPs = []string{"127.0.0.1", "::1"}
