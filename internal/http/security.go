package http

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
)

// securityMetrics counts security-related events, reported by /healthz.
type securityMetrics struct {
	rateLimitHits      int64
	suspiciousRequests int64
}

// trustedProxies defines networks that are trusted to set forwarding headers.
var trustedProxies = []*net.IPNet{
	parsecidr("127.0.0.0/8"),    // localhost
	parsecidr("10.0.0.0/8"),     // private networks
	parsecidr("172.16.0.0/12"),  // private networks
	parsecidr("192.168.0.0/16"), // private networks
}

// parsecidr is a helper to parse CIDR during initialization.
func parsecidr(cidr string) *net.IPNet {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(fmt.Sprintf("failed to parse trusted proxy CIDR %s: %v", cidr, err))
	}
	return network
}

// isTrustedProxy checks if an IP is from a trusted proxy.
func isTrustedProxy(ip net.IP) bool {
	for _, network := range trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// extractClientIP extracts the real client IP, validating forwarded headers.
func extractClientIP(r *http.Request) string {
	directIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		directIP = r.RemoteAddr
	}

	parsedDirectIP := net.ParseIP(directIP)
	if parsedDirectIP == nil {
		return directIP
	}

	if isTrustedProxy(parsedDirectIP) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			ips := strings.Split(xff, ",")
			if len(ips) > 0 {
				clientIP := strings.TrimSpace(ips[0])
				if parsedIP := net.ParseIP(clientIP); parsedIP != nil {
					return clientIP
				}
			}
		}

		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			if parsedIP := net.ParseIP(xri); parsedIP != nil {
				return xri
			}
		}
	}

	return directIP
}

var (
	suspiciousPatterns = []string{
		"../", "..\\", ".env", "wp-admin", "phpmyadmin",
		"admin.php", "config.php", ".git", ".ssh",
		"eval(", "javascript:", "<script", "union select",
		"etc/passwd", "cmd.exe",
	}
	suspiciousAgents = []string{"sqlmap", "nmap", "nikto", "gobuster", "dirb", "masscan", "zgrab", "scanner"}
	unusualMethods   = map[string]bool{"TRACE": true, "TRACK": true, "DEBUG": true, "CONNECT": true}
	maxURLLength     = 2048
	maxForwardedHops = 5
)

type suspicionRule struct {
	reason string
	match  func(r *http.Request) bool
}

var suspicionRules = []suspicionRule{
	{"path_pattern", func(r *http.Request) bool { return containsAny(strings.ToLower(r.URL.Path), suspiciousPatterns) }},
	{"query_pattern", func(r *http.Request) bool { return containsAny(strings.ToLower(r.URL.RawQuery), suspiciousPatterns) }},
	{"scanner_agent", func(r *http.Request) bool { return containsAny(strings.ToLower(r.UserAgent()), suspiciousAgents) }},
	{"unusual_method", func(r *http.Request) bool { return unusualMethods[r.Method] }},
	{"long_url", func(r *http.Request) bool { return len(r.URL.String()) > maxURLLength }},
	{"forwarded_chain", func(r *http.Request) bool {
		return strings.Count(r.Header.Get("X-Forwarded-For"), ",") > maxForwardedHops
	}},
	{"oversized_body", func(r *http.Request) bool { return r.ContentLength > maxBodyBytes }},
}

// detectSuspiciousRequest returns the first rule the request trips, or "".
func detectSuspiciousRequest(r *http.Request, metrics *securityMetrics) string {
	for _, rule := range suspicionRules {
		if rule.match(r) {
			if metrics != nil {
				atomic.AddInt64(&metrics.suspiciousRequests, 1)
			}
			return rule.reason
		}
	}
	return ""
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
