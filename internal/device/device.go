// Package device derives a stable client identity from request metadata.
// Every function here is pure: identical inputs yield identical outputs.
package device

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
)

// ClientIP resolves the caller's address: first entry of X-Forwarded-For when
// present, otherwise the direct connection address.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Fingerprint hashes user agent + IP into a stable device identifier.
func Fingerprint(userAgent string, ip string) string {
	sum := sha256.Sum256([]byte(userAgent + ip))
	return hex.EncodeToString(sum[:])
}

// ClassifyBrowser matches in priority order. Edge and Opera user agents also
// contain "chrome", so they classify as Chrome.
func ClassifyBrowser(userAgent string) string {
	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(ua, "chrome"):
		return "Chrome"
	case strings.Contains(ua, "firefox"):
		return "Firefox"
	case strings.Contains(ua, "safari"):
		return "Safari"
	case strings.Contains(ua, "edge"):
		return "Edge"
	case strings.Contains(ua, "opera"):
		return "Opera"
	}
	return "Unknown Browser"
}

// ClassifyDevice labels the device class from the user agent.
func ClassifyDevice(userAgent string) string {
	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(ua, "mobile"), strings.Contains(ua, "android"):
		return "Mobile Device"
	case strings.Contains(ua, "tablet"), strings.Contains(ua, "ipad"):
		return "Tablet"
	case strings.Contains(ua, "windows"):
		return "Windows PC"
	case strings.Contains(ua, "mac"):
		return "Mac"
	case strings.Contains(ua, "linux"):
		return "Linux PC"
	}
	return "Desktop"
}
