// Package guard extracts the mandatory request context (device identifier
// and client address) that authentication handlers require.
package guard

import (
	"errors"
	"net"
	"net/http"
	"strings"
)

const (
	DeviceHeader = "x-rpc-device_id"
	cfHeader     = "CF-Connecting-IP"
	proxyHeader  = "X-Real-IP"
)

var (
	ErrMissingDevice = errors.New("missing 'x-rpc-device_id' header")
	ErrMissingIP     = errors.New("missing client IP address")
)

// DeviceID returns the client-supplied device identifier.
func DeviceID(r *http.Request) (string, error) {
	d := strings.TrimSpace(r.Header.Get(DeviceHeader))
	if d == "" {
		return "", ErrMissingDevice
	}
	return d, nil
}

// ClientIP prefers the Cloudflare header, then the reverse proxy header,
// then the peer address of the connection.
func ClientIP(r *http.Request) (string, error) {
	if ip := strings.TrimSpace(r.Header.Get(cfHeader)); ip != "" {
		return ip, nil
	}
	if ip := strings.TrimSpace(r.Header.Get(proxyHeader)); ip != "" {
		return ip, nil
	}
	if r.RemoteAddr == "" {
		return "", ErrMissingIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port
		host = r.RemoteAddr
	}
	if host == "" {
		return "", ErrMissingIP
	}
	return host, nil
}
