package transport

import (
	"fmt"
	"strings"
)

// Supported address schemes.
const (
	SchemeTCP = "tcp"
	SchemeSRT = "srt"
)

// ParseAddr splits "scheme://host:port" into its parts. An address without
// a scheme is TCP.
func ParseAddr(addr string) (scheme, hostport string, err error) {
	scheme, hostport, ok := strings.Cut(addr, "://")
	if !ok {
		scheme, hostport = SchemeTCP, addr
	}
	scheme = strings.ToLower(scheme)
	if scheme != SchemeTCP && scheme != SchemeSRT {
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}
	if hostport == "" {
		return "", "", fmt.Errorf("transport: empty address in %q", addr)
	}
	return scheme, hostport, nil
}
