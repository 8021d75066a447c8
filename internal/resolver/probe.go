package resolver

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"
)

// Probe dials host:port over TCP and reports whether a listener answered
// within timeout.
func Probe(ctx context.Context, host string, port int, timeout time.Duration) error {
	if host == "localhost" {
		host = "127.0.0.1"
	}
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return fmt.Errorf("probe %s:%d: %w", host, port, err)
	}
	return conn.Close()
}
