package resolver

import (
	"context"
	"net"
	"net/http"
	"time"
)

// DefaultTimeout bounds connect, every read and every write of a request.
const DefaultTimeout = 5 * time.Second

// NewHTTPClient builds the client shared by all lookups of a run.
// Connecting, waiting for response headers, and each individual read or write on the
// connection are bounded by timeout. Idle connections are kept for reuse.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	const (
		keepAlive    = 30 * time.Second
		idleTimeout  = 90 * time.Second
		maxIdleConns = 100
	)

	dialer := &net.Dialer{Timeout: timeout, KeepAlive: keepAlive}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			return &deadlineConn{Conn: conn, timeout: timeout}, nil
		},
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		MaxIdleConns:          maxIdleConns,
		MaxIdleConnsPerHost:   maxIdleConns,
		IdleConnTimeout:       idleTimeout,
	}

	return &http.Client{Transport: transport}
}

// deadlineConn arms a fresh read or write deadline before every operation,
// so a stalled peer fails the request after timeout of inactivity.
type deadlineConn struct {
	net.Conn
	timeout time.Duration
}

func (c *deadlineConn) Read(b []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(b)
}

func (c *deadlineConn) Write(b []byte) (int, error) {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Write(b)
}
