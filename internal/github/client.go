package github

import (
	"context"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	utls "github.com/refraction-networking/utls"
)

// NewHTTPClient builds the outbound client used for all GitHub calls.
// The timeout bounds the whole request, including body read. Setting
// GITHUBBOT_UTLS=1 swaps in a Chrome ClientHello for deployments where the
// default Go TLS fingerprint gets filtered.
func NewHTTPClient(timeout time.Duration) *http.Client {
	useUTLS := strings.TrimSpace(os.Getenv("GITHUBBOT_UTLS")) == "1"
	return &http.Client{
		Timeout:   timeout,
		Transport: newTransport(useUTLS),
	}
}

func newTransport(useUTLS bool) http.RoundTripper {
	if !useUTLS {
		return &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout: 10 * time.Second,
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
		}
	}

	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			dialer := &net.Dialer{Timeout: 10 * time.Second}
			rawConn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			host := addr
			if strings.Contains(addr, ":") {
				host, _, _ = net.SplitHostPort(addr)
			}
			config := &utls.Config{
				ServerName: host,
				NextProtos: []string{"h2", "http/1.1"},
			}
			uconn := utls.UClient(rawConn, config, utls.HelloChrome_120)
			if err := uconn.Handshake(); err != nil {
				_ = rawConn.Close()
				return nil, err
			}
			return uconn, nil
		},
		TLSHandshakeTimeout: 10 * time.Second,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
	}
}
