package extractor

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"net/url"
	"strings"
	"time"
)

// SSLProbe checks certificate validity with a direct TLS handshake. It is a
// separate network path from the render session, so it still runs when the
// browser later fails.
type SSLProbe struct {
	timeout time.Duration

	// RootCAs overrides the verification pool; nil means system roots.
	RootCAs *x509.CertPool
}

// NewSSLProbe builds a probe with the given handshake timeout.
func NewSSLProbe(timeout time.Duration) *SSLProbe {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &SSLProbe{timeout: timeout}
}

// Check performs the handshake for https URLs. It returns (valid, invalid):
// a completed handshake yields (true, false); a handshake or certificate
// error yields (false, true); non-https URLs and unreachable hosts yield
// (false, false). The two are never both true.
func (p *SSLProbe) Check(ctx context.Context, rawURL string) (bool, bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme != "https" {
		return false, false
	}
	host := parsed.Hostname()
	if host == "" {
		return false, false
	}
	port := parsed.Port()
	if port == "" {
		port = "443"
	}

	dialCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: p.timeout},
		Config: &tls.Config{
			ServerName: host,
			RootCAs:    p.RootCAs,
		},
	}
	conn, err := dialer.DialContext(dialCtx, "tcp", net.JoinHostPort(host, port))
	if err == nil {
		_ = conn.Close()
		return true, false
	}
	if isCertificateError(err) {
		return false, true
	}
	// Timeouts, DNS failures, refused connections: no certificate verdict.
	return false, false
}

func isCertificateError(err error) bool {
	var (
		verifyErr   *tls.CertificateVerificationError
		recordErr   tls.RecordHeaderError
		hostErr     x509.HostnameError
		authErr     x509.UnknownAuthorityError
		invalidErr  x509.CertificateInvalidError
		rootsErr    x509.SystemRootsError
		alertDetail tls.AlertError
	)
	switch {
	case errors.As(err, &verifyErr),
		errors.As(err, &recordErr),
		errors.As(err, &hostErr),
		errors.As(err, &authErr),
		errors.As(err, &invalidErr),
		errors.As(err, &rootsErr),
		errors.As(err, &alertDetail):
		return true
	}
	// TLS alert text from peers that close during the handshake.
	return strings.Contains(err.Error(), "tls:") || strings.Contains(err.Error(), "x509:")
}
