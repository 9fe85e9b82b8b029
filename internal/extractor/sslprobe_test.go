package extractor

import (
	"context"
	"crypto/x509"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSSLProbeValidCertificate(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	pool := x509.NewCertPool()
	pool.AddCert(srv.Certificate())

	probe := NewSSLProbe(2 * time.Second)
	probe.RootCAs = pool

	valid, invalid := probe.Check(context.Background(), srv.URL)
	assert.True(t, valid)
	assert.False(t, invalid)
}

func TestSSLProbeSelfSignedIsInvalid(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	// Verified against an empty pool, the test server's certificate chains to
	// an unknown authority.
	probe := NewSSLProbe(2 * time.Second)
	probe.RootCAs = x509.NewCertPool()

	valid, invalid := probe.Check(context.Background(), srv.URL)
	assert.False(t, valid)
	assert.True(t, invalid)
}

func TestSSLProbeNonHTTPS(t *testing.T) {
	probe := NewSSLProbe(time.Second)

	valid, invalid := probe.Check(context.Background(), "http://example.com")
	assert.False(t, valid)
	assert.False(t, invalid)
}

func TestSSLProbeUnreachableHost(t *testing.T) {
	probe := NewSSLProbe(500 * time.Millisecond)

	valid, invalid := probe.Check(context.Background(), "https://127.0.0.1:1")
	assert.False(t, valid)
	assert.False(t, invalid)
}

func TestSSLProbeMalformedURL(t *testing.T) {
	probe := NewSSLProbe(time.Second)

	valid, invalid := probe.Check(context.Background(), "://not a url")
	assert.False(t, valid)
	assert.False(t, invalid)
}
