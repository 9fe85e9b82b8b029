package extractor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSession lets each stage of the pipeline be scripted independently.
type fakeSession struct {
	navURL     string
	navElapsed time.Duration
	navErr     error
	counts     map[string]int
	countsErr  error
	html       string
	htmlErr    error
}

func (f *fakeSession) Navigate(_ context.Context, url string, _ time.Duration) (string, time.Duration, error) {
	final := f.navURL
	if final == "" {
		final = url
	}
	return final, f.navElapsed, f.navErr
}

func (f *fakeSession) CurrentURL(context.Context) (string, error) { return f.navURL, nil }

func (f *fakeSession) QueryCounts(_ context.Context, selectors ...string) (map[string]int, error) {
	out := make(map[string]int, len(selectors))
	for _, sel := range selectors {
		out[sel] = f.counts[sel]
	}
	return out, f.countsErr
}

func (f *fakeSession) PageHTML(context.Context) (string, error) { return f.html, f.htmlErr }
func (f *fakeSession) IsAlive(context.Context) bool             { return true }
func (f *fakeSession) Close(context.Context) error              { return nil }

func TestExtractSuccessfulPage(t *testing.T) {
	session := &fakeSession{
		navElapsed: 1234 * time.Millisecond,
		counts: map[string]int{
			selForm:     2,
			selPassword: 1,
			selIframe:   3,
			selScript:   7,
			selButton:   4,
			selInput:    5,
		},
		html: `<html><body>
			Please LOGIN to verify your account.
			<a href="https://other.example/promo">promo</a>
			<a href="https://example.com/self">self</a>
			<a href="/relative">rel</a>
		</body></html>`,
	}
	x := NewExtractor(nil, time.Second, nil)

	res := x.Extract(context.Background(), URLTask{Index: 3, URL: "https://example.com", Label: 1}, session)
	require.False(t, res.Failed())

	rec := res.Record
	assert.Equal(t, "https://example.com", rec.URL)
	assert.Equal(t, 1, rec.Label)
	assert.Equal(t, 1, rec.Success)
	assert.Equal(t, 0, rec.HasErrors)
	assert.Equal(t, 2, rec.Forms)
	assert.Equal(t, 1, rec.PasswordFields)
	assert.Equal(t, 3, rec.Iframes)
	assert.Equal(t, 7, rec.Scripts)
	// forms + password fields + buttons + inputs
	assert.Equal(t, 2+1+4+5, rec.NumEvents)
	assert.Equal(t, 1.23, rec.PageLoadTime)
	// login, verify, account
	assert.Equal(t, 3, rec.SuspiciousKeywords)
	assert.Equal(t, 1, rec.ExternalRequests)
	assert.Equal(t, 0, rec.Redirects)

	// Detected indicators are 0/1 alongside the raw counts.
	assert.Equal(t, 1, rec.CountFormsDetected)
	assert.Equal(t, 1, rec.CountPasswordFields)
	assert.Equal(t, 1, rec.CountIframesDetected)
	assert.Equal(t, 1, rec.CountScriptsDetected)
	assert.Equal(t, 1, rec.CountSuspiciousKeywords)
	assert.Equal(t, rec.ExternalRequests, rec.CountExternalRequests)
}

func TestExtractNavigationTimeoutKeepsDefaults(t *testing.T) {
	session := &fakeSession{
		navElapsed: 15 * time.Second,
		navErr:     fmt.Errorf("navigate: %w", context.DeadlineExceeded),
	}
	x := NewExtractor(nil, time.Second, nil)

	res := x.Extract(context.Background(), URLTask{URL: "https://slow.example"}, session)
	require.True(t, res.Failed())
	assert.Equal(t, ErrorTimeout, res.Class)

	rec := res.Record
	assert.Equal(t, 0, rec.Success)
	assert.Equal(t, 1, rec.HasErrors)
	assert.Equal(t, 1, rec.CountWebDriverError)
	assert.Equal(t, 15.0, rec.PageLoadTime)
	assert.Equal(t, 0, rec.Forms)
	assert.Equal(t, 0, rec.NumEvents)
	assert.Equal(t, 0, rec.SuspiciousKeywords)
	assert.Equal(t, 0, rec.ExternalRequests)
}

func TestExtractRedirectDetected(t *testing.T) {
	session := &fakeSession{navURL: "https://example.com/login"}
	x := NewExtractor(nil, time.Second, nil)

	res := x.Extract(context.Background(), URLTask{URL: "https://example.com"}, session)
	require.False(t, res.Failed())
	assert.Equal(t, 1, res.Record.Redirects)
	assert.Equal(t, 1, res.Record.CountRedirects)
}

func TestExtractPartialCreditOnDOMFailure(t *testing.T) {
	session := &fakeSession{
		navElapsed: time.Second,
		countsErr:  errors.New("javascript disabled"),
		html:       "<html><body>password reset</body></html>",
	}
	x := NewExtractor(nil, time.Second, nil)

	res := x.Extract(context.Background(), URLTask{URL: "https://example.com"}, session)
	require.False(t, res.Failed(), "per-stage errors after navigation are not task failures")

	rec := res.Record
	assert.Equal(t, 1, rec.Success)
	assert.Equal(t, 1, rec.HasErrors)
	// The later stage still ran.
	assert.Equal(t, 1, rec.SuspiciousKeywords) // password
}

func TestExtractSessionDeadAbortsAnalysis(t *testing.T) {
	session := &fakeSession{
		htmlErr: fmt.Errorf("websocket closed: %w", ErrSessionDead),
	}
	x := NewExtractor(nil, time.Second, nil)

	res := x.Extract(context.Background(), URLTask{URL: "https://example.com"}, session)
	require.True(t, res.Failed())
	assert.Equal(t, ErrorSessionDead, res.Class)
	assert.Equal(t, 1, res.Record.Success, "navigation had already succeeded")
	assert.Equal(t, 1, res.Record.HasErrors)
}

func TestRedirected(t *testing.T) {
	tests := []struct {
		name      string
		requested string
		final     string
		want      bool
	}{
		{"identical", "https://a.test", "https://a.test", false},
		{"trailing slash added", "https://a.test", "https://a.test/", false},
		{"trailing slash removed", "https://a.test/", "https://a.test", false},
		{"empty final", "https://a.test", "", false},
		{"different path", "https://a.test", "https://a.test/login", true},
		{"different host", "https://a.test", "https://b.test/", true},
		{"scheme upgrade", "http://a.test", "https://a.test", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, redirected(tc.requested, tc.final))
		})
	}
}

func TestCountSuspiciousKeywords(t *testing.T) {
	assert.Equal(t, 0, countSuspiciousKeywords("<html><body>nothing here</body></html>"))
	// Distinct matches, not occurrences.
	assert.Equal(t, 1, countSuspiciousKeywords("login login login"))
	// Substring entries ("secure" inside "security") count separately.
	assert.Equal(t, 2, countSuspiciousKeywords("security"))

	all := strings.Join(suspiciousKeywords, " ")
	assert.Equal(t, len(suspiciousKeywords), countSuspiciousKeywords(all))
}

func TestCountExternalLinks(t *testing.T) {
	html := `<html><body>
		<a href="https://cdn.other.test/a">x</a>
		<a href="http://tracker.test/b">x</a>
		<a href="https://example.com/internal">x</a>
		<a href="https://EXAMPLE.com/internal2">x</a>
		<a href="/relative">x</a>
		<a href="mailto:x@example.com">x</a>
	</body></html>`

	n, err := countExternalLinks(html, "https://example.com/page")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCountExternalLinksScanBound(t *testing.T) {
	html := "<html><body>"
	for i := 0; i < maxExternalLinkScan; i++ {
		html += `<a href="https://same.test/x">x</a>`
	}
	// Beyond the scan window; must not be counted.
	html += `<a href="https://other.test/x">x</a>`
	html += "</body></html>"

	n, err := countExternalLinks(html, "https://same.test/")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestClassifyError(t *testing.T) {
	assert.Equal(t, ErrorNone, ClassifyError(nil))
	assert.Equal(t, ErrorSessionDead, ClassifyError(fmt.Errorf("x: %w", ErrSessionDead)))
	assert.Equal(t, ErrorTimeout, ClassifyError(fmt.Errorf("x: %w", context.DeadlineExceeded)))
	assert.Equal(t, ErrorWebDriver, ClassifyError(errors.New("net::ERR_NAME_NOT_RESOLVED")))
}
