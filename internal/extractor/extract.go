package extractor

import (
	"context"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// Selectors queried on every successfully loaded page.
const (
	selForm     = "form"
	selPassword = "input[type='password']"
	selIframe   = "iframe"
	selScript   = "script"
	selButton   = "button"
	selInput    = "input"
)

// maxExternalLinkScan bounds the anchor walk for the external-request
// approximation.
const maxExternalLinkScan = 50

// Result is the outcome of one task attempt. Record is always fully
// populated; Class is the only channel through which failures reach the
// engine — Extract never returns a per-task error.
type Result struct {
	Record FeatureRecord
	Class  ErrorClass
	Err    error
}

// Failed reports whether the attempt counts against the failure statistics.
func (r Result) Failed() bool {
	return r.Class != ErrorNone
}

// Extractor produces a fixed-schema FeatureRecord per URL against a live
// render session.
type Extractor struct {
	probe      *SSLProbe
	navTimeout time.Duration
	logger     *zap.Logger
}

// NewExtractor wires the SSL probe and navigation timeout.
func NewExtractor(probe *SSLProbe, navTimeout time.Duration, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if navTimeout <= 0 {
		navTimeout = 15 * time.Second
	}
	return &Extractor{probe: probe, navTimeout: navTimeout, logger: logger}
}

// Extract runs the staged feature pipeline for one task. Stages after a
// successful navigation get partial credit: whatever was computed before a
// stage error stays on the record, the rest keeps its defaults and
// has_errors is set.
func (x *Extractor) Extract(ctx context.Context, task URLTask, session Session) Result {
	rec := FeatureRecord{
		URL:       task.URL,
		Label:     task.Label,
		HasErrors: 1,
	}

	// Stage 1: SSL probe, independent of the render session.
	if x.probe != nil {
		valid, invalid := x.probe.Check(ctx, task.URL)
		rec.SSLValid = boolFlag(valid)
		rec.SSLInvalid = boolFlag(invalid)
		rec.CountSSLValid = rec.SSLValid
		rec.CountSSLInvalid = rec.SSLInvalid
	}

	// Stage 2: navigate with a bounded timeout.
	finalURL, elapsed, err := session.Navigate(ctx, task.URL, x.navTimeout)
	rec.PageLoadTime = round2(elapsed.Seconds())
	rec.CountPageLoadTime = boolFlag(rec.PageLoadTime > 0)
	if err != nil {
		rec.CountWebDriverError = 1
		return Result{Record: rec, Class: ClassifyError(err), Err: err}
	}
	rec.Success = 1
	rec.HasErrors = 0

	// Stage 3: redirect heuristic, trailing-slash insensitive.
	if redirected(task.URL, finalURL) {
		rec.Redirects = 1
		rec.CountRedirects = 1
	}

	// Stages 4-6 run best-effort; only session death aborts the record.
	if err := x.domCounts(ctx, session, &rec); err != nil {
		rec.HasErrors = 1
		if IsSessionDead(err) {
			return Result{Record: rec, Class: ErrorSessionDead, Err: err}
		}
		x.logger.Debug("dom counts failed", zap.String("url", task.URL), zap.Error(err))
	}
	if err := x.pageAnalysis(ctx, session, task.URL, &rec); err != nil {
		rec.HasErrors = 1
		if IsSessionDead(err) {
			return Result{Record: rec, Class: ErrorSessionDead, Err: err}
		}
		x.logger.Debug("page analysis failed", zap.String("url", task.URL), zap.Error(err))
	}

	return Result{Record: rec}
}

// domCounts fills the element-count features via the render session.
func (x *Extractor) domCounts(ctx context.Context, session Session, rec *FeatureRecord) error {
	counts, err := session.QueryCounts(ctx,
		selForm, selPassword, selIframe, selScript, selButton, selInput)
	// Partial maps still carry usable counts.
	rec.Forms = counts[selForm]
	rec.PasswordFields = counts[selPassword]
	rec.Iframes = counts[selIframe]
	rec.Scripts = counts[selScript]
	rec.CountFormsDetected = boolFlag(rec.Forms > 0)
	rec.CountPasswordFields = boolFlag(rec.PasswordFields > 0)
	rec.CountIframesDetected = boolFlag(rec.Iframes > 0)
	rec.CountScriptsDetected = boolFlag(rec.Scripts > 0)
	rec.NumEvents = rec.Forms + rec.PasswordFields + counts[selButton] + counts[selInput]
	return err
}

// pageAnalysis scans the rendered markup for suspicious keywords and
// external links.
func (x *Extractor) pageAnalysis(ctx context.Context, session Session, taskURL string, rec *FeatureRecord) error {
	html, err := session.PageHTML(ctx)
	if err != nil {
		return err
	}

	kw := countSuspiciousKeywords(strings.ToLower(html))
	rec.SuspiciousKeywords = kw
	rec.CountSuspiciousKeywords = boolFlag(kw > 0)

	external, err := countExternalLinks(html, taskURL)
	if err != nil {
		return err
	}
	rec.ExternalRequests = external
	rec.CountExternalRequests = external
	return nil
}

// countExternalLinks approximates external requests by comparing anchor
// hosts against the task host, bounded to the first maxExternalLinkScan
// absolute links.
func countExternalLinks(html, taskURL string) (int, error) {
	parsed, err := url.Parse(taskURL)
	if err != nil {
		return 0, err
	}
	taskHost := strings.ToLower(parsed.Host)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0, err
	}

	external := 0
	seen := 0
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if !strings.HasPrefix(href, "http") {
			return true
		}
		seen++
		if link, err := url.Parse(href); err == nil {
			host := strings.ToLower(link.Host)
			if host != "" && host != taskHost {
				external++
			}
		}
		return seen < maxExternalLinkScan
	})
	return external, nil
}

// redirected compares the requested and post-navigation URLs, ignoring a
// single trailing-slash difference. The heuristic is knowingly coarse and
// kept compatible with the datasets already produced with it.
func redirected(requested, final string) bool {
	if final == "" || final == requested {
		return false
	}
	if strings.TrimSuffix(final, "/") == strings.TrimSuffix(requested, "/") {
		return false
	}
	return true
}

func boolFlag(b bool) int {
	if b {
		return 1
	}
	return 0
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
