// Package extractor defines core types shared across the extraction engine.
package extractor

import (
	"strconv"
	"time"
)

// URLTask is one row of the input dataset. Index is the stable 0-based
// position the recovery protocol keys on; tasks are immutable once read.
type URLTask struct {
	Index uint64
	URL   string
	Label int
}

// TerminationReason reports how an engine run ended.
type TerminationReason string

// Terminal states of the engine loop.
const (
	TerminationDone        TerminationReason = "done"
	TerminationInterrupted TerminationReason = "interrupted"
	TerminationFatal       TerminationReason = "fatal"
)

// ErrorClass labels the failure mode of one task attempt.
type ErrorClass string

// Task error classes recorded in the error log and the run statistics.
const (
	ErrorNone        ErrorClass = ""
	ErrorTimeout     ErrorClass = "timeout"
	ErrorWebDriver   ErrorClass = "webdriver"
	ErrorSessionDead ErrorClass = "session_dead"
)

// FeatureRecord is the fixed 26-field output row for one URL. Every field is
// present for every task; failed tasks carry the zero defaults plus the error
// flags. Records are never mutated after Extract returns them.
type FeatureRecord struct {
	URL                     string
	Label                   int
	Success                 int
	NumEvents               int
	SSLValid                int
	SSLInvalid              int
	Redirects               int
	Forms                   int
	PasswordFields          int
	Iframes                 int
	Scripts                 int
	SuspiciousKeywords      int
	ExternalRequests        int
	PageLoadTime            float64
	HasErrors               int
	CountSSLInvalid         int
	CountWebDriverError     int
	CountSSLValid           int
	CountRedirects          int
	CountExternalRequests   int
	CountFormsDetected      int
	CountPasswordFields     int
	CountIframesDetected    int
	CountScriptsDetected    int
	CountSuspiciousKeywords int
	CountPageLoadTime       int
}

// FeatureColumns returns the canonical output header in schema order.
func FeatureColumns() []string {
	return []string{
		"url", "label", "success", "num_events", "ssl_valid", "ssl_invalid",
		"redirects", "forms", "password_fields", "iframes", "scripts",
		"suspicious_keywords", "external_requests", "page_load_time",
		"has_errors", "count_ssl_invalid", "count_webdriver_error",
		"count_ssl_valid", "count_redirects", "count_external_requests",
		"count_forms_detected", "count_password_fields", "count_iframes_detected",
		"count_scripts_detected", "count_suspicious_keywords", "count_page_load_time",
	}
}

// Row renders the record as CSV cells in the same order as FeatureColumns.
func (r FeatureRecord) Row() []string {
	return []string{
		r.URL,
		strconv.Itoa(r.Label),
		strconv.Itoa(r.Success),
		strconv.Itoa(r.NumEvents),
		strconv.Itoa(r.SSLValid),
		strconv.Itoa(r.SSLInvalid),
		strconv.Itoa(r.Redirects),
		strconv.Itoa(r.Forms),
		strconv.Itoa(r.PasswordFields),
		strconv.Itoa(r.Iframes),
		strconv.Itoa(r.Scripts),
		strconv.Itoa(r.SuspiciousKeywords),
		strconv.Itoa(r.ExternalRequests),
		strconv.FormatFloat(r.PageLoadTime, 'f', 2, 64),
		strconv.Itoa(r.HasErrors),
		strconv.Itoa(r.CountSSLInvalid),
		strconv.Itoa(r.CountWebDriverError),
		strconv.Itoa(r.CountSSLValid),
		strconv.Itoa(r.CountRedirects),
		strconv.Itoa(r.CountExternalRequests),
		strconv.Itoa(r.CountFormsDetected),
		strconv.Itoa(r.CountPasswordFields),
		strconv.Itoa(r.CountIframesDetected),
		strconv.Itoa(r.CountScriptsDetected),
		strconv.Itoa(r.CountSuspiciousKeywords),
		strconv.Itoa(r.CountPageLoadTime),
	}
}

// Stats holds the cumulative run counters. The engine owns the single
// instance; resumed runs merge the previous checkpoint in so counters stay
// additive and are never reset.
type Stats struct {
	TotalProcessed  int
	Successful      int
	Failed          int
	SSLValid        int
	SSLInvalid      int
	TimeoutErrors   int
	WebDriverErrors int
}

// Merge adds the other stats field-wise.
func (s *Stats) Merge(other Stats) {
	s.TotalProcessed += other.TotalProcessed
	s.Successful += other.Successful
	s.Failed += other.Failed
	s.SSLValid += other.SSLValid
	s.SSLInvalid += other.SSLInvalid
	s.TimeoutErrors += other.TimeoutErrors
	s.WebDriverErrors += other.WebDriverErrors
}

// Checkpoint is the durable progress snapshot. LastProcessedIndex is the
// 0-based index of the last completed task and is the single source of truth
// for resume; it only ever advances.
type Checkpoint struct {
	RunID              string    `json:"run_id"`
	LastProcessedIndex uint64    `json:"last_processed_index"`
	TotalProcessed     int       `json:"total_processed"`
	Successful         int       `json:"successful"`
	Failed             int       `json:"failed"`
	SSLValid           int       `json:"ssl_valid"`
	SSLInvalid         int       `json:"ssl_invalid"`
	TimeoutErrors      int       `json:"timeout_errors"`
	WebDriverErrors    int       `json:"webdriver_errors"`
	Timestamp          time.Time `json:"timestamp"`
	ElapsedSeconds     float64   `json:"elapsed_seconds"`
}

// Stats extracts the cumulative counters carried by the checkpoint.
func (c Checkpoint) Stats() Stats {
	return Stats{
		TotalProcessed:  c.TotalProcessed,
		Successful:      c.Successful,
		Failed:          c.Failed,
		SSLValid:        c.SSLValid,
		SSLInvalid:      c.SSLInvalid,
		TimeoutErrors:   c.TimeoutErrors,
		WebDriverErrors: c.WebDriverErrors,
	}
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
