// Package loadcheck drives a running talentflow server over HTTP and
// reports how its simulated network behaves: the failure ratio of job
// reordering and whether paginated listings add up.
package loadcheck

import (
	"errors"
	"runtime"
	"time"
)

// Default configuration constants.
const (
	DefaultBaseURL  = "http://localhost:9080"
	DefaultRequests = 1000
	DefaultTimeout  = 30 * time.Second
	DefaultLimit    = 10
	DefaultRetries  = 5
	DefaultJob      = "1"
	workerFactor    = 2
)

// Errors returned by the checks.
var (
	ErrInvalidConfig = errors.New("invalid load-check config")
	ErrUnhealthy     = errors.New("service is not healthy")
	ErrUnexpected    = errors.New("unexpected response")
	ErrInconsistent  = errors.New("pagination walk is inconsistent")
)

// Config holds the load-check settings.
type Config struct {
	BaseURL  string        // server root, without a trailing slash
	Requests int           // reorder attempts to fire
	Workers  int           // concurrent reorder requests
	Timeout  time.Duration // per-request timeout
	Job      string        // job id or slug to reorder
	Path     string        // collection listing walked by Paginate
	Limit    int           // page size for Paginate
	Retries  int           // attempts per page on simulated failure
	Verbose  bool
}

// DefaultConfig returns the settings used when no flags are given.
func DefaultConfig() Config {
	return Config{
		BaseURL:  DefaultBaseURL,
		Requests: DefaultRequests,
		Workers:  runtime.NumCPU() * workerFactor,
		Timeout:  DefaultTimeout,
		Job:      DefaultJob,
		Path:     "/jobs",
		Limit:    DefaultLimit,
		Retries:  DefaultRetries,
	}
}

// Validate reports the first unusable setting.
func (c Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return errors.Join(ErrInvalidConfig, errors.New("base url is empty"))
	case c.Requests < 0:
		return errors.Join(ErrInvalidConfig, errors.New("requests must not be negative"))
	case c.Workers < 1:
		return errors.Join(ErrInvalidConfig, errors.New("workers must be positive"))
	case c.Limit < 1:
		return errors.Join(ErrInvalidConfig, errors.New("limit must be positive"))
	}
	return nil
}

// ReorderReport summarises a burst of reorder calls.
type ReorderReport struct {
	Attempts  int
	Succeeded int
	Simulated int // 500 simulated_failure responses
	Other     int // transport errors and any other status
	Duration  time.Duration
}

// FailureRatio is the share of attempts that hit a simulated failure.
func (r ReorderReport) FailureRatio() float64 {
	if r.Attempts == 0 {
		return 0
	}
	return float64(r.Simulated) / float64(r.Attempts)
}

// PageReport summarises a pagination walk.
type PageReport struct {
	Pages    int
	Records  int
	Total    int
	Retried  int
	Distinct int
	Duration time.Duration
}
