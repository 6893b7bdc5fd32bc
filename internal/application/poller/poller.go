// Package poller runs the background reconciliation loop: one cycle walks
// every tracked patent through the refresh pipeline on a configurable
// interval, with pacing between patents and rate-limit backoff.
package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/uspto-tools/pairwatch/internal/application/refresh"
	"github.com/uspto-tools/pairwatch/internal/config"
	"github.com/uspto-tools/pairwatch/internal/domain/tracking"
	"github.com/uspto-tools/pairwatch/internal/infrastructure/monitoring/logging"
	appErrors "github.com/uspto-tools/pairwatch/pkg/errors"
)

// Status is the scheduler state exposed to callers.
type Status string

// Scheduler states.  There is no queue: a cycle is either running or not.
const (
	StatusIdle    Status = "idle"
	StatusPolling Status = "polling"
)

// Refresher reconciles a single patent; satisfied by refresh.Orchestrator.
type Refresher interface {
	RefreshPatent(ctx context.Context, applicationNumber string) (*refresh.Result, error)
}

// MetricsRecorder receives cycle and refresh observations.
type MetricsRecorder interface {
	RecordCycle(outcome string, d time.Duration)
	RecordRefresh(outcome string)
	RecordStageFailure(stage string)
	RecordNewEvents(n int)
	RecordRateLimitBackoff()
	SetTrackedPatents(n int)
}

type nopMetrics struct{}

func (nopMetrics) RecordCycle(string, time.Duration) {}
func (nopMetrics) RecordRefresh(string)              {}
func (nopMetrics) RecordStageFailure(string)         {}
func (nopMetrics) RecordNewEvents(int)               {}
func (nopMetrics) RecordRateLimitBackoff()           {}
func (nopMetrics) SetTrackedPatents(int)             {}

// CycleSummary is the sanitized outcome of one poll cycle.  Error strings
// are per-application classifications, never raw upstream bodies.
type CycleSummary struct {
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration"`
	PatentsChecked int           `json:"patents_checked"`
	PatentsUpdated int           `json:"patents_updated"`
	PatentsFailed  int           `json:"patents_failed"`
	NewEvents      int           `json:"new_events"`
	Errors         []string      `json:"errors,omitempty"`
	Aborted        bool          `json:"aborted"`
}

// Poller owns the background loop.  At most one cycle runs at a time;
// triggers that arrive while a cycle is in flight are collapsed into it,
// not queued behind it.
type Poller struct {
	refresher Refresher
	patents   tracking.PatentRepository
	settings  tracking.SettingsRepository
	cfg       config.PollerConfig
	logger    logging.Logger
	metrics   MetricsRecorder

	// onCycle, when set, receives every finished cycle's summary.
	onCycle func(CycleSummary)

	mu       sync.Mutex
	polling  bool
	lastRun  *CycleSummary
	trigger  chan []string
	reloaded chan struct{}

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New constructs a Poller.  metrics and onCycle may be nil.
func New(
	refresher Refresher,
	patents tracking.PatentRepository,
	settings tracking.SettingsRepository,
	cfg config.PollerConfig,
	logger logging.Logger,
	metrics MetricsRecorder,
	onCycle func(CycleSummary),
) *Poller {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Poller{
		refresher: refresher,
		patents:   patents,
		settings:  settings,
		cfg:       cfg,
		logger:    logger,
		metrics:   metrics,
		onCycle:   onCycle,
		trigger:   make(chan []string, 1),
		reloaded:  make(chan struct{}, 1),
		now:       time.Now,
		sleep:     sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Status reports whether a cycle is currently running.
func (p *Poller) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.polling {
		return StatusPolling
	}
	return StatusIdle
}

// LastCycle returns the most recent cycle summary, or nil before the first.
func (p *Poller) LastCycle() *CycleSummary {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastRun == nil {
		return nil
	}
	c := *p.lastRun
	return &c
}

// pollerConfig snapshots the current configuration.  Reconfigure may swap
// it from another goroutine while a cycle is running.
func (p *Poller) pollerConfig() config.PollerConfig {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg
}

// Interval resolves the effective poll interval: the persisted setting when
// present and valid, the configured default otherwise.
func (p *Poller) Interval(ctx context.Context) time.Duration {
	stored, err := p.settings.GetDefault(ctx, tracking.SettingPollInterval, "")
	if err == nil && stored != "" {
		if d, perr := time.ParseDuration(stored); perr == nil &&
			d >= config.MinPollInterval && d <= config.MaxPollInterval {
			return d
		}
	}
	return p.pollerConfig().Interval
}

// Reconfigure swaps in new scheduling parameters and wakes the loop so a
// shortened interval does not wait out the old timer.  Used by config file
// hot-reload; the persisted interval setting, when present, still takes
// precedence over the configured default.
func (p *Poller) Reconfigure(cfg config.PollerConfig) {
	p.mu.Lock()
	p.cfg = cfg
	p.mu.Unlock()

	select {
	case p.reloaded <- struct{}{}:
	default:
	}
}

// SetInterval persists a new poll interval and wakes the loop so the new
// value takes effect without waiting out the old timer.
func (p *Poller) SetInterval(ctx context.Context, d time.Duration) error {
	if d < config.MinPollInterval || d > config.MaxPollInterval {
		return appErrors.InvalidParam(fmt.Sprintf(
			"poll interval must be between %s and %s", config.MinPollInterval, config.MaxPollInterval))
	}
	if err := p.settings.Set(ctx, tracking.SettingPollInterval, d.String()); err != nil {
		return err
	}
	select {
	case p.reloaded <- struct{}{}:
	default:
	}
	return nil
}

// RefreshNow requests an immediate cycle over the given applications, or all
// tracked applications when none are named.  Returns false when a cycle is
// already running: the in-flight cycle is doing the same work, so the
// request collapses into it.
func (p *Poller) RefreshNow(appNumbers ...string) bool {
	// The idle check and the send happen under one lock so a cycle starting
	// in between cannot leave the trigger buffered for a back-to-back run.
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.polling {
		return false
	}
	select {
	case p.trigger <- appNumbers:
		return true
	default:
		return false
	}
}

// Run executes the scheduling loop until ctx is cancelled.  A first cycle
// fires after one full interval, not at startup: the operator starting the
// service is not a signal that the agency posted new data.
func (p *Poller) Run(ctx context.Context) {
	p.logger.Info("poller started", logging.Duration("interval", p.Interval(ctx)))
	timer := time.NewTimer(p.Interval(ctx))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("poller stopped")
			return

		case <-timer.C:
			p.runCycle(ctx, nil)
			timer.Reset(p.Interval(ctx))

		case apps := <-p.trigger:
			p.runCycle(ctx, apps)
			// A manual cycle resets the schedule; polling again moments
			// later would only re-fetch what was just fetched.
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(p.Interval(ctx))

		case <-p.reloaded:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(p.Interval(ctx))
			p.logger.Info("poll interval updated", logging.Duration("interval", p.Interval(ctx)))
		}
	}
}

// RunCycleNow runs one synchronous cycle, bypassing the schedule.  Used by
// the CLI refresh command; the single-cycle invariant still holds.
func (p *Poller) RunCycleNow(ctx context.Context, appNumbers ...string) (*CycleSummary, error) {
	summary := p.runCycle(ctx, appNumbers)
	if summary == nil {
		return nil, appErrors.Conflict("a poll cycle is already running")
	}
	return summary, nil
}

// runCycle walks the target patents sequentially.  Returns nil when another
// cycle already holds the slot.
func (p *Poller) runCycle(ctx context.Context, appNumbers []string) *CycleSummary {
	p.mu.Lock()
	if p.polling {
		p.mu.Unlock()
		return nil
	}
	p.polling = true
	// A refresh request that raced the timer fire is already covered by this
	// cycle; dropping it here keeps "collapsed, not queued" true.
	select {
	case <-p.trigger:
	default:
	}
	p.mu.Unlock()

	summary := &CycleSummary{StartedAt: p.now()}
	defer func() {
		summary.Duration = p.now().Sub(summary.StartedAt)

		p.mu.Lock()
		p.polling = false
		p.lastRun = summary
		p.mu.Unlock()

		outcome := "ok"
		if summary.Aborted {
			outcome = "aborted"
		} else if summary.PatentsFailed > 0 {
			outcome = "partial"
		}
		p.metrics.RecordCycle(outcome, summary.Duration)
		if summary.NewEvents > 0 {
			p.metrics.RecordNewEvents(summary.NewEvents)
		}
		if err := p.settings.Set(ctx, tracking.SettingLastPoll, summary.StartedAt.UTC().Format(time.RFC3339)); err != nil {
			p.logger.Warn("failed to persist last poll time", logging.Err(err))
		}
		p.logger.Info("poll cycle finished",
			logging.Int("checked", summary.PatentsChecked),
			logging.Int("updated", summary.PatentsUpdated),
			logging.Int("failed", summary.PatentsFailed),
			logging.Int("new_events", summary.NewEvents),
			logging.Bool("aborted", summary.Aborted),
			logging.Duration("duration", summary.Duration))
		if p.onCycle != nil {
			p.onCycle(*summary)
		}
	}()

	targets, err := p.resolveTargets(ctx, appNumbers)
	if err != nil {
		summary.Aborted = true
		summary.Errors = append(summary.Errors, "failed to list tracked patents")
		p.logger.Error("poll cycle could not list patents", logging.Err(err))
		return summary
	}
	p.metrics.SetTrackedPatents(len(targets))

	backoffExp := 0
	for i, appNumber := range targets {
		if ctx.Err() != nil {
			summary.Aborted = true
			return summary
		}
		if pacing := p.pollerConfig().Pacing; i > 0 && pacing > 0 {
			if err := p.sleep(ctx, pacing); err != nil {
				summary.Aborted = true
				return summary
			}
		}

		summary.PatentsChecked++
		result, err := p.refreshWithBackoff(ctx, appNumber, &backoffExp)

		if result != nil {
			summary.NewEvents += result.NewEventCount
			for _, f := range result.FailedStages {
				p.metrics.RecordStageFailure(string(f.Stage))
			}
		}

		switch {
		case err == nil:
			p.metrics.RecordRefresh("ok")
			if result != nil && result.NewEventCount > 0 {
				summary.PatentsUpdated++
			}
		case result != nil && result.Fatal:
			p.metrics.RecordRefresh("fatal")
			summary.PatentsFailed++
			summary.Errors = append(summary.Errors, refreshErrorLine(appNumber, err))
			summary.Aborted = true
			p.logger.Error("poll cycle aborted",
				logging.String("application_number", appNumber),
				logging.Err(err))
			return summary
		default:
			p.metrics.RecordRefresh("failed")
			summary.PatentsFailed++
			summary.Errors = append(summary.Errors, refreshErrorLine(appNumber, err))
		}
	}
	return summary
}

// refreshWithBackoff runs one patent's refresh.  On a rate-limit response
// the whole cycle pauses for an exponentially growing, capped delay and the
// same patent is retried exactly once; a second rejection fails the patent
// and the grown backoff carries into the next one.
func (p *Poller) refreshWithBackoff(ctx context.Context, appNumber string, backoffExp *int) (*refresh.Result, error) {
	result, err := p.refresher.RefreshPatent(ctx, appNumber)
	if !appErrors.IsRateLimited(err) {
		if err == nil {
			*backoffExp = 0
		}
		return result, err
	}

	cfg := p.pollerConfig()
	delay := backoffDelay(cfg.BackoffBase, cfg.BackoffMax, *backoffExp)
	*backoffExp++
	p.metrics.RecordRateLimitBackoff()
	p.logger.Warn("rate limited by USPTO API, pausing cycle",
		logging.String("application_number", appNumber),
		logging.Duration("backoff", delay))
	if serr := p.sleep(ctx, delay); serr != nil {
		return result, err
	}
	return p.refresher.RefreshPatent(ctx, appNumber)
}

func backoffDelay(base, max time.Duration, exp int) time.Duration {
	if base <= 0 {
		base = time.Second
	}
	d := base
	for i := 0; i < exp; i++ {
		d *= 2
		if max > 0 && d >= max {
			return max
		}
	}
	if max > 0 && d > max {
		return max
	}
	return d
}

// resolveTargets normalizes an explicit application list, or lists all
// tracked patents in stable order when the list is empty.
func (p *Poller) resolveTargets(ctx context.Context, appNumbers []string) ([]string, error) {
	if len(appNumbers) > 0 {
		out := make([]string, 0, len(appNumbers))
		for _, n := range appNumbers {
			out = append(out, tracking.NormalizeApplicationNumber(n))
		}
		return out, nil
	}
	patents, err := p.patents.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(patents))
	for _, pt := range patents {
		out = append(out, pt.ApplicationNumber)
	}
	return out, nil
}

func refreshErrorLine(appNumber string, err error) string {
	return fmt.Sprintf("%s: %s", tracking.FormatApplicationNumber(appNumber),
		appErrors.DefaultMessageForCode(appErrors.GetCode(err)))
}
