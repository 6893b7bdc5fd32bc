package poller

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uspto-tools/pairwatch/internal/application/refresh"
	"github.com/uspto-tools/pairwatch/internal/config"
	"github.com/uspto-tools/pairwatch/internal/domain/tracking"
	"github.com/uspto-tools/pairwatch/internal/infrastructure/database/sqlite"
	"github.com/uspto-tools/pairwatch/internal/infrastructure/database/sqlite/repositories"
	"github.com/uspto-tools/pairwatch/internal/infrastructure/monitoring/logging"
	appErrors "github.com/uspto-tools/pairwatch/pkg/errors"
)

// scriptedRefresher pops one canned outcome per call for each application.
type scriptedRefresher struct {
	script map[string][]refreshOutcome
	calls  []string
	block  chan struct{}
}

type refreshOutcome struct {
	result *refresh.Result
	err    error
}

func (s *scriptedRefresher) RefreshPatent(_ context.Context, appNumber string) (*refresh.Result, error) {
	if s.block != nil {
		<-s.block
	}
	s.calls = append(s.calls, appNumber)
	outcomes := s.script[appNumber]
	if len(outcomes) == 0 {
		return &refresh.Result{ApplicationNumber: appNumber}, nil
	}
	out := outcomes[0]
	s.script[appNumber] = outcomes[1:]
	return out.result, out.err
}

func testPollerConfig() config.PollerConfig {
	return config.PollerConfig{
		Interval:    24 * time.Hour,
		Pacing:      0,
		BackoffBase: 2 * time.Second,
		BackoffMax:  60 * time.Second,
		Enabled:     true,
	}
}

func newPollerFixture(t *testing.T, refresher Refresher, apps ...string) (*Poller, tracking.SettingsRepository) {
	t.Helper()
	db, err := sqlite.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close(db) })

	log := logging.NewNopLogger()
	patents := repositories.NewPatentRepository(db, log)
	settings := repositories.NewSettingsRepository(db, log)
	for _, app := range apps {
		_, err := patents.Add(context.Background(), app)
		require.NoError(t, err)
	}
	return New(refresher, patents, settings, testPollerConfig(), log, nil, nil), settings
}

func TestPoller_CycleWalksAllTrackedPatents(t *testing.T) {
	r := &scriptedRefresher{script: map[string][]refreshOutcome{
		"17940142": {{result: &refresh.Result{ApplicationNumber: "17940142", NewEventCount: 2}}},
	}}
	p, settings := newPollerFixture(t, r, "17940142", "16555000")

	summary, err := p.RunCycleNow(context.Background())
	require.NoError(t, err)

	// Stable application-number order.
	assert.Equal(t, []string{"16555000", "17940142"}, r.calls)
	assert.Equal(t, 2, summary.PatentsChecked)
	assert.Equal(t, 1, summary.PatentsUpdated)
	assert.Zero(t, summary.PatentsFailed)
	assert.Equal(t, 2, summary.NewEvents)
	assert.False(t, summary.Aborted)

	// The cycle recorded its completion time.
	lastPoll, err := settings.Get(context.Background(), tracking.SettingLastPoll)
	require.NoError(t, err)
	_, err = time.Parse(time.RFC3339, lastPoll)
	require.NoError(t, err)
}

func TestPoller_ExplicitTargetsAreNormalized(t *testing.T) {
	r := &scriptedRefresher{script: map[string][]refreshOutcome{}}
	p, _ := newPollerFixture(t, r, "17940142", "16555000")

	summary, err := p.RunCycleNow(context.Background(), "17/940,142")
	require.NoError(t, err)
	assert.Equal(t, []string{"17940142"}, r.calls)
	assert.Equal(t, 1, summary.PatentsChecked)
}

func TestPoller_FailedPatentDoesNotStopCycle(t *testing.T) {
	r := &scriptedRefresher{script: map[string][]refreshOutcome{
		"16555000": {{
			result: &refresh.Result{ApplicationNumber: "16555000"},
			err:    appErrors.New(appErrors.CodeSourceUnavailable, "USPTO API is unavailable"),
		}},
	}}
	p, _ := newPollerFixture(t, r, "17940142", "16555000")

	summary, err := p.RunCycleNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"16555000", "17940142"}, r.calls)
	assert.Equal(t, 1, summary.PatentsFailed)
	assert.False(t, summary.Aborted)
	require.Len(t, summary.Errors, 1)
	// Sanitized classification, not raw upstream text.
	assert.Contains(t, summary.Errors[0], "16/555,000")
}

func TestPoller_FatalAbortsCycle(t *testing.T) {
	authErr := appErrors.New(appErrors.CodeSourceAuth, "USPTO API rejected the API key")
	r := &scriptedRefresher{script: map[string][]refreshOutcome{
		"16555000": {{
			result: &refresh.Result{ApplicationNumber: "16555000", Fatal: true},
			err:    authErr,
		}},
	}}
	p, _ := newPollerFixture(t, r, "17940142", "16555000")

	summary, err := p.RunCycleNow(context.Background())
	require.NoError(t, err)
	assert.True(t, summary.Aborted)
	assert.Equal(t, 1, summary.PatentsFailed)
	// The second patent was never attempted.
	assert.Equal(t, []string{"16555000"}, r.calls)
}

func TestPoller_RateLimitBackoffAndSingleRetry(t *testing.T) {
	rateErr := appErrors.New(appErrors.CodeSourceRateLimited, "USPTO API rate limit exceeded")
	r := &scriptedRefresher{script: map[string][]refreshOutcome{
		"16555000": {
			{result: nil, err: rateErr},
			{result: &refresh.Result{ApplicationNumber: "16555000", NewEventCount: 1}},
		},
		"17940142": {
			{result: nil, err: rateErr},
			{result: nil, err: rateErr},
		},
	}}
	p, _ := newPollerFixture(t, r, "17940142", "16555000")

	var slept []time.Duration
	p.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	summary, err := p.RunCycleNow(context.Background())
	require.NoError(t, err)

	// First patent: one backoff then a successful retry.  Second patent:
	// grown backoff, retry also rate limited, patent fails, cycle ends.
	assert.Equal(t, []string{"16555000", "16555000", "17940142", "17940142"}, r.calls)
	require.Len(t, slept, 2)
	assert.Equal(t, 2*time.Second, slept[0])
	assert.Equal(t, 4*time.Second, slept[1])

	assert.Equal(t, 1, summary.PatentsUpdated)
	assert.Equal(t, 1, summary.PatentsFailed)
	assert.False(t, summary.Aborted)
}

func TestPoller_BackoffIsCapped(t *testing.T) {
	assert.Equal(t, 2*time.Second, backoffDelay(2*time.Second, time.Minute, 0))
	assert.Equal(t, 16*time.Second, backoffDelay(2*time.Second, time.Minute, 3))
	assert.Equal(t, time.Minute, backoffDelay(2*time.Second, time.Minute, 10))
	assert.Equal(t, time.Minute, backoffDelay(2*time.Second, time.Minute, 63))
}

func TestPoller_ConcurrentCycleCollapses(t *testing.T) {
	r := &scriptedRefresher{
		script: map[string][]refreshOutcome{},
		block:  make(chan struct{}),
	}
	p, _ := newPollerFixture(t, r, "17940142")

	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		close(started)
		_, _ = p.RunCycleNow(context.Background())
		close(done)
	}()

	<-started
	// Wait for the cycle to claim the slot (it blocks inside the refresher).
	require.Eventually(t, func() bool { return p.Status() == StatusPolling },
		time.Second, time.Millisecond)

	// A second synchronous cycle is rejected, and an async trigger while
	// polling reports collapsed rather than queueing.
	_, err := p.RunCycleNow(context.Background())
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.CodeConflict))
	assert.False(t, p.RefreshNow())

	close(r.block)
	<-done
	assert.Equal(t, StatusIdle, p.Status())
	assert.NotNil(t, p.LastCycle())
}

func TestPoller_TriggerRacingCycleStartIsDropped(t *testing.T) {
	r := &scriptedRefresher{script: map[string][]refreshOutcome{}}
	p, _ := newPollerFixture(t, r, "17940142")

	// A refresh request lands in the buffer just as the timer fires.  The
	// cycle it raced must absorb it instead of leaving it queued for a
	// back-to-back second run.
	p.trigger <- nil

	summary, err := p.RunCycleNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.PatentsChecked)
	assert.Empty(t, p.trigger)
}

func TestPoller_ReconfigureUpdatesSchedule(t *testing.T) {
	p, _ := newPollerFixture(t, &scriptedRefresher{script: map[string][]refreshOutcome{}})
	ctx := context.Background()

	assert.Equal(t, 24*time.Hour, p.Interval(ctx))

	cfg := testPollerConfig()
	cfg.Interval = 12 * time.Hour
	p.Reconfigure(cfg)

	assert.Equal(t, 12*time.Hour, p.Interval(ctx))
	// The loop is woken so the shorter interval takes effect immediately.
	assert.Len(t, p.reloaded, 1)

	// A persisted interval setting still wins over the configured default.
	require.NoError(t, p.SetInterval(ctx, 6*time.Hour))
	assert.Equal(t, 6*time.Hour, p.Interval(ctx))
}

func TestPoller_IntervalFromSettingsOverridesConfig(t *testing.T) {
	p, settings := newPollerFixture(t, &scriptedRefresher{script: map[string][]refreshOutcome{}})
	ctx := context.Background()

	assert.Equal(t, 24*time.Hour, p.Interval(ctx))

	require.NoError(t, p.SetInterval(ctx, 6*time.Hour))
	assert.Equal(t, 6*time.Hour, p.Interval(ctx))

	stored, err := settings.Get(ctx, tracking.SettingPollInterval)
	require.NoError(t, err)
	assert.Equal(t, "6h0m0s", stored)

	// A garbage stored value falls back to the configured default.
	require.NoError(t, settings.Set(ctx, tracking.SettingPollInterval, "not-a-duration"))
	assert.Equal(t, 24*time.Hour, p.Interval(ctx))
}

func TestPoller_SetIntervalBounds(t *testing.T) {
	p, _ := newPollerFixture(t, &scriptedRefresher{script: map[string][]refreshOutcome{}})

	err := p.SetInterval(context.Background(), 30*time.Minute)
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.CodeInvalidParam))

	err = p.SetInterval(context.Background(), 200*time.Hour)
	require.Error(t, err)
}

func TestPoller_RunStopsOnContextCancel(t *testing.T) {
	p, _ := newPollerFixture(t, &scriptedRefresher{script: map[string][]refreshOutcome{}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop on cancellation")
	}
}

func TestPoller_RunExecutesTrigger(t *testing.T) {
	r := &scriptedRefresher{script: map[string][]refreshOutcome{
		"17940142": {{result: &refresh.Result{ApplicationNumber: "17940142", NewEventCount: 1}}},
	}}

	cycles := make(chan CycleSummary, 1)
	db, err := sqlite.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close(db) })
	log := logging.NewNopLogger()
	patents := repositories.NewPatentRepository(db, log)
	settings := repositories.NewSettingsRepository(db, log)
	_, err = patents.Add(context.Background(), "17940142")
	require.NoError(t, err)

	p := New(r, patents, settings, testPollerConfig(), log, nil, func(c CycleSummary) {
		cycles <- c
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	require.True(t, p.RefreshNow("17940142"))

	select {
	case c := <-cycles:
		assert.Equal(t, 1, c.NewEvents)
		assert.Equal(t, 1, c.PatentsChecked)
	case <-time.After(2 * time.Second):
		t.Fatal("triggered cycle did not complete")
	}
}
