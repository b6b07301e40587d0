// Package counter tracks typing activity and periodically reports a
// words-per-minute / characters-per-minute rate, or idle once input stops.
package counter

import (
	"context"
	"sync"
	"time"
	"unicode"

	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/wpmbar/internal/logging"
	"github.com/verte-zerg/wpmbar/internal/model"
	"github.com/verte-zerg/wpmbar/internal/stats"
)

const minInterval = time.Millisecond

// Reporter is the status display fed by the sampler. Calls arrive on the
// sampler goroutine with no counter lock held.
type Reporter interface {
	ReportIdle()
	ReportRate(wpm, cpm int)
}

// Counter accumulates typed characters and word boundaries. RecordChar may
// be called from any goroutine while the sampler runs.
type Counter struct {
	reporter Reporter
	log      logrus.FieldLogger
	now      func() time.Time

	mu               sync.Mutex
	words            int
	chars            int
	lastCharWasSpace bool
	active           bool
	startedAt        time.Time
	lastActivity     time.Time
	stopDelay        time.Duration
	refresh          time.Duration
	policy           model.RatePolicy

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New constructs an idle counter. The sampler is not started; call Start.
func New(reporter Reporter, cfg model.Config, log logrus.FieldLogger) *Counter {
	if log == nil {
		log = logging.Discard()
	}
	policy := cfg.Policy
	if !policy.Valid() {
		policy = model.PolicySession
	}
	return &Counter{
		reporter:  reporter,
		log:       log,
		now:       time.Now,
		stopDelay: clampInterval(cfg.StopDelay),
		refresh:   clampInterval(cfg.RefreshInterval),
		policy:    policy,
	}
}

// RecordChar counts one typed character. A whitespace character that
// follows a non-whitespace one closes a word; whitespace runs count once.
func (c *Counter) RecordChar(r rune) {
	now := c.now()
	isSpace := unicode.IsSpace(r)

	c.mu.Lock()
	activated := !c.active
	if activated {
		c.words = 0
		c.chars = 0
		c.startedAt = now
	}
	c.chars++
	if isSpace && !c.lastCharWasSpace {
		c.words++
	}
	c.lastCharWasSpace = isSpace
	c.lastActivity = now
	c.active = true
	c.mu.Unlock()

	if activated {
		c.log.Debug("typing started")
	}
}

// SetStopDelay sets how long input may pause before the counter goes idle.
func (c *Counter) SetStopDelay(d time.Duration) {
	c.mu.Lock()
	c.stopDelay = clampInterval(d)
	c.mu.Unlock()
}

// SetRefreshInterval sets the sampling period. The running sampler picks it
// up when it next arms its timer.
func (c *Counter) SetRefreshInterval(d time.Duration) {
	c.mu.Lock()
	c.refresh = clampInterval(d)
	c.mu.Unlock()
}

// SetPolicy switches the rate computation. Unknown policies are ignored.
func (c *Counter) SetPolicy(p model.RatePolicy) {
	if !p.Valid() {
		return
	}
	c.mu.Lock()
	c.policy = p
	c.mu.Unlock()
}

// Counts returns the words and characters accumulated so far.
func (c *Counter) Counts() (words, chars int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.words, c.chars
}

// Active reports whether typing has been seen since the last idle report.
func (c *Counter) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Sample runs one sampling cycle now, treating the current refresh interval
// as the elapsed window.
func (c *Counter) Sample() model.Reading {
	return c.sample(c.refreshInterval())
}

// Start launches the sampler. It runs until Stop is called or ctx is done;
// once it has exited either way, Start may launch it again. Starting a
// running counter is a no-op.
func (c *Counter) Start(ctx context.Context) {
	c.runMu.Lock()
	defer c.runMu.Unlock()
	if c.done != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	go c.run(ctx, cancel, c.done)
}

// Stop halts the sampler and waits for it to exit. No report is delivered
// after Stop returns.
func (c *Counter) Stop() {
	c.runMu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.runMu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (c *Counter) run(ctx context.Context, cancel context.CancelFunc, done chan struct{}) {
	defer func() {
		c.runMu.Lock()
		if c.done == done {
			c.cancel, c.done = nil, nil
		}
		c.runMu.Unlock()
		cancel()
		close(done)
	}()
	for {
		window := c.refreshInterval()
		timer := time.NewTimer(window)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		c.sample(window)
	}
}

// sample is the only place where the counter leaves the active state.
func (c *Counter) sample(window time.Duration) model.Reading {
	now := c.now()

	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return model.Reading{Kind: model.ReadingNone, At: now}
	}
	if idleFor := now.Sub(c.lastActivity); idleFor > c.stopDelay {
		c.active = false
		c.mu.Unlock()
		c.log.WithField("idleFor", idleFor).Debug("typing stopped")
		c.reporter.ReportIdle()
		return model.Reading{Kind: model.ReadingIdle, At: now}
	}
	var wpm, cpm int
	switch c.policy {
	case model.PolicyWindow:
		wpm, cpm = stats.Rate(c.words, c.chars, window)
		c.words = 0
		c.chars = 0
	default:
		wpm, cpm = stats.Rate(c.words, c.chars, now.Sub(c.startedAt))
	}
	c.mu.Unlock()

	c.reporter.ReportRate(wpm, cpm)
	return model.Reading{Kind: model.ReadingRate, At: now, WPM: wpm, CPM: cpm}
}

func (c *Counter) refreshInterval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refresh
}

func clampInterval(d time.Duration) time.Duration {
	if d < minInterval {
		return minInterval
	}
	return d
}
