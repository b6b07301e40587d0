// Package simulate drives a rate counter with a scripted typist.
package simulate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/wpmbar/internal/counter"
	"github.com/verte-zerg/wpmbar/internal/generator"
	"github.com/verte-zerg/wpmbar/internal/logging"
	"github.com/verte-zerg/wpmbar/internal/model"
	"github.com/verte-zerg/wpmbar/internal/wordlist"
)

// Recorder is a counter.Reporter that keeps every reading with its time.
type Recorder struct {
	now func() time.Time

	mu       sync.Mutex
	readings []model.Reading
}

// NewRecorder returns an empty recorder stamped with the wall clock.
func NewRecorder() *Recorder {
	return &Recorder{now: time.Now}
}

// ReportIdle implements counter.Reporter.
func (r *Recorder) ReportIdle() {
	r.add(model.Reading{Kind: model.ReadingIdle})
}

// ReportRate implements counter.Reporter.
func (r *Recorder) ReportRate(wpm, cpm int) {
	r.add(model.Reading{Kind: model.ReadingRate, WPM: wpm, CPM: cpm})
}

func (r *Recorder) add(reading model.Reading) {
	reading.At = r.now()
	r.mu.Lock()
	r.readings = append(r.readings, reading)
	r.mu.Unlock()
}

// Readings returns a copy of the readings so far.
func (r *Recorder) Readings() []model.Reading {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Reading(nil), r.readings...)
}

// MaxCPM is the fastest pace a Typist can keep: one character per nanosecond.
const MaxCPM = int64(time.Minute)

// Typist feeds characters to a counter at a steady pace.
type Typist struct {
	counter  *counter.Counter
	interval time.Duration
}

// NewTypist returns a typist typing cpm characters per minute.
func NewTypist(c *counter.Counter, cpm int) (*Typist, error) {
	if cpm <= 0 {
		return nil, fmt.Errorf("cpm must be > 0")
	}
	if int64(cpm) > MaxCPM {
		return nil, fmt.Errorf("cpm must be <= %d", MaxCPM)
	}
	return &Typist{counter: c, interval: time.Minute / time.Duration(cpm)}, nil
}

// Type records text one character per tick. It stops early when ctx is done.
func (t *Typist) Type(ctx context.Context, text string) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for _, r := range text {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		t.counter.RecordChar(r)
	}
	return nil
}

// Result holds the outcome of a scripted run.
type Result struct {
	StartedAt time.Time
	Text      string
	Readings  []model.Reading
}

// Run types generated text into a fresh counter, then waits until the
// counter has gone idle.
func Run(ctx context.Context, cfg model.SimulateConfig, counterCfg model.Config, log logrus.FieldLogger) (Result, error) {
	if cfg.Words <= 0 {
		return Result{}, fmt.Errorf("words must be > 0")
	}
	if log == nil {
		log = logging.Discard()
	}
	text := generator.New(cfg.Seed).Text(wordlist.Default(), cfg.Words, cfg.CapsPct, cfg.PunctPct)

	rec := NewRecorder()
	c := counter.New(rec, counterCfg, log)
	typist, err := NewTypist(c, cfg.CPM)
	if err != nil {
		return Result{}, err
	}

	result := Result{StartedAt: time.Now(), Text: text}
	c.Start(ctx)
	defer c.Stop()

	log.WithFields(logrus.Fields{
		"chars": len([]rune(text)),
		"cpm":   cfg.CPM,
	}).Info("typing")
	if err := typist.Type(ctx, text); err != nil {
		return result, fmt.Errorf("failed to type text: %w", err)
	}

	log.Info("waiting for idle")
	pollEvery := counterCfg.RefreshInterval
	if pollEvery < time.Millisecond {
		pollEvery = time.Millisecond
	}
	poll := time.NewTicker(pollEvery)
	defer poll.Stop()
	for c.Active() {
		select {
		case <-ctx.Done():
			return result, fmt.Errorf("failed to wait for idle: %w", ctx.Err())
		case <-poll.C:
		}
	}
	c.Stop()
	result.Readings = rec.Readings()
	return result, nil
}
