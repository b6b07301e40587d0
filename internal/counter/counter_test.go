package counter

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/verte-zerg/wpmbar/internal/model"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

type report struct {
	idle bool
	wpm  int
	cpm  int
}

type recorder struct {
	mu      sync.Mutex
	reports []report
}

func (r *recorder) ReportIdle() {
	r.mu.Lock()
	r.reports = append(r.reports, report{idle: true})
	r.mu.Unlock()
}

func (r *recorder) ReportRate(wpm, cpm int) {
	r.mu.Lock()
	r.reports = append(r.reports, report{wpm: wpm, cpm: cpm})
	r.mu.Unlock()
}

func (r *recorder) snapshot() []report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]report(nil), r.reports...)
}

func newTestCounter(cfg model.Config) (*Counter, *fakeClock, *recorder) {
	clk := &fakeClock{t: time.Unix(1000, 0)}
	rec := &recorder{}
	c := New(rec, cfg, nil)
	c.now = clk.Now
	return c, clk, rec
}

func recordString(c *Counter, s string) {
	for _, r := range s {
		c.RecordChar(r)
	}
}

func TestRecordCharNonSpaceHasNoBoundary(t *testing.T) {
	for _, n := range []int{1, 5, 42} {
		c, _, _ := newTestCounter(model.Config{StopDelay: time.Second, RefreshInterval: time.Second})
		recordString(c, strings.Repeat("x", n))
		words, chars := c.Counts()
		if chars != n || words != 0 {
			t.Fatalf("n=%d: expected 0 words/%d chars, got %d/%d", n, n, words, chars)
		}
	}
}

func TestWhitespaceRunCountsOneWord(t *testing.T) {
	runs := []string{" ", "  ", "\t", " \t\n", "\n\n\n\n\n"}
	for _, run := range runs {
		c, _, _ := newTestCounter(model.Config{StopDelay: time.Second, RefreshInterval: time.Second})
		recordString(c, "word"+run)
		words, chars := c.Counts()
		if words != 1 {
			t.Fatalf("run %q: expected 1 word, got %d", run, words)
		}
		if chars != 4+len([]rune(run)) {
			t.Fatalf("run %q: expected %d chars, got %d", run, 4+len([]rune(run)), chars)
		}
	}
}

func TestSampleBeforeActivityReportsNothing(t *testing.T) {
	c, clk, rec := newTestCounter(model.Config{StopDelay: time.Second, RefreshInterval: time.Second})
	clk.Advance(5 * time.Second)
	if got := c.Sample(); got.Kind != model.ReadingNone {
		t.Fatalf("expected no reading, got %+v", got)
	}
	if len(rec.snapshot()) != 0 {
		t.Fatalf("expected no reports, got %+v", rec.snapshot())
	}
}

func TestHelloWorldThenIdle(t *testing.T) {
	c, clk, rec := newTestCounter(model.Config{
		StopDelay:       2 * time.Second,
		RefreshInterval: time.Second,
		Policy:          model.PolicySession,
	})
	recordString(c, "hello world")
	words, chars := c.Counts()
	if words != 1 || chars != 11 {
		t.Fatalf("expected 1 word/11 chars, got %d/%d", words, chars)
	}

	var readings []model.Reading
	for i := 0; i < 4; i++ {
		clk.Advance(time.Second)
		readings = append(readings, c.Sample())
	}

	if readings[0].Kind != model.ReadingRate || readings[0].WPM != 60 || readings[0].CPM != 660 {
		t.Fatalf("unexpected first reading: %+v", readings[0])
	}
	// Exactly at the stop delay the counter is still active.
	if readings[1].Kind != model.ReadingRate || readings[1].WPM != 30 || readings[1].CPM != 330 {
		t.Fatalf("unexpected second reading: %+v", readings[1])
	}
	if readings[2].Kind != model.ReadingIdle {
		t.Fatalf("expected idle after 3s, got %+v", readings[2])
	}
	if readings[3].Kind != model.ReadingNone {
		t.Fatalf("expected nothing once idle, got %+v", readings[3])
	}

	want := []report{{wpm: 60, cpm: 660}, {wpm: 30, cpm: 330}, {idle: true}}
	got := rec.snapshot()
	if len(got) != len(want) {
		t.Fatalf("expected %d reports, got %+v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("report %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
	if c.Active() {
		t.Fatalf("expected counter to be inactive")
	}
}

func TestRateImmediatelyAfterActivation(t *testing.T) {
	for _, policy := range []model.RatePolicy{model.PolicySession, model.PolicyWindow} {
		c, _, _ := newTestCounter(model.Config{StopDelay: time.Second, RefreshInterval: time.Second, Policy: policy})
		c.RecordChar('a')
		got := c.Sample()
		if got.Kind != model.ReadingRate {
			t.Fatalf("%s: expected a rate, got %+v", policy, got)
		}
		if got.WPM < 0 || got.CPM < 0 {
			t.Fatalf("%s: expected non-negative rate, got %+v", policy, got)
		}
	}
}

func TestSessionPolicyZeroElapsedIsZeroRate(t *testing.T) {
	c, _, _ := newTestCounter(model.Config{StopDelay: time.Second, RefreshInterval: time.Second})
	recordString(c, "ab ")
	got := c.Sample()
	if got.WPM != 0 || got.CPM != 0 {
		t.Fatalf("expected zero rate with no elapsed time, got %+v", got)
	}
}

func TestActivationResetsCounts(t *testing.T) {
	c, clk, _ := newTestCounter(model.Config{StopDelay: time.Second, RefreshInterval: time.Second})
	recordString(c, "one two ")
	clk.Advance(2 * time.Second)
	if got := c.Sample(); got.Kind != model.ReadingIdle {
		t.Fatalf("expected idle, got %+v", got)
	}
	words, chars := c.Counts()
	if words != 2 || chars != 8 {
		t.Fatalf("idle should keep counts, got %d/%d", words, chars)
	}

	c.RecordChar('x')
	words, chars = c.Counts()
	if words != 0 || chars != 1 {
		t.Fatalf("expected fresh counts after reactivation, got %d/%d", words, chars)
	}
	clk.Advance(time.Second)
	got := c.Sample()
	if got.Kind != model.ReadingRate || got.CPM != 60 {
		t.Fatalf("expected rate measured from reactivation, got %+v", got)
	}
}

func TestWindowPolicySteadyTyping(t *testing.T) {
	c, clk, _ := newTestCounter(model.Config{
		StopDelay:       2 * time.Second,
		RefreshInterval: time.Second,
		Policy:          model.PolicyWindow,
	})
	text := strings.Repeat("abcde ", 10)
	var wpmSum int
	for i, r := range text {
		clk.Advance(time.Second)
		c.RecordChar(r)
		got := c.Sample()
		if got.Kind != model.ReadingRate {
			t.Fatalf("cycle %d: expected rate, got %+v", i, got)
		}
		if got.CPM != 60 {
			t.Fatalf("cycle %d: expected 60 cpm, got %d", i, got.CPM)
		}
		wpmSum += got.WPM
		if words, chars := c.Counts(); words != 0 || chars != 0 {
			t.Fatalf("cycle %d: window counts not cleared: %d/%d", i, words, chars)
		}
	}
	if avg := wpmSum / len(text); avg != 10 {
		t.Fatalf("expected average 10 wpm, got %d", avg)
	}
}

func TestSessionPolicySteadyTyping(t *testing.T) {
	c, clk, _ := newTestCounter(model.Config{
		StopDelay:       2 * time.Second,
		RefreshInterval: time.Second,
		Policy:          model.PolicySession,
	})
	text := strings.Repeat("abcde ", 10)
	var last model.Reading
	for _, r := range text {
		c.RecordChar(r)
		clk.Advance(time.Second)
		last = c.Sample()
	}
	if last.CPM != 60 || last.WPM != 10 {
		t.Fatalf("expected 10 wpm/60 cpm over a minute, got %+v", last)
	}
}

func TestSettersOnlyAffectFutureCycles(t *testing.T) {
	c, clk, rec := newTestCounter(model.Config{
		StopDelay:       5 * time.Second,
		RefreshInterval: time.Second,
		Policy:          model.PolicyWindow,
	})
	recordString(c, "ab")
	clk.Advance(time.Second)
	first := c.Sample()
	if first.CPM != 120 {
		t.Fatalf("expected 120 cpm, got %+v", first)
	}

	c.SetRefreshInterval(2 * time.Second)
	recordString(c, "ab")
	clk.Advance(2 * time.Second)
	second := c.Sample()
	if second.CPM != 60 {
		t.Fatalf("expected 60 cpm over the new window, got %+v", second)
	}
	if first.CPM != 120 || rec.snapshot()[0].cpm != 120 {
		t.Fatalf("earlier reading changed: %+v %+v", first, rec.snapshot()[0])
	}

	c.SetStopDelay(500 * time.Millisecond)
	clk.Advance(time.Second)
	if got := c.Sample(); got.Kind != model.ReadingIdle {
		t.Fatalf("expected idle with shorter stop delay, got %+v", got)
	}
}

func TestSetPolicy(t *testing.T) {
	c, clk, _ := newTestCounter(model.Config{StopDelay: 5 * time.Second, RefreshInterval: time.Second})
	c.SetPolicy("bogus")
	c.SetPolicy(model.PolicyWindow)
	recordString(c, "abc")
	clk.Advance(time.Second)
	c.Sample()
	if _, chars := c.Counts(); chars != 0 {
		t.Fatalf("expected window policy to clear counts, got %d chars", chars)
	}
}

func TestNewDefaults(t *testing.T) {
	c := New(&recorder{}, model.Config{Policy: "nope"}, nil)
	if c.policy != model.PolicySession {
		t.Fatalf("expected session policy fallback, got %q", c.policy)
	}
	if c.stopDelay != minInterval || c.refresh != minInterval {
		t.Fatalf("expected clamped intervals, got %v/%v", c.stopDelay, c.refresh)
	}
	c.SetRefreshInterval(-time.Second)
	c.SetStopDelay(0)
	if c.refreshInterval() != minInterval || c.stopDelay != minInterval {
		t.Fatalf("expected setters to clamp")
	}
}

func TestConcurrentRecordAndSample(t *testing.T) {
	c, clk, _ := newTestCounter(model.Config{StopDelay: time.Hour, RefreshInterval: time.Second})
	const writers = 4
	const perWriter = 999

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			recordString(c, strings.Repeat("ab ", perWriter/3))
		}()
	}
	stop := make(chan struct{})
	sampled := make(chan struct{})
	go func() {
		defer close(sampled)
		for {
			select {
			case <-stop:
				return
			default:
			}
			clk.Advance(time.Millisecond)
			got := c.Sample()
			if got.WPM > got.CPM {
				t.Errorf("wpm exceeds cpm: %+v", got)
			}
			if words, chars := c.Counts(); words > chars {
				t.Errorf("words exceed chars: %d/%d", words, chars)
			}
		}
	}()
	wg.Wait()
	close(stop)
	<-sampled

	words, chars := c.Counts()
	if chars != writers*perWriter {
		t.Fatalf("expected %d chars, got %d", writers*perWriter, chars)
	}
	if words == 0 || words > chars {
		t.Fatalf("unexpected word count %d", words)
	}
}

type chanReporter struct {
	ch chan report
}

func (r chanReporter) ReportIdle() {
	select {
	case r.ch <- report{idle: true}:
	default:
	}
}

func (r chanReporter) ReportRate(wpm, cpm int) {
	select {
	case r.ch <- report{wpm: wpm, cpm: cpm}:
	default:
	}
}

func TestStartReportsRateThenIdle(t *testing.T) {
	rep := chanReporter{ch: make(chan report, 256)}
	c := New(rep, model.Config{
		StopDelay:       50 * time.Millisecond,
		RefreshInterval: 5 * time.Millisecond,
	}, nil)
	c.Start(context.Background())
	defer c.Stop()
	c.Start(context.Background())

	recordString(c, "hello world")

	deadline := time.After(5 * time.Second)
	sawRate := false
	for {
		select {
		case r := <-rep.ch:
			if r.idle {
				if !sawRate {
					t.Fatalf("idle reported before any rate")
				}
				return
			}
			if r.wpm < 0 || r.cpm < 0 {
				t.Fatalf("negative rate: %+v", r)
			}
			sawRate = true
		case <-deadline:
			t.Fatalf("timed out waiting for idle (saw rate: %v)", sawRate)
		}
	}
}

func TestStopHaltsSampler(t *testing.T) {
	rep := chanReporter{ch: make(chan report, 256)}
	c := New(rep, model.Config{StopDelay: time.Hour, RefreshInterval: time.Millisecond}, nil)
	c.Start(context.Background())
	c.RecordChar('a')
	select {
	case <-rep.ch:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for first report")
	}
	c.Stop()
	c.Stop()

	for len(rep.ch) > 0 {
		<-rep.ch
	}
	time.Sleep(20 * time.Millisecond)
	if n := len(rep.ch); n != 0 {
		t.Fatalf("expected no reports after Stop, got %d", n)
	}
}

func TestContextCancelEndsSampler(t *testing.T) {
	rep := chanReporter{ch: make(chan report, 256)}
	c := New(rep, model.Config{StopDelay: time.Hour, RefreshInterval: time.Millisecond}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)

	c.runMu.Lock()
	done := c.done
	c.runMu.Unlock()
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("sampler did not exit after cancel")
	}

	c.runMu.Lock()
	cleared := c.done == nil && c.cancel == nil
	c.runMu.Unlock()
	if !cleared {
		t.Fatalf("expected run state to be cleared after the sampler exited")
	}
	for len(rep.ch) > 0 {
		<-rep.ch
	}

	c.Start(context.Background())
	defer c.Stop()
	c.RecordChar('a')
	select {
	case r := <-rep.ch:
		if r.idle {
			t.Fatalf("expected a rate from the restarted sampler, got idle")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("restarted sampler did not report")
	}
}
