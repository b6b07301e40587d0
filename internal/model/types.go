// Package model defines shared data structures.
package model

import "time"

// RatePolicy selects how a rate is derived from the accumulated counts.
type RatePolicy string

const (
	// PolicySession divides the counts by the time elapsed since typing
	// resumed. Counts persist until the next idle period.
	PolicySession RatePolicy = "session"
	// PolicyWindow divides the counts by the refresh interval and clears
	// them every cycle.
	PolicyWindow RatePolicy = "window"
)

// Valid reports whether p is a known policy.
func (p RatePolicy) Valid() bool {
	return p == PolicySession || p == PolicyWindow
}

// Config defines counter settings.
type Config struct {
	StopDelay       time.Duration
	RefreshInterval time.Duration
	Policy          RatePolicy
}

// SimulateConfig defines settings for a scripted typing run.
type SimulateConfig struct {
	CPM      int
	Words    int
	CapsPct  float64
	PunctPct float64
	Seed     int64
}

// ReadingKind tells what a sampling cycle produced.
type ReadingKind int

const (
	// ReadingNone means the counter was already idle and nothing was reported.
	ReadingNone ReadingKind = iota
	// ReadingIdle means the counter just went idle.
	ReadingIdle
	// ReadingRate means a rate was reported.
	ReadingRate
)

// Reading is the outcome of one sampling cycle.
type Reading struct {
	Kind ReadingKind
	At   time.Time
	WPM  int
	CPM  int
}
