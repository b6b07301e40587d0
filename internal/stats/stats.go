// Package stats contains rate calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/verte-zerg/wpmbar/internal/model"
)

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// Rate converts word and character counts observed over span into
// per-minute rates. A non-positive span yields zero.
func Rate(words, chars int, span time.Duration) (wpm, cpm int) {
	if span <= 0 {
		return 0, 0
	}
	minutes := span.Minutes()
	if minutes <= 0 {
		return 0, 0
	}
	return int(float64(words) / minutes), int(float64(chars) / minutes)
}

// MovingAverage returns the trailing mean of each value over at most
// window values. A window below 2 copies the input.
func MovingAverage(values []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	prefix := make([]float64, len(values)+1)
	for i, v := range values {
		prefix[i+1] = prefix[i] + v
	}
	out := make([]float64, len(values))
	for i := range values {
		lo := max(0, i+1-window)
		out[i] = (prefix[i+1] - prefix[lo]) / float64(i+1-lo)
	}
	return out
}

// Sparkline scales values between their minimum and maximum onto block
// levels, one cell per value. A flat series sits at the middle level.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	top := len(sparkLevels) - 1
	out := make([]rune, len(values))
	for i, v := range values {
		level := top / 2
		if hi-lo > 1e-9 {
			level = int(math.Round((v - lo) / (hi - lo) * float64(top)))
		}
		out[i] = sparkLevels[min(max(level, 0), top)]
	}
	return string(out)
}

// RenderReadings prints a table of sampling results relative to start.
func RenderReadings(w io.Writer, start time.Time, readings []model.Reading) error {
	if len(readings) == 0 {
		_, err := fmt.Fprintln(w, "No readings.")
		return err
	}
	cols := []column{
		{title: "Elapsed", right: true},
		{title: "State"},
		{title: "WPM", right: true},
		{title: "CPM", right: true},
	}
	rows := make([][]string, 0, len(readings))
	var rateCount, wpmSum, cpmSum int
	for _, r := range readings {
		elapsed := r.At.Sub(start).Round(time.Millisecond).String()
		switch r.Kind {
		case model.ReadingRate:
			rows = append(rows, []string{elapsed, "active", strconv.Itoa(r.WPM), strconv.Itoa(r.CPM)})
			rateCount++
			wpmSum += r.WPM
			cpmSum += r.CPM
		case model.ReadingIdle:
			rows = append(rows, []string{elapsed, "idle", placeholder, placeholder})
		}
	}
	for _, line := range renderTable(cols, rows) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if rateCount == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Avg WPM: %.1f  Avg CPM: %.1f\n",
		float64(wpmSum)/float64(rateCount), float64(cpmSum)/float64(rateCount))
	return err
}
