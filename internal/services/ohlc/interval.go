package ohlc

import (
	"time"

	"FolioPull/internal/domain/models"
)

// Intervals are the candle widths the exchange serves, in minutes, ascending.
var Intervals = []int{1, 5, 15, 30, 60, 240, 1440, 10080, 21600}

// TargetCandles is the series length interval selection aims for.
const TargetCandles = 720

// SelectInterval picks the smallest interval yielding at most TargetCandles
// candles over the tenure, or the widest interval when none does.
func SelectInterval(t models.Tenure) int {
	need := float64(t.Minutes()) / TargetCandles
	for _, i := range Intervals {
		if float64(i) >= need {
			return i
		}
	}
	return Intervals[len(Intervals)-1]
}

// Since returns the window start in Unix seconds for a tenure ending at now.
func Since(now time.Time, t models.Tenure) int64 {
	return now.Unix() - int64(t.Minutes())*60
}
