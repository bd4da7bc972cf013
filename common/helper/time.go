package helper

import (
	"time"
)

// CalcElapsedSeconds returns the elapsed time rounded to whole seconds, for log fields.
func CalcElapsedSeconds(start, now time.Time) int64 {
	return int64(now.Sub(start).Round(time.Second) / time.Second)
}
