package dateutil

import (
	"time"
)

// MonthsRemaining returns how many months of the year are still ahead at the
// given date, counting the current month. January returns 12, December 1.
func MonthsRemaining(at time.Time) int {
	return 12 - int(at.Month()) + 1
}
