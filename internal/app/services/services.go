package services

import (
	"time"

	"github.com/yigit/ebdashboard/internal/pkg/helpers"
)

// Clock returns the current time. Services take one so tests can pin it.
type Clock func() time.Time

// SystemClock is the wall clock in UTC
func SystemClock() time.Time {
	return time.Now().UTC()
}

// DefaultStatsWindow is how far back "recent" approvals are counted
const DefaultStatsWindow = 30 * 24 * time.Hour

// normalizePage applies the default page and page size
func normalizePage(page, size int) (int, int) {
	_, size = helpers.CalculateOffsetLimit(page, size)
	if page < 1 {
		page = helpers.DefaultPage
	}
	return page, size
}
