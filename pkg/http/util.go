package http

import (
	"time"

	xutil "FolioPull/pkg/util"
)

// ParseTime tries RFC3339, RFC3339Nano, a plain date and unix seconds.
func ParseTime(s string) (time.Time, bool) { return xutil.ParseTime(s) }
