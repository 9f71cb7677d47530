package content

import (
	"fmt"
	"strconv"
	"time"
)

// Version labels are informational but their textual shape is consumed
// downstream: drafts are "draft.<n>" with n from the per-property counter,
// published versions "v.<suffix>" and restored drafts "r.<suffix>" where
// the suffix is the last 8 digits of the epoch-millisecond timestamp.

func draftLabel(seq uint64) string {
	return fmt.Sprintf("draft.%d", seq)
}

func publishLabel(now time.Time) string {
	return "v." + timestampSuffix(now)
}

func restoreLabel(now time.Time) string {
	return "r." + timestampSuffix(now)
}

func timestampSuffix(now time.Time) string {
	s := strconv.FormatInt(now.UnixMilli(), 10)
	if len(s) > 8 {
		s = s[len(s)-8:]
	}
	return s
}
