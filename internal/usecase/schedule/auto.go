package schedule

import "trendpost/internal/domain/entity"

// hourRange maps a half-open hour interval [Start, End) onto a mode.
// The table is intentionally sparse: hours no range covers fall through
// to the fallback rule, which preserves the legacy morning/evening split
// without the table having to enumerate every hour.
type hourRange struct {
	Start int
	End   int
	Mode  entity.Mode
}

// autoModeTable is the declarative hour-to-mode policy for "auto" slots.
// Mornings produce digests, evenings produce comments; the afternoon gap
// is deliberately unmapped and resolved by the fallback.
var autoModeTable = []hourRange{
	{Start: 0, End: 12, Mode: entity.ModeDigest},
	{Start: 18, End: 24, Mode: entity.ModeComment},
}

// ResolveAuto maps an hour of day (0-23, in the scheduler's timezone)
// onto a generation mode. Hours covered by autoModeTable use the table;
// unmapped hours fall back to digest before noon and comment otherwise.
func ResolveAuto(hour int) entity.Mode {
	for _, r := range autoModeTable {
		if hour >= r.Start && hour < r.End {
			return r.Mode
		}
	}
	if hour < 12 {
		return entity.ModeDigest
	}
	return entity.ModeComment
}
