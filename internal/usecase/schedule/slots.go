// Package schedule implements the slot policy of the bot: the statically
// configured daily posting slots and the declarative hour-to-mode table
// that backs "auto" mode resolution. The package is pure policy: it knows
// nothing about cron or the scheduler runtime, which keeps every rule
// independently testable.
package schedule

import (
	"fmt"
	"strings"

	"trendpost/internal/domain/entity"
)

// Slot is one configured daily firing: a time of day plus a generation
// mode. Slots carry no persisted state; each firing is independent.
type Slot struct {
	Hour   int
	Minute int
	Mode   entity.Mode
}

// CronSpec renders the slot as a standard five-field cron expression.
func (s Slot) CronSpec() string {
	return fmt.Sprintf("%d %d * * *", s.Minute, s.Hour)
}

// String renders the slot in the configuration syntax, e.g. "19:00=digest".
func (s Slot) String() string {
	return fmt.Sprintf("%02d:%02d=%s", s.Hour, s.Minute, s.Mode)
}

// ParseSlots parses the slot configuration syntax: a comma-separated list
// of "HH:MM=mode" pairs, e.g. "19:00=digest,09:30=comment". Every entry
// must be valid; a single bad slot rejects the whole configuration, since
// silently dropping a posting slot is worse than failing at startup.
func ParseSlots(spec string) ([]Slot, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("slot configuration is empty")
	}

	parts := strings.Split(spec, ",")
	slots := make([]Slot, 0, len(parts))
	seen := make(map[string]bool, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		timePart, modePart, found := strings.Cut(part, "=")
		if !found {
			return nil, fmt.Errorf("invalid slot %q: expected HH:MM=mode", part)
		}

		var hour, minute int
		if _, err := fmt.Sscanf(timePart, "%d:%d", &hour, &minute); err != nil {
			return nil, fmt.Errorf("invalid slot time %q: %w", timePart, err)
		}
		if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
			return nil, fmt.Errorf("invalid slot time %q: out of range", timePart)
		}

		mode, err := entity.ParseMode(strings.TrimSpace(modePart))
		if err != nil {
			return nil, fmt.Errorf("invalid slot %q: %w", part, err)
		}

		slot := Slot{Hour: hour, Minute: minute, Mode: mode}
		key := fmt.Sprintf("%02d:%02d", hour, minute)
		if seen[key] {
			return nil, fmt.Errorf("duplicate slot time %q", key)
		}
		seen[key] = true

		slots = append(slots, slot)
	}

	return slots, nil
}
