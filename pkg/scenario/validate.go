package scenario

import (
	"fmt"
	"strings"
)

// ValidationError describes one problem in a set of snapshots.
type ValidationError struct {
	SnapshotID string
	Field      string
	Message    string
}

func (e ValidationError) Error() string {
	if e.SnapshotID == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("snapshot %s: %s: %s", e.SnapshotID, e.Field, e.Message)
}

// Validate checks a full set of snapshots and returns every problem found,
// not just the first.
func Validate(snaps []Snapshot) []ValidationError {
	var errs []ValidationError
	ids := make(map[string]bool, len(snaps))
	names := make(map[string]bool, len(snaps))

	for i, s := range snaps {
		id := s.ID
		if strings.TrimSpace(id) == "" {
			errs = append(errs, ValidationError{Field: "id", Message: fmt.Sprintf("snapshot #%d has no id", i)})
			continue
		}
		if ids[id] {
			errs = append(errs, ValidationError{SnapshotID: id, Field: "id", Message: "duplicate id"})
		}
		ids[id] = true

		key := nameKey(s.Name)
		switch {
		case key == "":
			errs = append(errs, ValidationError{SnapshotID: id, Field: "name", Message: "required"})
		case names[key]:
			errs = append(errs, ValidationError{SnapshotID: id, Field: "name", Message: fmt.Sprintf("duplicate name %q", s.Name)})
		}
		names[key] = true

		if s.ShortActionCap < 0 {
			errs = append(errs, ValidationError{SnapshotID: id, Field: "short_action_cap", Message: "must not be negative"})
		}
		if s.TimePoint.Minute < 0 || s.TimePoint.Minute >= 24*60 || s.TimePoint.Day < 0 {
			errs = append(errs, ValidationError{SnapshotID: id, Field: "time_point", Message: "out of range"})
		}
	}

	// Exits are checked once every name is known.
	for _, s := range snaps {
		dirs := make(map[string]bool)
		for _, e := range s.Exits {
			d := strings.ToLower(strings.TrimSpace(e.Direction))
			if d == "" {
				errs = append(errs, ValidationError{SnapshotID: s.ID, Field: "exits", Message: "exit without direction"})
				continue
			}
			if dirs[d] {
				errs = append(errs, ValidationError{SnapshotID: s.ID, Field: "exits", Message: fmt.Sprintf("duplicate direction %q", e.Direction)})
			}
			dirs[d] = true
			if e.Destination != "" && !names[nameKey(e.Destination)] {
				errs = append(errs, ValidationError{SnapshotID: s.ID, Field: "exits", Message: fmt.Sprintf("unknown destination %q", e.Destination)})
			}
		}
	}
	return errs
}
