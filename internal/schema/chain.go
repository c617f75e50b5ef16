package schema

import "github.com/jask/calendarspent/internal/model"

// CurrentVersion is the schema version written by this build.
const CurrentVersion = 3

type step func(s *model.Snapshot) bool

// steps[i] upgrades version i to i+1.
var steps = []step{
	Apply,
	backfillClock,
	tombstoneUnskipped,
}

// Upgrade brings s from version from up to CurrentVersion. It returns the
// version reached and whether any record changed. Data written by a newer
// client is left alone.
func Upgrade(s *model.Snapshot, from int) (int, bool) {
	if from < 0 {
		from = 0
	}
	changed := false
	for v := from; v < CurrentVersion && v < len(steps); v++ {
		if steps[v](s) {
			changed = true
		}
	}
	return max(from, CurrentVersion), changed
}

// backfillClock gives records written before last-write-wins existed the
// oldest possible stamp, so any copy edited since wins the merge.
func backfillClock(s *model.Snapshot) bool {
	changed := false
	for i := range s.Transactions {
		changed = stamp(&s.Transactions[i].UpdatedAt) || changed
	}
	for i := range s.Categories {
		changed = stamp(&s.Categories[i].UpdatedAt) || changed
	}
	for i := range s.VendorRules {
		changed = stamp(&s.VendorRules[i].UpdatedAt) || changed
	}
	for i := range s.Exceptions {
		changed = stamp(&s.Exceptions[i].UpdatedAt) || changed
	}
	for i := range s.Budgets {
		changed = stamp(&s.Budgets[i].UpdatedAt) || changed
	}
	if s.Settings != nil {
		changed = stamp(&s.Settings.UpdatedAt) || changed
	}
	return changed
}

func stamp(ts *int64) bool {
	if *ts != 0 {
		return false
	}
	*ts = 1
	return true
}

// tombstoneUnskipped turns exceptions stored with skipped=false (how older
// clients recorded an unskip) into tombstones.
func tombstoneUnskipped(s *model.Snapshot) bool {
	changed := false
	for i, e := range s.Exceptions {
		if e.Tombstoned() || e.Skipped {
			continue
		}
		s.Exceptions[i].DeletedAt = max(e.UpdatedAt, 1)
		changed = true
	}
	return changed
}
