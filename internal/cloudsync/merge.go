// Package cloudsync reconciles the local records with the user's remote copy.
//
// Records merge one id at a time by last write: the copy with the greater
// max(updatedAt, deletedAt) wins. On a tie a tombstone beats a live record,
// then the local copy wins. Two devices editing the same record
// concurrently keep only the later edit.
package cloudsync

import "github.com/jask/calendarspent/internal/model"

// Merge combines local and remote into one snapshot. Output keeps local order
// followed by records only the remote has.
func Merge(local, remote model.Snapshot) model.Snapshot {
	return model.Snapshot{
		Transactions: mergeRecords(local.Transactions, remote.Transactions),
		Categories:   mergeRecords(local.Categories, remote.Categories),
		VendorRules:  mergeRecords(local.VendorRules, remote.VendorRules),
		Exceptions:   mergeRecords(local.Exceptions, remote.Exceptions),
		Budgets:      mergeRecords(local.Budgets, remote.Budgets),
		Settings:     mergeSettings(local.Settings, remote.Settings),
	}
}

// Newer reports whether candidate should replace current.
func Newer[T model.Record](candidate, current T) bool {
	cv, v := candidate.Version(), current.Version()
	if cv != v {
		return cv > v
	}
	return candidate.Tombstoned() && !current.Tombstoned()
}

func mergeRecords[T model.Record](local, remote []T) []T {
	byKey := make(map[string]T, len(remote))
	order := make([]string, 0, len(remote))
	for _, r := range remote {
		if _, dup := byKey[r.Key()]; !dup {
			order = append(order, r.Key())
		}
		if cur, ok := byKey[r.Key()]; !ok || Newer(r, cur) {
			byKey[r.Key()] = r
		}
	}

	out := make([]T, 0, len(local)+len(remote))
	used := make(map[string]bool, len(local))
	for _, l := range local {
		if used[l.Key()] {
			continue
		}
		used[l.Key()] = true
		if r, ok := byKey[l.Key()]; ok && Newer(r, l) {
			l = r
		}
		out = append(out, l)
	}
	for _, k := range order {
		if !used[k] {
			out = append(out, byKey[k])
		}
	}
	return out
}

// mergeSettings picks the later preferences but always keeps the local sync
// bookkeeping, which describes this device.
func mergeSettings(local, remote *model.Settings) *model.Settings {
	switch {
	case local == nil && remote == nil:
		return nil
	case remote == nil:
		s := *local
		return &s
	case local == nil:
		s := *remote
		s.LastSyncAt, s.LastSyncError = 0, ""
		s.LastCalendarSyncAt, s.LastCalendarSyncError = 0, ""
		return &s
	}
	s := *local
	if remote.UpdatedAt > local.UpdatedAt {
		s = *remote
		s.LastSyncAt, s.LastSyncError = local.LastSyncAt, local.LastSyncError
		s.LastCalendarSyncAt, s.LastCalendarSyncError = local.LastCalendarSyncAt, local.LastCalendarSyncError
	}
	s.DefaultCategoryFilter = append([]string(nil), s.DefaultCategoryFilter...)
	return &s
}

// Diff returns the records of merged the remote does not have yet or holds
// an older copy of.
func Diff(merged, remote model.Snapshot) model.Snapshot {
	out := model.Snapshot{
		Transactions: diffRecords(merged.Transactions, remote.Transactions),
		Categories:   diffRecords(merged.Categories, remote.Categories),
		VendorRules:  diffRecords(merged.VendorRules, remote.VendorRules),
		Exceptions:   diffRecords(merged.Exceptions, remote.Exceptions),
		Budgets:      diffRecords(merged.Budgets, remote.Budgets),
	}
	if merged.Settings != nil && (remote.Settings == nil || merged.Settings.UpdatedAt > remote.Settings.UpdatedAt) {
		s := *merged.Settings
		out.Settings = &s
	}
	return out
}

func diffRecords[T model.Record](merged, remote []T) []T {
	idx := model.Index(remote)
	var out []T
	for _, m := range merged {
		if i, ok := idx[m.Key()]; !ok || Newer(m, remote[i]) {
			out = append(out, m)
		}
	}
	return out
}

// Size counts the records of s.
func Size(s model.Snapshot) int {
	n := len(s.Transactions) + len(s.Categories) + len(s.VendorRules) + len(s.Exceptions) + len(s.Budgets)
	if s.Settings != nil {
		n++
	}
	return n
}
